package analytics

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"CscxSaas/api/constants"
	"CscxSaas/api/invoice"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

func respondWithError(w http.ResponseWriter, status int, errMsg string) {
	log.Printf("[ERROR] %s", errMsg)
	w.Header().Set(constants.ContentTypeHeader, constants.ContentTypeJSON)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   errMsg,
	})
}

// AnalyzePaymentsHandler runs a full payment-pattern analysis. A request may
// carry its own normalized records (the parse-then-analyze flow); otherwise
// every committed invoice record in the store is analyzed.
func AnalyzePaymentsHandler(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req struct {
			Records []invoice.InvoiceRecord `json:"records"`
		}
		if r.Body != nil {
			// An empty or non-JSON body just means "analyze the stored portfolio".
			_ = json.NewDecoder(r.Body).Decode(&req)
		}

		records := req.Records
		if len(records) == 0 {
			store := invoice.NewInvoiceStore(pool)
			loaded, err := store.LoadAllRecords(ctx)
			if err != nil {
				respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load invoice records: %v", err))
				return
			}
			records = loaded
		}

		analysis := AnalyzePaymentPatterns(ctx, records, NewCustomerProfileStore(pool), time.Now())

		// Best effort: a failed audit insert must not fail the analysis.
		runID := uuid.New()
		if _, err := pool.Exec(ctx, `
			INSERT INTO payment_analysis_runs
			(run_id, generated_at, customer_count, invoice_count, high_risk_count, early_warning_count)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			runID, analysis.GeneratedAt, analysis.Overview.TotalCustomers,
			analysis.Overview.TotalInvoices, len(analysis.HighRiskAccounts), len(analysis.EarlyWarnings)); err != nil {
			log.Printf("[WARN] failed to record analysis run %s: %v", runID, err)
		}

		w.Header().Set(constants.ContentTypeHeader, constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"run_id":  runID,
			"data":    analysis,
		})
	}
}
