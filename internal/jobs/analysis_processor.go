package jobs

import (
	"context"
	"fmt"
	"time"

	"CscxSaas/api/analytics"
	"CscxSaas/api/invoice"
	"CscxSaas/internal/config"
	"CscxSaas/internal/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
)

type AnalysisConfig struct {
	Schedule string
	TimeZone string
}

func NewDefaultAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{
		Schedule: config.DefaultAnalysisSchedule,
		TimeZone: config.DefaultTimeZone,
	}
}

// RunAnalysisScheduler schedules the nightly portfolio analysis so risk and
// early-warning data stay fresh without anyone hitting the endpoint.
func RunAnalysisScheduler(cfg *AnalysisConfig, db *pgxpool.Pool) error {
	if cfg.Schedule == "" {
		cfg.Schedule = config.DefaultAnalysisSchedule
	}
	if cfg.TimeZone == "" {
		cfg.TimeZone = config.DefaultTimeZone
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return fmt.Errorf("invalid timezone for analysis scheduler: %v", err)
	}

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(cfg.Schedule, func() {
		if logger.GlobalLogger != nil {
			logger.GlobalLogger.LogAudit(fmt.Sprintf("Running scheduled portfolio analysis at %s", time.Now().In(loc)))
		}
		if err := RunPortfolioAnalysisOnce(context.Background(), db); err != nil {
			if logger.GlobalLogger != nil {
				logger.GlobalLogger.LogAudit(fmt.Sprintf("[ERROR] Scheduled portfolio analysis failed: %v", err))
			}
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule portfolio analysis: %v", err)
	}
	c.Start()
	return nil
}

// RunPortfolioAnalysisOnce analyzes every committed invoice record and
// records the run summary.
func RunPortfolioAnalysisOnce(ctx context.Context, db *pgxpool.Pool) error {
	store := invoice.NewInvoiceStore(db)
	records, err := store.LoadAllRecords(ctx)
	if err != nil {
		return fmt.Errorf("failed to load invoice records: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	analysis := analytics.AnalyzePaymentPatterns(ctx, records, analytics.NewCustomerProfileStore(db), time.Now())

	runID := uuid.New()
	_, err = db.Exec(ctx, `
		INSERT INTO payment_analysis_runs
		(run_id, generated_at, customer_count, invoice_count, high_risk_count, early_warning_count)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		runID, analysis.GeneratedAt, analysis.Overview.TotalCustomers,
		analysis.Overview.TotalInvoices, len(analysis.HighRiskAccounts), len(analysis.EarlyWarnings))
	if err != nil {
		return fmt.Errorf("failed to record analysis run: %w", err)
	}

	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogAudit(fmt.Sprintf(
			"Portfolio analysis %s completed: %d customers, %d high risk, %d early warnings",
			runID, analysis.Overview.TotalCustomers, len(analysis.HighRiskAccounts), len(analysis.EarlyWarnings)))
	}
	return nil
}
