package invoice

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"CscxSaas/api/constants"

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

func respondWithJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set(constants.ContentTypeHeader, constants.ContentTypeJSON)
	json.NewEncoder(w).Encode(payload)
}

// parseUploadedFile runs the shared parse pipeline: read, map columns (caller
// mapping wins when supplied), normalize. The run timestamp is captured once
// so every row in the batch sees the same "today".
func parseUploadedFile(fileBytes []byte, filename string, callerMapping *ColumnMapping, defaultCurrency string) (*ParsedInvoiceData, error) {
	headers, rows, err := ReadInvoiceFile(fileBytes, filename)
	if err != nil {
		return nil, err
	}

	var mapping ColumnMapping
	var unmapped []string
	if callerMapping != nil {
		mapping = *callerMapping
	} else {
		mapping, unmapped = ResolveColumnMapping(headers)
	}

	now := time.Now()
	result := NormalizeRows(rows, mapping, defaultCurrency, now)

	preview := result.Records
	if len(preview) > constants.PreviewRowCount {
		preview = preview[:constants.PreviewRowCount]
	}

	return &ParsedInvoiceData{
		ParseID:         uuid.New().String(),
		FileName:        filename,
		Headers:         headers,
		Mapping:         mapping,
		UnmappedColumns: unmapped,
		Records:         result.Records,
		Preview:         preview,
		Errors:          result.Errors,
		Warnings:        result.Warnings,
		TotalRows:       len(rows),
	}, nil
}

// readUploadRequest pulls the file and optional confirmed mapping out of a
// multipart request. Mirrors the preview/upload split used by the UI: parse
// first with inferred mapping, confirm, then upload with mappings set.
func readUploadRequest(r *http.Request) ([]byte, string, *ColumnMapping, string, error) {
	if err := r.ParseMultipartForm(constants.MaxUploadBytes); err != nil {
		return nil, "", nil, "", fmt.Errorf("failed to parse form data: %w", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", nil, "", fmt.Errorf("missing 'file' field: %w", err)
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return nil, "", nil, "", fmt.Errorf("failed to read file: %w", err)
	}

	var mapping *ColumnMapping
	if r.FormValue("useMapping") == "true" {
		if mappingsJSON := r.FormValue("mappings"); mappingsJSON != "" {
			mapping = &ColumnMapping{}
			if err := json.Unmarshal([]byte(mappingsJSON), mapping); err != nil {
				return nil, "", nil, "", fmt.Errorf("invalid mappings JSON: %w", err)
			}
		}
	}

	currency := r.FormValue("currency")
	return fileBytes, header.Filename, mapping, currency, nil
}

// ParseInvoicesHandler parses an uploaded file and returns the full
// ParsedInvoiceData (mapping, preview, errors, warnings) without touching the
// database. The UI uses this for mapping confirmation.
func ParseInvoicesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fileBytes, filename, mapping, currency, err := readUploadRequest(r)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		parsed, err := parseUploadedFile(fileBytes, filename, mapping, currency)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("file processing failed: %v", err))
			return
		}
		respondWithJSON(w, map[string]interface{}{
			"success": true,
			"data":    parsed,
		})
	}
}

// UploadInvoicesHandler parses and commits an uploaded file. Re-uploading the
// same content is detected by SHA-256 hash and returns the existing batch
// instead of double counting invoices.
func UploadInvoicesHandler(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()
		ctx := r.Context()

		fileBytes, filename, mapping, currency, err := readUploadRequest(r)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		hash := sha256.Sum256(fileBytes)
		fileHash := hex.EncodeToString(hash[:])

		store := NewInvoiceStore(pool)
		if existing, err := store.FindBatchByFileHash(ctx, fileHash); err == nil && existing != nil {
			respondWithJSON(w, map[string]interface{}{
				"success":   true,
				"batch_id":  existing,
				"duplicate": true,
				"message":   "Duplicate upload detected - returning existing batch",
			})
			return
		}

		parsed, err := parseUploadedFile(fileBytes, filename, mapping, currency)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("file processing failed: %v", err))
			return
		}

		batch := IngestionBatch{
			BatchID:         uuid.New(),
			FileName:        filename,
			FileHash:        fileHash,
			TotalRecords:    parsed.TotalRows,
			RejectedRecords: len(parsed.Errors),
		}
		if err := store.CommitBatch(ctx, batch, parsed.Records); err != nil {
			respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("failed to commit invoice batch: %v", err))
			return
		}

		log.Printf("Invoice batch upload completed: %d records (%d rejected) in %v",
			len(parsed.Records), len(parsed.Errors), time.Since(startTime))
		respondWithJSON(w, map[string]interface{}{
			"success":           true,
			"batch_id":          batch.BatchID,
			"total_rows":        parsed.TotalRows,
			"processed_records": len(parsed.Records),
			"rejected_records":  len(parsed.Errors),
			"warnings":          parsed.Warnings,
			"mapping":           parsed.Mapping,
			"processing_time":   time.Since(startTime).String(),
		})
	}
}

// SuggestMappingHandler returns per-header mapping suggestions for a list of
// headers posted as JSON, without requiring a file re-upload.
func SuggestMappingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Headers []string `json:"headers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Headers) == 0 {
			respondWithError(w, http.StatusBadRequest, "headers required in body")
			return
		}
		mapping, unmapped := ResolveColumnMapping(req.Headers)
		respondWithJSON(w, map[string]interface{}{
			"success":          true,
			"suggestions":      SuggestColumnMappings(req.Headers),
			"mapping":          mapping,
			"unmapped_columns": unmapped,
		})
	}
}
