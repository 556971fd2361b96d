package invoice

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IngestionBatch tracks one committed upload for idempotency and status
// reporting.
type IngestionBatch struct {
	BatchID          uuid.UUID `json:"batch_id"`
	FileName         string    `json:"file_name"`
	FileHash         string    `json:"file_hash"`
	Status           string    `json:"status"`
	TotalRecords     int       `json:"total_records"`
	RejectedRecords  int       `json:"rejected_records"`
	IngestionTime    time.Time `json:"ingestion_time"`
	ErrorMessage     *string   `json:"error_message,omitempty"`
	ProcessedRecords int       `json:"processed_records"`
}

// batchConn is the subset of the pgx pool API the store uses.
type batchConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// InvoiceStore persists committed invoice batches.
type InvoiceStore struct {
	db batchConn
}

func NewInvoiceStore(pool *pgxpool.Pool) *InvoiceStore {
	return &InvoiceStore{db: pool}
}

// FindBatchByFileHash returns the batch id of a previously committed upload
// with the same content hash, if any.
func (s *InvoiceStore) FindBatchByFileHash(ctx context.Context, fileHash string) (*uuid.UUID, error) {
	var batchID uuid.UUID
	err := s.db.QueryRow(ctx, `
		SELECT batch_id FROM invoice_ingestion_batches
		WHERE file_hash = $1 AND status IN ('completed', 'processing')
		ORDER BY ingestion_time DESC LIMIT 1`, fileHash).Scan(&batchID)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &batchID, nil
}

// CommitBatch records the batch header, then inserts all records in one
// transaction. The header is written outside that transaction: a failed
// record insert aborts the data transaction, and the failure status has to
// land on a live connection.
func (s *InvoiceStore) CommitBatch(ctx context.Context, batch IngestionBatch, records []InvoiceRecord) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO invoice_ingestion_batches
		(batch_id, file_name, file_hash, status, total_records, rejected_records, ingestion_time)
		VALUES ($1, $2, $3, 'processing', $4, $5, now())`,
		batch.BatchID, batch.FileName, batch.FileHash, batch.TotalRecords, batch.RejectedRecords)
	if err != nil {
		return fmt.Errorf("failed to create ingestion batch: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := s.batchInsertRecords(ctx, tx, batch.BatchID, records); err != nil {
		_ = tx.Rollback(ctx)
		if _, updateErr := s.db.Exec(ctx,
			`UPDATE invoice_ingestion_batches SET status = 'failed', error_message = $1 WHERE batch_id = $2`,
			err.Error(), batch.BatchID); updateErr != nil {
			log.Printf("[ERROR] failed to mark batch %s as failed: %v", batch.BatchID, updateErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		UPDATE invoice_ingestion_batches
		SET status = 'completed', processed_records = $1
		WHERE batch_id = $2`, len(records), batch.BatchID)
	if err != nil {
		return fmt.Errorf("failed to update batch totals: %w", err)
	}
	return nil
}

func (s *InvoiceStore) batchInsertRecords(ctx context.Context, tx pgx.Tx, batchID uuid.UUID, records []InvoiceRecord) error {
	if len(records) == 0 {
		return nil
	}

	pgb := &pgx.Batch{}
	query := `INSERT INTO invoice_records
		(record_id, batch_id, customer_id, customer_name, invoice_number, amount, amount_paid,
		currency, invoice_date, due_date, paid_date, status, description, days_to_pay, days_overdue, source_row)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''), $12, $13, $14, $15, $16)`
	for _, rec := range records {
		pgb.Queue(query, rec.ID, batchID, rec.CustomerID, rec.CustomerName, rec.InvoiceNumber,
			rec.Amount, rec.AmountPaid, rec.Currency, rec.InvoiceDate, rec.DueDate, rec.PaidDate,
			string(rec.Status), rec.Description, rec.DaysToPay, rec.DaysOverdue, rec.SourceRow)
	}

	br := tx.SendBatch(ctx, pgb)
	defer br.Close()

	var failures []string
	for i := range records {
		if _, err := br.Exec(); err != nil {
			failures = append(failures, fmt.Sprintf("record %d (invoice %s): %v", i+1, records[i].InvoiceNumber, err))
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("failed to insert %d of %d invoice records: %s",
			len(failures), len(records), strings.Join(failures, "; "))
	}
	return nil
}

// LoadAllRecords returns every committed invoice record, for analysis runs
// over the stored portfolio.
func (s *InvoiceStore) LoadAllRecords(ctx context.Context) ([]InvoiceRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT record_id, customer_id, customer_name, invoice_number, amount, amount_paid,
		       currency, invoice_date, due_date, COALESCE(paid_date, ''), status,
		       COALESCE(description, ''), days_to_pay, days_overdue, source_row
		FROM invoice_records
		ORDER BY customer_id, invoice_date`)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoice records: %w", err)
	}
	defer rows.Close()

	records := []InvoiceRecord{}
	for rows.Next() {
		var rec InvoiceRecord
		var status string
		if err := rows.Scan(&rec.ID, &rec.CustomerID, &rec.CustomerName, &rec.InvoiceNumber,
			&rec.Amount, &rec.AmountPaid, &rec.Currency, &rec.InvoiceDate, &rec.DueDate,
			&rec.PaidDate, &status, &rec.Description, &rec.DaysToPay, &rec.DaysOverdue, &rec.SourceRow); err != nil {
			return nil, err
		}
		rec.Status = InvoiceStatus(status)
		records = append(records, rec)
	}
	return records, rows.Err()
}
