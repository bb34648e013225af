package monitor

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/preppal/backend/internal/contracts"
)

// Repository is the durable Postgres-backed Ledger. The table is
// append-only; nothing here updates or deletes rows.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a ledger repository over a connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the ledger table when it does not exist yet.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS accuracy_log (
			id            BIGSERIAL PRIMARY KEY,
			logged_at     TIMESTAMPTZ NOT NULL,
			mae           DOUBLE PRECISION NOT NULL,
			mape          DOUBLE PRECISION NOT NULL,
			rmse          DOUBLE PRECISION NOT NULL,
			r2            DOUBLE PRECISION NOT NULL,
			n_predictions INTEGER NOT NULL,
			business_type TEXT,
			item_name     TEXT
		)
	`
	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("create accuracy_log: %w", err)
	}
	return nil
}

// Append inserts one accuracy record and returns it with its assigned id.
func (r *Repository) Append(ctx context.Context, rec contracts.AccuracyRecord) (contracts.AccuracyRecord, error) {
	query := `
		INSERT INTO accuracy_log
			(logged_at, mae, mape, rmse, r2, n_predictions, business_type, item_name)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''))
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		rec.Timestamp, rec.MAE, rec.MAPE, rec.RMSE, rec.R2,
		rec.NPredictions, string(rec.BusinessType), rec.ItemName,
	).Scan(&rec.ID)
	if err != nil {
		return rec, fmt.Errorf("append accuracy record: %w", err)
	}
	return rec, nil
}

// Recent returns the last n records in chronological order.
func (r *Repository) Recent(ctx context.Context, n int) ([]contracts.AccuracyRecord, error) {
	query := `
		SELECT id, logged_at, mae, mape, rmse, r2, n_predictions,
		       COALESCE(business_type, ''), COALESCE(item_name, '')
		FROM (
			SELECT * FROM accuracy_log ORDER BY id DESC LIMIT $1
		) recent
		ORDER BY id ASC
	`
	rows, err := r.db.Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("query recent accuracy: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Filter returns the last n records matching the optional item and business
// filters, in chronological order.
func (r *Repository) Filter(ctx context.Context, itemName string, businessType contracts.BusinessType, n int) ([]contracts.AccuracyRecord, error) {
	query := `
		SELECT id, logged_at, mae, mape, rmse, r2, n_predictions,
		       COALESCE(business_type, ''), COALESCE(item_name, '')
		FROM (
			SELECT * FROM accuracy_log
			WHERE ($1 = '' OR item_name = $1)
			  AND ($2 = '' OR business_type = $2)
			ORDER BY id DESC LIMIT $3
		) recent
		ORDER BY id ASC
	`
	rows, err := r.db.Query(ctx, query, itemName, string(businessType), n)
	if err != nil {
		return nil, fmt.Errorf("query filtered accuracy: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Count returns the total number of ledger entries.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM accuracy_log`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count accuracy records: %w", err)
	}
	return count, nil
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanRecords(rows pgxRows) ([]contracts.AccuracyRecord, error) {
	var out []contracts.AccuracyRecord
	for rows.Next() {
		var rec contracts.AccuracyRecord
		var biz, item string
		if err := rows.Scan(&rec.ID, &rec.Timestamp, &rec.MAE, &rec.MAPE, &rec.RMSE,
			&rec.R2, &rec.NPredictions, &biz, &item); err != nil {
			return nil, fmt.Errorf("scan accuracy record: %w", err)
		}
		rec.BusinessType = contracts.BusinessType(biz)
		rec.ItemName = item
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accuracy records: %w", err)
	}
	return out, nil
}
