// Package history stores raw daily sales records and serves the trailing
// windows the forecaster and retrain gate read from.
package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/preppal/backend/internal/contracts"
)

// DefaultWindowDays is the trailing window length used for lag and rolling
// features at inference time.
const DefaultWindowDays = 30

// Provider serves trailing history windows to the forecasting path.
type Provider interface {
	// Window returns up to n most recent records for (item, business) in
	// ascending date order. An unseen item falls back to the most recent n
	// records for the business type across all items; a cold business
	// returns an empty window.
	Window(ctx context.Context, itemName string, businessType contracts.BusinessType, n int) ([]contracts.SalesRecord, error)
}

// Store is the full history contract used by training and retraining.
type Store interface {
	Provider
	LoadAll(ctx context.Context) ([]contracts.SalesRecord, error)
	Append(ctx context.Context, records []contracts.SalesRecord) error
}

// Repository is the Postgres-backed history store.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a history repository over a connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the sales table when it does not exist yet.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS sales_history (
			id                 BIGSERIAL PRIMARY KEY,
			sale_date          DATE NOT NULL,
			item_name          TEXT NOT NULL,
			business_type      TEXT NOT NULL,
			price              DOUBLE PRECISION NOT NULL,
			shelf_life_hours   DOUBLE PRECISION NOT NULL,
			quantity_available DOUBLE PRECISION NOT NULL,
			quantity_sold      DOUBLE PRECISION NOT NULL,
			customer_demand    DOUBLE PRECISION NOT NULL,
			waste_quantity     DOUBLE PRECISION NOT NULL,
			weather_condition  TEXT NOT NULL,
			holiday_flag       SMALLINT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_sales_history_series
			ON sales_history (business_type, item_name, sale_date)
	`
	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("create sales_history: %w", err)
	}
	return nil
}

const salesColumns = `
	sale_date, item_name, business_type, price, shelf_life_hours,
	quantity_available, quantity_sold, customer_demand, waste_quantity,
	weather_condition, holiday_flag
`

// Window implements Provider.
func (r *Repository) Window(ctx context.Context, itemName string, businessType contracts.BusinessType, n int) ([]contracts.SalesRecord, error) {
	if n <= 0 {
		n = DefaultWindowDays
	}

	query := `
		SELECT ` + salesColumns + `
		FROM (
			SELECT * FROM sales_history
			WHERE item_name = $1 AND business_type = $2
			ORDER BY sale_date DESC LIMIT $3
		) recent
		ORDER BY sale_date ASC
	`
	records, err := r.queryRecords(ctx, query, itemName, string(businessType), n)
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		return records, nil
	}

	// Cold-start item: aggregate window over the business type alone.
	query = `
		SELECT ` + salesColumns + `
		FROM (
			SELECT * FROM sales_history
			WHERE business_type = $1
			ORDER BY sale_date DESC LIMIT $2
		) recent
		ORDER BY sale_date ASC
	`
	return r.queryRecords(ctx, query, string(businessType), n)
}

// LoadAll returns every record ordered by (business, item, date).
func (r *Repository) LoadAll(ctx context.Context) ([]contracts.SalesRecord, error) {
	query := `
		SELECT ` + salesColumns + `
		FROM sales_history
		ORDER BY business_type, item_name, sale_date
	`
	return r.queryRecords(ctx, query)
}

// Append inserts new records. The table is append-only: deploy-time
// baseline growth only ever adds rows.
func (r *Repository) Append(ctx context.Context, records []contracts.SalesRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	query := `
		INSERT INTO sales_history (` + salesColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	for _, rec := range records {
		batch.Queue(query,
			rec.Date, rec.ItemName, string(rec.BusinessType),
			rec.Price, rec.ShelfLifeHours,
			rec.QuantityAvailable, rec.QuantitySold, rec.CustomerDemand,
			rec.WasteQuantity, string(rec.Weather), rec.HolidayFlag,
		)
	}
	br := r.db.SendBatch(ctx, batch)
	defer br.Close()
	for range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert sales record: %w", err)
		}
	}
	return nil
}

func (r *Repository) queryRecords(ctx context.Context, query string, args ...any) ([]contracts.SalesRecord, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sales history: %w", err)
	}
	defer rows.Close()

	var out []contracts.SalesRecord
	for rows.Next() {
		var rec contracts.SalesRecord
		var biz, weather string
		if err := rows.Scan(&rec.Date, &rec.ItemName, &biz, &rec.Price,
			&rec.ShelfLifeHours, &rec.QuantityAvailable, &rec.QuantitySold,
			&rec.CustomerDemand, &rec.WasteQuantity, &weather, &rec.HolidayFlag); err != nil {
			return nil, fmt.Errorf("scan sales record: %w", err)
		}
		rec.BusinessType = contracts.BusinessType(biz)
		rec.Weather = contracts.Weather(weather)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales history: %w", err)
	}
	return out, nil
}
