package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"divar-tracker/models"
	"divar-tracker/utils"
)

const (
	tableListings = "divar_data"
	tableRates    = "dollar"

	// rateBatchSize keeps each rate INSERT well below the 65535 bind
	// parameter limit of the wire protocol.
	rateBatchSize = 1000
)

var (
	listingKey     = []string{"date", "lon1", "lat1", "lon2", "lat2", "category", "price", "recent_ads"}
	listingColumns = append(append([]string{}, listingKey...), "count")
	rateColumns    = []string{"date", "dollar_price"}
)

// PostgresWriter persists listing counts and exchange rates to PostgreSQL
// over a single shared connection.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens the database and pings it, retrying up to
// attempts times before giving up.
func NewPostgresWriter(ctx context.Context, dsn string, attempts int, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	retry := &utils.RetryConfig{MaxRetries: attempts - 1, BaseDelay: time.Second, Logger: logger}
	if err := retry.Do(ctx, "postgres ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return &PostgresWriter{db: db}, nil
}

// builder returns a squirrel statement builder using $n placeholders.
func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// EnsureSchema creates both tables if they do not exist yet.
func (pw *PostgresWriter) EnsureSchema(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS divar_data (
			date       DATE             NOT NULL DEFAULT CURRENT_DATE,
			lon1       DOUBLE PRECISION NOT NULL,
			lat1       DOUBLE PRECISION NOT NULL,
			lon2       DOUBLE PRECISION NOT NULL,
			lat2       DOUBLE PRECISION NOT NULL,
			category   TEXT             NOT NULL,
			price      BIGINT           NOT NULL,
			recent_ads TEXT             NOT NULL DEFAULT '',
			count      INTEGER          NOT NULL DEFAULT 0,
			PRIMARY KEY (date, lon1, lat1, lon2, lat2, category, price, recent_ads)
		);

		CREATE TABLE IF NOT EXISTS dollar (
			date         BIGINT  PRIMARY KEY,
			dollar_price INTEGER NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("postgres: ensure schema: %w", err)
	}
	return nil
}

// WriteListingCount stores one count. A same-day rerun of the same query
// overwrites the count instead of violating the primary key.
func (pw *PostgresWriter) WriteListingCount(ctx context.Context, rec models.ListingCountRecord) error {
	query := builder().Insert(tableListings).
		Columns(listingColumns...).
		Values(
			rec.Date.Format(time.DateOnly),
			rec.Lon1, rec.Lat1, rec.Lon2, rec.Lat2,
			rec.Category, rec.PriceCeiling, rec.Recency, rec.Count,
		).
		Suffix(fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET count = EXCLUDED.count", strings.Join(listingKey, ", ")))

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("postgres: build listing insert: %w", err)
	}
	if _, err := pw.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("postgres: insert listing count: %w", err)
	}
	return nil
}

// WriteExchangeRates inserts recs in one transaction. Dates already present
// keep their stored price. Any failure rolls the whole batch back.
func (pw *PostgresWriter) WriteExchangeRates(ctx context.Context, recs []models.ExchangeRateRecord) (inserted int64, err error) {
	if len(recs) == 0 {
		return 0, nil
	}

	tx, err := pw.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("postgres: begin rates tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i := 0; i < len(recs); i += rateBatchSize {
		end := min(i+rateBatchSize, len(recs))

		n, batchErr := insertRateBatch(ctx, tx, recs[i:end])
		if batchErr != nil {
			return 0, fmt.Errorf("postgres: insert rates %d-%d: %w", i, end, batchErr)
		}
		inserted += n
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("postgres: commit rates: %w", err)
	}
	return inserted, nil
}

func insertRateBatch(ctx context.Context, tx *sql.Tx, batch []models.ExchangeRateRecord) (int64, error) {
	query := builder().Insert(tableRates).Columns(rateColumns...)
	for _, r := range batch {
		query = query.Values(r.Date, r.Price)
	}
	query = query.Suffix("ON CONFLICT (date) DO NOTHING")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
