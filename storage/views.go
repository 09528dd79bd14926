package storage

import (
	"context"
	"fmt"

	"github.com/lib/pq"
)

// AggregateView is a materialized daily sum of counts for one fixed
// (category, price, recency) slice of divar_data.
type AggregateView struct {
	Name     string
	Category string
	Price    int64
	Recency  string
}

// DefaultViews are the two trend views rebuilt on every run.
func DefaultViews() []AggregateView {
	return []AggregateView{
		{Name: "mv_divar_apartment", Category: "apartment-sell", Price: 8000000000, Recency: "7d"},
		{Name: "mv_divar_plotold", Category: "plot-old", Price: 8000000000, Recency: "7d"},
	}
}

func (v AggregateView) dropSQL() string {
	return "DROP MATERIALIZED VIEW IF EXISTS " + pq.QuoteIdentifier(v.Name)
}

// createSQL inlines the filter values: DDL does not accept bind parameters.
func (v AggregateView) createSQL() string {
	return fmt.Sprintf(`CREATE MATERIALIZED VIEW %s AS
		SELECT date, SUM(count) AS sum
		FROM %s
		WHERE price = %d AND recent_ads = %s AND category = %s
		GROUP BY date
		ORDER BY date`,
		pq.QuoteIdentifier(v.Name), tableListings, v.Price,
		pq.QuoteLiteral(v.Recency), pq.QuoteLiteral(v.Category))
}

// RefreshViews drops every view, then recreates them from the current rows.
func (pw *PostgresWriter) RefreshViews(ctx context.Context, views []AggregateView) error {
	for _, v := range views {
		if _, err := pw.db.ExecContext(ctx, v.dropSQL()); err != nil {
			return fmt.Errorf("postgres: drop view %s: %w", v.Name, err)
		}
	}
	for _, v := range views {
		if _, err := pw.db.ExecContext(ctx, v.createSQL()); err != nil {
			return fmt.Errorf("postgres: create view %s: %w", v.Name, err)
		}
	}
	return nil
}
