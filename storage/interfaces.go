package storage

import (
	"context"

	"divar-tracker/models"
)

// ListingCountWriter is the interface any listing-count sink must satisfy.
type ListingCountWriter interface {
	WriteListingCount(ctx context.Context, rec models.ListingCountRecord) error
}

// ExchangeRateWriter persists a whole exchange-rate batch or nothing, and
// reports how many new rows were added.
type ExchangeRateWriter interface {
	WriteExchangeRates(ctx context.Context, recs []models.ExchangeRateRecord) (int64, error)
}
