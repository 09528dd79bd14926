package services

import (
	"context"

	"divar-tracker/models"
	"divar-tracker/storage"
	"divar-tracker/utils"
)

// RawRateFetcher returns the upstream exchange-rate history as published.
type RawRateFetcher interface {
	FetchRaw() ([]models.RawRate, error)
}

// RateSync downloads the rate history, cleans it and stores it as one batch.
type RateSync struct {
	fetcher RawRateFetcher
	cleaner *RateCleaner
	writer  storage.ExchangeRateWriter
	logger  *utils.Logger
}

func NewRateSync(fetcher RawRateFetcher, writer storage.ExchangeRateWriter, logger *utils.Logger) *RateSync {
	return &RateSync{
		fetcher: fetcher,
		cleaner: NewRateCleaner(logger),
		writer:  writer,
		logger:  logger,
	}
}

// Run returns the cleaned records and the number of new rows. Nothing is
// written if any row fails to parse.
func (s *RateSync) Run(ctx context.Context) ([]models.ExchangeRateRecord, int64, error) {
	raw, err := s.fetcher.FetchRaw()
	if err != nil {
		return nil, 0, err
	}
	rates, err := s.cleaner.Clean(raw)
	if err != nil {
		return nil, 0, err
	}
	inserted, err := s.writer.WriteExchangeRates(ctx, rates)
	if err != nil {
		return nil, 0, err
	}

	s.logger.Info("Exchange rates stored", "fetched", len(rates), "inserted", inserted)
	return rates, inserted, nil
}
