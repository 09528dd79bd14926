package services

import (
	"context"
	"iter"
	"time"

	"divar-tracker/models"
	"divar-tracker/scraper/divar"
	"divar-tracker/storage"
	"divar-tracker/utils"
)

// CountFetcher returns the listing count served at a count URL.
type CountFetcher interface {
	FetchCount(ctx context.Context, url string) (int64, error)
}

// Sweeper walks the query grid one combination at a time: build the URL,
// fetch the count, store it.
type Sweeper struct {
	baseURL  string
	fetcher  CountFetcher
	writer   storage.ListingCountWriter
	snapshot storage.ListingCountWriter
	logger   *utils.Logger
}

func NewSweeper(baseURL string, fetcher CountFetcher, writer storage.ListingCountWriter, logger *utils.Logger) *Sweeper {
	return &Sweeper{
		baseURL: baseURL,
		fetcher: fetcher,
		writer:  writer,
		logger:  logger,
	}
}

// WithSnapshot mirrors every stored record to w. Snapshot failures are
// logged and never count against the combination.
func (s *Sweeper) WithSnapshot(w storage.ListingCountWriter) *Sweeper {
	s.snapshot = w
	return s
}

// Run stores one record per query, all dated runDate. A failing combination
// is logged and skipped. Run only returns an error when ctx is cancelled,
// together with the partial report.
func (s *Sweeper) Run(ctx context.Context, runDate time.Time, queries iter.Seq[models.ListingQuery]) (*models.SweepReport, error) {
	report := &models.SweepReport{StartedAt: time.Now()}
	defer func() { report.FinishedAt = time.Now() }()

	for q := range queries {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("sweep interrupted", "attempted", report.Attempted, "error", err)
			return report, err
		}
		report.Attempted++

		rec, url, err := s.sweepOne(ctx, runDate, q)
		if err != nil {
			report.Failed++
			report.FailedURLs = append(report.FailedURLs, url)
			s.logger.Error("combination skipped", "url", url, "error", err)
			continue
		}

		report.Stored++
		report.Records = append(report.Records, rec)
		s.logger.Info("count stored", "url", url, "count", rec.Count)

		if s.snapshot != nil {
			if err := s.snapshot.WriteListingCount(ctx, rec); err != nil {
				s.logger.Warn("snapshot write failed", "url", url, "error", err)
			}
		}
	}

	return report, nil
}

func (s *Sweeper) sweepOne(ctx context.Context, runDate time.Time, q models.ListingQuery) (models.ListingCountRecord, string, error) {
	url, err := divar.BuildCountURL(s.baseURL, q)
	if err != nil {
		return models.ListingCountRecord{}, s.baseURL, err
	}

	count, err := s.fetcher.FetchCount(ctx, url)
	if err != nil {
		return models.ListingCountRecord{}, url, err
	}

	rec := models.ListingCountRecord{Date: runDate, ListingQuery: q, Count: count}
	if err := s.writer.WriteListingCount(ctx, rec); err != nil {
		return models.ListingCountRecord{}, url, err
	}
	return rec, url, nil
}
