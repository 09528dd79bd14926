package models

import "time"

// RunSummary is the closing report printed after a run.
type RunSummary struct {
	RunDate    time.Time
	Duration   time.Duration
	Attempted  int
	Stored     int
	Failed     int
	FailedURLs []string

	// ListingsByCategory sums the unfiltered counts (no price ceiling, no
	// recency window) of every bounding box.
	ListingsByCategory map[string]int64
	Busiest            *ListingCountRecord

	RatesFetched  int
	RatesInserted int64
	LatestRate    *ExchangeRateRecord
}
