package models

import "time"

// NoPriceCeiling disables the price filter of a ListingQuery.
const NoPriceCeiling int64 = -1

// ListingQuery is one cell of the sweep grid: a bounding box plus the
// category, price and recency filters sent to the count endpoint.
type ListingQuery struct {
	Lon1         float64
	Lat1         float64
	Lon2         float64
	Lat2         float64
	Category     string
	PriceCeiling int64
	// Recency is a trailing window token such as "1d" or "7d". Empty means
	// no recency filter.
	Recency string
}

// HasPriceCeiling reports whether the query restricts the price.
func (q ListingQuery) HasPriceCeiling() bool {
	return q.PriceCeiling != NoPriceCeiling
}

// ListingCountRecord is the persisted result of one ListingQuery on one day.
type ListingCountRecord struct {
	Date time.Time
	ListingQuery
	Count int64
}

// SweepReport holds the tally of one run over the grid.
type SweepReport struct {
	Attempted  int
	Stored     int
	Failed     int
	FailedURLs []string
	Records    []ListingCountRecord
	StartedAt  time.Time
	FinishedAt time.Time
}
