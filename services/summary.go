package services

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"divar-tracker/models"
	"divar-tracker/utils"
)

type SummaryService struct {
	logger *utils.Logger
}

func NewSummaryService(logger *utils.Logger) *SummaryService {
	return &SummaryService{logger: logger}
}

// Generate condenses a sweep report and the stored rate batch into a
// RunSummary. report may be nil when the sweep never ran.
func (s *SummaryService) Generate(runDate time.Time, report *models.SweepReport, rates []models.ExchangeRateRecord, inserted int64) *models.RunSummary {
	sum := &models.RunSummary{
		RunDate:            runDate,
		ListingsByCategory: make(map[string]int64),
		RatesFetched:       len(rates),
		RatesInserted:      inserted,
	}

	if report != nil {
		sum.Attempted = report.Attempted
		sum.Stored = report.Stored
		sum.Failed = report.Failed
		sum.FailedURLs = report.FailedURLs
		sum.Duration = report.FinishedAt.Sub(report.StartedAt)

		for i := range report.Records {
			rec := &report.Records[i]
			if !rec.HasPriceCeiling() && rec.Recency == "" {
				sum.ListingsByCategory[rec.Category] += rec.Count
			}
			if sum.Busiest == nil || rec.Count > sum.Busiest.Count {
				sum.Busiest = rec
			}
		}
	}

	for i := range rates {
		if sum.LatestRate == nil || rates[i].Date > sum.LatestRate.Date {
			sum.LatestRate = &rates[i]
		}
	}

	return sum
}

// Print writes a human-readable report of sum to w.
func (s *SummaryService) Print(w io.Writer, sum *models.RunSummary) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  DIVAR MARKET RUN %s\033[0m\n", sum.RunDate.Format(time.DateOnly))
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Sweep\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Combinations attempted : \033[1m%d\033[0m\n", sum.Attempted)
	fmt.Fprintf(w, "  Counts stored          : \033[1;32m%d\033[0m\n", sum.Stored)
	fmt.Fprintf(w, "  Combinations skipped   : \033[1;31m%d\033[0m\n", sum.Failed)
	fmt.Fprintf(w, "  Duration               : %s\n", sum.Duration.Round(time.Millisecond))
	for _, u := range sum.FailedURLs {
		fmt.Fprintf(w, "    ✗ %s\n", truncate(u, 96))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Listings by Category (all prices, any time)\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(sum.ListingsByCategory) == 0 {
		fmt.Fprintf(w, "  No unfiltered counts stored\n")
	} else {
		cats := make([]string, 0, len(sum.ListingsByCategory))
		for c := range sum.ListingsByCategory {
			cats = append(cats, c)
		}
		sort.Slice(cats, func(i, j int) bool {
			return sum.ListingsByCategory[cats[i]] > sum.ListingsByCategory[cats[j]]
		})
		for _, c := range cats {
			fmt.Fprintf(w, "  %-30s %d\n", truncate(c, 28), sum.ListingsByCategory[c])
		}
	}
	if b := sum.Busiest; b != nil {
		fmt.Fprintf(w, "  Busiest query : %s, price %s, recency %s → \033[1m%d\033[0m\n",
			b.Category, priceLabel(b.PriceCeiling), recencyLabel(b.Recency), b.Count)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  USD/IRR Rates\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Rows fetched  : \033[1m%d\033[0m\n", sum.RatesFetched)
	fmt.Fprintf(w, "  New rows      : \033[1m%d\033[0m\n", sum.RatesInserted)
	if r := sum.LatestRate; r != nil {
		fmt.Fprintf(w, "  Latest        : %d → \033[1;32m%d\033[0m\n", r.Date, r.Price)
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func priceLabel(ceiling int64) string {
	if ceiling == models.NoPriceCeiling {
		return "any"
	}
	return fmt.Sprintf("≤%d", ceiling)
}

func recencyLabel(r string) string {
	if r == "" {
		return "any"
	}
	return r
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
