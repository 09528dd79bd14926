package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"divar-tracker/models"
	"divar-tracker/utils"
)

// Column positions in the upstream history table.
const (
	rateDateColumn  = 6
	ratePriceColumn = 3
)

// RateCleaner turns raw history rows into ExchangeRateRecords.
type RateCleaner struct {
	logger *utils.Logger
}

// NewRateCleaner creates a RateCleaner with the given logger.
func NewRateCleaner(logger *utils.Logger) *RateCleaner {
	return &RateCleaner{logger: logger}
}

// Clean parses every row. A single malformed row fails the whole batch and
// no records are returned. When a date repeats, the first price wins.
func (c *RateCleaner) Clean(raw []models.RawRate) ([]models.ExchangeRateRecord, error) {
	seen := make(map[int64]struct{}, len(raw))
	result := make([]models.ExchangeRateRecord, 0, len(raw))

	for i, row := range raw {
		date, err := parseRateDate(cell(row, rateDateColumn))
		if err != nil {
			return nil, fmt.Errorf("cleaner: row %d: %w", i, err)
		}
		price, err := parseRatePrice(cell(row, ratePriceColumn))
		if err != nil {
			return nil, fmt.Errorf("cleaner: row %d: %w", i, err)
		}

		if _, dup := seen[date]; dup {
			c.logger.Debug("duplicate rate date skipped", "date", date)
			continue
		}
		seen[date] = struct{}{}

		result = append(result, models.ExchangeRateRecord{Date: date, Price: price})
	}

	c.logger.Info("cleaned exchange rates", "raw", len(raw), "records", len(result))
	return result, nil
}

func cell(row models.RawRate, idx int) any {
	if idx >= len(row) {
		return nil
	}
	return row[idx]
}

// parseRateDate turns "2024/05/02" into 20240502.
func parseRateDate(v any) (int64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("missing or invalid date %v", v)
	}
	date, err := strconv.ParseInt(strings.ReplaceAll(s, "/", ""), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse date %q: %w", s, err)
	}
	return date, nil
}

var (
	maxPrice = decimal.NewFromInt(math.MaxInt64)
	minPrice = decimal.NewFromInt(math.MinInt64)
)

// parseRatePrice turns "587,300" into 587300. Fractions, exponents and
// values outside int64 are rejected.
func parseRatePrice(v any) (int64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("missing or invalid price %v", v)
	}
	digits := strings.ReplaceAll(s, ",", "")
	if strings.ContainsAny(digits, "eE") {
		return 0, fmt.Errorf("failed to parse price %q: exponent not allowed", s)
	}
	d, err := decimal.NewFromString(digits)
	if err != nil {
		return 0, fmt.Errorf("failed to parse price %q: %w", s, err)
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("price %q is not an integer", s)
	}
	if d.GreaterThan(maxPrice) || d.LessThan(minPrice) {
		return 0, fmt.Errorf("price %q overflows int64", s)
	}
	return d.IntPart(), nil
}
