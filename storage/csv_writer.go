package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"divar-tracker/models"
)

var csvHeader = []string{
	"date", "lon1", "lat1", "lon2", "lat2", "category", "price", "recent_ads", "count",
}

// CSVWriter writes a snapshot of the listing counts stored during one run.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteListingCount appends one row and flushes it.
func (c *CSVWriter) WriteListingCount(_ context.Context, rec models.ListingCountRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	row := []string{
		rec.Date.Format(time.DateOnly),
		strconv.FormatFloat(rec.Lon1, 'f', -1, 64),
		strconv.FormatFloat(rec.Lat1, 'f', -1, 64),
		strconv.FormatFloat(rec.Lon2, 'f', -1, 64),
		strconv.FormatFloat(rec.Lat2, 'f', -1, 64),
		rec.Category,
		strconv.FormatInt(rec.PriceCeiling, 10),
		rec.Recency,
		strconv.FormatInt(rec.Count, 10),
	}
	if err := c.writer.Write(row); err != nil {
		return fmt.Errorf("csv: write row: %w", err)
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
