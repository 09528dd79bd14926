package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"divar-tracker/config"
	"divar-tracker/models"
	"divar-tracker/scraper/divar"
)

type memoryWriter struct {
	records []models.ListingCountRecord
	failOn  func(models.ListingCountRecord) bool
}

func (m *memoryWriter) WriteListingCount(_ context.Context, rec models.ListingCountRecord) error {
	if m.failOn != nil && m.failOn(rec) {
		return errors.New("duplicate key value violates unique constraint")
	}
	m.records = append(m.records, rec)
	return nil
}

type fetcherFunc func(ctx context.Context, url string) (int64, error)

func (f fetcherFunc) FetchCount(ctx context.Context, url string) (int64, error) { return f(ctx, url) }

var runDate = time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)

// countServer answers {"count": n} for the n-th request, except that
// request number bad is answered by misbehave.
func countServer(t *testing.T, bad int64, misbehave http.HandlerFunc) *httptest.Server {
	t.Helper()
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		if n == bad {
			misbehave(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"count": %d}`, n)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func sweepAgainst(t *testing.T, srv *httptest.Server, timeout time.Duration) (*models.SweepReport, *memoryWriter) {
	t.Helper()
	logger := newTestLogger()
	client := divar.New(&config.Config{DivarCountURL: srv.URL, HTTPTimeout: timeout}, logger)
	writer := &memoryWriter{}

	report, err := NewSweeper(client.BaseURL(), client, writer, logger).Run(context.Background(), runDate, DefaultGrid().All())
	require.NoError(t, err)
	return report, writer
}

func TestSweepSkipsNonJSONCombination(t *testing.T) {
	srv := countServer(t, 7, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html>maintenance</html>")
	})

	report, writer := sweepAgainst(t, srv, 5*time.Second)

	assert.Equal(t, 48, report.Attempted)
	assert.Equal(t, 47, report.Stored)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.FailedURLs, 1)
	assert.True(t, strings.HasPrefix(report.FailedURLs[0], srv.URL+"?lon1="))
	assert.Len(t, writer.records, 47)
	assert.Equal(t, report.Records, writer.records)
}

func TestSweepSkipsTimedOutCombination(t *testing.T) {
	srv := countServer(t, 3, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}
	})

	report, writer := sweepAgainst(t, srv, 100*time.Millisecond)

	assert.Equal(t, 47, report.Stored)
	assert.Equal(t, 1, report.Failed)
	assert.Len(t, writer.records, 47)
}

func TestSweepStampsRunDateAndQuery(t *testing.T) {
	srv := countServer(t, 0, nil)

	report, writer := sweepAgainst(t, srv, 5*time.Second)

	require.Len(t, writer.records, 48)
	assert.Zero(t, report.Failed)
	i := 0
	for q := range DefaultGrid().All() {
		rec := writer.records[i]
		assert.Equal(t, runDate, rec.Date)
		assert.Equal(t, q, rec.ListingQuery)
		assert.Equal(t, int64(i+1), rec.Count)
		i++
	}
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
}

func TestSweepSkipsStoreFailure(t *testing.T) {
	writer := &memoryWriter{failOn: func(r models.ListingCountRecord) bool { return r.Category == "plot-old" }}
	fetch := fetcherFunc(func(context.Context, string) (int64, error) { return 3, nil })

	report, err := NewSweeper("https://example.test/count", fetch, writer, newTestLogger()).
		Run(context.Background(), runDate, DefaultGrid().All())
	require.NoError(t, err)

	assert.Equal(t, 24, report.Stored)
	assert.Equal(t, 24, report.Failed)
	assert.Len(t, writer.records, 24)
}

func TestSweepMirrorsToSnapshot(t *testing.T) {
	writer := &memoryWriter{}
	snapshot := &memoryWriter{failOn: func(r models.ListingCountRecord) bool { return r.Recency == "" }}
	fetch := fetcherFunc(func(context.Context, string) (int64, error) { return 1, nil })

	report, err := NewSweeper("https://example.test/count", fetch, writer, newTestLogger()).
		WithSnapshot(snapshot).
		Run(context.Background(), runDate, DefaultGrid().All())
	require.NoError(t, err)

	// Snapshot failures do not fail the combination.
	assert.Equal(t, 48, report.Stored)
	assert.Len(t, writer.records, 48)
	assert.Len(t, snapshot.records, 32)
}

func TestSweepStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	fetch := fetcherFunc(func(context.Context, string) (int64, error) {
		calls++
		if calls == 3 {
			cancel()
		}
		return 1, nil
	})

	report, err := NewSweeper("https://example.test/count", fetch, &memoryWriter{}, newTestLogger()).
		Run(ctx, runDate, DefaultGrid().All())

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, report.Attempted)
	assert.Equal(t, 3, report.Stored)
}

func TestSweepBadBaseURL(t *testing.T) {
	fetch := fetcherFunc(func(context.Context, string) (int64, error) {
		t.Fatal("fetch must not be called")
		return 0, nil
	})

	report, err := NewSweeper("://missing-scheme", fetch, &memoryWriter{}, newTestLogger()).
		Run(context.Background(), runDate, DefaultGrid().All())
	require.NoError(t, err)
	assert.Equal(t, 48, report.Failed)
	assert.Zero(t, report.Stored)
}
