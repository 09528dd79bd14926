package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"divar-tracker/models"
)

type staticRates struct {
	rows []models.RawRate
	err  error
}

func (s staticRates) FetchRaw() ([]models.RawRate, error) { return s.rows, s.err }

type recordingRateWriter struct {
	calls    int
	got      []models.ExchangeRateRecord
	inserted int64
	err      error
}

func (w *recordingRateWriter) WriteExchangeRates(_ context.Context, recs []models.ExchangeRateRecord) (int64, error) {
	w.calls++
	w.got = recs
	return w.inserted, w.err
}

func TestRateSyncStoresCleanedBatch(t *testing.T) {
	writer := &recordingRateWriter{inserted: 1}
	fetcher := staticRates{rows: []models.RawRate{
		rateRow("585,900", "2024/05/01"),
		rateRow("587,300", "2024/05/02"),
	}}

	rates, inserted, err := NewRateSync(fetcher, writer, newTestLogger()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), inserted)
	assert.Equal(t, []models.ExchangeRateRecord{
		{Date: 20240501, Price: 585900},
		{Date: 20240502, Price: 587300},
	}, rates)
	assert.Equal(t, rates, writer.got)
}

func TestRateSyncWritesNothingOnMalformedRow(t *testing.T) {
	writer := &recordingRateWriter{}
	fetcher := staticRates{rows: []models.RawRate{
		rateRow("585,900", "2024/05/01"),
		rateRow("1e3", "2024/05/02"),
	}}

	_, _, err := NewRateSync(fetcher, writer, newTestLogger()).Run(context.Background())
	require.Error(t, err)
	assert.Zero(t, writer.calls)
}

func TestRateSyncPropagatesErrors(t *testing.T) {
	t.Run("fetch", func(t *testing.T) {
		writer := &recordingRateWriter{}
		_, _, err := NewRateSync(staticRates{err: errors.New("tgju: status 503")}, writer, newTestLogger()).
			Run(context.Background())
		assert.ErrorContains(t, err, "status 503")
		assert.Zero(t, writer.calls)
	})

	t.Run("write", func(t *testing.T) {
		writer := &recordingRateWriter{err: errors.New("postgres: commit rates")}
		fetcher := staticRates{rows: []models.RawRate{rateRow("585,900", "2024/05/01")}}

		_, _, err := NewRateSync(fetcher, writer, newTestLogger()).Run(context.Background())
		assert.ErrorContains(t, err, "commit rates")
	})
}
