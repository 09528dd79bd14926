package divar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gocolly/colly/v2"

	"divar-tracker/config"
	"divar-tracker/scraper"
	"divar-tracker/utils"
)

// countAPI decodes numbers as json.Number so counts are read as exact
// integers on every sonic backend.
var countAPI = sonic.Config{UseNumber: true}.Froze()

// Client fetches listing counts from the Divar map-discovery API.
type Client struct {
	baseURL   string
	collector *colly.Collector
	retry     *utils.RetryConfig
	logger    *utils.Logger
}

// New creates a ready-to-use Divar Client.
func New(cfg *config.Config, logger *utils.Logger) *Client {
	return &Client{
		baseURL:   cfg.DivarCountURL,
		collector: scraper.NewCollector(cfg.HTTPTimeout),
		retry: &utils.RetryConfig{
			MaxRetries: cfg.FetchMaxRetries,
			BaseDelay:  time.Second,
			Logger:     logger,
		},
		logger: logger,
	}
}

// BaseURL is the count endpoint queries are built against.
func (c *Client) BaseURL() string { return c.baseURL }

// FetchCount requests target and returns its "count" field. A body that is
// not JSON is an error; a missing or non-integer count is read as zero.
// Transport failures are retried up to the configured limit.
func (c *Client) FetchCount(ctx context.Context, target string) (int64, error) {
	var count int64

	err := c.retry.Do(ctx, "divar count", func() error {
		body, err := scraper.Get(c.collector, target)
		if err != nil {
			var se *scraper.StatusError
			if errors.As(err, &se) && se.ClientError() {
				return utils.Permanent(fmt.Errorf("divar: %w", err))
			}
			return fmt.Errorf("divar: %w", err)
		}

		n, err := decodeCount(body)
		if err != nil {
			return utils.Permanent(err)
		}
		count = n
		return nil
	})
	if err != nil {
		return 0, err
	}

	c.logger.Debug("fetched listing count", "url", target, "count", count)
	return count, nil
}

func decodeCount(body []byte) (int64, error) {
	var payload any
	if err := countAPI.Unmarshal(body, &payload); err != nil {
		return 0, fmt.Errorf("divar: decode count response: %w", err)
	}

	obj, ok := payload.(map[string]any)
	if !ok {
		return 0, nil
	}
	num, ok := obj["count"].(json.Number)
	if !ok {
		return 0, nil
	}
	n, err := num.Int64()
	if err != nil || n < 0 {
		return 0, nil
	}
	return n, nil
}
