// Package tgju fetches the USD/IRR history table published by tgju.org.
package tgju

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/gocolly/colly/v2"

	"divar-tracker/config"
	"divar-tracker/models"
	"divar-tracker/scraper"
	"divar-tracker/utils"
)

// ErrNoData is returned when the response carries no "data" array.
var ErrNoData = errors.New("tgju: response has no data array")

type summaryTable struct {
	Data *[]models.RawRate `json:"data"`
}

// Client downloads the full exchange-rate history in one request.
type Client struct {
	url       string
	collector *colly.Collector
	logger    *utils.Logger
}

// New creates a ready-to-use tgju Client.
func New(cfg *config.Config, logger *utils.Logger) *Client {
	return &Client{
		url:       cfg.RatesURL,
		collector: scraper.NewCollector(cfg.HTTPTimeout),
		logger:    logger,
	}
}

// FetchRaw returns every row of the history table as published.
func (c *Client) FetchRaw() ([]models.RawRate, error) {
	body, err := scraper.Get(c.collector, c.url)
	if err != nil {
		return nil, fmt.Errorf("tgju: %w", err)
	}

	var table summaryTable
	if err := sonic.Unmarshal(body, &table); err != nil {
		return nil, fmt.Errorf("tgju: decode response: %w", err)
	}
	if table.Data == nil {
		return nil, ErrNoData
	}

	c.logger.Info("fetched exchange-rate history", "rows", len(*table.Data))
	return *table.Data, nil
}
