// Package scraper holds the HTTP plumbing shared by the upstream API clients.
package scraper

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
)

// StatusError is returned by Get when the upstream answers with a non-2xx code.
type StatusError struct {
	URL  string
	Code int
	Err  error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %v", e.URL, e.Code, e.Err)
}

func (e *StatusError) Unwrap() error { return e.Err }

// ClientError reports whether the upstream rejected the request itself (4xx),
// in which case repeating it will not help.
func (e *StatusError) ClientError() bool {
	return e.Code >= 400 && e.Code < 500
}

// NewCollector returns the parent collector every request is cloned from.
// Responses are JSON and can be large, so the body size is not capped.
func NewCollector(timeout time.Duration) *colly.Collector {
	c := colly.NewCollector(colly.AllowURLRevisit())
	c.SetRequestTimeout(timeout)
	c.MaxBodySize = 0
	return c
}

// Get performs one synchronous GET through a clone of parent and returns the
// raw body.
func Get(parent *colly.Collector, target string) ([]byte, error) {
	c := parent.Clone()
	extensions.RandomUserAgent(c)

	var (
		body   []byte
		status int
	)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "application/json")
	})
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
		status = r.StatusCode
	})
	c.OnError(func(r *colly.Response, _ error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	if err := c.Visit(target); err != nil {
		if status != 0 && (status < http.StatusOK || status >= http.StatusMultipleChoices) {
			return nil, &StatusError{URL: target, Code: status, Err: err}
		}
		return nil, fmt.Errorf("get %s: %w", target, err)
	}
	c.Wait()

	return body, nil
}
