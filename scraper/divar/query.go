package divar

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"divar-tracker/models"
)

// Filter keys understood by the map-discovery count endpoint. Every filter
// is sent as its own repeated "filters" parameter.
const (
	filtersParam   = "filters"
	categoryFilter = "category"
	priceFilter    = "price"
	recencyFilter  = "recency_ads"
)

// BuildCountURL returns the count endpoint URL for q. Coordinates are passed
// through unchecked. A price filter is added only when q has a ceiling, and a
// recency filter only when q.Recency is set.
func BuildCountURL(base string, q models.ListingQuery) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("divar: parse base url %q: %w", base, err)
	}

	params := [][2]string{
		{"lon1", formatCoord(q.Lon1)},
		{"lat1", formatCoord(q.Lat1)},
		{"lon2", formatCoord(q.Lon2)},
		{"lat2", formatCoord(q.Lat2)},
		{filtersParam, categoryFilter + "=" + q.Category},
	}
	if q.HasPriceCeiling() {
		// the endpoint reads a negative price as "at most"
		params = append(params, [2]string{filtersParam, priceFilter + "=-" + strconv.FormatInt(q.PriceCeiling, 10)})
	}
	if q.Recency != "" {
		params = append(params, [2]string{filtersParam, recencyFilter + "=" + q.Recency})
	}

	u.RawQuery = encodeParams(u.RawQuery, params)
	return u.String(), nil
}

// encodeParams keeps insertion order and repeated keys. The endpoint expects
// the inner "=" of a filter value unescaped.
func encodeParams(existing string, params [][2]string) string {
	var sb strings.Builder
	sb.WriteString(existing)
	for _, p := range params {
		if sb.Len() > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p[0]))
		sb.WriteByte('=')
		sb.WriteString(strings.ReplaceAll(url.QueryEscape(p[1]), "%3D", "="))
	}
	return sb.String()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
