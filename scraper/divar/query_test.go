package divar

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"divar-tracker/models"
)

const testBase = "https://api.divar.ir/v8/map-discovery/bbox/posts/count"

func TestBuildCountURLTehranApartments(t *testing.T) {
	q := models.ListingQuery{
		Lon1: 51.12, Lat1: 35.53, Lon2: 51.62, Lat2: 35.88,
		Category:     "apartment-sell",
		PriceCeiling: 8000000000,
		Recency:      "7d",
	}

	raw, err := BuildCountURL(testBase, q)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	values := u.Query()

	assert.Equal(t, []string{"51.12"}, values["lon1"])
	assert.Equal(t, []string{"35.53"}, values["lat1"])
	assert.Equal(t, []string{"51.62"}, values["lon2"])
	assert.Equal(t, []string{"35.88"}, values["lat2"])
	assert.Equal(t,
		[]string{"category=apartment-sell", "price=-8000000000", "recency_ads=7d"},
		values["filters"])
	assert.NotContains(t, raw, "%3D")
}

func TestBuildCountURLFilters(t *testing.T) {
	tests := []struct {
		name    string
		price   int64
		recency string
		want    []string
	}{
		{"no ceiling, no recency", models.NoPriceCeiling, "", []string{"category=plot-old"}},
		{"ceiling only", 4000000000, "", []string{"category=plot-old", "price=-4000000000"}},
		{"recency only", models.NoPriceCeiling, "1d", []string{"category=plot-old", "recency_ads=1d"}},
		{"both", 12000000000, "1d", []string{"category=plot-old", "price=-12000000000", "recency_ads=1d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := models.ListingQuery{
				Lon1: 51.48855091343077, Lat1: 32.519298780640995,
				Lon2: 51.80264908656426, Lat2: 32.745358440861224,
				Category: "plot-old", PriceCeiling: tt.price, Recency: tt.recency,
			}
			raw, err := BuildCountURL(testBase, q)
			require.NoError(t, err)

			u, err := url.Parse(raw)
			require.NoError(t, err)
			values := u.Query()

			assert.Equal(t, tt.want, values["filters"])
			for _, k := range []string{"lon1", "lat1", "lon2", "lat2"} {
				assert.Len(t, values[k], 1, k)
			}
			assert.Len(t, values, 5)
			assert.Equal(t, "51.48855091343077", values.Get("lon1"))
		})
	}
}

func TestBuildCountURLPassesOutOfRangeCoordinates(t *testing.T) {
	q := models.ListingQuery{Lon1: -200.5, Lat1: 95, Lon2: 0, Lat2: -91.25, Category: "apartment-sell", PriceCeiling: models.NoPriceCeiling}

	raw, err := BuildCountURL(testBase, q)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "-200.5", u.Query().Get("lon1"))
	assert.Equal(t, "95", u.Query().Get("lat1"))
	assert.Equal(t, "-91.25", u.Query().Get("lat2"))
}

func TestBuildCountURLInvalidBase(t *testing.T) {
	_, err := BuildCountURL("://bad", models.ListingQuery{Category: "x", PriceCeiling: models.NoPriceCeiling})
	assert.Error(t, err)
}
