package rest

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"propertify-view-service/internal/core/domain"
	"propertify-view-service/internal/core/port"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFeedFilters(t *testing.T) {
	q, err := url.ParseQuery("sortMode=price_high&propertyType=House,flat&propertyType=villa" +
		"&minPrice=10.5&maxPrice=200&bedrooms=1,2&bathrooms=1&flag=parking&flag=pets" +
		"&location=Minsk&point=53.9,27.56&search=+sea+view+")
	require.NoError(t, err)

	f, err := ParseFeedFilters(q)
	require.NoError(t, err)
	assert.Equal(t, "price_high", f.SortMode)
	assert.Equal(t, []string{"House", "flat", "villa"}, f.PropertyTypes)
	require.NotNil(t, f.Price.Min)
	assert.Equal(t, 10.5, *f.Price.Min)
	assert.Equal(t, 200.0, *f.Price.Max)
	assert.Equal(t, []int{1, 2}, f.Bedrooms)
	assert.Equal(t, []int{1}, f.Bathrooms)
	assert.Equal(t, map[string]bool{"parking": true, "pets": true}, f.Flags)
	assert.Equal(t, []string{"Minsk"}, f.Locations)
	assert.Equal(t, []domain.GeoPoint{{Lat: 53.9, Lon: 27.56}}, f.GeoPoints)
	assert.Equal(t, " sea view ", f.Search)
}

func TestParseFeedFilters_Defaults(t *testing.T) {
	f, err := ParseFeedFilters(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, domain.SortModeNewest, f.Normalize().SortMode)
	assert.Nil(t, f.Price.Min)
}

func TestParseFeedFilters_Errors(t *testing.T) {
	bad := []string{
		"minPrice=abc",
		"maxPrice=1&minPrice=2",
		"bedrooms=two",
		"bathrooms=1,x",
		"point=91,10",
		"point=10",
		"point=10,200",
		"sortMode=random",
	}
	for _, raw := range bad {
		q, err := url.ParseQuery(raw)
		require.NoError(t, err)
		_, err = ParseFeedFilters(q)
		assert.Error(t, err, raw)
	}
}

func TestWriteUseCaseError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{domain.ErrSessionNotFound, http.StatusNotFound},
		{domain.ErrSessionKind, http.StatusConflict},
		{domain.ErrControllerClosed, http.StatusGone},
		{domain.ErrInvalidPagination, http.StatusBadRequest},
		{domain.ErrUnknownResource, http.StatusBadRequest},
		{domain.ErrInvalidToken, http.StatusUnauthorized},
		{badRequest("nope"), http.StatusBadRequest},
		{domain.NewAPIError(http.StatusTooManyRequests, ""), http.StatusTooManyRequests},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeUseCaseError(rec, port.NoopLogger{}, tc.err)
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
	}
}
