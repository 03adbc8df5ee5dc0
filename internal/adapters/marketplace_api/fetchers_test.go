package marketplace_api_client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"propertify-view-service/internal/core/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(records []domain.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		id, _ := r.ID()
		out = append(out, id)
	}
	return out
}

func TestFetcherFor_UnknownResource(t *testing.T) {
	f := NewFetcherFactory(NewClient("http://unused", 0))
	_, err := f.FetcherFor("spaceships", nil)
	assert.ErrorIs(t, err, domain.ErrUnknownResource)
}

func TestFetcher_CanonicalEnvelope(t *testing.T) {
	var query url.Values
	var auth string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/properties", r.URL.Path)
		query = r.URL.Query()
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"data":[{"_id":"a"},{"_id":"b"}],"pagination":{"total":12,"page":3,"limit":5}}`))
	})

	fetch, err := NewFetcherFactory(c).FetcherFor("properties", staticToken("abc"))
	require.NoError(t, err)

	page, err := fetch(context.Background(), domain.PageRequest{
		Page: 3, Limit: 5, SortField: "price", SortOrder: domain.SortAsc, Search: "loft",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, ids(page.Data))
	assert.Equal(t, domain.Pagination{Total: 12, Page: 3, Limit: 5}, page.Pagination)
	assert.Equal(t, "3", query.Get("page"))
	assert.Equal(t, "5", query.Get("limit"))
	assert.Equal(t, "price", query.Get("sortField"))
	assert.Equal(t, "asc", query.Get("sortOrder"))
	assert.Equal(t, "loft", query.Get("search"))
	assert.Equal(t, "Bearer abc", auth)
}

func TestFetcher_CanonicalEnvelopeMustMatchSchema(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[]}`))
	})
	fetch, _ := NewFetcherFactory(c).FetcherFor("posts", nil)

	_, err := fetch(context.Background(), domain.PageRequest{Page: 1, Limit: 5, SortOrder: domain.SortDesc})
	assert.ErrorContains(t, err, "schema")
}

func TestFetcher_FlatEnvelope(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"objects":[{"id":1},{"id":2}],"total":9,"page":2,"per_page":2}`))
	})
	fetch, _ := NewFetcherFactory(c).FetcherFor("ads", nil)

	page, err := fetch(context.Background(), domain.PageRequest{Page: 2, Limit: 2, SortOrder: domain.SortDesc})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, ids(page.Data))
	assert.Equal(t, domain.Pagination{Total: 9, Page: 2, Limit: 2}, page.Pagination)
}

func TestFetcher_FlatEnvelopeFillsMissingMetadata(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"_id":"x"}]}`))
	})
	fetch, _ := NewFetcherFactory(c).FetcherFor("tickets", nil)

	page, err := fetch(context.Background(), domain.PageRequest{Page: 4, Limit: 10, SortOrder: domain.SortDesc})
	require.NoError(t, err)
	assert.Equal(t, domain.Pagination{Total: 31, Page: 4, Limit: 10}, page.Pagination)
}

func TestFetcher_ArrayEnvelopeIsPagedLocally(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"_id":"1"},{"_id":"2"},{"_id":"3"},{"_id":"4"},{"_id":"5"}]`))
	})
	fetch, _ := NewFetcherFactory(c).FetcherFor("favorites", nil)

	page, err := fetch(context.Background(), domain.PageRequest{Page: 2, Limit: 2, SortOrder: domain.SortDesc})
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "4"}, ids(page.Data))
	assert.Equal(t, 5, page.Pagination.Total)

	page, err = fetch(context.Background(), domain.PageRequest{Page: 4, Limit: 2, SortOrder: domain.SortDesc})
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.False(t, domain.HasMore(page.Pagination.Page, page.Pagination.Limit, page.Pagination.Total))
}

func TestFetcher_InvalidRequestIsRejectedLocally(t *testing.T) {
	called := false
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) { called = true })
	fetch, _ := NewFetcherFactory(c).FetcherFor("posts", nil)

	_, err := fetch(context.Background(), domain.PageRequest{Page: 0, Limit: 5, SortOrder: domain.SortAsc})
	assert.ErrorIs(t, err, domain.ErrInvalidPagination)
	assert.False(t, called)
}

func TestFetcher_APIErrorIsPropagated(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Token expired"}`))
	})
	fetch, _ := NewFetcherFactory(c).FetcherFor("users", nil)

	_, err := fetch(context.Background(), domain.PageRequest{Page: 1, Limit: 5, SortOrder: domain.SortAsc})
	var apiErr *domain.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Token expired", domain.UserMessage(err))
}
