package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageCount(t *testing.T) {
	assert.Equal(t, 3, PageCount(12, 5))
	assert.Equal(t, 2, PageCount(10, 5))
	assert.Equal(t, 0, PageCount(0, 5))
	assert.Equal(t, 0, PageCount(7, 0))
}

func TestHasMore(t *testing.T) {
	assert.True(t, HasMore(2, 2, 5))
	assert.False(t, HasMore(3, 2, 5))
	assert.False(t, HasMore(1, 10, 10))
}

func TestPageRequest_ValidateAndQuery(t *testing.T) {
	req := PageRequest{Page: 0, Limit: 5, SortOrder: SortAsc}
	require.ErrorIs(t, req.Validate(), ErrInvalidPagination)

	req = PageRequest{Page: 2, Limit: 10, SortField: "price", SortOrder: SortDesc, Search: "loft"}
	require.NoError(t, req.Validate())

	q := req.Query()
	assert.Equal(t, "2", q.Get("page"))
	assert.Equal(t, "10", q.Get("limit"))
	assert.Equal(t, "price", q.Get("sortField"))
	assert.Equal(t, "desc", q.Get("sortOrder"))
	assert.Equal(t, "loft", q.Get("search"))
}

func TestRecordID(t *testing.T) {
	id, ok := Record{"_id": "abc"}.ID()
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	id, ok = Record{"id": float64(42)}.ID()
	assert.True(t, ok)
	assert.Equal(t, "42", id)

	id, ok = Record{"_id": 1.5}.ID()
	assert.True(t, ok)
	assert.Equal(t, "1.5", id)

	_, ok = Record{"title": "no id"}.ID()
	assert.False(t, ok)
}

func TestAppendUnique_KeepsFirstOccurrence(t *testing.T) {
	seen := map[string]struct{}{}
	items := AppendUnique(nil, seen, []Record{{"_id": "a", "v": 1}, {"_id": "b"}})
	items = AppendUnique(items, seen, []Record{{"_id": "a", "v": 2}, {"_id": "c"}, {"title": "anonymous"}})

	require.Len(t, items, 4)
	assert.Equal(t, 1, items[0]["v"])
	id, _ := items[2].ID()
	assert.Equal(t, "c", id)
}

func TestAppendUnique_DistinctFractionalIDs(t *testing.T) {
	seen := map[string]struct{}{}
	items := AppendUnique(nil, seen, []Record{{"_id": 1.5}, {"_id": float64(2)}})
	assert.Len(t, items, 2)
}
