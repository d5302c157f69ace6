package shared

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseListFilters(t *testing.T) {
	r := httptest.NewRequest("GET", "/?page=2&limit=500&search=+rye+&sort=code&dir=DESC&is_active=false", nil)
	f := ParseListFilters(r)

	assert.Equal(t, 2, f.Page)
	assert.Equal(t, 100, f.Limit)
	assert.Equal(t, "rye", f.Search)
	require.NotNil(t, f.IsActive)
	assert.False(t, *f.IsActive)
	assert.Equal(t, "code DESC, id DESC", f.OrderBy(map[string]string{"code": "code"}, "name"))
}

func TestOrderByRejectsUnknownColumns(t *testing.T) {
	f := ListFilters{SortBy: "name; DROP TABLE x"}
	assert.Equal(t, "name ASC, id ASC", f.OrderBy(map[string]string{"code": "code"}, "name"))
}
