package shared

import (
	"net/http"
	"strings"

	core "github.com/bakeops/bakeops/internal/shared"
)

// ListFilters represents standard list page filters
type ListFilters struct {
	core.PageRequest
	Search   string
	SortBy   string
	SortDir  string
	IsActive *bool
}

// ParseListFilters reads page, limit, search, sort, dir and is_active.
func ParseListFilters(r *http.Request) ListFilters {
	q := r.URL.Query()
	f := ListFilters{
		PageRequest: core.ParsePageRequest(q),
		Search:      strings.TrimSpace(q.Get("search")),
		SortBy:      q.Get("sort"),
		SortDir:     strings.ToLower(q.Get("dir")),
	}
	if raw := q.Get("is_active"); raw != "" {
		v := raw == "true" || raw == "1"
		f.IsActive = &v
	}
	return f
}

// OrderBy resolves the sort column against an allow-list so user input never
// reaches SQL. Unknown columns fall back to def.
func (f ListFilters) OrderBy(allowed map[string]string, def string) string {
	col, ok := allowed[f.SortBy]
	if !ok {
		col = def
	}
	dir := "ASC"
	if f.SortDir == SortDesc {
		dir = "DESC"
	}
	return col + " " + dir + ", id " + dir
}
