package shared

import (
	"net/http"
	"strconv"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// Page is a limit/offset window over a listing.
type Page struct {
	Limit  int
	Offset int
}

// PageFromRequest reads limit and offset query parameters, clamping them to sane bounds.
func PageFromRequest(r *http.Request) Page {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}
	return Page{Limit: limit, Offset: offset}
}
