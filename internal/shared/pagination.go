package shared

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// Page holds limit/offset window for list endpoints. A zero Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}

// NewPage clamps the requested window. Negative values fall back to defaults.
func NewPage(limit, offset int) Page {
	if limit < 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return Page{Limit: limit, Offset: offset}
}
