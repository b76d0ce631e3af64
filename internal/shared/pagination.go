package shared

// Listing defaults applied to every paginated repository query.
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// ClampPage normalizes limit and offset for list queries so a missing
// or oversized limit never reaches the repository.
func ClampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
