package pagination

const (
	// DefaultPerPage is the standard page size when a limit is not provided.
	DefaultPerPage = 45
	// MaxPerPage caps how many rows any page query can request.
	MaxPerPage = 100
)

// Params holds page pagination inputs from controllers or services.
type Params struct {
	Page    int
	PerPage int
}

// NormalizePerPage enforces the configured default and maximum page sizes.
func NormalizePerPage(perPage int) int {
	if perPage <= 0 {
		return DefaultPerPage
	}
	if perPage > MaxPerPage {
		return MaxPerPage
	}
	return perPage
}

// NormalizePage clamps the requested page number to the valid range for the
// given row count. Pages are one-based; an empty result set still has page 1.
func NormalizePage(page, total, perPage int) int {
	if page < 1 {
		page = 1
	}
	last := LastPage(total, perPage)
	if page > last {
		page = last
	}
	return page
}

// LastPage returns the highest valid page number for the given row count.
func LastPage(total, perPage int) int {
	perPage = NormalizePerPage(perPage)
	if total <= 0 {
		return 1
	}
	last := total / perPage
	if total%perPage != 0 {
		last++
	}
	return last
}

// Offset converts a one-based page number into a row offset.
func Offset(page, perPage int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * NormalizePerPage(perPage)
}
