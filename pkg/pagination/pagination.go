package pagination

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 25
	// MaxLimit caps how many rows any listing query can request.
	MaxLimit = 100
)

// Params holds offset pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Page metadata returned alongside list payloads.
type Page struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// Normalize enforces the configured default and maximum limits and a
// one-based page number.
func Normalize(p Params) Params {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset converts the normalized params into a SQL offset.
func (p Params) Offset() int {
	n := Normalize(p)
	return (n.Page - 1) * n.Limit
}

// NewPage assembles response metadata for a listing.
func NewPage(p Params, total int64) Page {
	n := Normalize(p)
	pages := int((total + int64(n.Limit) - 1) / int64(n.Limit))
	if pages < 1 {
		pages = 1
	}
	return Page{
		Page:       n.Page,
		Limit:      n.Limit,
		TotalItems: total,
		TotalPages: pages,
	}
}
