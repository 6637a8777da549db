package rank

const (
	DefaultPage     = 1
	DefaultPageSize = 20
)

// Page is one slice of a ranked listing.
type Page struct {
	Jobs         []Scored `json:"jobs"`
	CurrentPage  int      `json:"currentPage"`
	TotalPages   int      `json:"totalPages"`
	TotalJobs    int      `json:"totalJobs"`
	ItemsPerPage int      `json:"itemsPerPage"`
}

// Paginate clamps page and pageSize below 1 to the defaults and caps
// pageSize at maxSize when maxSize > 0. Pages past the end are empty.
func Paginate(ranked []Scored, page, pageSize, maxSize int) Page {
	if page < 1 {
		page = DefaultPage
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if maxSize > 0 && pageSize > maxSize {
		pageSize = maxSize
	}

	total := len(ranked)
	p := Page{
		Jobs:         []Scored{},
		CurrentPage:  page,
		TotalPages:   (total + pageSize - 1) / pageSize,
		TotalJobs:    total,
		ItemsPerPage: pageSize,
	}
	start := (page - 1) * pageSize
	if start >= total {
		return p
	}
	end := min(start+pageSize, total)
	p.Jobs = ranked[start:end]
	return p
}
