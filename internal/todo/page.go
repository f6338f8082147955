package todo

// Page describes one page of a paginated result.
type Page struct {
	Number     int `json:"number"`
	Size       int `json:"size"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

// HasPrev reports whether a previous page exists.
func (p Page) HasPrev() bool { return p.Number > 1 }

// HasNext reports whether a next page exists.
func (p Page) HasNext() bool { return p.Number < p.TotalPages }

// Prev returns the previous page number.
func (p Page) Prev() int { return p.Number - 1 }

// Next returns the next page number.
func (p Page) Next() int { return p.Number + 1 }

// Paginate returns the requested page of s. Page numbers are 1-based and
// clamp to the valid range. A size <= 0 returns everything on one page.
func Paginate[T any](s []T, number, size int) ([]T, Page) {
	total := len(s)
	if size <= 0 {
		return s, Page{Number: 1, Size: total, TotalItems: total, TotalPages: 1}
	}

	pages := (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	if number < 1 {
		number = 1
	}
	if number > pages {
		number = pages
	}

	start := (number - 1) * size
	end := start + size
	if end > total {
		end = total
	}
	return s[start:end], Page{Number: number, Size: size, TotalItems: total, TotalPages: pages}
}
