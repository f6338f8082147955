package todo

import (
	"fmt"
	"sort"
	"strings"
)

// SortField names an item field items can be ordered by.
type SortField string

const (
	SortCreated SortField = "createdAt"
	SortUpdated SortField = "updatedAt"
	SortHeading SortField = "heading"
)

// ParseSortField parses a sort field. Empty input selects SortCreated.
func ParseSortField(s string) (SortField, error) {
	switch SortField(s) {
	case "":
		return SortCreated, nil
	case SortCreated, SortUpdated, SortHeading:
		return SortField(s), nil
	default:
		return "", fmt.Errorf("%w: unknown sort field %q", ErrInvalidFilter, s)
	}
}

// SortItems orders items in place. The sort is stable so equal keys keep
// their stored order.
func SortItems(items []Item, field SortField, desc bool) {
	less := func(a, b Item) bool {
		switch field {
		case SortUpdated:
			return a.UpdatedAt.Before(b.UpdatedAt)
		case SortHeading:
			return strings.ToLower(a.Heading) < strings.ToLower(b.Heading)
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}
