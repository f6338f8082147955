package todo

import (
	"fmt"
	"strings"
	"time"
)

// DateField selects which timestamp a date range applies to.
type DateField string

const (
	DateCreated   DateField = "createdAt"
	DateUpdated   DateField = "updatedAt"
	DateCompleted DateField = "completedAt"
)

// ParseDateField parses a date field name. Empty input selects DateCreated.
func ParseDateField(s string) (DateField, error) {
	switch DateField(s) {
	case "":
		return DateCreated, nil
	case DateCreated, DateUpdated, DateCompleted:
		return DateField(s), nil
	default:
		return "", fmt.Errorf("%w: unknown date field %q", ErrInvalidFilter, s)
	}
}

// Filter selects items. Nil and zero fields match everything.
type Filter struct {
	Complete *bool
	Starred  *bool
	ListID   *string

	// From and To bound DateField inclusively. Zero values leave the range
	// open on that side.
	From      time.Time
	To        time.Time
	DateField DateField

	// Query matches a case-insensitive substring of heading or body.
	Query string
}

// Validate checks that the date range is not inverted.
func (f Filter) Validate() error {
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return fmt.Errorf("%w: from %s is after to %s", ErrInvalidFilter,
			f.From.Format(time.RFC3339), f.To.Format(time.RFC3339))
	}
	if _, err := ParseDateField(string(f.DateField)); err != nil {
		return err
	}
	return nil
}

// HasDateRange reports whether either bound is set.
func (f Filter) HasDateRange() bool {
	return !f.From.IsZero() || !f.To.IsZero()
}

// Match reports whether the item satisfies every predicate.
func (f Filter) Match(item Item) bool {
	if f.Complete != nil && item.IsComplete != *f.Complete {
		return false
	}
	if f.Starred != nil && item.Starred != *f.Starred {
		return false
	}
	if f.ListID != nil && item.ListID != *f.ListID {
		return false
	}
	if f.HasDateRange() {
		ts, ok := item.timestamp(f.DateField)
		if !ok {
			return false
		}
		if !f.From.IsZero() && ts.Before(f.From) {
			return false
		}
		if !f.To.IsZero() && ts.After(f.To) {
			return false
		}
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		q = strings.ToLower(q)
		if !strings.Contains(strings.ToLower(item.Heading), q) &&
			!strings.Contains(strings.ToLower(item.Body), q) {
			return false
		}
	}
	return true
}

// FilterItems returns the matching items in their original order.
func FilterItems(items []Item, f Filter) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if f.Match(item) {
			out = append(out, item)
		}
	}
	return out
}

func (i Item) timestamp(field DateField) (time.Time, bool) {
	switch field {
	case DateUpdated:
		return i.UpdatedAt, !i.UpdatedAt.IsZero()
	case DateCompleted:
		if i.CompletedAt == nil {
			return time.Time{}, false
		}
		return *i.CompletedAt, true
	default:
		return i.CreatedAt, !i.CreatedAt.IsZero()
	}
}

const dayLayout = "2006-01-02"

// ParseDay parses a date bound. Plain dates ("2006-01-02") are interpreted
// in loc; with endOfDay set they resolve to the last nanosecond of that day
// so a range ending on a date includes the whole day. RFC 3339 timestamps
// are used as given. Empty input yields the zero time.
func ParseDay(s string, endOfDay bool, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(dayLayout, s, loc); err == nil {
		if endOfDay {
			return t.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
		}
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", ErrInvalidFilter, s)
	}
	return t, nil
}
