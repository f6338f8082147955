package todo

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// DefaultListID identifies the implicit list of items without a list.
	DefaultListID = ""

	// DefaultListName is the display name of the default list.
	DefaultListName = "Default"

	// MaxListNameLength is the maximum list name length in runes.
	MaxListNameLength = 100
)

// List is a named group of items.
type List struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewList creates a list with both timestamps set to now.
func NewList(name string, now time.Time) (*List, error) {
	l := &List{
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// Validate checks the list name.
func (l *List) Validate() error {
	if l.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidList)
	}
	if utf8.RuneCountInString(l.Name) > MaxListNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidList, MaxListNameLength)
	}
	return nil
}

// SameName reports whether two list names collide. Names are compared
// case-insensitively after trimming.
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// UnmarshalJSON accepts both string and numeric ids.
func (l *List) UnmarshalJSON(data []byte) error {
	type alias List
	aux := struct {
		ID any `json:"id"`
		*alias
	}{alias: (*alias)(l)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	id, err := normalizeID(aux.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidList, err)
	}
	l.ID = id
	return nil
}
