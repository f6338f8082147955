package todo

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// MaxHeadingLength is the maximum heading length in runes.
	MaxHeadingLength = 200

	// MaxBodyLength is the maximum body length in runes.
	MaxBodyLength = 10000
)

// Item is a single to-do entry.
type Item struct {
	ID          string     `json:"id"`
	Heading     string     `json:"heading"`
	Body        string     `json:"body"`
	IsComplete  bool       `json:"isComplete"`
	Starred     bool       `json:"starred"`
	ListID      string     `json:"listId,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt"`
}

// NewItem creates an incomplete item with both timestamps set to now.
// The ID is assigned by the store.
func NewItem(heading, body, listID string, now time.Time) (*Item, error) {
	item := &Item{
		Heading:   strings.TrimSpace(heading),
		Body:      strings.TrimSpace(body),
		ListID:    strings.TrimSpace(listID),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	return item, nil
}

// Validate checks heading and body.
func (i *Item) Validate() error {
	if i.Heading == "" {
		return fmt.Errorf("%w: heading is required", ErrInvalidItem)
	}
	if utf8.RuneCountInString(i.Heading) > MaxHeadingLength {
		return fmt.Errorf("%w: heading exceeds %d characters", ErrInvalidItem, MaxHeadingLength)
	}
	if i.Body == "" {
		return fmt.Errorf("%w: body is required", ErrInvalidItem)
	}
	if utf8.RuneCountInString(i.Body) > MaxBodyLength {
		return fmt.Errorf("%w: body exceeds %d characters", ErrInvalidItem, MaxBodyLength)
	}
	return nil
}

// Apply returns a copy of the item with the patch applied.
//
// UpdatedAt is always set to now. CompletedAt is set when the item goes from
// incomplete to complete and cleared when it goes back.
func (i Item) Apply(p Patch, now time.Time) (Item, error) {
	out := i.Clone()
	if p.Heading != nil {
		out.Heading = strings.TrimSpace(*p.Heading)
	}
	if p.Body != nil {
		out.Body = strings.TrimSpace(*p.Body)
	}
	if p.Starred != nil {
		out.Starred = *p.Starred
	}
	if p.ListID != nil {
		out.ListID = strings.TrimSpace(*p.ListID)
	}
	if p.IsComplete != nil {
		switch {
		case *p.IsComplete && !i.IsComplete:
			completed := now
			out.CompletedAt = &completed
		case !*p.IsComplete:
			out.CompletedAt = nil
		}
		out.IsComplete = *p.IsComplete
	}
	out.UpdatedAt = now

	if err := out.Validate(); err != nil {
		return i, err
	}
	return out, nil
}

// Clone returns a deep copy of the item.
func (i Item) Clone() Item {
	out := i
	if i.CompletedAt != nil {
		completed := *i.CompletedAt
		out.CompletedAt = &completed
	}
	return out
}

// UnmarshalJSON accepts both string and numeric ids.
func (i *Item) UnmarshalJSON(data []byte) error {
	type alias Item
	aux := struct {
		ID any `json:"id"`
		*alias
	}{alias: (*alias)(i)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	id, err := normalizeID(aux.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}
	i.ID = id
	return nil
}

// Patch is a partial item update. Nil fields are left unchanged.
type Patch struct {
	Heading    *string `json:"heading,omitempty"`
	Body       *string `json:"body,omitempty"`
	IsComplete *bool   `json:"isComplete,omitempty"`
	Starred    *bool   `json:"starred,omitempty"`
	ListID     *string `json:"listId,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Heading == nil && p.Body == nil && p.IsComplete == nil && p.Starred == nil && p.ListID == nil
}
