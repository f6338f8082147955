package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/bryankimani/todo-list/internal/todo"
)

// Document is the whole persisted state.
type Document struct {
	Items []todo.Item
	Lists []todo.List

	// Extra holds top-level collections this service does not own.
	Extra map[string]json.RawMessage
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{
		Items: []todo.Item{},
		Lists: []todo.List{},
	}
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	out := &Document{
		Items: make([]todo.Item, len(d.Items)),
		Lists: make([]todo.List, len(d.Lists)),
	}
	for i, item := range d.Items {
		out.Items[i] = item.Clone()
	}
	copy(out.Lists, d.Lists)
	if d.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(d.Extra))
		for k, v := range d.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

// ItemIndex returns the index of the item with id, or -1.
func (d *Document) ItemIndex(id string) int {
	for i := range d.Items {
		if d.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// ListIndex returns the index of the list with id, or -1.
func (d *Document) ListIndex(id string) int {
	for i := range d.Lists {
		if d.Lists[i].ID == id {
			return i
		}
	}
	return -1
}

// DetachOrphans moves items whose list no longer exists to the default
// list and returns how many moved.
func (d *Document) DetachOrphans() int {
	known := make(map[string]bool, len(d.Lists))
	for _, l := range d.Lists {
		known[l.ID] = true
	}
	moved := 0
	for i := range d.Items {
		if id := d.Items[i].ListID; id != todo.DefaultListID && !known[id] {
			d.Items[i].ListID = todo.DefaultListID
			moved++
		}
	}
	return moved
}

// MarshalJSON writes items, lists and any extra collections.
func (d *Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Extra)+2)
	for k, v := range d.Extra {
		out[k] = v
	}
	items := d.Items
	if items == nil {
		items = []todo.Item{}
	}
	lists := d.Lists
	if lists == nil {
		lists = []todo.List{}
	}
	out["items"] = items
	out["lists"] = lists
	return json.Marshal(out)
}

// UnmarshalJSON reads items and lists, keeping other keys in Extra.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	d.Items = []todo.Item{}
	d.Lists = []todo.List{}
	d.Extra = nil

	if v, ok := raw["items"]; ok && !isNull(v) {
		if err := json.Unmarshal(v, &d.Items); err != nil {
			return fmt.Errorf("decode items: %w", err)
		}
	}
	if v, ok := raw["lists"]; ok && !isNull(v) {
		if err := json.Unmarshal(v, &d.Lists); err != nil {
			return fmt.Errorf("decode lists: %w", err)
		}
	}
	delete(raw, "items")
	delete(raw, "lists")
	if len(raw) > 0 {
		d.Extra = raw
	}
	return nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// Encode renders the document with two-space indentation.
func Encode(d *Document) ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

// Decode parses a document. Empty input yields an empty document. Items
// pointing at a missing list are moved to the default list.
func Decode(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return NewDocument(), nil
	}
	d := NewDocument()
	if err := json.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	d.DetachOrphans()
	return d, nil
}
