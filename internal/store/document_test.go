package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryankimani/todo-list/internal/todo"
)

func TestDecode_JSONServerDatabase(t *testing.T) {
	input := `{
  "items": [
    {"id": 1, "heading": "Buy milk", "body": "2 liters", "isComplete": false},
    {"id": "a1b2", "heading": "Call mom", "body": "Sunday", "isComplete": true,
     "createdAt": "2025-01-02T03:04:05.000Z", "updatedAt": "2025-01-02T03:04:05.000Z",
     "completedAt": "2025-01-03T00:00:00.000Z"}
  ],
  "profile": {"name": "typicode"}
}`
	doc, err := Decode([]byte(input))
	require.NoError(t, err)

	require.Len(t, doc.Items, 2)
	assert.Equal(t, "1", doc.Items[0].ID)
	assert.Equal(t, "a1b2", doc.Items[1].ID)
	require.NotNil(t, doc.Items[1].CompletedAt)
	assert.Empty(t, doc.Lists)
	assert.Contains(t, doc.Extra, "profile")
}

func TestDecode_DetachesOrphanedItems(t *testing.T) {
	input := `{
  "items": [
    {"id": "1", "heading": "h", "body": "b", "listId": "work"},
    {"id": "2", "heading": "h", "body": "b", "listId": "gone"},
    {"id": "3", "heading": "h", "body": "b"}
  ],
  "lists": [{"id": "work", "name": "Work"}]
}`
	doc, err := Decode([]byte(input))
	require.NoError(t, err)

	require.Len(t, doc.Items, 3)
	assert.Equal(t, "work", doc.Items[0].ListID)
	assert.Equal(t, todo.DefaultListID, doc.Items[1].ListID)
	assert.Equal(t, todo.DefaultListID, doc.Items[2].ListID)

	defaultOnly := todo.DefaultListID
	matched := todo.FilterItems(doc.Items, todo.Filter{ListID: &defaultOnly})
	assert.Len(t, matched, 2)
	assert.Zero(t, doc.DetachOrphans())
}

func TestEncode_RoundTripKeepsExtra(t *testing.T) {
	doc := NewDocument()
	doc.Items = append(doc.Items, todo.Item{ID: "1", Heading: "h", Body: "b",
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)})
	doc.Extra = map[string]json.RawMessage{"profile": json.RawMessage(`{"name":"x"}`)}

	data, err := Encode(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"items\": [")
	assert.Contains(t, string(data), `"completedAt": null`)

	back, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, doc.Items[0].ID, back.Items[0].ID)
	assert.JSONEq(t, `{"name":"x"}`, string(back.Extra["profile"]))
}

func TestEncode_EmptyCollectionsAreArrays(t *testing.T) {
	data, err := Encode(&Document{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[],"lists":[]}`, string(data))
}

func TestDecode_Empty(t *testing.T) {
	doc, err := Decode([]byte("  \n"))
	require.NoError(t, err)
	assert.Empty(t, doc.Items)

	doc, err = Decode([]byte(`{"items": null}`))
	require.NoError(t, err)
	assert.NotNil(t, doc.Items)
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode([]byte(`{"items": {}}`))
	assert.Error(t, err)

	_, err = Decode([]byte(`[`))
	assert.Error(t, err)
}

func TestDocument_Clone(t *testing.T) {
	completed := time.Now()
	doc := NewDocument()
	doc.Items = append(doc.Items, todo.Item{ID: "1", CompletedAt: &completed})
	doc.Lists = append(doc.Lists, todo.List{ID: "l", Name: "L"})

	clone := doc.Clone()
	clone.Items[0].Heading = "changed"
	clone.Lists[0].Name = "changed"

	assert.Empty(t, doc.Items[0].Heading)
	assert.Equal(t, "L", doc.Lists[0].Name)
	assert.NotSame(t, doc.Items[0].CompletedAt, clone.Items[0].CompletedAt)
	assert.Equal(t, 0, clone.ItemIndex("1"))
	assert.Equal(t, -1, clone.ItemIndex("2"))
	assert.Equal(t, 0, clone.ListIndex("l"))
}
