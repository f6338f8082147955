package migrate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryankimani/todo-list/internal/store"
)

var migrateNow = time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

const legacyDB = `{
  "items": [
    {"id": 1, "heading": "Buy milk", "body": "2 litres", "isComplete": false},
    {"id": "2", "heading": "Call mom", "body": "Sunday", "isComplete": true, "updatedAt": "2024-02-01T10:00:00.000Z"}
  ]
}`

func fixedIDs() func() string {
	return func() string { return "generated" }
}

func decodeString(t *testing.T, s string) map[string]any {
	t.Helper()
	doc, err := Decode([]byte(s))
	require.NoError(t, err)
	return doc
}

func item(t *testing.T, doc map[string]any, i int) map[string]any {
	t.Helper()
	items, ok := doc["items"].([]any)
	require.True(t, ok)
	obj, ok := items[i].(map[string]any)
	require.True(t, ok)
	return obj
}

func TestRun_LegacyDocument(t *testing.T) {
	doc := decodeString(t, legacyDB)

	report, err := Run(doc, migrateNow, Options{NewID: fixedIDs()})
	require.NoError(t, err)
	assert.True(t, report.Changed())

	assert.Equal(t, 2, report.Touched(Timestamps))
	assert.Equal(t, 2, report.Touched(CompletedAt))
	assert.Equal(t, 2, report.Touched(Starred))
	assert.Equal(t, 1, report.Touched(Lists))
	assert.Equal(t, 1, report.Touched(IDs))

	first := item(t, doc, 0)
	assert.Equal(t, "1", first["id"])
	assert.Equal(t, "2024-03-01T12:30:00.000Z", first["createdAt"])
	assert.Equal(t, "2024-03-01T12:30:00.000Z", first["updatedAt"])
	assert.Nil(t, first["completedAt"])
	assert.Equal(t, false, first["starred"])

	second := item(t, doc, 1)
	assert.Equal(t, "2024-02-01T10:00:00.000Z", second["updatedAt"])
	assert.Equal(t, "2024-02-01T10:00:00.000Z", second["completedAt"])

	assert.Equal(t, []any{}, doc["lists"])
	require.NoError(t, Validate(doc))
}

func TestRun_Idempotent(t *testing.T) {
	doc := decodeString(t, legacyDB)
	opts := Options{AssignDefaultList: true, NewID: fixedIDs()}

	_, err := Run(doc, migrateNow, opts)
	require.NoError(t, err)

	report, err := Run(doc, migrateNow.Add(time.Hour), opts)
	require.NoError(t, err)
	assert.False(t, report.Changed())
	for _, r := range report.Results {
		assert.Zero(t, r.Touched, r.Name)
	}
}

func TestRun_AssignDefaultList(t *testing.T) {
	doc := decodeString(t, `{
  "items": [
    {"id": "a", "heading": "h", "body": "b", "isComplete": false, "listId": "work"},
    {"id": "b", "heading": "h", "body": "b", "isComplete": false}
  ],
  "lists": [{"id": "work", "name": "Work", "createdAt": "2024-01-01T00:00:00Z", "updatedAt": "2024-01-01T00:00:00Z"}]
}`)

	report, err := Run(doc, migrateNow, Options{AssignDefaultList: true, NewID: fixedIDs()})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Touched(Lists))

	lists := doc["lists"].([]any)
	require.Len(t, lists, 2)
	inbox := lists[1].(map[string]any)
	assert.Equal(t, "generated", inbox["id"])
	assert.Equal(t, DefaultListName, inbox["name"])

	assert.Equal(t, "work", item(t, doc, 0)["listId"])
	assert.Equal(t, "generated", item(t, doc, 1)["listId"])
	require.NoError(t, Validate(doc))
}

func TestRun_ReusesExistingDefaultList(t *testing.T) {
	doc := decodeString(t, `{
  "items": [{"id": "a", "heading": "h", "body": "b", "isComplete": false}],
  "lists": [{"id": 7, "name": "inbox"}]
}`)

	_, err := Run(doc, migrateNow, Options{AssignDefaultList: true, NewID: fixedIDs()})
	require.NoError(t, err)

	assert.Len(t, doc["lists"], 1)
	assert.Equal(t, "7", item(t, doc, 0)["listId"])
}

func TestRun_IncompleteClearsCompletedAt(t *testing.T) {
	doc := decodeString(t, `{"items": [
  {"id": "a", "heading": "h", "body": "b", "isComplete": false, "completedAt": "2024-01-01T00:00:00Z", "listId": null}
]}`)

	report, err := Run(doc, migrateNow, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Touched(CompletedAt))

	obj := item(t, doc, 0)
	assert.Nil(t, obj["completedAt"])
	assert.NotContains(t, obj, "listId")
	require.NoError(t, Validate(doc))
}

func TestRun_InvalidDocument(t *testing.T) {
	tests := map[string]string{
		"items not array": `{"items": {}}`,
		"item not object": `{"items": [1]}`,
		"bad id type":     `{"items": [{"id": true, "heading": "h", "body": "b"}]}`,
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Run(decodeString(t, input), migrateNow, Options{})
			assert.ErrorIs(t, err, ErrInvalidDocument)
		})
	}

	_, err := Decode([]byte(`[]`))
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestValidate_RejectsUnmigrated(t *testing.T) {
	err := Validate(decodeString(t, legacyDB))
	require.ErrorIs(t, err, ErrSchema)
}

func TestValidate_RejectsBadTimestamp(t *testing.T) {
	doc := decodeString(t, `{"items": [
  {"id": "a", "heading": "h", "body": "b", "isComplete": false, "starred": false,
   "createdAt": "yesterday", "updatedAt": "2024-01-01T00:00:00Z", "completedAt": null}
], "lists": []}`)

	err := Validate(doc)
	require.ErrorIs(t, err, ErrSchema)
	assert.Contains(t, err.Error(), "/items/0/createdAt")
}

func TestValidate_RejectsEmptyBody(t *testing.T) {
	doc := decodeString(t, `{"items": [
  {"id": "a", "heading": "h", "body": "", "isComplete": false, "starred": false,
   "createdAt": "2024-01-01T00:00:00Z", "updatedAt": "2024-01-01T00:00:00Z", "completedAt": null}
], "lists": []}`)

	err := Validate(doc)
	require.ErrorIs(t, err, ErrSchema)
	assert.Contains(t, err.Error(), "/items/0/body")
}

func TestMigrateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte(legacyDB), 0o600))

	report, err := MigrateFile(path, FileOptions{DryRun: true, Now: migrateNow})
	require.NoError(t, err)
	assert.True(t, report.Changed())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, legacyDB, string(data), "dry run must not write")

	_, err = MigrateFile(path, FileOptions{Now: migrateNow})
	require.NoError(t, err)
	require.NoError(t, ValidateFile(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// The migrated file loads through the store.
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	parsed, err := store.Decode(data)
	require.NoError(t, err)
	require.Len(t, parsed.Items, 2)
	assert.Equal(t, "1", parsed.Items[0].ID)
	assert.Equal(t, migrateNow, parsed.Items[0].CreatedAt)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "lists")
}
