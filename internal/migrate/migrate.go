package migrate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultListName is the list created by the lists migration when items
// are assigned to a default list.
const DefaultListName = "Inbox"

// timestampLayout matches JavaScript's Date.toISOString.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// ErrInvalidDocument is returned for documents that cannot be migrated.
var ErrInvalidDocument = errors.New("invalid document")

// Options tune the migrations.
type Options struct {
	// AssignDefaultList moves items without a list into a named list.
	AssignDefaultList bool

	// DefaultListName names that list. Empty uses DefaultListName.
	DefaultListName string

	// NewID generates ids for records that lack one. Nil uses UUIDs.
	NewID func() string
}

// Result is what one migration changed. Touched counts the records, or
// for ids the fields, that were rewritten.
type Result struct {
	Name    string `json:"name" yaml:"name"`
	Touched int    `json:"touched" yaml:"touched"`
}

// Report lists results in execution order.
type Report struct {
	Results []Result `json:"results" yaml:"results"`
}

// Changed reports whether any migration touched the document.
func (r *Report) Changed() bool {
	for _, res := range r.Results {
		if res.Touched > 0 {
			return true
		}
	}
	return false
}

// Touched returns the count for a named migration.
func (r *Report) Touched(name string) int {
	for _, res := range r.Results {
		if res.Name == name {
			return res.Touched
		}
	}
	return 0
}

type env struct {
	now   string
	opts  Options
	items []map[string]any
}

type migration struct {
	name  string
	apply func(doc map[string]any, e *env) (int, error)
}

// Names of the migrations in execution order.
const (
	Timestamps  = "timestamps"
	CompletedAt = "completed-at"
	Starred     = "starred"
	Lists       = "lists"
	IDs         = "ids"
)

var migrations = []migration{
	{Timestamps, migrateTimestamps},
	{CompletedAt, migrateCompletedAt},
	{Starred, migrateStarred},
	{Lists, migrateLists},
	{IDs, migrateIDs},
}

// Run applies every migration to doc in order.
func Run(doc map[string]any, now time.Time, opts Options) (*Report, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}
	if opts.DefaultListName == "" {
		opts.DefaultListName = DefaultListName
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.New().String() }
	}

	items, err := objects(doc, "items")
	if err != nil {
		return nil, err
	}
	e := &env{now: now.UTC().Format(timestampLayout), opts: opts, items: items}

	report := &Report{Results: make([]Result, 0, len(migrations))}
	for _, m := range migrations {
		n, err := m.apply(doc, e)
		if err != nil {
			return nil, fmt.Errorf("migration %s: %w", m.name, err)
		}
		report.Results = append(report.Results, Result{Name: m.name, Touched: n})
	}
	return report, nil
}

// objects returns the named collection, creating it when absent.
func objects(doc map[string]any, key string) ([]map[string]any, error) {
	raw, ok := doc[key]
	if !ok || raw == nil {
		doc[key] = []any{}
		return nil, nil
	}
	arr, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an array", ErrInvalidDocument, key)
	}
	out := make([]map[string]any, 0, len(arr))
	for i, v := range arr {
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] is not an object", ErrInvalidDocument, key, i)
		}
		out = append(out, obj)
	}
	return out, nil
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	default:
		return false
	}
}

func migrateTimestamps(_ map[string]any, e *env) (int, error) {
	touched := 0
	for _, item := range e.items {
		changed := false
		for _, key := range []string{"createdAt", "updatedAt"} {
			if isBlank(item[key]) {
				item[key] = e.now
				changed = true
			}
		}
		if changed {
			touched++
		}
	}
	return touched, nil
}

func migrateCompletedAt(_ map[string]any, e *env) (int, error) {
	touched := 0
	for _, item := range e.items {
		complete, _ := item["isComplete"].(bool)
		cur, present := item["completedAt"]
		switch {
		case complete && isBlank(cur):
			item["completedAt"] = item["updatedAt"]
		case !complete && (!present || cur != nil):
			item["completedAt"] = nil
		default:
			continue
		}
		touched++
	}
	return touched, nil
}

func migrateStarred(_ map[string]any, e *env) (int, error) {
	touched := 0
	for _, item := range e.items {
		if _, ok := item["starred"].(bool); ok {
			continue
		}
		item["starred"] = false
		touched++
	}
	return touched, nil
}

func migrateLists(doc map[string]any, e *env) (int, error) {
	touched := 0
	if _, ok := doc["lists"]; !ok || doc["lists"] == nil {
		touched++
	}
	lists, err := objects(doc, "lists")
	if err != nil {
		return 0, err
	}
	if !e.opts.AssignDefaultList {
		return touched, nil
	}

	var unassigned []map[string]any
	for _, item := range e.items {
		if isBlank(item["listId"]) {
			unassigned = append(unassigned, item)
		}
	}
	if len(unassigned) == 0 {
		return touched, nil
	}

	var listID any
	for _, l := range lists {
		if name, _ := l["name"].(string); strings.EqualFold(strings.TrimSpace(name), e.opts.DefaultListName) {
			listID = l["id"]
			break
		}
	}
	if listID == nil {
		id := e.opts.NewID()
		doc["lists"] = append(doc["lists"].([]any), map[string]any{
			"id":        id,
			"name":      e.opts.DefaultListName,
			"createdAt": e.now,
			"updatedAt": e.now,
		})
		listID = id
		touched++
	}

	for _, item := range unassigned {
		item["listId"] = listID
		touched++
	}
	return touched, nil
}

func migrateIDs(doc map[string]any, e *env) (int, error) {
	lists, err := objects(doc, "lists")
	if err != nil {
		return 0, err
	}

	touched := 0
	fix := func(obj map[string]any, key string, required bool) error {
		switch v := obj[key].(type) {
		case string:
			if v != "" || !required {
				return nil
			}
			obj[key] = e.opts.NewID()
		case nil:
			if required {
				obj[key] = e.opts.NewID()
			} else {
				delete(obj, key)
			}
		case json.Number:
			obj[key] = v.String()
		case float64:
			obj[key] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			return fmt.Errorf("%w: %s has type %T", ErrInvalidDocument, key, v)
		}
		touched++
		return nil
	}

	for _, obj := range lists {
		if err := fix(obj, "id", true); err != nil {
			return 0, err
		}
	}
	for _, obj := range e.items {
		if err := fix(obj, "id", true); err != nil {
			return 0, err
		}
		if _, ok := obj["listId"]; ok {
			if err := fix(obj, "listId", false); err != nil {
				return 0, err
			}
		}
	}
	return touched, nil
}
