package tasks

import "github.com/bryankimani/todo-list/internal/todo"

// ItemInput is the writable content of an item.
type ItemInput struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
	ListID  string `json:"listId"`
}

// ReplaceInput is the full item representation accepted by Replace.
type ReplaceInput struct {
	ItemInput
	IsComplete bool `json:"isComplete"`
	Starred    bool `json:"starred"`
}

// ProgressReport is the completion summary shown on the home page.
type ProgressReport struct {
	Overall todo.Progress   `json:"overall"`
	Lists   []todo.Progress `json:"lists"`
}

// Query selects, orders and pages items.
type Query struct {
	Filter todo.Filter
	Sort   todo.SortField
	Desc   bool

	// Page and PageSize are 1-based; PageSize <= 0 disables paging.
	Page     int
	PageSize int
}

// ItemPage is one page of query results.
type ItemPage struct {
	Items []todo.Item
	Page  todo.Page
}
