// Package todo defines the to-do domain: items, lists, filters and
// per-list progress.
//
// # Items
//
// An item has a heading and a body, belongs to at most one list and
// carries three timestamps:
//   - createdAt: set once on creation
//   - updatedAt: set on every change
//   - completedAt: set when the item becomes complete, cleared when it is
//     moved back to the to-do list
//
// Items with an empty ListID belong to the default list.
//
// # Filtering
//
// Filter combines optional predicates (completion, star, list, date range,
// free text). All set predicates must match. FilterItems keeps the input
// order.
//
// # Progress
//
// ComputeProgress returns the completion percentage of every list. Percent
// is an integer rounded half-up and is 0 for an empty list.
package todo
