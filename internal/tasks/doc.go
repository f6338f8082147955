// Package tasks implements the to-do operations on top of a store.
//
// Service owns the rules the store does not know about: ids and
// timestamps are assigned here, list references are checked, list names
// stay unique, and every successful mutation publishes an event.
//
// Callers render from the values Service returns, never from their own
// input, so what they show always matches what was persisted.
package tasks
