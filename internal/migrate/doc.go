// Package migrate upgrades a to-do database file in place.
//
// Migrations run in a fixed order over the raw JSON document so fields the
// typed model does not know about survive untouched. Each migration is
// idempotent: running the set twice reports zero changes the second time.
//
// After migrating, the document is checked against an embedded JSON Schema
// before anything is written.
package migrate
