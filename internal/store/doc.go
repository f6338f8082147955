// Package store persists the to-do document.
//
// The document is a single JSON object with an "items" and a "lists"
// collection, the same layout json-server uses for its db.json. Other
// top-level collections are preserved untouched.
//
// Access goes through transactions:
//
//	err := st.Update(ctx, func(doc *store.Document) error {
//	    doc.Items = append(doc.Items, item)
//	    return nil
//	})
//
// Update works on a copy. The copy replaces the current state only if fn
// returns nil and, for the file store, the new document was written to
// disk. View gets a copy too, so callers may keep what they read.
//
// FileStore writes atomically (temp file + rename) and can watch the file
// for external edits.
package store
