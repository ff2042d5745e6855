// Package store defines the record store interface and implementations.
package store

import "context"

// Store is the interface that all record stores must implement.
// A store holds one ordered, append-only collection of JSON records.
// Records are never updated or removed and no field is treated as a key,
// so duplicate identifiers are allowed.
type Store interface {
	// List returns every record in insertion (storage) order.
	List(ctx context.Context) ([]map[string]any, error)

	// Append adds a record to the end of the collection and returns it.
	Append(ctx context.Context, doc map[string]any) (map[string]any, error)

	// AppendMany adds all records in one operation and returns how many
	// were inserted.
	AppendMany(ctx context.Context, docs []map[string]any) (int, error)
}
