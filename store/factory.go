package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Options selects and configures a backend for one collection.
type Options struct {
	Backend string
	DataDir string

	// Name is the collection name, e.g. "products". SQL backends store it
	// in table "<name>_raw" with a single column named after one record.
	Name string

	// DatabaseURL is the connection string for sql backends. For sqlite an
	// empty value means DataDir/storefront.db.
	DatabaseURL string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// New creates a Store based on the backend name.
//
// Supported backends:
//
//	"memory"   - In-memory list (default, lost on restart)
//	"json"     - JSON array file in DataDir
//	"sqlite"   - SQLite table with one JSON column
//	"postgres" - PostgreSQL table with one JSONB column
func New(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "memory", "":
		return NewMemoryStore(), nil
	case "json":
		return NewJsonFileStore(opts.DataDir, opts.Name)
	case SQLite.Name, Postgres.Name:
		dialect, err := DialectByName(opts.Backend)
		if err != nil {
			return nil, err
		}
		dsn := opts.DatabaseURL
		if dsn == "" && dialect.Name == SQLite.Name {
			dsn = filepath.Join(opts.DataDir, "storefront.db")
		}
		table, column := TableNames(opts.Name)
		return OpenSQLStore(ctx, SQLOptions{
			Dialect:         dialect,
			DSN:             dsn,
			Table:           table,
			Column:          column,
			MaxOpenConns:    opts.MaxOpenConns,
			MaxIdleConns:    opts.MaxIdleConns,
			ConnMaxLifetime: opts.ConnMaxLifetime,
		})
	default:
		return nil, fmt.Errorf("unknown store backend: %q (supported: memory, json, sqlite, postgres)", opts.Backend)
	}
}

// TableNames derives the table and column for a collection:
// "products" maps to products_raw(product).
func TableNames(name string) (table, column string) {
	return name + "_raw", strings.TrimSuffix(name, "s")
}
