package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Dialect captures the differences between the SQL databases a SQLStore
// can run against. The matching database/sql driver must be registered by
// the caller (blank import).
type Dialect struct {
	Name       string
	DriverName string
	ColumnType string
	// MaxInsertRows caps the value rows of one INSERT statement so a bulk
	// insert stays under the driver's bind parameter limit.
	MaxInsertRows int
	bindVar       func(n int) string
}

var (
	// SQLite uses github.com/mattn/go-sqlite3. The DSN is a file path.
	SQLite = Dialect{
		Name:          "sqlite",
		DriverName:    "sqlite3",
		ColumnType:    "JSON",
		MaxInsertRows: 1000,
		bindVar:       func(int) string { return "?" },
	}

	// Postgres uses github.com/jackc/pgx/v5/stdlib. The DSN is a
	// postgres:// URL or keyword/value connection string.
	Postgres = Dialect{
		Name:          "postgres",
		DriverName:    "pgx",
		ColumnType:    "JSONB",
		MaxInsertRows: 1000,
		bindVar:       func(n int) string { return "$" + strconv.Itoa(n) },
	}
)

// DialectByName returns the dialect for a backend name.
func DialectByName(name string) (Dialect, error) {
	switch name {
	case SQLite.Name:
		return SQLite, nil
	case Postgres.Name:
		return Postgres, nil
	}
	return Dialect{}, fmt.Errorf("unknown sql dialect: %q", name)
}

// SQLOptions configures a SQLStore.
type SQLOptions struct {
	Dialect Dialect
	DSN     string

	// Table holds one row per record; Column is its only column.
	Table  string
	Column string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// SQLStore stores each record as a JSON blob in a single-column table.
//
// Table:
//
//	products_raw(product JSON)
//
// Every call acquires its own connection from the pool and releases it
// before returning. Rows are never updated or deleted.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	table   string
	column  string
}

// OpenSQLStore opens the connection pool, verifies it and creates the
// table if it does not exist. Connection failures are returned as-is.
func OpenSQLStore(ctx context.Context, opts SQLOptions) (*SQLStore, error) {
	if opts.DSN == "" {
		return nil, fmt.Errorf("%s: empty connection string", opts.Dialect.Name)
	}
	if opts.Table == "" || opts.Column == "" {
		return nil, fmt.Errorf("%s: table and column are required", opts.Dialect.Name)
	}
	if opts.Dialect.Name == SQLite.Name && !strings.HasPrefix(opts.DSN, "file:") && opts.DSN != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(opts.DSN), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(opts.Dialect.DriverName, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.Dialect.Name, err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	s := &SQLStore{db: db, dialect: opts.Dialect, table: opts.Table, column: opts.Column}
	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) init(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("connect %s: %w", s.dialect.Name, err)
	}
	if s.dialect.Name == SQLite.Name {
		if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			return err
		}
	}
	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s %s NOT NULL)",
		quoteIdent(s.table), quoteIdent(s.column), s.dialect.ColumnType)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// insertSQL builds a single INSERT statement with n value rows.
func (s *SQLStore) insertSQL(n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", quoteIdent(s.table), quoteIdent(s.column))
	for i := 1; i <= n; i++ {
		if i > 1 {
			b.WriteString(", ")
		}
		b.WriteString("(" + s.dialect.bindVar(i) + ")")
	}
	return b.String()
}

func (s *SQLStore) batchSize() int {
	if s.dialect.MaxInsertRows > 0 {
		return s.dialect.MaxInsertRows
	}
	return 1000
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Ping checks that the pool can reach the database.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) List(ctx context.Context) ([]map[string]any, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	query := fmt.Sprintf("SELECT %s FROM %s", quoteIdent(s.column), quoteIdent(s.table))
	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", s.table, err)
	}
	defer rows.Close()

	result := []map[string]any{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var doc map[string]any
		if err := unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode %s row: %w", s.table, err)
		}
		result = append(result, doc)
	}
	return result, rows.Err()
}

func (s *SQLStore) Append(ctx context.Context, doc map[string]any) (map[string]any, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, s.insertSQL(1), string(b)); err != nil {
		return nil, fmt.Errorf("insert into %s: %w", s.table, err)
	}
	return doc, nil
}

func (s *SQLStore) AppendMany(ctx context.Context, docs []map[string]any) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	args := make([]any, len(docs))
	for i, doc := range docs {
		b, err := json.Marshal(doc)
		if err != nil {
			return 0, err
		}
		args[i] = string(b)
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	// One multi-row INSERT per batch, all in one transaction.
	for start := 0; start < len(args); start += s.batchSize() {
		end := min(start+s.batchSize(), len(args))
		if _, err := tx.ExecContext(ctx, s.insertSQL(end-start), args[start:end]...); err != nil {
			return 0, fmt.Errorf("bulk insert into %s: %w", s.table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit %s: %w", s.table, err)
	}
	return len(docs), nil
}
