package store

import "testing"

func TestInsertSQL(t *testing.T) {
	tests := []struct {
		dialect Dialect
		n       int
		want    string
	}{
		{SQLite, 1, `INSERT INTO "products_raw" ("product") VALUES (?)`},
		{SQLite, 3, `INSERT INTO "products_raw" ("product") VALUES (?), (?), (?)`},
		{Postgres, 1, `INSERT INTO "products_raw" ("product") VALUES ($1)`},
		{Postgres, 3, `INSERT INTO "products_raw" ("product") VALUES ($1), ($2), ($3)`},
	}
	for _, tc := range tests {
		s := &SQLStore{dialect: tc.dialect, table: "products_raw", column: "product"}
		if got := s.insertSQL(tc.n); got != tc.want {
			t.Errorf("%s/%d: got %q, want %q", tc.dialect.Name, tc.n, got, tc.want)
		}
	}
}

func TestQuoteIdent(t *testing.T) {
	if got := quoteIdent(`we"ird`); got != `"we""ird"` {
		t.Fatalf("got %s", got)
	}
}

func TestDialectByName(t *testing.T) {
	for _, name := range []string{"sqlite", "postgres"} {
		d, err := DialectByName(name)
		if err != nil || d.Name != name {
			t.Fatalf("%s: got %v, %v", name, d.Name, err)
		}
	}
	if _, err := DialectByName("mysql"); err == nil {
		t.Fatal("expected error for unknown dialect")
	}
}
