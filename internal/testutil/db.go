package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/hlop3z/eavforge/internal/sqlgen"
)

// Row is one stored definition for SeedDefinitions.
type Row struct {
	ID         int
	Slug       string
	Definition string
}

// SetupSQLite creates a file-backed SQLite database in a temp directory and
// returns it together with a sqlite:// URL other connections can open.
// The connection is automatically closed when the test completes.
func SetupSQLite(t *testing.T) (*sql.DB, string) {
	t.Helper()

	path := filepath.Join(TempDir(t), "definitions.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open sqlite connection: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Fatalf("failed to ping sqlite: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db, "sqlite://" + path
}

// SeedDefinitions creates a definitions table in the given dialect and
// inserts rows into it.
func SeedDefinitions(t *testing.T, db *sql.DB, dialect sqlgen.Dialect, table string, rows ...Row) {
	t.Helper()

	b := sqlgen.New(dialect)
	ExecSQL(t, db, b.CreateTable(table,
		sqlgen.ColumnDef{Name: "id", Type: "INTEGER", PrimaryKey: true},
		sqlgen.ColumnDef{Name: "slug", Type: "TEXT"},
		sqlgen.ColumnDef{Name: "definition", Type: "TEXT", NotNull: true},
	).String())

	insert := b.Reset().InsertInto(table, "id", "slug", "definition").String()
	for _, r := range rows {
		ExecSQL(t, db, insert, r.ID, r.Slug, r.Definition)
	}
}

// ExecSQL executes a SQL statement and fails the test on error.
func ExecSQL(t *testing.T, db *sql.DB, query string, args ...any) {
	t.Helper()

	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("failed to execute SQL:\n%s\nerror: %v", query, err)
	}
}
