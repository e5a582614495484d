package sqlgen_test

import (
	"testing"

	"github.com/hlop3z/eavforge/internal/alerr"
	"github.com/hlop3z/eavforge/internal/sqlgen"
	"github.com/hlop3z/eavforge/internal/testutil"
)

// -----------------------------------------------------------------------------
// Dialect Tests
// -----------------------------------------------------------------------------

func TestDialectString(t *testing.T) {
	tests := []struct {
		dialect sqlgen.Dialect
		want    string
	}{
		{sqlgen.Postgres, "postgres"},
		{sqlgen.SQLite, "sqlite"},
		{sqlgen.MySQL, "mysql"},
		{sqlgen.Dialect(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := tt.dialect.String()
			if got != tt.want {
				t.Errorf("Dialect.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// QuoteIdent Tests
// -----------------------------------------------------------------------------

func TestQuoteIdent(t *testing.T) {
	tests := []struct {
		name    string
		dialect sqlgen.Dialect
		ident   string
		want    string
	}{
		{"postgres simple", sqlgen.Postgres, "cms_models", `"cms_models"`},
		{"postgres embedded quote", sqlgen.Postgres, `we"ird`, `"we""ird"`},
		{"sqlite simple", sqlgen.SQLite, "models", `"models"`},
		{"mysql simple", sqlgen.MySQL, "models", "`models`"},
		{"mysql embedded backtick", sqlgen.MySQL, "we`ird", "`we``ird`"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sqlgen.QuoteIdent(tt.dialect, tt.ident); got != tt.want {
				t.Errorf("QuoteIdent() = %s, want %s", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// Builder Tests
// -----------------------------------------------------------------------------

func TestSelectDefinitions(t *testing.T) {
	tests := []struct {
		dialect sqlgen.Dialect
		table   string
		want    string
	}{
		{sqlgen.Postgres, "cms.models", `SELECT "id", "slug", "definition" FROM "cms"."models" ORDER BY "id"`},
		{sqlgen.SQLite, "models", `SELECT "id", "slug", "definition" FROM "models" ORDER BY "id"`},
		{sqlgen.MySQL, "models", "SELECT `id`, `slug`, `definition` FROM `models` ORDER BY `id`"},
	}

	for _, tt := range tests {
		t.Run(tt.dialect.String(), func(t *testing.T) {
			got := sqlgen.New(tt.dialect).Select("id", "slug", "definition").From(tt.table).OrderBy("id").String()
			if got != tt.want {
				t.Errorf("got  %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestCreateAndInsert(t *testing.T) {
	defs := []sqlgen.ColumnDef{
		{Name: "id", Type: "INTEGER", PrimaryKey: true},
		{Name: "slug", Type: "TEXT"},
		{Name: "definition", Type: "TEXT", NotNull: true},
	}
	b := sqlgen.New(sqlgen.SQLite)
	got := b.CreateTable("models", defs...).String()
	testutil.AssertSQL(t, got, `CREATE TABLE "models" ("id" INTEGER PRIMARY KEY,
		"slug" TEXT,
		"definition" TEXT NOT NULL)`)

	got = b.Reset().InsertInto("models", "slug", "definition").String()
	want := `INSERT INTO "models" ("slug", "definition") VALUES (?, ?)`
	if got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}

	got = sqlgen.New(sqlgen.Postgres).InsertInto("cms.models", "id", "slug").String()
	want = `INSERT INTO "cms"."models" ("id", "slug") VALUES ($1, $2)`
	if got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestPlaceholders(t *testing.T) {
	tests := []struct {
		dialect sqlgen.Dialect
		n       int
		want    string
	}{
		{sqlgen.Postgres, 3, "$1, $2, $3"},
		{sqlgen.SQLite, 2, "?, ?"},
		{sqlgen.MySQL, 1, "?"},
		{sqlgen.Postgres, 0, ""},
	}
	for _, tt := range tests {
		if got := sqlgen.Placeholders(tt.dialect, tt.n); got != tt.want {
			t.Errorf("Placeholders(%v, %d) = %q, want %q", tt.dialect, tt.n, got, tt.want)
		}
	}
}

func TestValidateTableName(t *testing.T) {
	for _, ok := range []string{"models", "cms.models", "_defs"} {
		if err := sqlgen.ValidateTableName(ok); err != nil {
			t.Errorf("ValidateTableName(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"", "models; DROP TABLE x", "a.b.c", "1models"} {
		if err := sqlgen.ValidateTableName(bad); !alerr.Is(err, alerr.ErrConfigInvalid) {
			t.Errorf("ValidateTableName(%q) should fail", bad)
		}
	}
}
