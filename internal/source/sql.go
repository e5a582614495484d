package source

import (
	"context"
	"database/sql"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/hlop3z/eavforge/internal/alerr"
	"github.com/hlop3z/eavforge/internal/sqlgen"
)

// definitionColumns are read from every definitions table, in this order.
var definitionColumns = []string{"id", "slug", "definition"}

// SQLReader reads definition rows from database tables, one bulk query
// per table.
type SQLReader struct {
	DB              *sql.DB
	Dialect         sqlgen.Dialect
	ModelsTable     string
	ComponentsTable string // Optional
}

// Open connects to url and returns a reader over the given tables.
func Open(url, modelsTable, componentsTable string) (*SQLReader, error) {
	if err := sqlgen.ValidateTableName(modelsTable); err != nil {
		return nil, err
	}
	if componentsTable != "" {
		if err := sqlgen.ValidateTableName(componentsTable); err != nil {
			return nil, err
		}
	}

	db, dialect, err := OpenDB(url)
	if err != nil {
		return nil, err
	}
	return &SQLReader{
		DB:              db,
		Dialect:         dialect,
		ModelsTable:     modelsTable,
		ComponentsTable: componentsTable,
	}, nil
}

// Close closes the underlying connection.
func (r *SQLReader) Close() error {
	return r.DB.Close()
}

// Read fetches all model rows and, when configured, all component rows.
func (r *SQLReader) Read(ctx context.Context) (*Raw, error) {
	models, err := r.readTable(ctx, r.ModelsTable)
	if err != nil {
		return nil, err
	}
	raw := &Raw{Models: models}
	if r.ComponentsTable != "" {
		if raw.Components, err = r.readTable(ctx, r.ComponentsTable); err != nil {
			return nil, err
		}
	}
	return raw, nil
}

func (r *SQLReader) readTable(ctx context.Context, table string) ([]Row, error) {
	query := sqlgen.New(r.Dialect).Select(definitionColumns...).From(table).OrderBy("id").String()

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, alerr.WrapSQL(err, "read definitions", table)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			row  Row
			slug sql.NullString
		)
		if err := rows.Scan(&row.ID, &slug, &row.Definition); err != nil {
			return nil, alerr.WrapSQL(err, "scan definition row", table)
		}
		row.Slug = slug.String
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, alerr.WrapSQL(err, "iterate definition rows", table)
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Connections
// -----------------------------------------------------------------------------

// DetectDialect infers the database dialect from a connection URL.
// Unrecognized URLs are treated as PostgreSQL.
func DetectDialect(url string) sqlgen.Dialect {
	lower := strings.ToLower(url)

	switch {
	case strings.HasPrefix(lower, "postgres://"),
		strings.HasPrefix(lower, "postgresql://"):
		return sqlgen.Postgres

	case strings.HasPrefix(lower, "mysql://"),
		strings.Contains(lower, "@tcp("),
		strings.Contains(lower, "@unix("):
		return sqlgen.MySQL

	case strings.HasPrefix(lower, "sqlite://"),
		strings.HasPrefix(lower, "sqlite3://"),
		strings.HasPrefix(lower, "file:"),
		strings.HasSuffix(lower, ".db"),
		strings.HasSuffix(lower, ".sqlite"),
		strings.HasSuffix(lower, ".sqlite3"),
		lower == ":memory:":
		return sqlgen.SQLite
	}

	return sqlgen.Postgres
}

// OpenDB opens a connection for url with the matching driver.
func OpenDB(url string) (*sql.DB, sqlgen.Dialect, error) {
	dialect := DetectDialect(url)

	var driver, dsn string
	switch dialect {
	case sqlgen.Postgres:
		driver, dsn = "postgres", url
	case sqlgen.SQLite:
		driver, dsn = "sqlite", SQLitePath(url)
	case sqlgen.MySQL:
		var err error
		if dsn, err = MySQLDSN(url); err != nil {
			return nil, dialect, err
		}
		driver = "mysql"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, dialect, alerr.Wrap(alerr.ErrSQLConnection, err, "failed to open database").
			With("url", RedactURL(url))
	}
	return db, dialect, nil
}

// SQLitePath converts a sqlite:// URL to a file path, or returns the path as-is.
func SQLitePath(url string) string {
	url = strings.TrimPrefix(url, "sqlite://")
	url = strings.TrimPrefix(url, "sqlite3://")
	return strings.TrimPrefix(url, "file:")
}

// MySQLDSN turns a mysql:// URL into a driver DSN. Values that already are
// driver DSNs are validated and normalized.
func MySQLDSN(raw string) (string, error) {
	if !strings.HasPrefix(strings.ToLower(raw), "mysql://") {
		cfg, err := mysql.ParseDSN(raw)
		if err != nil {
			return "", alerr.Wrap(alerr.ErrConfigInvalid, err, "invalid mysql dsn")
		}
		return cfg.FormatDSN(), nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", alerr.Wrap(alerr.ErrConfigInvalid, err, "invalid mysql url").
			With("url", RedactURL(raw))
	}

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	if u.Port() == "" {
		cfg.Addr = u.Hostname() + ":3306"
	}
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	if q := u.Query(); len(q) > 0 {
		cfg.Params = make(map[string]string, len(q))
		for k := range q {
			cfg.Params[k] = q.Get(k)
		}
	}
	return cfg.FormatDSN(), nil
}

// RedactURL removes the password from a connection URL for logging.
func RedactURL(url string) string {
	start := strings.Index(url, "://")
	if start == -1 {
		return url
	}
	start += 3

	end := strings.Index(url[start:], "@")
	if end == -1 {
		return url
	}
	end += start

	credentials := url[start:end]
	if colonIdx := strings.Index(credentials, ":"); colonIdx != -1 {
		user := credentials[:colonIdx]
		return url[:start] + user + ":***@" + url[end+1:]
	}

	return url
}
