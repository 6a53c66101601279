package data

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"
)

// Dialect names the SQL flavour spoken by the connection pool. Each value is
// also the database/sql driver name it is registered under.
type Dialect string

const (
	DialectPostgres Dialect = "postgres" // github.com/lib/pq
	DialectPgx      Dialect = "pgx"      // github.com/jackc/pgx/v5/stdlib
	DialectSQLite   Dialect = "sqlite"   // modernc.org/sqlite
)

// ParseDialect checks a configured driver name.
func ParseDialect(name string) (Dialect, error) {
	switch d := Dialect(name); d {
	case DialectPostgres, DialectPgx, DialectSQLite:
		return d, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", name)
	}
}

// DriverName returns the name to pass to sql.Open.
func (d Dialect) DriverName() string { return string(d) }

// placeholder returns the n-th (1-based) bind parameter. SQLite's ?NNN form
// is numbered the same way as Postgres' $N, so one argument may be
// referenced several times in both.
func (d Dialect) placeholder(n int) string {
	if d == DialectSQLite {
		return "?" + strconv.Itoa(n)
	}
	return "$" + strconv.Itoa(n)
}

// lower returns an expression folding expr to lower case for every script,
// matching strings.ToLower.
func (d Dialect) lower(expr string) string {
	if d == DialectSQLite {
		return sqliteLower + "(" + expr + ")"
	}
	return "LOWER(" + expr + ")"
}

func (d Dialect) schema() []string {
	if d == DialectSQLite {
		return []string{
			`CREATE TABLE IF NOT EXISTS books (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				title TEXT NOT NULL COLLATE NOCASE,
				author TEXT NOT NULL,
				genre TEXT NOT NULL,
				year INTEGER NOT NULL,
				created_at DATETIME NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS books_title_idx ON books (title)`,
		}
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS books (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			author TEXT NOT NULL,
			genre TEXT NOT NULL,
			year INTEGER NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS books_title_idx ON books (title)`,
	}
}

// EnsureSchema creates the books table if it does not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB, d Dialect) error {
	for _, stmt := range d.schema() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// sqlTime scans a timestamp column. The Postgres drivers hand back
// time.Time; SQLite may return text depending on how the column was reached.
// NULL scans to the zero time.
type sqlTime struct {
	Time time.Time
}

var sqliteTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
}

func (t *sqlTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	case int64:
		t.Time = time.Unix(v, 0).UTC()
		return nil
	default:
		return fmt.Errorf("cannot scan %T into timestamp", src)
	}
}

func (t *sqlTime) parse(s string) error {
	for _, layout := range sqliteTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("cannot parse timestamp %q", s)
}
