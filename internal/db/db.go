// Package db provides database initialization and access for SQLite and Postgres.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect identifies the SQL flavor of an open database.
type Dialect string

const (
	SQLite   Dialect = "sqlite3"
	Postgres Dialect = "postgres"
)

// connectTimeout bounds how long Open waits for a Postgres connection.
const connectTimeout = 5 * time.Second

// ParseDialect validates a driver name.
func ParseDialect(s string) (Dialect, error) {
	switch Dialect(strings.ToLower(s)) {
	case SQLite, "sqlite":
		return SQLite, nil
	case Postgres, "postgresql":
		return Postgres, nil
	}
	return "", fmt.Errorf("unsupported database driver %q (use sqlite3 or postgres)", s)
}

// Rebind rewrites ? placeholders into the dialect's native form.
// Postgres needs $1, $2, ...; SQLite accepts ? as written.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// DB is an open database together with its dialect.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// DefaultPath returns the default SQLite path: ~/.frontdesk/visitors.db
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".frontdesk", "visitors.db"), nil
}

// Open opens the database for the given dialect and runs migrations.
// For SQLite dsn is a file path; for Postgres it is a connection URL.
func Open(dialect Dialect, dsn string) (*DB, error) {
	switch dialect {
	case SQLite:
		return OpenSQLite(dsn)
	case Postgres:
		return OpenPostgres(dsn)
	}
	return nil, fmt.Errorf("unsupported dialect %q", dialect)
}

// OpenSQLite opens (or creates) a SQLite database at the given path,
// enables WAL mode and foreign keys, and runs migrations.
func OpenSQLite(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
	}

	sqlDB, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	d := &DB{DB: sqlDB, Dialect: SQLite}
	if err := configure(d); err != nil {
		return nil, closeOnErr(d, err)
	}
	if err := migrate(d); err != nil {
		return nil, closeOnErr(d, fmt.Errorf("running migrations: %w", err))
	}

	return d, nil
}

// OpenPostgres connects to Postgres, verifies the connection within
// connectTimeout, and runs migrations.
func OpenPostgres(url string) (*DB, error) {
	if url == "" {
		return nil, fmt.Errorf("postgres connection URL is required")
	}

	sqlDB, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	d := &DB{DB: sqlDB, Dialect: Postgres}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, closeOnErr(d, fmt.Errorf("connecting to postgres: %w", err))
	}

	if err := migrate(d); err != nil {
		return nil, closeOnErr(d, fmt.Errorf("running migrations: %w", err))
	}

	return d, nil
}

// Ping checks the connection, used by the health endpoint.
func (d *DB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if _, err := d.ExecContext(ctx, "SELECT 1"); err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}
	return nil
}

// configure sets SQLite pragmas for WAL mode and foreign keys.
func configure(d *DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}

	for _, p := range pragmas {
		if _, err := d.Exec(p); err != nil {
			return fmt.Errorf("executing %s: %w", p, err)
		}
	}

	return nil
}

func closeOnErr(d *DB, err error) error {
	if closeErr := d.Close(); closeErr != nil {
		return fmt.Errorf("%w (also failed to close: %v)", err, closeErr)
	}
	return err
}
