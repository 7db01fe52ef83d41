package db

import (
	"fmt"
	"log/slog"
)

// sqliteMigrations is an ordered list of SQL statements to run on SQLite.
var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS visitors (
		id                   INTEGER PRIMARY KEY AUTOINCREMENT,
		name                 TEXT    NOT NULL,
		surname              TEXT    NOT NULL,
		company              TEXT,
		visitor_phone_number TEXT,
		photo                TEXT,
		reason_for_visit     TEXT,
		host                 TEXT,
		date                 TEXT,
		time_in              TEXT,
		agreement_signed     BOOLEAN NOT NULL DEFAULT 0,
		time_out             TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS sweep_runs (
		run_date   TEXT    PRIMARY KEY,
		signed_out INTEGER NOT NULL DEFAULT 0,
		ran_at     TEXT    NOT NULL
	)`,
}

// postgresMigrations mirrors sqliteMigrations for Postgres.
var postgresMigrations = []string{
	`CREATE TABLE IF NOT EXISTS visitors (
		id                   SERIAL PRIMARY KEY,
		name                 VARCHAR(255) NOT NULL,
		surname              VARCHAR(255) NOT NULL,
		company              VARCHAR(255),
		visitor_phone_number VARCHAR(50),
		photo                TEXT,
		reason_for_visit     TEXT,
		host                 VARCHAR(255),
		date                 VARCHAR(50),
		time_in              VARCHAR(50),
		agreement_signed     BOOLEAN NOT NULL DEFAULT FALSE,
		time_out             VARCHAR(50)
	)`,
	`CREATE TABLE IF NOT EXISTS sweep_runs (
		run_date   VARCHAR(10) PRIMARY KEY,
		signed_out INTEGER     NOT NULL DEFAULT 0,
		ran_at     VARCHAR(50) NOT NULL
	)`,
}

// columnMigration adds a column to an existing table.
type columnMigration struct {
	table, column, sqliteDef, postgresDef string
}

var columnMigrations = []columnMigration{
	{"visitors", "expected_time_in", "TEXT", "VARCHAR(50)"},
}

// migrate runs all migrations in order.
func migrate(d *DB) error {
	statements := sqliteMigrations
	if d.Dialect == Postgres {
		statements = postgresMigrations
	}

	for i, m := range statements {
		if _, err := d.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}

	for _, cm := range columnMigrations {
		if err := addColumnIfNotExists(d, cm); err != nil {
			return fmt.Errorf("adding %s.%s: %w", cm.table, cm.column, err)
		}
	}

	return nil
}

// addColumnIfNotExists adds a column to a table if it doesn't already exist.
func addColumnIfNotExists(d *DB, cm columnMigration) error {
	if d.Dialect == Postgres {
		_, err := d.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s %s", cm.table, cm.column, cm.postgresDef))
		return err
	}

	rows, err := d.Query(fmt.Sprintf("PRAGMA table_info(%s)", cm.table))
	if err != nil {
		return fmt.Errorf("checking table info: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "error", cerr)
		}
	}()

	exists := false
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return fmt.Errorf("scanning column info: %w", err)
		}
		if name == cm.column {
			exists = true
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating columns: %w", err)
	}
	if exists {
		return nil
	}

	_, err = d.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", cm.table, cm.column, cm.sqliteDef))
	return err
}
