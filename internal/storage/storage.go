// Package storage owns the database handle used by the importer and the query API.
package storage

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Target selects the database engine.
type Target string

const (
	Postgres Target = "postgres"
	SQLite   Target = "sqlite"
)

var ErrUnknownTarget = errors.New("unknown database target")

//go:embed schema/*.sql
var schemaFS embed.FS

// DB is an explicitly opened database handle. Callers must Close it.
type DB struct {
	*sqlx.DB
	Target Target
}

// ParseTarget maps a DB_TARGET value onto a Target. "local" is accepted as Postgres.
func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "postgres", "postgresql", "local":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTarget, s)
}

// Open connects to the target database and verifies the connection.
func Open(ctx context.Context, target Target, url string) (*DB, error) {
	driver, dsn, err := driverFor(target, url)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", target, err)
	}
	if target == SQLite {
		// SQLite takes one writer at a time
		db.SetMaxOpenConns(1)
	}

	return &DB{DB: db, Target: target}, nil
}

func driverFor(target Target, url string) (string, string, error) {
	switch target {
	case Postgres:
		return "pgx", url, nil
	case SQLite:
		dsn := url
		if !strings.HasPrefix(dsn, "file:") {
			dsn = "file:" + dsn
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		if !strings.Contains(dsn, "_foreign_keys") {
			dsn += sep + "_foreign_keys=on"
			sep = "&"
		}
		if !strings.Contains(dsn, "_busy_timeout") {
			dsn += sep + "_busy_timeout=5000"
		}
		return "sqlite3", dsn, nil
	}
	return "", "", fmt.Errorf("%w: %q", ErrUnknownTarget, target)
}

// InitSchema creates the stations and trips tables and their indexes if missing.
func (d *DB) InitSchema(ctx context.Context) error {
	script, err := schemaFS.ReadFile("schema/" + string(d.Target) + ".sql")
	if err != nil {
		return fmt.Errorf("read schema for %s: %w", d.Target, err)
	}
	if _, err := d.ExecContext(ctx, string(script)); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// maxBindParams stays under SQLite's default of 32766 and Postgres' 65535.
const maxBindParams = 32000

// RowsPerStatement is how many rows of the given width fit in one multi-row INSERT.
func RowsPerStatement(columns int) int {
	if columns <= 0 {
		return 1
	}
	return maxBindParams / columns
}

// Placeholders renders "(?, ?), (?, ?)" for rows x columns. Rebind before executing.
func Placeholders(rows, columns int) string {
	group := "(" + strings.TrimSuffix(strings.Repeat("?, ", columns), ", ") + ")"
	var b strings.Builder
	for i := 0; i < rows; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(group)
	}
	return b.String()
}
