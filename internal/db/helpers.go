// Package db holds schema helpers shared by the MySQL repositories.
package db

import (
	"context"
	"database/sql"
)

type QueryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// NullIfEmpty stores optional strings as NULL.
func NullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// HasTable reports whether table exists in the current schema. Any lookup
// error, a bad connection included, reads as false.
func HasTable(ctx context.Context, q QueryRower, table string) bool {
	var name sql.NullString
	err := q.QueryRowContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		LIMIT 1
	`, table).Scan(&name)
	if err != nil {
		return false
	}
	return name.Valid && name.String != ""
}

// HasColumn reports whether table has column. Lookup errors read as false.
func HasColumn(ctx context.Context, q QueryRower, table, column string) bool {
	var name sql.NullString
	err := q.QueryRowContext(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		  AND column_name = ?
		LIMIT 1
	`, table, column).Scan(&name)
	if err != nil {
		return false
	}
	return name.Valid && name.String != ""
}

type DB interface {
	QueryRower
	Execer
}

// EnsureTable runs ddl when table is missing.
func EnsureTable(ctx context.Context, db DB, table, ddl string) error {
	if HasTable(ctx, db, table) {
		return nil
	}
	_, err := db.ExecContext(ctx, ddl)
	return err
}

// EnsureColumn runs ddl when table exists without column.
func EnsureColumn(ctx context.Context, db DB, table, column, ddl string) error {
	if !HasTable(ctx, db, table) || HasColumn(ctx, db, table, column) {
		return nil
	}
	_, err := db.ExecContext(ctx, ddl)
	return err
}
