// Package storage opens the local SQLite database that backs durable client
// state and brings its schema up to date.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/foodkeeper/internal/client/migrations"
	"github.com/dmitrijs2005/foodkeeper/internal/filex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

// RunMigrations applies the embedded migrations. It is safe to call repeatedly.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.Migrations)
	if err != nil {
		return fmt.Errorf("migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Open opens (creating if needed) the database at path and migrates it.
// The pool is limited to one connection; an in-memory database lives only as
// long as its connection.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	dsn := MemoryDSN
	if path != MemoryDSN {
		if err := filex.EnsureParentDir(path); err != nil {
			return nil, err
		}
		dsn = path + "?_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
