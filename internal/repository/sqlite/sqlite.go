// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY SQLITE?
// The directory is a single-server app with a small, read-heavy catalog.
// SQLite lives inside the binary as a single file, so there is no database
// server to run. Tests use ":memory:" for a fresh database per test.
//
// modernc.org/sqlite is a pure Go translation of SQLite: no CGo, no C
// compiler, cross-compiles like any other Go package.
//
// STORE-SIDE INVARIANTS
// The schema, not the application, enforces what must never be violated:
//   - likes has a UNIQUE (user_id, product_id) index: at most one like per pair
//   - products.slug and submissions.slug are UNIQUE within their table
//   - products.like_count is maintained by triggers on likes and cannot go
//     below zero (CHECK constraint)
//
// Repository methods translate constraint failures into apperror.Conflict so
// services can treat "somebody else got there first" as a normal branch.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/ai-directory/internal/model"
	"github.com/sakif/ai-directory/internal/slug"
)

// casefold(x) applies Unicode lowercase mapping to x. SQLite's own lower()
// and LIKE only fold ASCII.
func init() {
	sqlitedrv.MustRegisterDeterministicScalarFunction("casefold", 1,
		func(_ *sqlitedrv.FunctionContext, args []driver.Value) (driver.Value, error) {
			switch v := args[0].(type) {
			case string:
				return strings.ToLower(v), nil
			case []byte:
				return strings.ToLower(string(v)), nil
			default:
				return v, nil
			}
		})
}

// DB wraps a sql.DB connection pool and implements every repository
// interface in internal/repository.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/directory.db" → file-based database (persistent)
//   - ":memory:"          → in-memory database (tests)
//
// Pragmas are passed in the DSN so that every pooled connection gets them,
// not just the first one.
func New(dbPath string) (*DB, error) {
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if dbPath != ":memory:" {
		dsn += "&_pragma=journal_mode(WAL)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every connection to ":memory:" is a separate, empty database, so an
	// in-memory pool must be a single connection.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	if err := db.seedCategories(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: seeding categories: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping verifies the database is reachable. Used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate creates all tables, indexes and triggers.
//
// CREATE ... IF NOT EXISTS makes every statement safe to re-run on an
// existing database file.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS categories (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL UNIQUE,
			slug        TEXT NOT NULL UNIQUE,
			description TEXT,
			relevance   INTEGER NOT NULL DEFAULT 0,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_categories_relevance ON categories(relevance);
	`)
	if err != nil {
		return fmt.Errorf("creating categories table: %w", err)
	}

	// github_id is UNIQUE: each GitHub account maps to exactly one row.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			github_id  INTEGER NOT NULL UNIQUE,
			login      TEXT NOT NULL,
			email      TEXT NOT NULL DEFAULT '',
			avatar_url TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS submissions (
			id               TEXT PRIMARY KEY,
			name             TEXT NOT NULL,
			description      TEXT NOT NULL,
			url              TEXT NOT NULL,
			category_id      TEXT REFERENCES categories(id) ON DELETE SET NULL,
			category_name    TEXT,
			pricing          TEXT NOT NULL,
			email            TEXT,
			logo_url         TEXT,
			image_url        TEXT,
			status           TEXT NOT NULL DEFAULT 'pending',
			rejection_reason TEXT,
			slug             TEXT NOT NULL UNIQUE,
			created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_submissions_status ON submissions(status, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating submissions table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS products (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			description   TEXT NOT NULL,
			url           TEXT NOT NULL,
			category_id   TEXT REFERENCES categories(id) ON DELETE SET NULL,
			category_name TEXT,
			pricing       TEXT NOT NULL,
			logo_url      TEXT,
			image_url     TEXT,
			featured      INTEGER NOT NULL DEFAULT 0,
			status        TEXT NOT NULL DEFAULT 'active',
			slug          TEXT NOT NULL UNIQUE,
			like_count    INTEGER NOT NULL DEFAULT 0 CHECK (like_count >= 0),
			submission_id TEXT REFERENCES submissions(id) ON DELETE SET NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_products_listing ON products(status, featured, created_at);
		CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);
	`)
	if err != nil {
		return fmt.Errorf("creating products table: %w", err)
	}

	// The UNIQUE index is what actually enforces "one like per user per
	// product"; the service's lookup-then-insert only picks the branch.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS likes (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_likes_user_product ON likes(user_id, product_id);
		CREATE INDEX IF NOT EXISTS idx_likes_product ON likes(product_id);
	`)
	if err != nil {
		return fmt.Errorf("creating likes table: %w", err)
	}

	// like_count follows the likes table. Application code never writes it.
	_, err = db.conn.Exec(`
		CREATE TRIGGER IF NOT EXISTS trg_likes_insert AFTER INSERT ON likes
		BEGIN
			UPDATE products SET like_count = like_count + 1 WHERE id = NEW.product_id;
		END;
		CREATE TRIGGER IF NOT EXISTS trg_likes_delete AFTER DELETE ON likes
		BEGIN
			UPDATE products SET like_count = MAX(like_count - 1, 0) WHERE id = OLD.product_id;
		END;
	`)
	if err != nil {
		return fmt.Errorf("creating like_count triggers: %w", err)
	}

	return nil
}

// seedCategories inserts model.DefaultCategories on an empty categories table.
// Relevance follows list order so the seed list doubles as the display order.
func (db *DB) seedCategories(ctx context.Context) error {
	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&count); err != nil {
		return fmt.Errorf("counting categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	for i, name := range model.DefaultCategories {
		_, err := db.conn.ExecContext(ctx,
			`INSERT INTO categories (id, name, slug, relevance, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			xid.New().String(), name, slug.Generate(name), i+1, now, now,
		)
		if err != nil {
			return fmt.Errorf("inserting category %q: %w", name, err)
		}
	}
	return nil
}

// isUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY
// constraint failure.
func isUniqueViolation(err error) bool {
	var se *sqlitedrv.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// nullable turns an empty string into SQL NULL.
func nullable(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
