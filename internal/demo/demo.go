// Package demo wires a small library domain (authors, books, their titles,
// and polymorphic reviews) into the admin. It backs the CLI, the server
// defaults, and the integration tests.
package demo

import (
	"context"
	stdsql "database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/goliatone/go-admingen/pkg/i18n"
	"github.com/goliatone/go-admingen/pkg/model"
)

//go:embed catalog/*.yaml
var catalogFS embed.FS

//go:embed locales/*.yml
var localesFS embed.FS

// Catalog loads the library models.
func Catalog() (*model.Catalog, error) {
	sub, err := fs.Sub(catalogFS, "catalog")
	if err != nil {
		return nil, err
	}
	return model.LoadFS(sub)
}

// MustCatalog panics when the embedded catalog is invalid.
func MustCatalog() *model.Catalog {
	c, err := Catalog()
	if err != nil {
		panic(err)
	}
	return c
}

// Translations loads the bundled locales.
func Translations() (*i18n.Catalog, error) {
	return i18n.LoadFS(localesFS)
}

// Schema is the SQLite DDL for the library tables.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS authors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		born_on TEXT,
		biography TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS books (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		original_title TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS titles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		book_id INTEGER REFERENCES books(id) ON DELETE SET NULL,
		locale TEXT NOT NULL DEFAULT 'en',
		title TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS authors_books (
		author_id INTEGER NOT NULL REFERENCES authors(id) ON DELETE CASCADE,
		book_id INTEGER NOT NULL REFERENCES books(id) ON DELETE CASCADE,
		PRIMARY KEY (author_id, book_id)
	)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		body TEXT NOT NULL,
		reviewable_type TEXT,
		reviewable_id INTEGER
	)`,
}

// Seeds populate an empty database with a handful of records.
var Seeds = []string{
	`INSERT INTO authors (id, name, born_on, biography) VALUES
		(1, 'Alice', '1952-03-11', 'Writes about <em>distant</em> places.'),
		(2, 'Bob', '1961-09-21', NULL)`,
	`INSERT INTO books (id, original_title, active) VALUES
		(1, 'The Left Hand of Darkness', 1),
		(2, 'Dune', 1),
		(3, 'Out of Print', 0)`,
	`INSERT INTO titles (id, book_id, locale, title) VALUES
		(1, 1, 'en', 'The Left Hand of Darkness'),
		(2, 1, 'da', 'Mørkets venstre hånd'),
		(3, 2, 'en', 'Dune')`,
	`INSERT INTO authors_books (author_id, book_id) VALUES (1, 1), (2, 2)`,
	`INSERT INTO reviews (id, body, reviewable_type, reviewable_id) VALUES
		(1, 'A classic.', 'Book', 1),
		(2, 'Prolific.', 'Author', 2),
		(3, 'Unattached note.', NULL, NULL)`,
}

// Migrate creates the tables and, when the authors table is empty, loads the
// seed rows.
func Migrate(ctx context.Context, db *stdsql.DB, seed bool) error {
	for _, statement := range Schema {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("demo: migrate: %w", err)
		}
	}
	if !seed {
		return nil
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM authors`).Scan(&count); err != nil {
		return fmt.Errorf("demo: count authors: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, statement := range Seeds {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("demo: seed: %w", err)
		}
	}
	return nil
}
