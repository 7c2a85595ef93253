// Package datastore mirrors the catalog tables into SQLite so they can be
// queried with SQL tools such as Datasette.
package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/lepinkainen/olcatalog/internal/catalog"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface for local SQLite storage
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLiteStore instance
func NewSQLiteStore(dbPath string) *SQLiteStore {
	return &SQLiteStore{
		dbPath: dbPath,
	}
}

// Connect opens the database and creates the catalog tables.
func (s *SQLiteStore) Connect() error {
	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	s.db = db

	if _, err := s.db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	for _, schema := range catalogSchemas {
		if err := s.CreateTable(schema); err != nil {
			return err
		}
	}
	return nil
}

// CreateTable creates a new table with the given schema if it doesn't exist
func (s *SQLiteStore) CreateTable(schema string) error {
	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// MirrorCatalog replaces the contents of all three tables in one transaction,
// so readers never observe a book without its author or subjects.
func (s *SQLiteStore) MirrorCatalog(ctx context.Context, tables catalog.Tables) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// Rollback if we don't commit - ignore errors as they're expected if transaction was committed
		_ = tx.Rollback()
	}()

	for _, table := range []string{"book_subjects", "books", "authors"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	authorRows := make([][]any, 0, len(tables.Authors))
	for _, a := range tables.Authors {
		authorRows = append(authorRows, []any{a.AuthorID, a.AuthorKey, a.Name, a.BookCount})
	}
	if err := batchInsert(ctx, tx, "authors", catalog.AuthorColumns, authorRows); err != nil {
		return err
	}

	bookRows := make([][]any, 0, len(tables.Books))
	for _, b := range tables.Books {
		var year any
		if b.FirstPublishYear != nil {
			year = *b.FirstPublishYear
		}
		bookRows = append(bookRows, []any{
			b.BookID, b.Handle, b.Title, b.AuthorID, b.AuthorKey, b.Vendor,
			b.Price.StringFixed(2), year, b.EditionCount, b.URL,
		})
	}
	if err := batchInsert(ctx, tx, "books", catalog.BookColumns, bookRows); err != nil {
		return err
	}

	subjectRows := make([][]any, 0, len(tables.Subjects))
	for _, bs := range tables.Subjects {
		subjectRows = append(subjectRows, []any{bs.BookID, bs.Subject})
	}
	if err := batchInsert(ctx, tx, "book_subjects", catalog.BookSubjectColumns, subjectRows); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Info("Mirrored tables to SQLite", "db", s.dbPath, "authors", len(authorRows), "books", len(bookRows), "subjects", len(subjectRows))
	return nil
}

func batchInsert(ctx context.Context, tx *sql.Tx, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = "?" + strconv.Itoa(i+1)
	}
	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, values := range rows {
		if _, err := stmt.ExecContext(ctx, values...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
