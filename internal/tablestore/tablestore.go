// Package tablestore persists the catalog tables as three CSV files.
package tablestore

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/lepinkainen/olcatalog/internal/catalog"
	"github.com/lepinkainen/olcatalog/internal/csvutil"
	"github.com/lepinkainen/olcatalog/internal/fileutil"
)

// File names inside the data directory.
const (
	AuthorsFile      = "authors.csv"
	BooksFile        = "books.csv"
	BookSubjectsFile = "book_subjects.csv"
)

// LoadReport summarises a Load.
type LoadReport struct {
	Authors      int
	Books        int
	Subjects     int
	SkippedRows  int
	MissingFiles []string
	// MaxAuthorID and MaxBookID are the highest ids found in any row,
	// including rows that were skipped. book_subjects counts towards
	// MaxBookID. New ids must be allocated above them.
	MaxAuthorID int
	MaxBookID   int
}

// Store reads and writes the tables in a single directory. Rows skipped by
// Load are remembered and written back unchanged by Save.
type Store struct {
	dir  string
	kept map[string][]csvutil.SkippedRow
}

// New creates a Store rooted at dir.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the location of one of the table files.
func (s *Store) Path(file string) string {
	return filepath.Join(s.dir, file)
}

// Load reads all three tables. Missing or empty files are empty tables and
// malformed rows are skipped, so only I/O failures are returned.
func (s *Store) Load() (catalog.Tables, LoadReport, error) {
	var (
		tables catalog.Tables
		report LoadReport
	)

	for _, file := range []string{AuthorsFile, BooksFile, BookSubjectsFile} {
		if !fileutil.FileExists(s.Path(file)) {
			report.MissingFiles = append(report.MissingFiles, file)
		}
	}

	authors, err := csvutil.ProcessCSV(s.Path(AuthorsFile), parseAuthor)
	if err != nil {
		return tables, report, err
	}
	books, err := csvutil.ProcessCSV(s.Path(BooksFile), parseBook)
	if err != nil {
		return tables, report, err
	}
	subjects, err := csvutil.ProcessCSV(s.Path(BookSubjectsFile), parseBookSubject)
	if err != nil {
		return tables, report, err
	}

	tables.Authors = authors.Items
	tables.Books = books.Items
	tables.Subjects = subjects.Items

	s.kept = map[string][]csvutil.SkippedRow{
		AuthorsFile:      authors.Skipped,
		BooksFile:        books.Skipped,
		BookSubjectsFile: subjects.Skipped,
	}

	report.MaxAuthorID = highestID(authors, "author_id", func(a catalog.Author) int { return a.AuthorID })
	report.MaxBookID = max(
		highestID(books, "book_id", func(b catalog.Book) int { return b.BookID }),
		highestID(subjects, "book_id", func(bs catalog.BookSubject) int { return bs.BookID }),
	)

	report.Authors = len(tables.Authors)
	report.Books = len(tables.Books)
	report.Subjects = len(tables.Subjects)
	report.SkippedRows = len(authors.Skipped) + len(books.Skipped) + len(subjects.Skipped)

	slog.Info("Loaded existing tables",
		"dir", s.dir,
		"authors", report.Authors,
		"books", report.Books,
		"subjects", report.Subjects,
		"skipped_rows", report.SkippedRows,
		"max_author_id", report.MaxAuthorID,
		"max_book_id", report.MaxBookID,
	)
	return tables, report, nil
}

// Save writes all three tables, each with its header row. Rows skipped by the
// last Load are written back verbatim at their original position. Every file
// is fully written to a temporary file before any of them replaces the old one.
func (s *Store) Save(tables catalog.Tables) error {
	authors, books, subjects := s.Path(AuthorsFile), s.Path(BooksFile), s.Path(BookSubjectsFile)

	err := fileutil.CommitAll(map[string]func(io.Writer) error{
		authors: func(w io.Writer) error {
			return csvutil.WriteCSV(w, catalog.AuthorColumns, authorRows(tables.Authors), s.kept[AuthorsFile]...)
		},
		books: func(w io.Writer) error {
			return csvutil.WriteCSV(w, catalog.BookColumns, bookRows(tables.Books), s.kept[BooksFile]...)
		},
		subjects: func(w io.Writer) error {
			return csvutil.WriteCSV(w, catalog.BookSubjectColumns, subjectRows(tables.Subjects), s.kept[BookSubjectsFile]...)
		},
	}, []string{authors, books, subjects})
	if err != nil {
		return fmt.Errorf("failed to save tables: %w", err)
	}

	slog.Info("Saved tables",
		"dir", s.dir,
		"authors", len(tables.Authors),
		"books", len(tables.Books),
		"subjects", len(tables.Subjects),
	)
	return nil
}

// highestID returns the largest id in col across parsed and skipped rows.
// Skipped rows count whenever their id cell is still a number.
func highestID[T any](res csvutil.Result[T], col string, idOf func(T) int) int {
	highest := 0
	for _, item := range res.Items {
		highest = max(highest, idOf(item))
	}

	idx := slices.Index(res.Header, col)
	if idx < 0 {
		return highest
	}
	for _, row := range res.Skipped {
		if idx >= len(row.Record) {
			continue
		}
		if id, err := strconv.Atoi(strings.TrimSpace(row.Record[idx])); err == nil {
			highest = max(highest, id)
		}
	}
	return highest
}

func authorRows(authors []catalog.Author) [][]string {
	rows := make([][]string, 0, len(authors))
	for _, a := range authors {
		rows = append(rows, []string{
			strconv.Itoa(a.AuthorID),
			a.AuthorKey,
			a.Name,
			strconv.Itoa(a.BookCount),
		})
	}
	return rows
}

func bookRows(books []catalog.Book) [][]string {
	rows := make([][]string, 0, len(books))
	for _, b := range books {
		year := ""
		if b.FirstPublishYear != nil {
			year = strconv.Itoa(*b.FirstPublishYear)
		}
		rows = append(rows, []string{
			strconv.Itoa(b.BookID),
			b.Handle,
			b.Title,
			strconv.Itoa(b.AuthorID),
			b.AuthorKey,
			b.Vendor,
			b.Price.StringFixed(2),
			year,
			strconv.Itoa(b.EditionCount),
			b.URL,
		})
	}
	return rows
}

func subjectRows(subjects []catalog.BookSubject) [][]string {
	rows := make([][]string, 0, len(subjects))
	for _, s := range subjects {
		rows = append(rows, []string{strconv.Itoa(s.BookID), s.Subject})
	}
	return rows
}
