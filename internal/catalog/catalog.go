// Package catalog defines the three linked tables produced by the import
// pipeline: authors, books and book-subject associations.
package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// Vendor is written into every book row.
	Vendor = "Open Library"
	// SiteURL is the prefix of every book URL; the work key follows it.
	SiteURL = "https://openlibrary.org"
	// WorkKeyPrefix marks a canonical work identifier, e.g. /works/OL45804W.
	WorkKeyPrefix = "/works/"
)

// Column orders used when the tables are persisted.
var (
	AuthorColumns      = []string{"author_id", "author_key", "name", "book_count"}
	BookColumns        = []string{"book_id", "handle", "title", "author_id", "author_key", "vendor", "price", "first_publish_year", "edition_count", "url"}
	BookSubjectColumns = []string{"book_id", "subject"}
)

// RawRecord is a single loosely-typed search result as returned by the source.
type RawRecord map[string]any

// Author is a row of the authors table.
type Author struct {
	AuthorID  int    `json:"author_id"`
	AuthorKey string `json:"author_key"`
	Name      string `json:"name"`
	BookCount int    `json:"book_count"`
}

// Book is a row of the books table.
type Book struct {
	BookID           int             `json:"book_id"`
	Handle           string          `json:"handle"`
	Title            string          `json:"title"`
	AuthorID         int             `json:"author_id"`
	AuthorKey        string          `json:"author_key"`
	Vendor           string          `json:"vendor"`
	Price            decimal.Decimal `json:"price"`
	FirstPublishYear *int            `json:"first_publish_year"`
	EditionCount     int             `json:"edition_count"`
	URL              string          `json:"url"`
}

// WorkKey returns the work identifier embedded in the book URL, or "" for
// legacy rows whose URL does not carry one.
func (b Book) WorkKey() string {
	return WorkKeyFromURL(b.URL)
}

// BookSubject is a row of the book_subjects table. The pair is unique.
type BookSubject struct {
	BookID  int    `json:"book_id"`
	Subject string `json:"subject"`
}

// Tables is an in-memory snapshot of all three tables.
type Tables struct {
	Authors  []Author
	Books    []Book
	Subjects []BookSubject
}

// Clone returns a deep copy so callers can mutate it without touching the
// snapshot it was loaded from.
func (t Tables) Clone() Tables {
	out := Tables{
		Authors:  append([]Author(nil), t.Authors...),
		Books:    make([]Book, len(t.Books)),
		Subjects: append([]BookSubject(nil), t.Subjects...),
	}
	for i, b := range t.Books {
		if b.FirstPublishYear != nil {
			year := *b.FirstPublishYear
			b.FirstPublishYear = &year
		}
		out.Books[i] = b
	}
	return out
}

// WorkURL builds the public URL of a work from its key.
func WorkURL(workKey string) string {
	return SiteURL + workKey
}

// WorkKeyFromURL is the inverse of WorkURL.
func WorkKeyFromURL(url string) string {
	key, ok := strings.CutPrefix(strings.TrimSpace(url), SiteURL)
	if !ok || !strings.HasPrefix(key, WorkKeyPrefix) || len(key) == len(WorkKeyPrefix) {
		return ""
	}
	return key
}
