package upsert

import (
	"log/slog"

	"github.com/lepinkainen/olcatalog/internal/catalog"
	"github.com/lepinkainen/olcatalog/internal/derive"
	"github.com/lepinkainen/olcatalog/internal/normalize"
)

// Stats counts the decisions taken by an Engine.
type Stats struct {
	NewAuthors      int `json:"new_authors" yaml:"new_authors"`
	ExistingAuthors int `json:"existing_authors" yaml:"existing_authors"`
	NewBooks        int `json:"new_books" yaml:"new_books"`
	DuplicateBooks  int `json:"duplicate_books" yaml:"duplicate_books"`
	SubjectLinks    int `json:"subject_links" yaml:"subject_links"`
}

// Outcome describes what Apply did with one record.
type Outcome struct {
	AuthorID      int
	BookID        int
	NewAuthor     bool
	NewBook       bool
	SubjectsAdded int
}

// Engine owns a working copy of the tables plus the Index built from it.
// It is not safe for concurrent use; records are applied one at a time.
type Engine struct {
	tables      catalog.Tables
	index       *Index
	authorRow   map[int]int
	subjects    map[catalog.BookSubject]struct{}
	currentYear int
	stats       Stats
}

// NewEngine copies snapshot and indexes it. currentYear feeds the pricing.
func NewEngine(snapshot catalog.Tables, currentYear int) *Engine {
	tables := snapshot.Clone()

	e := &Engine{
		tables:      tables,
		index:       BuildIndex(tables),
		authorRow:   make(map[int]int, len(tables.Authors)),
		subjects:    make(map[catalog.BookSubject]struct{}, len(tables.Subjects)),
		currentYear: currentYear,
	}
	for i, a := range tables.Authors {
		if _, ok := e.authorRow[a.AuthorID]; !ok {
			e.authorRow[a.AuthorID] = i
		}
	}
	for _, s := range tables.Subjects {
		e.subjects[s] = struct{}{}
	}

	return e
}

// Apply merges one record. An existing book is never modified: it gets no new
// subjects and does not change its author's book_count.
func (e *Engine) Apply(rec normalize.Record) Outcome {
	var out Outcome

	authorID, ok := e.index.AuthorByKey[rec.AuthorKey]
	if ok {
		e.stats.ExistingAuthors++
	} else {
		authorID = e.index.allocateAuthorID()
		e.tables.Authors = append(e.tables.Authors, catalog.Author{
			AuthorID:  authorID,
			AuthorKey: rec.AuthorKey,
			Name:      rec.AuthorName,
		})
		e.authorRow[authorID] = len(e.tables.Authors) - 1
		e.index.AuthorByKey[rec.AuthorKey] = authorID
		e.stats.NewAuthors++
		out.NewAuthor = true
		slog.Debug("New author", "author_id", authorID, "author_key", rec.AuthorKey, "name", rec.AuthorName)
	}
	out.AuthorID = authorID

	if bookID, exists := e.index.LookupBook(rec.WorkKey, rec.Title, rec.AuthorKey); exists {
		e.stats.DuplicateBooks++
		out.BookID = bookID
		slog.Debug("Duplicate book skipped", "book_id", bookID, "work_key", rec.WorkKey, "title", rec.Title)
		return out
	}

	bookID := e.index.allocateBookID()
	e.tables.Books = append(e.tables.Books, catalog.Book{
		BookID:           bookID,
		Handle:           derive.Slug(rec.Title),
		Title:            rec.Title,
		AuthorID:         authorID,
		AuthorKey:        rec.AuthorKey,
		Vendor:           catalog.Vendor,
		Price:            derive.Price(rec.FirstPublishYear, rec.EditionCount, e.currentYear),
		FirstPublishYear: copyYear(rec.FirstPublishYear),
		EditionCount:     rec.EditionCount,
		URL:              catalog.WorkURL(rec.WorkKey),
	})
	e.index.BookByWork[rec.WorkKey] = bookID
	e.index.BookByTitleAuthor[TitleAuthor{Title: rec.Title, AuthorKey: rec.AuthorKey}] = bookID
	e.tables.Authors[e.authorRow[authorID]].BookCount++
	e.stats.NewBooks++
	out.BookID = bookID
	out.NewBook = true

	for _, subject := range rec.Subjects {
		pair := catalog.BookSubject{BookID: bookID, Subject: subject}
		if _, dup := e.subjects[pair]; dup {
			continue
		}
		e.subjects[pair] = struct{}{}
		e.tables.Subjects = append(e.tables.Subjects, pair)
		out.SubjectsAdded++
	}
	e.stats.SubjectLinks += out.SubjectsAdded

	slog.Debug("New book", "book_id", bookID, "work_key", rec.WorkKey, "title", rec.Title, "subjects", out.SubjectsAdded)
	return out
}

// ApplyAll applies records in order.
func (e *Engine) ApplyAll(records []normalize.Record) {
	for _, rec := range records {
		e.Apply(rec)
	}
}

// ReserveIDs keeps new ids above authorID and bookID. Call it before Apply.
func (e *Engine) ReserveIDs(authorID, bookID int) {
	e.index.Reserve(authorID, bookID)
}

// Tables returns a copy of the current tables.
func (e *Engine) Tables() catalog.Tables {
	return e.tables.Clone()
}

// Index exposes the identity index, mainly for inspection in tests.
func (e *Engine) Index() *Index {
	return e.index
}

// Stats returns the counters accumulated so far.
func (e *Engine) Stats() Stats {
	return e.stats
}

func copyYear(year *int) *int {
	if year == nil {
		return nil
	}
	y := *year
	return &y
}
