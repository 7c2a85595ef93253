// Package upsert assigns stable surrogate keys to normalized records and
// merges them into the catalog tables without ever duplicating a row.
package upsert

import (
	"log/slog"

	"github.com/lepinkainen/olcatalog/internal/catalog"
)

// TitleAuthor is the secondary natural key of a book. It only guards rows
// written without a work key and must not be relied on as a primary key.
type TitleAuthor struct {
	Title     string
	AuthorKey string
}

// Index maps natural keys to surrogate ids for one run.
type Index struct {
	AuthorByKey       map[string]int
	BookByWork        map[string]int
	BookByTitleAuthor map[TitleAuthor]int
	NextAuthorID      int
	NextBookID        int
}

// BuildIndex derives the lookup maps and next ids from a loaded snapshot.
// When a natural key appears more than once the first row wins.
func BuildIndex(tables catalog.Tables) *Index {
	idx := &Index{
		AuthorByKey:       make(map[string]int, len(tables.Authors)),
		BookByWork:        make(map[string]int, len(tables.Books)),
		BookByTitleAuthor: make(map[TitleAuthor]int, len(tables.Books)),
		NextAuthorID:      1,
		NextBookID:        1,
	}

	for _, a := range tables.Authors {
		if a.AuthorID >= idx.NextAuthorID {
			idx.NextAuthorID = a.AuthorID + 1
		}
		if a.AuthorKey == "" {
			continue
		}
		if prev, ok := idx.AuthorByKey[a.AuthorKey]; ok {
			slog.Warn("Duplicate author key in snapshot, keeping first", "author_key", a.AuthorKey, "kept", prev, "ignored", a.AuthorID)
			continue
		}
		idx.AuthorByKey[a.AuthorKey] = a.AuthorID
	}

	for _, b := range tables.Books {
		if b.BookID >= idx.NextBookID {
			idx.NextBookID = b.BookID + 1
		}
		if key := b.WorkKey(); key != "" {
			if _, ok := idx.BookByWork[key]; !ok {
				idx.BookByWork[key] = b.BookID
			}
		}
		if b.Title != "" && b.AuthorKey != "" {
			ta := TitleAuthor{Title: b.Title, AuthorKey: b.AuthorKey}
			if _, ok := idx.BookByTitleAuthor[ta]; !ok {
				idx.BookByTitleAuthor[ta] = b.BookID
			}
		}
	}

	return idx
}

// LookupBook finds an existing book by work key, then by title and author.
func (idx *Index) LookupBook(workKey, title, authorKey string) (int, bool) {
	if id, ok := idx.BookByWork[workKey]; ok && workKey != "" {
		return id, true
	}
	id, ok := idx.BookByTitleAuthor[TitleAuthor{Title: title, AuthorKey: authorKey}]
	return id, ok
}

// Reserve marks ids up to and including authorID and bookID as taken, so
// rows that exist on disk but were not loaded never have their ids reused.
func (idx *Index) Reserve(authorID, bookID int) {
	idx.NextAuthorID = max(idx.NextAuthorID, authorID+1)
	idx.NextBookID = max(idx.NextBookID, bookID+1)
}

func (idx *Index) allocateAuthorID() int {
	id := idx.NextAuthorID
	idx.NextAuthorID++
	return id
}

func (idx *Index) allocateBookID() int {
	id := idx.NextBookID
	idx.NextBookID++
	return id
}
