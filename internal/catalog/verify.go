package catalog

import "fmt"

// Verify checks the cross-table invariants of a snapshot and returns one
// error per violation found. A nil result means the snapshot is consistent.
func (t Tables) Verify() []error {
	var problems []error

	authorIDs := make(map[int]string, len(t.Authors))
	authorKeys := make(map[string]int, len(t.Authors))
	for _, a := range t.Authors {
		if _, dup := authorIDs[a.AuthorID]; dup {
			problems = append(problems, fmt.Errorf("author_id %d assigned more than once", a.AuthorID))
		}
		authorIDs[a.AuthorID] = a.AuthorKey
		if id, dup := authorKeys[a.AuthorKey]; dup {
			problems = append(problems, fmt.Errorf("author_key %q maps to author_id %d and %d", a.AuthorKey, id, a.AuthorID))
			continue
		}
		authorKeys[a.AuthorKey] = a.AuthorID
	}

	bookIDs := make(map[int]struct{}, len(t.Books))
	workKeys := make(map[string]int, len(t.Books))
	counts := make(map[int]int, len(t.Authors))
	for _, b := range t.Books {
		if _, dup := bookIDs[b.BookID]; dup {
			problems = append(problems, fmt.Errorf("book_id %d assigned more than once", b.BookID))
		}
		bookIDs[b.BookID] = struct{}{}

		if key := b.WorkKey(); key != "" {
			if id, dup := workKeys[key]; dup {
				problems = append(problems, fmt.Errorf("work %s maps to book_id %d and %d", key, id, b.BookID))
			} else {
				workKeys[key] = b.BookID
			}
		}

		if _, ok := authorIDs[b.AuthorID]; !ok {
			problems = append(problems, fmt.Errorf("book_id %d references missing author_id %d", b.BookID, b.AuthorID))
			continue
		}
		counts[b.AuthorID]++
	}

	for _, a := range t.Authors {
		if a.BookCount != counts[a.AuthorID] {
			problems = append(problems, fmt.Errorf("author_id %d has book_count %d but %d books reference it", a.AuthorID, a.BookCount, counts[a.AuthorID]))
		}
	}

	pairs := make(map[BookSubject]struct{}, len(t.Subjects))
	for _, s := range t.Subjects {
		if _, dup := pairs[s]; dup {
			problems = append(problems, fmt.Errorf("subject %q duplicated for book_id %d", s.Subject, s.BookID))
			continue
		}
		pairs[s] = struct{}{}
		if _, ok := bookIDs[s.BookID]; !ok {
			problems = append(problems, fmt.Errorf("subject %q references missing book_id %d", s.Subject, s.BookID))
		}
	}

	return problems
}
