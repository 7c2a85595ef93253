// Package normalize turns loosely-typed search results into validated records.
package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lepinkainen/olcatalog/internal/catalog"
	"github.com/lepinkainen/olcatalog/internal/errors"
)

// Field names of the raw search result.
const (
	FieldKey              = "key"
	FieldWorkKey          = "work_key"
	FieldTitle            = "title"
	FieldAuthorKey        = "author_key"
	FieldAuthorName       = "author_name"
	FieldFirstPublishYear = "first_publish_year"
	FieldEditionCount     = "edition_count"
	FieldSubject          = "subject"
)

// Record is a validated search result. Only the first author is kept.
type Record struct {
	WorkKey          string
	Title            string
	AuthorKey        string
	AuthorName       string
	FirstPublishYear *int
	EditionCount     int
	Subjects         []string
}

// Normalize validates raw and extracts a Record. A record without a title,
// author key or work key is rejected with a *errors.MissingFieldError naming
// every absent field.
func Normalize(raw catalog.RawRecord) (Record, error) {
	rec := Record{
		Title:            stringValue(raw[FieldTitle]),
		WorkKey:          selectWorkKey(raw),
		AuthorKey:        firstString(raw[FieldAuthorKey]),
		AuthorName:       firstString(raw[FieldAuthorName]),
		FirstPublishYear: yearValue(raw[FieldFirstPublishYear]),
		EditionCount:     countValue(raw[FieldEditionCount]),
		Subjects:         subjects(raw[FieldSubject]),
	}

	var missing []string
	if strings.TrimSpace(rec.Title) == "" {
		missing = append(missing, FieldTitle)
	}
	if rec.AuthorKey == "" {
		missing = append(missing, FieldAuthorKey)
	}
	if rec.WorkKey == "" {
		missing = append(missing, FieldWorkKey)
	}
	if len(missing) > 0 {
		return Record{}, errors.NewMissingFieldError(missing...)
	}

	return rec, nil
}

// selectWorkKey prefers the document key and falls back to the first work
// entry in work_key. Bare ids such as OL123W are promoted to /works/OL123W.
func selectWorkKey(raw catalog.RawRecord) string {
	if key := workKey(stringValue(raw[FieldKey]), false); key != "" {
		return key
	}
	list, ok := raw[FieldWorkKey].([]any)
	if !ok {
		return workKey(stringValue(raw[FieldWorkKey]), true)
	}
	for _, item := range list {
		if key := workKey(stringValue(item), true); key != "" {
			return key
		}
	}
	return ""
}

func workKey(s string, allowBare bool) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, catalog.WorkKeyPrefix) && len(s) > len(catalog.WorkKeyPrefix) {
		return s
	}
	if allowBare && strings.HasPrefix(s, "OL") && strings.HasSuffix(s, "W") && !strings.Contains(s, "/") {
		return catalog.WorkKeyPrefix + s
	}
	return ""
}

func stringValue(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// firstString returns the first element of a list field, or the value itself
// when the source sent a scalar string.
func firstString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		if len(t) == 0 {
			return ""
		}
		return strings.TrimSpace(stringValue(t[0]))
	case []string:
		if len(t) == 0 {
			return ""
		}
		return strings.TrimSpace(t[0])
	}
	return ""
}

func intValue(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return int(t), true
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n), true
		}
		if f, err := t.Float64(); err == nil {
			return int(f), true
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n, true
		}
	}
	return 0, false
}

// yearValue keeps an absent year absent; non-positive years count as absent.
func yearValue(v any) *int {
	year, ok := intValue(v)
	if !ok || year <= 0 {
		return nil
	}
	return &year
}

func countValue(v any) int {
	n, ok := intValue(v)
	if !ok || n < 0 {
		return 0
	}
	return n
}

func subjects(v any) []string {
	list, ok := v.([]any)
	if !ok {
		if strs, ok := v.([]string); ok {
			list = make([]any, len(strs))
			for i, s := range strs {
				list[i] = s
			}
		}
	}

	out := make([]string, 0, len(list))
	for _, item := range list {
		if item == nil {
			continue
		}
		s := strings.TrimSpace(fmt.Sprint(item))
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
