package tablestore

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lepinkainen/olcatalog/internal/catalog"
	"github.com/lepinkainen/olcatalog/internal/csvutil"
	"github.com/shopspring/decimal"
)

func parseID(row csvutil.Row, col string) (int, error) {
	raw := strings.TrimSpace(row[col])
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s: invalid id %q", col, raw)
	}
	return id, nil
}

// parseCount reads a non-negative integer; an empty cell is zero.
func parseCount(row csvutil.Row, col string) (int, error) {
	raw := strings.TrimSpace(row[col])
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: invalid count %q", col, raw)
	}
	return n, nil
}

func parseAuthor(row csvutil.Row) (catalog.Author, error) {
	id, err := parseID(row, "author_id")
	if err != nil {
		return catalog.Author{}, err
	}
	key := strings.TrimSpace(row["author_key"])
	if key == "" {
		return catalog.Author{}, fmt.Errorf("author_key: empty")
	}
	count, err := parseCount(row, "book_count")
	if err != nil {
		return catalog.Author{}, err
	}
	return catalog.Author{
		AuthorID:  id,
		AuthorKey: key,
		Name:      row["name"],
		BookCount: count,
	}, nil
}

func parseBook(row csvutil.Row) (catalog.Book, error) {
	id, err := parseID(row, "book_id")
	if err != nil {
		return catalog.Book{}, err
	}
	authorID, err := parseID(row, "author_id")
	if err != nil {
		return catalog.Book{}, err
	}

	price, err := decimal.NewFromString(strings.TrimSpace(row["price"]))
	if err != nil || price.IsNegative() {
		return catalog.Book{}, fmt.Errorf("price: invalid decimal %q", row["price"])
	}

	var year *int
	if raw := strings.TrimSpace(row["first_publish_year"]); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			return catalog.Book{}, fmt.Errorf("first_publish_year: invalid integer %q", raw)
		}
		year = &y
	}

	editions, err := parseCount(row, "edition_count")
	if err != nil {
		return catalog.Book{}, err
	}

	return catalog.Book{
		BookID:           id,
		Handle:           row["handle"],
		Title:            row["title"],
		AuthorID:         authorID,
		AuthorKey:        strings.TrimSpace(row["author_key"]),
		Vendor:           row["vendor"],
		Price:            price.Round(2),
		FirstPublishYear: year,
		EditionCount:     editions,
		URL:              strings.TrimSpace(row["url"]),
	}, nil
}

func parseBookSubject(row csvutil.Row) (catalog.BookSubject, error) {
	id, err := parseID(row, "book_id")
	if err != nil {
		return catalog.BookSubject{}, err
	}
	if row["subject"] == "" {
		return catalog.BookSubject{}, fmt.Errorf("subject: empty")
	}
	return catalog.BookSubject{BookID: id, Subject: row["subject"]}, nil
}
