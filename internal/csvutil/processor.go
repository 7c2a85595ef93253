// Package csvutil reads and writes header-addressed CSV tables.
package csvutil

import (
	"bytes"
	"encoding/csv"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lepinkainen/olcatalog/internal/errors"
)

// Row maps header names to the values of one record. Columns absent from
// the header read as "".
type Row map[string]string

// Result holds the parsed items and the rows that were skipped.
type Result[T any] struct {
	Header  []string
	Items   []T
	Skipped []SkippedRow
}

// SkippedRow is a row that failed to parse. Raw holds its bytes exactly as
// read so it can be written back unchanged.
type SkippedRow struct {
	*errors.MalformedRowError
	// Record holds the fields read before the failure. It may be partial.
	Record []string
	Raw    []byte
	// Position is the number of items parsed before this row.
	Position int
}

// ProcessCSV reads a CSV file with a header row and parses each record into
// type T. A missing or empty file yields an empty result. Rows that fail to
// parse are logged, collected in Result.Skipped and otherwise ignored; only
// I/O failures are returned as errors.
func ProcessCSV[T any](filename string, parser func(Row) (T, error)) (Result[T], error) {
	var result Result[T]

	data, err := os.ReadFile(filename)
	if stdErrors.Is(err, os.ErrNotExist) {
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("failed to open CSV file: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("failed to read header of %s: %w", filename, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	result.Header = header

	name := filepath.Base(filename)
	skip := func(line int, cause error, record []string, raw []byte) {
		slog.Warn("Skipping malformed row", "file", name, "line", line, "error", cause)
		result.Skipped = append(result.Skipped, SkippedRow{
			MalformedRowError: errors.NewMalformedRowError(name, line, cause),
			Record:            record,
			Raw:               raw,
			Position:          len(result.Items),
		})
	}

	for {
		start := reader.InputOffset()
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		raw := data[start:reader.InputOffset()]
		if err != nil {
			var parseErr *csv.ParseError
			if stdErrors.As(err, &parseErr) {
				skip(parseErr.StartLine, parseErr.Err, record, raw)
				continue
			}
			return result, fmt.Errorf("failed to read %s: %w", filename, err)
		}

		line, _ := reader.FieldPos(0)
		if len(record) != len(header) {
			skip(line, fmt.Errorf("expected %d fields, got %d", len(header), len(record)), record, raw)
			continue
		}

		row := make(Row, len(header))
		for i, col := range header {
			row[col] = record[i]
		}

		item, err := parser(row)
		if err != nil {
			skip(line, err, record, raw)
			continue
		}
		result.Items = append(result.Items, item)
	}

	return result, nil
}

// WriteCSV writes the header followed by rows. Each kept row is written back
// verbatim after the first Position rows, so skipped rows stay where they
// were when the rows only grew since they were read. A kept row with an
// unterminated quote would swallow whatever follows it, so it goes last.
func WriteCSV(w io.Writer, header []string, rows [][]string, kept ...SkippedRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	var open []SkippedRow
	next := 0
	for _, k := range kept {
		if unterminated(k.Raw) {
			open = append(open, k)
			continue
		}
		for ; next < k.Position && next < len(rows); next++ {
			if err := writer.Write(rows[next]); err != nil {
				return fmt.Errorf("failed to write rows: %w", err)
			}
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return fmt.Errorf("failed to write rows: %w", err)
		}
		if err := writeRaw(w, k.Raw); err != nil {
			return fmt.Errorf("failed to write kept row: %w", err)
		}
	}

	if err := writer.WriteAll(rows[next:]); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	for _, k := range open {
		if err := writeRaw(w, k.Raw); err != nil {
			return fmt.Errorf("failed to write kept row: %w", err)
		}
	}
	return nil
}

// unterminated reports whether raw ends inside a quoted field.
func unterminated(raw []byte) bool {
	quoted, fieldStart := false, true
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case quoted && c == '"':
			if i+1 < len(raw) && raw[i+1] == '"' {
				i++
			} else {
				quoted = false
			}
		case !quoted && c == '"' && fieldStart:
			quoted = true
		}
		fieldStart = !quoted && (c == ',' || c == '\n')
	}
	return quoted
}

func writeRaw(w io.Writer, raw []byte) error {
	if len(raw) == 0 {
		return nil
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	if raw[len(raw)-1] != '\n' {
		_, err := io.WriteString(w, "\n")
		return err
	}
	return nil
}
