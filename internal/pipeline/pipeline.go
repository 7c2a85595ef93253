// Package pipeline runs one incremental load: read the persisted tables,
// fetch search results, upsert them and write the tables back.
package pipeline

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lepinkainen/olcatalog/internal/catalog"
	"github.com/lepinkainen/olcatalog/internal/errors"
	"github.com/lepinkainen/olcatalog/internal/normalize"
	"github.com/lepinkainen/olcatalog/internal/tablestore"
	"github.com/lepinkainen/olcatalog/internal/upsert"
)

// Source fetches raw search records. Transport failures are absorbed and
// reported as an empty result.
type Source interface {
	Search(ctx context.Context, query string, limit int) []catalog.RawRecord
}

// TableStore loads and saves the persisted table snapshot.
type TableStore interface {
	Load() (catalog.Tables, tablestore.LoadReport, error)
	Save(tables catalog.Tables) error
}

// Mirror receives a copy of the final tables after they are saved.
type Mirror interface {
	MirrorCatalog(ctx context.Context, tables catalog.Tables) error
}

// Options controls a single run.
type Options struct {
	Query       string
	Limit       int
	CurrentYear int
	DryRun      bool
}

// Pipeline wires a source and a table store around the upsert engine.
type Pipeline struct {
	source Source
	store  TableStore
	mirror Mirror
}

// New creates a pipeline. mirror may be nil.
func New(source Source, store TableStore, mirror Mirror) *Pipeline {
	return &Pipeline{source: source, store: store, mirror: mirror}
}

// Run executes one load. Only load and save failures are returned; rejected
// records, skipped rows and mirror failures are logged and counted.
func (p *Pipeline) Run(ctx context.Context, opts Options) (Summary, error) {
	summary := Summary{Query: opts.Query, DryRun: opts.DryRun}

	snapshot, report, err := p.store.Load()
	if err != nil {
		return summary, fmt.Errorf("failed to load tables: %w", err)
	}
	summary.MalformedRows = report.SkippedRows
	logViolations("loaded tables", snapshot.Verify())

	engine := upsert.NewEngine(snapshot, opts.CurrentYear)
	engine.ReserveIDs(report.MaxAuthorID, report.MaxBookID)

	raw := p.source.Search(ctx, opts.Query, opts.Limit)
	summary.Fetched = len(raw)
	slog.Info("Fetched search results", "query", opts.Query, "limit", opts.Limit, "count", summary.Fetched)

	for _, doc := range raw {
		rec, err := normalize.Normalize(doc)
		if err != nil {
			summary.Rejected++
			logRejection(doc, err)
			continue
		}

		outcome := engine.Apply(rec)
		slog.Debug("Applied record",
			"work_key", rec.WorkKey,
			"book_id", outcome.BookID,
			"author_id", outcome.AuthorID,
			"new_book", outcome.NewBook,
			"new_author", outcome.NewAuthor,
		)
	}

	summary.applyStats(engine.Stats())

	final := engine.Tables()
	logViolations("updated tables", final.Verify())

	if opts.DryRun {
		slog.Info("Dry run, tables not saved")
		return summary, nil
	}

	if err := p.store.Save(final); err != nil {
		return summary, err
	}

	if p.mirror != nil {
		if err := p.mirror.MirrorCatalog(ctx, final); err != nil {
			slog.Error("Failed to mirror tables", "error", err)
		}
	}

	return summary, nil
}

func logRejection(doc catalog.RawRecord, err error) {
	attrs := []any{
		"title", doc[normalize.FieldTitle],
		"author_key", doc[normalize.FieldAuthorKey],
		"key", doc[normalize.FieldKey],
		"work_key", doc[normalize.FieldWorkKey],
	}

	var missing *errors.MissingFieldError
	if stdErrors.As(err, &missing) {
		attrs = append(attrs, "missing", strings.Join(missing.Fields, ","))
	}
	attrs = append(attrs, "reason", errors.MissingFieldReason)

	slog.Warn("Rejected record", attrs...)
}

func logViolations(stage string, violations []error) {
	for _, v := range violations {
		slog.Warn("Table invariant violated", "stage", stage, "error", v)
	}
}
