package pipeline

import (
	"fmt"
	"io"

	"github.com/lepinkainen/olcatalog/internal/fileutil"
	"github.com/lepinkainen/olcatalog/internal/upsert"
	"gopkg.in/yaml.v3"
)

// Summary reports the counts of a single run.
type Summary struct {
	Query           string `yaml:"query"`
	DryRun          bool   `yaml:"dry_run"`
	Fetched         int    `yaml:"fetched"`
	NewAuthors      int    `yaml:"new_authors"`
	ExistingAuthors int    `yaml:"existing_authors"`
	NewBooks        int    `yaml:"new_books"`
	DuplicateBooks  int    `yaml:"duplicate_books"`
	Rejected        int    `yaml:"rejected"`
	SubjectLinks    int    `yaml:"subject_links"`
	MalformedRows   int    `yaml:"malformed_rows"`
}

func (s *Summary) applyStats(stats upsert.Stats) {
	s.NewAuthors = stats.NewAuthors
	s.ExistingAuthors = stats.ExistingAuthors
	s.NewBooks = stats.NewBooks
	s.DuplicateBooks = stats.DuplicateBooks
	s.SubjectLinks = stats.SubjectLinks
}

// WriteText prints the human readable summary.
func (s Summary) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"Pipeline Summary:\n"+
			"- Fetched: %d books from API\n"+
			"- Authors: %d new, %d existing (deduplicated)\n"+
			"- Books: %d new, %d duplicates skipped\n"+
			"- Skipped: %d records with missing critical fields\n"+
			"- Subjects: %d subject associations created\n",
		s.Fetched,
		s.NewAuthors, s.ExistingAuthors,
		s.NewBooks, s.DuplicateBooks,
		s.Rejected,
		s.SubjectLinks,
	)
	return err
}

// WriteYAMLFile writes the summary as YAML to path, replacing any existing file.
func (s Summary) WriteYAMLFile(path string) error {
	err := fileutil.WriteAtomic(path, func(w io.Writer) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	})
	if err != nil {
		return fmt.Errorf("failed to write summary file: %w", err)
	}
	return nil
}
