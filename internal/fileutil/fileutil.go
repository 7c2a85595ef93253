package fileutil

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileExists checks if a file exists at the given path
func FileExists(filePath string) bool {
	info, err := os.Stat(filePath)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// StagedFile is content written to a temporary file next to its final path.
// Nothing is visible at the final path until Commit renames it into place.
type StagedFile struct {
	path    string
	tmpPath string
}

// Stage writes the output of write into a temporary file in the directory of
// path. The caller must Commit or Discard the result.
func Stage(path string, write func(w io.Writer) error) (*StagedFile, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	staged := &StagedFile{path: path, tmpPath: tmp.Name()}

	buf := bufio.NewWriter(tmp)
	writeErr := write(buf)
	if writeErr == nil {
		writeErr = buf.Flush()
	}
	if writeErr == nil {
		writeErr = tmp.Sync()
	}
	if closeErr := tmp.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		return nil, errors.Join(fmt.Errorf("failed to write %s: %w", path, writeErr), staged.Discard())
	}

	if err := os.Chmod(staged.tmpPath, 0o644); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to set permissions on %s: %w", path, err), staged.Discard())
	}

	return staged, nil
}

// Path returns the final destination.
func (s *StagedFile) Path() string {
	return s.path
}

// Commit atomically replaces the destination with the staged content.
func (s *StagedFile) Commit() error {
	if err := os.Rename(s.tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", s.path, err)
	}
	return nil
}

// Discard removes the temporary file. It is safe to call after Commit.
func (s *StagedFile) Discard() error {
	if err := os.Remove(s.tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// WriteAtomic stages and commits a single file.
func WriteAtomic(path string, write func(w io.Writer) error) error {
	staged, err := Stage(path, write)
	if err != nil {
		return err
	}
	return staged.Commit()
}

// CommitAll stages every file first and only then renames them into place,
// so a failure while writing leaves every destination untouched.
func CommitAll(files map[string]func(w io.Writer) error, order []string) error {
	staged := make([]*StagedFile, 0, len(order))
	discardAll := func() error {
		var errs []error
		for _, s := range staged {
			errs = append(errs, s.Discard())
		}
		return errors.Join(errs...)
	}

	for _, path := range order {
		write, ok := files[path]
		if !ok {
			return errors.Join(fmt.Errorf("no writer for %s", path), discardAll())
		}
		s, err := Stage(path, write)
		if err != nil {
			return errors.Join(err, discardAll())
		}
		staged = append(staged, s)
	}

	for i, s := range staged {
		if err := s.Commit(); err != nil {
			var errs []error
			for _, rest := range staged[i+1:] {
				errs = append(errs, rest.Discard())
			}
			return errors.Join(append([]error{err}, errs...)...)
		}
	}
	return nil
}
