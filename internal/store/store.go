// SPDX-License-Identifier: Apache-2.0

// Package store persists confirmed evidence for a run: a CSV summary, one detail file
// per document, and the list of confirmed URLs.
package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gemaraproj/statement-screener/internal/evidence"
)

// File names inside a run directory.
const (
	SummaryFile  = "evidence_summary.csv"
	URLListFile  = "all_statements.txt"
	detailPrefix = "evidence_"
	detailSuffix = ".txt"
)

// valueSeparator joins the flattened match values of a stage in a CSV cell.
const valueSeparator = "; "

// SummaryHeader is the first row of the CSV summary.
var SummaryHeader = []string{"URL", "Primary Matches", "Organization References"}

var (
	// ErrNotInitialized is returned when Append or Finalize runs before Initialize.
	ErrNotInitialized = errors.New("evidence store not initialized")
	// ErrInvalidSequence is returned for evidence numbers below 1.
	ErrInvalidSequence = errors.New("evidence sequence must be at least 1")
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// FileStore writes evidence to a run directory on the local filesystem.
type FileStore struct {
	dir string
}

var _ evidence.Store = (*FileStore)(nil)

// NewFileStore creates an uninitialized FileStore.
func NewFileStore() *FileStore {
	return &FileStore{}
}

// Dir returns the run directory, empty before Initialize.
func (s *FileStore) Dir() string {
	return s.dir
}

// DetailFileName returns the detail file name for the Nth confirmed document.
func DetailFileName(sequence int) string {
	return fmt.Sprintf("%s%d%s", detailPrefix, sequence, detailSuffix)
}

// Initialize creates runDir and writes the CSV header. It truncates any existing summary.
func (s *FileStore) Initialize(runDir string) error {
	if err := os.MkdirAll(runDir, dirPerm); err != nil {
		return fmt.Errorf("create run directory: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(runDir, SummaryFile), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return fmt.Errorf("create summary: %w", err)
	}
	if err := writeRow(f, SummaryHeader); err != nil {
		_ = f.Close()
		return fmt.Errorf("write summary header: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close summary: %w", err)
	}

	s.dir = runDir
	return nil
}

// Append writes the detail file for ev and then its CSV row. If the row cannot be
// written the detail file is removed again, so the two never disagree.
func (s *FileStore) Append(ev evidence.Evidence, sequence int) error {
	if s.dir == "" {
		return ErrNotInitialized
	}
	if sequence < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidSequence, sequence)
	}

	detailPath := filepath.Join(s.dir, DetailFileName(sequence))
	if err := writeFileAtomic(detailPath, []byte(FormatDetail(ev))); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(detailPath), err)
	}

	if err := s.appendRow(SummaryRow(ev)); err != nil {
		_ = os.Remove(detailPath)
		return fmt.Errorf("append summary row: %w", err)
	}
	return nil
}

// Finalize writes the confirmed URLs, one per line, replacing any previous list.
func (s *FileStore) Finalize(urls []string) error {
	if s.dir == "" {
		return ErrNotInitialized
	}

	var b strings.Builder
	for _, u := range urls {
		b.WriteString(u)
		b.WriteByte('\n')
	}
	if err := writeFileAtomic(filepath.Join(s.dir, URLListFile), []byte(b.String())); err != nil {
		return fmt.Errorf("write %s: %w", URLListFile, err)
	}
	return nil
}

// appendRow opens the summary for append, writes one row and closes it again.
func (s *FileStore) appendRow(row []string) error {
	f, err := os.OpenFile(filepath.Join(s.dir, SummaryFile), os.O_APPEND|os.O_WRONLY, filePerm)
	if err != nil {
		return err
	}
	if err := writeRow(f, row); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// SummaryRow is the CSV row for ev.
func SummaryRow(ev evidence.Evidence) []string {
	return []string{
		ev.URL,
		strings.Join(ev.Primary.Flatten(), valueSeparator),
		strings.Join(ev.Organization.Flatten(), valueSeparator),
	}
}

func writeRow(f *os.File, row []string) error {
	w := csv.NewWriter(f)
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// writeFileAtomic writes data to a temporary file in the same directory and renames it
// into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
