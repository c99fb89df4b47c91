// SPDX-License-Identifier: Apache-2.0

package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// ErrInconsistentRun is returned when the summary and detail files of a run disagree.
var ErrInconsistentRun = errors.New("summary and detail files disagree")

// Record is one confirmed document as persisted in a run directory.
type Record struct {
	Sequence     int      `json:"sequence"`
	URL          string   `json:"url"`
	Primary      []string `json:"primary"`
	Organization []string `json:"organization"`
	FullText     string   `json:"full_text,omitempty"`
}

// Load reconstructs the records of a run from its detail files, ordered by sequence,
// and checks them against the CSV summary.
func Load(runDir string) ([]Record, error) {
	paths, err := filepath.Glob(filepath.Join(runDir, detailPrefix+"*"+detailSuffix))
	if err != nil {
		return nil, fmt.Errorf("list detail files: %w", err)
	}

	records := make([]Record, 0, len(paths))
	for _, path := range paths {
		name := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), detailPrefix), detailSuffix)
		sequence, err := strconv.Atoi(name)
		if err != nil || sequence < 1 {
			continue
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
		detail, err := ParseDetail(string(content))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		records = append(records, Record{
			Sequence:     sequence,
			URL:          detail.URL,
			Primary:      slices.Concat(detail.Primary...),
			Organization: slices.Concat(detail.Organization...),
			FullText:     detail.FullText,
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Sequence < records[j].Sequence })

	rows, err := ReadSummary(runDir)
	if err != nil {
		return nil, err
	}
	if err := checkConsistency(records, rows); err != nil {
		return nil, err
	}
	return records, nil
}

// ReadSummary returns the data rows of the CSV summary, header excluded.
func ReadSummary(runDir string) ([][]string, error) {
	f, err := os.Open(filepath.Join(runDir, SummaryFile))
	if err != nil {
		return nil, fmt.Errorf("open summary: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read summary: %w", err)
	}
	if len(rows) == 0 || !slices.Equal(rows[0], SummaryHeader) {
		return nil, fmt.Errorf("%w: missing summary header", ErrInconsistentRun)
	}
	return rows[1:], nil
}

// ReadURLList returns the confirmed URLs written by Finalize.
func ReadURLList(runDir string) ([]string, error) {
	content, err := os.ReadFile(filepath.Join(runDir, URLListFile))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", URLListFile, err)
	}
	text := strings.TrimSuffix(string(content), "\n")
	if text == "" {
		return []string{}, nil
	}
	return strings.Split(text, "\n"), nil
}

func checkConsistency(records []Record, rows [][]string) error {
	if len(records) != len(rows) {
		return fmt.Errorf("%w: %d detail files, %d summary rows", ErrInconsistentRun, len(records), len(rows))
	}
	for i, r := range records {
		row := rows[i]
		if len(row) != len(SummaryHeader) {
			return fmt.Errorf("%w: row %d has %d fields", ErrInconsistentRun, i+1, len(row))
		}
		if csvField(row[0]) != csvField(r.URL) ||
			csvField(row[1]) != csvField(strings.Join(r.Primary, valueSeparator)) ||
			csvField(row[2]) != csvField(strings.Join(r.Organization, valueSeparator)) {
			return fmt.Errorf("%w: evidence %d (%s)", ErrInconsistentRun, r.Sequence, r.URL)
		}
	}
	return nil
}

// csvField folds \r\n to \n, as csv.Reader does inside quoted fields.
func csvField(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
