package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/Sumatoshi-tech/gitloc/internal/snapshot"
	"github.com/Sumatoshi-tech/gitloc/internal/trend"
)

// WriteTrendCSV writes a pivoted trend table: one row per bucket, one
// column per series. Empty tables produce a header-only file.
func WriteTrendCSV(path string, tbl *trend.Table) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)

	names := tbl.SeriesNames()

	header := append([]string{"date"}, names...)

	writeErr := w.Write(header)
	if writeErr != nil {
		return fmt.Errorf("write %s: %w", path, writeErr)
	}

	for i := range tbl.Buckets {
		row := make([]string, 0, len(names)+1)
		row = append(row, tbl.Interval.Label(tbl.Buckets[i]))

		for _, name := range names {
			row = append(row, strconv.Itoa(tbl.Value(name, i)))
		}

		rowErr := w.Write(row)
		if rowErr != nil {
			return fmt.Errorf("write %s: %w", path, rowErr)
		}
	}

	w.Flush()

	flushErr := w.Error()
	if flushErr != nil {
		return fmt.Errorf("write %s: %w", path, flushErr)
	}

	return file.Close()
}

// WriteSnapshotsCSV writes the raw per-commit, per-language counts in
// long form, chronologically per repository.
func WriteSnapshotsCSV(path string, snapshots []*snapshot.Snapshot) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)

	header := []string{"repository", "commit", "author", "date", "language", "files", "blank", "comment", "code"}

	writeErr := w.Write(header)
	if writeErr != nil {
		return fmt.Errorf("write %s: %w", path, writeErr)
	}

	for _, snap := range snapshots {
		for _, language := range snap.LanguageNames() {
			count := snap.Languages[language]

			row := []string{
				snap.RepositoryID,
				snap.CommitHash,
				snap.Author,
				snap.AuthoredAt.UTC().Format("2006-01-02T15:04:05Z"),
				language,
				strconv.Itoa(count.Files),
				strconv.Itoa(count.Blank),
				strconv.Itoa(count.Comment),
				strconv.Itoa(count.Code),
			}

			rowErr := w.Write(row)
			if rowErr != nil {
				return fmt.Errorf("write %s: %w", path, rowErr)
			}
		}
	}

	w.Flush()

	flushErr := w.Error()
	if flushErr != nil {
		return fmt.Errorf("write %s: %w", path, flushErr)
	}

	return file.Close()
}
