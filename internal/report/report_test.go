package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/gitloc/internal/run"
	"github.com/Sumatoshi-tech/gitloc/internal/snapshot"
	"github.com/Sumatoshi-tech/gitloc/internal/trend"
)

func sampleTable() *trend.Table {
	tbl := trend.NewTable(trend.Monthly)
	tbl.Buckets = []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	tbl.Series["Go"] = []int{100, 150}
	tbl.Series["Python"] = []int{40, 40}

	return tbl
}

func sampleReport() *run.Report {
	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	return &run.Report{
		Interval: trend.Monthly,
		Results: []*run.RepoResult{
			{
				Spec:        run.RepoSpec{ID: "repo", Branch: "main"},
				Snapshots:   []*snapshot.Snapshot{{CommitHash: "aaa"}, {CommitHash: "bbb"}},
				Languages:   sampleTable(),
				Authors:     trend.NewTable(trend.Monthly),
				CacheHits:   1,
				CacheMisses: 1,
			},
		},
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
	}
}

func TestPrinter_PrintSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	printer := &Printer{Out: &buf, NoColor: true}
	printer.PrintSummary(sampleReport())

	out := buf.String()

	assert.Contains(t, out, "repo")
	assert.Contains(t, out, "main")
	assert.Contains(t, out, "190") // 150 + 40 in the final bucket
}

func TestPrinter_QuietSuppressesSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	printer := &Printer{Out: &buf, Quiet: true, NoColor: true}
	printer.PrintSummary(sampleReport())

	assert.Empty(t, buf.String())
}

func TestPrinter_QuietStillShowsWarnings(t *testing.T) {
	t.Parallel()

	report := sampleReport()
	report.Results[0].Empty = true

	var buf bytes.Buffer

	printer := &Printer{Out: &buf, Quiet: true, NoColor: true}
	printer.PrintSummary(report)

	assert.Contains(t, buf.String(), "no commits matched")
}

func TestPrinter_PrintTrend(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	printer := &Printer{Out: &buf, NoColor: true}
	printer.PrintTrend("Lines of code", sampleTable())

	out := buf.String()

	assert.Contains(t, out, "Lines of code")
	assert.Contains(t, out, "2024-01-01")
	assert.Contains(t, out, "150")
}

func TestPrinter_PrintTrend_EmptyPrintsNothing(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	printer := &Printer{Out: &buf, NoColor: true}
	printer.PrintTrend("Lines of code", trend.NewTable(trend.Monthly))

	assert.Empty(t, buf.String())
}

func TestWriteTrendCSV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trend.csv")

	require.NoError(t, WriteTrendCSV(path, sampleTable()))

	file, err := os.Open(path)
	require.NoError(t, err)

	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"date", "Go", "Python"}, rows[0])
	assert.Equal(t, []string{"2024-01-01", "100", "40"}, rows[1])
	assert.Equal(t, []string{"2024-02-01", "150", "40"}, rows[2])
}

func TestWriteSnapshotsCSV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "raw.csv")

	snapshots := []*snapshot.Snapshot{
		{
			RepositoryID: "repo",
			CommitHash:   "aaa",
			Author:       "alice",
			AuthoredAt:   time.Date(2024, 1, 5, 12, 30, 0, 0, time.UTC),
			Languages: map[string]snapshot.LanguageCount{
				"Go":     {Code: 100, Comment: 10, Blank: 5, Files: 2},
				"Python": {Code: 40, Files: 1},
			},
		},
	}

	require.NoError(t, WriteSnapshotsCSV(path, snapshots))

	file, err := os.Open(path)
	require.NoError(t, err)

	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"repository", "commit", "author", "date", "language", "files", "blank", "comment", "code"}, rows[0])
	// Languages come out sorted.
	assert.Equal(t, "Go", rows[1][4])
	assert.Equal(t, "100", rows[1][8])
	assert.Equal(t, "2024-01-05T12:30:00Z", rows[1][3])
	assert.Equal(t, "Python", rows[2][4])
}

func TestWriteManifest(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "run.yaml")

	report := sampleReport()
	report.RepoErrors = append(report.RepoErrors, assert.AnError)

	require.NoError(t, WriteManifest(path, report))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var manifest Manifest

	require.NoError(t, yaml.Unmarshal(data, &manifest))
	assert.Equal(t, "monthly", manifest.Interval)
	require.Len(t, manifest.Repos, 1)
	assert.Equal(t, "repo", manifest.Repos[0].ID)
	assert.Equal(t, 2, manifest.Repos[0].Commits)
	assert.Len(t, manifest.Errors, 1)
}
