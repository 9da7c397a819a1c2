package plotpage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func TestBuildLineChart_RendersSeries(t *testing.T) {
	t.Parallel()

	chart := BuildLineChart("Lines of code", []string{"2024-01-01", "2024-02-01"},
		[]LineSeries{{Name: "Go", Data: []int{100, 150}, Stack: "total", Area: true}},
		"lines of code")

	var buf bytes.Buffer

	require.NoError(t, chart.Render(&buf))

	out := buf.String()

	assert.Contains(t, out, "Go")
	assert.Contains(t, out, "2024-01-01")
	assert.Contains(t, out, "150")
}

func TestTrendChart_StableSeriesOrder(t *testing.T) {
	t.Parallel()

	chart := TrendChart("Languages", sampleTable(), true)

	require.Len(t, chart.MultiSeries, 2)
	assert.Equal(t, "Go", chart.MultiSeries[0].Name)
	assert.Equal(t, "Python", chart.MultiSeries[1].Name)
}

func TestWritePage(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "report.html")

	require.NoError(t, WritePage(path, "gitloc report", TrendChart("Languages", sampleTable(), true)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Contains(t, string(data), "gitloc report")
	assert.Contains(t, string(data), "Go")
}

func TestWritePage_NoCharts(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "report.html")

	require.NoError(t, WritePage(path, "gitloc report"))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}
