package trend

import (
	"sort"
	"time"
)

// Table is a pivoted time series: one row per bucket start, one column per
// series (language, author, or repository). Every series has exactly
// len(Buckets) values.
type Table struct {
	Interval Interval
	Buckets  []time.Time
	Series   map[string][]int
}

// NewTable returns an empty table for the given interval.
func NewTable(interval Interval) *Table {
	return &Table{Interval: interval, Series: map[string][]int{}}
}

// IsEmpty reports whether the table carries no buckets.
func (t *Table) IsEmpty() bool {
	return t == nil || len(t.Buckets) == 0
}

// SeriesNames returns the column names in stable sorted order.
func (t *Table) SeriesNames() []string {
	names := make([]string, 0, len(t.Series))

	for name := range t.Series {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Value returns the series value at bucket index i, zero for unknown series.
func (t *Table) Value(series string, i int) int {
	values, ok := t.Series[series]
	if !ok || i < 0 || i >= len(values) {
		return 0
	}

	return values[i]
}

// RowTotal sums all series at bucket index i.
func (t *Table) RowTotal(i int) int {
	total := 0

	for _, values := range t.Series {
		if i >= 0 && i < len(values) {
			total += values[i]
		}
	}

	return total
}

// Labels returns the formatted bucket starts.
func (t *Table) Labels() []string {
	labels := make([]string, len(t.Buckets))

	for i, bucket := range t.Buckets {
		labels[i] = t.Interval.Label(bucket)
	}

	return labels
}
