package trend

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrIntervalMismatch indicates tables built on different intervals were
// passed to Merge. Callers build every repository on the same interval.
var ErrIntervalMismatch = errors.New("interval mismatch")

// TotalSeriesName is the synthetic summed series added by Merge when
// requested. The colon keeps it out of any repository identifier space.
const TotalSeriesName = "total:all"

// Merge aligns per-repository tables onto the union of their bucket axes.
// Each input series is forward-filled independently: before its first bucket
// it reads zero, after its last it carries the final value. With withTotal
// set, a summed series named TotalSeriesName is appended. Empty inputs are
// skipped; merging nothing yields an empty table.
func Merge(tables []*Table, interval Interval, withTotal bool) (*Table, error) {
	out := NewTable(interval)

	axis := map[time.Time]struct{}{}
	live := make([]*Table, 0, len(tables))

	for _, table := range tables {
		if table.IsEmpty() {
			continue
		}

		if table.Interval != interval {
			return nil, fmt.Errorf("%w: %s vs %s", ErrIntervalMismatch, table.Interval, interval)
		}

		live = append(live, table)

		for _, bucket := range table.Buckets {
			axis[bucket] = struct{}{}
		}
	}

	if len(axis) == 0 {
		return out, nil
	}

	out.Buckets = make([]time.Time, 0, len(axis))
	for bucket := range axis {
		out.Buckets = append(out.Buckets, bucket)
	}

	sort.Slice(out.Buckets, func(i, j int) bool {
		return out.Buckets[i].Before(out.Buckets[j])
	})

	for _, table := range live {
		for name, values := range table.Series {
			out.Series[name] = realign(table.Buckets, values, out.Buckets)
		}
	}

	if withTotal {
		totals := make([]int, len(out.Buckets))

		for name, values := range out.Series {
			if name == TotalSeriesName {
				continue
			}

			for i, value := range values {
				totals[i] += value
			}
		}

		out.Series[TotalSeriesName] = totals
	}

	return out, nil
}

// realign maps a series from its own bucket axis onto the merged axis,
// holding the last seen value between source buckets and zero before the
// first one.
func realign(src []time.Time, values []int, axis []time.Time) []int {
	out := make([]int, len(axis))

	idx := 0
	current := 0
	seen := false

	for i, bucket := range axis {
		for idx < len(src) && !src[idx].After(bucket) {
			current = values[idx]
			seen = true
			idx++
		}

		if seen {
			out[i] = current
		}
	}

	return out
}
