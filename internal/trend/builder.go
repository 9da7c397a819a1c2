package trend

import (
	"sort"
	"time"

	"github.com/Sumatoshi-tech/gitloc/internal/snapshot"
)

// BuildLanguages resamples snapshots of one repository onto a regular bucket
// axis. Each bucket takes the counts of the last snapshot observed before
// the next bucket starts; buckets with no new snapshot carry the previous
// value forward. Buckets before the first observation are omitted. The axis
// runs through the bucket containing runEnd.
func BuildLanguages(snapshots []*snapshot.Snapshot, interval Interval, runEnd time.Time) *Table {
	table := NewTable(interval)

	if len(snapshots) == 0 {
		return table
	}

	ordered := orderSnapshots(snapshots)

	languages := map[string]struct{}{}

	for _, snap := range ordered {
		for name := range snap.Languages {
			languages[name] = struct{}{}
		}
	}

	first := interval.BucketStart(ordered[0].AuthoredAt)
	last := interval.BucketStart(runEnd.UTC())

	if last.Before(first) {
		last = first
	}

	idx := 0
	current := ordered[0]

	for bucket := first; !bucket.After(last); bucket = interval.Next(bucket) {
		next := interval.Next(bucket)

		for idx < len(ordered) && ordered[idx].AuthoredAt.Before(next) {
			current = ordered[idx]
			idx++
		}

		table.Buckets = append(table.Buckets, bucket)

		for name := range languages {
			table.Series[name] = append(table.Series[name], current.Languages[name].Code)
		}
	}

	return table
}

// BuildAuthors builds cumulative per-author contribution on the same axis as
// BuildLanguages. Each snapshot's growth in total code over its predecessor
// is attributed to its author; shrinking totals contribute nothing, so every
// author series is monotonically non-decreasing. The first snapshot's author
// is credited with its full total.
func BuildAuthors(snapshots []*snapshot.Snapshot, interval Interval, runEnd time.Time) *Table {
	table := NewTable(interval)

	if len(snapshots) == 0 {
		return table
	}

	ordered := orderSnapshots(snapshots)

	type point struct {
		at         time.Time
		cumulative map[string]int
	}

	points := make([]point, 0, len(ordered))
	cumulative := map[string]int{}
	prevTotal := 0

	for i, snap := range ordered {
		delta := snap.TotalCode() - prevTotal
		if i == 0 {
			delta = snap.TotalCode()
		}

		if delta > 0 {
			cumulative[snap.Author] += delta
		}

		prevTotal = snap.TotalCode()

		frozen := make(map[string]int, len(cumulative))
		for author, value := range cumulative {
			frozen[author] = value
		}

		points = append(points, point{at: snap.AuthoredAt, cumulative: frozen})
	}

	first := interval.BucketStart(ordered[0].AuthoredAt)
	last := interval.BucketStart(runEnd.UTC())

	if last.Before(first) {
		last = first
	}

	idx := 0
	current := points[0]

	for bucket := first; !bucket.After(last); bucket = interval.Next(bucket) {
		next := interval.Next(bucket)

		for idx < len(points) && points[idx].at.Before(next) {
			current = points[idx]
			idx++
		}

		table.Buckets = append(table.Buckets, bucket)

		for author := range cumulative {
			table.Series[author] = append(table.Series[author], current.cumulative[author])
		}
	}

	return table
}

// TotalSeries collapses a language table to a single named series holding
// the per-bucket sum, preserving the axis. Used to feed one repository's
// total into the multi-repository merge.
func TotalSeries(table *Table, name string) *Table {
	out := NewTable(table.Interval)

	if table.IsEmpty() {
		return out
	}

	out.Buckets = append(out.Buckets, table.Buckets...)

	values := make([]int, len(table.Buckets))
	for i := range table.Buckets {
		values[i] = table.RowTotal(i)
	}

	out.Series[name] = values

	return out
}

// orderSnapshots returns snapshots sorted chronologically, ties broken by
// commit hash, without mutating the input.
func orderSnapshots(snapshots []*snapshot.Snapshot) []*snapshot.Snapshot {
	ordered := make([]*snapshot.Snapshot, len(snapshots))
	copy(ordered, snapshots)

	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].AuthoredAt.Equal(ordered[j].AuthoredAt) {
			return ordered[i].AuthoredAt.Before(ordered[j].AuthoredAt)
		}

		return ordered[i].CommitHash < ordered[j].CommitHash
	})

	return ordered
}
