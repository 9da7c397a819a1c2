package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 12, 0, 0, 0, time.UTC)
}

func record(hash, author string, at time.Time) Record {
	return Record{Hash: hash, Author: author, AuthoredAt: at, RepositoryID: "repo", Branch: "main"}
}

func TestSelectRecords_ChronologicalOrder(t *testing.T) {
	t.Parallel()

	raw := []Record{
		record("ccc", "alice", day(3)),
		record("aaa", "bob", day(1)),
		record("bbb", "alice", day(2)),
	}

	got := selectRecords(raw, Options{})

	hashes := make([]string, len(got))
	for i, r := range got {
		hashes[i] = r.Hash
	}

	assert.Equal(t, []string{"aaa", "bbb", "ccc"}, hashes)
}

func TestSelectRecords_TieBrokenByHash(t *testing.T) {
	t.Parallel()

	at := day(1)
	raw := []Record{
		record("bbb", "alice", at),
		record("aaa", "alice", at),
	}

	first := selectRecords(raw, Options{})
	second := selectRecords([]Record{raw[1], raw[0]}, Options{})

	// Deterministic regardless of input order.
	assert.Equal(t, first, second)
	assert.Equal(t, "aaa", first[0].Hash)
	assert.Equal(t, "bbb", first[1].Hash)
}

func TestSelectRecords_DateRange(t *testing.T) {
	t.Parallel()

	raw := []Record{
		record("aaa", "alice", day(1)),
		record("bbb", "alice", day(5)),
		record("ccc", "alice", day(9)),
	}

	since := day(2)
	until := day(8)

	got := selectRecords(raw, Options{Since: &since, Until: &until})

	assert.Len(t, got, 1)
	assert.Equal(t, "bbb", got[0].Hash)
}

func TestSelectRecords_RangeBoundariesInclusive(t *testing.T) {
	t.Parallel()

	raw := []Record{
		record("aaa", "alice", day(2)),
		record("bbb", "alice", day(8)),
	}

	since := day(2)
	until := day(8)

	got := selectRecords(raw, Options{Since: &since, Until: &until})

	assert.Len(t, got, 2)
}

func TestSelectRecords_InvertedRangeIsEmptyNotError(t *testing.T) {
	t.Parallel()

	raw := []Record{record("aaa", "alice", day(5))}

	since := day(9)
	until := day(1)

	got := selectRecords(raw, Options{Since: &since, Until: &until})

	assert.Empty(t, got)
}

func TestSelectRecords_AuthorFilterCaseInsensitive(t *testing.T) {
	t.Parallel()

	raw := []Record{
		record("aaa", "Alice", day(1)),
		record("bbb", "bob", day(2)),
		record("ccc", "ALICE", day(3)),
	}

	got := selectRecords(raw, Options{Authors: []string{"alice"}})

	assert.Len(t, got, 2)

	for _, r := range got {
		assert.NotEqual(t, "bob", r.Author)
	}
}

func TestSelectRecords_Thinning(t *testing.T) {
	t.Parallel()

	// Three commits on day 1, one on day 3: daily thinning keeps the
	// newest of day 1 plus the day 3 commit.
	raw := []Record{
		record("a1", "alice", time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)),
		record("a2", "alice", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)),
		record("a3", "alice", time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC)),
		record("b1", "alice", time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)),
	}

	got := selectRecords(raw, Options{Step: 24 * time.Hour})

	hashes := make([]string, len(got))
	for i, r := range got {
		hashes[i] = r.Hash
	}

	assert.Equal(t, []string{"a3", "b1"}, hashes)
}

func TestSelectRecords_EmptyInput(t *testing.T) {
	t.Parallel()

	assert.Nil(t, selectRecords(nil, Options{}))
}
