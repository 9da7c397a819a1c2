// Package history selects the commits to sample from a repository branch.
package history

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Sumatoshi-tech/gitloc/pkg/gitlib"
)

// ErrRepositoryAccess indicates the repository path or branch is
// unreachable. Fatal for that repository, non-fatal for a multi-repo run.
var ErrRepositoryAccess = errors.New("repository access failed")

// Record is an immutable commit record selected for sampling.
type Record struct {
	Hash         string
	Author       string
	AuthorEmail  string
	AuthoredAt   time.Time
	RepositoryID string
	Branch       string
}

// Options filter and thin the commit selection.
type Options struct {
	Branch  string
	Since   *time.Time
	Until   *time.Time
	Authors []string

	// Step keeps only the newest commit per step of history (one sample
	// per day/week/month). Zero samples every qualifying commit.
	Step time.Duration
}

// Selector walks a repository's history and yields ordered commit records.
type Selector struct {
	repo         *gitlib.Repository
	repositoryID string
}

// NewSelector opens the repository at path.
func NewSelector(path, repositoryID string) (*Selector, error) {
	repo, err := gitlib.OpenRepository(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRepositoryAccess, path, err)
	}

	return &Selector{repo: repo, repositoryID: repositoryID}, nil
}

// Close releases the underlying repository.
func (s *Selector) Close() {
	if s.repo != nil {
		s.repo.Free()
		s.repo = nil
	}
}

// Select returns the qualifying commits in chronological order, ties broken
// by hash. An empty result is valid and means "no data", not an error.
// Two runs over an unchanged repository yield identical sequences.
func (s *Selector) Select(opts Options) ([]Record, error) {
	head, err := s.repo.BranchHead(opts.Branch)
	if err != nil {
		return nil, fmt.Errorf("%w: branch %q: %w", ErrRepositoryAccess, opts.Branch, err)
	}

	iter, err := s.repo.Log(head)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRepositoryAccess, err)
	}
	defer iter.Close()

	var raw []Record

	walkErr := iter.ForEach(func(commit *gitlib.Commit) error {
		author := commit.Author()

		raw = append(raw, Record{
			Hash:         commit.Hash().String(),
			Author:       author.Name,
			AuthorEmail:  author.Email,
			AuthoredAt:   author.When.UTC(),
			RepositoryID: s.repositoryID,
			Branch:       opts.Branch,
		})

		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrRepositoryAccess, walkErr)
	}

	return selectRecords(raw, opts), nil
}

// selectRecords applies date, author and thinning filters to raw records
// (any input order) and returns them chronologically ascending.
func selectRecords(raw []Record, opts Options) []Record {
	authors := authorSet(opts.Authors)

	filtered := make([]Record, 0, len(raw))

	for _, record := range raw {
		if opts.Since != nil && record.AuthoredAt.Before(*opts.Since) {
			continue
		}

		if opts.Until != nil && record.AuthoredAt.After(*opts.Until) {
			continue
		}

		if authors != nil {
			if _, ok := authors[strings.ToLower(record.Author)]; !ok {
				continue
			}
		}

		filtered = append(filtered, record)
	}

	// Newest first for thinning, which keeps the newest commit per step.
	sort.Slice(filtered, func(i, j int) bool {
		if !filtered[i].AuthoredAt.Equal(filtered[j].AuthoredAt) {
			return filtered[i].AuthoredAt.After(filtered[j].AuthoredAt)
		}

		return filtered[i].Hash > filtered[j].Hash
	})

	if opts.Step > 0 {
		filtered = thin(filtered, opts.Step)
	}

	// Chronological ascending for all downstream consumers.
	for i, j := 0, len(filtered)-1; i < j; i, j = i+1, j-1 {
		filtered[i], filtered[j] = filtered[j], filtered[i]
	}

	if len(filtered) == 0 {
		return nil
	}

	return filtered
}

// thin walks newest-to-oldest and keeps a commit only when it is at least
// one step older than the previously kept one.
func thin(newestFirst []Record, step time.Duration) []Record {
	kept := make([]Record, 0, len(newestFirst))

	var lastKept time.Time

	for _, record := range newestFirst {
		if len(kept) == 0 || !record.AuthoredAt.After(lastKept.Add(-step)) {
			kept = append(kept, record)
			lastKept = record.AuthoredAt
		}
	}

	return kept
}

func authorSet(authors []string) map[string]struct{} {
	if len(authors) == 0 {
		return nil
	}

	set := make(map[string]struct{}, len(authors))

	for _, author := range authors {
		name := strings.ToLower(strings.TrimSpace(author))
		if name != "" {
			set[name] = struct{}{}
		}
	}

	if len(set) == 0 {
		return nil
	}

	return set
}
