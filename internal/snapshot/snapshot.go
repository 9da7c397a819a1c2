// Package snapshot defines the per-commit line-count observation and its
// durable, filter-keyed cache.
package snapshot

import (
	"sort"
	"time"
)

// LanguageCount holds the counter tool's totals for a single language.
type LanguageCount struct {
	Code    int `json:"code"`
	Comment int `json:"comment"`
	Blank   int `json:"blank"`
	Files   int `json:"files"`
}

// Snapshot is the per-language line-count observation at one specific
// commit under a specific language/exclusion filter. It is immutable once
// created; a changed filter produces a new snapshot, not an update.
type Snapshot struct {
	RepositoryID   string                   `json:"repository_id"`
	CommitHash     string                   `json:"commit_hash"`
	Author         string                   `json:"author"`
	AuthoredAt     time.Time                `json:"authored_at"`
	Languages      map[string]LanguageCount `json:"languages"`
	LanguageFilter []string                 `json:"language_filter,omitempty"`
	ExcludedDirs   []string                 `json:"excluded_dirs,omitempty"`
}

// TotalCode returns the code-line total across all languages.
func (s *Snapshot) TotalCode() int {
	total := 0

	for _, count := range s.Languages {
		total += count.Code
	}

	return total
}

// LanguageNames returns the snapshot's languages in sorted order.
func (s *Snapshot) LanguageNames() []string {
	names := make([]string, 0, len(s.Languages))

	for name := range s.Languages {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
