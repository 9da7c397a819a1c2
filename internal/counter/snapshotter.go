package counter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Sumatoshi-tech/gitloc/internal/history"
	"github.com/Sumatoshi-tech/gitloc/internal/snapshot"
	"github.com/Sumatoshi-tech/gitloc/pkg/gitlib"
)

// DefaultTimeout bounds a single counting-tool invocation.
const DefaultTimeout = 5 * time.Minute

// Snapshotter materializes a commit's tree into a scratch directory, prunes
// excluded directories, runs the counting tool over it, and always removes
// the scratch directory afterwards. The working tree of the source
// repository is never touched.
type Snapshotter struct {
	repo *gitlib.Repository
	tool Tool

	// Timeout bounds each tool invocation; zero means DefaultTimeout.
	Timeout time.Duration
}

// NewSnapshotter opens its own handle on the repository at path so that
// concurrent snapshotters never share libgit2 state.
func NewSnapshotter(path string, tool Tool) (*Snapshotter, error) {
	repo, err := gitlib.OpenRepository(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", history.ErrRepositoryAccess, path, err)
	}

	return &Snapshotter{repo: repo, tool: tool}, nil
}

// Close releases the repository handle.
func (s *Snapshotter) Close() {
	if s.repo != nil {
		s.repo.Free()
		s.repo = nil
	}
}

// Snapshot counts the commit named by record. languages and excludedDirs
// must already be normalized (see snapshot.NewKey); languages additionally
// canonicalized via CanonicalLanguages. A commit with no matching files
// yields a valid zero snapshot, not an error.
func (s *Snapshotter) Snapshot(ctx context.Context, record history.Record, languages, excludedDirs []string) (*snapshot.Snapshot, error) {
	scratch, err := os.MkdirTemp("", "gitloc-checkout-*")
	if err != nil {
		return nil, fmt.Errorf("%w: scratch dir: %w", ErrCountingTool, err)
	}
	defer os.RemoveAll(scratch)

	checkoutErr := s.repo.CheckoutTreeTo(gitlib.NewHash(record.Hash), scratch)
	if checkoutErr != nil {
		return nil, fmt.Errorf("%w: checkout %s: %w", history.ErrRepositoryAccess, record.Hash, checkoutErr)
	}

	// Pruning before counting makes exclusion tool-agnostic: cloc and the
	// builtin counter see the same tree.
	pruneErr := pruneExcluded(scratch, excludedDirs)
	if pruneErr != nil {
		return nil, fmt.Errorf("%w: prune: %w", ErrCountingTool, pruneErr)
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	toolCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	counts, countErr := s.tool.Count(toolCtx, scratch, languages)
	if countErr != nil {
		return nil, countErr
	}

	return &snapshot.Snapshot{
		RepositoryID:   record.RepositoryID,
		CommitHash:     record.Hash,
		Author:         record.Author,
		AuthoredAt:     record.AuthoredAt,
		Languages:      counts,
		LanguageFilter: languages,
		ExcludedDirs:   excludedDirs,
	}, nil
}

// pruneExcluded removes each excluded directory from the materialized tree.
// Entries are slash-separated paths relative to the repository root.
func pruneExcluded(root string, excludedDirs []string) error {
	for _, dir := range excludedDirs {
		target := filepath.Join(root, filepath.FromSlash(dir))

		rel, err := filepath.Rel(root, target)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			// Never step outside the scratch tree.
			continue
		}

		removeErr := os.RemoveAll(target)
		if removeErr != nil {
			return removeErr
		}
	}

	return nil
}
