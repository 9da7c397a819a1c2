// Package counter produces per-language line counts for a materialized
// repository snapshot, either via the external cloc tool or a built-in
// enry-based fallback.
package counter

import (
	"context"
	"errors"

	"github.com/Sumatoshi-tech/gitloc/internal/snapshot"
)

// ErrCountingTool indicates the counting tool is missing, exited non-zero,
// timed out, or produced unparseable output. The affected commit's snapshot
// is omitted; it is never fabricated as zero.
var ErrCountingTool = errors.New("counting tool failed")

// Tool counts lines of code under root, returning one entry per language.
// Implementations must be safe for concurrent use with distinct roots.
type Tool interface {
	// Name identifies the tool in logs and error reports.
	Name() string
	// Count runs the tool over root. languages is the normalized,
	// canonicalized allow-list; empty means all languages.
	Count(ctx context.Context, root string, languages []string) (map[string]snapshot.LanguageCount, error)
}
