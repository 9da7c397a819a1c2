// Package run orchestrates an analysis run: commit selection, cached
// snapshot counting over a bounded worker pool, and trend construction,
// with per-commit and per-repository failure isolation.
package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/gitloc/internal/counter"
	"github.com/Sumatoshi-tech/gitloc/internal/history"
	"github.com/Sumatoshi-tech/gitloc/internal/observability"
	"github.com/Sumatoshi-tech/gitloc/internal/snapshot"
	"github.com/Sumatoshi-tech/gitloc/internal/trend"
)

// ErrEmptyResult marks a repository whose selection matched no commits.
// It is a warning: the run continues and other repositories are unaffected.
var ErrEmptyResult = errors.New("no commits matched selection")

// DefaultWorkers bounds concurrent counting-tool invocations when the
// caller does not set a limit.
const DefaultWorkers = 4

// RepoSpec names one repository to analyze.
type RepoSpec struct {
	// Path is the local filesystem path of the repository.
	Path string

	// ID identifies the repository in output and cache keys.
	ID string

	// Branch is the branch whose history is sampled.
	Branch string

	// ExcludedDirs are per-repository exclusions, merged with the global
	// ones from Options.
	ExcludedDirs []string
}

// Options configure a run across all repositories.
type Options struct {
	Interval     trend.Interval
	Since        *time.Time
	Until        *time.Time
	Authors      []string
	Languages    []string
	ExcludedDirs []string

	// Workers bounds concurrent counting-tool invocations.
	Workers int

	// Thin samples at most one commit per interval instead of every commit.
	Thin bool

	// ToolTimeout bounds a single counting-tool invocation.
	ToolTimeout time.Duration
}

// RepoResult is the per-repository outcome.
type RepoResult struct {
	Spec      RepoSpec
	Snapshots []*snapshot.Snapshot
	Languages *trend.Table
	Authors   *trend.Table

	CacheHits   int
	CacheMisses int

	// CommitErrors are isolated per-commit failures; the affected
	// snapshots are simply absent.
	CommitErrors []error

	// Empty is set when the selection matched no commits.
	Empty bool
}

// Report is the outcome of a whole run.
type Report struct {
	Interval trend.Interval
	Results  []*RepoResult

	// Merged aligns every repository's total onto a shared axis, plus a
	// summed series. Nil for empty runs.
	Merged *trend.Table

	// RepoErrors are repositories that could not be analyzed at all.
	RepoErrors []error

	StartedAt  time.Time
	FinishedAt time.Time
}

// HasData reports whether any repository produced snapshots.
func (r *Report) HasData() bool {
	for _, result := range r.Results {
		if len(result.Snapshots) > 0 {
			return true
		}
	}

	return false
}

// snapshotter is the per-worker counting surface, satisfied by
// *counter.Snapshotter.
type snapshotter interface {
	Snapshot(ctx context.Context, record history.Record, languages, excludedDirs []string) (*snapshot.Snapshot, error)
	Close()
}

// Runner executes analysis runs. Zero-value fields fall back to defaults;
// Store and Metrics may be nil (uncached, unmetered).
type Runner struct {
	Store   *snapshot.Store
	Tool    counter.Tool
	Logger  *slog.Logger
	Metrics *observability.RunMetrics
	Tracer  trace.Tracer

	// selectCommits and newSnapshotter are swapped in tests.
	selectCommits  func(spec RepoSpec, opts history.Options) ([]history.Record, error)
	newSnapshotter func(path string, tool counter.Tool, timeout time.Duration) (snapshotter, error)
}

// NewRunner wires a Runner with the production selection and counting paths.
func NewRunner(store *snapshot.Store, tool counter.Tool, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		Store:  store,
		Tool:   tool,
		Logger: logger,
		selectCommits: func(spec RepoSpec, opts history.Options) ([]history.Record, error) {
			selector, err := history.NewSelector(spec.Path, spec.ID)
			if err != nil {
				return nil, err
			}
			defer selector.Close()

			return selector.Select(opts)
		},
		newSnapshotter: func(path string, tool counter.Tool, timeout time.Duration) (snapshotter, error) {
			snapper, err := counter.NewSnapshotter(path, tool)
			if err != nil {
				return nil, err
			}

			snapper.Timeout = timeout

			return snapper, nil
		},
	}
}

// Run analyzes every repository in specs. A repository that cannot be
// accessed is recorded in Report.RepoErrors and skipped; the run itself
// fails only when ctx is canceled.
func (r *Runner) Run(ctx context.Context, specs []RepoSpec, opts Options) (*Report, error) {
	report := &Report{
		Interval:  opts.Interval,
		StartedAt: time.Now().UTC(),
	}

	totals := make([]*trend.Table, 0, len(specs))

	for _, spec := range specs {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		result, err := r.analyzeRepo(ctx, spec, opts)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}

			r.logger().Error("repository skipped", "repository", spec.ID, "error", err)
			r.Metrics.RecordError(ctx, spec.ID, "repository_access")

			report.RepoErrors = append(report.RepoErrors, fmt.Errorf("%s: %w", spec.ID, err))

			continue
		}

		report.Results = append(report.Results, result)
		totals = append(totals, trend.TotalSeries(result.Languages, spec.ID))
	}

	merged, err := trend.Merge(totals, opts.Interval, true)
	if err != nil {
		return nil, err
	}

	report.Merged = merged
	report.FinishedAt = time.Now().UTC()

	return report, nil
}

func (r *Runner) analyzeRepo(ctx context.Context, spec RepoSpec, opts Options) (*RepoResult, error) {
	if r.Tracer != nil {
		var span trace.Span

		ctx, span = r.Tracer.Start(ctx, "repository.analyze",
			trace.WithAttributes(attribute.String("repository", spec.ID)))
		defer span.End()
	}

	histOpts := history.Options{
		Branch:  spec.Branch,
		Since:   opts.Since,
		Until:   opts.Until,
		Authors: opts.Authors,
	}

	if opts.Thin {
		histOpts.Step = opts.Interval.Step()
	}

	records, err := r.selectCommits(spec, histOpts)
	if err != nil {
		return nil, err
	}

	result := &RepoResult{Spec: spec}

	languages := counter.CanonicalLanguages(opts.Languages)
	excluded := snapshot.NormalizeDirs(append(append([]string{}, opts.ExcludedDirs...), spec.ExcludedDirs...))

	if len(records) == 0 {
		result.Empty = true
		result.Languages = trend.NewTable(opts.Interval)
		result.Authors = trend.NewTable(opts.Interval)

		r.logger().Warn("repository produced no data", "repository", spec.ID, "error", ErrEmptyResult)

		return result, nil
	}

	snapshots, stats, err := r.snapshotAll(ctx, spec, records, languages, excluded, opts)
	if err != nil {
		return nil, err
	}

	result.Snapshots = snapshots
	result.CacheHits = stats.hits
	result.CacheMisses = stats.misses
	result.CommitErrors = stats.errors

	if len(snapshots) == 0 {
		result.Empty = true
		r.logger().Warn("repository produced no data", "repository", spec.ID, "error", ErrEmptyResult)
	}

	runEnd := r.runEnd(opts, snapshots)
	result.Languages = trend.BuildLanguages(snapshots, opts.Interval, runEnd)
	result.Authors = trend.BuildAuthors(snapshots, opts.Interval, runEnd)

	return result, nil
}

type poolStats struct {
	hits   int
	misses int
	errors []error
}

// snapshotAll resolves every record to a snapshot, consulting the cache
// first and fanning misses out over a bounded worker pool. Per-commit
// failures are collected, never propagated; only context cancellation
// aborts the pool.
func (r *Runner) snapshotAll(
	ctx context.Context,
	spec RepoSpec,
	records []history.Record,
	languages, excluded []string,
	opts Options,
) ([]*snapshot.Snapshot, poolStats, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	if workers > len(records) {
		workers = len(records)
	}

	pool := make(chan snapshotter, workers)

	for range workers {
		snapper, err := r.newSnapshotter(spec.Path, r.Tool, opts.ToolTimeout)
		if err != nil {
			close(pool)
			drainPool(pool)

			return nil, poolStats{}, err
		}

		pool <- snapper
	}

	defer func() {
		close(pool)
		drainPool(pool)
	}()

	results := make([]*snapshot.Snapshot, len(records))

	var (
		mu    sync.Mutex
		stats poolStats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, record := range records {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			// Key on the canonicalized filter so alias spellings of the
			// same languages share cache entries.
			key := snapshot.NewKey(spec.ID, record.Hash, languages, excluded)

			if cached, ok := r.cacheGet(gctx, spec.ID, key); ok {
				results[i] = cached

				mu.Lock()
				stats.hits++
				mu.Unlock()

				return nil
			}

			mu.Lock()
			stats.misses++
			mu.Unlock()

			snapper := <-pool
			defer func() { pool <- snapper }()

			started := time.Now()

			snap, err := snapper.Snapshot(gctx, record, languages, excluded)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}

				r.logger().Error("commit skipped",
					"repository", spec.ID, "commit", record.Hash, "error", err)
				r.Metrics.RecordError(gctx, spec.ID, "counting_tool")

				mu.Lock()
				stats.errors = append(stats.errors, fmt.Errorf("commit %s: %w", record.Hash, err))
				mu.Unlock()

				return nil
			}

			r.Metrics.RecordCount(gctx, spec.ID, time.Since(started))
			r.cachePut(gctx, spec.ID, key, snap)

			results[i] = snap

			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return nil, poolStats{}, err
	}

	// Failed commits leave gaps; compact to the snapshots that exist,
	// preserving chronological order.
	snapshots := make([]*snapshot.Snapshot, 0, len(results))

	for _, snap := range results {
		if snap != nil {
			snapshots = append(snapshots, snap)
		}
	}

	return snapshots, stats, nil
}

// cacheGet consults the store, degrading cache IO errors to a miss.
func (r *Runner) cacheGet(ctx context.Context, repositoryID string, key snapshot.Key) (*snapshot.Snapshot, bool) {
	if r.Store == nil {
		return nil, false
	}

	snap, found, err := r.Store.Get(key)
	if err != nil {
		r.logger().Warn("cache read failed, recomputing", "repository", repositoryID, "error", err)
		r.Metrics.RecordError(ctx, repositoryID, "cache_io")

		return nil, false
	}

	if found {
		r.Metrics.RecordCacheHit(ctx, repositoryID)

		return snap, true
	}

	r.Metrics.RecordCacheMiss(ctx, repositoryID)

	return nil, false
}

// cachePut stores a fresh snapshot; failures degrade to uncached operation.
func (r *Runner) cachePut(ctx context.Context, repositoryID string, key snapshot.Key, snap *snapshot.Snapshot) {
	if r.Store == nil {
		return
	}

	err := r.Store.Put(key, snap)
	if err != nil {
		r.logger().Warn("cache write failed", "repository", repositoryID, "error", err)
		r.Metrics.RecordError(ctx, repositoryID, "cache_io")
	}
}

// runEnd is the timestamp trends are forward-filled through: the explicit
// until bound when set, otherwise the newest snapshot.
func (r *Runner) runEnd(opts Options, snapshots []*snapshot.Snapshot) time.Time {
	if opts.Until != nil {
		return *opts.Until
	}

	end := time.Time{}

	for _, snap := range snapshots {
		if snap.AuthoredAt.After(end) {
			end = snap.AuthoredAt
		}
	}

	return end
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}

	return slog.Default()
}

func drainPool(pool chan snapshotter) {
	for snapper := range pool {
		snapper.Close()
	}
}
