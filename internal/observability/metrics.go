package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricCommitsTotal     = "gitloc.commits.total"
	metricCountDuration    = "gitloc.count.duration.seconds"
	metricCacheHitsTotal   = "gitloc.cache.hits.total"
	metricCacheMissesTotal = "gitloc.cache.misses.total"
	metricErrorsTotal      = "gitloc.errors.total"

	attrRepository = "repository"
	attrKind       = "kind"
)

// countDurationBoundaries covers fast builtin counts through multi-minute
// cloc invocations on large trees.
var countDurationBoundaries = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}

// RunMetrics holds the OTel instruments recorded during an analysis run.
// All methods are safe on a nil receiver.
type RunMetrics struct {
	commitsTotal  metric.Int64Counter
	countDuration metric.Float64Histogram
	cacheHits     metric.Int64Counter
	cacheMisses   metric.Int64Counter
	errorsTotal   metric.Int64Counter
}

// NewRunMetrics creates the run metric instruments from the given meter.
func NewRunMetrics(mt metric.Meter) (*RunMetrics, error) {
	b := newMetricBuilder(mt)

	rm := &RunMetrics{
		commitsTotal:  b.counter(metricCommitsTotal, "Total commits snapshotted", "{commit}"),
		countDuration: b.histogram(metricCountDuration, "Counting tool invocation duration in seconds", "s", countDurationBoundaries...),
		cacheHits:     b.counter(metricCacheHitsTotal, "Snapshot cache hits", "{hit}"),
		cacheMisses:   b.counter(metricCacheMissesTotal, "Snapshot cache misses", "{miss}"),
		errorsTotal:   b.counter(metricErrorsTotal, "Non-fatal errors by kind", "{error}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return rm, nil
}

// RecordCount records one completed counting-tool invocation.
func (rm *RunMetrics) RecordCount(ctx context.Context, repository string, duration time.Duration) {
	if rm == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrRepository, repository))

	rm.commitsTotal.Add(ctx, 1, attrs)
	rm.countDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordCacheHit records a snapshot served from the cache.
func (rm *RunMetrics) RecordCacheHit(ctx context.Context, repository string) {
	if rm == nil {
		return
	}

	rm.cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String(attrRepository, repository)))
}

// RecordCacheMiss records a snapshot that had to be recomputed.
func (rm *RunMetrics) RecordCacheMiss(ctx context.Context, repository string) {
	if rm == nil {
		return
	}

	rm.cacheMisses.Add(ctx, 1, metric.WithAttributes(attribute.String(attrRepository, repository)))
}

// RecordError records a non-fatal error of the given kind.
func (rm *RunMetrics) RecordError(ctx context.Context, repository, kind string) {
	if rm == nil {
		return
	}

	rm.errorsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrRepository, repository),
		attribute.String(attrKind, kind),
	))
}

// metricBuilder accumulates OTel instrument creation errors,
// enabling batch construction with a single error check.
type metricBuilder struct {
	meter metric.Meter
	err   error
}

func newMetricBuilder(mt metric.Meter) *metricBuilder {
	return &metricBuilder{meter: mt}
}

func (b *metricBuilder) counter(name, desc, unit string) metric.Int64Counter {
	c, err := b.meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	b.setErr(name, err)

	return c
}

func (b *metricBuilder) histogram(name, desc, unit string, bounds ...float64) metric.Float64Histogram {
	opts := []metric.Float64HistogramOption{
		metric.WithDescription(desc),
		metric.WithUnit(unit),
	}

	if len(bounds) > 0 {
		opts = append(opts, metric.WithExplicitBucketBoundaries(bounds...))
	}

	h, err := b.meter.Float64Histogram(name, opts...)
	b.setErr(name, err)

	return h
}

// setErr records the first instrument creation error.
func (b *metricBuilder) setErr(name string, err error) {
	if err != nil && b.err == nil {
		b.err = fmt.Errorf("create %s: %w", name, err)
	}
}
