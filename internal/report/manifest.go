package report

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/gitloc/internal/run"
)

// Manifest summarizes a completed run for machine consumption, written
// alongside the CSV and chart outputs.
type Manifest struct {
	GeneratedAt time.Time      `yaml:"generated_at"`
	Interval    string         `yaml:"interval"`
	Duration    string         `yaml:"duration"`
	Repos       []ManifestRepo `yaml:"repos"`
	Errors      []string       `yaml:"errors,omitempty"`
}

// ManifestRepo is the per-repository entry in the manifest.
type ManifestRepo struct {
	ID          string   `yaml:"id"`
	Branch      string   `yaml:"branch"`
	Commits     int      `yaml:"commits"`
	CacheHits   int      `yaml:"cache_hits"`
	CacheMisses int      `yaml:"cache_misses"`
	Empty       bool     `yaml:"empty,omitempty"`
	Warnings    []string `yaml:"warnings,omitempty"`
}

// NewManifest builds a Manifest from a run report.
func NewManifest(report *run.Report) *Manifest {
	m := &Manifest{
		GeneratedAt: report.FinishedAt,
		Interval:    string(report.Interval),
		Duration:    report.FinishedAt.Sub(report.StartedAt).Round(durationRound).String(),
	}

	for _, result := range report.Results {
		entry := ManifestRepo{
			ID:          result.Spec.ID,
			Branch:      result.Spec.Branch,
			Commits:     len(result.Snapshots),
			CacheHits:   result.CacheHits,
			CacheMisses: result.CacheMisses,
			Empty:       result.Empty,
		}

		for _, err := range result.CommitErrors {
			entry.Warnings = append(entry.Warnings, err.Error())
		}

		m.Repos = append(m.Repos, entry)
	}

	for _, err := range report.RepoErrors {
		m.Errors = append(m.Errors, err.Error())
	}

	return m
}

// WriteManifest writes the manifest as YAML to path.
func WriteManifest(path string, report *run.Report) error {
	data, err := yaml.Marshal(NewManifest(report))
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	writeErr := os.WriteFile(path, data, 0o644)
	if writeErr != nil {
		return fmt.Errorf("write %s: %w", path, writeErr)
	}

	return nil
}
