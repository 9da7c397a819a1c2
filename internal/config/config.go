// Package config defines gitloc's configuration surface: the top-level
// Config loaded from file, environment and flags, plus the repository
// manifest.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/Sumatoshi-tech/gitloc/internal/trend"
)

// Config is the top-level configuration struct for gitloc.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Repos     []RepoConfig    `mapstructure:"repos"`
	Run       RunConfig       `mapstructure:"run"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Output    OutputConfig    `mapstructure:"output"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// RepoConfig names one repository to analyze.
type RepoConfig struct {
	Path        string   `mapstructure:"path"`
	ID          string   `mapstructure:"id"`
	Branch      string   `mapstructure:"branch"`
	ExcludeDirs []string `mapstructure:"exclude_dirs"`
}

// RunConfig holds selection and counting knobs.
type RunConfig struct {
	Interval    string   `mapstructure:"interval"`
	Since       string   `mapstructure:"since"`
	Until       string   `mapstructure:"until"`
	Authors     []string `mapstructure:"authors"`
	Languages   []string `mapstructure:"languages"`
	ExcludeDirs []string `mapstructure:"exclude_dirs"`
	Workers     int      `mapstructure:"workers"`
	Thin        bool     `mapstructure:"thin"`
	Tool        string   `mapstructure:"tool"`
	ClocBinary  string   `mapstructure:"cloc_binary"`
	ToolTimeout string   `mapstructure:"tool_timeout"`
}

// CacheConfig holds snapshot cache settings.
type CacheConfig struct {
	Dir      string `mapstructure:"dir"`
	Disabled bool   `mapstructure:"disabled"`
}

// OutputConfig holds report output settings.
type OutputConfig struct {
	Dir     string `mapstructure:"dir"`
	CSV     bool   `mapstructure:"csv"`
	HTML    bool   `mapstructure:"html"`
	Quiet   bool   `mapstructure:"quiet"`
	NoColor bool   `mapstructure:"no_color"`
}

// TelemetryConfig holds observability settings.
type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
	LogJSON      bool   `mapstructure:"log_json"`
	LogLevel     string `mapstructure:"log_level"`
	MetricsAddr  string `mapstructure:"metrics_addr"`
}

// dateLayout is the accepted format for since/until bounds.
const dateLayout = "2006-01-02"

// Counting tool selectors.
const (
	ToolAuto    = "auto"
	ToolCloc    = "cloc"
	ToolBuiltin = "builtin"
)

// Sentinel errors for configuration validation.
var (
	// ErrInvalidWorkers indicates the workers value is negative.
	ErrInvalidWorkers = errors.New("run.workers must be non-negative")
	// ErrInvalidDate indicates a since/until bound is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("date must be in YYYY-MM-DD format")
	// ErrInvalidDateRange indicates since is after until.
	ErrInvalidDateRange = errors.New("run.since must not be after run.until")
	// ErrInvalidTool indicates an unknown counting tool selector.
	ErrInvalidTool = errors.New("run.tool must be auto, cloc or builtin")
	// ErrInvalidToolTimeout indicates the tool timeout cannot be parsed.
	ErrInvalidToolTimeout = errors.New("run.tool_timeout must be a positive duration")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	_, err := trend.ParseInterval(c.Run.Interval)
	if err != nil {
		return err
	}

	if c.Run.Workers < 0 {
		return ErrInvalidWorkers
	}

	since, err := c.SinceTime()
	if err != nil {
		return err
	}

	until, err := c.UntilTime()
	if err != nil {
		return err
	}

	if since != nil && until != nil && since.After(*until) {
		return ErrInvalidDateRange
	}

	switch c.Run.Tool {
	case ToolAuto, ToolCloc, ToolBuiltin:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidTool, c.Run.Tool)
	}

	if c.Run.ToolTimeout != "" {
		timeout, timeoutErr := time.ParseDuration(c.Run.ToolTimeout)
		if timeoutErr != nil || timeout <= 0 {
			return fmt.Errorf("%w: %q", ErrInvalidToolTimeout, c.Run.ToolTimeout)
		}
	}

	return nil
}

// Interval returns the parsed resampling interval. Call Validate first.
func (c *Config) Interval() trend.Interval {
	interval, err := trend.ParseInterval(c.Run.Interval)
	if err != nil {
		return trend.Monthly
	}

	return interval
}

// SinceTime parses the lower date bound, nil when unset. The bound starts
// at midnight UTC.
func (c *Config) SinceTime() (*time.Time, error) {
	return parseDate(c.Run.Since, 0)
}

// UntilTime parses the upper date bound, nil when unset. The bound extends
// through the end of the named day.
func (c *Config) UntilTime() (*time.Time, error) {
	return parseDate(c.Run.Until, 24*time.Hour-time.Nanosecond)
}

// ToolTimeoutDuration returns the parsed tool timeout, zero when unset.
func (c *Config) ToolTimeoutDuration() time.Duration {
	if c.Run.ToolTimeout == "" {
		return 0
	}

	timeout, err := time.ParseDuration(c.Run.ToolTimeout)
	if err != nil {
		return 0
	}

	return timeout
}

func parseDate(value string, offset time.Duration) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	parsed, err := time.ParseInLocation(dateLayout, value, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}

	parsed = parsed.Add(offset)

	return &parsed, nil
}
