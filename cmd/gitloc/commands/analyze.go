// Package commands implements CLI command handlers for gitloc.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/gitloc/internal/config"
	"github.com/Sumatoshi-tech/gitloc/internal/counter"
	"github.com/Sumatoshi-tech/gitloc/internal/observability"
	"github.com/Sumatoshi-tech/gitloc/internal/plotpage"
	"github.com/Sumatoshi-tech/gitloc/internal/report"
	"github.com/Sumatoshi-tech/gitloc/internal/run"
	"github.com/Sumatoshi-tech/gitloc/internal/snapshot"
)

// Sentinel errors for the analyze command.
var (
	// ErrNoRepositories is returned when neither arguments, manifest nor
	// config name any repository.
	ErrNoRepositories = errors.New(
		"no repositories given. Pass paths (path or path#branch), --manifest, or list repos in the config file")
	// ErrAllRepositoriesFailed is returned when every repository was
	// inaccessible.
	ErrAllRepositoriesFailed = errors.New("all repositories failed")
)

// AnalyzeCommand holds the configuration for the analyze command.
type AnalyzeCommand struct {
	configPath string
	manifest   string

	interval    string
	since       string
	until       string
	languages   []string
	authors     []string
	excludeDirs []string
	workers     int
	allCommits  bool
	tool        string
	clocBinary  string

	cacheDir   string
	noCache    bool
	clearCache bool

	outputDir string
	noCSV     bool
	noHTML    bool
	quiet     bool
	noColor   bool
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	ac := &AnalyzeCommand{}

	cobraCmd := &cobra.Command{
		Use:   "analyze [repository...]",
		Short: "Analyze LOC trends across repository history",
		Long: `Analyze samples commits from each repository's history, counts lines
of code per language at each sample, and writes trend tables, CSV files
and an HTML chart report.

Repositories are given as local paths, optionally with a branch:

  gitloc analyze /src/myrepo /src/other#develop`,
		RunE: ac.execute,
	}

	flags := cobraCmd.Flags()

	flags.StringVarP(&ac.configPath, "config", "c", "", "config file (default .gitloc.yaml in CWD or $HOME)")
	flags.StringVar(&ac.manifest, "manifest", "", "YAML manifest listing repositories")

	flags.StringVarP(&ac.interval, "interval", "i", config.DefaultInterval, "resampling interval: daily, weekly or monthly")
	flags.StringVar(&ac.since, "since", "", "only consider commits authored on or after this date (YYYY-MM-DD)")
	flags.StringVar(&ac.until, "until", "", "only consider commits authored on or before this date (YYYY-MM-DD)")
	flags.StringSliceVarP(&ac.languages, "lang", "l", nil, "restrict counting to these languages")
	flags.StringSliceVar(&ac.authors, "author", nil, "only consider commits by these authors")
	flags.StringSliceVar(&ac.excludeDirs, "exclude-dirs", nil, "directories to exclude from counting")
	flags.IntVarP(&ac.workers, "workers", "w", config.DefaultWorkers, "max concurrent counting invocations")
	flags.BoolVar(&ac.allCommits, "all-commits", false, "count every qualifying commit instead of one per interval")
	flags.StringVar(&ac.tool, "tool", config.DefaultTool, "counting tool: auto, cloc or builtin")
	flags.StringVar(&ac.clocBinary, "cloc-binary", "", "cloc executable to invoke")

	flags.StringVar(&ac.cacheDir, "cache-dir", config.DefaultCacheDir, "snapshot cache directory")
	flags.BoolVar(&ac.noCache, "no-cache", false, "disable the snapshot cache")
	flags.BoolVar(&ac.clearCache, "clear-cache", false, "clear the snapshot cache before running")

	flags.StringVarP(&ac.outputDir, "output", "o", config.DefaultOutputDir, "output directory")
	flags.BoolVar(&ac.noCSV, "no-csv", false, "skip CSV output")
	flags.BoolVar(&ac.noHTML, "no-html", false, "skip the HTML chart report")
	flags.BoolVarP(&ac.quiet, "quiet", "q", false, "suppress console tables")
	flags.BoolVar(&ac.noColor, "no-color", false, "disable colored output")

	return cobraCmd
}

func (ac *AnalyzeCommand) execute(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(ac.configPath)
	if err != nil {
		return err
	}

	ac.applyOverrides(cmd, cfg)

	validateErr := cfg.Validate()
	if validateErr != nil {
		return validateErr
	}

	repos, err := ac.resolveRepos(args, cfg)
	if err != nil {
		return err
	}

	providers, err := observability.Init(observability.Config{
		ServiceName:  "gitloc",
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure: cfg.Telemetry.OTLPInsecure,
		LogLevel:     parseLogLevel(cfg.Telemetry.LogLevel),
		LogJSON:      cfg.Telemetry.LogJSON,
		MetricsAddr:  cfg.Telemetry.MetricsAddr,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer func() {
		shutdownErr := providers.Shutdown(context.Background())
		if shutdownErr != nil {
			providers.Logger.Warn("telemetry shutdown failed", "error", shutdownErr)
		}
	}()

	if cfg.Telemetry.MetricsAddr != "" {
		diag, diagErr := observability.NewDiagnosticsServer(cfg.Telemetry.MetricsAddr, providers.MetricsHandler)
		if diagErr != nil {
			return diagErr
		}
		defer diag.Close()

		providers.Logger.Info("diagnostics listening", "addr", diag.Addr())
	}

	metrics, err := observability.NewRunMetrics(providers.Meter)
	if err != nil {
		return err
	}

	store, err := ac.openStore(cfg, providers.Logger)
	if err != nil {
		return err
	}

	if store != nil {
		defer store.Close()
	}

	runner := run.NewRunner(store, selectTool(cfg, providers.Logger), providers.Logger)
	runner.Metrics = metrics
	runner.Tracer = providers.Tracer

	opts, err := runOptions(cfg)
	if err != nil {
		return err
	}

	result, err := runner.Run(ctx, repoSpecs(repos), opts)
	if err != nil {
		return err
	}

	writeErr := ac.writeOutputs(cfg, result)
	if writeErr != nil {
		return writeErr
	}

	if len(result.Results) == 0 && len(result.RepoErrors) > 0 {
		return ErrAllRepositoriesFailed
	}

	return nil
}

// applyOverrides copies explicitly set flags over the loaded config, so
// precedence is flags > environment > file > defaults.
func (ac *AnalyzeCommand) applyOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("interval") {
		cfg.Run.Interval = ac.interval
	}

	if flags.Changed("since") {
		cfg.Run.Since = ac.since
	}

	if flags.Changed("until") {
		cfg.Run.Until = ac.until
	}

	if flags.Changed("lang") {
		cfg.Run.Languages = ac.languages
	}

	if flags.Changed("author") {
		cfg.Run.Authors = ac.authors
	}

	if flags.Changed("exclude-dirs") {
		cfg.Run.ExcludeDirs = ac.excludeDirs
	}

	if flags.Changed("workers") {
		cfg.Run.Workers = ac.workers
	}

	if flags.Changed("all-commits") {
		cfg.Run.Thin = !ac.allCommits
	}

	if flags.Changed("tool") {
		cfg.Run.Tool = ac.tool
	}

	if flags.Changed("cloc-binary") {
		cfg.Run.ClocBinary = ac.clocBinary
	}

	if flags.Changed("cache-dir") {
		cfg.Cache.Dir = ac.cacheDir
	}

	if flags.Changed("no-cache") {
		cfg.Cache.Disabled = ac.noCache
	}

	if flags.Changed("output") {
		cfg.Output.Dir = ac.outputDir
	}

	if flags.Changed("no-csv") {
		cfg.Output.CSV = !ac.noCSV
	}

	if flags.Changed("no-html") {
		cfg.Output.HTML = !ac.noHTML
	}

	if flags.Changed("quiet") {
		cfg.Output.Quiet = ac.quiet
	}

	if flags.Changed("no-color") {
		cfg.Output.NoColor = ac.noColor
	}
}

// resolveRepos collects repositories from, in order of precedence,
// positional arguments, the manifest file, and the config file.
func (ac *AnalyzeCommand) resolveRepos(args []string, cfg *config.Config) ([]config.RepoConfig, error) {
	if len(args) > 0 {
		repos := make([]config.RepoConfig, 0, len(args))
		for _, arg := range args {
			repos = append(repos, config.ParseRepoArg(arg))
		}

		return config.DedupeRepoIDs(repos), nil
	}

	if ac.manifest != "" {
		repos, err := config.LoadManifest(ac.manifest)
		if err != nil {
			return nil, err
		}

		return config.DedupeRepoIDs(repos), nil
	}

	if len(cfg.Repos) > 0 {
		return config.DedupeRepoIDs(cfg.Repos), nil
	}

	return nil, ErrNoRepositories
}

func (ac *AnalyzeCommand) openStore(cfg *config.Config, logger *slog.Logger) (*snapshot.Store, error) {
	if cfg.Cache.Disabled {
		return nil, nil
	}

	store, err := snapshot.NewStore(cfg.Cache.Dir)
	if err != nil {
		return nil, err
	}

	if ac.clearCache {
		clearErr := store.Clear()
		if clearErr != nil {
			return nil, clearErr
		}

		logger.Info("snapshot cache cleared", "dir", cfg.Cache.Dir)
	}

	return store, nil
}

func (ac *AnalyzeCommand) writeOutputs(cfg *config.Config, result *run.Report) error {
	printer := &report.Printer{Out: os.Stdout, Quiet: cfg.Output.Quiet, NoColor: cfg.Output.NoColor}

	printer.PrintSummary(result)

	for _, repoResult := range result.Results {
		printer.PrintTrend("Lines of code: "+repoResult.Spec.ID, repoResult.Languages)
	}

	if len(result.Results) > 1 {
		printer.PrintTrend("All repositories", result.Merged)
	}

	mkdirErr := os.MkdirAll(cfg.Output.Dir, 0o755)
	if mkdirErr != nil {
		return fmt.Errorf("create output dir: %w", mkdirErr)
	}

	if cfg.Output.CSV {
		csvErr := writeCSVs(cfg.Output.Dir, result)
		if csvErr != nil {
			return csvErr
		}
	}

	manifestErr := report.WriteManifest(filepath.Join(cfg.Output.Dir, "run.yaml"), result)
	if manifestErr != nil {
		return manifestErr
	}

	if cfg.Output.HTML && result.HasData() {
		htmlErr := writeCharts(cfg.Output.Dir, result)
		if htmlErr != nil {
			return htmlErr
		}
	}

	return nil
}

func writeCSVs(dir string, result *run.Report) error {
	var all []*snapshot.Snapshot

	for _, repoResult := range result.Results {
		all = append(all, repoResult.Snapshots...)

		err := report.WriteTrendCSV(
			filepath.Join(dir, "languages_"+repoResult.Spec.ID+".csv"), repoResult.Languages)
		if err != nil {
			return err
		}

		err = report.WriteTrendCSV(
			filepath.Join(dir, "authors_"+repoResult.Spec.ID+".csv"), repoResult.Authors)
		if err != nil {
			return err
		}
	}

	if len(result.Results) > 1 {
		err := report.WriteTrendCSV(filepath.Join(dir, "merged.csv"), result.Merged)
		if err != nil {
			return err
		}
	}

	return report.WriteSnapshotsCSV(filepath.Join(dir, "snapshots.csv"), all)
}

func writeCharts(dir string, result *run.Report) error {
	var chartList []components.Charter

	for _, repoResult := range result.Results {
		if !repoResult.Languages.IsEmpty() {
			chartList = append(chartList,
				plotpage.TrendChart("Lines of code: "+repoResult.Spec.ID, repoResult.Languages, true))
		}

		if !repoResult.Authors.IsEmpty() {
			chartList = append(chartList,
				plotpage.TrendChart("Cumulative lines by author: "+repoResult.Spec.ID, repoResult.Authors, false))
		}
	}

	if len(result.Results) > 1 && !result.Merged.IsEmpty() {
		chartList = append(chartList, plotpage.TrendChart("All repositories", result.Merged, false))
	}

	return plotpage.WritePage(filepath.Join(dir, "report.html"), "gitloc report", chartList...)
}

func repoSpecs(repos []config.RepoConfig) []run.RepoSpec {
	specs := make([]run.RepoSpec, 0, len(repos))

	for _, repo := range repos {
		specs = append(specs, run.RepoSpec{
			Path:         repo.Path,
			ID:           repo.ID,
			Branch:       repo.Branch,
			ExcludedDirs: repo.ExcludeDirs,
		})
	}

	return specs
}

func runOptions(cfg *config.Config) (run.Options, error) {
	since, err := cfg.SinceTime()
	if err != nil {
		return run.Options{}, err
	}

	until, err := cfg.UntilTime()
	if err != nil {
		return run.Options{}, err
	}

	return run.Options{
		Interval:     cfg.Interval(),
		Since:        since,
		Until:        until,
		Authors:      cfg.Run.Authors,
		Languages:    cfg.Run.Languages,
		ExcludedDirs: cfg.Run.ExcludeDirs,
		Workers:      cfg.Run.Workers,
		Thin:         cfg.Run.Thin,
		ToolTimeout:  cfg.ToolTimeoutDuration(),
	}, nil
}

func selectTool(cfg *config.Config, logger *slog.Logger) counter.Tool {
	switch cfg.Run.Tool {
	case config.ToolCloc:
		return &counter.ClocTool{Binary: cfg.Run.ClocBinary}
	case config.ToolBuiltin:
		return &counter.EnryTool{}
	default:
		cloc := &counter.ClocTool{Binary: cfg.Run.ClocBinary}
		if cloc.Available() {
			return cloc
		}

		logger.Info("cloc not found on PATH, using builtin counter")

		return &counter.EnryTool{}
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
