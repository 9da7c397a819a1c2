package commands

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/gitloc/internal/config"
	"github.com/Sumatoshi-tech/gitloc/internal/counter"
	"github.com/Sumatoshi-tech/gitloc/internal/trend"
)

func TestAnalyzeCommand_FlagOverrides(t *testing.T) {
	t.Parallel()

	cmd := NewAnalyzeCommand()

	require.NoError(t, cmd.Flags().Parse([]string{
		"--interval", "weekly",
		"--lang", "go,python",
		"--workers", "8",
		"--all-commits",
		"--no-csv",
	}))

	assert.True(t, cmd.Flags().Changed("interval"))
	assert.True(t, cmd.Flags().Changed("all-commits"))

	interval, err := cmd.Flags().GetString("interval")
	require.NoError(t, err)
	assert.Equal(t, "weekly", interval)

	languages, err := cmd.Flags().GetStringSlice("lang")
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "python"}, languages)
}

func TestAnalyzeCommand_ResolveRepos(t *testing.T) {
	t.Parallel()

	ac := &AnalyzeCommand{}
	cfg := &config.Config{}

	// Positional args win.
	repos, err := ac.resolveRepos([]string{"/repos/a#develop", "/repos/b"}, cfg)
	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, "develop", repos[0].Branch)
	assert.Equal(t, "b", repos[1].ID)

	// Config repos are the fallback.
	cfg.Repos = []config.RepoConfig{{Path: "/repos/c", ID: "c", Branch: "main"}}

	repos, err = ac.resolveRepos(nil, cfg)
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "c", repos[0].ID)

	// Nothing anywhere is an error.
	_, err = ac.resolveRepos(nil, &config.Config{})
	assert.ErrorIs(t, err, ErrNoRepositories)
}

func TestAnalyzeCommand_ResolveReposDedupesSameBaseName(t *testing.T) {
	t.Parallel()

	ac := &AnalyzeCommand{}

	repos, err := ac.resolveRepos([]string{"/a/app", "/b/app"}, &config.Config{})
	require.NoError(t, err)
	require.Len(t, repos, 2)

	assert.Equal(t, "app", repos[0].ID)
	assert.Equal(t, "app-2", repos[1].ID)
}

func TestAnalyzeCommand_ResolveReposFromManifest(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "repos.yaml")
	writeManifest(t, path, "repos:\n  - path: /repos/alpha\n")

	ac := &AnalyzeCommand{manifest: path}

	repos, err := ac.resolveRepos(nil, &config.Config{})
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "alpha", repos[0].ID)
}

func TestSelectTool(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.DiscardHandler)

	cloc := selectTool(&config.Config{Run: config.RunConfig{Tool: config.ToolCloc}}, logger)
	assert.IsType(t, &counter.ClocTool{}, cloc)

	builtin := selectTool(&config.Config{Run: config.RunConfig{Tool: config.ToolBuiltin}}, logger)
	assert.IsType(t, &counter.EnryTool{}, builtin)

	// Auto falls back to builtin when the named binary does not exist.
	auto := selectTool(&config.Config{Run: config.RunConfig{
		Tool:       config.ToolAuto,
		ClocBinary: "definitely-not-a-real-cloc-binary",
	}}, logger)
	assert.IsType(t, &counter.EnryTool{}, auto)
}

func TestRunOptions(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Run: config.RunConfig{
			Interval:    "weekly",
			Since:       "2024-01-01",
			Until:       "2024-06-30",
			Languages:   []string{"go"},
			Workers:     8,
			Thin:        true,
			Tool:        config.ToolBuiltin,
			ToolTimeout: "90s",
		},
	}

	opts, err := runOptions(cfg)
	require.NoError(t, err)

	assert.Equal(t, trend.Weekly, opts.Interval)
	require.NotNil(t, opts.Since)
	require.NotNil(t, opts.Until)
	assert.Equal(t, []string{"go"}, opts.Languages)
	assert.Equal(t, 8, opts.Workers)
	assert.True(t, opts.Thin)
	assert.Equal(t, "1m30s", opts.ToolTimeout.String())
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("info"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel(""))
}

func writeManifest(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
