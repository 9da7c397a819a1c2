package counter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/gitloc/internal/snapshot"
)

const clocFixture = `{
  "header": {"cloc_version": "1.98", "elapsed_seconds": 0.04},
  "Go": {"nFiles": 12, "blank": 90, "comment": 150, "code": 1200},
  "Python": {"nFiles": 4, "blank": 25, "comment": 40, "code": 300},
  "SUM": {"nFiles": 16, "blank": 115, "comment": 190, "code": 1500}
}`

func TestParseClocJSON(t *testing.T) {
	t.Parallel()

	counts, err := parseClocJSON([]byte(clocFixture))
	require.NoError(t, err)

	assert.Len(t, counts, 2)
	assert.Equal(t, snapshot.LanguageCount{Code: 1200, Comment: 150, Blank: 90, Files: 12}, counts["Go"])
	assert.Equal(t, snapshot.LanguageCount{Code: 300, Comment: 40, Blank: 25, Files: 4}, counts["Python"])
}

func TestParseClocJSON_EmptyOutput(t *testing.T) {
	t.Parallel()

	// cloc prints nothing for a tree with no recognized files.
	counts, err := parseClocJSON([]byte("  \n"))

	require.NoError(t, err)
	assert.NotNil(t, counts)
	assert.Empty(t, counts)
}

func TestParseClocJSON_Malformed(t *testing.T) {
	t.Parallel()

	_, err := parseClocJSON([]byte("not json"))

	assert.Error(t, err)
}

func TestClocTool_MissingBinary(t *testing.T) {
	t.Parallel()

	tool := &ClocTool{Binary: "definitely-not-a-real-cloc-binary"}

	assert.False(t, tool.Available())

	_, err := tool.Count(context.Background(), t.TempDir(), nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCountingTool)
}

func TestEnryTool_CountsByLanguage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "main.go", "package main\n\nfunc main() {}\n")
	writeFile(t, dir, "script.py", "print('hi')\n")
	writeFile(t, dir, filepath.Join(".git", "config"), "[core]\n")

	tool := &EnryTool{}

	counts, err := tool.Count(context.Background(), dir, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, counts["Go"].Code)
	assert.Equal(t, 1, counts["Go"].Blank)
	assert.Equal(t, 1, counts["Go"].Files)
	assert.Equal(t, 1, counts["Python"].Code)

	// Nothing under .git is counted.
	assert.Len(t, counts, 2)
}

func TestEnryTool_LanguageFilter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "main.go", "package main\n")
	writeFile(t, dir, "script.py", "print('hi')\n")

	tool := &EnryTool{}

	counts, err := tool.Count(context.Background(), dir, []string{"Go"})
	require.NoError(t, err)

	assert.Len(t, counts, 1)
	assert.Contains(t, counts, "Go")
}

func TestEnryTool_EmptyTree(t *testing.T) {
	t.Parallel()

	tool := &EnryTool{}

	counts, err := tool.Count(context.Background(), t.TempDir(), nil)

	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestCountLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		wantCode  int
		wantBlank int
	}{
		{name: "empty", input: "", wantCode: 0, wantBlank: 0},
		{name: "single line no newline", input: "x", wantCode: 1, wantBlank: 0},
		{name: "trailing newline", input: "x\n", wantCode: 1, wantBlank: 0},
		{name: "blank between", input: "a\n\nb\n", wantCode: 2, wantBlank: 1},
		{name: "whitespace only line", input: "a\n   \n", wantCode: 1, wantBlank: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			code, blank := countLines([]byte(tc.input))

			assert.Equal(t, tc.wantCode, code)
			assert.Equal(t, tc.wantBlank, blank)
		})
	}
}

func TestCanonicalLanguages(t *testing.T) {
	t.Parallel()

	got := CanonicalLanguages([]string{"go", "PYTHON", "js", " rust "})

	assert.Equal(t, []string{"Go", "Python", "JavaScript", "Rust"}, got)
}

func TestCanonicalLanguages_UnknownKeptTitleCased(t *testing.T) {
	t.Parallel()

	got := CanonicalLanguages([]string{"frobnicatorlang"})

	assert.Equal(t, []string{"Frobnicatorlang"}, got)
}

func TestCanonicalLanguages_Empty(t *testing.T) {
	t.Parallel()

	assert.Nil(t, CanonicalLanguages(nil))
	assert.Nil(t, CanonicalLanguages([]string{"", "  "}))
}

func TestPruneExcluded(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, filepath.Join("vendor", "lib.go"), "package lib\n")
	writeFile(t, dir, filepath.Join("src", "main.go"), "package main\n")

	require.NoError(t, pruneExcluded(dir, []string{"vendor"}))

	_, err := os.Stat(filepath.Join(dir, "vendor"))
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(filepath.Join(dir, "src", "main.go"))
	assert.NoError(t, err)
}

func TestPruneExcluded_NeverEscapesRoot(t *testing.T) {
	t.Parallel()

	outer := t.TempDir()
	inner := filepath.Join(outer, "checkout")
	require.NoError(t, os.Mkdir(inner, 0o755))

	writeFile(t, outer, "keep.txt", "keep\n")

	require.NoError(t, pruneExcluded(inner, []string{"..", "../keep.txt", "."}))

	_, err := os.Stat(filepath.Join(outer, "keep.txt"))
	assert.NoError(t, err)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()

	path := filepath.Join(dir, name)

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
