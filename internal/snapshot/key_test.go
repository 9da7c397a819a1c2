package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLanguages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{name: "nil", input: nil, want: nil},
		{name: "empty entries dropped", input: []string{"", "  "}, want: nil},
		{name: "lowercased and sorted", input: []string{"Python", "go"}, want: []string{"go", "python"}},
		{name: "deduplicated", input: []string{"Go", "go", " GO "}, want: []string{"go"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, NormalizeLanguages(tt.input))
		})
	}
}

func TestNormalizeDirs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{name: "nil", input: nil, want: nil},
		{name: "cleans separators", input: []string{"vendor\\third_party"}, want: []string{"vendor/third_party"}},
		{name: "strips leading dot and slashes", input: []string{"./vendor/", "/docs/"}, want: []string{"docs", "vendor"}},
		{name: "dot collapses to nothing", input: []string{"."}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, NormalizeDirs(tt.input))
		})
	}
}

func TestKey_String_DistinguishesFilters(t *testing.T) {
	t.Parallel()

	base := NewKey("repo", "abc123", nil, nil)
	withLang := NewKey("repo", "abc123", []string{"go"}, nil)
	withMoreLangs := NewKey("repo", "abc123", []string{"go", "python"}, nil)
	withDirs := NewKey("repo", "abc123", nil, []string{"vendor"})

	keys := map[string]struct{}{
		base.String():          {},
		withLang.String():      {},
		withMoreLangs.String(): {},
		withDirs.String():      {},
	}

	// No cross-filter collisions: subset/superset filters are distinct keys.
	assert.Len(t, keys, 4)
}

func TestKey_String_StableUnderInputOrder(t *testing.T) {
	t.Parallel()

	first := NewKey("repo", "abc123", []string{"Python", "go"}, []string{"b", "a"})
	second := NewKey("repo", "abc123", []string{"GO", "python"}, []string{"a/", "./b"})

	assert.Equal(t, first.String(), second.String())
}
