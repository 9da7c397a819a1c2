package snapshot

import (
	"path"
	"sort"
	"strings"
)

// Key addresses one cached snapshot. Two requests share a cache entry only
// if repository, commit and both normalized filters match exactly; a
// superset or subset of languages is a different key.
type Key struct {
	RepositoryID   string
	CommitHash     string
	LanguageFilter []string
	ExcludedDirs   []string
}

// NewKey builds a Key with both filters normalized.
func NewKey(repositoryID, commitHash string, languages, excludedDirs []string) Key {
	return Key{
		RepositoryID:   repositoryID,
		CommitHash:     commitHash,
		LanguageFilter: NormalizeLanguages(languages),
		ExcludedDirs:   NormalizeDirs(excludedDirs),
	}
}

// String renders the composite key used as the store key. The filter parts
// are included verbatim so differing filters can never collide.
func (k Key) String() string {
	var sb strings.Builder

	sb.WriteString(k.RepositoryID)
	sb.WriteString("|")
	sb.WriteString(k.CommitHash)
	sb.WriteString("|lang=")
	sb.WriteString(strings.Join(k.LanguageFilter, ","))
	sb.WriteString("|exclude=")
	sb.WriteString(strings.Join(k.ExcludedDirs, ","))

	return sb.String()
}

// NormalizeLanguages lowercases, trims, deduplicates and sorts a language
// filter so equivalent filters produce identical cache keys.
func NormalizeLanguages(languages []string) []string {
	return normalize(languages, func(s string) string {
		return strings.ToLower(strings.TrimSpace(s))
	})
}

// NormalizeDirs cleans excluded directory prefixes to slash-separated,
// relative form and sorts them.
func NormalizeDirs(dirs []string) []string {
	return normalize(dirs, func(s string) string {
		cleaned := path.Clean(strings.TrimSpace(strings.ReplaceAll(s, "\\", "/")))
		cleaned = strings.TrimPrefix(cleaned, "./")
		cleaned = strings.Trim(cleaned, "/")

		if cleaned == "." {
			return ""
		}

		return cleaned
	})
}

func normalize(values []string, canon func(string) string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, value := range values {
		normalized := canon(value)
		if normalized == "" {
			continue
		}

		if _, dup := seen[normalized]; dup {
			continue
		}

		seen[normalized] = struct{}{}
		result = append(result, normalized)
	}

	if len(result) == 0 {
		return nil
	}

	sort.Strings(result)

	return result
}
