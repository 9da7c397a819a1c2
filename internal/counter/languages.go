package counter

import (
	"strings"

	"github.com/src-d/enry/v2"
)

// CanonicalLanguages maps user-supplied language names to their canonical
// form ("go" -> "Go", "js" -> "JavaScript"). Names enry does not recognize
// are title-cased as given, so filters still match tools that know them.
func CanonicalLanguages(names []string) []string {
	if len(names) == 0 {
		return nil
	}

	canonical := make([]string, 0, len(names))

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		if known, ok := enry.GetLanguageByAlias(name); ok {
			canonical = append(canonical, known)

			continue
		}

		canonical = append(canonical, titleCase(name))
	}

	if len(canonical) == 0 {
		return nil
	}

	return canonical
}

func titleCase(name string) string {
	words := strings.Fields(name)

	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}

	return strings.Join(words, " ")
}
