package counter

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/src-d/enry/v2"

	"github.com/Sumatoshi-tech/gitloc/internal/snapshot"
)

// maxDetectBytes caps how much of a file is read for language detection.
const maxDetectBytes = 16 * 1024

// EnryTool is the built-in fallback counter. It walks the checkout, detects
// each file's language with enry, and counts raw lines. It distinguishes
// blank from non-blank lines only; comments are folded into code, so totals
// are comparable with cloc but the comment column stays zero.
type EnryTool struct{}

// Name implements Tool.Name.
func (t *EnryTool) Name() string {
	return "builtin"
}

// Count implements Tool.Count.
func (t *EnryTool) Count(ctx context.Context, root string, languages []string) (map[string]snapshot.LanguageCount, error) {
	allowed := allowSet(languages)
	counts := make(map[string]snapshot.LanguageCount)

	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		if entry.IsDir() {
			if entry.Name() == ".git" {
				return filepath.SkipDir
			}

			return nil
		}

		if !entry.Type().IsRegular() {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}

		if enry.IsVendor(filepath.ToSlash(rel)) {
			return nil
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return readErr
		}

		if enry.IsBinary(data) {
			return nil
		}

		sample := data
		if len(sample) > maxDetectBytes {
			sample = sample[:maxDetectBytes]
		}

		language := enry.GetLanguage(entry.Name(), sample)
		if language == "" {
			return nil
		}

		if allowed != nil {
			if _, ok := allowed[strings.ToLower(language)]; !ok {
				return nil
			}
		}

		code, blank := countLines(data)

		count := counts[language]
		count.Code += code
		count.Blank += blank
		count.Files++
		counts[language] = count

		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("%w: builtin counter: %w", ErrCountingTool, walkErr)
	}

	return counts, nil
}

func countLines(data []byte) (code, blank int) {
	if len(data) == 0 {
		return 0, 0
	}

	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			blank++
		} else {
			code++
		}
	}

	// A trailing newline produces one empty split tail, not a blank line.
	if data[len(data)-1] == '\n' {
		blank--
	}

	return code, blank
}

func allowSet(languages []string) map[string]struct{} {
	if len(languages) == 0 {
		return nil
	}

	set := make(map[string]struct{}, len(languages))

	for _, language := range languages {
		set[strings.ToLower(language)] = struct{}{}
	}

	return set
}
