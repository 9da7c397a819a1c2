package counter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/Sumatoshi-tech/gitloc/internal/snapshot"
)

// DefaultClocBinary is the binary probed for on PATH.
const DefaultClocBinary = "cloc"

// ClocTool invokes the external cloc binary with JSON output.
type ClocTool struct {
	// Binary is the cloc executable; empty means DefaultClocBinary.
	Binary string
}

// Name implements Tool.Name.
func (t *ClocTool) Name() string {
	return t.binary()
}

// Available reports whether the cloc binary can be found on PATH.
func (t *ClocTool) Available() bool {
	_, err := exec.LookPath(t.binary())

	return err == nil
}

// Count implements Tool.Count by running `cloc --json` over root.
func (t *ClocTool) Count(ctx context.Context, root string, languages []string) (map[string]snapshot.LanguageCount, error) {
	args := []string{"--json", "--quiet"}

	if len(languages) > 0 {
		args = append(args, "--include-lang="+strings.Join(languages, ","))
	}

	args = append(args, root)

	cmd := exec.CommandContext(ctx, t.binary(), args...)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %s timed out: %w", ErrCountingTool, t.binary(), ctx.Err())
	}

	if runErr != nil {
		return nil, fmt.Errorf("%w: %s: %w (%s)", ErrCountingTool, t.binary(), runErr, strings.TrimSpace(stderr.String()))
	}

	counts, parseErr := parseClocJSON(stdout.Bytes())
	if parseErr != nil {
		return nil, fmt.Errorf("%w: %s output: %w", ErrCountingTool, t.binary(), parseErr)
	}

	return counts, nil
}

func (t *ClocTool) binary() string {
	if t.Binary != "" {
		return t.Binary
	}

	return DefaultClocBinary
}

// clocEntry is one per-language record in cloc's JSON output.
type clocEntry struct {
	Files   int `json:"nFiles"`
	Blank   int `json:"blank"`
	Comment int `json:"comment"`
	Code    int `json:"code"`
}

// parseClocJSON converts cloc's JSON document into the per-language table,
// dropping the header and SUM pseudo-entries. An empty tree yields an empty
// (not nil) map: the commit was observed, it just has no countable files.
func parseClocJSON(data []byte) (map[string]snapshot.LanguageCount, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return map[string]snapshot.LanguageCount{}, nil
	}

	var doc map[string]json.RawMessage

	err := json.Unmarshal(trimmed, &doc)
	if err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	counts := make(map[string]snapshot.LanguageCount, len(doc))

	for language, raw := range doc {
		if language == "header" || language == "SUM" {
			continue
		}

		var entry clocEntry

		entryErr := json.Unmarshal(raw, &entry)
		if entryErr != nil {
			return nil, fmt.Errorf("parse entry %q: %w", language, entryErr)
		}

		counts[language] = snapshot.LanguageCount{
			Code:    entry.Code,
			Comment: entry.Comment,
			Blank:   entry.Blank,
			Files:   entry.Files,
		}
	}

	return counts, nil
}
