package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// ErrInvalidManifest indicates the repository manifest failed schema
// validation.
var ErrInvalidManifest = errors.New("invalid repository manifest")

// manifestSchema validates the repository manifest structure before any
// field is interpreted, so a typo fails loudly instead of being ignored.
const manifestSchema = `{
  "type": "object",
  "required": ["repos"],
  "additionalProperties": false,
  "properties": {
    "repos": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["path"],
        "additionalProperties": false,
        "properties": {
          "path": {"type": "string", "minLength": 1},
          "id": {"type": "string"},
          "branch": {"type": "string"},
          "exclude_dirs": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`

type manifestDoc struct {
	Repos []manifestRepo `yaml:"repos" json:"repos"`
}

type manifestRepo struct {
	Path        string   `yaml:"path" json:"path"`
	ID          string   `yaml:"id,omitempty" json:"id,omitempty"`
	Branch      string   `yaml:"branch,omitempty" json:"branch,omitempty"`
	ExcludeDirs []string `yaml:"exclude_dirs,omitempty" json:"exclude_dirs,omitempty"`
}

// LoadManifest reads a YAML repository manifest, validates it against the
// manifest schema, and returns the repositories with defaults filled in.
func LoadManifest(path string) ([]RepoConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}

	// Validate the raw document, not the decoded struct, so unknown keys
	// and type mismatches are reported instead of silently dropped.
	var raw any

	yamlErr := yaml.Unmarshal(data, &raw)
	if yamlErr != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidManifest, path, yamlErr)
	}

	validateErr := validateManifest(raw)
	if validateErr != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidManifest, path, validateErr)
	}

	var doc manifestDoc

	decodeErr := yaml.Unmarshal(data, &doc)
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidManifest, path, decodeErr)
	}

	repos := make([]RepoConfig, 0, len(doc.Repos))

	for _, entry := range doc.Repos {
		repos = append(repos, normalizeRepo(RepoConfig{
			Path:        entry.Path,
			ID:          entry.ID,
			Branch:      entry.Branch,
			ExcludeDirs: entry.ExcludeDirs,
		}))
	}

	return repos, nil
}

func validateManifest(raw any) error {
	encoded, err := json.Marshal(raw)
	if err != nil {
		return err
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(manifestSchema),
		gojsonschema.NewBytesLoader(encoded),
	)
	if err != nil {
		return err
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			messages = append(messages, desc.String())
		}

		return errors.New(strings.Join(messages, "; "))
	}

	return nil
}

// ParseRepoArg parses a command-line repository argument of the form
// "path" or "path#branch".
func ParseRepoArg(arg string) RepoConfig {
	path, branch, _ := strings.Cut(arg, "#")

	return normalizeRepo(RepoConfig{Path: path, Branch: branch})
}

// DedupeRepoIDs makes repository IDs unique by suffixing later duplicates
// with an ordinal ("app", "app-2", ...). IDs default to the path's base
// name, so repositories at different paths sharing a directory name would
// otherwise collapse into one trend series and one cache namespace.
func DedupeRepoIDs(repos []RepoConfig) []RepoConfig {
	used := make(map[string]struct{}, len(repos))
	out := make([]RepoConfig, len(repos))

	for i, repo := range repos {
		id := repo.ID

		for n := 2; ; n++ {
			if _, taken := used[id]; !taken {
				break
			}

			id = fmt.Sprintf("%s-%d", repo.ID, n)
		}

		used[id] = struct{}{}
		out[i] = repo
		out[i].ID = id
	}

	return out
}

// normalizeRepo fills in the derived defaults: the ID from the path's base
// name and the branch from DefaultBranch.
func normalizeRepo(repo RepoConfig) RepoConfig {
	if repo.ID == "" {
		repo.ID = filepath.Base(filepath.Clean(repo.Path))
	}

	if repo.Branch == "" {
		repo.Branch = DefaultBranch
	}

	return repo
}
