// Package config loads the embedded source-registry metadata (human
// names, CLI filter aliases, driver category) used by cmd/aggregate's
// summary table to print a readable source name instead of the bare
// SourceId. Registry.Select itself still expands --source against each
// driver's own FilterAliases(), not this package — aliases here are
// display/documentation metadata, a second record of them, not the
// mechanism. Grounded on the teacher's internal/ingest/registry.go
// LoadRegistry, which embeds config/sources.yaml via //go:embed and
// decodes it with yaml.v3.
package config

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ukgov/org-registry/internal/model"
)

//go:embed sources.yaml
var sourcesYAML []byte

// SourceMeta is one registry entry's metadata.
type SourceMeta struct {
	ID       model.SourceId `yaml:"id"`
	Name     string         `yaml:"name"`
	Aliases  []string       `yaml:"aliases"`
	Category string         `yaml:"category"`
}

type registryFile struct {
	Sources []SourceMeta `yaml:"sources"`
}

// Load decodes the embedded registry metadata, failing if any entry
// names an id outside the closed SourceId set — a guard against the
// registry YAML and the model package's enum drifting apart.
func Load() ([]SourceMeta, error) {
	var parsed registryFile
	if err := yaml.Unmarshal(sourcesYAML, &parsed); err != nil {
		return nil, fmt.Errorf("parsing embedded source registry: %w", err)
	}
	for _, s := range parsed.Sources {
		if !s.ID.Valid() {
			return nil, fmt.Errorf("source registry entry %q is not a known SourceId", s.ID)
		}
	}
	return parsed.Sources, nil
}

// ByID indexes a loaded registry by SourceId for lookup by id.
func ByID(entries []SourceMeta) map[model.SourceId]SourceMeta {
	out := make(map[model.SourceId]SourceMeta, len(entries))
	for _, e := range entries {
		out[e.ID] = e
	}
	return out
}
