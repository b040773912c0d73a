package source

import (
	"fmt"
	"strings"
	"sync"
)

// Registry maps driver instances by SourceId and by every filter alias
// they expose, grounded directly on the teacher's StrategyFactory /
// GlobalStrategyFactory pattern in internal/ingest/strategies.go — a
// simple map-backed Register/Select factory rather than a plugin system.
type Registry struct {
	mu      sync.RWMutex
	byID    map[string]Driver
	byAlias map[string]Driver
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:    make(map[string]Driver),
		byAlias: make(map[string]Driver),
	}
}

// Register adds d, indexing it by its own SourceId and every alias it
// declares (case-insensitively, matching spec §4.F's "case-insensitive
// exact match" filter expansion rule).
func (r *Registry) Register(d Driver) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := string(d.ID())
	r.byID[id] = d
	r.byAlias[strings.ToLower(id)] = d
	for _, alias := range d.FilterAliases() {
		r.byAlias[strings.ToLower(alias)] = d
	}
}

// All returns every registered driver, in registration order is not
// guaranteed — callers needing a stable order should sort by ID.
func (r *Registry) All() []Driver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Driver, 0, len(r.byID))
	for _, d := range r.byID {
		out = append(out, d)
	}
	return out
}

// Select expands a CLI --source filter into the matching drivers. An
// empty filter selects every registered driver (spec §4.F step 1).
func (r *Registry) Select(filter string) ([]Driver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if strings.TrimSpace(filter) == "" {
		out := make([]Driver, 0, len(r.byID))
		for _, d := range r.byID {
			out = append(out, d)
		}
		return out, nil
	}

	d, ok := r.byAlias[strings.ToLower(strings.TrimSpace(filter))]
	if !ok {
		return nil, fmt.Errorf("no driver matches --source %q", filter)
	}
	return []Driver{d}, nil
}
