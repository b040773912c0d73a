// Package source defines the uniform driver contract every data source
// implements (spec component D), plus the registry and factory that the
// orchestrator uses to select and invoke drivers by SourceId or CLI
// filter alias.
package source

import (
	"context"

	"github.com/ukgov/org-registry/internal/cache"
	"github.com/ukgov/org-registry/internal/events"
	"github.com/ukgov/org-registry/internal/httpx"
	"github.com/ukgov/org-registry/internal/model"
)

// Capabilities bundles the shared HTTP client, decode helpers access, and
// event sink a driver needs, so fetchAndMap never constructs its own
// transport. Decoders are stateless functions in internal/decode so no
// field is needed for them here. Cache is nil unless the run was started
// with --cache; a driver that wants a cached fetch passes it straight
// through to httpx.Client.CachedGet, which is a no-op wrapper around Get
// when Cache is nil, so drivers never need to branch on whether caching
// is enabled.
type Capabilities struct {
	HTTP   *httpx.Client
	Cache  *cache.Cache
	Events events.Sink
	Config DriverConfig
}

// DriverConfig is the single immutable configuration struct the
// orchestrator hands to every driver, per spec §9's "orchestrator passes
// a single immutable config struct to each driver" design note.
type DriverConfig struct {
	Timeout    int // milliseconds, 0 = driver default
	CacheEnabled bool
	Debug      bool
}

// SourceMetadata is what a driver reports about its own run, folded into
// ProcessingMetadata by the orchestrator.
type SourceMetadata struct {
	RecordCount int
	Notes       []string
}

// Result is the outcome of one driver invocation.
type Result struct {
	Records         []model.Organisation
	Metadata        SourceMetadata
	PartialWarnings []error
}

// Driver is the uniform contract every source implements. A driver MAY
// internally run multiple sub-pipelines (the Courts composite driver
// runs three); sub-failures are attached as PartialWarnings and do not
// by themselves fail the driver. A driver returns an error when it fails
// outright or when its combined record count is below its sanity floor.
type Driver interface {
	ID() model.SourceId
	FilterAliases() []string
	FetchAndMap(ctx context.Context, caps Capabilities) (Result, error)
}
