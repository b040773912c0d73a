// Package orchestrator is the aggregation run loop (spec component F):
// expand the --source filter into drivers, fan them out with bounded
// concurrency, dedup the union of everything they returned, and hand
// the result to the writer. Concurrency is golang.org/x/sync/errgroup
// with SetLimit, the ecosystem counterpart to the teacher's hand-rolled
// sync.WaitGroup-plus-cancellation-channel fan-out in
// internal/ingest/fetcher_colly.go, generalised here from one fetch's
// retry/cancel plumbing to many independent drivers running at once.
package orchestrator

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ukgov/org-registry/internal/cache"
	"github.com/ukgov/org-registry/internal/dedup"
	"github.com/ukgov/org-registry/internal/errs"
	"github.com/ukgov/org-registry/internal/events"
	"github.com/ukgov/org-registry/internal/httpx"
	"github.com/ukgov/org-registry/internal/model"
	"github.com/ukgov/org-registry/internal/source"
)

// Config is the orchestrator's public input, per spec §4.F.
type Config struct {
	SourceFilter string
	CacheEnabled bool
	CacheDir     string
	Timeout      time.Duration
	Workers      int
	Debug        bool
}

// AggregationResult is the orchestrator's public output, per spec §4.F
// step 7: success is "any source succeeded", never all-or-nothing.
type AggregationResult struct {
	RunID           string
	Success         bool
	Records         []model.Organisation
	Metadata        model.ProcessingMetadata
	PartialFailures []error
}

// runIDSink stamps every event passing through it with the run's
// correlation id — a process-local google/uuid, not the deterministic
// organisation id — the same source_run_id idea the teacher threads
// through its own ingestion logs, generalised here from one DB column
// to one struct field every Event carries.
type runIDSink struct {
	runID string
	inner events.Sink
}

func (s runIDSink) Emit(e events.Event) {
	e.RunID = s.runID
	s.inner.Emit(e)
}

type driverOutcome struct {
	id       model.SourceId
	records  []model.Organisation
	meta     model.SourceMetadata
	err      error
	warnings []error
}

// Run expands the configured source filter, invokes every matching
// driver with bounded concurrency, deduplicates the union of their
// records, and assembles the final artifact metadata.
func Run(ctx context.Context, reg *source.Registry, cfg Config, sink events.Sink) (AggregationResult, error) {
	if sink == nil {
		sink = events.Noop
	}
	runID := uuid.New().String()
	sink = runIDSink{runID: runID, inner: sink}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	drivers, err := reg.Select(cfg.SourceFilter)
	if err != nil {
		return AggregationResult{}, fmt.Errorf("select drivers: %w", err)
	}

	httpClient := httpx.New(sink)
	var driverCache *cache.Cache
	if cfg.CacheEnabled {
		dir := cfg.CacheDir
		if dir == "" {
			dir = ".cache"
		}
		driverCache = cache.New(dir)
	}

	caps := source.Capabilities{
		HTTP:   httpClient,
		Cache:  driverCache,
		Events: sink,
		Config: source.DriverConfig{
			Timeout:      int(cfg.Timeout / time.Millisecond),
			CacheEnabled: cfg.CacheEnabled,
			Debug:        cfg.Debug,
		},
	}

	outcomes := make([]driverOutcome, len(drivers))

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	for i, d := range drivers {
		i, d := i, d
		group.Go(func() error {
			outcomes[i] = runDriver(gctx, d, caps, sink)
			return nil
		})
	}
	// Every call above always returns nil: a driver failure is recorded
	// on driverOutcome, not propagated as a group error, so one driver's
	// failure never cancels its siblings (spec §4.F step 2 — drivers run
	// independently). Wait only drains the pool.
	_ = group.Wait()

	logHeapCheckpoint(sink, "post-fetch")

	var allRecords []model.Organisation
	var sourceMeta []model.SourceMetadata
	var partialFailures []error

	for _, o := range outcomes {
		allRecords = append(allRecords, o.records...)
		sourceMeta = append(sourceMeta, o.meta)
		if o.err != nil {
			partialFailures = append(partialFailures, o.err)
		}
		for _, w := range o.warnings {
			partialFailures = append(partialFailures, w)
		}
	}
	sort.Slice(sourceMeta, func(i, j int) bool { return sourceMeta[i].Source < sourceMeta[j].Source })

	dedupResult := dedup.Deduplicate(allRecords)

	logHeapCheckpoint(sink, "post-dedup")

	sink.Emit(events.Event{
		Kind:    events.KindDedupSummary,
		Message: fmt.Sprintf("%d records -> %d after dedup (%d conflicts)", dedupResult.OriginalCount, dedupResult.DeduplicatedCount, dedupResult.ConflictsDetected),
		At:      time.Now().UTC(),
		Fields: map[string]any{
			"originalCount":     dedupResult.OriginalCount,
			"deduplicatedCount": dedupResult.DeduplicatedCount,
			"conflictsDetected": dedupResult.ConflictsDetected,
		},
	})

	metadata := model.ProcessingMetadata{
		ProcessedAt: time.Now().UTC(),
		Sources:     sourceMeta,
		Statistics: model.Statistics{
			TotalOrganisations:  dedupResult.DeduplicatedCount,
			DuplicatesFound:     dedupResult.OriginalCount - dedupResult.DeduplicatedCount,
			ConflictsDetected:   dedupResult.ConflictsDetected,
			OrganisationsByType: countByType(dedupResult.Organisations),
		},
	}

	return AggregationResult{
		RunID:           runID,
		Success:         len(dedupResult.Organisations) > 0,
		Records:         dedupResult.Organisations,
		Metadata:        metadata,
		PartialFailures: partialFailures,
	}, nil
}

// runDriver invokes one driver, translating its outcome (records,
// metadata, error, partial warnings) into a driverOutcome, and emitting
// start/done/failed events around the call.
func runDriver(ctx context.Context, d source.Driver, caps source.Capabilities, sink events.Sink) driverOutcome {
	id := d.ID()
	start := time.Now()
	sink.Emit(events.Event{Kind: events.KindDriverStart, Source: string(id), At: start})

	result, err := d.FetchAndMap(ctx, caps)
	duration := time.Since(start)

	warnings := make([]error, len(result.PartialWarnings))
	copy(warnings, result.PartialWarnings)
	warningStrings := make([]string, len(warnings))
	for i, w := range warnings {
		warningStrings[i] = w.Error()
	}

	meta := model.SourceMetadata{
		Source:          id,
		RecordCount:     len(result.Records),
		Succeeded:       err == nil,
		PartialWarnings: warningStrings,
		RetrievedAt:     time.Now().UTC(),
		DurationMS:      duration.Milliseconds(),
	}

	if err != nil {
		meta.Error = err.Error()
		if ctx.Err() != nil {
			err = &errs.Cancelled{Source: string(id)}
			meta.Error = err.Error()
		}
		sink.Emit(events.Event{Kind: events.KindDriverFailed, Source: string(id), At: time.Now().UTC(), Err: err})
	} else {
		sink.Emit(events.Event{Kind: events.KindDriverDone, Source: string(id), At: time.Now().UTC(), Message: fmt.Sprintf("%d records", len(result.Records))})
	}

	return driverOutcome{id: id, records: result.Records, meta: meta, err: err, warnings: warnings}
}

func countByType(orgs []model.Organisation) map[string]int {
	out := map[string]int{}
	for _, o := range orgs {
		out[string(o.Type)]++
	}
	return out
}

// logHeapCheckpoint reports heap usage at a named checkpoint, per spec
// §4.F step 6 ("track peak heap usage across major checkpoints").
func logHeapCheckpoint(sink events.Sink, checkpoint string) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	sink.Emit(events.Event{
		Kind:    events.KindHeapCheckpoint,
		Message: fmt.Sprintf("heap at %s: %d bytes", checkpoint, m.HeapAlloc),
		At:      time.Now().UTC(),
		Fields:  map[string]any{"checkpoint": checkpoint, "heapAllocBytes": m.HeapAlloc},
	})
}
