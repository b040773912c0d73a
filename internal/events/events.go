// Package events is the structured event/log interface consumed by the
// CLI front-end's progress presentation. The engine never formats output
// for a terminal itself; it emits Events through a Sink, the same
// separation of concerns the teacher keeps between its ingestion pipeline
// (plain log.Printf lines) and its cmd/tools reporting binaries (table
// rendering). The default Sink mirrors the teacher's register: terse
// log.Printf-style lines, no level hierarchy, occasional emoji markers on
// notable transitions.
package events

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

// Kind enumerates the event categories the orchestrator and drivers emit.
type Kind string

const (
	KindDriverStart    Kind = "driver_start"
	KindDriverDone     Kind = "driver_done"
	KindDriverFailed   Kind = "driver_failed"
	KindFetchAttempt   Kind = "fetch_attempt"
	KindPartialWarn    Kind = "partial_warning"
	KindDedupSummary   Kind = "dedup_summary"
	KindWriteComplete  Kind = "write_complete"
	KindCacheHit       Kind = "cache_hit"
	KindCacheMiss      Kind = "cache_miss"
	KindHeapCheckpoint Kind = "heap_checkpoint"
)

// Event is one structured occurrence during a run.
type Event struct {
	Kind    Kind
	Source  string
	At      time.Time
	Message string
	Err     error
	Fields  map[string]any
	// RunID correlates every event emitted by one orchestrator.Run call —
	// a process-local google/uuid, not the deterministic organisation id
	// (drivers.MakeID), matching the teacher's source_run_id.
	RunID string
}

// Sink receives Events. Implementations must be safe for concurrent use —
// drivers run concurrently and each may emit events on its own goroutine.
type Sink interface {
	Emit(Event)
}

// LogSink writes events as plain formatted lines to an underlying
// *log.Logger, in the teacher's log.Printf register.
type LogSink struct {
	mu     sync.Mutex
	logger *log.Logger
	debug  bool
}

// NewLogSink builds a LogSink writing to w (os.Stdout if nil).
func NewLogSink(w *os.File, debug bool) *LogSink {
	if w == nil {
		w = os.Stdout
	}
	return &LogSink{logger: log.New(w, "", log.LstdFlags), debug: debug}
}

func (s *LogSink) Emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := ""
	switch e.Kind {
	case KindDriverFailed:
		prefix = "⚠️ "
	case KindDriverDone:
		prefix = "✓ "
	case KindWriteComplete:
		prefix = "✓ "
	}

	if e.Source != "" {
		s.logger.Printf("%s[%s] %s", prefix, e.Source, e.Message)
	} else {
		s.logger.Printf("%s%s", prefix, e.Message)
	}

	if s.debug && e.RunID != "" {
		s.logger.Printf("  run: %s", e.RunID)
	}
	if s.debug && e.Err != nil {
		s.logger.Printf("  detail: %+v", e.Err)
	}
}

// MultiSink fans a single Event out to several Sinks (e.g. stdout + a log
// file mirror, matching the CLI's --log-file option).
type MultiSink struct {
	sinks []Sink
}

func NewMultiSink(sinks ...Sink) *MultiSink { return &MultiSink{sinks: sinks} }

func (m *MultiSink) Emit(e Event) {
	for _, s := range m.sinks {
		if s != nil {
			s.Emit(e)
		}
	}
}

// QuietSink drops everything except driver failures and the final summary,
// backing the CLI's --quiet flag.
type QuietSink struct {
	inner Sink
}

func NewQuietSink(inner Sink) *QuietSink { return &QuietSink{inner: inner} }

func (q *QuietSink) Emit(e Event) {
	switch e.Kind {
	case KindDriverFailed, KindWriteComplete:
		q.inner.Emit(e)
	}
}

// Noop discards all events; useful as a default in library contexts that
// don't want console output.
type noopSink struct{}

func (noopSink) Emit(Event) {}

var Noop Sink = noopSink{}

// Summaryf is a small convenience used by cmd/aggregate's run summary to build the
// "WARNING: N source(s) failed" line required by spec.md §7.
func Summaryf(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}
