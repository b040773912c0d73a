// Command aggregate is the CLI front-end for the organisation registry
// run: wire up the driver registry, invoke the orchestrator, write the
// artifact, and render a run summary table — in the teacher's own
// cmd/tools register of small, single-purpose binaries built on flag
// and go-pretty/table (cmd/tools/check_runs/main.go).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ukgov/org-registry/internal/cache"
	"github.com/ukgov/org-registry/internal/events"
	"github.com/ukgov/org-registry/internal/model"
	"github.com/ukgov/org-registry/internal/orchestrator"
	"github.com/ukgov/org-registry/internal/source"
	"github.com/ukgov/org-registry/internal/source/config"
	"github.com/ukgov/org-registry/internal/source/drivers"
	"github.com/ukgov/org-registry/internal/writer"
)

const defaultOutputPath = "dist/orgs.json"
const defaultCacheDir = ".cache"

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is main's testable core: it never calls os.Exit itself so a test
// can assert on the returned code directly.
func run(args []string) int {
	sub := "compile"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		sub = args[0]
		args = args[1:]
	}

	switch sub {
	case "cache":
		return runCacheSubcommand(args)
	case "compile", "aggregate":
		return runAggregate(args)
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", sub)
		return 1
	}
}

func runCacheSubcommand(args []string) int {
	fs := flag.NewFlagSet("cache", flag.ContinueOnError)
	clear := fs.Bool("clear", false, "remove the on-disk cache directory")
	dir := fs.String("dir", defaultCacheDir, "cache directory")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if !*clear {
		fmt.Fprintln(os.Stderr, "cache: nothing to do (expected --clear)")
		return 1
	}
	if err := cache.New(*dir).Clear(); err != nil {
		fmt.Fprintf(os.Stderr, "cache --clear: %v\n", err)
		return 1
	}
	return 0
}

func runAggregate(args []string) int {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	cacheEnabled := fs.Bool("cache", false, "enable the persistent on-disk cache")
	debug := fs.Bool("debug", false, "emit verbose event stream")
	timeoutMS := fs.Int("timeout", 30000, "per-request timeout in milliseconds")
	output := fs.String("output", defaultOutputPath, "artifact output path")
	logFile := fs.String("log-file", "", "mirror events to this file")
	quiet := fs.Bool("quiet", false, "suppress non-error output")
	sourceFilter := fs.String("source", "", "run only drivers matching this filter alias")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	sink, closeSink, err := buildSink(*logFile, *debug, *quiet)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer closeSink()

	var signalExitCode atomic.Int32
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notify := make(chan os.Signal, 2)
	signal.Notify(notify, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(notify)
	go func() {
		switch <-notify {
		case syscall.SIGINT:
			signalExitCode.Store(130)
		case syscall.SIGTERM:
			signalExitCode.Store(143)
		}
	}()

	reg := source.NewRegistry()
	drivers.RegisterAll(reg)

	cfg := orchestrator.Config{
		SourceFilter: *sourceFilter,
		CacheEnabled: *cacheEnabled,
		CacheDir:     defaultCacheDir,
		Timeout:      time.Duration(*timeoutMS) * time.Millisecond,
		Debug:        *debug,
	}

	result, err := orchestrator.Run(ctx, reg, cfg, sink)
	if err != nil {
		fmt.Fprintf(os.Stderr, "aggregate: %v\n", err)
		return 1
	}

	if err := writer.Write(*output, result.Records, result.Metadata, true); err != nil {
		fmt.Fprintf(os.Stderr, "aggregate: write artifact: %v\n", err)
		return 1
	}
	sink.Emit(events.Event{
		Kind:    events.KindWriteComplete,
		Message: fmt.Sprintf("wrote %d organisations to %s", len(result.Records), *output),
		At:      time.Now().UTC(),
		RunID:   result.RunID,
	})

	if !*quiet {
		renderSummary(result, sourceNames())
	}

	if code := signalExitCode.Load(); code != 0 {
		return int(code)
	}
	if !result.Success || len(result.PartialFailures) > 0 {
		return 1
	}
	return 0
}

func buildSink(logFile string, debug, quiet bool) (events.Sink, func(), error) {
	var sinks []events.Sink
	sinks = append(sinks, events.NewLogSink(os.Stdout, debug))

	closeFn := func() {}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, closeFn, fmt.Errorf("open log file %s: %w", logFile, err)
		}
		sinks = append(sinks, events.NewLogSink(f, debug))
		closeFn = func() { f.Close() }
	}

	var sink events.Sink = events.NewMultiSink(sinks...)
	if quiet {
		sink = events.NewQuietSink(sink)
	}
	return sink, closeFn, nil
}

// sourceNames loads the embedded source registry metadata and indexes
// it by SourceId, for renderSummary's human-readable names. A load
// failure (the embedded sources.yaml failing to decode or naming an id
// outside the closed SourceId set) is a packaging bug, not a run-time
// condition worth failing the whole aggregate for, so this falls back
// to an empty map — renderSummary then prints the bare SourceId.
func sourceNames() map[model.SourceId]config.SourceMeta {
	entries, err := config.Load()
	if err != nil {
		return nil
	}
	return config.ByID(entries)
}

func renderSummary(result orchestrator.AggregationResult, names map[model.SourceId]config.SourceMeta) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Source", "Status", "Records", "Duration"})
	for _, sm := range result.Metadata.Sources {
		status := "ok"
		if !sm.Succeeded {
			status = "failed"
		}
		label := string(sm.Source)
		if meta, ok := names[sm.Source]; ok && meta.Name != "" {
			label = meta.Name
		}
		t.AppendRow(table.Row{label, status, sm.RecordCount, time.Duration(sm.DurationMS) * time.Millisecond})
	}
	t.Render()

	if len(result.PartialFailures) > 0 {
		fmt.Println(events.Summaryf("WARNING: %d source(s) failed", len(result.PartialFailures)))
	}
}
