package orchestrator

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ukgov/org-registry/internal/errs"
	"github.com/ukgov/org-registry/internal/model"
	"github.com/ukgov/org-registry/internal/source"
)

type stubDriver struct {
	id      model.SourceId
	aliases []string
	fn      func(ctx context.Context, caps source.Capabilities) (source.Result, error)
}

func (s *stubDriver) ID() model.SourceId      { return s.id }
func (s *stubDriver) FilterAliases() []string { return s.aliases }
func (s *stubDriver) FetchAndMap(ctx context.Context, caps source.Capabilities) (source.Result, error) {
	return s.fn(ctx, caps)
}

func orgWithSource(id, name string, src model.SourceId) model.Organisation {
	return model.Organisation{
		ID: id, Name: name, Type: model.TypeOther, Status: model.StatusActive,
		Sources:     []model.DataSourceReference{{Source: src, RetrievedAt: time.Now().UTC(), Confidence: 0.9}},
		LastUpdated: time.Now().UTC(),
	}
}

// S4 — partial failure tolerance: one driver succeeds, one fails; the
// run as a whole still succeeds with the surviving records, and the
// failure surfaces as a partial failure rather than aborting the run.
func TestRunToleratesPartialDriverFailure(t *testing.T) {
	reg := source.NewRegistry()
	reg.Register(&stubDriver{
		id: model.SourceGovUKAPI, aliases: []string{"govuk"},
		fn: func(ctx context.Context, caps source.Capabilities) (source.Result, error) {
			records := make([]model.Organisation, 100)
			for i := range records {
				records[i] = orgWithSource(
					fmt.Sprintf("GOVUK_org-%03d", i),
					fmt.Sprintf("Org %03d", i),
					model.SourceGovUKAPI,
				)
			}
			return source.Result{Records: records, Metadata: source.SourceMetadata{RecordCount: len(records)}}, nil
		},
	})
	reg.Register(&stubDriver{
		id: model.SourceGIAS, aliases: []string{"gias"},
		fn: func(ctx context.Context, caps source.Capabilities) (source.Result, error) {
			return source.Result{}, &errs.Transport{URL: "https://example.test/schools.csv", Err: context.DeadlineExceeded}
		},
	})

	result, err := Run(context.Background(), reg, Config{}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Success {
		t.Error("Success = false, want true (any-source-succeeded policy)")
	}
	if len(result.Records) != 100 {
		t.Errorf("len(Records) = %d, want 100", len(result.Records))
	}
	if len(result.PartialFailures) != 1 {
		t.Fatalf("len(PartialFailures) = %d, want 1", len(result.PartialFailures))
	}
}

func TestRunAllDriversFailYieldsUnsuccessfulEmptyResult(t *testing.T) {
	reg := source.NewRegistry()
	reg.Register(&stubDriver{
		id: model.SourceGIAS, aliases: []string{"gias"},
		fn: func(ctx context.Context, caps source.Capabilities) (source.Result, error) {
			return source.Result{}, &errs.RecordCountBelowFloor{Source: "gias", Expected: 1000, Got: 0}
		},
	})

	result, err := Run(context.Background(), reg, Config{}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Success {
		t.Error("Success = true, want false when every driver fails")
	}
	if len(result.Records) != 0 {
		t.Errorf("len(Records) = %d, want 0", len(result.Records))
	}
}

func TestRunHonoursSourceFilter(t *testing.T) {
	reg := source.NewRegistry()
	calledGovUK := false
	calledGIAS := false
	reg.Register(&stubDriver{
		id: model.SourceGovUKAPI, aliases: []string{"govuk"},
		fn: func(ctx context.Context, caps source.Capabilities) (source.Result, error) {
			calledGovUK = true
			return source.Result{}, nil
		},
	})
	reg.Register(&stubDriver{
		id: model.SourceGIAS, aliases: []string{"gias"},
		fn: func(ctx context.Context, caps source.Capabilities) (source.Result, error) {
			calledGIAS = true
			return source.Result{Records: []model.Organisation{orgWithSource("GIAS_1", "School 1", model.SourceGIAS)}}, nil
		},
	})

	result, err := Run(context.Background(), reg, Config{SourceFilter: "gias"}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calledGovUK {
		t.Error("govuk driver ran despite --source gias filter")
	}
	if !calledGIAS {
		t.Error("gias driver did not run")
	}
	if len(result.Records) != 1 {
		t.Errorf("len(Records) = %d, want 1", len(result.Records))
	}
}

func TestRunDedupsAcrossDrivers(t *testing.T) {
	reg := source.NewRegistry()
	reg.Register(&stubDriver{
		id: model.SourceGovUKAPI, aliases: []string{"govuk"},
		fn: func(ctx context.Context, caps source.Capabilities) (source.Result, error) {
			return source.Result{Records: []model.Organisation{orgWithSource("GOVUK_dft", "Department for Transport", model.SourceGovUKAPI)}}, nil
		},
	})
	reg.Register(&stubDriver{
		id: model.SourceONSInstitutional, aliases: []string{"ons"},
		fn: func(ctx context.Context, caps source.Capabilities) (source.Result, error) {
			return source.Result{Records: []model.Organisation{orgWithSource("ONS_dft", "Department for Transport", model.SourceONSInstitutional)}}, nil
		},
	})

	result, err := Run(context.Background(), reg, Config{}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Records) != 1 {
		t.Fatalf("len(Records) = %d, want 1 (deduplicated across sources)", len(result.Records))
	}
	if result.Metadata.Statistics.DuplicatesFound != 1 {
		t.Errorf("DuplicatesFound = %d, want 1", result.Metadata.Statistics.DuplicatesFound)
	}
}
