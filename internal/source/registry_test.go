package source

import (
	"context"
	"testing"

	"github.com/ukgov/org-registry/internal/model"
)

type stubDriver struct {
	id      model.SourceId
	aliases []string
}

func (s *stubDriver) ID() model.SourceId         { return s.id }
func (s *stubDriver) FilterAliases() []string    { return s.aliases }
func (s *stubDriver) FetchAndMap(ctx context.Context, caps Capabilities) (Result, error) {
	return Result{}, nil
}

func TestRegistrySelectEmptyFilterReturnsAll(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubDriver{id: model.SourceGovUKAPI, aliases: []string{"govuk"}})
	r.Register(&stubDriver{id: model.SourceGIAS, aliases: []string{"gias", "schools"}})

	got, err := r.Select("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len(got) = %d, want 2", len(got))
	}
}

func TestRegistrySelectByAliasCaseInsensitive(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubDriver{id: model.SourceGIAS, aliases: []string{"gias", "schools"}})

	got, err := r.Select("SCHOOLS")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID() != model.SourceGIAS {
		t.Errorf("unexpected selection: %+v", got)
	}
}

func TestRegistrySelectUnknownFilterErrors(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubDriver{id: model.SourceGIAS, aliases: []string{"gias"}})

	if _, err := r.Select("not-a-real-source"); err == nil {
		t.Fatal("expected error for unknown --source filter")
	}
}
