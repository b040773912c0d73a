package writer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ukgov/org-registry/internal/model"
)

func sampleOrg() model.Organisation {
	return model.Organisation{
		ID:     "GOVUK_example",
		Name:   "Example Department",
		Type:   model.TypeMinisterialDepartment,
		Status: model.StatusActive,
		Sources: []model.DataSourceReference{
			{Source: model.SourceGovUKAPI, RetrievedAt: time.Now().UTC(), Confidence: 0.9},
		},
		LastUpdated: time.Now().UTC(),
	}
}

func sampleMetadata() model.ProcessingMetadata {
	return model.ProcessingMetadata{
		ProcessedAt: time.Now().UTC(),
		Sources: []model.SourceMetadata{
			{Source: model.SourceGovUKAPI, RecordCount: 1, Succeeded: true, RetrievedAt: time.Now().UTC()},
		},
		Statistics: model.Statistics{TotalOrganisations: 1, OrganisationsByType: map[string]int{"ministerial_department": 1}},
	}
}

func TestWriteProducesReparsableArtifact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orgs.json")

	if err := Write(path, []model.Organisation{sampleOrg()}, sampleMetadata(), false); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	var artifact model.Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(artifact.Organisations) != 1 {
		t.Errorf("len(Organisations) = %d, want 1", len(artifact.Organisations))
	}
	if artifact.Metadata.Statistics.TotalOrganisations != 1 {
		t.Errorf("TotalOrganisations = %d, want 1", artifact.Metadata.Statistics.TotalOrganisations)
	}
}

func TestWriteCreatesMissingOutputDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "dist")
	path := filepath.Join(dir, "orgs.json")

	if err := Write(path, nil, sampleMetadata(), false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected output file to exist: %v", err)
	}
}

func TestWriteNilOrganisationsSerializesAsEmptyArrayNotNull(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orgs.json")

	if err := Write(path, nil, sampleMetadata(), false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, _ := os.ReadFile(path)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if string(raw["organisations"]) != "[]" {
		t.Errorf("organisations = %s, want []", raw["organisations"])
	}
}

func TestWritePrettyIndentsOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orgs.json")

	if err := Write(path, []model.Organisation{sampleOrg()}, sampleMetadata(), true); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !containsNewlineIndent(data) {
		t.Error("expected pretty-printed output to contain newlines/indentation")
	}
}

func containsNewlineIndent(data []byte) bool {
	for i := 0; i < len(data)-2; i++ {
		if data[i] == '\n' && data[i+1] == ' ' {
			return true
		}
	}
	return false
}
