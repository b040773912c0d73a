// Package writer serializes the aggregated artifact to disk: one
// {organisations, metadata} JSON document, written atomically and
// reparsed to confirm its shape before Write returns, per spec §4.H.
package writer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ukgov/org-registry/internal/model"
)

// Write marshals organisations and metadata into one artifact and writes
// it to path. When pretty is set, the JSON is indented for human
// inspection (matching the teacher's json.NewEncoder(os.Stdout) style in
// cmd/tools/enrich_recompute/main.go, generalised to a destination file
// rather than stdout). The write is atomic: encode to a temp file in the
// destination directory, then os.Rename into place, so a reader never
// observes a half-written artifact.
func Write(path string, organisations []model.Organisation, metadata model.ProcessingMetadata, pretty bool) error {
	if organisations == nil {
		organisations = []model.Organisation{}
	}
	artifact := model.Artifact{Organisations: organisations, Metadata: metadata}

	var data []byte
	var err error
	if pretty {
		data, err = json.MarshalIndent(artifact, "", "  ")
	} else {
		data, err = json.Marshal(artifact)
	}
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure output directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".artifact-*.json.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}

	return validateWritten(path)
}

// validateWritten reparses the just-written file and checks the shape
// spec §4.H requires: organisations is an array, metadata carries
// processedAt/sources/statistics.
func validateWritten(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reread written artifact: %w", err)
	}

	var check struct {
		Organisations []json.RawMessage `json:"organisations"`
		Metadata      struct {
			ProcessedAt json.RawMessage `json:"processedAt"`
			Sources     json.RawMessage `json:"sources"`
			Statistics  json.RawMessage `json:"statistics"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal(data, &check); err != nil {
		return fmt.Errorf("written artifact failed to reparse: %w", err)
	}
	if check.Organisations == nil {
		return fmt.Errorf("written artifact: organisations is not an array")
	}
	if check.Metadata.ProcessedAt == nil {
		return fmt.Errorf("written artifact: metadata.processedAt missing")
	}
	if check.Metadata.Sources == nil {
		return fmt.Errorf("written artifact: metadata.sources missing")
	}
	if check.Metadata.Statistics == nil {
		return fmt.Errorf("written artifact: metadata.statistics missing")
	}
	return nil
}
