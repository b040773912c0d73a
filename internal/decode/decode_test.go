package decode

import (
	"io"
	"strings"
	"testing"
)

func TestJSONPath(t *testing.T) {
	tree, err := JSON([]byte(`{"data":{"results":[{"name":"Dept A"},{"name":"Dept B"}]}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := PathString(tree, "data.results[1].name")
	if !ok || got != "Dept B" {
		t.Errorf("PathString = (%q, %v), want (\"Dept B\", true)", got, ok)
	}
	if _, ok := PathString(tree, "data.results[5].name"); ok {
		t.Error("expected out-of-range index to miss")
	}
}

func TestJSONInvalidPayload(t *testing.T) {
	if _, err := JSON([]byte(`{not valid`)); err == nil {
		t.Fatal("expected decode error for invalid JSON")
	}
}

func TestCSVRequireColumns(t *testing.T) {
	r, err := NewCSVReader(strings.NewReader("name,urn\nExample School,12345\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.RequireColumns("gias", "name", "urn"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := r.RequireColumns("gias", "does-not-exist"); err == nil {
		t.Error("expected error for missing column")
	}
}

func TestCSVStreamsRows(t *testing.T) {
	r, err := NewCSVReader(strings.NewReader("name,urn\nA,1\nB,2\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var rows []map[string]string
	for {
		row, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		rows = append(rows, row)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0]["name"] != "A" || rows[1]["urn"] != "2" {
		t.Errorf("unexpected row contents: %+v", rows)
	}
}

func TestParseHTMLRequireSelectorFailsFast(t *testing.T) {
	doc, err := ParseHTML([]byte(`<html><body><p>no list here</p></body></html>`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := doc.RequireSelector("test_source", ".directory-item"); err == nil {
		t.Fatal("expected StructureChanged error when selector matches nothing")
	}
}

func TestParseHTMLExtractsText(t *testing.T) {
	doc, err := ParseHTML([]byte(`<html><body><div class="item">  Met   Office  </div></body></html>`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sel, err := doc.RequireSelector("test_source", ".item")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := Text(sel); got != "Met Office" {
		t.Errorf("Text = %q, want %q", got, "Met Office")
	}
}
