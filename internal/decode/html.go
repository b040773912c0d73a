package decode

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ukgov/org-registry/internal/errs"
)

// HTMLDocument wraps a parsed DOM tree for CSS-selector queries. Grounded
// on the teacher's own use of goquery throughout internal/ingest
// (HTMLToText, buildStructuredExtractionText in normalizer.go and
// source_adapter.go) — goquery is tolerant of malformed markup by design,
// satisfying spec §4.C's "tolerant of malformed input" requirement.
type HTMLDocument struct {
	doc *goquery.Document
}

// ParseHTML parses raw bytes into a queryable document.
func ParseHTML(raw []byte) (*HTMLDocument, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(raw)))
	if err != nil {
		return nil, &errs.Decode{Format: "html", Detail: err.Error()}
	}
	return &HTMLDocument{doc: doc}, nil
}

// RequireSelector fails fast with errs.StructureChanged when selector
// matches nothing — the "parse known DOM shape and FAIL FAST on
// structural mismatch (no silent zero-row results)" rule every
// HTML-scraping driver must apply (spec §4.D category 3).
func (h *HTMLDocument) RequireSelector(source, selector string) (*goquery.Selection, error) {
	sel := h.doc.Find(selector)
	if sel.Length() == 0 {
		return nil, &errs.StructureChanged{Source: source, Detail: fmt.Sprintf("no elements matched selector %q", selector)}
	}
	return sel, nil
}

// Find is a thin passthrough for selectors that are allowed to return
// zero matches (e.g. an optional detail field within a found container).
func (h *HTMLDocument) Find(selector string) *goquery.Selection {
	return h.doc.Find(selector)
}

// Text extracts and normalises the whitespace of an element's combined
// text content, the same normalise-then-join approach as the teacher's
// HTMLToText in normalizer.go.
func Text(sel *goquery.Selection) string {
	return normalizeSpace(sel.Text())
}

// Attr reads an attribute, returning "" if absent.
func Attr(sel *goquery.Selection, name string) string {
	v, _ := sel.Attr(name)
	return strings.TrimSpace(v)
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
