// Package dedup merges the records fetched from every driver into one
// canonical set, per spec §4.G. It groups by a computed merge key, then
// resolves per-field conflicts by source priority — the same
// prefer-non-empty, priority-source-wins idea the teacher expresses as a
// SQL `ON CONFLICT DO UPDATE SET ... COALESCE(...)` upsert, translated
// here into an in-memory merge over struct fields, since this component
// operates on a bounded in-process record set rather than a live table.
package dedup

import (
	"sort"
	"strings"

	"github.com/ukgov/org-registry/internal/model"
)

// Result is the deduplication engine's contract: deduplicate([]Organisation)
// → {organisations, originalCount, deduplicatedCount}.
type Result struct {
	Organisations     []model.Organisation
	OriginalCount     int
	DeduplicatedCount int
	ConflictsDetected int
}

var stopwords = map[string]bool{
	"the": true, "of": true, "and": true, "for": true, "uk": true, "british": true,
}

var abbreviationExpansions = []struct{ from, to string }{
	{"&", "and"},
	{"dept", "department"},
	{"org", "organisation"},
	{"assoc", "association"},
	{"comm", "commission"},
	{"corp", "corporation"},
	{"ltd", "limited"},
	{"plc", "public limited company"},
}

// normalizeSpace collapses whitespace, the same helper the teacher's
// ingest package carries under this exact name.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// normalizedName lowercases, strips punctuation, collapses whitespace,
// drops stopwords, expands abbreviations — spec §4.G's mergeKey recipe
// for records with no strong cross-source id.
func normalizedName(name string) string {
	lower := strings.ToLower(name)
	var b strings.Builder
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == ' ' || r == '&':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	tokens := strings.Fields(b.String())

	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if stopwords[tok] {
			continue
		}
		expanded := tok
		for _, ex := range abbreviationExpansions {
			if tok == ex.from {
				expanded = ex.to
				break
			}
		}
		out = append(out, expanded)
	}
	return normalizeSpace(strings.Join(out, " "))
}

// strongNaturalKeyField is the AdditionalProperties key a mapper sets
// when its source exposes an identifier another source could
// independently echo — an ONS code or a school URN — as opposed to the
// per-source-prefixed canonical id (drivers.MakeID), which is never
// itself comparable across sources since every driver namespaces it by
// source prefix.
const strongNaturalKeyField = "sourceNaturalKey"

// strongID returns a cross-source-comparable natural key, when the
// mapper recorded one, per spec §4.G's "if a strong cross-source id is
// known (e.g. ONS code, URN)" grouping rule.
func strongID(o model.Organisation) (string, bool) {
	if o.AdditionalProperties == nil {
		return "", false
	}
	v, ok := o.AdditionalProperties[strongNaturalKeyField].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.ToLower(strings.TrimSpace(v)), true
}

// mergeKey computes spec §4.G's grouping key: a strong id when the
// record carries one, else the normalised name scoped by country and
// type to reduce accidental collisions between differently-typed bodies
// that happen to share a name.
func mergeKey(o model.Organisation) string {
	if id, ok := strongID(o); ok {
		return "id:" + id
	}
	country := ""
	if o.Location != nil {
		country = strings.ToLower(strings.TrimSpace(o.Location.Country))
	}
	return "name:" + normalizedName(o.Name) + "|" + country + "|" + string(o.Type)
}

// Deduplicate groups records by mergeKey, then applies the §4.G
// "Similarity" fuzzy cross-check within each (country, type) bucket to
// catch near-duplicates exact mergeKey grouping missed, and merges each
// surviving group into one canonical record. Output is sorted by id
// ascending, stable across runs given identical inputs.
func Deduplicate(records []model.Organisation) Result {
	groups := map[string][]model.Organisation{}
	order := []string{}
	for _, r := range records {
		k := mergeKey(r)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r)
	}

	order = fuzzyMergeGroups(order, groups)

	var merged []model.Organisation
	var conflicts int
	for _, k := range order {
		group := groups[k]
		m, c := mergeGroup(group)
		merged = append(merged, m)
		conflicts += c
	}

	sort.Slice(merged, func(i, j int) bool { return merged[i].ID < merged[j].ID })

	return Result{
		Organisations:     merged,
		OriginalCount:     len(records),
		DeduplicatedCount: len(merged),
		ConflictsDetected: conflicts,
	}
}
