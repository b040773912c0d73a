package dedup

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/ukgov/org-registry/internal/model"
)

// fieldWeight is spec §4.G's field weight table for the fuzzy
// similarity cross-check run within a (country, type) bucket, to catch
// near-duplicates that exact mergeKey grouping missed (typos,
// unlisted abbreviations, a name recorded only as an alternative by
// one source).
var fieldWeight = struct {
	id, name, alternativeNames, parentOrganisation, classification, typ, location float64
}{
	id:                 2.0,
	name:               1.5,
	alternativeNames:   1.2,
	parentOrganisation: 0.8,
	classification:     0.6,
	typ:                0.5,
	location:           0.3,
}

const (
	similarityMergeThreshold        = 0.9
	similarityAltNameMergeThreshold = 0.85
)

// stringSimilarity normalises github.com/agnivade/levenshtein's edit
// distance into spec §4.G's [0,1] similarity score: 1 identical, 0
// nothing in common, scaled by the longer of the two strings' length.
// Grounded on github.com/agnivade/levenshtein, already present in the
// retrieval pack's dependency graph (jordigilh-kubernaut/go.mod); no
// teacher or pack repo implements its own string-edit-distance scorer,
// so this is the ecosystem's standard library for the concern rather
// than a hand-rolled one.
func stringSimilarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	switch {
	case a == "" && b == "":
		return 1
	case a == "" || b == "":
		return 0
	case a == b:
		return 1
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(maxLen)
}

// exactFold reports whether a and b are equal up to case and surrounding
// whitespace — used for fields (type, a matched natural key) where a
// near-miss isn't meaningful, only an exact match or none.
func exactFold(a, b string) float64 {
	if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) {
		return 1
	}
	return 0
}

// alternativeNameSimilarity returns the best pairwise similarity
// between a's (name + alternativeNames) and b's, and reports whether
// that best match came from an alternative name rather than the
// primary name on both sides — spec §4.G's lower 0.85 threshold applies
// only to that alternative-name-driven case.
func alternativeNameSimilarity(a, b model.Organisation) (best float64, viaAlternative bool) {
	namesA := append([]string{a.Name}, a.AlternativeNames...)
	namesB := append([]string{b.Name}, b.AlternativeNames...)
	for i, na := range namesA {
		for j, nb := range namesB {
			if s := stringSimilarity(na, nb); s > best {
				best = s
				viaAlternative = i > 0 || j > 0
			}
		}
	}
	return best, viaAlternative
}

// locationSimilarity averages the region and postal-code sub-fields that
// either record populates, falling back to country when neither is
// populated on either side; a location missing on either side scores 0.
func locationSimilarity(a, b *model.Location) float64 {
	if a == nil || b == nil {
		return 0
	}
	var total float64
	var parts int
	if a.Region != "" || b.Region != "" {
		total += stringSimilarity(a.Region, b.Region)
		parts++
	}
	if a.PostalCode != "" || b.PostalCode != "" {
		total += stringSimilarity(a.PostalCode, b.PostalCode)
		parts++
	}
	if parts == 0 {
		return stringSimilarity(a.Country, b.Country)
	}
	return total / float64(parts)
}

// weightedTerm is one field's contribution to the combined similarity
// score: only fields at least one side actually populated are counted,
// so sparse records aren't penalised for fields neither source reports.
type weightedTerm struct {
	weight float64
	score  float64
}

// similarity computes spec §4.G's combined weighted field similarity
// between two records, plus whether the best name-field evidence came
// through an alternative name. An exact strong cross-source id match
// short-circuits straight to 1.0, per spec.
func similarity(a, b model.Organisation) (score float64, altNameDriven bool) {
	if idA, okA := strongID(a); okA {
		if idB, okB := strongID(b); okB && idA == idB {
			return 1.0, false
		}
	}

	var terms []weightedTerm

	if idA, okA := strongID(a); okA {
		if idB, okB := strongID(b); okB {
			terms = append(terms, weightedTerm{fieldWeight.id, stringSimilarity(idA, idB)})
		}
	}

	terms = append(terms, weightedTerm{fieldWeight.name, stringSimilarity(a.Name, b.Name)})

	altSim, viaAlternative := alternativeNameSimilarity(a, b)
	terms = append(terms, weightedTerm{fieldWeight.alternativeNames, altSim})

	if a.ParentOrganisation != "" || b.ParentOrganisation != "" {
		terms = append(terms, weightedTerm{fieldWeight.parentOrganisation, stringSimilarity(a.ParentOrganisation, b.ParentOrganisation)})
	}
	if a.Classification != "" || b.Classification != "" {
		terms = append(terms, weightedTerm{fieldWeight.classification, stringSimilarity(a.Classification, b.Classification)})
	}
	terms = append(terms, weightedTerm{fieldWeight.typ, exactFold(string(a.Type), string(b.Type))})
	if a.Location != nil || b.Location != nil {
		terms = append(terms, weightedTerm{fieldWeight.location, locationSimilarity(a.Location, b.Location)})
	}

	var weighted, total float64
	for _, t := range terms {
		weighted += t.weight * t.score
		total += t.weight
	}
	if total == 0 {
		return 0, false
	}

	combined := weighted / total
	nameSim := stringSimilarity(a.Name, b.Name)
	altNameDriven = viaAlternative && nameSim < similarityMergeThreshold && altSim >= similarityAltNameMergeThreshold
	return combined, altNameDriven
}

// isDuplicate applies spec §4.G's merge thresholds to two records
// already known to share a (country, type) bucket: combined similarity
// ≥0.9, or ≥0.85 when the match is carried by an alternative name.
func isDuplicate(a, b model.Organisation) bool {
	score, altNameDriven := similarity(a, b)
	if altNameDriven {
		return score >= similarityAltNameMergeThreshold
	}
	return score >= similarityMergeThreshold
}

// groupsAreDuplicates reports whether any record in one mergeKey group
// matches any record in another, per isDuplicate.
func groupsAreDuplicates(a, b []model.Organisation) bool {
	for _, ra := range a {
		for _, rb := range b {
			if isDuplicate(ra, rb) {
				return true
			}
		}
	}
	return false
}

// fuzzyMergeGroups is spec §4.G's "Similarity" sub-algorithm: within
// each (country, type) bucket, mergeKey groups that exact normalised-
// name grouping kept apart are merged anyway when a pair of their
// records clears the weighted similarity threshold — e.g. a name typo,
// an abbreviation outside the fixed expansion table, or a name one
// source only recorded as an alternative. Mutates groups in place and
// returns the surviving key order.
func fuzzyMergeGroups(order []string, groups map[string][]model.Organisation) []string {
	type bucketKey struct {
		country string
		typ     model.OrgType
	}
	buckets := map[bucketKey][]string{}
	for _, k := range order {
		rep := groups[k][0]
		country := ""
		if rep.Location != nil {
			country = strings.ToLower(strings.TrimSpace(rep.Location.Country))
		}
		buckets[bucketKey{country, rep.Type}] = append(buckets[bucketKey{country, rep.Type}], k)
	}

	absorbed := map[string]bool{}
	for _, keys := range buckets {
		for i := 0; i < len(keys); i++ {
			ki := keys[i]
			if absorbed[ki] {
				continue
			}
			for j := i + 1; j < len(keys); j++ {
				kj := keys[j]
				if absorbed[kj] {
					continue
				}
				if groupsAreDuplicates(groups[ki], groups[kj]) {
					groups[ki] = append(groups[ki], groups[kj]...)
					delete(groups, kj)
					absorbed[kj] = true
				}
			}
		}
	}

	survivors := make([]string, 0, len(order))
	for _, k := range order {
		if !absorbed[k] {
			survivors = append(survivors, k)
		}
	}
	return survivors
}
