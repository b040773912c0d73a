package dedup

import (
	"strings"
	"time"

	"github.com/ukgov/org-registry/internal/model"
)

// mergeGroup folds a set of records sharing one mergeKey into a single
// canonical record, per spec §4.G steps 1-7. Returns the merged record
// and the number of field-level conflicts it resolved.
func mergeGroup(group []model.Organisation) (model.Organisation, int) {
	if len(group) == 1 {
		out := group[0]
		out.DataQuality = &model.DataQuality{Completeness: completeness(out), Source: qualitySource(out)}
		return out, 0
	}

	conflicts := 0
	result := group[0]
	result.AlternativeNames = nil
	result.Sources = nil

	for _, r := range group {
		result.Sources = unionSources(result.Sources, r.Sources)
	}

	result.Name, conflicts = mergeScalarField("name", result.Name, group, conflicts)
	var typStr string
	typStr, conflicts = mergeScalarField("type", string(resultType(group)), group, conflicts)
	result.Type = model.OrgType(typStr)

	// status is resolved by spec §4.G step 4's hard override — a
	// dissolved status backed by a dissolution date always wins — not by
	// the ordinary per-field source-priority table mergeScalarField
	// applies to every other field.
	result.Status = mergeStatus(group)
	if !allEqual(statusValues(group)) {
		conflicts++
	}

	result.Classification, conflicts = mergeScalarField("classification", pickLongest("classification", group), group, conflicts)
	result.ParentOrganisation, conflicts = mergeScalarField("parentOrganisation", pickLongest("parentOrganisation", group), group, conflicts)
	result.ControllingUnit, conflicts = mergeScalarField("controllingUnit", pickLongest("controllingUnit", group), group, conflicts)

	for _, r := range group {
		result.AlternativeNames = unionStringsFold(result.AlternativeNames, r.AlternativeNames)
		if r.Name != result.Name {
			result.AlternativeNames = unionStringsFold(result.AlternativeNames, []string{r.Name})
		}
	}

	result.EstablishmentDate = earliestEstablishment(group)
	result.DissolutionDate = latestDissolution(group)
	result.Location = mergeLocation(group)
	result.Website = pickLongest("website", group)

	result.DataQuality = &model.DataQuality{Completeness: completeness(result), Source: model.DataQualityLive}
	return result, conflicts
}

// mergeScalarField resolves one scalar field across a group by per-field
// source priority (model.FieldPriority / model.PriorityRank), preferring
// the longest non-empty value within the same priority rank — spec
// §4.G step 2.
func mergeScalarField(field, current string, group []model.Organisation, conflicts int) (string, int) {
	best := current
	bestRank := len(model.FieldPriority[field]) + 1
	seenValues := map[string]bool{strings.TrimSpace(current): true}

	for _, r := range group {
		val := fieldValue(field, r)
		if val == "" {
			continue
		}
		rank := bestSourceRank(field, r)
		switch {
		case best == "":
			best, bestRank = val, rank
		case rank < bestRank:
			best, bestRank = val, rank
		case rank == bestRank && len(val) > len(best):
			best = val
		}
		if !seenValues[strings.TrimSpace(val)] {
			seenValues[strings.TrimSpace(val)] = true
		}
	}
	if len(seenValues) > 1 {
		conflicts++
	}
	return best, conflicts
}

func fieldValue(field string, o model.Organisation) string {
	switch field {
	case "name":
		return o.Name
	case "type":
		return string(o.Type)
	case "status":
		return string(o.Status)
	case "classification":
		return o.Classification
	case "parentOrganisation":
		return o.ParentOrganisation
	case "controllingUnit":
		return o.ControllingUnit
	}
	return ""
}

// bestSourceRank returns the best (lowest) priority rank among a
// record's sources for the given field.
func bestSourceRank(field string, o model.Organisation) int {
	best := len(model.FieldPriority[field]) + 1
	for _, ref := range o.Sources {
		if rank := model.PriorityRank(field, ref.Source); rank < best {
			best = rank
		}
	}
	return best
}

func resultType(group []model.Organisation) model.OrgType {
	for _, r := range group {
		if r.Type.Valid() && r.Type != model.TypeOther {
			return r.Type
		}
	}
	return group[0].Type
}

// mergeStatus implements spec §4.G step 4: a dissolved status backed by
// a dissolution date wins outright; otherwise the most-recently-reported
// status is kept.
func mergeStatus(group []model.Organisation) model.OrgStatus {
	for _, r := range group {
		if r.Status == model.StatusDissolved && r.DissolutionDate != nil {
			return model.StatusDissolved
		}
	}
	var latest model.Organisation
	var haveLatest bool
	for _, r := range group {
		if !haveLatest || r.LastUpdated.After(latest.LastUpdated) {
			latest = r
			haveLatest = true
		}
	}
	if haveLatest {
		return latest.Status
	}
	return group[0].Status
}

func statusValues(group []model.Organisation) []string {
	out := make([]string, len(group))
	for i, r := range group {
		out[i] = string(r.Status)
	}
	return out
}

func allEqual(values []string) bool {
	for _, v := range values {
		if v != values[0] {
			return false
		}
	}
	return true
}

func pickLongest(field string, group []model.Organisation) string {
	best := ""
	for _, r := range group {
		val := fieldValue(field, r)
		if field == "website" {
			val = r.Website
		}
		if len(val) > len(best) {
			best = val
		}
	}
	return best
}

// earliestEstablishment implements spec §4.G step 5: when multiple
// sources report an establishment date, the earliest wins.
func earliestEstablishment(group []model.Organisation) *time.Time {
	var best *time.Time
	for _, r := range group {
		if r.EstablishmentDate == nil {
			continue
		}
		if best == nil || r.EstablishmentDate.Before(*best) {
			t := *r.EstablishmentDate
			best = &t
		}
	}
	return best
}

// latestDissolution implements spec §4.G step 5: the latest reported
// dissolution date wins.
func latestDissolution(group []model.Organisation) *time.Time {
	var best *time.Time
	for _, r := range group {
		if r.DissolutionDate == nil {
			continue
		}
		if best == nil || r.DissolutionDate.After(*best) {
			t := *r.DissolutionDate
			best = &t
		}
	}
	return best
}

func unionSources(dst, src []model.DataSourceReference) []model.DataSourceReference {
	seen := map[model.SourceId]bool{}
	for _, r := range dst {
		seen[r.Source] = true
	}
	for _, r := range src {
		if !seen[r.Source] {
			dst = append(dst, r)
			seen[r.Source] = true
		}
	}
	return dst
}

func unionStringsFold(dst []string, items []string) []string {
	seen := map[string]bool{}
	for _, v := range dst {
		seen[strings.ToLower(strings.TrimSpace(v))] = true
	}
	for _, v := range items {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		k := strings.ToLower(v)
		if seen[k] {
			continue
		}
		dst = append(dst, v)
		seen[k] = true
	}
	return dst
}

func mergeLocation(group []model.Organisation) *model.Location {
	var best *model.Location
	for _, r := range group {
		if r.Location == nil {
			continue
		}
		if best == nil {
			cp := *r.Location
			best = &cp
			continue
		}
		if best.Country == "" {
			best.Country = r.Location.Country
		}
		if best.Region == "" {
			best.Region = r.Location.Region
		}
		if best.Address == "" {
			best.Address = r.Location.Address
		}
		if best.PostalCode == "" {
			best.PostalCode = r.Location.PostalCode
		}
		if best.Coordinates == nil {
			best.Coordinates = r.Location.Coordinates
		}
	}
	return best
}

func completeness(o model.Organisation) float64 {
	fields := []string{
		o.Name, string(o.Type), string(o.Status), o.Classification,
		o.ParentOrganisation, o.ControllingUnit, o.Website,
	}
	nonEmpty := 0
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			nonEmpty++
		}
	}
	total := len(fields) + 2
	if o.Location != nil {
		nonEmpty++
	}
	if o.EstablishmentDate != nil {
		nonEmpty++
	}
	return float64(nonEmpty) / float64(total)
}

func qualitySource(o model.Organisation) model.DataQualitySource {
	if o.DataQuality != nil && o.DataQuality.Source != "" {
		return o.DataQuality.Source
	}
	return model.DataQualityLive
}
