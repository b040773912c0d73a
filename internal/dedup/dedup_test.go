package dedup

import (
	"testing"
	"time"

	"github.com/ukgov/org-registry/internal/model"
)

func ref(src model.SourceId) []model.DataSourceReference {
	return []model.DataSourceReference{{Source: src, RetrievedAt: time.Now().UTC(), Confidence: 0.9}}
}

// S1 — Dedup across sources.
func TestDeduplicateMergesAcrossSourcesByName(t *testing.T) {
	a := model.Organisation{
		ID: "GOVUK_department-for-transport", Name: "Department for Transport",
		Type: model.TypeMinisterialDepartment, Status: model.StatusActive,
		Sources: ref(model.SourceGovUKAPI),
	}
	b := model.Organisation{
		ID: "ONS_department-for-transport", Name: "Department for Transport",
		Type: model.TypeMinisterialDepartment, Classification: "Central Government", Status: model.StatusActive,
		Sources: ref(model.SourceONSInstitutional),
	}

	result := Deduplicate([]model.Organisation{a, b})
	if result.DeduplicatedCount != 1 {
		t.Fatalf("DeduplicatedCount = %d, want 1", result.DeduplicatedCount)
	}
	merged := result.Organisations[0]
	if merged.Type != model.TypeMinisterialDepartment {
		t.Errorf("Type = %q, want ministerial_department (gov.uk wins)", merged.Type)
	}
	if merged.Classification != "Central Government" {
		t.Errorf("Classification = %q, want %q (ONS wins)", merged.Classification, "Central Government")
	}
	if len(merged.Sources) != 2 {
		t.Errorf("len(Sources) = %d, want 2 (union of both)", len(merged.Sources))
	}
}

// S2 — Status precedence.
func TestDeduplicateDissolvedWithDateWinsOverActive(t *testing.T) {
	dissolved := time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC)
	a := model.Organisation{
		ID: "GOVUK_quango-x", Name: "Quango X", Type: model.TypeExecutiveNDPB,
		Status: model.StatusActive, Sources: ref(model.SourceGovUKAPI),
	}
	b := model.Organisation{
		ID: "ONS_quango-x", Name: "Quango X", Type: model.TypeExecutiveNDPB,
		Status: model.StatusDissolved, DissolutionDate: &dissolved,
		Sources: ref(model.SourceONSInstitutional),
	}

	result := Deduplicate([]model.Organisation{a, b})
	if result.DeduplicatedCount != 1 {
		t.Fatalf("DeduplicatedCount = %d, want 1", result.DeduplicatedCount)
	}
	merged := result.Organisations[0]
	if merged.Status != model.StatusDissolved {
		t.Errorf("Status = %q, want dissolved", merged.Status)
	}
	if merged.DissolutionDate == nil || !merged.DissolutionDate.Equal(dissolved) {
		t.Errorf("DissolutionDate = %v, want %v", merged.DissolutionDate, dissolved)
	}
}

// S5 — Normalised-name merging.
func TestDeduplicateCollapsesStopwordVariantsAndUnionsAlternativeNames(t *testing.T) {
	a := model.Organisation{
		ID: "GOVUK_the-met-office", Name: "The Met Office", Type: model.TypeExecutiveAgency,
		Status: model.StatusActive, Sources: ref(model.SourceGovUKAPI),
	}
	b := model.Organisation{
		ID: "ONS_met-office", Name: "Met Office", Type: model.TypeExecutiveAgency,
		AlternativeNames: []string{"MO"}, Status: model.StatusActive,
		Sources: ref(model.SourceONSInstitutional),
	}

	result := Deduplicate([]model.Organisation{a, b})
	if result.DeduplicatedCount != 1 {
		t.Fatalf("DeduplicatedCount = %d, want 1", result.DeduplicatedCount)
	}
	merged := result.Organisations[0]
	found := false
	for _, n := range merged.AlternativeNames {
		if n == "MO" {
			found = true
		}
	}
	if !found {
		t.Errorf("AlternativeNames = %v, want to contain %q", merged.AlternativeNames, "MO")
	}
}

func TestDeduplicateKeepsDifferentTypesSeparate(t *testing.T) {
	a := model.Organisation{
		ID: "GOVUK_trust-x", Name: "Trust X", Type: model.TypeNHSTrust,
		Status: model.StatusActive, Sources: ref(model.SourceGovUKAPI),
	}
	b := model.Organisation{
		ID: "ONS_trust-x", Name: "Trust X", Type: model.TypeLocalAuthority,
		Status: model.StatusActive, Sources: ref(model.SourceONSInstitutional),
	}

	result := Deduplicate([]model.Organisation{a, b})
	if result.DeduplicatedCount != 2 {
		t.Fatalf("DeduplicatedCount = %d, want 2 (same name, different type must not merge)", result.DeduplicatedCount)
	}
}

func TestDeduplicateIsIdempotentUpToLastUpdated(t *testing.T) {
	a := model.Organisation{
		ID: "GOVUK_dft", Name: "Department for Transport", Type: model.TypeMinisterialDepartment,
		Status: model.StatusActive, Sources: ref(model.SourceGovUKAPI),
	}
	b := model.Organisation{
		ID: "ONS_dft", Name: "Department for Transport", Type: model.TypeMinisterialDepartment,
		Classification: "Central Government",
		Status:         model.StatusActive, Sources: ref(model.SourceONSInstitutional),
	}

	once := Deduplicate([]model.Organisation{a, b})
	twice := Deduplicate(once.Organisations)

	if twice.DeduplicatedCount != once.DeduplicatedCount {
		t.Fatalf("dedup(dedup(X)) changed record count: %d vs %d", twice.DeduplicatedCount, once.DeduplicatedCount)
	}
	if once.Organisations[0].Name != twice.Organisations[0].Name {
		t.Errorf("names diverged across a second dedup pass")
	}
}

// Strong cross-source id merge path (spec §4.G "if a strong
// cross-source id is known ... use it"): two records whose normalised
// names are nowhere near each other still merge when they share a
// sourceNaturalKey, the way a GIAS URN and an ONS code can both echo
// the same underlying institution.
func TestDeduplicateMergesOnStrongNaturalKeyDespiteDifferentNames(t *testing.T) {
	a := model.Organisation{
		ID: "GIAS_12345", Name: "St Aldhelm's Academy", Type: model.TypeEducationalInstitution,
		Status: model.StatusActive, Sources: ref(model.SourceGIAS),
		AdditionalProperties: map[string]interface{}{"sourceNaturalKey": "URN-12345"},
	}
	b := model.Organisation{
		ID: "ONS_12345", Name: "Academy Trust Number Nine", Type: model.TypeEducationalInstitution,
		Status: model.StatusActive, Sources: ref(model.SourceONSInstitutional),
		AdditionalProperties: map[string]interface{}{"sourceNaturalKey": "urn-12345"},
	}

	result := Deduplicate([]model.Organisation{a, b})
	if result.DeduplicatedCount != 1 {
		t.Fatalf("DeduplicatedCount = %d, want 1 (strong id match must merge despite dissimilar names)", result.DeduplicatedCount)
	}
	merged := result.Organisations[0]
	if len(merged.Sources) != 2 {
		t.Errorf("len(Sources) = %d, want 2 (union of both)", len(merged.Sources))
	}
}

// Fuzzy similarity cross-check (spec §4.G "Similarity"): no strong id
// and no exact normalised-name match, but the combined weighted field
// similarity clears 0.9 within the same (country, type) bucket.
func TestDeduplicateFuzzyMergesNearIdenticalNamesInSameBucket(t *testing.T) {
	a := model.Organisation{
		ID: "GOVUK_environment-agency", Name: "Environment Agency", Type: model.TypeExecutiveNDPB,
		Classification: "Executive Non-Departmental Public Body", Status: model.StatusActive,
		Location: &model.Location{Country: "United Kingdom", Region: "Bristol"},
		Sources:  ref(model.SourceGovUKAPI),
	}
	b := model.Organisation{
		ID: "ONS_enviroment-agency", Name: "Enviroment Agency", Type: model.TypeExecutiveNDPB,
		Classification: "Executive Non-Departmental Public Body", Status: model.StatusActive,
		Location: &model.Location{Country: "United Kingdom", Region: "Bristol"},
		Sources:  ref(model.SourceONSInstitutional),
	}

	result := Deduplicate([]model.Organisation{a, b})
	if result.DeduplicatedCount != 1 {
		t.Fatalf("DeduplicatedCount = %d, want 1 (fuzzy similarity must merge a near-identical misspelling)", result.DeduplicatedCount)
	}
}

func TestDeduplicateFuzzyCrossCheckDoesNotMergeDissimilarNamesInSameBucket(t *testing.T) {
	a := model.Organisation{
		ID: "GOVUK_environment-agency", Name: "Environment Agency", Type: model.TypeExecutiveNDPB,
		Status: model.StatusActive, Sources: ref(model.SourceGovUKAPI),
	}
	b := model.Organisation{
		ID: "ONS_forestry-commission", Name: "Forestry Commission", Type: model.TypeExecutiveNDPB,
		Status: model.StatusActive, Sources: ref(model.SourceONSInstitutional),
	}

	result := Deduplicate([]model.Organisation{a, b})
	if result.DeduplicatedCount != 2 {
		t.Fatalf("DeduplicatedCount = %d, want 2 (unrelated names in the same bucket must not merge)", result.DeduplicatedCount)
	}
}

func TestDeduplicateOutputSortedByID(t *testing.T) {
	a := model.Organisation{ID: "ONS_zzz", Name: "Zzz Agency", Type: model.TypeOther, Status: model.StatusActive, Sources: ref(model.SourceONSInstitutional)}
	b := model.Organisation{ID: "GOVUK_aaa", Name: "Aaa Agency", Type: model.TypeOther, Status: model.StatusActive, Sources: ref(model.SourceGovUKAPI)}

	result := Deduplicate([]model.Organisation{a, b})
	if result.Organisations[0].ID != "GOVUK_aaa" {
		t.Errorf("Organisations[0].ID = %q, want GOVUK_aaa (ascending id sort)", result.Organisations[0].ID)
	}
}
