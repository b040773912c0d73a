package model

import (
	"testing"
	"time"
)

func TestInferTypeFromClassification(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  OrgType
	}{
		{"local authority", "Local Authority", TypeLocalAuthority},
		{"nhs foundation trust", "NHS Foundation Trust", TypeNHSFoundationTrust},
		{"tribunal ndpb", "Tribunal NDPB", TypeTribunalNDPB},
		{"unknown falls back to other", "Some Unrecognised Label", TypeOther},
		{"empty falls back to other", "", TypeOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferTypeFromClassification(tt.input); got != tt.want {
				t.Errorf("InferTypeFromClassification(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestMapStatus(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  OrgStatus
	}{
		{"dissolved", "Dissolved", StatusDissolved},
		{"closed", "closed", StatusDissolved},
		{"exempted buckets inactive", "Exempted", StatusInactive},
		{"dormant", "  dormant  ", StatusInactive},
		{"blank defaults active", "", StatusActive},
		{"unrecognised defaults active", "thriving", StatusActive},
		{"stable under case and whitespace", "  DISSOLVED  ", StatusDissolved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapStatus(tt.input); got != tt.want {
				t.Errorf("MapStatus(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDateRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"iso", "2020-04-01", "2020-04-01"},
		{"slash dd/mm/yyyy", "01/04/2020", "2020-04-01"},
		{"dash dd-mm-yyyy", "01-04-2020", "2020-04-01"},
		{"bare year", "1974", "1974-01-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			if !ok {
				t.Fatalf("ParseDate(%q) returned ok=false", tt.input)
			}
			if FormatDate(got) != tt.want {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, FormatDate(got), tt.want)
			}
		})
	}
}

func TestParseDateNeverGuesses(t *testing.T) {
	tests := []string{"", "not a date", "32/13/2020", "soon"}
	for _, input := range tests {
		if _, ok := ParseDate(input); ok {
			t.Errorf("ParseDate(%q) returned ok=true, want false (no partial guesses)", input)
		}
	}
}

func TestValidateRejectsMissingSources(t *testing.T) {
	o := &Organisation{Name: "Example", Type: TypeOther, Status: StatusActive}
	if err := Validate(o); err == nil {
		t.Fatal("expected error for organisation with no sources")
	}
}

func TestValidateRejectsDissolutionBeforeEstablishment(t *testing.T) {
	est := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	dis := time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)
	o := &Organisation{
		Name:              "Example",
		Type:              TypeOther,
		Status:            StatusDissolved,
		EstablishmentDate: &est,
		DissolutionDate:   &dis,
		Sources:           []DataSourceReference{{Source: SourceGovUKAPI, Confidence: 1}},
	}
	if err := Validate(o); err == nil {
		t.Fatal("expected error for dissolutionDate before establishmentDate")
	}
}

func TestValidateAcceptsWellFormedRecord(t *testing.T) {
	o := &Organisation{
		Name:    "Department for Transport",
		Type:    TypeMinisterialDepartment,
		Status:  StatusActive,
		Sources: []DataSourceReference{{Source: SourceGovUKAPI, Confidence: 1}},
	}
	if err := Validate(o); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPriorityRankUnlistedSourceRanksLast(t *testing.T) {
	if PriorityRank("name", SourcePoliceUKAPI) <= PriorityRank("name", SourceGovUKAPI) {
		t.Error("an unlisted extra source must never outrank gov_uk_api")
	}
}
