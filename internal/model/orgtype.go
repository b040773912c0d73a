package model

import "strings"

// OrgType is the closed structural classification of an organisation.
type OrgType string

const (
	TypeMinisterialDepartment OrgType = "ministerial_department"
	TypeExecutiveAgency       OrgType = "executive_agency"
	TypeExecutiveNDPB         OrgType = "executive_ndpb"
	TypeAdvisoryNDPB          OrgType = "advisory_ndpb"
	TypeTribunalNDPB          OrgType = "tribunal_ndpb"
	TypeNDPB                  OrgType = "ndpb"
	TypePublicCorporation     OrgType = "public_corporation"
	TypeLocalAuthority        OrgType = "local_authority"
	TypeNHSTrust              OrgType = "nhs_trust"
	TypeNHSFoundationTrust    OrgType = "nhs_foundation_trust"
	TypeDevolvedAdmin         OrgType = "devolved_administration"
	TypeEducationalInstitution OrgType = "educational_institution"
	TypeEmergencyService      OrgType = "emergency_service"
	TypeCourt                 OrgType = "court"
	TypeResearchCouncil       OrgType = "research_council"
	TypeCommunityCouncil      OrgType = "community_council"
	TypeHealthBoard           OrgType = "health_board"
	TypeTransportPartnership  OrgType = "transport_partnership"
	TypeUnitaryAuthority      OrgType = "unitary_authority"
	TypeDistrictCouncil       OrgType = "district_council"
	TypeNationalPark          OrgType = "national_park"
	TypeOther                 OrgType = "other"
)

// orgTypes is the closed set, in declaration order, used for Valid and
// for iterating a reliable snake_case token table.
var orgTypes = []OrgType{
	TypeMinisterialDepartment, TypeExecutiveAgency, TypeExecutiveNDPB,
	TypeAdvisoryNDPB, TypeTribunalNDPB, TypeNDPB, TypePublicCorporation,
	TypeLocalAuthority, TypeNHSTrust, TypeNHSFoundationTrust, TypeDevolvedAdmin,
	TypeEducationalInstitution, TypeEmergencyService, TypeCourt,
	TypeResearchCouncil, TypeCommunityCouncil, TypeHealthBoard,
	TypeTransportPartnership, TypeUnitaryAuthority, TypeDistrictCouncil,
	TypeNationalPark, TypeOther,
}

// Valid reports whether t is one of the closed OrgType values.
func (t OrgType) Valid() bool {
	for _, v := range orgTypes {
		if v == t {
			return true
		}
	}
	return false
}

// classificationHint pairs a keyword with the type it implies. Hints are
// checked longest-phrase-first so "NHS Foundation Trust" is matched
// before the shorter "NHS Trust" substring — the same longest-match
// discipline the teacher's status/results keyword lists use.
type classificationHint struct {
	phrase string
	typ    OrgType
}

var classificationHints = []classificationHint{
	{"nhs foundation trust", TypeNHSFoundationTrust},
	{"executive non-departmental public body", TypeExecutiveNDPB},
	{"advisory non-departmental public body", TypeAdvisoryNDPB},
	{"tribunal non-departmental public body", TypeTribunalNDPB},
	{"tribunal ndpb", TypeTribunalNDPB},
	{"advisory ndpb", TypeAdvisoryNDPB},
	{"executive ndpb", TypeExecutiveNDPB},
	{"non-departmental public body", TypeNDPB},
	{"ndpb", TypeNDPB},
	{"ministerial department", TypeMinisterialDepartment},
	{"executive agency", TypeExecutiveAgency},
	{"public corporation", TypePublicCorporation},
	{"unitary authority", TypeUnitaryAuthority},
	{"district council", TypeDistrictCouncil},
	{"community council", TypeCommunityCouncil},
	{"local authority", TypeLocalAuthority},
	{"nhs trust", TypeNHSTrust},
	{"devolved administration", TypeDevolvedAdmin},
	{"educational institution", TypeEducationalInstitution},
	{"research council", TypeResearchCouncil},
	{"health board", TypeHealthBoard},
	{"transport partnership", TypeTransportPartnership},
	{"national park", TypeNationalPark},
	{"police", TypeEmergencyService},
	{"fire", TypeEmergencyService},
	{"emergency service", TypeEmergencyService},
	{"court", TypeCourt},
	{"tribunal", TypeCourt},
}

// InferTypeFromClassification maps a free-text classification label to
// an OrgType using an ordered, longest-phrase-first keyword match,
// falling back to TypeOther. Grounded on the teacher's mapSourceStatusRaw
// hint-list style in status_engine.go.
func InferTypeFromClassification(classification string) OrgType {
	lower := strings.ToLower(strings.TrimSpace(classification))
	if lower == "" {
		return TypeOther
	}
	best, bestLen := TypeOther, 0
	for _, hint := range classificationHints {
		if len(hint.phrase) > bestLen && strings.Contains(lower, hint.phrase) {
			best, bestLen = hint.typ, len(hint.phrase)
		}
	}
	return best
}
