package model

// SourceId is the closed registry of external data sources a
// DataSourceReference may point to.
type SourceId string

const (
	SourceGovUKAPI                   SourceId = "gov_uk_api"
	SourceONSInstitutional           SourceId = "ons_institutional"
	SourceONSNonInstitutional        SourceId = "ons_non_institutional"
	SourceNHSProviderDirectory       SourceId = "nhs_provider_directory"
	SourceDEFRAUKAir                 SourceId = "defra_uk_air"
	SourceGIAS                       SourceId = "gias"
	SourceDevolvedAdminStatic        SourceId = "devolved_admin_static"
	SourcePoliceUKAPI                SourceId = "police_uk_api"
	SourceNFCC                       SourceId = "nfcc"
	SourceGovUKGuidance              SourceId = "gov_uk_guidance"
	SourceAOC                        SourceId = "aoc"
	SourceNIEducation                SourceId = "ni_education"
	SourceUKCourtsCSV                SourceId = "uk_courts_csv"
	SourceNICourts                   SourceId = "ni_courts"
	SourceScottishCourts             SourceId = "scottish_courts"
	SourceGroundwork                 SourceId = "groundwork"
	SourceNHSCharities               SourceId = "nhs_charities"
	SourceWikipediaWelshCommunities  SourceId = "wikipedia_welsh_communities"
	SourceWikipediaScottishCommunities SourceId = "wikipedia_scottish_communities"
	SourceNIHealth                   SourceId = "ni_health"
	SourceONSUnitary                 SourceId = "ons_unitary"
	SourceWikipediaDistricts         SourceId = "wikipedia_districts"
	SourceNationalParksUK            SourceId = "nationalparks_uk"
	SourceNHSICBs                    SourceId = "nhs_icbs"
	SourceHealthwatch                SourceId = "healthwatch"
	SourceMyGovScot                  SourceId = "mygov_scot"
	SourceNHSScotlandBoards          SourceId = "nhs_scotland_boards"
	SourceTransportScotlandRTPs      SourceId = "transport_scotland_rtps"
	SourceLawGovWales                SourceId = "law_gov_wales"
	SourceInfrastructureNIPorts      SourceId = "infrastructure_ni_ports"
	SourceNIGovernment               SourceId = "ni_government"
	SourceUKRI                       SourceId = "ukri"
)

// allSourceIDs is the closed set in registry declaration order.
var allSourceIDs = []SourceId{
	SourceGovUKAPI, SourceONSInstitutional, SourceONSNonInstitutional,
	SourceNHSProviderDirectory, SourceDEFRAUKAir, SourceGIAS,
	SourceDevolvedAdminStatic, SourcePoliceUKAPI, SourceNFCC,
	SourceGovUKGuidance, SourceAOC, SourceNIEducation, SourceUKCourtsCSV,
	SourceNICourts, SourceScottishCourts, SourceGroundwork, SourceNHSCharities,
	SourceWikipediaWelshCommunities, SourceWikipediaScottishCommunities,
	SourceNIHealth, SourceONSUnitary, SourceWikipediaDistricts,
	SourceNationalParksUK, SourceNHSICBs, SourceHealthwatch, SourceMyGovScot,
	SourceNHSScotlandBoards, SourceTransportScotlandRTPs, SourceLawGovWales,
	SourceInfrastructureNIPorts, SourceNIGovernment, SourceUKRI,
}

// Valid reports whether id is one of the closed registry values.
func (id SourceId) Valid() bool {
	for _, v := range allSourceIDs {
		if v == id {
			return true
		}
	}
	return false
}

// AllSourceIDs returns the closed registry in declaration order.
func AllSourceIDs() []SourceId {
	out := make([]SourceId, len(allSourceIDs))
	copy(out, allSourceIDs)
	return out
}

// FieldPriority is the per-field, per-source precedence table used by the
// dedup merge engine (spec §4.G). Index 0 is highest priority. A source
// absent from a field's list is treated as lowest priority (after all
// listed sources), never outranking a listed authoritative source.
var FieldPriority = map[string][]SourceId{
	"name":               {SourceGovUKAPI, SourceONSInstitutional, SourceONSNonInstitutional},
	"type":                {SourceGovUKAPI, SourceONSInstitutional, SourceONSNonInstitutional},
	"status":              {SourceGovUKAPI, SourceONSInstitutional, SourceONSNonInstitutional},
	"classification":      {SourceONSInstitutional, SourceONSNonInstitutional, SourceGovUKAPI},
	"parentOrganisation":  {SourceGovUKAPI, SourceONSInstitutional},
	"controllingUnit":     {SourceONSNonInstitutional, SourceONSInstitutional},
	"establishmentDate":   {SourceONSInstitutional, SourceGovUKAPI},
	"dissolutionDate":     {SourceONSInstitutional, SourceGovUKAPI},
}

// PriorityRank returns id's rank in field's priority list (lower is
// higher priority). Sources not listed rank after every listed source,
// so an "extra" source (police, fire, colleges, etc.) never outranks
// gov.uk/ONS even when its own fetch is more recent — the priority
// ordering is a static policy, not a freshness contest.
func PriorityRank(field string, id SourceId) int {
	list := FieldPriority[field]
	for i, v := range list {
		if v == id {
			return i
		}
	}
	return len(list)
}
