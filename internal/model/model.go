// Package model defines the canonical organisation record, its
// sub-records, and the enums a driver's map stage produces. Structs are
// plain exported fields with JSON tags — no builder types, no getters —
// in the teacher's own data-model register (internal/models/opportunity.go
// is itself a flat struct with json tags and *time.Time for optional
// timestamps).
package model

import "time"

// Location is the organisation's geographic sub-record. All fields are
// optional; a driver populates whatever its source exposes.
type Location struct {
	Country     string   `json:"country,omitempty"`
	Region      string   `json:"region,omitempty"`
	Address     string   `json:"address,omitempty"`
	PostalCode  string   `json:"postalCode,omitempty"`
	Coordinates *LatLon  `json:"coordinates,omitempty"`
}

// LatLon is a point coordinate pair.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DataQualitySource classifies how a field's value was obtained.
type DataQualitySource string

const (
	DataQualityLive     DataQualitySource = "live"
	DataQualityFallback DataQualitySource = "fallback"
	DataQualityCache    DataQualitySource = "cache"
)

// DataQuality records the merge engine's assessment of a record's
// completeness and provenance quality.
type DataQuality struct {
	Completeness float64           `json:"completeness"`
	Source       DataQualitySource `json:"source,omitempty"`
}

// DataSourceReference is one entry in a record's provenance chain.
type DataSourceReference struct {
	Source      SourceId  `json:"source"`
	RetrievedAt time.Time `json:"retrievedAt"`
	SourceURL   string    `json:"sourceUrl,omitempty"`
	Confidence  float64   `json:"confidence"`
}

// Organisation is the canonical record emitted by a driver's map stage
// and, after dedup, published in the aggregated artifact.
type Organisation struct {
	ID                   string                 `json:"id"`
	Name                 string                 `json:"name"`
	AlternativeNames     []string               `json:"alternativeNames,omitempty"`
	Type                 OrgType                `json:"type"`
	Classification       string                 `json:"classification,omitempty"`
	Status               OrgStatus              `json:"status"`
	ParentOrganisation   string                 `json:"parentOrganisation,omitempty"`
	ControllingUnit      string                 `json:"controllingUnit,omitempty"`
	Location             *Location              `json:"location,omitempty"`
	EstablishmentDate    *time.Time             `json:"establishmentDate,omitempty"`
	DissolutionDate      *time.Time             `json:"dissolutionDate,omitempty"`
	Website              string                 `json:"website,omitempty"`
	Sources              []DataSourceReference  `json:"sources"`
	AdditionalProperties map[string]interface{} `json:"additionalProperties,omitempty"`
	DataQuality          *DataQuality           `json:"dataQuality,omitempty"`
	LastUpdated          time.Time              `json:"lastUpdated"`
}

// SourceMetadata summarises one driver's contribution to a run.
type SourceMetadata struct {
	Source          SourceId  `json:"source"`
	RecordCount     int       `json:"recordCount"`
	Succeeded       bool      `json:"succeeded"`
	Error           string    `json:"error,omitempty"`
	PartialWarnings []string  `json:"partialWarnings,omitempty"`
	RetrievedAt     time.Time `json:"retrievedAt"`
	DurationMS      int64     `json:"durationMs"`
}

// Statistics is the aggregate numeric summary attached to a run.
type Statistics struct {
	TotalOrganisations  int            `json:"totalOrganisations"`
	DuplicatesFound     int            `json:"duplicatesFound"`
	ConflictsDetected   int            `json:"conflictsDetected"`
	OrganisationsByType map[string]int `json:"organisationsByType"`
}

// ProcessingMetadata accompanies the organisation list in the published
// artifact.
type ProcessingMetadata struct {
	ProcessedAt time.Time        `json:"processedAt"`
	Sources     []SourceMetadata `json:"sources"`
	Statistics  Statistics       `json:"statistics"`
}

// Artifact is the top-level shape written to dist/orgs.json.
type Artifact struct {
	Organisations []Organisation     `json:"organisations"`
	Metadata      ProcessingMetadata `json:"metadata"`
}
