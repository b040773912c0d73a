package model

import (
	"strings"

	"github.com/ukgov/org-registry/internal/errs"
)

// Validate checks the invariants a canonical record must satisfy after a
// driver's map stage (spec §3 Invariants 1,2,5). Dedup-stage-only
// invariants (no duplicate mergeKey) are checked by internal/dedup, not
// here, since a single record can't violate them in isolation.
func Validate(o *Organisation) error {
	if len(o.Sources) == 0 {
		return &errs.Validation{Field: "sources", Rule: "at least one DataSourceReference required"}
	}
	if strings.TrimSpace(o.Name) == "" {
		return &errs.Validation{Field: "name", Rule: "non-empty after trimming"}
	}
	if len(o.Name) > 500 {
		return &errs.Validation{Field: "name", Rule: "must be <= 500 chars"}
	}
	if len(o.Classification) > 200 {
		return &errs.Validation{Field: "classification", Rule: "must be <= 200 chars"}
	}
	if !o.Type.Valid() {
		return &errs.Validation{Field: "type", Rule: "must be a known OrgType"}
	}
	if !o.Status.Valid() {
		return &errs.Validation{Field: "status", Rule: "must be one of active, inactive, dissolved"}
	}
	if o.EstablishmentDate != nil && o.DissolutionDate != nil {
		if o.DissolutionDate.Before(*o.EstablishmentDate) {
			return &errs.Validation{Field: "dissolutionDate", Rule: "must be >= establishmentDate"}
		}
	}
	return nil
}
