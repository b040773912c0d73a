package model

import "strings"

// OrgStatus is the closed lifecycle status of an organisation.
type OrgStatus string

const (
	StatusActive     OrgStatus = "active"
	StatusInactive   OrgStatus = "inactive"
	StatusDissolved  OrgStatus = "dissolved"
)

// Valid reports whether s is one of the three closed status values.
func (s OrgStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusDissolved:
		return true
	}
	return false
}

var dissolvedTokens = []string{"dissolved", "closed", "defunct", "abolished", "merged"}

// inactiveTokens also covers "exempted": exemption from registration is a
// regulatory-standing change, not proof the organisation has ceased to
// exist, so it buckets with inactive rather than dissolved.
var inactiveTokens = []string{"inactive", "dormant", "suspended", "exempted", "exempt"}

// MapStatus maps free-text source status wording to the closed OrgStatus
// enum, stable under surrounding whitespace and case. Grounded on the
// teacher's mapSourceStatusRaw token-bucket matching in status_engine.go.
func MapStatus(raw string) OrgStatus {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if lower == "" {
		return StatusActive
	}
	for _, tok := range dissolvedTokens {
		if strings.Contains(lower, tok) {
			return StatusDissolved
		}
	}
	for _, tok := range inactiveTokens {
		if strings.Contains(lower, tok) {
			return StatusInactive
		}
	}
	return StatusActive
}
