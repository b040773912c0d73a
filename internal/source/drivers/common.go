// Package drivers holds the ~32 per-SourceId implementations of the
// source.Driver contract. Each driver's map stage is a pure function
// raw → model.Organisation, in the idiom of the teacher's FromRaw
// (normalizer.go) — never an inheritance hierarchy, per spec §9's
// design note to compose behaviour by parameterising fetcher, parser,
// and mapper rather than subclassing.
package drivers

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/ukgov/org-registry/internal/errs"
	"github.com/ukgov/org-registry/internal/model"
)

// slugify produces a deterministic, stable identifier fragment from free
// text: lowercase, non-alphanumerics collapsed to single hyphens. Used
// wherever a source has no natural stable id of its own.
func slugify(s string) string {
	var b strings.Builder
	lastHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen && b.Len() > 0 {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// hashID derives a short, stable identifier from arbitrary text when no
// natural key exists — e.g. an HTML driver keying off a canonical URL.
func hashID(prefix, text string) string {
	sum := sha1.Sum([]byte(text))
	return fmt.Sprintf("%s_%s", prefix, hex.EncodeToString(sum[:])[:12])
}

// idPrefixes implements spec §4.D rule 2: "Assign a deterministic id to
// each record (prefix by source type: WCC_, SCC_, NIHT_, URN for
// schools, ONS code when present, else slug of normalised name)".
var idPrefixes = map[model.SourceId]string{
	model.SourceGovUKAPI:                   "GOVUK",
	model.SourceONSInstitutional:           "ONS",
	model.SourceONSNonInstitutional:        "ONSNI",
	model.SourceNHSProviderDirectory:       "NHS",
	model.SourceDEFRAUKAir:                 "DEFRA",
	model.SourceGIAS:                       "URN",
	model.SourceDevolvedAdminStatic:        "DEVADM",
	model.SourcePoliceUKAPI:                "POL",
	model.SourceNFCC:                       "FIRE",
	model.SourceGovUKGuidance:              "GUID",
	model.SourceAOC:                        "COLL",
	model.SourceNIEducation:                "NIED",
	model.SourceUKCourtsCSV:                "WCC",
	model.SourceNICourts:                   "NIHT",
	model.SourceScottishCourts:             "SCC",
	model.SourceGroundwork:                 "GW",
	model.SourceNHSCharities:               "NHSCH",
	model.SourceWikipediaWelshCommunities:  "WC",
	model.SourceWikipediaScottishCommunities: "SC",
	model.SourceNIHealth:                   "NIHSC",
	model.SourceONSUnitary:                 "ONSUA",
	model.SourceWikipediaDistricts:         "DIST",
	model.SourceNationalParksUK:            "NP",
	model.SourceNHSICBs:                    "ICB",
	model.SourceHealthwatch:                "HW",
	model.SourceMyGovScot:                  "MGS",
	model.SourceNHSScotlandBoards:          "NHSS",
	model.SourceTransportScotlandRTPs:      "RTP",
	model.SourceLawGovWales:                "LGW",
	model.SourceInfrastructureNIPorts:      "NIP",
	model.SourceNIGovernment:               "NIGOV",
	model.SourceUKRI:                       "UKRI",
}

// MakeID builds a deterministic record id. When naturalKey is non-empty
// (an ONS code, a URN, a canonical URL) it is used directly so the id
// stays stable even if the display name changes between runs; otherwise
// the normalised name is slugified.
func MakeID(src model.SourceId, naturalKey, name string) string {
	prefix := idPrefixes[src]
	if prefix == "" {
		prefix = strings.ToUpper(string(src))
	}
	key := strings.TrimSpace(naturalKey)
	if key == "" {
		key = slugify(name)
	} else {
		key = slugify(key)
	}
	if key == "" {
		key = hashID("rec", name)
	}
	return fmt.Sprintf("%s_%s", prefix, key)
}

// SingleReference builds the single DataSourceReference every emitted
// record must carry (spec §4.D rule 3).
func SingleReference(src model.SourceId, sourceURL string, confidence float64) []model.DataSourceReference {
	return []model.DataSourceReference{{
		Source:      src,
		RetrievedAt: time.Now().UTC(),
		SourceURL:   sourceURL,
		Confidence:  confidence,
	}}
}

// CheckFloor enforces a driver's sanity floor (spec §4.D rule 1): a
// driver that emits fewer than floor records has failed, never silently
// succeeded with a suspiciously small result set.
func CheckFloor(source model.SourceId, got, floor int) error {
	if got < floor {
		return &errs.RecordCountBelowFloor{Source: string(source), Expected: floor, Got: got}
	}
	return nil
}
