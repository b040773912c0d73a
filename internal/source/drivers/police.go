package drivers

import (
	"context"
	"fmt"
	"strings"

	"github.com/ukgov/org-registry/internal/decode"
	"github.com/ukgov/org-registry/internal/errs"
	"github.com/ukgov/org-registry/internal/httpx"
	"github.com/ukgov/org-registry/internal/model"
	"github.com/ukgov/org-registry/internal/source"
)

const policeSanityFloor = 40

// PoliceUKAPIDriver is the two-phase JSON API driver named in spec §4.D
// category 1: list the forces, then fetch per-force detail, tolerating
// per-detail failure by emitting the list-only record rather than
// dropping it. Grounded directly on source_grantsgov.go's
// FetchOpportunities two-phase list+detail pattern.
type PoliceUKAPIDriver struct {
	BaseURL string // default: https://data.police.uk/api/forces
}

func NewPoliceUKAPIDriver() *PoliceUKAPIDriver {
	return &PoliceUKAPIDriver{BaseURL: "https://data.police.uk/api/forces"}
}

func (d *PoliceUKAPIDriver) ID() model.SourceId      { return model.SourcePoliceUKAPI }
func (d *PoliceUKAPIDriver) FilterAliases() []string { return []string{"police"} }

func (d *PoliceUKAPIDriver) FetchAndMap(ctx context.Context, caps source.Capabilities) (source.Result, error) {
	listRes, err := caps.HTTP.Get(ctx, d.BaseURL, httpx.Options{AcceptHeader: "application/json"})
	if err != nil {
		return source.Result{}, fmt.Errorf("police.uk forces list: %w", err)
	}
	tree, err := decode.JSON(listRes.Body)
	if err != nil {
		return source.Result{}, err
	}
	items, ok := tree.([]interface{})
	if !ok {
		return source.Result{}, &errs.StructureChanged{Source: string(d.ID()), Detail: "expected a JSON array of forces"}
	}

	var records []model.Organisation
	var warnings []error

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return source.Result{}, &errs.Cancelled{Source: string(d.ID())}
		}
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		id, _ := obj["id"].(string)
		name, _ := obj["name"].(string)
		name = strings.TrimSpace(name)
		if id == "" || name == "" {
			continue
		}

		org := model.Organisation{
			ID:     MakeID(d.ID(), id, name),
			Name:   name,
			Type:   model.TypeEmergencyService,
			Status: model.StatusActive,
			Sources: SingleReference(d.ID(), fmt.Sprintf("%s/%s", d.BaseURL, id), 0.9),
		}

		detailURL := fmt.Sprintf("%s/%s", d.BaseURL, id)
		if detailRes, derr := caps.HTTP.Get(ctx, detailURL, httpx.Options{AcceptHeader: "application/json"}); derr == nil {
			if detailTree, jerr := decode.JSON(detailRes.Body); jerr == nil {
				if engagement, ok := decode.PathString(detailTree, "engagement_methods[0].url"); ok {
					org.Website = engagement
				}
				if desc, ok := decode.PathString(detailTree, "description"); ok {
					org.Classification = strings.TrimSpace(desc)
				}
			}
		} else {
			warnings = append(warnings, fmt.Errorf("detail fetch failed for %s: %w", id, derr))
		}

		if err := model.Validate(&org); err != nil {
			warnings = append(warnings, err)
			continue
		}
		records = append(records, org)
	}

	if err := CheckFloor(d.ID(), len(records), policeSanityFloor); err != nil {
		return source.Result{}, err
	}

	return source.Result{
		Records:         records,
		Metadata:        source.SourceMetadata{RecordCount: len(records)},
		PartialWarnings: warnings,
	}, nil
}
