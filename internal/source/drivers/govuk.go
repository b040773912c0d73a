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

const govUKSanityFloor = 300

// GovUKAPIDriver paginates the GOV.UK organisations content API by
// following next_page_url. Grounded on source_grantsgov.go's
// FetchOpportunities pagination loop. Each record is mapped from its
// listing entry alone; no per-item detail fetch is made. A listing entry
// that fails to map becomes a partial warning rather than failing the
// driver.
type GovUKAPIDriver struct {
	BaseURL string // default: https://www.gov.uk/api/organisations
}

func NewGovUKAPIDriver() *GovUKAPIDriver {
	return &GovUKAPIDriver{BaseURL: "https://www.gov.uk/api/organisations"}
}

func (d *GovUKAPIDriver) ID() model.SourceId      { return model.SourceGovUKAPI }
func (d *GovUKAPIDriver) FilterAliases() []string { return []string{"govuk", "gov.uk"} }

func (d *GovUKAPIDriver) FetchAndMap(ctx context.Context, caps source.Capabilities) (source.Result, error) {
	var records []model.Organisation
	pageURL := d.BaseURL
	var warnings []error

	for pageURL != "" {
		if err := ctx.Err(); err != nil {
			return source.Result{}, &errs.Cancelled{Source: string(d.ID())}
		}

		cacheKey := string(d.ID()) + ":" + pageURL
		res, _, err := caps.HTTP.CachedGet(ctx, pageURL, cacheKey, caps.Cache, httpx.Options{AcceptHeader: "application/json"})
		if err != nil {
			return source.Result{}, fmt.Errorf("gov.uk organisations: %w", err)
		}

		tree, err := decode.JSON(res.Body)
		if err != nil {
			return source.Result{}, err
		}

		results, ok := decode.Path(tree, "results")
		if !ok {
			return source.Result{}, &errs.StructureChanged{Source: string(d.ID()), Detail: "response missing \"results\" array"}
		}
		items, ok := results.([]interface{})
		if !ok {
			return source.Result{}, &errs.StructureChanged{Source: string(d.ID()), Detail: "\"results\" is not an array"}
		}

		for _, item := range items {
			org, ok, werr := d.mapOne(item, pageURL)
			if werr != nil {
				warnings = append(warnings, werr)
				continue
			}
			if ok {
				records = append(records, org)
			}
		}

		next, _ := decode.PathString(tree, "next_page_url")
		pageURL = next
	}

	if err := CheckFloor(d.ID(), len(records), govUKSanityFloor); err != nil {
		return source.Result{}, err
	}

	return source.Result{
		Records:         records,
		Metadata:        source.SourceMetadata{RecordCount: len(records)},
		PartialWarnings: warnings,
	}, nil
}

func (d *GovUKAPIDriver) mapOne(item interface{}, pageURL string) (model.Organisation, bool, error) {
	obj, ok := item.(map[string]interface{})
	if !ok {
		return model.Organisation{}, false, &errs.Validation{Field: "result", Rule: "expected object"}
	}

	title, _ := obj["title"].(string)
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Organisation{}, false, &errs.Validation{Field: "title", Rule: "non-empty required"}
	}

	format, _ := obj["format"].(string)
	webURL, _ := obj["web_url"].(string)
	slug := ""
	if details, ok := obj["details"].(map[string]interface{}); ok {
		if s, ok := details["slug"].(string); ok {
			slug = s
		}
	}

	org := model.Organisation{
		ID:             MakeID(d.ID(), slug, title),
		Name:           title,
		Type:           model.InferTypeFromClassification(format),
		Classification: format,
		Status:         model.StatusActive,
		Website:        webURL,
		Sources:        SingleReference(d.ID(), pageURL, 0.95),
	}
	if err := model.Validate(&org); err != nil {
		return model.Organisation{}, false, err
	}
	return org, true, nil
}
