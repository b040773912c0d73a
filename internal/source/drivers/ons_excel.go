package drivers

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ukgov/org-registry/internal/decode"
	"github.com/ukgov/org-registry/internal/errs"
	"github.com/ukgov/org-registry/internal/httpx"
	"github.com/ukgov/org-registry/internal/model"
	"github.com/ukgov/org-registry/internal/source"
)

var pscgLinkPattern = regexp.MustCompile(`(?i)href="([^"]*pscg[^"]*\.xlsx)"`)

// discoverONSWorkbookURL scrapes the ONS publication page to find the
// newest "pscg*.xlsx" (Public Sector Classification Guide) download link
// — spec §4.D category 2's "dynamically scrape the publisher page to
// locate the newest pscg*.xlsx link" requirement. Grounded on the
// teacher's link-discovery step in strategy_html_generic.go, generalised
// from a colly OnHTML anchor handler to a direct regex scan since only
// one link needs discovering per page, not a paginated list.
func discoverONSWorkbookURL(ctx context.Context, caps source.Capabilities, pageURL string, id model.SourceId) (string, error) {
	res, err := caps.HTTP.Get(ctx, pageURL, httpx.Options{})
	if err != nil {
		return "", fmt.Errorf("ONS publication page: %w", err)
	}
	matches := pscgLinkPattern.FindAllStringSubmatch(string(res.Body), -1)
	if len(matches) == 0 {
		return "", &errs.LinkDiscovery{Source: string(id), Detail: "no pscg*.xlsx link found on publication page"}
	}
	link := matches[len(matches)-1][1]
	if strings.HasPrefix(link, "/") {
		link = "https://www.ons.gov.uk" + link
	}
	return link, nil
}

// ONSInstitutionalDriver reads the "Organisation|Institutional Unit" sheet of the
// dynamically-discovered ONS Public Sector Classification Guide
// workbook.
type ONSInstitutionalDriver struct {
	PublicationPageURL string
}

func NewONSInstitutionalDriver() *ONSInstitutionalDriver {
	return &ONSInstitutionalDriver{PublicationPageURL: "https://www.ons.gov.uk/economy/nationalaccounts/uksectoraccounts/methodologies/publicsectorclassificationguideandrelateddata"}
}

func (d *ONSInstitutionalDriver) ID() model.SourceId      { return model.SourceONSInstitutional }
func (d *ONSInstitutionalDriver) FilterAliases() []string { return []string{"ons", "ons-institutional"} }

func (d *ONSInstitutionalDriver) FetchAndMap(ctx context.Context, caps source.Capabilities) (source.Result, error) {
	workbookURL, err := discoverONSWorkbookURL(ctx, caps, d.PublicationPageURL, d.ID())
	if err != nil {
		return source.Result{}, err
	}
	res, err := caps.HTTP.Get(ctx, workbookURL, httpx.Options{MaxBytes: 50 << 20})
	if err != nil {
		return source.Result{}, fmt.Errorf("ONS workbook: %w", err)
	}
	wb, err := decode.OpenExcel(res.Body)
	if err != nil {
		return source.Result{}, err
	}
	defer wb.Close()

	rows, err := wb.SheetRows(string(d.ID()), "Organisation|Institutional Unit", "Organisation name")
	if err != nil {
		return source.Result{}, err
	}

	var records []model.Organisation
	var warnings []error
	for _, row := range rows {
		name := strings.TrimSpace(row["Organisation name"])
		if name == "" {
			continue
		}
		org := model.Organisation{
			ID:             MakeID(d.ID(), row["ONS code"], name),
			Name:           name,
			Type:           model.InferTypeFromClassification(row["Classification"]),
			Classification: strings.TrimSpace(row["Classification"]),
			ParentOrganisation: strings.TrimSpace(row["Sponsoring Entity"]),
			Status:         model.StatusActive,
			Sources:        SingleReference(d.ID(), workbookURL, 0.95),
		}
		if code := strings.TrimSpace(row["ONS code"]); code != "" {
			// ONS code is comparable across sources (GIAS's URN is the
			// other example), so dedup's strong-id merge path can key on
			// it directly — see internal/dedup.strongNaturalKeyField.
			org.AdditionalProperties = map[string]interface{}{"sourceNaturalKey": code}
		}
		if err := model.Validate(&org); err != nil {
			warnings = append(warnings, err)
			continue
		}
		records = append(records, org)
	}

	if err := CheckFloor(d.ID(), len(records), 50); err != nil {
		return source.Result{}, err
	}
	return source.Result{Records: records, Metadata: source.SourceMetadata{RecordCount: len(records)}, PartialWarnings: warnings}, nil
}

// ONSNonInstitutionalDriver reads the "Non-Institutional Units" sheet of
// the same workbook, with its own distinct required columns.
type ONSNonInstitutionalDriver struct {
	PublicationPageURL string
}

func NewONSNonInstitutionalDriver() *ONSNonInstitutionalDriver {
	return &ONSNonInstitutionalDriver{PublicationPageURL: "https://www.ons.gov.uk/economy/nationalaccounts/uksectoraccounts/methodologies/publicsectorclassificationguideandrelateddata"}
}

func (d *ONSNonInstitutionalDriver) ID() model.SourceId      { return model.SourceONSNonInstitutional }
func (d *ONSNonInstitutionalDriver) FilterAliases() []string { return []string{"ons-non-institutional"} }

func (d *ONSNonInstitutionalDriver) FetchAndMap(ctx context.Context, caps source.Capabilities) (source.Result, error) {
	workbookURL, err := discoverONSWorkbookURL(ctx, caps, d.PublicationPageURL, d.ID())
	if err != nil {
		return source.Result{}, err
	}
	res, err := caps.HTTP.Get(ctx, workbookURL, httpx.Options{MaxBytes: 50 << 20})
	if err != nil {
		return source.Result{}, fmt.Errorf("ONS workbook: %w", err)
	}
	wb, err := decode.OpenExcel(res.Body)
	if err != nil {
		return source.Result{}, err
	}
	defer wb.Close()

	rows, err := wb.SheetRows(string(d.ID()), "Non-Institutional Units", "Non-Institutional Unit name", "Sponsoring Entity")
	if err != nil {
		return source.Result{}, err
	}

	var records []model.Organisation
	var warnings []error
	for _, row := range rows {
		name := strings.TrimSpace(row["Non-Institutional Unit name"])
		if name == "" {
			continue
		}
		org := model.Organisation{
			ID:                 MakeID(d.ID(), "", name+"|"+row["Sponsoring Entity"]),
			Name:               name,
			Type:               model.InferTypeFromClassification(row["Classification"]),
			Classification:     strings.TrimSpace(row["Classification"]),
			ControllingUnit:    strings.TrimSpace(row["Sponsoring Entity"]),
			Status:             model.StatusActive,
			Sources:            SingleReference(d.ID(), workbookURL, 0.9),
		}
		if err := model.Validate(&org); err != nil {
			warnings = append(warnings, err)
			continue
		}
		records = append(records, org)
	}

	if err := CheckFloor(d.ID(), len(records), 20); err != nil {
		return source.Result{}, err
	}
	return source.Result{Records: records, Metadata: source.SourceMetadata{RecordCount: len(records)}, PartialWarnings: warnings}, nil
}
