package drivers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ukgov/org-registry/internal/decode"
	"github.com/ukgov/org-registry/internal/errs"
	"github.com/ukgov/org-registry/internal/httpx"
	"github.com/ukgov/org-registry/internal/model"
	"github.com/ukgov/org-registry/internal/source"
)

var csvDownloadLinkPattern = regexp.MustCompile(`(?i)href="([^"]*format=csv[^"]*|[^"]*\.csv)"`)

// ONSUnitaryDriver scrapes the ONS unitary-authorities page for its CSV
// download link — which may appear as a "format=csv" query parameter
// rather than a ".csv" suffix (spec §4.D category 5) — then parses the
// resulting CSV.
type ONSUnitaryDriver struct {
	PageURL string
}

func NewONSUnitaryDriver() *ONSUnitaryDriver {
	return &ONSUnitaryDriver{PageURL: "https://www.ons.gov.uk/methodology/geography/ukgeographies/administrativegeography/unitaryauthorities"}
}

func (d *ONSUnitaryDriver) ID() model.SourceId      { return model.SourceONSUnitary }
func (d *ONSUnitaryDriver) FilterAliases() []string { return []string{"ons-unitary"} }

func (d *ONSUnitaryDriver) FetchAndMap(ctx context.Context, caps source.Capabilities) (source.Result, error) {
	pageRes, err := caps.HTTP.Get(ctx, d.PageURL, httpx.Options{})
	if err != nil {
		return source.Result{}, fmt.Errorf("ONS unitary authorities page: %w", err)
	}
	matches := csvDownloadLinkPattern.FindStringSubmatch(string(pageRes.Body))
	if len(matches) < 2 {
		return source.Result{}, &errs.LinkDiscovery{Source: string(d.ID()), Detail: "no CSV download link found on page"}
	}
	csvURL := matches[1]
	if strings.HasPrefix(csvURL, "/") {
		csvURL = "https://www.ons.gov.uk" + csvURL
	}

	csvRes, err := caps.HTTP.Get(ctx, csvURL, httpx.Options{AcceptHeader: "text/csv"})
	if err != nil {
		return source.Result{}, fmt.Errorf("ONS unitary authorities CSV: %w", err)
	}
	reader, err := decode.NewCSVReader(bytes.NewReader(csvRes.Body))
	if err != nil {
		return source.Result{}, err
	}
	if err := reader.RequireColumns(string(d.ID()), "UA21CD", "UA21NM"); err != nil {
		return source.Result{}, err
	}

	var records []model.Organisation
	var warnings []error
	for {
		row, rerr := reader.Next()
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			warnings = append(warnings, rerr)
			continue
		}
		code := strings.TrimSpace(row["UA21CD"])
		name := strings.TrimSpace(row["UA21NM"])
		if name == "" {
			continue
		}
		org := model.Organisation{
			ID:      MakeID(d.ID(), code, name),
			Name:    name,
			Type:    model.TypeUnitaryAuthority,
			Status:  model.StatusActive,
			Location: &model.Location{Country: "United Kingdom"},
			Sources: SingleReference(d.ID(), csvURL, 0.9),
		}
		if verr := model.Validate(&org); verr != nil {
			warnings = append(warnings, verr)
			continue
		}
		records = append(records, org)
	}

	if err := CheckFloor(d.ID(), len(records), 50); err != nil {
		return source.Result{}, err
	}
	return source.Result{Records: records, Metadata: source.SourceMetadata{RecordCount: len(records)}, PartialWarnings: warnings}, nil
}
