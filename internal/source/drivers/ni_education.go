package drivers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ukgov/org-registry/internal/decode"
	"github.com/ukgov/org-registry/internal/httpx"
	"github.com/ukgov/org-registry/internal/model"
	"github.com/ukgov/org-registry/internal/source"
)

const niEducationSanityFloor = 800

// NIEducationDriver streams the Northern Ireland schools census CSV
// export, following the same tabular-CSV contract as GIASDriver but
// scoped to Northern Ireland's own column names.
type NIEducationDriver struct {
	URL string
}

func NewNIEducationDriver() *NIEducationDriver {
	return &NIEducationDriver{URL: "https://www.education-ni.gov.uk/publications/school-enrolments-school-level-data-csv"}
}

func (d *NIEducationDriver) ID() model.SourceId      { return model.SourceNIEducation }
func (d *NIEducationDriver) FilterAliases() []string { return []string{"ni-education"} }

func (d *NIEducationDriver) FetchAndMap(ctx context.Context, caps source.Capabilities) (source.Result, error) {
	res, err := caps.HTTP.Get(ctx, d.URL, httpx.Options{AcceptHeader: "text/csv"})
	if err != nil {
		return source.Result{}, fmt.Errorf("NI education CSV: %w", err)
	}

	reader, err := decode.NewCSVReader(bytes.NewReader(res.Body))
	if err != nil {
		return source.Result{}, err
	}
	if err := reader.RequireColumns(string(d.ID()), "De Ref", "School Name"); err != nil {
		return source.Result{}, err
	}

	var records []model.Organisation
	var warnings []error

	for {
		if err := ctx.Err(); err != nil {
			return source.Result{}, err
		}
		row, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			warnings = append(warnings, err)
			continue
		}
		if err := decode.RowMapper(row, []string{"De Ref", "School Name"}); err != nil {
			warnings = append(warnings, err)
			continue
		}

		ref := strings.TrimSpace(row["De Ref"])
		name := strings.TrimSpace(row["School Name"])
		org := model.Organisation{
			ID:      MakeID(d.ID(), ref, name),
			Name:    name,
			Type:    model.TypeEducationalInstitution,
			Status:  model.StatusActive,
			Location: &model.Location{Country: "United Kingdom", Region: "Northern Ireland"},
			Sources: SingleReference(d.ID(), d.URL, 0.85),
		}
		if err := model.Validate(&org); err != nil {
			warnings = append(warnings, err)
			continue
		}
		records = append(records, org)
	}

	if err := CheckFloor(d.ID(), len(records), niEducationSanityFloor); err != nil {
		return source.Result{}, err
	}

	return source.Result{
		Records:         records,
		Metadata:        source.SourceMetadata{RecordCount: len(records)},
		PartialWarnings: warnings,
	}, nil
}
