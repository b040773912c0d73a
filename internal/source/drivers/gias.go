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

const giasSanityFloor = 50000

// GIASDriver streams the "Get Information About Schools" CSV bulk
// export. Only the CSV backend is implemented (the paginated JSON search
// backend is an Open Question decided against carrying, see DESIGN.md).
type GIASDriver struct {
	URL string // default: GIAS "all establishment data" CSV export
}

func NewGIASDriver() *GIASDriver {
	return &GIASDriver{URL: "https://get-information-schools.service.gov.uk/Downloads/Allestablishmentdata.csv"}
}

func (d *GIASDriver) ID() model.SourceId      { return model.SourceGIAS }
func (d *GIASDriver) FilterAliases() []string { return []string{"gias", "schools"} }

func (d *GIASDriver) FetchAndMap(ctx context.Context, caps source.Capabilities) (source.Result, error) {
	res, err := caps.HTTP.Get(ctx, d.URL, httpx.Options{AcceptHeader: "text/csv", MaxBytes: 200 << 20})
	if err != nil {
		return source.Result{}, fmt.Errorf("GIAS CSV: %w", err)
	}

	reader, err := decode.NewCSVReader(bytes.NewReader(res.Body))
	if err != nil {
		return source.Result{}, err
	}
	if err := reader.RequireColumns(string(d.ID()), "URN", "EstablishmentName", "TypeOfEstablishment (name)", "EstablishmentStatus (name)"); err != nil {
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

		org, werr := d.mapRow(row)
		if werr != nil {
			warnings = append(warnings, werr)
			continue
		}
		records = append(records, org)
	}

	if err := CheckFloor(d.ID(), len(records), giasSanityFloor); err != nil {
		return source.Result{}, err
	}

	return source.Result{
		Records:         records,
		Metadata:        source.SourceMetadata{RecordCount: len(records)},
		PartialWarnings: warnings,
	}, nil
}

func (d *GIASDriver) mapRow(row map[string]string) (model.Organisation, error) {
	if err := decode.RowMapper(row, []string{"URN", "EstablishmentName"}); err != nil {
		return model.Organisation{}, err
	}

	urn := strings.TrimSpace(row["URN"])
	name := strings.TrimSpace(row["EstablishmentName"])
	status := model.MapStatus(row["EstablishmentStatus (name)"])

	org := model.Organisation{
		ID:             MakeID(d.ID(), urn, name),
		Name:           name,
		Type:           model.TypeEducationalInstitution,
		Classification: strings.TrimSpace(row["TypeOfEstablishment (name)"]),
		Status:         status,
		Location: &model.Location{
			Country:    "United Kingdom",
			Region:     strings.TrimSpace(row["LA (name)"]),
			PostalCode: strings.TrimSpace(row["Postcode"]),
		},
		Sources: SingleReference(d.ID(), d.URL, 0.9),
	}
	if urn != "" {
		// URN is comparable across sources (unlike the per-source-prefixed
		// canonical ID), so dedup's strong-id merge path can key on it
		// directly — see internal/dedup.strongNaturalKeyField.
		org.AdditionalProperties = map[string]interface{}{"sourceNaturalKey": urn}
	}
	if open, ok := model.ParseDate(row["OpenDate"]); ok {
		org.EstablishmentDate = &open
	}
	if closed, ok := model.ParseDate(row["CloseDate"]); ok {
		org.DissolutionDate = &closed
	}

	if err := model.Validate(&org); err != nil {
		return model.Organisation{}, err
	}
	return org, nil
}
