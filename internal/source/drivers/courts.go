package drivers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ukgov/org-registry/internal/decode"
	"github.com/ukgov/org-registry/internal/httpx"
	"github.com/ukgov/org-registry/internal/model"
	"github.com/ukgov/org-registry/internal/source"
)

// scottishCourtsFallback is the embedded fallback dataset used when the
// live Scottish courts fetch fails, per spec §4.D category 7 and §9's
// "Fallback datasets (Scottish courts, devolved admins): embed as
// compile-time constants keyed by source; mark records with
// dataQuality.source = fallback" design note.
var scottishCourtsFallback = []string{
	"Court of Session", "High Court of Justiciary", "Sheriff Appeal Court",
	"Edinburgh Sheriff Court", "Glasgow Sheriff Court", "Aberdeen Sheriff Court",
	"Dundee Sheriff Court", "Inverness Sheriff Court",
}

// CourtsDriver is the composite driver unioning three independent
// sub-parsers — England & Wales CSV, Northern Ireland HTML, Scotland
// HTML with an embedded fallback — the single registered driver for
// spec §4.D category 7. Each sub-parser's records carry the SourceId
// that actually identifies their origin (uk_courts_csv, ni_courts,
// scottish_courts); the driver's own ID/FilterAliases surface the
// England & Wales CSV sub-source as the default selector, in the idiom
// of the teacher's multi-source strategies generalised to several
// unioned sub-pipelines behind one Driver.
type CourtsDriver struct {
	EnglandWalesCSVURL    string
	NICourtsPageURL       string
	ScottishCourtsPageURL string
}

func NewCourtsDriver() *CourtsDriver {
	return &CourtsDriver{
		EnglandWalesCSVURL:    "https://www.gov.uk/guidance/court-and-tribunal-locations-csv-download",
		NICourtsPageURL:       "https://www.justice-ni.gov.uk/courts-and-tribunals",
		ScottishCourtsPageURL: "https://www.scotcourts.gov.uk/the-courts/courts-and-tribunals-locations",
	}
}

func (d *CourtsDriver) ID() model.SourceId      { return model.SourceUKCourtsCSV }
func (d *CourtsDriver) FilterAliases() []string { return []string{"courts", "courts-ew"} }

func (d *CourtsDriver) FetchAndMap(ctx context.Context, caps source.Capabilities) (source.Result, error) {
	var records []model.Organisation
	var warnings []error

	ewRecords, err := d.fetchEnglandWales(ctx, caps)
	if err != nil {
		warnings = append(warnings, fmt.Errorf("england & wales CSV: %w", err))
	} else {
		records = append(records, ewRecords...)
	}

	niRecords, err := d.fetchNorthernIreland(ctx, caps)
	if err != nil {
		warnings = append(warnings, fmt.Errorf("northern ireland HTML: %w", err))
	} else {
		records = append(records, niRecords...)
	}

	scRecords, scWarn := d.fetchScotland(ctx, caps)
	if scWarn != nil {
		warnings = append(warnings, scWarn)
	}
	records = append(records, scRecords...)

	if err := CheckFloor(model.SourceUKCourtsCSV, len(records), 10); err != nil {
		return source.Result{}, err
	}
	return source.Result{Records: records, Metadata: source.SourceMetadata{RecordCount: len(records)}, PartialWarnings: warnings}, nil
}

// fetchEnglandWales parses the gov.uk court-and-tribunal-locations CSV
// export.
func (d *CourtsDriver) fetchEnglandWales(ctx context.Context, caps source.Capabilities) ([]model.Organisation, error) {
	res, err := caps.HTTP.Get(ctx, d.EnglandWalesCSVURL, httpx.Options{AcceptHeader: "text/csv"})
	if err != nil {
		return nil, err
	}
	reader, err := decode.NewCSVReader(bytes.NewReader(res.Body))
	if err != nil {
		return nil, err
	}
	if err := reader.RequireColumns(string(model.SourceUKCourtsCSV), "name", "court_type"); err != nil {
		return nil, err
	}

	var out []model.Organisation
	for {
		row, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		name := strings.TrimSpace(row["name"])
		if name == "" {
			continue
		}
		org := model.Organisation{
			ID:             MakeID(model.SourceUKCourtsCSV, "", name),
			Name:           name,
			Type:           model.TypeCourt,
			Classification: strings.TrimSpace(row["court_type"]),
			Status:         model.StatusActive,
			Location:       &model.Location{Country: "United Kingdom"},
			Sources:        SingleReference(model.SourceUKCourtsCSV, d.EnglandWalesCSVURL, 0.9),
		}
		if err := model.Validate(&org); err != nil {
			continue
		}
		out = append(out, org)
	}
	return out, nil
}

// fetchNorthernIreland scrapes the Justice NI court listing page, failing
// fast with errs.StructureChanged if the expected container is gone.
func (d *CourtsDriver) fetchNorthernIreland(ctx context.Context, caps source.Capabilities) ([]model.Organisation, error) {
	res, err := caps.HTTP.Get(ctx, d.NICourtsPageURL, httpx.Options{})
	if err != nil {
		return nil, err
	}
	doc, err := decode.ParseHTML(res.Body)
	if err != nil {
		return nil, err
	}
	sel, err := doc.RequireSelector(string(model.SourceNICourts), ".court-listing-item, .venue-list li")
	if err != nil {
		return nil, err
	}

	var out []model.Organisation
	sel.Each(func(i int, s *goquery.Selection) {
		name := decode.Text(s)
		if name == "" {
			return
		}
		org := model.Organisation{
			ID:       MakeID(model.SourceNICourts, "", name),
			Name:     name,
			Type:     model.TypeCourt,
			Status:   model.StatusActive,
			Location: &model.Location{Country: "United Kingdom", Region: "Northern Ireland"},
			Sources:  SingleReference(model.SourceNICourts, d.NICourtsPageURL, 0.85),
		}
		if err := model.Validate(&org); err != nil {
			return
		}
		out = append(out, org)
	})
	return out, nil
}

// fetchScotland scrapes the Scottish Courts and Tribunals Service venue
// listing; on any fetch or parse failure it falls back to the embedded
// scottishCourtsFallback dataset, flagging those records with
// DataQuality.Source = model.DataQualityFallback rather than failing the
// whole driver (spec §4.D category 7, §9 fallback-dataset design note).
func (d *CourtsDriver) fetchScotland(ctx context.Context, caps source.Capabilities) ([]model.Organisation, error) {
	records, err := d.fetchScotlandLive(ctx, caps)
	if err == nil && len(records) > 0 {
		return records, nil
	}

	fallback := make([]model.Organisation, 0, len(scottishCourtsFallback))
	for _, name := range scottishCourtsFallback {
		org := model.Organisation{
			ID:          MakeID(model.SourceScottishCourts, "", name),
			Name:        name,
			Type:        model.TypeCourt,
			Status:      model.StatusActive,
			Location:    &model.Location{Country: "United Kingdom", Region: "Scotland"},
			Sources:     SingleReference(model.SourceScottishCourts, "", 0.6),
			DataQuality: &model.DataQuality{Completeness: 0.8, Source: model.DataQualityFallback},
		}
		if verr := model.Validate(&org); verr != nil {
			continue
		}
		fallback = append(fallback, org)
	}
	return fallback, fmt.Errorf("scottish courts: live fetch unavailable, used embedded fallback dataset: %w", err)
}

func (d *CourtsDriver) fetchScotlandLive(ctx context.Context, caps source.Capabilities) ([]model.Organisation, error) {
	res, err := caps.HTTP.Get(ctx, d.ScottishCourtsPageURL, httpx.Options{})
	if err != nil {
		return nil, err
	}
	doc, err := decode.ParseHTML(res.Body)
	if err != nil {
		return nil, err
	}
	sel, err := doc.RequireSelector(string(model.SourceScottishCourts), ".location-listing-item, .venue-list li")
	if err != nil {
		return nil, err
	}

	var out []model.Organisation
	sel.Each(func(i int, s *goquery.Selection) {
		name := decode.Text(s)
		if name == "" {
			return
		}
		org := model.Organisation{
			ID:          MakeID(model.SourceScottishCourts, "", name),
			Name:        name,
			Type:        model.TypeCourt,
			Status:      model.StatusActive,
			Location:    &model.Location{Country: "United Kingdom", Region: "Scotland"},
			Sources:     SingleReference(model.SourceScottishCourts, d.ScottishCourtsPageURL, 0.85),
			DataQuality: &model.DataQuality{Completeness: 1.0, Source: model.DataQualityLive},
		}
		if err := model.Validate(&org); err != nil {
			return
		}
		out = append(out, org)
	})
	return out, nil
}
