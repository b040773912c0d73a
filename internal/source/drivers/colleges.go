package drivers

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ukgov/org-registry/internal/decode"
	"github.com/ukgov/org-registry/internal/errs"
	"github.com/ukgov/org-registry/internal/httpx"
	"github.com/ukgov/org-registry/internal/model"
	"github.com/ukgov/org-registry/internal/source"
)

// collegeRegion describes one region's reported count figure and its
// PDF listing link, both discovered on the AoC aggregator page.
type collegeRegion struct {
	name          string
	countPattern  *regexp.Regexp
	linkPattern   *regexp.Regexp
}

var collegeRegions = []collegeRegion{
	{
		name:         "Scotland",
		countPattern: regexp.MustCompile(`(?i)Scotland[^0-9]{0,40}?(\d{1,3})\s+colleges?`),
		linkPattern:  regexp.MustCompile(`(?i)href="([^"]*scotland[^"]*\.pdf)"`),
	},
	{
		name:         "Wales",
		countPattern: regexp.MustCompile(`(?i)Wales[^0-9]{0,40}?(\d{1,3})\s+colleges?`),
		linkPattern:  regexp.MustCompile(`(?i)href="([^"]*wales[^"]*\.pdf)"`),
	},
	{
		name:         "Northern Ireland",
		countPattern: regexp.MustCompile(`(?i)Northern Ireland[^0-9]{0,40}?(\d{1,3})\s+colleges?`),
		linkPattern:  regexp.MustCompile(`(?i)href="([^"]*(?:ni|northern-ireland)[^"]*\.pdf)"`),
	},
}

// collegeNamePattern recovers a plausible institution name from a PDF
// text line: starts with a capital letter, ends before trailing page
// furniture. PDFs rarely carry structured markup, so this is a
// heuristic, not a guarantee — matching the teacher's own "sufficient to
// recover a list of institution names" standard (spec §4.C).
var collegeNamePattern = regexp.MustCompile(`^[A-Z][A-Za-z&.,'()\- ]{3,80}College$|^[A-Z][A-Za-z&.,'()\- ]{3,80}(University Centre|Institute)$`)

// AOCDriver is the PDF-embedded-link composite driver (spec §4.D
// category 4): fetch the aggregator page, extract per-region count
// figures and PDF links, download each PDF, extract names, and validate
// the parsed count against the page-reported count — a mismatch is
// fatal for that region only (S3), other regions still emit.
type AOCDriver struct {
	PageURL string
}

func NewAOCDriver() *AOCDriver {
	return &AOCDriver{PageURL: "https://www.aoc.co.uk/about/list-of-colleges-in-the-uk"}
}

func (d *AOCDriver) ID() model.SourceId      { return model.SourceAOC }
func (d *AOCDriver) FilterAliases() []string { return []string{"aoc", "colleges"} }

func (d *AOCDriver) FetchAndMap(ctx context.Context, caps source.Capabilities) (source.Result, error) {
	pageRes, err := caps.HTTP.Get(ctx, d.PageURL, httpx.Options{})
	if err != nil {
		return source.Result{}, fmt.Errorf("AoC colleges page: %w", err)
	}
	body := string(pageRes.Body)

	var records []model.Organisation
	var warnings []error

	for _, region := range collegeRegions {
		countMatch := region.countPattern.FindStringSubmatch(body)
		linkMatch := region.linkPattern.FindStringSubmatch(body)
		if countMatch == nil || linkMatch == nil {
			warnings = append(warnings, &errs.LinkDiscovery{Source: string(d.ID()), Detail: fmt.Sprintf("%s: count or PDF link not found on page", region.name)})
			continue
		}
		expected, _ := strconv.Atoi(countMatch[1])
		pdfURL := linkMatch[1]
		if strings.HasPrefix(pdfURL, "/") {
			pdfURL = "https://www.aoc.co.uk" + pdfURL
		}

		pdfRes, err := caps.HTTP.Get(ctx, pdfURL, httpx.Options{})
		if err != nil {
			warnings = append(warnings, fmt.Errorf("%s PDF: %w", region.name, err))
			continue
		}
		text, err := decode.PDFText(pdfRes.Body)
		if err != nil {
			warnings = append(warnings, err)
			continue
		}

		var names []string
		for _, line := range decode.Lines(text) {
			if collegeNamePattern.MatchString(line) {
				names = append(names, line)
			}
		}

		if len(names) != expected {
			warnings = append(warnings, &errs.CountMismatch{Region: region.name, Expected: expected, Got: len(names)})
			continue
		}

		for _, name := range names {
			org := model.Organisation{
				ID:       MakeID(d.ID(), region.name+"|"+name, name),
				Name:     name,
				Type:     model.TypeEducationalInstitution,
				Status:   model.StatusActive,
				Location: &model.Location{Country: "United Kingdom", Region: region.name},
				Sources:  SingleReference(d.ID(), pdfURL, 0.8),
			}
			if verr := model.Validate(&org); verr != nil {
				warnings = append(warnings, verr)
				continue
			}
			records = append(records, org)
		}
	}

	if err := CheckFloor(d.ID(), len(records), 1); err != nil {
		return source.Result{}, err
	}
	return source.Result{Records: records, Metadata: source.SourceMetadata{RecordCount: len(records)}, PartialWarnings: warnings}, nil
}
