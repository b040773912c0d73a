package drivers

import (
	"context"

	"github.com/ukgov/org-registry/internal/model"
	"github.com/ukgov/org-registry/internal/source"
)

// devolvedAdministrations is the compile-time fallback-style constant
// table for the static curated driver category (spec §4.D category 6),
// in the idiom of the teacher's compile-time maps (e.g. spanishMonths in
// date_parser.go) — there is no publisher endpoint to fetch, these four
// bodies are enumerable once and stable.
var devolvedAdministrations = []struct {
	name   string
	region string
}{
	{"Scottish Government", "Scotland"},
	{"Welsh Government", "Wales"},
	{"Northern Ireland Executive", "Northern Ireland"},
	{"Northern Ireland Assembly", "Northern Ireland"},
}

// DevolvedAdminStaticDriver emits the embedded curated record set. It
// still follows the uniform Driver contract (spec §4.D: "still follows
// the same contract") even though it performs no network fetch.
type DevolvedAdminStaticDriver struct{}

func NewDevolvedAdminStaticDriver() *DevolvedAdminStaticDriver { return &DevolvedAdminStaticDriver{} }

func (d *DevolvedAdminStaticDriver) ID() model.SourceId      { return model.SourceDevolvedAdminStatic }
func (d *DevolvedAdminStaticDriver) FilterAliases() []string { return []string{"devolved"} }

func (d *DevolvedAdminStaticDriver) FetchAndMap(ctx context.Context, caps source.Capabilities) (source.Result, error) {
	records := make([]model.Organisation, 0, len(devolvedAdministrations))
	for _, entry := range devolvedAdministrations {
		org := model.Organisation{
			ID:       MakeID(d.ID(), "", entry.name),
			Name:     entry.name,
			Type:     model.TypeDevolvedAdmin,
			Status:   model.StatusActive,
			Location: &model.Location{Country: "United Kingdom", Region: entry.region},
			Sources:  SingleReference(d.ID(), "", 1.0),
			DataQuality: &model.DataQuality{Completeness: 1.0, Source: model.DataQualityFallback},
		}
		if err := model.Validate(&org); err != nil {
			return source.Result{}, err
		}
		records = append(records, org)
	}

	if err := CheckFloor(d.ID(), len(records), 3); err != nil {
		return source.Result{}, err
	}
	return source.Result{Records: records, Metadata: source.SourceMetadata{RecordCount: len(records)}}, nil
}
