package drivers

import (
	"context"
	"fmt"
	"strings"

	"github.com/ukgov/org-registry/internal/decode"
	"github.com/ukgov/org-registry/internal/errs"
	"github.com/ukgov/org-registry/internal/model"
	"github.com/ukgov/org-registry/internal/source"
)

// HTMLListConfig parameterises one generic HTML-scraping driver instance
// rather than subclassing — spec §9's design note to "compose behaviour
// by parameterising fetcher, parser, and mapper", generalised from the
// teacher's SourceConfig-driven HtmlGenericStrategy/runWithColly.
type HTMLListConfig struct {
	ID               model.SourceId
	Aliases          []string
	StartURL         string
	ContainerSelector string
	NameSelector      string
	NextPageSelector  string
	MaxPages          int
	Type              model.OrgType
	Region            string
	Floor             int
	Confidence        float64
}

// HTMLListDriver is the single generic driver type behind every
// HTML-scraping SourceId in spec §4.D category 3 — a structural
// mismatch (container or name selector matches nothing) fails fast via
// errs.StructureChanged, never a silent zero-row success (§8 S6).
type HTMLListDriver struct {
	cfg HTMLListConfig
}

func NewHTMLListDriver(cfg HTMLListConfig) *HTMLListDriver {
	if cfg.MaxPages == 0 {
		cfg.MaxPages = 1
	}
	if cfg.Confidence == 0 {
		cfg.Confidence = 0.75
	}
	return &HTMLListDriver{cfg: cfg}
}

func (d *HTMLListDriver) ID() model.SourceId      { return d.cfg.ID }
func (d *HTMLListDriver) FilterAliases() []string { return d.cfg.Aliases }

func (d *HTMLListDriver) FetchAndMap(ctx context.Context, caps source.Capabilities) (source.Result, error) {
	var records []model.Organisation
	var warnings []error
	var unnamed int

	err := decode.Crawl(string(d.cfg.ID), d.cfg.StartURL, decode.CrawlConfig{
		ContainerSelector: d.cfg.ContainerSelector,
		NextPageSelector:  d.cfg.NextPageSelector,
		MaxPages:          d.cfg.MaxPages,
	}, func(item decode.CrawlItem) {
		name := strings.TrimSpace(item.Element.ChildText(d.cfg.NameSelector))
		if name == "" && d.cfg.NameSelector == "" {
			name = strings.TrimSpace(item.Element.Text)
		}
		if name == "" {
			unnamed++
			return
		}
		org := model.Organisation{
			ID:       MakeID(d.cfg.ID, item.PageURL+"|"+name, name),
			Name:     name,
			Type:     d.cfg.Type,
			Status:   model.StatusActive,
			Location: &model.Location{Country: "United Kingdom", Region: d.cfg.Region},
			Sources:  SingleReference(d.cfg.ID, item.PageURL, d.cfg.Confidence),
		}
		if err := model.Validate(&org); err != nil {
			warnings = append(warnings, err)
			return
		}
		records = append(records, org)
	})
	if err != nil {
		return source.Result{}, err
	}
	if len(records) == 0 && unnamed > 0 {
		return source.Result{}, &errs.StructureChanged{Source: string(d.cfg.ID), Detail: fmt.Sprintf("name selector %q matched nothing in %d containers", d.cfg.NameSelector, unnamed)}
	}

	floor := d.cfg.Floor
	if floor == 0 {
		floor = 1
	}
	if err := CheckFloor(d.cfg.ID, len(records), floor); err != nil {
		return source.Result{}, err
	}
	return source.Result{Records: records, Metadata: source.SourceMetadata{RecordCount: len(records)}, PartialWarnings: warnings}, nil
}

// NewHTMLGenericDrivers constructs the ~20 generic HTML-scraping driver
// instances spec §4.E's driver table assigns to this category. Each
// instance supplies its own start URL, container/name selectors, and
// structural expectations; the scrape/fail-fast/map logic above is
// shared.
func NewHTMLGenericDrivers() []source.Driver {
	configs := []HTMLListConfig{
		{
			ID: model.SourceNHSProviderDirectory, Aliases: []string{"nhs-providers"},
			StartURL: "https://www.england.nhs.uk/publication/nhs-provider-directory/",
			ContainerSelector: ".provider-list li, table tbody tr", NameSelector: "a",
			Type: model.TypeNHSTrust, Floor: 50,
		},
		{
			ID: model.SourceDEFRAUKAir, Aliases: []string{"defra", "uk-air"},
			StartURL: "https://uk-air.defra.gov.uk/networks/find-monitoring-stations",
			ContainerSelector: "table.stations tbody tr", NameSelector: "td:first-child",
			Type: model.TypeOther, Floor: 30,
		},
		{
			ID: model.SourceGroundwork, Aliases: []string{"groundwork"},
			StartURL: "https://www.groundwork.org.uk/find-groundwork-near-me/",
			ContainerSelector: ".trust-list li, .location-card", NameSelector: "h3, .title",
			Type: model.TypeOther, Floor: 10,
		},
		{
			ID: model.SourceMyGovScot, Aliases: []string{"mygov-scot"},
			StartURL: "https://www.mygov.scot/organisations",
			ContainerSelector: ".organisation-list li, ul.index-list li", NameSelector: "a",
			Type: model.TypeOther, Region: "Scotland", Floor: 20,
		},
		{
			ID: model.SourceWikipediaWelshCommunities, Aliases: []string{"welsh-communities"},
			StartURL: "https://en.wikipedia.org/wiki/Community_(Wales)",
			ContainerSelector: "table.wikitable tbody tr", NameSelector: "td:first-child a",
			Type: model.TypeCommunityCouncil, Region: "Wales", Floor: 100,
		},
		{
			ID: model.SourceWikipediaScottishCommunities, Aliases: []string{"scottish-community-councils"},
			StartURL: "https://en.wikipedia.org/wiki/Community_council_(Scotland)",
			ContainerSelector: "table.wikitable tbody tr", NameSelector: "td:first-child a",
			Type: model.TypeCommunityCouncil, Region: "Scotland", Floor: 100,
		},
		{
			ID: model.SourceNFCC, Aliases: []string{"nfcc", "fire"},
			StartURL: "https://nfcc.org.uk/contacts/fire-and-rescue-services/",
			ContainerSelector: ".service-list li, table tbody tr", NameSelector: "a, td:first-child",
			Type: model.TypeEmergencyService, Floor: 30,
		},
		{
			ID: model.SourceNIGovernment, Aliases: []string{"ni-government"},
			StartURL: "https://www.northernireland.gov.uk/organisations",
			ContainerSelector: ".organisation-list li", NameSelector: "a",
			Type: model.TypeMinisterialDepartment, Region: "Northern Ireland", Floor: 5,
		},
		{
			ID: model.SourceInfrastructureNIPorts, Aliases: []string{"ni-ports"},
			StartURL: "https://www.infrastructure-ni.gov.uk/articles/ports",
			ContainerSelector: ".port-list li, table tbody tr", NameSelector: "a, td:first-child",
			Type: model.TypeOther, Region: "Northern Ireland", Floor: 3,
		},
		{
			ID: model.SourceUKRI, Aliases: []string{"ukri"},
			StartURL: "https://www.ukri.org/about-us/our-councils/",
			ContainerSelector: ".council-list li, .card", NameSelector: "h3, a",
			Type: model.TypeResearchCouncil, Floor: 5,
		},
		{
			ID: model.SourceLawGovWales, Aliases: []string{"law-gov-wales"},
			StartURL: "https://law.gov.wales/organisations",
			ContainerSelector: ".organisation-list li", NameSelector: "a",
			Type: model.TypeOther, Region: "Wales", Floor: 3,
		},
		{
			ID: model.SourceNationalParksUK, Aliases: []string{"national-parks"},
			StartURL: "https://www.nationalparks.uk/students/whatisanationalpark/nationalparkauthorities",
			ContainerSelector: ".park-list li, table tbody tr", NameSelector: "a, td:first-child",
			Type: model.TypeNationalPark, Floor: 10,
		},
		{
			ID: model.SourceGovUKGuidance, Aliases: []string{"govuk-guidance"},
			StartURL: "https://www.gov.uk/government/organisations",
			ContainerSelector: ".gem-c-organisation-list__item, .organisations-list li", NameSelector: "a",
			Type: model.TypeOther, Floor: 50,
		},
		{
			ID: model.SourceNHSCharities, Aliases: []string{"nhs-charities"},
			StartURL: "https://www.nhscharitiestogether.co.uk/our-charities/",
			ContainerSelector: ".charity-list li, .card", NameSelector: "h3, a",
			Type: model.TypeOther, Floor: 50,
		},
		{
			ID: model.SourceNIHealth, Aliases: []string{"ni-health"},
			StartURL: "https://www.health-ni.gov.uk/health-and-social-care-trusts",
			ContainerSelector: ".trust-list li, table tbody tr", NameSelector: "a, td:first-child",
			Type: model.TypeNHSTrust, Region: "Northern Ireland", Floor: 3,
		},
		{
			ID: model.SourceWikipediaDistricts, Aliases: []string{"wikipedia-districts"},
			StartURL: "https://en.wikipedia.org/wiki/Districts_of_England",
			ContainerSelector: "table.wikitable tbody tr", NameSelector: "td:first-child a",
			Type: model.TypeDistrictCouncil, Floor: 100,
		},
		{
			ID: model.SourceNHSICBs, Aliases: []string{"nhs-icbs"},
			StartURL: "https://www.england.nhs.uk/integratedcare/integrated-care-in-your-area/",
			ContainerSelector: ".icb-list li, table tbody tr", NameSelector: "a, td:first-child",
			Type: model.TypeNHSTrust, Floor: 30,
		},
		{
			ID: model.SourceHealthwatch, Aliases: []string{"healthwatch"},
			StartURL: "https://www.healthwatch.co.uk/your-local-healthwatch/list",
			ContainerSelector: ".local-healthwatch-list li, table tbody tr", NameSelector: "a, td:first-child",
			Type: model.TypeOther, Floor: 100,
		},
		{
			ID: model.SourceNHSScotlandBoards, Aliases: []string{"nhs-scotland"},
			StartURL: "https://www.scot.nhs.uk/organisations/",
			ContainerSelector: ".board-list li, table tbody tr", NameSelector: "a, td:first-child",
			Type: model.TypeHealthBoard, Region: "Scotland", Floor: 10,
		},
		{
			ID: model.SourceTransportScotlandRTPs, Aliases: []string{"rtps"},
			StartURL: "https://www.transport.gov.scot/our-approach/partners/regional-transport-partnerships/",
			ContainerSelector: ".rtp-list li, table tbody tr", NameSelector: "a, td:first-child",
			Type: model.TypeTransportPartnership, Region: "Scotland", Floor: 5,
		},
	}

	drivers := make([]source.Driver, 0, len(configs))
	for _, cfg := range configs {
		drivers = append(drivers, NewHTMLListDriver(cfg))
	}
	return drivers
}
