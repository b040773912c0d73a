package drivers

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ukgov/org-registry/internal/httpx"
	"github.com/ukgov/org-registry/internal/model"
	"github.com/ukgov/org-registry/internal/source"
)

// TestMain relaxes httpx's SSRF-blocking dialer so these tests can talk
// to httptest servers on loopback; see internal/httpx's own TestMain for
// the same rationale.
func TestMain(m *testing.M) {
	httpx.SetDialContextForTest((&net.Dialer{Timeout: 5 * time.Second}).DialContext)
	m.Run()
}

func capsFor() source.Capabilities {
	return source.Capabilities{HTTP: httpx.New(nil)}
}

const niCourtsHTML = `<html><body><ul class="venue-list">
<li>Belfast Laganside Courts</li>
<li>Londonderry Courthouse</li>
<li>Newry Courthouse</li>
</ul></body></html>`

const scottishCourtsHTML = `<html><body><ul class="venue-list">
<li>Edinburgh Sheriff Court</li>
<li>Glasgow Sheriff Court</li>
<li>Aberdeen Sheriff Court</li>
</ul></body></html>`

const englandWalesCSV = "name,court_type\n" +
	"Central London County Court,county\n" +
	"Manchester Crown Court,crown\n" +
	"Birmingham Civil Justice Centre,county\n" +
	"Leeds Combined Court Centre,crown\n" +
	"Bristol Magistrates' Court,magistrates\n"

func TestCourtsDriverUnionsAllThreeSubParsers(t *testing.T) {
	ewSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(englandWalesCSV))
	}))
	defer ewSrv.Close()

	niSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(niCourtsHTML))
	}))
	defer niSrv.Close()

	scSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(scottishCourtsHTML))
	}))
	defer scSrv.Close()

	d := &CourtsDriver{EnglandWalesCSVURL: ewSrv.URL, NICourtsPageURL: niSrv.URL, ScottishCourtsPageURL: scSrv.URL}
	res, err := d.FetchAndMap(context.Background(), capsFor())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Records) != 11 {
		t.Fatalf("len(records) = %d, want 11 (5 EW + 3 NI + 3 Scotland)", len(res.Records))
	}

	var sawEW, sawNI, sawSC bool
	for _, r := range res.Records {
		for _, ref := range r.Sources {
			switch ref.Source {
			case model.SourceUKCourtsCSV:
				sawEW = true
			case model.SourceNICourts:
				sawNI = true
			case model.SourceScottishCourts:
				sawSC = true
			}
		}
	}
	if !sawEW || !sawNI || !sawSC {
		t.Errorf("expected records tagged with all three sub-parser source ids, got ew=%v ni=%v sc=%v", sawEW, sawNI, sawSC)
	}
}

func TestCourtsDriverFallsBackToEmbeddedScottishDatasetOnFetchFailure(t *testing.T) {
	ewSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(englandWalesCSV))
	}))
	defer ewSrv.Close()

	niSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(niCourtsHTML))
	}))
	defer niSrv.Close()

	brokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer brokenSrv.Close()

	d := &CourtsDriver{EnglandWalesCSVURL: ewSrv.URL, NICourtsPageURL: niSrv.URL, ScottishCourtsPageURL: brokenSrv.URL}
	res, err := d.FetchAndMap(context.Background(), capsFor())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var scottish []model.Organisation
	for _, r := range res.Records {
		if r.Location != nil && r.Location.Region == "Scotland" {
			scottish = append(scottish, r)
		}
	}
	if len(scottish) == 0 {
		t.Fatal("expected fallback Scottish records when live fetch fails")
	}
	for _, r := range scottish {
		if r.DataQuality == nil || r.DataQuality.Source != model.DataQualityFallback {
			t.Errorf("record %q: DataQuality.Source = %v, want fallback", r.Name, r.DataQuality)
		}
	}

	var sawWarning bool
	for _, w := range res.PartialWarnings {
		if strings.Contains(w.Error(), "scottish courts") {
			sawWarning = true
		}
	}
	if !sawWarning {
		t.Error("expected a partial warning noting the Scottish fallback was used")
	}
}

func TestRegisterAllWiresEveryDriver(t *testing.T) {
	reg := source.NewRegistry()
	RegisterAll(reg)

	all := reg.All()
	if len(all) < 30 {
		t.Fatalf("len(all) = %d, want at least 30 registered drivers", len(all))
	}

	seen := map[model.SourceId]bool{}
	for _, d := range all {
		seen[d.ID()] = true
	}
	if !seen[model.SourceGovUKAPI] || !seen[model.SourceUKCourtsCSV] || !seen[model.SourceAOC] {
		t.Error("expected core drivers to be registered by id")
	}
}
