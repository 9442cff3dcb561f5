package dwd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Christian-SuMePa/hausserver/internal/modules/weather/types"
)

const capBulletin = `<?xml version="1.0" encoding="UTF-8"?>
<warnings>
  <alert xmlns="urn:oasis:names:tc:emergency:cap:1.2">
    <identifier>2.49.0.0.276.0.DWD.PVW.1756100000000.a</identifier>
    <info>
      <headline>Amtliche WARNUNG vor STARKREGEN</headline>
      <severity>Moderate</severity>
      <onset>2026-08-25T16:00:00+02:00</onset>
      <expires>2026-08-25T20:00:00+02:00</expires>
      <description>Es tritt Starkregen auf.</description>
      <area><areaDesc>Stadt Rheinstetten</areaDesc></area>
      <area><areaDesc>Stadt Karlsruhe</areaDesc></area>
    </info>
  </alert>
  <alert xmlns="urn:oasis:names:tc:emergency:cap:1.2">
    <identifier>2.49.0.0.276.0.DWD.PVW.1756100000000.b</identifier>
    <info>
      <headline>Amtliche WARNUNG vor GEWITTER</headline>
      <severity>Severe thunderstorm</severity>
      <onset>2026-08-25T12:00:00+02:00</onset>
      <expires>2026-08-25T15:00:00+02:00</expires>
      <description>Es treten Gewitter auf.</description>
      <area><areaDesc>Gemeinde Rheinstetten</areaDesc></area>
    </info>
  </alert>
  <alert xmlns="urn:oasis:names:tc:emergency:cap:1.2">
    <identifier>2.49.0.0.276.0.DWD.PVW.1756100000000.c</identifier>
    <info>
      <headline>Amtliche WARNUNG vor WINDBOEEN</headline>
      <severity>Minor</severity>
      <onset>2026-08-25T10:00:00+02:00</onset>
      <expires>2026-08-25T14:00:00+02:00</expires>
      <description>Es treten Windboeen auf.</description>
      <area><areaDesc>Stadt Muenchen</areaDesc></area>
    </info>
  </alert>
</warnings>`

func TestLatestWarningFile(t *testing.T) {
	t.Run("picks the lexicographically newest bulletin", func(t *testing.T) {
		listing := `<html><body><pre>
<a href="../">../</a>
<a href="Z_CAP_C_EDZW_20260825090000_PVW_STATUS_PREMIUMD.xml">old</a>
<a href="Z_CAP_C_EDZW_20260825103000_PVW_STATUS_PREMIUMD.xml">new</a>
<a href="Z_CAP_C_EDZW_20260825110000_PVW_DIFFERENZ_PREMIUMD.xml">other product</a>
</pre></body></html>`
		got, err := latestWarningFile([]byte(listing))
		if err != nil {
			t.Fatalf("latestWarningFile returned error: %v", err)
		}
		want := "Z_CAP_C_EDZW_20260825103000_PVW_STATUS_PREMIUMD.xml"
		if got != want {
			t.Errorf("latestWarningFile = %q, want %q", got, want)
		}
	})

	t.Run("errors when no bulletin matches", func(t *testing.T) {
		listing := `<html><body><a href="README.txt">readme</a></body></html>`
		if _, err := latestWarningFile([]byte(listing)); err == nil {
			t.Error("latestWarningFile returned nil error for a listing without bulletins")
		}
	})
}

func TestParseWarnings(t *testing.T) {
	c := NewClient("http://unused", time.Second, testLogger())

	t.Run("filters by area and sorts by onset", func(t *testing.T) {
		warnings, err := c.parseWarnings([]byte(capBulletin), "rheinstetten")
		if err != nil {
			t.Fatalf("parseWarnings returned error: %v", err)
		}
		if len(warnings) != 2 {
			t.Fatalf("len(warnings) = %d, want 2", len(warnings))
		}
		if warnings[0].Headline != "Amtliche WARNUNG vor GEWITTER" {
			t.Errorf("warnings[0].Headline = %q, want the earlier-onset thunderstorm", warnings[0].Headline)
		}
		if warnings[0].Severity != types.SeveritySevere {
			t.Errorf("warnings[0].Severity = %q, want %q", warnings[0].Severity, types.SeveritySevere)
		}
		if warnings[1].Severity != types.SeverityModerate {
			t.Errorf("warnings[1].Severity = %q, want %q", warnings[1].Severity, types.SeverityModerate)
		}
		if warnings[1].AreaID != "Stadt Rheinstetten" {
			t.Errorf("warnings[1].AreaID = %q, want %q", warnings[1].AreaID, "Stadt Rheinstetten")
		}
		wantOnset := time.Date(2026, 8, 25, 12, 0, 0, 0, time.FixedZone("", 2*3600))
		if !warnings[0].Onset.Equal(wantOnset) {
			t.Errorf("warnings[0].Onset = %v, want %v", warnings[0].Onset, wantOnset)
		}
	})

	t.Run("returns an empty slice when nothing matches", func(t *testing.T) {
		warnings, err := c.parseWarnings([]byte(capBulletin), "hamburg")
		if err != nil {
			t.Fatalf("parseWarnings returned error: %v", err)
		}
		if warnings == nil || len(warnings) != 0 {
			t.Errorf("warnings = %v, want empty non-nil slice", warnings)
		}
	})

	t.Run("keeps alerts with unparseable timestamps", func(t *testing.T) {
		bulletin := `<alert><info>
			<headline>Warnung</headline>
			<severity>Minor</severity>
			<onset>soon</onset>
			<area><areaDesc>Rheinstetten</areaDesc></area>
		</info></alert>`
		warnings, err := c.parseWarnings([]byte(bulletin), "rheinstetten")
		if err != nil {
			t.Fatalf("parseWarnings returned error: %v", err)
		}
		if len(warnings) != 1 {
			t.Fatalf("len(warnings) = %d, want 1", len(warnings))
		}
		if !warnings[0].Onset.IsZero() {
			t.Errorf("Onset = %v, want zero time for unparseable onset", warnings[0].Onset)
		}
	})
}

func TestFetchWarnings(t *testing.T) {
	const latest = "Z_CAP_C_EDZW_20260825103000_PVW_STATUS_PREMIUMD.xml"
	listing := `<html><body>
<a href="Z_CAP_C_EDZW_20260825090000_PVW_STATUS_PREMIUMD.xml">old</a>
<a href="` + latest + `">new</a>
</body></html>`

	var fetchedBulletins atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case warningsDir:
			_, _ = w.Write([]byte(listing))
		case warningsDir + latest:
			fetchedBulletins.Add(1)
			_, _ = w.Write([]byte(capBulletin))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, testLogger())
	warnings, err := c.FetchWarnings(context.Background(), "Rheinstetten")
	if err != nil {
		t.Fatalf("FetchWarnings returned error: %v", err)
	}
	if got := fetchedBulletins.Load(); got != 1 {
		t.Errorf("bulletin fetches = %d, want 1 for the newest file", got)
	}
	if len(warnings) != 2 {
		t.Errorf("len(warnings) = %d, want 2", len(warnings))
	}
}
