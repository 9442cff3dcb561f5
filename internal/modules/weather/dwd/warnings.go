package dwd

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Christian-SuMePa/hausserver/internal/modules/weather/types"
)

const warningsDir = "/weather/alerts/cap/COMMUNEUNION_DWD_STAT/"

// The timestamp inside the name makes lexicographic order chronological.
var warningFileRe = regexp.MustCompile(`^Z_CAP_C_EDZW_\d{14}_PVW_STATUS_PREMIUMD\.xml$`)

type capAlert struct {
	Infos []capInfo `xml:"info"`
}

type capInfo struct {
	Headline    string    `xml:"headline"`
	Severity    string    `xml:"severity"`
	Onset       string    `xml:"onset"`
	Expires     string    `xml:"expires"`
	Description string    `xml:"description"`
	Areas       []capArea `xml:"area"`
}

type capArea struct {
	AreaDesc string `xml:"areaDesc"`
}

// FetchWarnings downloads the latest CAP status bulletin and returns the
// alerts whose area matches the configured name, ordered by onset. The
// result is never nil: an empty slice means "no active warnings".
func (c *Client) FetchWarnings(ctx context.Context, area string) ([]types.Warning, error) {
	dir := c.baseURL + warningsDir
	listing, err := c.get(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("fetch warnings listing: %w", err)
	}
	name, err := latestWarningFile(listing)
	if err != nil {
		return nil, fmt.Errorf("fetch warnings: %w", err)
	}
	payload, err := c.get(ctx, dir+name)
	if err != nil {
		return nil, fmt.Errorf("fetch warnings file %s: %w", name, err)
	}
	warnings, err := c.parseWarnings(payload, area)
	if err != nil {
		return nil, fmt.Errorf("parse warnings file %s: %w", name, err)
	}
	return warnings, nil
}

// latestWarningFile scrapes the directory listing for status bulletins and
// picks the newest one.
func latestWarningFile(listing []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(listing))
	if err != nil {
		return "", fmt.Errorf("parse listing: %w", err)
	}
	var latest string
	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		name := path.Base(href)
		if warningFileRe.MatchString(name) && name > latest {
			latest = name
		}
	})
	if latest == "" {
		return "", errors.New("listing contains no status bulletin")
	}
	return latest, nil
}

func (c *Client) parseWarnings(payload []byte, area string) ([]types.Warning, error) {
	warnings := make([]types.Warning, 0)
	areaLower := strings.ToLower(area)

	// The bulletin may carry alerts under a wrapper element or as the
	// root, so scan for alert elements instead of decoding one shape.
	dec := xml.NewDecoder(bytes.NewReader(payload))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode cap: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "alert" {
			continue
		}
		var alert capAlert
		if err := dec.DecodeElement(&alert, &start); err != nil {
			c.logger.Warn("skipping malformed cap alert", "error", err)
			continue
		}
		for _, info := range alert.Infos {
			for _, a := range info.Areas {
				if !strings.Contains(strings.ToLower(a.AreaDesc), areaLower) {
					continue
				}
				warnings = append(warnings, types.Warning{
					Headline:    info.Headline,
					Severity:    types.ClassifySeverity(info.Severity),
					Onset:       c.parseCAPTime(info.Onset),
					Expires:     c.parseCAPTime(info.Expires),
					Description: info.Description,
					AreaID:      a.AreaDesc,
				})
			}
		}
	}

	sort.Slice(warnings, func(i, j int) bool {
		return warnings[i].Onset.Before(warnings[j].Onset)
	})
	return warnings, nil
}

func (c *Client) parseCAPTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		c.logger.Warn("skipping malformed cap timestamp", "value", raw)
		return time.Time{}
	}
	return t
}
