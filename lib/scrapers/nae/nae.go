// Package nae scrapes the National Academy of Engineering member
// directory. The directory is browsed per election year; each listing
// page links to individual profile pages that carry the member detail.
package nae

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"academytracker/lib/restyutil"
	"academytracker/lib/roster"
	"academytracker/lib/textutil"
	"academytracker/lib/timezone"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/nae")

const (
	baseUrl  = "https://www.nae.edu/20412/MemberDirectory"
	award    = "NAE Membership"
	govId    = "221"
	yearSpan = 60
)

var Fields = []string{
	"id", "govid", "govname", "award", "profile_url", "name",
	"title", "affiliation", "other_affiliations", "location",
	"year", "deceased",
}

var yearRegexp = regexp.MustCompile(`\b(19|20)\d{2}\b`)

type Client struct {
	http *resty.Client
}

func NewClient() (Client, error) {
	client, err := restyutil.NewScrapeClient("scrapers/nae/http")
	if err != nil {
		return Client{}, err
	}
	return Client{http: client}, nil
}

func (c Client) Source() roster.Source {
	return roster.NAE
}

// Scrape walks every election year of the directory and fetches each
// member profile. Individual profile failures are logged and skipped;
// a failure to reach the directory itself fails the whole scrape.
func (c Client) Scrape(ctx context.Context) (roster.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "Scrape")
	defer span.End()

	years, err := c.discoverYears(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to discover election years")
		return roster.Snapshot{}, err
	}
	slog.DebugContext(ctx, "discovered election years", "count", len(years))

	var records []roster.Record
	for _, year := range years {
		links, err := c.collectLinksForYear(ctx, year)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to list a directory year")
			return roster.Snapshot{}, err
		}

		for _, link := range links {
			record, err := c.scrapeProfile(ctx, link, year)
			if err != nil {
				slog.WarnContext(ctx, "skipping nae profile", "url", link, "err", err)
				continue
			}
			records = append(records, record)
		}
	}

	return roster.Snapshot{
		Source:     roster.NAE,
		CapturedAt: timezone.Now(),
		Fields:     Fields,
		Records:    roster.Dedupe(roster.NormalizeAll(records)),
	}, nil
}

func (c Client) fetchDocument(ctx context.Context, link string) (*goquery.Document, error) {
	res, err := c.http.R().SetContext(ctx).Get(link)
	if err != nil {
		return nil, err
	}
	if res.StatusCode() >= 400 {
		return nil, fmt.Errorf("GET %s: status %d", link, res.StatusCode())
	}
	return goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
}

// discoverYears reads the election year filter off the directory page,
// falling back to a fixed window of recent years when the control is
// missing.
func (c Client) discoverYears(ctx context.Context) ([]int, error) {
	doc, err := c.fetchDocument(ctx, baseUrl)
	if err != nil {
		return nil, err
	}

	seen := map[int]bool{}
	var years []int
	doc.Find("select[id*='Year'] option, select[name*='Year'] option").
		Each(func(_ int, opt *goquery.Selection) {
			match := yearRegexp.FindString(opt.Text())
			if match == "" {
				return
			}
			year, err := strconv.Atoi(match)
			if err != nil || seen[year] {
				return
			}
			seen[year] = true
			years = append(years, year)
		})

	if len(years) > 0 {
		return years, nil
	}

	thisYear := timezone.Now().Year()
	for year := thisYear - yearSpan; year <= thisYear; year++ {
		years = append(years, year)
	}
	return years, nil
}

// collectLinksForYear pages through one election year's listing and
// returns every profile link.
func (c Client) collectLinksForYear(ctx context.Context, year int) ([]string, error) {
	page := fmt.Sprintf("%s?qey=%d&qdec=both", baseUrl, year)

	seen := map[string]bool{}
	var links []string

	for page != "" {
		doc, err := c.fetchDocument(ctx, page)
		if err != nil {
			return nil, err
		}

		doc.Find(".flexible-list-item span.name a").Each(func(_ int, a *goquery.Selection) {
			href := resolveHref(page, a.AttrOr("href", ""))
			if href == "" || seen[href] {
				return
			}
			seen[href] = true
			links = append(links, href)
		})

		next := resolveHref(page, doc.Find("li.pager-pagenextb a.next_page").AttrOr("href", ""))
		if next == page {
			break
		}
		page = next
	}

	return links, nil
}

func (c Client) scrapeProfile(ctx context.Context, link string, fallbackYear int) (roster.Record, error) {
	doc, err := c.fetchDocument(ctx, link)
	if err != nil {
		return nil, err
	}

	name := textutil.CleanName(doc.Find("div.name").First().Text())
	title := doc.Find(".personInfo.hidden-xs .jobOrg .jobTitle").First().Text()
	affiliation := doc.Find(".personInfo.hidden-xs .jobOrg .organization").First().Text()

	var otherAffiliations []string
	var location string
	doc.Find("label").Each(func(_ int, label *goquery.Selection) {
		switch textutil.CollapseSpace(label.Text()) {
		case "Other Affiliations":
			label.Parent().Find("li").Each(func(_ int, li *goquery.Selection) {
				if text := textutil.CollapseSpace(li.Text()); text != "" {
					otherAffiliations = append(otherAffiliations, text)
				}
			})
		case "Location":
			location = label.Parent().Find("div.address").First().Text()
		}
	})

	electionYear := ""
	doc.Find("ul.ordList li").Each(func(_ int, li *goquery.Selection) {
		if textutil.CollapseSpace(li.Find("label").Text()) == "Election Year" {
			electionYear = li.Find("span").Text()
		}
	})
	if textutil.CollapseSpace(electionYear) == "" {
		electionYear = strconv.Itoa(fallbackYear)
	}

	deceased := ""
	if doc.Find("span.badge.deceased").Length() > 0 {
		deceased = "Y"
	}

	return roster.Record{
		"id":                 roster.NAE.AwardID,
		"govid":              govId,
		"govname":            roster.NAE.Name,
		"award":              award,
		"profile_url":        link,
		"name":               name,
		"title":              title,
		"affiliation":        affiliation,
		"other_affiliations": strings.Join(otherAffiliations, ", "),
		"location":           location,
		"year":               electionYear,
		"deceased":           deceased,
	}, nil
}

// resolveHref absolutizes an href against the page it came from.
func resolveHref(page, href string) string {
	href = textutil.CollapseSpace(href)
	if href == "" {
		return ""
	}
	base, err := url.Parse(page)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
