// Package nam scrapes the National Academy of Medicine member
// directory. Everything needed lives on the listing cards, so no
// per-profile fetches are required.
package nam

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
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

var tracer = otel.Tracer("scrapers/nam")

const (
	baseUrl = "https://nam.edu/membership/members/directory/" +
		"?lastName&firstName&parentInstitution&yearStart&yearEnd" +
		"&presence=0&jsf=epro-posts:content-feed&tax=health_status:include_all"
	award = "NAM Member"
	govId = "202"
	// hard ceiling in case the pager never runs dry
	maxPages = 500
)

var Fields = []string{
	"id", "govid", "govname", "award", "profile_url",
	"year", "name", "affiliation", "location", "deceased",
}

var yearRegexp = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// profile link candidates, most specific first
var linkSelectors = []string{
	"a.elementor-post__thumbnail__link",
	"h3.elementor-heading-title a",
	"a.elementor-post__read-more",
	"header a",
	"a",
}

type Client struct {
	http *resty.Client
}

func NewClient() (Client, error) {
	client, err := restyutil.NewScrapeClient("scrapers/nam/http")
	if err != nil {
		return Client{}, err
	}
	return Client{http: client}, nil
}

func (c Client) Source() roster.Source {
	return roster.NAM
}

// Scrape pages through the directory grid until a page stops yielding
// new members.
func (c Client) Scrape(ctx context.Context) (roster.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "Scrape")
	defer span.End()

	seen := map[string]bool{}
	var records []roster.Record

	for page := 1; page <= maxPages; page++ {
		cards, err := c.fetchCards(ctx, page)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to fetch directory page")
			return roster.Snapshot{}, err
		}

		newOnPage := 0
		for _, record := range cards {
			key := record.Key()
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			records = append(records, record)
			newOnPage++
		}

		if newOnPage == 0 {
			break
		}
	}

	return roster.Snapshot{
		Source:     roster.NAM,
		CapturedAt: timezone.Now(),
		Fields:     Fields,
		Records:    roster.Dedupe(roster.NormalizeAll(records)),
	}, nil
}

func (c Client) fetchCards(ctx context.Context, page int) ([]roster.Record, error) {
	link := baseUrl
	if page > 1 {
		link = fmt.Sprintf("%s&pagenum=%d", baseUrl, page)
	}

	res, err := c.http.R().SetContext(ctx).Get(link)
	if err != nil {
		return nil, err
	}
	if res.StatusCode() >= 400 {
		return nil, fmt.Errorf("GET %s: status %d", link, res.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return nil, err
	}

	var records []roster.Record
	doc.Find("article.elementor-post").Each(func(_ int, card *goquery.Selection) {
		records = append(records, parseCard(card))
	})
	return records, nil
}

func parseCard(card *goquery.Selection) roster.Record {
	year := yearRegexp.FindString(card.Find("span.sd-post-date").First().Text())
	name := textutil.CleanName(
		card.Find("div.elementor-heading-title.elementor-size-default").First().Text())
	affiliation := card.Find("div.sd-member-institutions span.sd-member-institutions").First().Text()
	location := card.Find("div.sd-post-categories--card-pills span.sd-post-category").First().Text()

	deceased := ""
	if className, _ := card.Attr("class"); strings.Contains(className, "health_status-deceased") {
		deceased = "Y"
	}

	return roster.Record{
		"id":          roster.NAM.AwardID,
		"govid":       govId,
		"govname":     roster.NAM.Name,
		"award":       award,
		"profile_url": profileLink(card),
		"year":        year,
		"name":        name,
		"affiliation": affiliation,
		"location":    location,
		"deceased":    deceased,
	}
}

func profileLink(card *goquery.Selection) string {
	for _, selector := range linkSelectors {
		href := textutil.CollapseSpace(card.Find(selector).First().AttrOr("href", ""))
		if href != "" {
			return href
		}
	}
	return ""
}
