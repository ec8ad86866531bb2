// Package nas scrapes the National Academy of Sciences member
// directory. Listing pages only carry profile links; member detail
// comes from each profile page, whose metadata block is a dynamic set
// of label/value pairs rather than a fixed schema.
package nas

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
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

var tracer = otel.Tracer("scrapers/nas")

const (
	baseUrl = "https://www.nasonline.org/membership/member-directory/" +
		"?_member_directory_sort=last_name_asc&_per_page=100"
	award = "NAS Member"
	govId = "222"
	// hard ceiling in case the pager never runs dry
	maxPages = 500
)

// Fields is the fixed column set. Profile pages may contribute extra
// dynamic fields beyond these; they ride along in the records and are
// surfaced by the diff as schema drift when they come and go.
var Fields = []string{
	"id", "govid", "govname", "award", "year",
	"name", "affiliation", "deceased", "profile_url",
}

var (
	tagRegexp      = regexp.MustCompile(`<[^>]+>`)
	trailingJunk   = regexp.MustCompile(`[^\w_]+$`)
	affiliationSel = "div[data-node='jd7ypfvaiw1h'] p"
)

type Client struct {
	http *resty.Client
}

func NewClient() (Client, error) {
	client, err := restyutil.NewScrapeClient("scrapers/nas/http")
	if err != nil {
		return Client{}, err
	}
	return Client{http: client}, nil
}

func (c Client) Source() roster.Source {
	return roster.NAS
}

// Scrape collects every profile link off the paginated listing, then
// fetches member detail link by link. Individual profile failures are
// logged and skipped.
func (c Client) Scrape(ctx context.Context) (roster.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "Scrape")
	defer span.End()

	links, err := c.collectLinks(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to collect profile links")
		return roster.Snapshot{}, err
	}
	slog.DebugContext(ctx, "collected nas profile links", "count", len(links))

	var records []roster.Record
	for _, link := range links {
		record, err := c.scrapeProfile(ctx, link)
		if err != nil {
			slog.WarnContext(ctx, "skipping nas profile", "url", link, "err", err)
			continue
		}
		records = append(records, record)
	}

	return roster.Snapshot{
		Source:     roster.NAS,
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

func (c Client) collectLinks(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	var links []string

	for page := 1; page <= maxPages; page++ {
		link := baseUrl
		if page > 1 {
			link = fmt.Sprintf("%s&_paged=%d", baseUrl, page)
		}

		doc, err := c.fetchDocument(ctx, link)
		if err != nil {
			return nil, err
		}

		newOnPage := 0
		doc.Find("div.fl-post-grid-post h5 a").Each(func(_ int, a *goquery.Selection) {
			href := textutil.CollapseSpace(a.AttrOr("href", ""))
			if href == "" || seen[href] {
				return
			}
			seen[href] = true
			links = append(links, href)
			newOnPage++
		})

		if newOnPage == 0 {
			break
		}
	}

	return links, nil
}

func (c Client) scrapeProfile(ctx context.Context, link string) (roster.Record, error) {
	doc, err := c.fetchDocument(ctx, link)
	if err != nil {
		return nil, err
	}

	record := roster.Record{
		"id":          roster.NAS.AwardID,
		"govid":       govId,
		"govname":     roster.NAS.Name,
		"award":       award,
		"year":        "",
		"name":        "",
		"affiliation": "",
		"deceased":    "",
		"profile_url": link,
	}

	record["name"] = textutil.CleanName(doc.Find("span.fl-heading-text").First().Text())

	var paragraphs []string
	doc.Find(affiliationSel).Each(func(_ int, p *goquery.Selection) {
		if text := textutil.CollapseSpace(p.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	record["affiliation"] = strings.Join(paragraphs, " ")

	doc.Find("div[class*='meta-item']").Each(func(_ int, item *goquery.Selection) {
		pairs := item.Find("div[class*='fl-rich-text'] p")
		if pairs.Length() < 2 {
			return
		}
		label, err := pairs.Eq(0).Html()
		if err != nil {
			return
		}
		value := textutil.CollapseSpace(pairs.Eq(1).Text())
		applyMeta(record, cleanKey(label), value)
	})

	if record["deceased"] != "Y" {
		record["deceased"] = ""
	}

	return record, nil
}

// applyMeta maps one dynamic metadata pair onto the record. Known
// labels fill the fixed columns; the rest become extra fields, renamed
// when they would collide with a fixed one.
func applyMeta(record roster.Record, key, value string) {
	if key == "" {
		return
	}
	switch key {
	case "election_year":
		record["year"] = value
	case "birth___deceased_date":
		parts := strings.SplitN(value, "-", 2)
		if len(parts) > 1 && textutil.CollapseSpace(parts[1]) != "" {
			record["deceased"] = "Y"
		}
	default:
		if _, exists := record[key]; exists {
			record["dynamic_"+key] = value
		} else {
			record[key] = value
		}
	}
}

// cleanKey turns a label's inner html into a safe snake_case field
// name.
func cleanKey(label string) string {
	text := tagRegexp.ReplaceAllString(label, "")
	text = strings.ToLower(strings.TrimSpace(text))
	text = strings.ReplaceAll(text, " ", "_")
	text = strings.ReplaceAll(text, "/", "_")
	return trailingJunk.ReplaceAllString(text, "")
}
