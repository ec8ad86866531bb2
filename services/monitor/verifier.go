package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"academytracker/lib/restyutil"
	"academytracker/lib/roster"

	"github.com/go-resty/resty/v2"
)

// double-check statuses stamped onto removed records
const (
	StatusConfirmedMissing = "confirmed_missing"
	StatusStillPresent     = "still_present"
	StatusCheckError       = "check_error"
	StatusNoUrl            = "no_url"
	StatusNotSupported     = "not_supported"
)

// missingMarkers are phrases that appear on each academy's 404 page.
// Some of the sites return 200 for deleted profiles, so the body has to
// be inspected as well as the status code.
var missingMarkers = map[string][]string{
	roster.NAE.AwardID: {
		"page you are looking for might have been removed",
		"resource you are looking for has been removed",
		"page cannot be found",
	},
	roster.NAM.AwardID: {"page not found"},
	roster.NAS.AwardID: {"page not found"},
}

// Verifier double-checks flagged removals by re-fetching each profile
// url. A removal diff is only as trustworthy as the scrape behind it;
// this catches members who vanished from a listing page but still have
// a live profile.
type Verifier struct {
	http *resty.Client
}

func NewVerifier() (Verifier, error) {
	client, err := restyutil.NewScrapeClient("services/monitor/verify")
	if err != nil {
		return Verifier{}, err
	}
	client.SetTimeout(time.Second * 15)
	return Verifier{http: client}, nil
}

// VerifyOutcome partitions removed records by what re-fetching their
// profile found. Confirmed keeps records whose check errored, marked
// uncertain, so a flaky site never silently hides a removal.
type VerifyOutcome struct {
	Confirmed    []roster.Record
	StillPresent []roster.Record
	Errors       []roster.Record
}

func (o VerifyOutcome) Summary() string {
	// Errors is a subset of Confirmed, so the confirmed figure counts
	// only records whose check actually succeeded.
	return fmt.Sprintf(
		"%d confirmed / %d still present / %d check errors",
		len(o.Confirmed)-len(o.Errors), len(o.StillPresent), len(o.Errors),
	)
}

// VerifyRemoved re-fetches each removed record's profile url and sorts
// the records into the outcome. Each returned record is a copy stamped
// with double_check_status and double_check_detail fields.
func (v Verifier) VerifyRemoved(ctx context.Context, source roster.Source, removed []roster.Record) VerifyOutcome {
	ctx, span := tracer.Start(ctx, "VerifyRemoved")
	defer span.End()

	markers := missingMarkers[source.AwardID]

	var outcome VerifyOutcome
	for _, original := range removed {
		record := original.Clone()
		link := record[roster.KeyField]

		if strings.TrimSpace(link) == "" {
			record["double_check_status"] = StatusNoUrl
			outcome.Confirmed = append(outcome.Confirmed, record)
			continue
		}
		if len(markers) == 0 {
			record["double_check_status"] = StatusNotSupported
			outcome.Confirmed = append(outcome.Confirmed, record)
			continue
		}

		res, err := v.http.R().SetContext(ctx).Get(link)
		if err != nil {
			record["double_check_status"] = StatusCheckError
			record["double_check_detail"] = fmt.Sprintf("request_error=%v", err)
			outcome.Errors = append(outcome.Errors, record)
			outcome.Confirmed = append(outcome.Confirmed, record)
			continue
		}

		record["double_check_detail"] = fmt.Sprintf("status=%d", res.StatusCode())

		switch {
		case indicatesMissing(res, markers):
			record["double_check_status"] = StatusConfirmedMissing
			outcome.Confirmed = append(outcome.Confirmed, record)
		case res.StatusCode() == 200:
			record["double_check_status"] = StatusStillPresent
			outcome.StillPresent = append(outcome.StillPresent, record)
		default:
			// unknown state, keep flagged but mark uncertain
			record["double_check_status"] = StatusCheckError
			outcome.Errors = append(outcome.Errors, record)
			outcome.Confirmed = append(outcome.Confirmed, record)
		}
	}

	return outcome
}

func indicatesMissing(res *resty.Response, markers []string) bool {
	if res.StatusCode() == 404 {
		return true
	}
	body := strings.ToLower(string(res.Body()))
	for _, marker := range markers {
		if strings.Contains(body, marker) {
			return true
		}
	}
	return false
}
