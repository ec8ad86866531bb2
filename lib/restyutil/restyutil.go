// Package restyutil builds the http clients the roster scrapers share.
package restyutil

import (
	"net/http/cookiejar"
	"time"

	"academytracker/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// NewScrapeClient returns a client set up for public directory sites:
// cookie jar, browser user agent, cloudflare bypass transport and span
// instrumentation under the given tracer name.
func NewScrapeClient(tracerName string) (*resty.Client, error) {
	client := resty.New()

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", userAgent)
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, tracerName)

	return client, nil
}
