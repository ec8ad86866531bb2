package nam

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

const cardHTML = `
<article class="elementor-post health_status-deceased">
  <a class="elementor-post__thumbnail__link" href="https://nam.edu/members/jane-doe/"></a>
  <span class="sd-post-date">Elected 2015</span>
  <div class="elementor-heading-title elementor-size-default">Dr. Jane   Doe, MD</div>
  <div class="sd-member-institutions"><span class="sd-member-institutions">Example University</span></div>
  <div class="sd-post-categories--card-pills"><span class="sd-post-category">Boston, MA</span></div>
</article>`

func TestParseCard(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(cardHTML))
	require.NoError(t, err)

	card := doc.Find("article.elementor-post").First()
	record := parseCard(card)

	require.Equal(t, "https://nam.edu/members/jane-doe/", record["profile_url"])
	require.Equal(t, "2015", record["year"])
	require.Equal(t, "Jane Doe", record["name"])
	require.Equal(t, "Example University", record["affiliation"])
	require.Equal(t, "Boston, MA", record["location"])
	require.Equal(t, "Y", record["deceased"])
	require.Equal(t, "1909", record["id"])
}

func TestParseCardSparse(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<article class="elementor-post"><header><a href="https://nam.edu/members/x/"></a></header></article>`))
	require.NoError(t, err)

	record := parseCard(doc.Find("article.elementor-post").First())
	require.Equal(t, "https://nam.edu/members/x/", record["profile_url"])
	require.Equal(t, "", record["year"])
	require.Equal(t, "", record["deceased"])
}
