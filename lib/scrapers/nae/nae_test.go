package nae

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestResolveHref(t *testing.T) {
	page := "https://www.nae.edu/20412/MemberDirectory?qey=2001&qdec=both"

	require.Equal(t,
		"https://www.nae.edu/MemberDirectory?qey=2001&qdec=both&p=2",
		resolveHref(page, "/MemberDirectory?qey=2001&qdec=both&p=2"))
	require.Equal(t,
		"https://www.nae.edu/105812/Jane-Doe",
		resolveHref(page, "https://www.nae.edu/105812/Jane-Doe"))
	require.Equal(t, "", resolveHref(page, "  "))
}

const listingHTML = `
<ul>
  <li class="flexible-list-item"><span class="name"><a href="/105812/Jane-Doe">Jane Doe</a></span></li>
  <li class="flexible-list-item"><span class="name"><a href="/105813/John-Roe">John Roe</a></span></li>
</ul>
<ul class="pager"><li class="pager-pagenextb"><a class="next_page" href="?qey=2001&qdec=both&p=2">Next</a></li></ul>`

func TestListingSelectors(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(listingHTML))
	require.NoError(t, err)

	var hrefs []string
	doc.Find(".flexible-list-item span.name a").Each(func(_ int, a *goquery.Selection) {
		hrefs = append(hrefs, a.AttrOr("href", ""))
	})
	require.Equal(t, []string{"/105812/Jane-Doe", "/105813/John-Roe"}, hrefs)

	next := doc.Find("li.pager-pagenextb a.next_page").AttrOr("href", "")
	require.Equal(t, "?qey=2001&qdec=both&p=2", next)
}
