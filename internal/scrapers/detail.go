// internal/scrapers/detail.go
package scrapers

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kbrooks/land-tracker/internal/parse"
)

// Detail carries the fields a listing's own page can supply when the index
// card was missing them.
type Detail struct {
	Title     string
	Thumbnail string
	Status    string
	Price     *int64
	Acres     *float64
}

// statusTextLimit bounds how much body text feeds status detection.
const statusTextLimit = 20000

// ParseDetail extracts enrichment fields from a listing detail page:
// og/twitter meta tags for title and thumbnail, strict status detection over
// meta descriptions plus body text, and JSON-LD offers for price and
// acreage.
func ParseDetail(page io.Reader) (Detail, error) {
	doc, err := goquery.NewDocumentFromReader(page)
	if err != nil {
		return Detail{}, fmt.Errorf("parsing detail page: %w", err)
	}

	var d Detail

	d.Title = metaContent(doc, "property", "og:title")
	if d.Title == "" {
		d.Title = metaContent(doc, "name", "twitter:title")
	}
	if d.Title == "" {
		d.Title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if d.Title == "" {
		d.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	d.Title = strings.Join(strings.Fields(d.Title), " ")
	if isBadTitle(d.Title) {
		d.Title = ""
	}

	d.Thumbnail = metaContent(doc, "property", "og:image")
	if d.Thumbnail == "" {
		d.Thumbnail = metaContent(doc, "name", "twitter:image")
	}

	body := doc.Find("body").Text()
	if len(body) > statusTextLimit {
		body = body[:statusTextLimit]
	}
	d.Status = parse.DetectStatus(strings.Join([]string{
		metaContent(doc, "property", "og:description"),
		metaContent(doc, "name", "twitter:description"),
		body,
	}, " "))

	for _, block := range jsonLDBlocks(doc) {
		walkJSON(block, func(m map[string]any) {
			if d.Price == nil {
				d.Price = parse.Price(priceTextFromDict(m))
			}
			if d.Acres == nil {
				d.Acres = parse.Acres(acresTextFromDict(m))
			}
		})
	}
	return d, nil
}

func metaContent(doc *goquery.Document, attr, key string) string {
	c, _ := doc.Find(fmt.Sprintf(`meta[%s=%q]`, attr, key)).First().Attr("content")
	return strings.TrimSpace(c)
}
