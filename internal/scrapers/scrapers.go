// internal/scrapers/scrapers.go

// Package scrapers holds one adapter per supported listing site. An adapter
// turns a source's listing-index HTML into normalized candidates. Adapters
// never touch the network; fetching belongs to the run coordinator, which
// keeps fetch failures and parse failures distinguishable.
package scrapers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kbrooks/land-tracker/internal/domain"
	"github.com/kbrooks/land-tracker/internal/parse"
	"github.com/kbrooks/land-tracker/pkg/logger"
)

// ErrNoListings reports a page the adapter could not pull a single candidate
// from, usually a wholesale site-structure change. Callers treat it as a
// soft failure for that source, not a reason to abort the run.
var ErrNoListings = errors.New("no listings extracted from page")

// ErrUnsupportedSource reports a configured source name with no adapter.
var ErrUnsupportedSource = errors.New("unsupported source")

// Adapter extracts listing candidates from a source's index page.
type Adapter interface {
	Source() string
	Extract(baseURL string, page io.Reader) ([]domain.Candidate, error)
}

// ForSource returns the adapter for a configured source name. The set is
// closed: unknown names fail at configuration time, never mid-run.
func ForSource(name string, log *logger.Logger) (Adapter, error) {
	switch strings.ToLower(strings.ReplaceAll(name, " ", "")) {
	case "landsearch":
		return &LandSearch{log: log}, nil
	case "landwatch":
		return &LandWatch{log: log}, nil
	case "landandfarm", "land&farm":
		return &LandAndFarm{log: log}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, name)
	}
}

// rawCandidate carries the untyped fragments pulled from markup before the
// field parsers run.
type rawCandidate struct {
	title     string
	url       string
	priceText string
	acresText string
	address   string
	thumbnail string
}

// Titles the sites emit for navigation links and empty cards.
var badTitles = map[string]bool{
	"":                   true,
	"listing":            true,
	"land listing":       true,
	"skip to navigation": true,
	"skip to content":    true,
}

func isBadTitle(t string) bool {
	return badTitles[strings.ToLower(strings.TrimSpace(t))]
}

// normalize runs the field parsers over a raw fragment. Status always starts
// as unknown; only detail-page enrichment may set it, so a stale status
// saved on an earlier run can never leak into this one.
func normalize(source string, raw rawCandidate) domain.Candidate {
	title := strings.Join(strings.Fields(raw.title), " ")
	if isBadTitle(title) {
		title = source + " listing"
	}
	return domain.Candidate{
		Source:    source,
		Title:     title,
		URL:       raw.url,
		Address:   strings.TrimSpace(raw.address),
		Thumbnail: strings.TrimSpace(raw.thumbnail),
		Status:    domain.StatusUnknown,
		Price:     parse.Price(raw.priceText),
		Acres:     parse.Acres(raw.acresText),
	}
}

// dedupeByURL keeps the first candidate seen for each URL.
func dedupeByURL(in []domain.Candidate) []domain.Candidate {
	seen := make(map[string]bool, len(in))
	out := make([]domain.Candidate, 0, len(in))
	for _, c := range in {
		if c.URL == "" || seen[c.URL] {
			continue
		}
		seen[c.URL] = true
		out = append(out, c)
	}
	return out
}

// walkJSON visits every JSON object nested anywhere inside v.
func walkJSON(v any, visit func(map[string]any)) {
	switch t := v.(type) {
	case map[string]any:
		visit(t)
		for _, child := range t {
			walkJSON(child, visit)
		}
	case []any:
		for _, child := range t {
			walkJSON(child, visit)
		}
	}
}

func jsonString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return ""
	}
	return ""
}

func firstString(d map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := jsonString(d[k]); s != "" {
			return s
		}
	}
	return ""
}

// jsonLDBlocks decodes every <script type="application/ld+json"> block.
// Blocks that fail to decode are skipped.
func jsonLDBlocks(doc *goquery.Document) []any {
	var blocks []any
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		var v any
		if err := json.Unmarshal([]byte(sel.Text()), &v); err != nil {
			return
		}
		blocks = append(blocks, v)
	})
	return blocks
}

// candidateFromDict mines a structured-data object for listing fields.
func candidateFromDict(d map[string]any, resolvedURL string) rawCandidate {
	return rawCandidate{
		title:     firstString(d, "title", "name", "headline"),
		url:       resolvedURL,
		priceText: priceTextFromDict(d),
		acresText: acresTextFromDict(d),
		address:   addressFromDict(d),
		thumbnail: thumbnailFromDict(d),
	}
}

func priceTextFromDict(d map[string]any) string {
	if offers, ok := d["offers"].(map[string]any); ok {
		if s := jsonString(offers["price"]); s != "" {
			return s
		}
	}
	return firstString(d, "price", "listPrice", "priceValue", "amount")
}

func acresTextFromDict(d map[string]any) string {
	for _, k := range []string{"acres", "acreage", "lotSizeAcres", "sizeAcres", "lotSize", "size", "area", "landSize"} {
		switch v := d[k].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case map[string]any:
			val := firstString(v, "value", "amount", "number")
			unit := firstString(v, "unit", "unitText", "unitCode")
			if val != "" {
				return strings.TrimSpace(val + " " + unit)
			}
		}
	}
	return ""
}

func addressFromDict(d map[string]any) string {
	switch a := d["address"].(type) {
	case string:
		return a
	case map[string]any:
		var parts []string
		for _, k := range []string{"streetAddress", "addressLocality", "addressRegion"} {
			if s := jsonString(a[k]); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

func thumbnailFromDict(d map[string]any) string {
	for _, k := range []string{"image", "thumbnail", "thumbnailUrl", "photo", "photoUrl", "imageUrl"} {
		switch v := d[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case []any:
			if len(v) > 0 {
				if s, ok := v[0].(string); ok && s != "" {
					return s
				}
			}
		case map[string]any:
			if s := jsonString(v["url"]); s != "" {
				return s
			}
		}
	}
	return ""
}

// anchorCards is the last-resort extraction path: walk every anchor, keep
// detail-page links per the keep filter, and mine the surrounding card text
// for price and acreage.
func anchorCards(doc *goquery.Document, baseURL, source string, keep func(string) bool) []domain.Candidate {
	var out []domain.Candidate
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		full := parse.ResolveURL(baseURL, href)
		if full == "" || !keep(full) {
			return
		}

		// Climb a few levels so sibling price/acreage spans end up in the
		// card text pool. Never past the card's container into body text,
		// where another card's fields would bleed in.
		cardText := strings.TrimSpace(a.Text())
		parent := a.Parent()
		for i := 0; i < 4 && parent.Length() > 0; i++ {
			name := goquery.NodeName(parent)
			if name == "body" || name == "html" {
				break
			}
			if t := strings.TrimSpace(parent.Text()); t != "" {
				cardText = t
			}
			if strings.Contains(cardText, "$") {
				break
			}
			parent = parent.Parent()
		}

		thumb, _ := a.Find("img").First().Attr("src")
		if thumb != "" {
			thumb = parse.ResolveURL(baseURL, thumb)
		}

		out = append(out, normalize(source, rawCandidate{
			title:     a.Text(),
			url:       full,
			priceText: cardText,
			acresText: acresFragment(cardText),
			thumbnail: thumb,
		}))
	})
	return out
}

var acresFragmentRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*acres?\b`)

// acresFragment pulls the "<n> acres" fragment out of free card text so the
// acreage parser cannot misread prices or lot numbers.
func acresFragment(text string) string {
	m := acresFragmentRe.FindStringSubmatch(strings.ReplaceAll(text, ",", ""))
	if m == nil {
		return ""
	}
	return m[1]
}
