// internal/scrapers/landsearch.go
package scrapers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kbrooks/land-tracker/internal/domain"
	"github.com/kbrooks/land-tracker/internal/parse"
	"github.com/kbrooks/land-tracker/pkg/logger"
)

// LandSearch reads the __NEXT_DATA__ payload the site ships with its
// server-rendered pages, then folds in anything extra the JSON-LD blocks
// carry.
type LandSearch struct {
	log *logger.Logger
}

func (s *LandSearch) Source() string { return "LandSearch" }

func (s *LandSearch) Extract(baseURL string, page io.Reader) ([]domain.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(page)
	if err != nil {
		return nil, fmt.Errorf("parsing landsearch page: %w", err)
	}

	var out []domain.Candidate

	if data := nextData(doc); data != nil {
		walkJSON(data, func(d map[string]any) {
			raw := firstString(d, "url", "href", "canonicalUrl", "link", "landingPage", "permalink")
			if raw == "" {
				return
			}
			u := parse.ResolveURL(baseURL, raw)
			if !isLandSearchDetailURL(u) {
				return
			}
			out = append(out, normalize(s.Source(), candidateFromDict(d, u)))
		})
	}

	for _, block := range jsonLDBlocks(doc) {
		walkJSON(block, func(d map[string]any) {
			raw := firstString(d, "url", "mainEntityOfPage", "sameAs")
			if raw == "" {
				return
			}
			u := parse.ResolveURL(baseURL, raw)
			if !isLandSearchDetailURL(u) {
				return
			}
			out = append(out, normalize(s.Source(), candidateFromDict(d, u)))
		})
	}

	if len(out) == 0 {
		s.log.Debugw("no structured data on landsearch page, trying anchors", "base_url", baseURL)
		out = anchorCards(doc, baseURL, s.Source(), isLandSearchDetailURL)
	}

	out = dedupeByURL(out)
	if len(out) == 0 {
		return nil, ErrNoListings
	}
	return out, nil
}

// nextData decodes the Next.js bootstrap payload, if present.
func nextData(doc *goquery.Document) any {
	text := doc.Find(`script#__NEXT_DATA__`).First().Text()
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil
	}
	return v
}

// isLandSearchDetailURL keeps /properties/<area>/<numeric-id> pages only,
// dropping fragment links and index pages.
func isLandSearchDetailURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Fragment != "" {
		return false
	}
	if !strings.Contains(strings.ToLower(u.Host), "landsearch.com") {
		return false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 3 || parts[0] != "properties" {
		return false
	}
	_, err = strconv.Atoi(parts[len(parts)-1])
	return err == nil
}
