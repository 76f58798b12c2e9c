// internal/scrapers/landwatch.go
package scrapers

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kbrooks/land-tracker/internal/domain"
	"github.com/kbrooks/land-tracker/internal/parse"
	"github.com/kbrooks/land-tracker/pkg/logger"
)

// LandWatch extracts from the JSON-LD blocks the site embeds on its result
// pages, falling back to anchor cards when no structured data survives.
type LandWatch struct {
	log *logger.Logger
}

func (s *LandWatch) Source() string { return "LandWatch" }

func (s *LandWatch) Extract(baseURL string, page io.Reader) ([]domain.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(page)
	if err != nil {
		return nil, fmt.Errorf("parsing landwatch page: %w", err)
	}

	var out []domain.Candidate
	for _, block := range jsonLDBlocks(doc) {
		walkJSON(block, func(d map[string]any) {
			raw := firstString(d, "url", "mainEntityOfPage", "sameAs")
			if raw == "" {
				return
			}
			u := parse.ResolveURL(baseURL, raw)
			if !isLandWatchDetailURL(u) {
				return
			}
			out = append(out, normalize(s.Source(), candidateFromDict(d, u)))
		})
	}

	if len(out) == 0 {
		s.log.Debugw("no structured data on landwatch page, trying anchors", "base_url", baseURL)
		out = anchorCards(doc, baseURL, s.Source(), isLandWatchDetailURL)
	}

	out = dedupeByURL(out)
	if len(out) == 0 {
		return nil, ErrNoListings
	}
	return out, nil
}

// isLandWatchDetailURL keeps /property/ pages only.
func isLandWatchDetailURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Fragment != "" {
		return false
	}
	return strings.Contains(strings.ToLower(u.Host), "landwatch.com") &&
		strings.Contains(u.Path, "/property/")
}
