// internal/scrapers/landandfarm.go
package scrapers

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kbrooks/land-tracker/internal/domain"
	"github.com/kbrooks/land-tracker/pkg/logger"
)

// LandAndFarm ships no structured data worth trusting, so extraction goes
// straight to the anchor-card path.
type LandAndFarm struct {
	log *logger.Logger
}

func (s *LandAndFarm) Source() string { return "LandAndFarm" }

func (s *LandAndFarm) Extract(baseURL string, page io.Reader) ([]domain.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(page)
	if err != nil {
		return nil, fmt.Errorf("parsing landandfarm page: %w", err)
	}

	out := dedupeByURL(anchorCards(doc, baseURL, s.Source(), isLandAndFarmDetailURL))
	if len(out) == 0 {
		return nil, ErrNoListings
	}
	return out, nil
}

func isLandAndFarmDetailURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Fragment != "" {
		return false
	}
	return strings.Contains(strings.ToLower(u.Host), "landandfarm.com") &&
		strings.Contains(u.Path, "/property/")
}
