// internal/domain/listing.go
package domain

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Listing status values detected from page text.
const (
	StatusAvailable     = "available"
	StatusUnderContract = "under_contract"
	StatusPending       = "pending"
	StatusSold          = "sold"
	StatusUnknown       = "unknown"
)

// Candidate is a normalized listing extracted from one source's index page,
// not yet merged into the persisted set. Nil price or acres means the field
// could not be parsed; that is an expected outcome, not an error.
type Candidate struct {
	Source    string
	Title     string
	URL       string
	Address   string
	Thumbnail string
	Status    string
	Price     *int64
	Acres     *float64
}

// Listing is the canonical persisted record. Listings are soft-deleted:
// Active flips to false when a listing disappears from its source, and the
// record is kept for history.
type Listing struct {
	ID           string    `json:"id" bson:"_id"`
	Source       string    `json:"source" bson:"source"`
	Title        string    `json:"title" bson:"title"`
	URL          string    `json:"url" bson:"url"`
	Address      string    `json:"address,omitempty" bson:"address,omitempty"`
	Thumbnail    string    `json:"thumbnail,omitempty" bson:"thumbnail,omitempty"`
	Status       string    `json:"status" bson:"status"`
	Price        *int64    `json:"price,omitempty" bson:"price,omitempty"`
	Acres        *float64  `json:"acres,omitempty" bson:"acres,omitempty"`
	FirstSeenUTC time.Time `json:"first_seen_utc" bson:"first_seen_utc"`
	LastSeenUTC  time.Time `json:"last_seen_utc" bson:"last_seen_utc"`
	Active       bool      `json:"active" bson:"active"`
}

// ListingID derives the stable identifier for a detail-page URL. The URL is
// canonicalized first (lowercased host, fragment and query dropped, trailing
// slash trimmed) so cosmetic variants of the same page map to the same id.
func ListingID(rawURL string) string {
	canon := rawURL
	if u, err := url.Parse(strings.TrimSpace(rawURL)); err == nil {
		u.Host = strings.ToLower(u.Host)
		u.Fragment = ""
		u.RawQuery = ""
		u.Path = strings.TrimSuffix(u.Path, "/")
		canon = u.String()
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(canon)).String()
}
