// internal/reconcile/reconcile.go

// Package reconcile merges one source's freshly scraped candidates into the
// previously persisted listing set for that source.
package reconcile

import (
	"time"

	"github.com/kbrooks/land-tracker/internal/domain"
)

// Result is the set of writes one reconciliation pass produced.
type Result struct {
	Upserts     []domain.Listing
	Created     int
	Updated     int
	Deactivated int
}

// Apply computes the merge of candidates against the prior listings of the
// same source. Known ids get their mutable fields refreshed, LastSeenUTC
// advanced, and Active restored; unknown ids become new active listings with
// FirstSeenUTC set once; prior listings missing from this run are
// deactivated with every other field untouched. Nothing is ever deleted.
//
// Passes for different sources commute because each touches only listings
// tagged with its own source.
func Apply(prior []domain.Listing, cands []domain.Candidate, now time.Time) Result {
	byID := make(map[string]domain.Listing, len(prior))
	for _, l := range prior {
		byID[l.ID] = l
	}

	var res Result
	seen := make(map[string]bool, len(cands))
	for _, c := range cands {
		id := domain.ListingID(c.URL)
		if seen[id] {
			continue
		}
		seen[id] = true

		if l, ok := byID[id]; ok {
			l.Title = c.Title
			l.Address = c.Address
			l.Thumbnail = c.Thumbnail
			l.Status = c.Status
			l.Price = c.Price
			l.Acres = c.Acres
			l.LastSeenUTC = now
			l.Active = true
			res.Upserts = append(res.Upserts, l)
			res.Updated++
			continue
		}

		res.Upserts = append(res.Upserts, domain.Listing{
			ID:           id,
			Source:       c.Source,
			Title:        c.Title,
			URL:          c.URL,
			Address:      c.Address,
			Thumbnail:    c.Thumbnail,
			Status:       c.Status,
			Price:        c.Price,
			Acres:        c.Acres,
			FirstSeenUTC: now,
			LastSeenUTC:  now,
			Active:       true,
		})
		res.Created++
	}

	for _, l := range prior {
		if seen[l.ID] || !l.Active {
			continue
		}
		l.Active = false
		res.Upserts = append(res.Upserts, l)
		res.Deactivated++
	}
	return res
}
