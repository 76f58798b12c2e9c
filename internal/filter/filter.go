// internal/filter/filter.go

// Package filter applies the global acreage and price criteria to
// normalized candidates.
package filter

import "github.com/kbrooks/land-tracker/internal/domain"

// Matches reports whether a candidate satisfies the criteria. All bounds are
// inclusive. A candidate with absent acreage or price cannot be verified to
// match and is excluded; so is anything already under contract, pending, or
// sold.
func Matches(c domain.Candidate, cr domain.Criteria) bool {
	switch c.Status {
	case domain.StatusUnderContract, domain.StatusPending, domain.StatusSold:
		return false
	}
	if c.Acres == nil || c.Price == nil {
		return false
	}
	return *c.Acres >= cr.MinAcres && *c.Acres <= cr.MaxAcres && *c.Price <= cr.MaxPrice
}

// Apply keeps the candidates that match.
func Apply(cands []domain.Candidate, cr domain.Criteria) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(cands))
	for _, c := range cands {
		if Matches(c, cr) {
			out = append(out, c)
		}
	}
	return out
}
