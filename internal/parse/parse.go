// internal/parse/parse.go

// Package parse turns raw text fragments from listing markup into typed
// values. Every function is pure and never fails: unparseable input yields
// nil (or the zero value), which callers treat as a valid "absent" outcome.
package parse

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/kbrooks/land-tracker/internal/domain"
)

const sqftPerAcre = 43560.0

var (
	moneyRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([km])?\b`)
	acresRe = regexp.MustCompile(`\d+(?:\.\d+)?`)

	soldRe          = regexp.MustCompile(`\bsold\b`)
	underContractRe = regexp.MustCompile(`\bunder\s+contract\b`)
	pendingRe       = regexp.MustCompile(`\bpending\b`)
	availableRe     = regexp.MustCompile(`\bavailable\b|\bfor\s+sale\b|\bactive\b`)
)

// Price extracts a listing price from raw text. It returns nil for
// "contact for price" style text, for garbage, and for amounts under $1,000
// (price drops, monthly estimates and similar noise). When several amounts
// appear the largest wins, which protects against strings like "$15.1k drop"
// sitting next to the real price.
func Price(text string) *int64 {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return nil
	}
	for _, bad := range []string{"contact", "call", "tbd"} {
		if strings.Contains(s, bad) {
			return nil
		}
	}
	s = strings.ReplaceAll(s, ",", "")

	var best int64 = -1
	for _, m := range moneyRe.FindAllStringSubmatch(s, -1) {
		num, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		switch m[2] {
		case "k":
			num *= 1_000
		case "m":
			num *= 1_000_000
		}
		v := int64(num)
		if v < 1000 {
			continue
		}
		if v > best {
			best = v
		}
	}
	if best < 0 {
		return nil
	}
	return &best
}

// Acres extracts acreage from raw text. Ranges keep the first bound.
// Square-footage figures are converted, and a bare number above 5,000 is
// assumed to be square feet rather than acres.
func Acres(text string) *float64 {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return nil
	}
	m := acresRe.FindString(s)
	if m == "" {
		return nil
	}
	num, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return nil
	}
	if strings.Contains(s, "sq") && (strings.Contains(s, "ft") || strings.Contains(s, "feet")) {
		num /= sqftPerAcre
	} else if num > 5000 {
		num /= sqftPerAcre
	}
	return &num
}

// ResolveURL joins href against the source's base URL. Already-absolute
// hrefs pass through unchanged.
func ResolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return b.ResolveReference(ref).String()
}

// DetectStatus classifies listing availability from page text. Matching is
// phrase-strict: "contractor" must not read as under contract, and nothing
// ever defaults to an unavailable status.
func DetectStatus(text string) string {
	t := strings.ToLower(text)
	switch {
	case soldRe.MatchString(t):
		return domain.StatusSold
	case underContractRe.MatchString(t):
		return domain.StatusUnderContract
	case pendingRe.MatchString(t):
		return domain.StatusPending
	case availableRe.MatchString(t):
		return domain.StatusAvailable
	default:
		return domain.StatusUnknown
	}
}
