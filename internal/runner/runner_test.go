package runner

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbrooks/land-tracker/internal/config"
	"github.com/kbrooks/land-tracker/internal/domain"
	"github.com/kbrooks/land-tracker/internal/storage"
	"github.com/kbrooks/land-tracker/pkg/logger"
)

const (
	lwIndexURL = "https://www.landwatch.com/virginia-land-for-sale/king-george"
	lwListingA = "https://www.landwatch.com/virginia-land-for-sale/king-george/property/pid/123"
	lwListingB = "https://www.landwatch.com/virginia-land-for-sale/king-george/property/pid/456"
	lsIndexURL = "https://www.landsearch.com/properties/king-george-county-va"
)

// stubFetcher serves canned pages keyed by URL; URLs with no page fail.
type stubFetcher struct {
	pages map[string]string
	fail  map[string]bool
	calls []string
}

func (f *stubFetcher) Page(_ context.Context, url string) (string, error) {
	f.calls = append(f.calls, url)
	if f.fail[url] {
		return "", errors.New("connection refused")
	}
	page, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("no page for %s", url)
	}
	return page, nil
}

// lwIndexPage builds a JSON-LD results page with one product per entry.
// An empty price leaves the offers block out entirely.
func lwIndexPage(entries ...[3]string) string {
	var products string
	for i, e := range entries {
		if i > 0 {
			products += ","
		}
		offers := ""
		if e[1] != "" {
			offers = fmt.Sprintf(`"offers":{"price":"%s"},`, e[1])
		}
		products += fmt.Sprintf(
			`{"@type":"Product","name":"Parcel %d","url":"%s",%s"lotSize":"%s acres","image":"https://cdn.landwatch.com/%d.jpg"}`,
			i+1, e[0], offers, e[2], i+1)
	}
	return `<html><head><script type="application/ld+json">{"@graph":[` + products + `]}</script></head><body></body></html>`
}

func detailPageHTML(statusPhrase, price string) string {
	offers := ""
	if price != "" {
		offers = fmt.Sprintf(`<script type="application/ld+json">{"offers":{"price":"%s"}}</script>`, price)
	}
	return fmt.Sprintf(`<html><head>%s</head><body><p>This listing is %s.</p></body></html>`, offers, statusPhrase)
}

func testConfig(sources ...config.Source) *config.Config {
	return &config.Config{
		Scraping: config.ScrapingConfig{EnrichLimit: 12},
		Criteria: domain.Criteria{MinAcres: 11, MaxAcres: 50, MaxPrice: 600000},
		Sources:  sources,
	}
}

func lwSource() config.Source {
	return config.Source{
		Name:      "LandWatch",
		BaseURL:   "https://www.landwatch.com",
		IndexURLs: []string{lwIndexURL},
	}
}

func newTestRunner(t *testing.T, cfg *config.Config, f *stubFetcher, store storage.Storage) *Runner {
	t.Helper()
	r, err := New(cfg, f, store, logger.NewNop())
	require.NoError(t, err)
	return r
}

func TestRunOnce_CreatesMatchingListing(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 6, 0, 0, 0, time.UTC)

	fetcher := &stubFetcher{pages: map[string]string{
		lwIndexURL: lwIndexPage([3]string{lwListingA, "400000", "15"}),
	}}
	store := storage.NewMemory()
	r := newTestRunner(t, testConfig(lwSource()), fetcher, store)
	r.now = func() time.Time { return now }

	state, err := r.RunOnce(ctx)
	require.NoError(t, err)

	assert.Equal(t, now, state.LastAttemptedUTC)
	assert.Equal(t, now, state.LastUpdatedUTC)
	require.Contains(t, state.SourceStatus, "LandWatch")
	assert.True(t, state.SourceStatus["LandWatch"].OK)
	assert.Equal(t, 1, state.SourceStatus["LandWatch"].ItemCount)

	listings, err := store.FetchListings(ctx, "")
	require.NoError(t, err)
	require.Len(t, listings, 1)

	l := listings[0]
	assert.Equal(t, domain.ListingID(lwListingA), l.ID)
	assert.Equal(t, "LandWatch", l.Source)
	assert.True(t, l.Active)
	assert.Equal(t, now, l.FirstSeenUTC)
	assert.Equal(t, now, l.LastSeenUTC)
	require.NotNil(t, l.Price)
	assert.Equal(t, int64(400000), *l.Price)
}

func TestRunOnce_PriceUpdatePreservesIdentity(t *testing.T) {
	ctx := context.Background()
	run1 := time.Date(2026, 8, 1, 6, 0, 0, 0, time.UTC)
	run2 := run1.Add(24 * time.Hour)

	fetcher := &stubFetcher{pages: map[string]string{
		lwIndexURL: lwIndexPage([3]string{lwListingA, "400000", "15"}),
	}}
	store := storage.NewMemory()
	r := newTestRunner(t, testConfig(lwSource()), fetcher, store)

	r.now = func() time.Time { return run1 }
	_, err := r.RunOnce(ctx)
	require.NoError(t, err)

	fetcher.pages[lwIndexURL] = lwIndexPage([3]string{lwListingA, "425000", "15"})
	r.now = func() time.Time { return run2 }
	_, err = r.RunOnce(ctx)
	require.NoError(t, err)

	listings, err := store.FetchListings(ctx, "")
	require.NoError(t, err)
	require.Len(t, listings, 1, "a price change must not mint a second listing")

	l := listings[0]
	assert.Equal(t, domain.ListingID(lwListingA), l.ID)
	assert.Equal(t, int64(425000), *l.Price)
	assert.Equal(t, run1, l.FirstSeenUTC)
	assert.Equal(t, run2, l.LastSeenUTC)
	assert.True(t, l.Active)
}

func TestRunOnce_DisappearanceDeactivates(t *testing.T) {
	ctx := context.Background()
	run1 := time.Date(2026, 8, 1, 6, 0, 0, 0, time.UTC)
	run2 := run1.Add(24 * time.Hour)

	fetcher := &stubFetcher{pages: map[string]string{
		lwIndexURL: lwIndexPage(
			[3]string{lwListingA, "400000", "15"},
			[3]string{lwListingB, "500000", "20"},
		),
	}}
	store := storage.NewMemory()
	r := newTestRunner(t, testConfig(lwSource()), fetcher, store)

	r.now = func() time.Time { return run1 }
	_, err := r.RunOnce(ctx)
	require.NoError(t, err)

	fetcher.pages[lwIndexURL] = lwIndexPage([3]string{lwListingB, "500000", "20"})
	r.now = func() time.Time { return run2 }
	_, err = r.RunOnce(ctx)
	require.NoError(t, err)

	listings, err := store.FetchListings(ctx, "")
	require.NoError(t, err)
	require.Len(t, listings, 2, "deactivation is a soft delete, never a removal")

	byID := map[string]domain.Listing{}
	for _, l := range listings {
		byID[l.ID] = l
	}
	gone := byID[domain.ListingID(lwListingA)]
	assert.False(t, gone.Active)
	assert.Equal(t, run1, gone.LastSeenUTC, "last_seen stays at the run that actually saw it")
	assert.True(t, byID[domain.ListingID(lwListingB)].Active)
}

func TestRunOnce_TotalFailureKeepsLastUpdated(t *testing.T) {
	ctx := context.Background()
	run1 := time.Date(2026, 8, 1, 6, 0, 0, 0, time.UTC)
	run2 := run1.Add(24 * time.Hour)

	fetcher := &stubFetcher{
		pages: map[string]string{
			lwIndexURL: lwIndexPage([3]string{lwListingA, "400000", "15"}),
		},
		fail: map[string]bool{},
	}
	store := storage.NewMemory()
	r := newTestRunner(t, testConfig(lwSource()), fetcher, store)

	r.now = func() time.Time { return run1 }
	_, err := r.RunOnce(ctx)
	require.NoError(t, err)

	fetcher.fail[lwIndexURL] = true
	r.now = func() time.Time { return run2 }
	state, err := r.RunOnce(ctx)
	require.NoError(t, err, "source failures are recorded, not returned")

	assert.Equal(t, run2, state.LastAttemptedUTC)
	assert.Equal(t, run1, state.LastUpdatedUTC, "last_updated only moves when a source succeeds")
	assert.False(t, state.SourceStatus["LandWatch"].OK)
	assert.Contains(t, state.SourceStatus["LandWatch"].Error, "connection refused")

	listings, err := store.FetchListings(ctx, "")
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.True(t, listings[0].Active, "a failed fetch must never deactivate listings")
}

func TestRunOnce_SourceIsolation(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 6, 0, 0, 0, time.UTC)

	fetcher := &stubFetcher{
		pages: map[string]string{
			lwIndexURL: lwIndexPage([3]string{lwListingA, "400000", "15"}),
		},
		fail: map[string]bool{lsIndexURL: true},
	}
	store := storage.NewMemory()
	r := newTestRunner(t, testConfig(lwSource(), config.Source{
		Name:      "LandSearch",
		BaseURL:   "https://www.landsearch.com",
		IndexURLs: []string{lsIndexURL},
	}), fetcher, store)
	r.now = func() time.Time { return now }

	state, err := r.RunOnce(ctx)
	require.NoError(t, err)

	assert.True(t, state.SourceStatus["LandWatch"].OK)
	assert.False(t, state.SourceStatus["LandSearch"].OK)
	assert.Equal(t, now, state.LastUpdatedUTC, "one healthy source is enough to mark the run updated")

	listings, err := store.FetchListings(ctx, "LandWatch")
	require.NoError(t, err)
	assert.Len(t, listings, 1, "the healthy source commits regardless of the broken one")
}

func TestRunOnce_PartialIndexFailureFailsSource(t *testing.T) {
	ctx := context.Background()

	src := lwSource()
	secondIndex := "https://www.landwatch.com/maryland-land-for-sale/frederick-county"
	src.IndexURLs = append(src.IndexURLs, secondIndex)

	fetcher := &stubFetcher{
		pages: map[string]string{
			lwIndexURL: lwIndexPage([3]string{lwListingA, "400000", "15"}),
		},
		fail: map[string]bool{secondIndex: true},
	}
	store := storage.NewMemory()
	r := newTestRunner(t, testConfig(src), fetcher, store)

	state, err := r.RunOnce(ctx)
	require.NoError(t, err)

	assert.False(t, state.SourceStatus["LandWatch"].OK,
		"partial index coverage must not reconcile; it would flip unseen listings inactive")

	listings, err := store.FetchListings(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, listings)
}

func TestRunOnce_EnrichmentFillsPriceAndStatus(t *testing.T) {
	ctx := context.Background()

	// No price on the index card; the detail page supplies it.
	fetcher := &stubFetcher{pages: map[string]string{
		lwIndexURL: lwIndexPage([3]string{lwListingA, "", "15"}),
		lwListingA: detailPageHTML("still available", "400000"),
	}}
	store := storage.NewMemory()
	r := newTestRunner(t, testConfig(lwSource()), fetcher, store)

	state, err := r.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, state.SourceStatus["LandWatch"].ItemCount)

	listings, err := store.FetchListings(ctx, "")
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, domain.StatusAvailable, listings[0].Status)
	require.NotNil(t, listings[0].Price)
	assert.Equal(t, int64(400000), *listings[0].Price)
}

func TestRunOnce_EnrichmentExcludesUnavailable(t *testing.T) {
	ctx := context.Background()

	fetcher := &stubFetcher{pages: map[string]string{
		lwIndexURL: lwIndexPage([3]string{lwListingA, "400000", "15"}),
		lwListingA: detailPageHTML("under contract", ""),
	}}
	store := storage.NewMemory()
	r := newTestRunner(t, testConfig(lwSource()), fetcher, store)

	state, err := r.RunOnce(ctx)
	require.NoError(t, err)

	assert.True(t, state.SourceStatus["LandWatch"].OK)
	assert.Zero(t, state.SourceStatus["LandWatch"].ItemCount)

	listings, err := store.FetchListings(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, listings, "a parcel the detail page marks unavailable never persists")
}

func TestRunOnce_EnrichmentBudgetIsShared(t *testing.T) {
	ctx := context.Background()

	fetcher := &stubFetcher{pages: map[string]string{
		lwIndexURL: lwIndexPage(
			[3]string{lwListingA, "", "15"},
			[3]string{lwListingB, "", "20"},
		),
		lwListingA: detailPageHTML("for sale", "400000"),
		lwListingB: detailPageHTML("for sale", "500000"),
	}}
	store := storage.NewMemory()

	cfg := testConfig(lwSource())
	cfg.Scraping.EnrichLimit = 1
	r := newTestRunner(t, cfg, fetcher, store)

	_, err := r.RunOnce(ctx)
	require.NoError(t, err)

	detailFetches := 0
	for _, u := range fetcher.calls {
		if u == lwListingA || u == lwListingB {
			detailFetches++
		}
	}
	assert.Equal(t, 1, detailFetches, "the budget caps detail fetches per run")

	listings, err := store.FetchListings(ctx, "")
	require.NoError(t, err)
	assert.Len(t, listings, 1, "only the enriched parcel gains a price and passes the filter")
}

func TestNew_UnknownSourceFails(t *testing.T) {
	cfg := testConfig(config.Source{Name: "Zillow", BaseURL: "https://www.zillow.com"})
	_, err := New(cfg, &stubFetcher{}, storage.NewMemory(), logger.NewNop())
	assert.Error(t, err)
}
