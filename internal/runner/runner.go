// internal/runner/runner.go

// Package runner coordinates one scrape cycle across all configured
// sources: fetch, extract, enrich, filter, reconcile, persist. Sources are
// isolated from each other; one failing never aborts the rest.
package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kbrooks/land-tracker/internal/config"
	"github.com/kbrooks/land-tracker/internal/domain"
	"github.com/kbrooks/land-tracker/internal/filter"
	"github.com/kbrooks/land-tracker/internal/reconcile"
	"github.com/kbrooks/land-tracker/internal/scrapers"
	"github.com/kbrooks/land-tracker/internal/storage"
	"github.com/kbrooks/land-tracker/pkg/logger"
)

// Fetcher retrieves one page of HTML. Network failures surface here and
// nowhere else in the pipeline.
type Fetcher interface {
	Page(ctx context.Context, url string) (string, error)
}

type sourcePipeline struct {
	cfg     config.Source
	adapter scrapers.Adapter
}

type Runner struct {
	pipelines   []sourcePipeline
	criteria    domain.Criteria
	enrichLimit int
	fetcher     Fetcher
	store       storage.Storage
	log         *logger.Logger
	now         func() time.Time
}

// New resolves every configured source to its adapter up front, so unknown
// source names fail at startup instead of mid-run.
func New(cfg *config.Config, fetcher Fetcher, store storage.Storage, log *logger.Logger) (*Runner, error) {
	pipelines := make([]sourcePipeline, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		adapter, err := scrapers.ForSource(src.Name, log)
		if err != nil {
			return nil, err
		}
		pipelines = append(pipelines, sourcePipeline{cfg: src, adapter: adapter})
	}
	return &Runner{
		pipelines:   pipelines,
		criteria:    cfg.Criteria,
		enrichLimit: cfg.Scraping.EnrichLimit,
		fetcher:     fetcher,
		store:       store,
		log:         log,
		now:         time.Now,
	}, nil
}

// RunOnce executes one full cycle and returns the run state as persisted.
// Per-source failures are recorded in the state, not returned; only storage
// failures abort the run, and those leave previously committed state intact.
func (r *Runner) RunOnce(ctx context.Context) (*domain.RunState, error) {
	now := r.now().UTC()

	state, err := r.store.ReadRunState(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		state = &domain.RunState{}
	} else if err != nil {
		return nil, fmt.Errorf("reading run state: %w", err)
	}

	// Record the attempt before any scraping so "we tried" survives a
	// total failure.
	state.LastAttemptedUTC = now
	if err := r.store.WriteRunState(ctx, *state); err != nil {
		return nil, fmt.Errorf("recording run attempt: %w", err)
	}

	statuses := make(map[string]domain.SourceStatus, len(r.pipelines))
	succeeded := 0
	budget := r.enrichLimit

	for _, p := range r.pipelines {
		st := r.runSource(ctx, p, now, &budget)
		statuses[p.cfg.Name] = st
		if st.OK {
			succeeded++
		} else {
			r.log.Warnw("source failed", "source", p.cfg.Name, "error", st.Error)
		}
	}

	state.SourceStatus = statuses
	if succeeded > 0 {
		state.LastUpdatedUTC = now
	}
	if err := r.store.WriteRunState(ctx, *state); err != nil {
		return nil, fmt.Errorf("committing run state: %w", err)
	}

	r.log.Infow("run complete", "sources_ok", succeeded, "sources_total", len(r.pipelines))
	return state, nil
}

// runSource walks one source through the whole pipeline. Fetch and parse
// failures become a failed status; only the in-memory reconcile result is
// applied to storage, so an aborted source leaves no partial listing state.
func (r *Runner) runSource(ctx context.Context, p sourcePipeline, now time.Time, budget *int) domain.SourceStatus {
	cands, err := r.collect(ctx, p)
	if err != nil {
		return domain.SourceStatus{Error: err.Error()}
	}

	r.enrich(ctx, cands, budget)
	matched := filter.Apply(cands, r.criteria)

	prior, err := r.store.FetchListings(ctx, p.adapter.Source())
	if err != nil {
		return domain.SourceStatus{Error: err.Error()}
	}

	res := reconcile.Apply(prior, matched, now)
	for _, l := range res.Upserts {
		if err := r.store.UpsertListing(ctx, l); err != nil {
			return domain.SourceStatus{Error: err.Error()}
		}
	}

	r.log.Infow("source reconciled", "source", p.cfg.Name,
		"candidates", len(cands), "matched", len(matched),
		"created", res.Created, "updated", res.Updated, "deactivated", res.Deactivated)
	return domain.SourceStatus{OK: true, ItemCount: len(matched)}
}

// collect fetches and extracts every index page of one source. Any page
// failing fails the whole source: reconciling from partial coverage would
// flip listings inactive that are still on the market.
func (r *Runner) collect(ctx context.Context, p sourcePipeline) ([]domain.Candidate, error) {
	var all []domain.Candidate
	for _, indexURL := range p.cfg.IndexURLs {
		page, err := r.fetcher.Page(ctx, indexURL)
		if err != nil {
			return nil, err
		}
		cands, err := p.adapter.Extract(p.cfg.BaseURL, strings.NewReader(page))
		if err != nil {
			return nil, err
		}
		all = append(all, cands...)
	}
	return all, nil
}

// enrich visits detail pages for candidates missing title, thumbnail,
// status, or price, within the shared per-run budget. An enrichment failure
// is not an error; the candidate simply stays as extracted.
func (r *Runner) enrich(ctx context.Context, cands []domain.Candidate, budget *int) {
	for i := range cands {
		if *budget <= 0 {
			return
		}
		if !needsEnrichment(cands[i]) {
			continue
		}
		*budget--

		page, err := r.fetcher.Page(ctx, cands[i].URL)
		if err != nil {
			r.log.Debugw("enrichment fetch failed", "url", cands[i].URL, "error", err)
			continue
		}
		detail, err := scrapers.ParseDetail(strings.NewReader(page))
		if err != nil {
			continue
		}
		applyDetail(&cands[i], detail)
	}
}

func needsEnrichment(c domain.Candidate) bool {
	return c.Title == c.Source+" listing" ||
		c.Thumbnail == "" ||
		c.Status == domain.StatusUnknown ||
		c.Price == nil
}

// applyDetail fills gaps without overwriting fields the index page already
// supplied, except status, which the detail page always knows better.
func applyDetail(c *domain.Candidate, d scrapers.Detail) {
	if d.Title != "" && c.Title == c.Source+" listing" {
		c.Title = d.Title
	}
	if c.Thumbnail == "" && d.Thumbnail != "" {
		c.Thumbnail = d.Thumbnail
	}
	if d.Status != "" {
		c.Status = d.Status
	}
	if c.Price == nil {
		c.Price = d.Price
	}
	if c.Acres == nil {
		c.Acres = d.Acres
	}
}
