// internal/storage/supabase.go
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kbrooks/land-tracker/internal/config"
	"github.com/kbrooks/land-tracker/internal/domain"
	"github.com/kbrooks/land-tracker/pkg/logger"
)

// Supabase talks to the PostgREST endpoint in front of the project database:
// a listings table keyed by id, and a run_state table holding the singleton
// state row.
type Supabase struct {
	base   string
	apiKey string
	http   *http.Client
	log    *logger.Logger
}

func NewSupabase(cfg config.StorageConfig, log *logger.Logger) (*Supabase, error) {
	if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
		return nil, errors.New("supabase storage requires SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY")
	}
	return &Supabase{
		base:   strings.TrimSuffix(cfg.SupabaseURL, "/") + "/rest/v1",
		apiKey: cfg.SupabaseKey,
		http:   &http.Client{Timeout: 30 * time.Second},
		log:    log,
	}, nil
}

func (s *Supabase) UpsertListing(ctx context.Context, l domain.Listing) error {
	return s.do(ctx, http.MethodPost, "/listings?on_conflict=id",
		"resolution=merge-duplicates,return=minimal", []domain.Listing{l}, nil)
}

func (s *Supabase) FetchListings(ctx context.Context, source string) ([]domain.Listing, error) {
	path := "/listings?select=*"
	if source != "" {
		path += "&source=eq." + url.QueryEscape(source)
	}
	var out []domain.Listing
	if err := s.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// runStateRow is the PostgREST shape of the singleton state record.
type runStateRow struct {
	ID    string          `json:"id"`
	State domain.RunState `json:"state"`
}

func (s *Supabase) ReadRunState(ctx context.Context) (*domain.RunState, error) {
	var rows []runStateRow
	path := "/run_state?select=*&id=eq." + runStateKey
	if err := s.do(ctx, http.MethodGet, path, "", nil, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	st := rows[0].State
	return &st, nil
}

func (s *Supabase) WriteRunState(ctx context.Context, st domain.RunState) error {
	return s.do(ctx, http.MethodPost, "/run_state?on_conflict=id",
		"resolution=merge-duplicates,return=minimal",
		[]runStateRow{{ID: runStateKey, State: st}}, nil)
}

func (s *Supabase) Close(ctx context.Context) error { return nil }

func (s *Supabase) do(ctx context.Context, method, path, prefer string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.base+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("supabase %s %s: status %d: %s",
			method, path, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
