// internal/storage/storage.go

// Package storage is the gateway to the external system of record. The
// pipeline only holds transient in-memory copies of listings and run state;
// these drivers own durability. Each UpsertListing and WriteRunState call is
// an independent atomic write; no cross-record transactions are assumed.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/kbrooks/land-tracker/internal/config"
	"github.com/kbrooks/land-tracker/internal/domain"
	"github.com/kbrooks/land-tracker/pkg/logger"
)

// ErrNotFound is returned when the singleton run-state record has never been
// written.
var ErrNotFound = errors.New("record not found")

// runStateKey identifies the singleton run-state record.
const runStateKey = "run_state"

// Storage is the persistence contract the pipeline depends on. FetchListings
// with an empty source returns everything, inactive listings included.
type Storage interface {
	UpsertListing(ctx context.Context, l domain.Listing) error
	FetchListings(ctx context.Context, source string) ([]domain.Listing, error)
	ReadRunState(ctx context.Context) (*domain.RunState, error)
	WriteRunState(ctx context.Context, s domain.RunState) error
	Close(ctx context.Context) error
}

// New selects a driver from configuration.
func New(ctx context.Context, cfg config.StorageConfig, log *logger.Logger) (Storage, error) {
	switch cfg.Driver {
	case "supabase":
		return NewSupabase(cfg, log)
	case "mongodb":
		return NewMongo(ctx, cfg, log)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}
