// internal/storage/mongo.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kbrooks/land-tracker/internal/config"
	"github.com/kbrooks/land-tracker/internal/domain"
	"github.com/kbrooks/land-tracker/pkg/logger"
)

// Mongo persists listings and run state in MongoDB.
type Mongo struct {
	client   *mongo.Client
	listings *mongo.Collection
	state    *mongo.Collection
	log      *logger.Logger
}

func NewMongo(ctx context.Context, cfg config.StorageConfig, log *logger.Logger) (*Mongo, error) {
	if cfg.MongoURI == "" {
		return nil, errors.New("mongodb storage requires MONGODB_URI")
	}

	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	db := client.Database(cfg.MongoDatabase)
	return &Mongo{
		client:   client,
		listings: db.Collection("listings"),
		state:    db.Collection("run_state"),
		log:      log,
	}, nil
}

func (m *Mongo) UpsertListing(ctx context.Context, l domain.Listing) error {
	_, err := m.listings.ReplaceOne(ctx,
		bson.M{"_id": l.ID}, l, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upserting listing %s: %w", l.ID, err)
	}
	return nil
}

func (m *Mongo) FetchListings(ctx context.Context, source string) ([]domain.Listing, error) {
	f := bson.M{}
	if source != "" {
		f["source"] = source
	}
	cursor, err := m.listings.Find(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("fetching listings: %w", err)
	}
	defer cursor.Close(ctx)

	var out []domain.Listing
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decoding listings: %w", err)
	}
	return out, nil
}

type runStateDoc struct {
	ID    string          `bson:"_id"`
	State domain.RunState `bson:"state"`
}

func (m *Mongo) ReadRunState(ctx context.Context) (*domain.RunState, error) {
	var doc runStateDoc
	err := m.state.FindOne(ctx, bson.M{"_id": runStateKey}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading run state: %w", err)
	}
	return &doc.State, nil
}

func (m *Mongo) WriteRunState(ctx context.Context, st domain.RunState) error {
	_, err := m.state.ReplaceOne(ctx,
		bson.M{"_id": runStateKey},
		runStateDoc{ID: runStateKey, State: st},
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("writing run state: %w", err)
	}
	return nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
