package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names, one per domain entity.
const (
	collUsers         = "users"
	collEggProduction = "egg_productions"
	collEggInventory  = "egg_inventories"
	collFlocks        = "flocks"
	collVaccinations  = "vaccinations"
	collMortalities   = "mortalities"
	collFeeds         = "feeds"
	collExpenses      = "expenses"
	collRevenues      = "revenues"
	collNotifications = "notifications"
	collSummaries     = "daily_summaries"
)

// Repository is the MongoDB-backed record store for every domain entity.
type Repository struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewRepository connects to MongoDB, verifies the connection, and ensures
// the indexes the write paths rely on.
func NewRepository(ctx context.Context, uri string, dbName string) (*Repository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	r := &Repository{client: client, db: client.Database(dbName)}
	if err := r.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// ensureIndexes creates the unique keys backing the Conflict semantics:
// one user per email, one production record per day, one notification per
// dedupe key.
func (r *Repository) ensureIndexes(ctx context.Context) error {
	indexes := map[string]mongo.IndexModel{
		collUsers: {
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		collEggProduction: {
			Keys:    bson.D{{Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		collNotifications: {
			Keys:    bson.D{{Key: "dedupeKey", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	for coll, model := range indexes {
		if _, err := r.db.Collection(coll).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", coll, err)
		}
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

// now is the single timestamp source for created/updated stamps.
func now() time.Time {
	return time.Now().UTC()
}
