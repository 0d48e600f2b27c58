package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/coopkeeper/internal/domain/apperror"
	"github.com/mamadbah2/coopkeeper/internal/domain/models"
)

// CreateFeed inserts a new feed batch.
func (r *Repository) CreateFeed(ctx context.Context, feed *models.Feed) error {
	ts := now()
	feed.CreatedAt = ts
	feed.UpdatedAt = ts
	if feed.OrderDate.IsZero() {
		feed.OrderDate = ts
	}
	if feed.UsageRecords == nil {
		feed.UsageRecords = []models.FeedUsage{}
	}

	res, err := r.db.Collection(collFeeds).InsertOne(ctx, feed)
	if err != nil {
		return fmt.Errorf("failed to insert feed: %w", err)
	}
	feed.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// RecordFeedUsage appends a usage entry and decrements the batch quantity
// in one conditional update. The filter requires quantity >= amountUsed, so
// concurrent usage writes cannot drive the stock negative.
func (r *Repository) RecordFeedUsage(ctx context.Context, feedID string, usage models.FeedUsage) (*models.Feed, error) {
	objectID, err := primitive.ObjectIDFromHex(feedID)
	if err != nil {
		return nil, apperror.NotFound("feed not found")
	}

	// Distinguish a missing batch from an oversized usage up front.
	count, err := r.db.Collection(collFeeds).CountDocuments(ctx, bson.M{"_id": objectID})
	if err != nil {
		return nil, fmt.Errorf("failed to check feed existence: %w", err)
	}
	if count == 0 {
		return nil, apperror.NotFound("feed not found")
	}

	filter := bson.M{
		"_id":      objectID,
		"quantity": bson.M{"$gte": usage.AmountUsed},
	}
	update := bson.M{
		"$push": bson.M{"usageRecords": usage},
		"$inc":  bson.M{"quantity": -usage.AmountUsed},
		"$set":  bson.M{"updatedAt": now()},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var feed models.Feed
	err = r.db.Collection(collFeeds).FindOneAndUpdate(ctx, filter, update, opts).Decode(&feed)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.InsufficientStock("not enough feed quantity available")
		}
		return nil, fmt.Errorf("failed to record feed usage: %w", err)
	}
	return &feed, nil
}

// ListFeeds returns every feed batch, newest first.
func (r *Repository) ListFeeds(ctx context.Context) ([]models.Feed, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.db.Collection(collFeeds).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list feeds: %w", err)
	}

	var feeds []models.Feed
	if err := cursor.All(ctx, &feeds); err != nil {
		return nil, fmt.Errorf("failed to decode feeds: %w", err)
	}
	return feeds, nil
}

// LowFeeds returns batches whose quantity is below the threshold.
func (r *Repository) LowFeeds(ctx context.Context, threshold float64) ([]models.Feed, error) {
	cursor, err := r.db.Collection(collFeeds).Find(ctx, bson.M{"quantity": bson.M{"$lt": threshold}})
	if err != nil {
		return nil, fmt.Errorf("failed to list low feeds: %w", err)
	}

	var feeds []models.Feed
	if err := cursor.All(ctx, &feeds); err != nil {
		return nil, fmt.Errorf("failed to decode low feeds: %w", err)
	}
	return feeds, nil
}

// UpdateFeed applies field updates and returns the updated batch.
func (r *Repository) UpdateFeed(ctx context.Context, id string, fields bson.M) (*models.Feed, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperror.NotFound("feed not found")
	}

	fields["updatedAt"] = now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var feed models.Feed
	err = r.db.Collection(collFeeds).
		FindOneAndUpdate(ctx, bson.M{"_id": objectID}, bson.M{"$set": fields}, opts).
		Decode(&feed)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("feed not found")
		}
		return nil, fmt.Errorf("failed to update feed: %w", err)
	}
	return &feed, nil
}

// DeleteFeed removes a feed batch by id.
func (r *Repository) DeleteFeed(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperror.NotFound("feed not found")
	}

	res, err := r.db.Collection(collFeeds).DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete feed: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound("feed not found")
	}
	return nil
}
