package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/coopkeeper/internal/domain/apperror"
	"github.com/mamadbah2/coopkeeper/internal/domain/models"
)

// LatestInventory returns the most recently created snapshot, the live
// balance for sales and dashboards.
func (r *Repository) LatestInventory(ctx context.Context) (*models.EggInventory, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	var snapshot models.EggInventory
	err := r.db.Collection(collEggInventory).FindOne(ctx, bson.M{}, opts).Decode(&snapshot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("no inventory found")
		}
		return nil, fmt.Errorf("failed to load latest inventory: %w", err)
	}
	return &snapshot, nil
}

// InsertInventory seeds a fresh snapshot with the given production total.
func (r *Repository) InsertInventory(ctx context.Context, totalEggs int) (*models.EggInventory, error) {
	ts := now()
	snapshot := models.EggInventory{
		TotalEggs:     totalEggs,
		RemainingEggs: totalEggs,
		SoldEggs:      []models.EggSale{},
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}

	res, err := r.db.Collection(collEggInventory).InsertOne(ctx, snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to insert inventory snapshot: %w", err)
	}
	snapshot.ID = res.InsertedID.(primitive.ObjectID)
	return &snapshot, nil
}

// IncrementInventory adjusts a snapshot's totals by delta in one atomic
// update. A negative delta only applies while remainingEggs covers it, so
// the balance can never go below the already-sold quantity.
func (r *Repository) IncrementInventory(ctx context.Context, id primitive.ObjectID, delta int) (*models.EggInventory, error) {
	filter := bson.M{"_id": id}
	if delta < 0 {
		filter["remainingEggs"] = bson.M{"$gte": -delta}
	}

	update := bson.M{
		"$inc": bson.M{"totalEggs": delta, "remainingEggs": delta},
		"$set": bson.M{"updatedAt": now()},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var snapshot models.EggInventory
	err := r.db.Collection(collEggInventory).FindOneAndUpdate(ctx, filter, update, opts).Decode(&snapshot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if delta < 0 {
				return nil, apperror.InsufficientStock("cannot reduce production below quantity already sold")
			}
			return nil, apperror.NotFound("inventory snapshot not found")
		}
		return nil, fmt.Errorf("failed to adjust inventory snapshot: %w", err)
	}
	return &snapshot, nil
}

// ApplySale appends the sale and decrements remainingEggs as one
// conditional update: the filter requires remainingEggs >= quantity, so two
// concurrent sales can never both pass the check against a stale balance.
func (r *Repository) ApplySale(ctx context.Context, id primitive.ObjectID, sale models.EggSale) (*models.EggInventory, error) {
	filter := bson.M{
		"_id":           id,
		"remainingEggs": bson.M{"$gte": sale.Quantity},
	}
	update := bson.M{
		"$push": bson.M{"soldEggs": sale},
		"$inc":  bson.M{"remainingEggs": -sale.Quantity},
		"$set":  bson.M{"updatedAt": now()},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var snapshot models.EggInventory
	err := r.db.Collection(collEggInventory).FindOneAndUpdate(ctx, filter, update, opts).Decode(&snapshot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.InsufficientStock("cannot sell more eggs than available in inventory")
		}
		return nil, fmt.Errorf("failed to apply sale: %w", err)
	}
	return &snapshot, nil
}

// InventoryHistory returns snapshots filtered by creation-date bounds,
// newest first. Nil bounds are open.
func (r *Repository) InventoryHistory(ctx context.Context, from, to *time.Time) ([]models.EggInventory, error) {
	filter := bson.M{}
	if from != nil || to != nil {
		createdAt := bson.M{}
		if from != nil {
			createdAt["$gte"] = *from
		}
		if to != nil {
			createdAt["$lte"] = *to
		}
		filter["createdAt"] = createdAt
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.db.Collection(collEggInventory).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory history: %w", err)
	}

	var snapshots []models.EggInventory
	if err := cursor.All(ctx, &snapshots); err != nil {
		return nil, fmt.Errorf("failed to decode inventory history: %w", err)
	}
	return snapshots, nil
}
