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
	"github.com/mamadbah2/coopkeeper/pkg/pagination"
)

// FindProductionByDate loads the production record for a calendar day.
func (r *Repository) FindProductionByDate(ctx context.Context, date time.Time) (*models.EggProduction, error) {
	var record models.EggProduction
	err := r.db.Collection(collEggProduction).
		FindOne(ctx, bson.M{"date": date}).
		Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("no production record for date")
		}
		return nil, fmt.Errorf("failed to find production by date: %w", err)
	}
	return &record, nil
}

// InsertProduction creates a new daily production record. The unique date
// index turns a concurrent double-insert into Conflict.
func (r *Repository) InsertProduction(ctx context.Context, record *models.EggProduction) error {
	ts := now()
	record.CreatedAt = ts
	record.UpdatedAt = ts

	res, err := r.db.Collection(collEggProduction).InsertOne(ctx, record)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Conflict("production record already exists for date")
		}
		return fmt.Errorf("failed to insert production record: %w", err)
	}
	record.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// UpdateProductionByDate overwrites totals and notes for an existing day and
// returns the updated record.
func (r *Repository) UpdateProductionByDate(ctx context.Context, date time.Time, totalEggs int, notes string) (*models.EggProduction, error) {
	update := bson.M{"$set": bson.M{
		"totalEggs": totalEggs,
		"notes":     notes,
		"updatedAt": now(),
	}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var record models.EggProduction
	err := r.db.Collection(collEggProduction).
		FindOneAndUpdate(ctx, bson.M{"date": date}, update, opts).
		Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("no production record for date")
		}
		return nil, fmt.Errorf("failed to update production record: %w", err)
	}
	return &record, nil
}

// DeleteProduction removes a production record by id.
func (r *Repository) DeleteProduction(ctx context.Context, id string) (*models.EggProduction, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperror.NotFound("egg production record not found")
	}

	var record models.EggProduction
	err = r.db.Collection(collEggProduction).
		FindOneAndDelete(ctx, bson.M{"_id": objectID}).
		Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("egg production record not found")
		}
		return nil, fmt.Errorf("failed to delete production record: %w", err)
	}
	return &record, nil
}

// ListProduction returns a page of production records sorted by date
// descending, plus the unpaginated total.
func (r *Repository) ListProduction(ctx context.Context, params pagination.Params) ([]models.EggProduction, int64, error) {
	coll := r.db.Collection(collEggProduction)

	total, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count production records: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}}).
		SetSkip(int64(params.Skip())).
		SetLimit(int64(params.Limit))

	cursor, err := coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list production records: %w", err)
	}

	var records []models.EggProduction
	if err := cursor.All(ctx, &records); err != nil {
		return nil, 0, fmt.Errorf("failed to decode production records: %w", err)
	}
	return records, total, nil
}

// AllProduction returns every production record, date ascending, for export.
func (r *Repository) AllProduction(ctx context.Context) ([]models.EggProduction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	cursor, err := r.db.Collection(collEggProduction).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load production records: %w", err)
	}

	var records []models.EggProduction
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode production records: %w", err)
	}
	return records, nil
}
