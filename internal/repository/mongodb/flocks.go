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

// CreateFlock inserts a new flock.
func (r *Repository) CreateFlock(ctx context.Context, flock *models.Flock) error {
	ts := now()
	flock.CreatedAt = ts
	flock.UpdatedAt = ts
	if flock.HealthStatus == "" {
		flock.HealthStatus = models.HealthHealthy
	}

	res, err := r.db.Collection(collFlocks).InsertOne(ctx, flock)
	if err != nil {
		return fmt.Errorf("failed to insert flock: %w", err)
	}
	flock.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FlockExists reports whether the referenced flock is present.
func (r *Repository) FlockExists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	count, err := r.db.Collection(collFlocks).CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("failed to check flock existence: %w", err)
	}
	return count > 0, nil
}

// ListFlocks returns every flock, newest first.
func (r *Repository) ListFlocks(ctx context.Context) ([]models.Flock, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.db.Collection(collFlocks).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list flocks: %w", err)
	}

	var flocks []models.Flock
	if err := cursor.All(ctx, &flocks); err != nil {
		return nil, fmt.Errorf("failed to decode flocks: %w", err)
	}
	return flocks, nil
}

// UpdateFlock applies field updates and returns the updated flock.
func (r *Repository) UpdateFlock(ctx context.Context, id string, fields bson.M) (*models.Flock, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperror.NotFound("flock not found")
	}

	fields["updatedAt"] = now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var flock models.Flock
	err = r.db.Collection(collFlocks).
		FindOneAndUpdate(ctx, bson.M{"_id": objectID}, bson.M{"$set": fields}, opts).
		Decode(&flock)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("flock not found")
		}
		return nil, fmt.Errorf("failed to update flock: %w", err)
	}
	return &flock, nil
}

// DeleteFlock removes a flock by id.
func (r *Repository) DeleteFlock(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperror.NotFound("flock not found")
	}

	res, err := r.db.Collection(collFlocks).DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete flock: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound("flock not found")
	}
	return nil
}

// CreateVaccination inserts a vaccination record after checking the
// referenced flock exists. No parent-side link is written: the flock's
// vaccination history is always derived by querying this collection.
func (r *Repository) CreateVaccination(ctx context.Context, record *models.Vaccination) error {
	exists, err := r.FlockExists(ctx, record.FlockID)
	if err != nil {
		return err
	}
	if !exists {
		return apperror.NotFound("flock not found")
	}

	ts := now()
	record.CreatedAt = ts
	record.UpdatedAt = ts

	res, err := r.db.Collection(collVaccinations).InsertOne(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to insert vaccination: %w", err)
	}
	record.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// VaccinationsByFlock returns all vaccinations for a flock.
func (r *Repository) VaccinationsByFlock(ctx context.Context, flockID string) ([]models.Vaccination, error) {
	objectID, err := primitive.ObjectIDFromHex(flockID)
	if err != nil {
		return nil, apperror.NotFound("flock not found")
	}

	cursor, err := r.db.Collection(collVaccinations).Find(ctx, bson.M{"flock": objectID})
	if err != nil {
		return nil, fmt.Errorf("failed to list vaccinations: %w", err)
	}

	var records []models.Vaccination
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode vaccinations: %w", err)
	}
	return records, nil
}

// VaccinationsDueBetween returns vaccinations whose administration date
// falls inside the window, inclusive. Used by the reminder trigger.
func (r *Repository) VaccinationsDueBetween(ctx context.Context, from, to time.Time) ([]models.Vaccination, error) {
	filter := bson.M{"administrationDate": bson.M{"$gte": from, "$lte": to}}
	cursor, err := r.db.Collection(collVaccinations).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list due vaccinations: %w", err)
	}

	var records []models.Vaccination
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode due vaccinations: %w", err)
	}
	return records, nil
}

// DeleteVaccination removes a vaccination record by id.
func (r *Repository) DeleteVaccination(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperror.NotFound("vaccination not found")
	}

	res, err := r.db.Collection(collVaccinations).DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete vaccination: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound("vaccination not found")
	}
	return nil
}

// CreateMortality inserts a mortality record after checking the referenced
// flock exists. Same derived-relation rule as vaccinations.
func (r *Repository) CreateMortality(ctx context.Context, record *models.Mortality) error {
	exists, err := r.FlockExists(ctx, record.FlockID)
	if err != nil {
		return err
	}
	if !exists {
		return apperror.NotFound("flock not found")
	}

	ts := now()
	record.CreatedAt = ts
	record.UpdatedAt = ts

	res, err := r.db.Collection(collMortalities).InsertOne(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to insert mortality: %w", err)
	}
	record.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// MortalitiesByFlock returns a page of mortality records for a flock plus
// the unpaginated total.
func (r *Repository) MortalitiesByFlock(ctx context.Context, flockID string, params pagination.Params) ([]models.Mortality, int64, error) {
	objectID, err := primitive.ObjectIDFromHex(flockID)
	if err != nil {
		return nil, 0, apperror.NotFound("flock not found")
	}

	coll := r.db.Collection(collMortalities)
	filter := bson.M{"flock": objectID}

	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count mortalities: %w", err)
	}

	opts := options.Find().
		SetSkip(int64(params.Skip())).
		SetLimit(int64(params.Limit))
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list mortalities: %w", err)
	}

	var records []models.Mortality
	if err := cursor.All(ctx, &records); err != nil {
		return nil, 0, fmt.Errorf("failed to decode mortalities: %w", err)
	}
	return records, total, nil
}

// AllFlocks returns every flock for export, oldest first.
func (r *Repository) AllFlocks(ctx context.Context) ([]models.Flock, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.db.Collection(collFlocks).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load flocks: %w", err)
	}

	var flocks []models.Flock
	if err := cursor.All(ctx, &flocks); err != nil {
		return nil, fmt.Errorf("failed to decode flocks: %w", err)
	}
	return flocks, nil
}

// AllMortalities returns every mortality record for export, date ascending.
func (r *Repository) AllMortalities(ctx context.Context) ([]models.Mortality, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	cursor, err := r.db.Collection(collMortalities).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load mortalities: %w", err)
	}

	var records []models.Mortality
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode mortalities: %w", err)
	}
	return records, nil
}
