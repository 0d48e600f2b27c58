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

// CreateUser inserts a new user. A duplicate email surfaces as Conflict.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	ts := now()
	user.CreatedAt = ts
	user.UpdatedAt = ts
	if user.RegistrationDate.IsZero() {
		user.RegistrationDate = ts
	}

	res, err := r.db.Collection(collUsers).InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Conflict("user already exists")
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	user.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindUserByEmail loads a user by their unique email.
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.Collection(collUsers).FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return &user, nil
}

// FindUserByID loads a user by id.
func (r *Repository) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperror.NotFound("user not found")
	}

	var user models.User
	err = r.db.Collection(collUsers).FindOne(ctx, bson.M{"_id": objectID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, fmt.Errorf("failed to find user by id: %w", err)
	}
	return &user, nil
}

// UpdateUserProfile applies the provided username/email changes and returns
// the updated record. Empty values leave the field untouched.
func (r *Repository) UpdateUserProfile(ctx context.Context, id primitive.ObjectID, username, email string) (*models.User, error) {
	set := bson.M{"updatedAt": now()}
	if username != "" {
		set["username"] = username
	}
	if email != "" {
		set["email"] = email
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	err := r.db.Collection(collUsers).
		FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).
		Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("user not found")
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperror.Conflict("email already in use")
		}
		return nil, fmt.Errorf("failed to update user profile: %w", err)
	}
	return &user, nil
}

// CountUsers returns the number of registered accounts.
func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	count, err := r.db.Collection(collUsers).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
