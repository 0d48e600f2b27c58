package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/coopkeeper/internal/domain/apperror"
	"github.com/mamadbah2/coopkeeper/internal/domain/models"
)

// UpsertNotification conditionally inserts a notification keyed by its
// dedupe key. The upsert with $setOnInsert is a single atomic operation, so
// concurrent trigger runs insert at most one document per key. Returns true
// when a new notification was created.
func (r *Repository) UpsertNotification(ctx context.Context, notification models.Notification) (bool, error) {
	ts := now()
	update := bson.M{"$setOnInsert": bson.M{
		"title":     notification.Title,
		"message":   notification.Message,
		"type":      notification.Type,
		"read":      false,
		"userRole":  notification.UserRole,
		"createdAt": ts,
		"updatedAt": ts,
	}}

	opts := options.Update().SetUpsert(true)
	res, err := r.db.Collection(collNotifications).
		UpdateOne(ctx, bson.M{"dedupeKey": notification.DedupeKey}, update, opts)
	if err != nil {
		// A concurrent upsert of the same key can race on the unique index;
		// that still means the notification exists.
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to upsert notification: %w", err)
	}
	return res.UpsertedCount > 0, nil
}

// UnreadNotificationsForRole returns unread notifications targeted at the
// role, newest first.
func (r *Repository) UnreadNotificationsForRole(ctx context.Context, role models.Role) ([]models.Notification, error) {
	filter := bson.M{"userRole": role, "read": false}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.db.Collection(collNotifications).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	var notifications []models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return notifications, nil
}

// MarkNotificationRead flags one notification as read.
func (r *Repository) MarkNotificationRead(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperror.NotFound("notification not found")
	}

	update := bson.M{"$set": bson.M{"read": true, "updatedAt": now()}}
	res, err := r.db.Collection(collNotifications).UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("notification not found")
	}
	return nil
}
