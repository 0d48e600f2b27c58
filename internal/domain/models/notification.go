package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType is the closed set of notification categories.
type NotificationType string

const (
	NotificationVaccination NotificationType = "vaccination"
	NotificationInventory   NotificationType = "inventory"
	NotificationMortality   NotificationType = "mortality"
	NotificationSignup      NotificationType = "signup"
	NotificationFeed        NotificationType = "feed"
)

// Notification is a role-targeted alert written by the scheduled trigger.
// DedupeKey is (type, subject, day) so repeated trigger runs, including
// concurrent ones, insert at most one notification per subject per day.
type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string             `bson:"title" json:"title"`
	Message   string             `bson:"message" json:"message"`
	Type      NotificationType   `bson:"type" json:"type"`
	Read      bool               `bson:"read" json:"read"`
	UserRole  Role               `bson:"userRole" json:"userRole"`
	DedupeKey string             `bson:"dedupeKey" json:"-"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
