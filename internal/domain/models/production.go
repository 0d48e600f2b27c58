package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxProductionNotesLength bounds the free-text notes on a production record.
const MaxProductionNotesLength = 500

// EggProduction is one calendar day of egg collection. Date is truncated to
// day granularity and unique across the collection: a second write for the
// same day updates the existing record instead of inserting a duplicate.
type EggProduction struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Date      time.Time          `bson:"date" json:"date"`
	TotalEggs int                `bson:"totalEggs" json:"totalEggs"`
	Notes     string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// DayOf truncates a timestamp to its UTC calendar day, the granularity key
// for production records.
func DayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
