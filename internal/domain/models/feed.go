package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Supplier identifies where a feed batch was ordered from.
type Supplier struct {
	Name    string `bson:"name" json:"name" validate:"required"`
	Contact string `bson:"contact,omitempty" json:"contact,omitempty"`
}

// FeedUsage is one consumption entry against a feed batch.
type FeedUsage struct {
	UsageDate  time.Time `bson:"usageDate" json:"usageDate"`
	AmountUsed float64   `bson:"amountUsed" json:"amountUsed" validate:"gt=0"`
}

// Feed is a stocked feed batch. Quantity is decremented by usage and never
// drops below zero; an oversized usage is rejected before any write.
type Feed struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name" validate:"required"`
	Quantity     float64            `bson:"quantity" json:"quantity" validate:"min=0"`
	Supplier     Supplier           `bson:"supplier" json:"supplier"`
	UsageRecords []FeedUsage        `bson:"usageRecords" json:"usageRecords"`
	OrderDate    time.Time          `bson:"orderDate" json:"orderDate"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}
