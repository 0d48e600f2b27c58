package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Buyer identifies who purchased eggs in a sale entry.
type Buyer struct {
	Name    string `bson:"name" json:"name" validate:"required"`
	Contact string `bson:"contact,omitempty" json:"contact,omitempty"`
}

// EggSale is one entry in a snapshot's sale list.
type EggSale struct {
	Buyer    Buyer     `bson:"buyer" json:"buyer"`
	Quantity int       `bson:"quantity" json:"quantity" validate:"min=1"`
	SaleDate time.Time `bson:"saleDate" json:"saleDate"`
}

// EggInventory is the rolling inventory snapshot. The most recently created
// document is the live balance; the invariant
// RemainingEggs == TotalEggs - sum(SoldEggs.Quantity) holds after every
// mutation, enforced by atomic conditional updates in the store.
type EggInventory struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TotalEggs     int                `bson:"totalEggs" json:"totalEggs"`
	RemainingEggs int                `bson:"remainingEggs" json:"remainingEggs"`
	SoldEggs      []EggSale          `bson:"soldEggs" json:"soldEggs"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}
