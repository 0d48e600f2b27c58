package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HealthStatus is the closed set of flock health states.
type HealthStatus string

const (
	HealthHealthy     HealthStatus = "Healthy"
	HealthSick        HealthStatus = "Sick"
	HealthQuarantined HealthStatus = "Quarantined"
)

// Valid reports whether the status is a known member of the enum.
func (h HealthStatus) Valid() bool {
	switch h {
	case HealthHealthy, HealthSick, HealthQuarantined:
		return true
	}
	return false
}

// Flock is a group of hens managed as one unit. Vaccination and mortality
// records reference the flock by id; the reverse relation is resolved by
// querying the child collections, never stored here.
type Flock struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name" validate:"required"`
	Breed        string             `bson:"breed" json:"breed" validate:"required"`
	NumberOfHens int                `bson:"numberOfHens" json:"numberOfHens" validate:"min=0"`
	HealthStatus HealthStatus       `bson:"healthStatus" json:"healthStatus"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Vaccination records a vaccine given (or scheduled) for a flock.
// Future administration dates are allowed so treatments can be planned ahead.
type Vaccination struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FlockID            primitive.ObjectID `bson:"flock" json:"flockId"`
	VaccineType        string             `bson:"vaccineType" json:"vaccineType" validate:"required"`
	AdministrationDate time.Time          `bson:"administrationDate" json:"administrationDate"`
	Notes              string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Mortality records bird deaths in a flock. The date may not be in the
// future.
type Mortality struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FlockID        primitive.ObjectID `bson:"flock" json:"flockId"`
	Date           time.Time          `bson:"date" json:"date"`
	NumberOfDeaths int                `bson:"numberOfDeaths" json:"numberOfDeaths" validate:"min=1"`
	Cause          string             `bson:"cause,omitempty" json:"cause,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}
