package models

import "time"

// DailySummary is the aggregated farm snapshot persisted once per day by the
// scheduler and optionally mirrored to the export spreadsheet.
type DailySummary struct {
	Date          time.Time `bson:"date" json:"date"`
	EggsCollected int       `bson:"eggs_collected" json:"eggs_collected"`
	Mortality     int       `bson:"mortality" json:"mortality"`
	FeedUsed      float64   `bson:"feed_used" json:"feed_used"`
	Revenue       float64   `bson:"revenue" json:"revenue"`
	Expenses      float64   `bson:"expenses" json:"expenses"`
	Profit        float64   `bson:"profit" json:"profit"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}
