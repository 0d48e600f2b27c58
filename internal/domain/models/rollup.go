package models

import "time"

// MonthlyTotal is a trend bucket: amounts summed per calendar month,
// returned in chronological order.
type MonthlyTotal struct {
	Year  int     `bson:"year" json:"year"`
	Month int     `bson:"month" json:"month"`
	Total float64 `bson:"total" json:"total"`
}

// CategoryTotal is a breakdown bucket: amounts summed per free-text
// category (expense type or revenue source), unordered.
type CategoryTotal struct {
	Category string  `bson:"category" json:"category"`
	Total    float64 `bson:"total" json:"total"`
}

// FinanceQuery filters and orders an expense or revenue listing. Category
// matches the expense type or revenue source; date bounds are inclusive and
// nil means open.
type FinanceQuery struct {
	Category string
	MinDate  *time.Time
	MaxDate  *time.Time
	SortBy   string
	Order    string // "asc" or "desc"; default ascending
	Page     int
	Limit    int
}
