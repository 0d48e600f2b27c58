package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// SumProductionEggs totals eggs across every production record.
func (r *Repository) SumProductionEggs(ctx context.Context) (int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$totalEggs"}}}},
	}

	cursor, err := r.db.Collection(collEggProduction).Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to sum production eggs: %w", err)
	}

	var results []struct {
		Total int `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, fmt.Errorf("failed to decode production sum: %w", err)
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Total, nil
}

// SumMortality totals deaths across every mortality record.
func (r *Repository) SumMortality(ctx context.Context) (int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$numberOfDeaths"}}}},
	}

	cursor, err := r.db.Collection(collMortalities).Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to sum mortality: %w", err)
	}

	var results []struct {
		Total int `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, fmt.Errorf("failed to decode mortality sum: %w", err)
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Total, nil
}

// SumFeedUsed totals amountUsed over every usage record of every feed batch.
func (r *Repository) SumFeedUsed(ctx context.Context) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$unwind", Value: "$usageRecords"}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$usageRecords.amountUsed"}}}},
	}

	cursor, err := r.db.Collection(collFeeds).Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to sum feed usage: %w", err)
	}

	var results []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, fmt.Errorf("failed to decode feed usage sum: %w", err)
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Total, nil
}

// HasLowFeed reports whether any feed batch sits below the threshold.
func (r *Repository) HasLowFeed(ctx context.Context, threshold float64) (bool, error) {
	count, err := r.db.Collection(collFeeds).CountDocuments(ctx, bson.M{"quantity": bson.M{"$lt": threshold}})
	if err != nil {
		return false, fmt.Errorf("failed to check low feed: %w", err)
	}
	return count > 0, nil
}
