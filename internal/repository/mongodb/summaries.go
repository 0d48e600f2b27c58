package mongodb

import (
	"context"
	"fmt"

	"github.com/mamadbah2/coopkeeper/internal/domain/models"
)

// SaveDailySummary persists the scheduler's aggregated daily snapshot.
func (r *Repository) SaveDailySummary(ctx context.Context, summary models.DailySummary) error {
	if _, err := r.db.Collection(collSummaries).InsertOne(ctx, summary); err != nil {
		return fmt.Errorf("failed to insert daily summary: %w", err)
	}
	return nil
}
