package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/coopkeeper/internal/domain/apperror"
	"github.com/mamadbah2/coopkeeper/internal/domain/models"
	"github.com/mamadbah2/coopkeeper/pkg/pagination"
)

// financeFilter translates a FinanceQuery into a mongo filter document.
// categoryField is "type" for expenses and "source" for revenues.
func financeFilter(q models.FinanceQuery, categoryField string) bson.M {
	filter := bson.M{}
	if q.Category != "" {
		filter[categoryField] = q.Category
	}
	if q.MinDate != nil || q.MaxDate != nil {
		date := bson.M{}
		if q.MinDate != nil {
			date["$gte"] = *q.MinDate
		}
		if q.MaxDate != nil {
			date["$lte"] = *q.MaxDate
		}
		filter["date"] = date
	}
	return filter
}

func financeSort(q models.FinanceQuery) bson.D {
	if q.SortBy == "" {
		return nil
	}
	direction := 1
	if q.Order == "desc" {
		direction = -1
	}
	return bson.D{{Key: q.SortBy, Value: direction}}
}

func dateRangeFilter(from, to *time.Time) bson.M {
	filter := bson.M{}
	if from != nil || to != nil {
		date := bson.M{}
		if from != nil {
			date["$gte"] = *from
		}
		if to != nil {
			date["$lte"] = *to
		}
		filter["date"] = date
	}
	return filter
}

// sumAmounts runs the shared sum pipeline over a collection. Empty sets sum
// to zero, never error.
func (r *Repository) sumAmounts(ctx context.Context, coll string, match bson.M) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$amount"}}}},
	}

	cursor, err := r.db.Collection(coll).Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to sum %s amounts: %w", coll, err)
	}

	var results []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, fmt.Errorf("failed to decode %s sum: %w", coll, err)
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Total, nil
}

// monthlyTotals groups amounts by (year, month) sorted chronologically.
func (r *Repository) monthlyTotals(ctx context.Context, coll string) ([]models.MonthlyTotal, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"year": bson.M{"$year": "$date"}, "month": bson.M{"$month": "$date"}},
			"total": bson.M{"$sum": "$amount"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id.year", Value: 1}, {Key: "_id.month", Value: 1}}}},
		{{Key: "$project", Value: bson.M{
			"_id":   0,
			"year":  "$_id.year",
			"month": "$_id.month",
			"total": 1,
		}}},
	}

	cursor, err := r.db.Collection(coll).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to compute %s trends: %w", coll, err)
	}

	var totals []models.MonthlyTotal
	if err := cursor.All(ctx, &totals); err != nil {
		return nil, fmt.Errorf("failed to decode %s trends: %w", coll, err)
	}
	return totals, nil
}

// categoryTotals groups amounts by the category field, unordered.
func (r *Repository) categoryTotals(ctx context.Context, coll, categoryField string) ([]models.CategoryTotal, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   "$" + categoryField,
			"total": bson.M{"$sum": "$amount"},
		}}},
		{{Key: "$project", Value: bson.M{"_id": 0, "category": "$_id", "total": 1}}},
	}

	cursor, err := r.db.Collection(coll).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to compute %s breakdown: %w", coll, err)
	}

	var totals []models.CategoryTotal
	if err := cursor.All(ctx, &totals); err != nil {
		return nil, fmt.Errorf("failed to decode %s breakdown: %w", coll, err)
	}
	return totals, nil
}

// averageAmount computes the mean amount over the matched set. The second
// return reports whether any record matched.
func (r *Repository) averageAmount(ctx context.Context, coll string, match bson.M) (float64, bool, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": nil, "average": bson.M{"$avg": "$amount"}}}},
	}

	cursor, err := r.db.Collection(coll).Aggregate(ctx, pipeline)
	if err != nil {
		return 0, false, fmt.Errorf("failed to average %s amounts: %w", coll, err)
	}

	var results []struct {
		Average float64 `bson:"average"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, false, fmt.Errorf("failed to decode %s average: %w", coll, err)
	}
	if len(results) == 0 {
		return 0, false, nil
	}
	return results[0].Average, true, nil
}

// --- Expenses ---

// CreateExpense inserts a new expense; date defaults to now.
func (r *Repository) CreateExpense(ctx context.Context, expense *models.Expense) error {
	ts := now()
	expense.CreatedAt = ts
	expense.UpdatedAt = ts
	if expense.Date.IsZero() {
		expense.Date = ts
	}

	res, err := r.db.Collection(collExpenses).InsertOne(ctx, expense)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	expense.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// ListExpenses returns a page of expenses plus the unpaginated total.
func (r *Repository) ListExpenses(ctx context.Context, params pagination.Params) ([]models.Expense, int64, error) {
	coll := r.db.Collection(collExpenses)

	total, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count expenses: %w", err)
	}

	opts := options.Find().
		SetSkip(int64(params.Skip())).
		SetLimit(int64(params.Limit))
	cursor, err := coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list expenses: %w", err)
	}

	var expenses []models.Expense
	if err := cursor.All(ctx, &expenses); err != nil {
		return nil, 0, fmt.Errorf("failed to decode expenses: %w", err)
	}
	return expenses, total, nil
}

// AdvancedExpenses runs a filtered, sorted, paginated expense query.
func (r *Repository) AdvancedExpenses(ctx context.Context, q models.FinanceQuery) ([]models.Expense, int64, error) {
	coll := r.db.Collection(collExpenses)
	filter := financeFilter(q, "type")

	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count filtered expenses: %w", err)
	}

	opts := options.Find().
		SetSkip(int64((q.Page - 1) * q.Limit)).
		SetLimit(int64(q.Limit))
	if sort := financeSort(q); sort != nil {
		opts.SetSort(sort)
	}

	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query expenses: %w", err)
	}

	var expenses []models.Expense
	if err := cursor.All(ctx, &expenses); err != nil {
		return nil, 0, fmt.Errorf("failed to decode expenses: %w", err)
	}
	return expenses, total, nil
}

// UpdateExpense applies field updates and returns the updated expense.
func (r *Repository) UpdateExpense(ctx context.Context, id string, fields bson.M) (*models.Expense, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperror.NotFound("expense not found")
	}

	fields["updatedAt"] = now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var expense models.Expense
	err = r.db.Collection(collExpenses).
		FindOneAndUpdate(ctx, bson.M{"_id": objectID}, bson.M{"$set": fields}, opts).
		Decode(&expense)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("expense not found")
		}
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}
	return &expense, nil
}

// DeleteExpense removes an expense by id.
func (r *Repository) DeleteExpense(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperror.NotFound("expense not found")
	}

	res, err := r.db.Collection(collExpenses).DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound("expense not found")
	}
	return nil
}

// SumExpenses totals all expense amounts; zero over an empty set.
func (r *Repository) SumExpenses(ctx context.Context) (float64, error) {
	return r.sumAmounts(ctx, collExpenses, bson.M{})
}

// ExpenseTrends groups expense amounts by calendar month, chronological.
func (r *Repository) ExpenseTrends(ctx context.Context) ([]models.MonthlyTotal, error) {
	return r.monthlyTotals(ctx, collExpenses)
}

// ExpenseBreakdown groups expense amounts by type, unordered.
func (r *Repository) ExpenseBreakdown(ctx context.Context) ([]models.CategoryTotal, error) {
	return r.categoryTotals(ctx, collExpenses, "type")
}

// TotalExpensesByType sums expenses of one type. The bool reports whether
// any record matched.
func (r *Repository) TotalExpensesByType(ctx context.Context, expenseType string) (float64, bool, error) {
	count, err := r.db.Collection(collExpenses).CountDocuments(ctx, bson.M{"type": expenseType})
	if err != nil {
		return 0, false, fmt.Errorf("failed to count expenses by type: %w", err)
	}
	if count == 0 {
		return 0, false, nil
	}

	total, err := r.sumAmounts(ctx, collExpenses, bson.M{"type": expenseType})
	if err != nil {
		return 0, false, err
	}
	return total, true, nil
}

// AverageExpense computes the mean expense amount over the date range. The
// bool reports whether any record matched.
func (r *Repository) AverageExpense(ctx context.Context, from, to *time.Time) (float64, bool, error) {
	return r.averageAmount(ctx, collExpenses, dateRangeFilter(from, to))
}

// FilteredExpenses returns all expenses matching the query without
// pagination, for export.
func (r *Repository) FilteredExpenses(ctx context.Context, q models.FinanceQuery) ([]models.Expense, error) {
	cursor, err := r.db.Collection(collExpenses).Find(ctx, financeFilter(q, "type"))
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}

	var expenses []models.Expense
	if err := cursor.All(ctx, &expenses); err != nil {
		return nil, fmt.Errorf("failed to decode expenses: %w", err)
	}
	return expenses, nil
}

// --- Revenues ---

// CreateRevenue inserts a new revenue; date defaults to now.
func (r *Repository) CreateRevenue(ctx context.Context, revenue *models.Revenue) error {
	ts := now()
	revenue.CreatedAt = ts
	revenue.UpdatedAt = ts
	if revenue.Date.IsZero() {
		revenue.Date = ts
	}

	res, err := r.db.Collection(collRevenues).InsertOne(ctx, revenue)
	if err != nil {
		return fmt.Errorf("failed to insert revenue: %w", err)
	}
	revenue.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// ListRevenues returns a page of revenues plus the unpaginated total.
func (r *Repository) ListRevenues(ctx context.Context, params pagination.Params) ([]models.Revenue, int64, error) {
	coll := r.db.Collection(collRevenues)

	total, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count revenues: %w", err)
	}

	opts := options.Find().
		SetSkip(int64(params.Skip())).
		SetLimit(int64(params.Limit))
	cursor, err := coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list revenues: %w", err)
	}

	var revenues []models.Revenue
	if err := cursor.All(ctx, &revenues); err != nil {
		return nil, 0, fmt.Errorf("failed to decode revenues: %w", err)
	}
	return revenues, total, nil
}

// AdvancedRevenues runs a filtered, sorted, paginated revenue query.
func (r *Repository) AdvancedRevenues(ctx context.Context, q models.FinanceQuery) ([]models.Revenue, int64, error) {
	coll := r.db.Collection(collRevenues)
	filter := financeFilter(q, "source")

	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count filtered revenues: %w", err)
	}

	opts := options.Find().
		SetSkip(int64((q.Page - 1) * q.Limit)).
		SetLimit(int64(q.Limit))
	if sort := financeSort(q); sort != nil {
		opts.SetSort(sort)
	}

	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query revenues: %w", err)
	}

	var revenues []models.Revenue
	if err := cursor.All(ctx, &revenues); err != nil {
		return nil, 0, fmt.Errorf("failed to decode revenues: %w", err)
	}
	return revenues, total, nil
}

// UpdateRevenue applies field updates and returns the updated revenue.
func (r *Repository) UpdateRevenue(ctx context.Context, id string, fields bson.M) (*models.Revenue, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperror.NotFound("revenue not found")
	}

	fields["updatedAt"] = now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var revenue models.Revenue
	err = r.db.Collection(collRevenues).
		FindOneAndUpdate(ctx, bson.M{"_id": objectID}, bson.M{"$set": fields}, opts).
		Decode(&revenue)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("revenue not found")
		}
		return nil, fmt.Errorf("failed to update revenue: %w", err)
	}
	return &revenue, nil
}

// DeleteRevenue removes a revenue by id.
func (r *Repository) DeleteRevenue(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperror.NotFound("revenue not found")
	}

	res, err := r.db.Collection(collRevenues).DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete revenue: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound("revenue not found")
	}
	return nil
}

// SumRevenues totals all revenue amounts; zero over an empty set.
func (r *Repository) SumRevenues(ctx context.Context) (float64, error) {
	return r.sumAmounts(ctx, collRevenues, bson.M{})
}

// RevenueTrends groups revenue amounts by calendar month, chronological.
func (r *Repository) RevenueTrends(ctx context.Context) ([]models.MonthlyTotal, error) {
	return r.monthlyTotals(ctx, collRevenues)
}

// RevenueBreakdown groups revenue amounts by source, unordered.
func (r *Repository) RevenueBreakdown(ctx context.Context) ([]models.CategoryTotal, error) {
	return r.categoryTotals(ctx, collRevenues, "source")
}

// TotalRevenuesBySource sums revenues of one source. The bool reports
// whether any record matched.
func (r *Repository) TotalRevenuesBySource(ctx context.Context, source string) (float64, bool, error) {
	count, err := r.db.Collection(collRevenues).CountDocuments(ctx, bson.M{"source": source})
	if err != nil {
		return 0, false, fmt.Errorf("failed to count revenues by source: %w", err)
	}
	if count == 0 {
		return 0, false, nil
	}

	total, err := r.sumAmounts(ctx, collRevenues, bson.M{"source": source})
	if err != nil {
		return 0, false, err
	}
	return total, true, nil
}

// AverageRevenue computes the mean revenue amount over the date range. The
// bool reports whether any record matched.
func (r *Repository) AverageRevenue(ctx context.Context, from, to *time.Time) (float64, bool, error) {
	return r.averageAmount(ctx, collRevenues, dateRangeFilter(from, to))
}

// FilteredRevenues returns all revenues matching the query without
// pagination, for export.
func (r *Repository) FilteredRevenues(ctx context.Context, q models.FinanceQuery) ([]models.Revenue, error) {
	cursor, err := r.db.Collection(collRevenues).Find(ctx, financeFilter(q, "source"))
	if err != nil {
		return nil, fmt.Errorf("failed to load revenues: %w", err)
	}

	var revenues []models.Revenue
	if err := cursor.All(ctx, &revenues); err != nil {
		return nil, fmt.Errorf("failed to decode revenues: %w", err)
	}
	return revenues, nil
}
