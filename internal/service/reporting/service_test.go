package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/coopkeeper/internal/domain/apperror"
	"github.com/mamadbah2/coopkeeper/internal/domain/models"
)

type fakeStore struct {
	users         int64
	revenues      float64
	expenses      float64
	eggs          int
	mortality     int
	feedUsed      float64
	lowFeed       bool
	inventory     *models.EggInventory
	totalsByType  map[string]float64
	revenueTrends []models.MonthlyTotal
	expenseTrends []models.MonthlyTotal
	revenueBreaks []models.CategoryTotal
	expenseBreaks []models.CategoryTotal
	avgExpense    float64
	avgExpenseOK  bool
	avgRevenue    float64
	avgRevenueOK  bool
}

func (f *fakeStore) CountUsers(context.Context) (int64, error)      { return f.users, nil }
func (f *fakeStore) SumRevenues(context.Context) (float64, error)   { return f.revenues, nil }
func (f *fakeStore) SumExpenses(context.Context) (float64, error)   { return f.expenses, nil }
func (f *fakeStore) SumProductionEggs(context.Context) (int, error) { return f.eggs, nil }
func (f *fakeStore) SumMortality(context.Context) (int, error)      { return f.mortality, nil }
func (f *fakeStore) SumFeedUsed(context.Context) (float64, error)   { return f.feedUsed, nil }

func (f *fakeStore) HasLowFeed(context.Context, float64) (bool, error) { return f.lowFeed, nil }

func (f *fakeStore) LatestInventory(context.Context) (*models.EggInventory, error) {
	if f.inventory == nil {
		return nil, apperror.NotFound("no inventory snapshot")
	}
	return f.inventory, nil
}

func (f *fakeStore) RevenueTrends(context.Context) ([]models.MonthlyTotal, error) {
	return f.revenueTrends, nil
}

func (f *fakeStore) ExpenseTrends(context.Context) ([]models.MonthlyTotal, error) {
	return f.expenseTrends, nil
}

func (f *fakeStore) RevenueBreakdown(context.Context) ([]models.CategoryTotal, error) {
	return f.revenueBreaks, nil
}

func (f *fakeStore) ExpenseBreakdown(context.Context) ([]models.CategoryTotal, error) {
	return f.expenseBreaks, nil
}

func (f *fakeStore) TotalExpensesByType(_ context.Context, expenseType string) (float64, bool, error) {
	total, ok := f.totalsByType[expenseType]
	return total, ok, nil
}

func (f *fakeStore) TotalRevenuesBySource(_ context.Context, source string) (float64, bool, error) {
	total, ok := f.totalsByType[source]
	return total, ok, nil
}

func (f *fakeStore) AverageExpense(context.Context, *time.Time, *time.Time) (float64, bool, error) {
	return f.avgExpense, f.avgExpenseOK, nil
}

func (f *fakeStore) AverageRevenue(context.Context, *time.Time, *time.Time) (float64, bool, error) {
	return f.avgRevenue, f.avgRevenueOK, nil
}

func TestComputeAdminSummary(t *testing.T) {
	store := &fakeStore{users: 4, revenues: 500, expenses: 350, eggs: 1200}
	svc := NewService(store, nil)

	summary, err := svc.ComputeAdminSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), summary.TotalUsers)
	assert.Equal(t, 150.0, summary.TotalProfits)
	assert.Equal(t, 1200, summary.TotalEggsProduced)
}

func TestComputeUserDashboard(t *testing.T) {
	store := &fakeStore{
		eggs:      800,
		mortality: 60,
		feedUsed:  42.5,
		revenues:  900,
		expenses:  400,
		lowFeed:   true,
		inventory: &models.EggInventory{
			ID:            primitive.NewObjectID(),
			TotalEggs:     800,
			RemainingEggs: 350,
		},
		revenueTrends: []models.MonthlyTotal{{Year: 2026, Month: 7, Total: 500}},
		expenseBreaks: []models.CategoryTotal{{Category: "Feed", Total: 250}},
	}
	svc := NewService(store, nil)

	dashboard, err := svc.ComputeUserDashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 800, dashboard.TotalEggsProduced)
	assert.Equal(t, 60, dashboard.TotalMortality)
	assert.Equal(t, 42.5, dashboard.TotalFeedUsed)
	assert.Equal(t, 350, dashboard.TotalEggsInInventory)
	assert.Equal(t, 500.0, dashboard.TotalProfits)
	assert.True(t, dashboard.Alerts.LowFeed)
	assert.True(t, dashboard.Alerts.HighMortality)
	assert.Equal(t, store.revenueTrends, dashboard.RevenueTrends)
	assert.Equal(t, store.expenseBreaks, dashboard.ExpenseBreakdown)
}

func TestComputeUserDashboardWithoutInventory(t *testing.T) {
	store := &fakeStore{mortality: 10}
	svc := NewService(store, nil)

	dashboard, err := svc.ComputeUserDashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, dashboard.TotalEggsInInventory)
	assert.False(t, dashboard.Alerts.HighMortality)
}

func TestTotalExpensesByType(t *testing.T) {
	store := &fakeStore{totalsByType: map[string]float64{"Feed": 320}}
	svc := NewService(store, nil)

	total, err := svc.TotalExpensesByType(context.Background(), "Feed")
	require.NoError(t, err)
	assert.Equal(t, 320.0, total)

	_, err = svc.TotalExpensesByType(context.Background(), "Gravel")
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	_, err = svc.TotalExpensesByType(context.Background(), "")
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestTotalRevenuesBySource(t *testing.T) {
	store := &fakeStore{totalsByType: map[string]float64{"Egg Sales": 750}}
	svc := NewService(store, nil)

	total, err := svc.TotalRevenuesBySource(context.Background(), "Egg Sales")
	require.NoError(t, err)
	assert.Equal(t, 750.0, total)

	_, err = svc.TotalRevenuesBySource(context.Background(), "")
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestAverageExpenseEmptyRange(t *testing.T) {
	svc := NewService(&fakeStore{}, nil)

	_, err := svc.AverageExpense(context.Background(), nil, nil)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestAverageRevenue(t *testing.T) {
	svc := NewService(&fakeStore{avgRevenue: 125.5, avgRevenueOK: true}, nil)

	average, err := svc.AverageRevenue(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 125.5, average)
}

func TestComputeDailySummary(t *testing.T) {
	store := &fakeStore{eggs: 200, mortality: 3, feedUsed: 12.5, revenues: 300, expenses: 120}
	svc := NewService(store, nil)

	when := time.Date(2026, 8, 15, 18, 30, 0, 0, time.UTC)
	summary, err := svc.ComputeDailySummary(context.Background(), when)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), summary.Date)
	assert.Equal(t, 200, summary.EggsCollected)
	assert.Equal(t, 3, summary.Mortality)
	assert.Equal(t, 12.5, summary.FeedUsed)
	assert.Equal(t, 180.0, summary.Profit)
}
