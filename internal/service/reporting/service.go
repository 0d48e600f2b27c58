// Package reporting computes read-only rollups over the raw record
// collections for the admin and user dashboards.
package reporting

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/coopkeeper/internal/domain/apperror"
	"github.com/mamadbah2/coopkeeper/internal/domain/models"
)

// Alert thresholds are fixed constants.
const (
	LowFeedThreshold       = 10.0
	HighMortalityThreshold = 50
)

// Store is the aggregate read surface the reporting engine consumes. Every
// method is side-effect free.
type Store interface {
	CountUsers(ctx context.Context) (int64, error)
	SumRevenues(ctx context.Context) (float64, error)
	SumExpenses(ctx context.Context) (float64, error)
	SumProductionEggs(ctx context.Context) (int, error)
	SumMortality(ctx context.Context) (int, error)
	SumFeedUsed(ctx context.Context) (float64, error)
	HasLowFeed(ctx context.Context, threshold float64) (bool, error)
	LatestInventory(ctx context.Context) (*models.EggInventory, error)
	RevenueTrends(ctx context.Context) ([]models.MonthlyTotal, error)
	ExpenseTrends(ctx context.Context) ([]models.MonthlyTotal, error)
	RevenueBreakdown(ctx context.Context) ([]models.CategoryTotal, error)
	ExpenseBreakdown(ctx context.Context) ([]models.CategoryTotal, error)
	TotalExpensesByType(ctx context.Context, expenseType string) (float64, bool, error)
	TotalRevenuesBySource(ctx context.Context, source string) (float64, bool, error)
	AverageExpense(ctx context.Context, from, to *time.Time) (float64, bool, error)
	AverageRevenue(ctx context.Context, from, to *time.Time) (float64, bool, error)
}

// Service is the aggregation engine. It never mutates.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService wires a new reporting service instance.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// AdminSummary is the admin dashboard payload.
type AdminSummary struct {
	TotalUsers        int64   `json:"totalUsers"`
	TotalProfits      float64 `json:"totalProfits"`
	TotalEggsProduced int     `json:"totalEggsProduced"`
}

// ComputeAdminSummary builds the admin rollup. Every sum defaults to zero
// over an empty collection.
func (s *Service) ComputeAdminSummary(ctx context.Context) (*AdminSummary, error) {
	users, err := s.store.CountUsers(ctx)
	if err != nil {
		return nil, err
	}

	revenue, err := s.store.SumRevenues(ctx)
	if err != nil {
		return nil, err
	}

	expense, err := s.store.SumExpenses(ctx)
	if err != nil {
		return nil, err
	}

	eggs, err := s.store.SumProductionEggs(ctx)
	if err != nil {
		return nil, err
	}

	return &AdminSummary{
		TotalUsers:        users,
		TotalProfits:      revenue - expense,
		TotalEggsProduced: eggs,
	}, nil
}

// DashboardAlerts flags threshold breaches on the user dashboard.
type DashboardAlerts struct {
	LowFeed       bool `json:"lowFeed"`
	HighMortality bool `json:"highMortality"`
}

// UserDashboard is the composite payload for the regular user dashboard.
type UserDashboard struct {
	TotalEggsProduced    int                    `json:"totalEggsProduced"`
	TotalMortality       int                    `json:"totalMortality"`
	TotalFeedUsed        float64                `json:"totalFeedUsed"`
	TotalEggsInInventory int                    `json:"totalEggsInInventory"`
	TotalProfits         float64                `json:"totalProfits"`
	RevenueTrends        []models.MonthlyTotal  `json:"revenueTrends"`
	ExpenseTrends        []models.MonthlyTotal  `json:"expenseTrends"`
	RevenueBreakdown     []models.CategoryTotal `json:"revenueBreakdown"`
	ExpenseBreakdown     []models.CategoryTotal `json:"expenseBreakdown"`
	Alerts               DashboardAlerts        `json:"alerts"`
}

// ComputeUserDashboard assembles the full user dashboard rollup.
func (s *Service) ComputeUserDashboard(ctx context.Context) (*UserDashboard, error) {
	eggs, err := s.store.SumProductionEggs(ctx)
	if err != nil {
		return nil, err
	}

	mortality, err := s.store.SumMortality(ctx)
	if err != nil {
		return nil, err
	}

	feedUsed, err := s.store.SumFeedUsed(ctx)
	if err != nil {
		return nil, err
	}

	// Inventory is the latest snapshot's remaining stock, not a sum across
	// snapshots. No snapshot yet means zero eggs on hand.
	eggsInStock := 0
	if snapshot, err := s.store.LatestInventory(ctx); err == nil {
		eggsInStock = snapshot.RemainingEggs
	} else if apperror.KindOf(err) != apperror.KindNotFound {
		return nil, err
	}

	revenue, err := s.store.SumRevenues(ctx)
	if err != nil {
		return nil, err
	}

	expense, err := s.store.SumExpenses(ctx)
	if err != nil {
		return nil, err
	}

	revenueTrends, err := s.store.RevenueTrends(ctx)
	if err != nil {
		return nil, err
	}

	expenseTrends, err := s.store.ExpenseTrends(ctx)
	if err != nil {
		return nil, err
	}

	revenueBreakdown, err := s.store.RevenueBreakdown(ctx)
	if err != nil {
		return nil, err
	}

	expenseBreakdown, err := s.store.ExpenseBreakdown(ctx)
	if err != nil {
		return nil, err
	}

	lowFeed, err := s.store.HasLowFeed(ctx, LowFeedThreshold)
	if err != nil {
		return nil, err
	}

	return &UserDashboard{
		TotalEggsProduced:    eggs,
		TotalMortality:       mortality,
		TotalFeedUsed:        feedUsed,
		TotalEggsInInventory: eggsInStock,
		TotalProfits:         revenue - expense,
		RevenueTrends:        revenueTrends,
		ExpenseTrends:        expenseTrends,
		RevenueBreakdown:     revenueBreakdown,
		ExpenseBreakdown:     expenseBreakdown,
		Alerts: DashboardAlerts{
			LowFeed:       lowFeed,
			HighMortality: mortality > HighMortalityThreshold,
		},
	}, nil
}

// TotalExpensesByType sums expenses of one type; an empty match is
// NotFound, never a zero that hides a typo in the category.
func (s *Service) TotalExpensesByType(ctx context.Context, expenseType string) (float64, error) {
	if expenseType == "" {
		return 0, apperror.Validation("type is required", map[string]string{"type": "type query parameter is required"})
	}

	total, found, err := s.store.TotalExpensesByType(ctx, expenseType)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, apperror.NotFound("no expenses found for type: " + expenseType)
	}
	return total, nil
}

// TotalRevenuesBySource sums revenues of one source with the same empty-set
// semantics as TotalExpensesByType.
func (s *Service) TotalRevenuesBySource(ctx context.Context, source string) (float64, error) {
	if source == "" {
		return 0, apperror.Validation("source is required", map[string]string{"source": "source query parameter is required"})
	}

	total, found, err := s.store.TotalRevenuesBySource(ctx, source)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, apperror.NotFound("no revenues found for source: " + source)
	}
	return total, nil
}

// AverageExpense computes the mean expense over a date range; an empty set
// reports NotFound rather than NaN.
func (s *Service) AverageExpense(ctx context.Context, from, to *time.Time) (float64, error) {
	average, found, err := s.store.AverageExpense(ctx, from, to)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, apperror.NotFound("no expenses found for the specified date range")
	}
	return average, nil
}

// AverageRevenue computes the mean revenue over a date range with the same
// empty-set semantics as AverageExpense.
func (s *Service) AverageRevenue(ctx context.Context, from, to *time.Time) (float64, error) {
	average, found, err := s.store.AverageRevenue(ctx, from, to)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, apperror.NotFound("no revenues found for the specified date range")
	}
	return average, nil
}

// ComputeDailySummary condenses the day's rollups into the persisted daily
// snapshot used by the scheduler and the spreadsheet sink.
func (s *Service) ComputeDailySummary(ctx context.Context, date time.Time) (*models.DailySummary, error) {
	eggs, err := s.store.SumProductionEggs(ctx)
	if err != nil {
		return nil, err
	}

	mortality, err := s.store.SumMortality(ctx)
	if err != nil {
		return nil, err
	}

	feedUsed, err := s.store.SumFeedUsed(ctx)
	if err != nil {
		return nil, err
	}

	revenue, err := s.store.SumRevenues(ctx)
	if err != nil {
		return nil, err
	}

	expense, err := s.store.SumExpenses(ctx)
	if err != nil {
		return nil, err
	}

	return &models.DailySummary{
		Date:          models.DayOf(date),
		EggsCollected: eggs,
		Mortality:     mortality,
		FeedUsed:      feedUsed,
		Revenue:       revenue,
		Expenses:      expense,
		Profit:        revenue - expense,
		CreatedAt:     time.Now().UTC(),
	}, nil
}
