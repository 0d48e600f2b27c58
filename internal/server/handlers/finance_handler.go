package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/mamadbah2/coopkeeper/internal/domain/apperror"
	"github.com/mamadbah2/coopkeeper/internal/domain/models"
	"github.com/mamadbah2/coopkeeper/internal/service/export"
	"github.com/mamadbah2/coopkeeper/internal/service/reporting"
	"github.com/mamadbah2/coopkeeper/pkg/pagination"
)

// ExpenseStore is the expense persistence behind the endpoints.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, expense *models.Expense) error
	ListExpenses(ctx context.Context, params pagination.Params) ([]models.Expense, int64, error)
	AdvancedExpenses(ctx context.Context, q models.FinanceQuery) ([]models.Expense, int64, error)
	UpdateExpense(ctx context.Context, id string, fields bson.M) (*models.Expense, error)
	DeleteExpense(ctx context.Context, id string) error
	FilteredExpenses(ctx context.Context, q models.FinanceQuery) ([]models.Expense, error)
}

// RevenueStore is the revenue persistence behind the endpoints.
type RevenueStore interface {
	CreateRevenue(ctx context.Context, revenue *models.Revenue) error
	ListRevenues(ctx context.Context, params pagination.Params) ([]models.Revenue, int64, error)
	AdvancedRevenues(ctx context.Context, q models.FinanceQuery) ([]models.Revenue, int64, error)
	UpdateRevenue(ctx context.Context, id string, fields bson.M) (*models.Revenue, error)
	DeleteRevenue(ctx context.Context, id string) error
	FilteredRevenues(ctx context.Context, q models.FinanceQuery) ([]models.Revenue, error)
}

type financeRequest struct {
	Type        string  `json:"type"`
	Source      string  `json:"source"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
}

// validate checks the shared expense/revenue payload. An omitted date is
// returned zero; the store defaults it to now on insert.
func (r financeRequest) validate(categoryField, category string) (time.Time, error) {
	fields := map[string]string{}
	if category == "" {
		fields[categoryField] = categoryField + " is required"
	}
	if r.Amount < 0 {
		fields["amount"] = "amount must not be negative"
	}

	var date time.Time
	if r.Date != "" {
		parsed, err := time.Parse(dateLayout, r.Date)
		if err != nil {
			fields["date"] = "expected format " + dateLayout
		}
		date = parsed
	}
	if len(fields) > 0 {
		return time.Time{}, apperror.Validation("invalid entry", fields)
	}
	return date, nil
}

// financeQuery builds the advanced listing query from request parameters.
func financeQuery(c *gin.Context, categoryParam string) (models.FinanceQuery, error) {
	minDate, err := dateQuery(c, "startDate")
	if err != nil {
		return models.FinanceQuery{}, err
	}
	maxDate, err := dateQuery(c, "endDate")
	if err != nil {
		return models.FinanceQuery{}, err
	}
	if minDate != nil && maxDate != nil && minDate.After(*maxDate) {
		return models.FinanceQuery{}, apperror.Validation("invalid date range", map[string]string{
			"startDate": "start date is after end date",
		})
	}

	params := pageParams(c)
	return models.FinanceQuery{
		Category: c.Query(categoryParam),
		MinDate:  minDate,
		MaxDate:  maxDate,
		SortBy:   c.DefaultQuery("sortBy", "date"),
		Order:    c.DefaultQuery("order", "asc"),
		Page:     params.Page,
		Limit:    params.Limit,
	}, nil
}

// ExpenseHandler exposes the expense tracking endpoints.
type ExpenseHandler struct {
	store     ExpenseStore
	reporting *reporting.Service
	logger    *zap.Logger
}

// NewExpenseHandler constructs the expense HTTP adapter.
func NewExpenseHandler(store ExpenseStore, reporting *reporting.Service, logger *zap.Logger) *ExpenseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpenseHandler{store: store, reporting: reporting, logger: logger}
}

// Create records a new expense entry.
func (h *ExpenseHandler) Create(c *gin.Context) {
	var req financeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperror.Validation("invalid request body", nil))
		return
	}

	date, err := req.validate("type", req.Type)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	expense := &models.Expense{
		Type:        req.Type,
		Amount:      req.Amount,
		Date:        date,
		Description: req.Description,
	}
	if err := h.store.CreateExpense(c.Request.Context(), expense); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusCreated, expense)
}

// List returns expenses newest first, paginated.
func (h *ExpenseHandler) List(c *gin.Context) {
	params := pageParams(c)

	expenses, total, err := h.store.ListExpenses(c.Request.Context(), params)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondPage(c, expenses, pagination.NewMetadata(params, total, c.Request.URL.Path))
}

// Advanced returns expenses filtered by type and date range, sorted and
// paginated by the query parameters.
func (h *ExpenseHandler) Advanced(c *gin.Context) {
	q, err := financeQuery(c, "type")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	expenses, total, err := h.store.AdvancedExpenses(c.Request.Context(), q)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondPage(c, expenses, pagination.NewMetadata(pagination.Params{Page: q.Page, Limit: q.Limit}, total, c.Request.URL.Path))
}

// TotalByType returns the summed amount for one expense type.
func (h *ExpenseHandler) TotalByType(c *gin.Context) {
	total, err := h.reporting.TotalExpensesByType(c.Request.Context(), c.Param("type"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"type": c.Param("type"), "total": total})
}

// Average returns the mean expense amount over the optional date range.
func (h *ExpenseHandler) Average(c *gin.Context) {
	from, err := dateQuery(c, "startDate")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	to, err := dateQuery(c, "endDate")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	average, err := h.reporting.AverageExpense(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"average": average})
}

type financeUpdateRequest struct {
	Type        *string  `json:"type"`
	Source      *string  `json:"source"`
	Amount      *float64 `json:"amount"`
	Date        *string  `json:"date"`
	Description *string  `json:"description"`
}

func (r financeUpdateRequest) fields(categoryBSON string, category *string) (bson.M, error) {
	fields := bson.M{}
	if category != nil {
		fields[categoryBSON] = *category
	}
	if r.Amount != nil {
		if *r.Amount < 0 {
			return nil, apperror.Validation("invalid entry", map[string]string{
				"amount": "amount must not be negative",
			})
		}
		fields["amount"] = *r.Amount
	}
	if r.Date != nil {
		date, err := time.Parse(dateLayout, *r.Date)
		if err != nil {
			return nil, apperror.Validation("invalid entry", map[string]string{
				"date": "expected format " + dateLayout,
			})
		}
		fields["date"] = date
	}
	if r.Description != nil {
		fields["description"] = *r.Description
	}
	if len(fields) == 0 {
		return nil, apperror.Validation("no fields to update", nil)
	}
	return fields, nil
}

// Update applies a partial update to an expense entry.
func (h *ExpenseHandler) Update(c *gin.Context) {
	var req financeUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperror.Validation("invalid request body", nil))
		return
	}

	fields, err := req.fields("type", req.Type)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	expense, err := h.store.UpdateExpense(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusOK, expense)
}

// Delete removes an expense entry by id.
func (h *ExpenseHandler) Delete(c *gin.Context) {
	if err := h.store.DeleteExpense(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"deleted": true})
}

// Export streams expenses matching the filter parameters as CSV.
func (h *ExpenseHandler) Export(c *gin.Context) {
	q, err := financeQuery(c, "type")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	expenses, err := h.store.FilteredExpenses(c.Request.Context(), q)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	payload, err := export.Expenses(expenses)
	if err != nil {
		respondError(c, h.logger, apperror.Internal("failed building export", err))
		return
	}
	respondCSV(c, "expenses.csv", payload)
}

// RevenueHandler exposes the revenue tracking endpoints.
type RevenueHandler struct {
	store     RevenueStore
	reporting *reporting.Service
	logger    *zap.Logger
}

// NewRevenueHandler constructs the revenue HTTP adapter.
func NewRevenueHandler(store RevenueStore, reporting *reporting.Service, logger *zap.Logger) *RevenueHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RevenueHandler{store: store, reporting: reporting, logger: logger}
}

// Create records a new revenue entry.
func (h *RevenueHandler) Create(c *gin.Context) {
	var req financeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperror.Validation("invalid request body", nil))
		return
	}

	date, err := req.validate("source", req.Source)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	revenue := &models.Revenue{
		Source:      req.Source,
		Amount:      req.Amount,
		Date:        date,
		Description: req.Description,
	}
	if err := h.store.CreateRevenue(c.Request.Context(), revenue); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusCreated, revenue)
}

// List returns revenues newest first, paginated.
func (h *RevenueHandler) List(c *gin.Context) {
	params := pageParams(c)

	revenues, total, err := h.store.ListRevenues(c.Request.Context(), params)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondPage(c, revenues, pagination.NewMetadata(params, total, c.Request.URL.Path))
}

// Advanced returns revenues filtered by source and date range, sorted and
// paginated by the query parameters.
func (h *RevenueHandler) Advanced(c *gin.Context) {
	q, err := financeQuery(c, "source")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	revenues, total, err := h.store.AdvancedRevenues(c.Request.Context(), q)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondPage(c, revenues, pagination.NewMetadata(pagination.Params{Page: q.Page, Limit: q.Limit}, total, c.Request.URL.Path))
}

// TotalBySource returns the summed amount for one revenue source.
func (h *RevenueHandler) TotalBySource(c *gin.Context) {
	total, err := h.reporting.TotalRevenuesBySource(c.Request.Context(), c.Param("source"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"source": c.Param("source"), "total": total})
}

// Average returns the mean revenue amount over the optional date range.
func (h *RevenueHandler) Average(c *gin.Context) {
	from, err := dateQuery(c, "startDate")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	to, err := dateQuery(c, "endDate")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	average, err := h.reporting.AverageRevenue(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"average": average})
}

// Update applies a partial update to a revenue entry.
func (h *RevenueHandler) Update(c *gin.Context) {
	var req financeUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperror.Validation("invalid request body", nil))
		return
	}

	fields, err := req.fields("source", req.Source)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	revenue, err := h.store.UpdateRevenue(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusOK, revenue)
}

// Delete removes a revenue entry by id.
func (h *RevenueHandler) Delete(c *gin.Context) {
	if err := h.store.DeleteRevenue(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"deleted": true})
}

// Export streams revenues matching the filter parameters as CSV.
func (h *RevenueHandler) Export(c *gin.Context) {
	q, err := financeQuery(c, "source")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	revenues, err := h.store.FilteredRevenues(c.Request.Context(), q)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	payload, err := export.Revenues(revenues)
	if err != nil {
		respondError(c, h.logger, apperror.Internal("failed building export", err))
		return
	}
	respondCSV(c, "revenues.csv", payload)
}
