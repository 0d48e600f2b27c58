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
)

// FeedStore is the feed stock persistence behind the endpoints.
type FeedStore interface {
	CreateFeed(ctx context.Context, feed *models.Feed) error
	RecordFeedUsage(ctx context.Context, feedID string, usage models.FeedUsage) (*models.Feed, error)
	ListFeeds(ctx context.Context) ([]models.Feed, error)
	UpdateFeed(ctx context.Context, id string, fields bson.M) (*models.Feed, error)
	DeleteFeed(ctx context.Context, id string) error
}

// FeedHandler exposes feed stock management endpoints.
type FeedHandler struct {
	store  FeedStore
	logger *zap.Logger
}

// NewFeedHandler constructs the feed HTTP adapter.
func NewFeedHandler(store FeedStore, logger *zap.Logger) *FeedHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedHandler{store: store, logger: logger}
}

type feedRequest struct {
	Name            string  `json:"name" binding:"required"`
	Quantity        float64 `json:"quantity"`
	SupplierName    string  `json:"supplierName" binding:"required"`
	SupplierContact string  `json:"supplierContact"`
	OrderDate       string  `json:"orderDate"`
}

// Create registers a new feed batch.
func (h *FeedHandler) Create(c *gin.Context) {
	var req feedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperror.Validation("name and supplierName are required", nil))
		return
	}
	if req.Quantity < 0 {
		respondError(c, h.logger, apperror.Validation("invalid feed", map[string]string{
			"quantity": "must not be negative",
		}))
		return
	}

	orderDate := time.Now()
	if req.OrderDate != "" {
		parsed, err := time.Parse(dateLayout, req.OrderDate)
		if err != nil {
			respondError(c, h.logger, apperror.Validation("invalid feed", map[string]string{
				"orderDate": "expected format " + dateLayout,
			}))
			return
		}
		orderDate = parsed
	}

	feed := &models.Feed{
		Name:     req.Name,
		Quantity: req.Quantity,
		Supplier: models.Supplier{
			Name:    req.SupplierName,
			Contact: req.SupplierContact,
		},
		OrderDate: orderDate,
	}
	if err := h.store.CreateFeed(c.Request.Context(), feed); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusCreated, feed)
}

// List returns all feed batches.
func (h *FeedHandler) List(c *gin.Context) {
	feeds, err := h.store.ListFeeds(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusOK, feeds)
}

type usageRequest struct {
	AmountUsed float64 `json:"amountUsed"`
	UsageDate  string  `json:"usageDate"`
}

// RecordUsage appends a consumption entry to a feed batch. Using more than
// the remaining quantity is rejected without changing the stock.
func (h *FeedHandler) RecordUsage(c *gin.Context) {
	var req usageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperror.Validation("invalid request body", nil))
		return
	}
	if req.AmountUsed <= 0 {
		respondError(c, h.logger, apperror.Validation("invalid feed usage", map[string]string{
			"amountUsed": "must be greater than zero",
		}))
		return
	}

	usageDate := time.Now()
	if req.UsageDate != "" {
		parsed, err := time.Parse(dateLayout, req.UsageDate)
		if err != nil {
			respondError(c, h.logger, apperror.Validation("invalid feed usage", map[string]string{
				"usageDate": "expected format " + dateLayout,
			}))
			return
		}
		usageDate = parsed
	}

	feed, err := h.store.RecordFeedUsage(c.Request.Context(), c.Param("id"), models.FeedUsage{
		UsageDate:  usageDate,
		AmountUsed: req.AmountUsed,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusOK, feed)
}

type feedUpdateRequest struct {
	Name            *string  `json:"name"`
	Quantity        *float64 `json:"quantity"`
	SupplierName    *string  `json:"supplierName"`
	SupplierContact *string  `json:"supplierContact"`
}

// Update applies a partial update to a feed batch.
func (h *FeedHandler) Update(c *gin.Context) {
	var req feedUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperror.Validation("invalid request body", nil))
		return
	}

	fields := bson.M{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			respondError(c, h.logger, apperror.Validation("invalid feed", map[string]string{
				"quantity": "must not be negative",
			}))
			return
		}
		fields["quantity"] = *req.Quantity
	}
	if req.SupplierName != nil {
		fields["supplier.name"] = *req.SupplierName
	}
	if req.SupplierContact != nil {
		fields["supplier.contact"] = *req.SupplierContact
	}
	if len(fields) == 0 {
		respondError(c, h.logger, apperror.Validation("no fields to update", nil))
		return
	}

	feed, err := h.store.UpdateFeed(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusOK, feed)
}

// Delete removes a feed batch by id.
func (h *FeedHandler) Delete(c *gin.Context) {
	if err := h.store.DeleteFeed(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"deleted": true})
}

// Export streams every feed batch as CSV.
func (h *FeedHandler) Export(c *gin.Context) {
	feeds, err := h.store.ListFeeds(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	payload, err := export.Feeds(feeds)
	if err != nil {
		respondError(c, h.logger, apperror.Internal("failed building export", err))
		return
	}
	respondCSV(c, "feeds.csv", payload)
}
