package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/mamadbah2/coopkeeper/internal/domain/apperror"
	"github.com/mamadbah2/coopkeeper/internal/domain/models"
	"github.com/mamadbah2/coopkeeper/internal/service/export"
)

// FlockStore is the flock persistence behind the CRUD endpoints.
type FlockStore interface {
	CreateFlock(ctx context.Context, flock *models.Flock) error
	ListFlocks(ctx context.Context) ([]models.Flock, error)
	UpdateFlock(ctx context.Context, id string, fields bson.M) (*models.Flock, error)
	DeleteFlock(ctx context.Context, id string) error
	AllFlocks(ctx context.Context) ([]models.Flock, error)
}

// FlockHandler exposes flock management endpoints.
type FlockHandler struct {
	store  FlockStore
	logger *zap.Logger
}

// NewFlockHandler constructs the flock HTTP adapter.
func NewFlockHandler(store FlockStore, logger *zap.Logger) *FlockHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FlockHandler{store: store, logger: logger}
}

type flockRequest struct {
	Name         string `json:"name" binding:"required"`
	Breed        string `json:"breed" binding:"required"`
	NumberOfHens int    `json:"numberOfHens" binding:"min=0"`
	HealthStatus string `json:"healthStatus"`
}

// Create registers a new flock. The health status defaults to Healthy.
func (h *FlockHandler) Create(c *gin.Context) {
	var req flockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperror.Validation("name and breed are required and numberOfHens must not be negative", nil))
		return
	}

	status := models.HealthStatus(req.HealthStatus)
	if req.HealthStatus != "" && !status.Valid() {
		respondError(c, h.logger, apperror.Validation("invalid flock", map[string]string{
			"healthStatus": "must be Healthy, Sick, or Quarantined",
		}))
		return
	}

	flock := &models.Flock{
		Name:         req.Name,
		Breed:        req.Breed,
		NumberOfHens: req.NumberOfHens,
		HealthStatus: status,
	}
	if err := h.store.CreateFlock(c.Request.Context(), flock); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusCreated, flock)
}

// List returns all flocks, newest first.
func (h *FlockHandler) List(c *gin.Context) {
	flocks, err := h.store.ListFlocks(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusOK, flocks)
}

type flockUpdateRequest struct {
	Name         *string `json:"name"`
	Breed        *string `json:"breed"`
	NumberOfHens *int    `json:"numberOfHens"`
	HealthStatus *string `json:"healthStatus"`
}

// Update applies a partial update to a flock.
func (h *FlockHandler) Update(c *gin.Context) {
	var req flockUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperror.Validation("invalid request body", nil))
		return
	}

	fields := bson.M{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Breed != nil {
		fields["breed"] = *req.Breed
	}
	if req.NumberOfHens != nil {
		if *req.NumberOfHens < 0 {
			respondError(c, h.logger, apperror.Validation("invalid flock", map[string]string{
				"numberOfHens": "must not be negative",
			}))
			return
		}
		fields["numberOfHens"] = *req.NumberOfHens
	}
	if req.HealthStatus != nil {
		status := models.HealthStatus(*req.HealthStatus)
		if !status.Valid() {
			respondError(c, h.logger, apperror.Validation("invalid flock", map[string]string{
				"healthStatus": "must be Healthy, Sick, or Quarantined",
			}))
			return
		}
		fields["healthStatus"] = status
	}
	if len(fields) == 0 {
		respondError(c, h.logger, apperror.Validation("no fields to update", nil))
		return
	}

	flock, err := h.store.UpdateFlock(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusOK, flock)
}

// Delete removes a flock. Its vaccination and mortality records stay in
// their own collections as history.
func (h *FlockHandler) Delete(c *gin.Context) {
	if err := h.store.DeleteFlock(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"deleted": true})
}

// Export streams every flock as CSV.
func (h *FlockHandler) Export(c *gin.Context) {
	flocks, err := h.store.AllFlocks(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	payload, err := export.Flocks(flocks)
	if err != nil {
		respondError(c, h.logger, apperror.Internal("failed building export", err))
		return
	}
	respondCSV(c, "flocks.csv", payload)
}
