package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/coopkeeper/internal/domain/apperror"
	"github.com/mamadbah2/coopkeeper/internal/domain/models"
	"github.com/mamadbah2/coopkeeper/internal/service/export"
	"github.com/mamadbah2/coopkeeper/internal/service/inventory"
	"github.com/mamadbah2/coopkeeper/pkg/pagination"
)

// ProductionLister lists production records for the read endpoints. Writes
// go through the inventory service so they stay reconciled.
type ProductionLister interface {
	ListProduction(ctx context.Context, params pagination.Params) ([]models.EggProduction, int64, error)
	AllProduction(ctx context.Context) ([]models.EggProduction, error)
}

// ProductionHandler exposes the daily egg production endpoints.
type ProductionHandler struct {
	svc    *inventory.Service
	store  ProductionLister
	logger *zap.Logger
}

// NewProductionHandler constructs the production HTTP adapter.
func NewProductionHandler(svc *inventory.Service, store ProductionLister, logger *zap.Logger) *ProductionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductionHandler{svc: svc, store: store, logger: logger}
}

type productionRequest struct {
	Date      string `json:"date" binding:"required"`
	TotalEggs int    `json:"totalEggs"`
	Notes     string `json:"notes"`
}

// Record adds or overwrites the production entry for a day and adjusts the
// inventory snapshot accordingly.
func (h *ProductionHandler) Record(c *gin.Context) {
	var req productionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperror.Validation("date is required", nil))
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		respondError(c, h.logger, apperror.Validation("invalid production record", map[string]string{
			"date": "expected format " + dateLayout,
		}))
		return
	}

	result, err := h.svc.RecordProduction(c.Request.Context(), date, req.TotalEggs, req.Notes)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	status := http.StatusCreated
	if result.Updated {
		status = http.StatusOK
	}
	respondData(c, status, result.Record)
}

// List returns production records newest first, paginated.
func (h *ProductionHandler) List(c *gin.Context) {
	params := pageParams(c)

	records, total, err := h.store.ListProduction(c.Request.Context(), params)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondPage(c, records, pagination.NewMetadata(params, total, c.Request.URL.Path))
}

// Export streams every production record as CSV.
func (h *ProductionHandler) Export(c *gin.Context) {
	records, err := h.store.AllProduction(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	payload, err := export.Production(records)
	if err != nil {
		respondError(c, h.logger, apperror.Internal("failed building export", err))
		return
	}

	respondCSV(c, "egg-production.csv", payload)
}

// Delete removes a production record by id.
func (h *ProductionHandler) Delete(c *gin.Context) {
	record, err := h.svc.DeleteProduction(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusOK, record)
}
