package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/coopkeeper/internal/domain/apperror"
	"github.com/mamadbah2/coopkeeper/internal/service/inventory"
)

// InventoryHandler exposes the egg inventory snapshot endpoints.
type InventoryHandler struct {
	svc    *inventory.Service
	logger *zap.Logger
}

// NewInventoryHandler constructs the inventory HTTP adapter.
func NewInventoryHandler(svc *inventory.Service, logger *zap.Logger) *InventoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryHandler{svc: svc, logger: logger}
}

// Current returns the live inventory snapshot.
func (h *InventoryHandler) Current(c *gin.Context) {
	snapshot, err := h.svc.CurrentInventory(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusOK, snapshot)
}

// History returns snapshots within the optional startDate/endDate bounds.
func (h *InventoryHandler) History(c *gin.Context) {
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

	snapshots, err := h.svc.History(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusOK, snapshots)
}

type saleRequest struct {
	BuyerName    string `json:"buyerName"`
	BuyerContact string `json:"buyerContact"`
	Quantity     int    `json:"quantity"`
	SaleDate     string `json:"saleDate"`
}

// RecordSale appends a sale to the current snapshot. Overselling is
// rejected without changing the stock.
func (h *InventoryHandler) RecordSale(c *gin.Context) {
	var req saleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperror.Validation("invalid request body", nil))
		return
	}

	var saleDate *time.Time
	if req.SaleDate != "" {
		parsed, err := time.Parse(dateLayout, req.SaleDate)
		if err != nil {
			respondError(c, h.logger, apperror.Validation("invalid sale", map[string]string{
				"saleDate": "expected format " + dateLayout,
			}))
			return
		}
		saleDate = &parsed
	}

	snapshot, err := h.svc.RecordSale(c.Request.Context(), req.BuyerName, req.BuyerContact, req.Quantity, saleDate)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusOK, snapshot)
}
