package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/coopkeeper/internal/service/reporting"
)

// DashboardHandler exposes the admin and user dashboard rollups.
type DashboardHandler struct {
	svc    *reporting.Service
	logger *zap.Logger
}

// NewDashboardHandler constructs the dashboard HTTP adapter.
func NewDashboardHandler(svc *reporting.Service, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{svc: svc, logger: logger}
}

// Admin returns the admin summary rollup.
func (h *DashboardHandler) Admin(c *gin.Context) {
	summary, err := h.svc.ComputeAdminSummary(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusOK, summary)
}

// User returns the composite user dashboard rollup.
func (h *DashboardHandler) User(c *gin.Context) {
	dashboard, err := h.svc.ComputeUserDashboard(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusOK, dashboard)
}
