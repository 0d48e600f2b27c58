package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/coopkeeper/internal/domain/apperror"
	"github.com/mamadbah2/coopkeeper/internal/domain/models"
	"github.com/mamadbah2/coopkeeper/internal/server/middleware"
)

// NotificationStore reads and acknowledges stored notifications.
type NotificationStore interface {
	UnreadNotificationsForRole(ctx context.Context, role models.Role) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
}

// NotificationHandler exposes the notification inbox endpoints.
type NotificationHandler struct {
	store  NotificationStore
	logger *zap.Logger
}

// NewNotificationHandler constructs the notification HTTP adapter.
func NewNotificationHandler(store NotificationStore, logger *zap.Logger) *NotificationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationHandler{store: store, logger: logger}
}

// List returns the caller's unread notifications, newest first.
func (h *NotificationHandler) List(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, h.logger, apperror.Unauthorized("authentication required"))
		return
	}

	notifications, err := h.store.UnreadNotificationsForRole(c.Request.Context(), user.Role)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusOK, notifications)
}

// MarkRead acknowledges one notification by id.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.store.MarkNotificationRead(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"read": true})
}
