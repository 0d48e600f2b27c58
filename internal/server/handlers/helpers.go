// Package handlers adapts the domain services to the Gin HTTP surface.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/coopkeeper/internal/domain/apperror"
	"github.com/mamadbah2/coopkeeper/pkg/pagination"
)

const dateLayout = "2006-01-02"

// respondError translates an application error into the JSON error envelope.
// Internal detail is logged, never sent to the caller.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	kind := apperror.KindOf(err)
	status := apperror.HTTPStatus(kind)

	message := "internal server error"
	var appErr *apperror.Error
	if kind != apperror.KindInternal && errors.As(err, &appErr) {
		message = appErr.Message
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	} else {
		logger.Warn("request rejected", zap.String("path", c.FullPath()), zap.Error(err))
	}

	body := gin.H{"success": false, "error": message}
	if fields := apperror.FieldsOf(err); len(fields) > 0 {
		body["fields"] = fields
	}
	c.JSON(status, body)
}

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondPage(c *gin.Context, data interface{}, meta pagination.Metadata) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data, "pagination": meta})
}

func respondCSV(c *gin.Context, filename string, payload []byte) {
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", payload)
}

// pageParams reads ?page= and ?limit=, clamping out-of-range values.
func pageParams(c *gin.Context) pagination.Params {
	return pagination.ValidateParams(c.Query("page"), c.Query("limit"))
}

// dateQuery parses an optional YYYY-MM-DD query parameter.
func dateQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, apperror.Validation("invalid date parameter", map[string]string{
			name: "expected format " + dateLayout,
		})
	}
	return &parsed, nil
}
