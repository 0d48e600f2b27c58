package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/coopkeeper/internal/domain/apperror"
	"github.com/mamadbah2/coopkeeper/internal/domain/models"
	"github.com/mamadbah2/coopkeeper/internal/service/export"
	"github.com/mamadbah2/coopkeeper/pkg/pagination"
)

// HealthStore persists per-flock vaccination and mortality records.
type HealthStore interface {
	CreateVaccination(ctx context.Context, record *models.Vaccination) error
	VaccinationsByFlock(ctx context.Context, flockID string) ([]models.Vaccination, error)
	DeleteVaccination(ctx context.Context, id string) error
	CreateMortality(ctx context.Context, record *models.Mortality) error
	MortalitiesByFlock(ctx context.Context, flockID string, params pagination.Params) ([]models.Mortality, int64, error)
	AllMortalities(ctx context.Context) ([]models.Mortality, error)
}

// HealthHandler exposes vaccination and mortality endpoints. Both record
// types reference their flock by id; the store rejects unknown flocks.
type HealthHandler struct {
	store  HealthStore
	logger *zap.Logger
	now    func() time.Time
}

// NewHealthHandler constructs the flock-health HTTP adapter.
func NewHealthHandler(store HealthStore, logger *zap.Logger) *HealthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandler{store: store, logger: logger, now: time.Now}
}

type vaccinationRequest struct {
	FlockID            string `json:"flockId" binding:"required"`
	VaccineType        string `json:"vaccineType" binding:"required"`
	AdministrationDate string `json:"administrationDate" binding:"required"`
	Notes              string `json:"notes"`
}

// CreateVaccination records a vaccine given or scheduled for a flock.
// Future dates are allowed so treatments can be planned ahead.
func (h *HealthHandler) CreateVaccination(c *gin.Context) {
	var req vaccinationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperror.Validation("flockId, vaccineType, and administrationDate are required", nil))
		return
	}

	flockID, err := primitive.ObjectIDFromHex(req.FlockID)
	if err != nil {
		respondError(c, h.logger, apperror.Validation("invalid vaccination", map[string]string{
			"flockId": "must be a valid object id",
		}))
		return
	}

	date, err := time.Parse(dateLayout, req.AdministrationDate)
	if err != nil {
		respondError(c, h.logger, apperror.Validation("invalid vaccination", map[string]string{
			"administrationDate": "expected format " + dateLayout,
		}))
		return
	}

	record := &models.Vaccination{
		FlockID:            flockID,
		VaccineType:        req.VaccineType,
		AdministrationDate: date,
		Notes:              req.Notes,
	}
	if err := h.store.CreateVaccination(c.Request.Context(), record); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusCreated, record)
}

// VaccinationsByFlock lists a flock's vaccination history.
func (h *HealthHandler) VaccinationsByFlock(c *gin.Context) {
	records, err := h.store.VaccinationsByFlock(c.Request.Context(), c.Param("flockId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusOK, records)
}

// DeleteVaccination removes a vaccination record by id.
func (h *HealthHandler) DeleteVaccination(c *gin.Context) {
	if err := h.store.DeleteVaccination(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"deleted": true})
}

type mortalityRequest struct {
	FlockID        string `json:"flockId" binding:"required"`
	Date           string `json:"date" binding:"required"`
	NumberOfDeaths int    `json:"numberOfDeaths"`
	Cause          string `json:"cause"`
}

// CreateMortality records bird deaths in a flock. The date may not be in
// the future and the count must be at least one.
func (h *HealthHandler) CreateMortality(c *gin.Context) {
	var req mortalityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperror.Validation("flockId and date are required", nil))
		return
	}

	flockID, err := primitive.ObjectIDFromHex(req.FlockID)
	if err != nil {
		respondError(c, h.logger, apperror.Validation("invalid mortality record", map[string]string{
			"flockId": "must be a valid object id",
		}))
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		respondError(c, h.logger, apperror.Validation("invalid mortality record", map[string]string{
			"date": "expected format " + dateLayout,
		}))
		return
	}

	fields := map[string]string{}
	if date.After(h.now()) {
		fields["date"] = "mortality date cannot be in the future"
	}
	if req.NumberOfDeaths < 1 {
		fields["numberOfDeaths"] = "must be at least 1"
	}
	if len(fields) > 0 {
		respondError(c, h.logger, apperror.Validation("invalid mortality record", fields))
		return
	}

	record := &models.Mortality{
		FlockID:        flockID,
		Date:           date,
		NumberOfDeaths: req.NumberOfDeaths,
		Cause:          req.Cause,
	}
	if err := h.store.CreateMortality(c.Request.Context(), record); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusCreated, record)
}

// MortalitiesByFlock lists a flock's mortality records, paginated.
func (h *HealthHandler) MortalitiesByFlock(c *gin.Context) {
	params := pageParams(c)

	records, total, err := h.store.MortalitiesByFlock(c.Request.Context(), c.Param("flockId"), params)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondPage(c, records, pagination.NewMetadata(params, total, c.Request.URL.Path))
}

// ExportMortalities streams every mortality record as CSV.
func (h *HealthHandler) ExportMortalities(c *gin.Context) {
	records, err := h.store.AllMortalities(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	payload, err := export.Mortalities(records)
	if err != nil {
		respondError(c, h.logger, apperror.Internal("failed building export", err))
		return
	}
	respondCSV(c, "mortality.csv", payload)
}
