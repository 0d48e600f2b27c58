package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/coopkeeper/internal/domain/apperror"
	"github.com/mamadbah2/coopkeeper/internal/domain/models"
	"github.com/mamadbah2/coopkeeper/internal/service/inventory"
	"github.com/mamadbah2/coopkeeper/pkg/pagination"
)

type fakeProductionStore struct {
	records map[string]*models.EggProduction
}

func newFakeProductionStore() *fakeProductionStore {
	return &fakeProductionStore{records: map[string]*models.EggProduction{}}
}

func dayKey(date time.Time) string {
	return models.DayOf(date).Format("2006-01-02")
}

func (f *fakeProductionStore) FindProductionByDate(_ context.Context, date time.Time) (*models.EggProduction, error) {
	record, ok := f.records[dayKey(date)]
	if !ok {
		return nil, apperror.NotFound("no production record for date")
	}
	return record, nil
}

func (f *fakeProductionStore) InsertProduction(_ context.Context, record *models.EggProduction) error {
	record.ID = primitive.NewObjectID()
	f.records[dayKey(record.Date)] = record
	return nil
}

func (f *fakeProductionStore) UpdateProductionByDate(_ context.Context, date time.Time, totalEggs int, notes string) (*models.EggProduction, error) {
	record, ok := f.records[dayKey(date)]
	if !ok {
		return nil, apperror.NotFound("no production record for date")
	}
	record.TotalEggs = totalEggs
	record.Notes = notes
	return record, nil
}

func (f *fakeProductionStore) DeleteProduction(_ context.Context, id string) (*models.EggProduction, error) {
	for key, record := range f.records {
		if record.ID.Hex() == id {
			delete(f.records, key)
			return record, nil
		}
	}
	return nil, apperror.NotFound("production record not found")
}

func (f *fakeProductionStore) ListProduction(_ context.Context, params pagination.Params) ([]models.EggProduction, int64, error) {
	var out []models.EggProduction
	for _, record := range f.records {
		out = append(out, *record)
	}
	return out, int64(len(out)), nil
}

func (f *fakeProductionStore) AllProduction(_ context.Context) ([]models.EggProduction, error) {
	var out []models.EggProduction
	for _, record := range f.records {
		out = append(out, *record)
	}
	return out, nil
}

type fakeInventoryStore struct {
	snapshot *models.EggInventory
}

func (f *fakeInventoryStore) LatestInventory(_ context.Context) (*models.EggInventory, error) {
	if f.snapshot == nil {
		return nil, apperror.NotFound("no inventory snapshot")
	}
	return f.snapshot, nil
}

func (f *fakeInventoryStore) InsertInventory(_ context.Context, totalEggs int) (*models.EggInventory, error) {
	f.snapshot = &models.EggInventory{
		ID:            primitive.NewObjectID(),
		TotalEggs:     totalEggs,
		RemainingEggs: totalEggs,
	}
	return f.snapshot, nil
}

func (f *fakeInventoryStore) IncrementInventory(_ context.Context, _ primitive.ObjectID, delta int) (*models.EggInventory, error) {
	if delta < 0 && f.snapshot.RemainingEggs < -delta {
		return nil, apperror.InsufficientStock("cannot reduce production below quantity already sold")
	}
	f.snapshot.TotalEggs += delta
	f.snapshot.RemainingEggs += delta
	return f.snapshot, nil
}

func (f *fakeInventoryStore) ApplySale(_ context.Context, _ primitive.ObjectID, sale models.EggSale) (*models.EggInventory, error) {
	if f.snapshot.RemainingEggs < sale.Quantity {
		return nil, apperror.InsufficientStock("cannot sell more eggs than available in inventory")
	}
	f.snapshot.SoldEggs = append(f.snapshot.SoldEggs, sale)
	f.snapshot.RemainingEggs -= sale.Quantity
	return f.snapshot, nil
}

func (f *fakeInventoryStore) InventoryHistory(_ context.Context, _, _ *time.Time) ([]models.EggInventory, error) {
	if f.snapshot == nil {
		return nil, nil
	}
	return []models.EggInventory{*f.snapshot}, nil
}

func newProductionTestEngine() (*gin.Engine, *fakeProductionStore, *fakeInventoryStore) {
	gin.SetMode(gin.TestMode)

	productions := newFakeProductionStore()
	inventories := &fakeInventoryStore{}
	svc := inventory.NewService(productions, inventories, nil)

	handler := NewProductionHandler(svc, productions, nil)
	invHandler := NewInventoryHandler(svc, nil)

	r := gin.New()
	r.POST("/api/egg-production", handler.Record)
	r.GET("/api/egg-production", handler.List)
	r.GET("/api/egg-production/export", handler.Export)
	r.POST("/api/egg-inventory/sale", invHandler.RecordSale)
	return r, productions, inventories
}

func TestRecordProductionEndpoint(t *testing.T) {
	engine, _, inventories := newProductionTestEngine()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/egg-production",
		strings.NewReader(`{"date":"2020-05-10","totalEggs":120,"notes":"good day"}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
	assert.Equal(t, 120, inventories.snapshot.RemainingEggs)
}

func TestRecordProductionEndpointSameDayUpdates(t *testing.T) {
	engine, _, _ := newProductionTestEngine()

	body := `{"date":"2020-05-10","totalEggs":120}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/egg-production", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/egg-production",
		strings.NewReader(`{"date":"2020-05-10","totalEggs":90}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(rec, req)

	// Overwriting an existing day is an update, not a new record.
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecordProductionEndpointRejectsBadDate(t *testing.T) {
	engine, _, _ := newProductionTestEngine()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/egg-production",
		strings.NewReader(`{"date":"10/05/2020","totalEggs":120}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
	assert.Contains(t, rec.Body.String(), "date")
}

func TestRecordSaleEndpointOversell(t *testing.T) {
	engine, _, _ := newProductionTestEngine()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/egg-production",
		strings.NewReader(`{"date":"2020-05-10","totalEggs":20}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/egg-inventory/sale",
		strings.NewReader(`{"buyerName":"Aminata","quantity":21}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "cannot sell more eggs")
}

func TestListProductionEndpointEnvelope(t *testing.T) {
	engine, store, _ := newProductionTestEngine()
	store.records["2020-05-10"] = &models.EggProduction{
		ID:        primitive.NewObjectID(),
		Date:      time.Date(2020, 5, 10, 0, 0, 0, 0, time.UTC),
		TotalEggs: 120,
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/egg-production?page=1&limit=10", nil)
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"pagination"`)
	assert.Contains(t, rec.Body.String(), `"totalItems":1`)
}

func TestExportProductionEndpoint(t *testing.T) {
	engine, store, _ := newProductionTestEngine()
	store.records["2020-05-10"] = &models.EggProduction{
		ID:        primitive.NewObjectID(),
		Date:      time.Date(2020, 5, 10, 0, 0, 0, 0, time.UTC),
		TotalEggs: 120,
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/egg-production/export", nil)
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "date,totalEggs,notes")
	assert.Contains(t, rec.Body.String(), "2020-05-10,120")
}
