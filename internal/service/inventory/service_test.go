package inventory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/coopkeeper/internal/domain/apperror"
	"github.com/mamadbah2/coopkeeper/internal/domain/models"
)

type fakeProductionStore struct {
	records   map[string]*models.EggProduction // keyed by day
	deleteErr error
	updateErr error
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
	copied := *record
	return &copied, nil
}

func (f *fakeProductionStore) InsertProduction(_ context.Context, record *models.EggProduction) error {
	if _, ok := f.records[dayKey(record.Date)]; ok {
		return apperror.Conflict("production record already exists for date")
	}
	record.ID = primitive.NewObjectID()
	copied := *record
	f.records[dayKey(record.Date)] = &copied
	return nil
}

func (f *fakeProductionStore) UpdateProductionByDate(_ context.Context, date time.Time, totalEggs int, notes string) (*models.EggProduction, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	record, ok := f.records[dayKey(date)]
	if !ok {
		return nil, apperror.NotFound("no production record for date")
	}
	record.TotalEggs = totalEggs
	record.Notes = notes
	copied := *record
	return &copied, nil
}

func (f *fakeProductionStore) DeleteProduction(_ context.Context, id string) (*models.EggProduction, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	for key, record := range f.records {
		if record.ID.Hex() == id {
			delete(f.records, key)
			copied := *record
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("production record not found")
}

type fakeInventoryStore struct {
	snapshots    []*models.EggInventory
	incrementErr error
}

func (f *fakeInventoryStore) LatestInventory(_ context.Context) (*models.EggInventory, error) {
	if len(f.snapshots) == 0 {
		return nil, apperror.NotFound("no inventory snapshot")
	}
	copied := *f.snapshots[len(f.snapshots)-1]
	return &copied, nil
}

func (f *fakeInventoryStore) InsertInventory(_ context.Context, totalEggs int) (*models.EggInventory, error) {
	snapshot := &models.EggInventory{
		ID:            primitive.NewObjectID(),
		TotalEggs:     totalEggs,
		RemainingEggs: totalEggs,
	}
	f.snapshots = append(f.snapshots, snapshot)
	copied := *snapshot
	return &copied, nil
}

func (f *fakeInventoryStore) IncrementInventory(_ context.Context, id primitive.ObjectID, delta int) (*models.EggInventory, error) {
	if f.incrementErr != nil {
		return nil, f.incrementErr
	}
	for _, snapshot := range f.snapshots {
		if snapshot.ID != id {
			continue
		}
		if delta < 0 && snapshot.RemainingEggs < -delta {
			return nil, apperror.InsufficientStock("cannot reduce production below quantity already sold")
		}
		snapshot.TotalEggs += delta
		snapshot.RemainingEggs += delta
		copied := *snapshot
		return &copied, nil
	}
	return nil, apperror.NotFound("inventory snapshot not found")
}

func (f *fakeInventoryStore) ApplySale(_ context.Context, id primitive.ObjectID, sale models.EggSale) (*models.EggInventory, error) {
	for _, snapshot := range f.snapshots {
		if snapshot.ID != id {
			continue
		}
		if snapshot.RemainingEggs < sale.Quantity {
			return nil, apperror.InsufficientStock("cannot sell more eggs than available in inventory")
		}
		snapshot.SoldEggs = append(snapshot.SoldEggs, sale)
		snapshot.RemainingEggs -= sale.Quantity
		copied := *snapshot
		return &copied, nil
	}
	return nil, apperror.NotFound("inventory snapshot not found")
}

func (f *fakeInventoryStore) InventoryHistory(_ context.Context, _, _ *time.Time) ([]models.EggInventory, error) {
	out := make([]models.EggInventory, 0, len(f.snapshots))
	for _, snapshot := range f.snapshots {
		out = append(out, *snapshot)
	}
	return out, nil
}

func (f *fakeInventoryStore) latest(t *testing.T) *models.EggInventory {
	t.Helper()
	require.NotEmpty(t, f.snapshots)
	return f.snapshots[len(f.snapshots)-1]
}

var testNow = time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

func newTestService(productions *fakeProductionStore, inventories *fakeInventoryStore) *Service {
	svc := NewService(productions, inventories, nil)
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestRecordProductionSeedsSnapshot(t *testing.T) {
	productions := newFakeProductionStore()
	inventories := &fakeInventoryStore{}
	svc := newTestService(productions, inventories)

	result, err := svc.RecordProduction(context.Background(), testNow, 120, "first collection")
	require.NoError(t, err)
	assert.False(t, result.Updated)
	assert.Equal(t, 120, result.Record.TotalEggs)

	snapshot := inventories.latest(t)
	assert.Equal(t, 120, snapshot.TotalEggs)
	assert.Equal(t, 120, snapshot.RemainingEggs)
}

func TestRecordProductionAddsToExistingSnapshot(t *testing.T) {
	productions := newFakeProductionStore()
	inventories := &fakeInventoryStore{}
	svc := newTestService(productions, inventories)

	_, err := svc.RecordProduction(context.Background(), testNow.AddDate(0, 0, -1), 100, "")
	require.NoError(t, err)

	_, err = svc.RecordProduction(context.Background(), testNow, 50, "")
	require.NoError(t, err)

	snapshot := inventories.latest(t)
	assert.Equal(t, 150, snapshot.TotalEggs)
	assert.Equal(t, 150, snapshot.RemainingEggs)
	assert.Len(t, inventories.snapshots, 1)
}

func TestRecordProductionSameDayAppliesDelta(t *testing.T) {
	productions := newFakeProductionStore()
	inventories := &fakeInventoryStore{}
	svc := newTestService(productions, inventories)

	_, err := svc.RecordProduction(context.Background(), testNow, 100, "")
	require.NoError(t, err)

	result, err := svc.RecordProduction(context.Background(), testNow, 80, "corrected count")
	require.NoError(t, err)
	assert.True(t, result.Updated)
	assert.Equal(t, 80, result.Record.TotalEggs)
	assert.Equal(t, "corrected count", result.Record.Notes)

	snapshot := inventories.latest(t)
	assert.Equal(t, 80, snapshot.TotalEggs)
	assert.Equal(t, 80, snapshot.RemainingEggs)
}

func TestRecordProductionRejectsReductionBelowSold(t *testing.T) {
	productions := newFakeProductionStore()
	inventories := &fakeInventoryStore{}
	svc := newTestService(productions, inventories)

	_, err := svc.RecordProduction(context.Background(), testNow, 100, "")
	require.NoError(t, err)

	_, err = svc.RecordSale(context.Background(), "Aminata", "", 60, nil)
	require.NoError(t, err)

	// Only 40 remain; dropping the day total to 30 would need to remove 70.
	_, err = svc.RecordProduction(context.Background(), testNow, 30, "")
	require.Error(t, err)
	assert.Equal(t, apperror.KindInsufficientStock, apperror.KindOf(err))

	record, err := productions.FindProductionByDate(context.Background(), testNow)
	require.NoError(t, err)
	assert.Equal(t, 100, record.TotalEggs)

	snapshot := inventories.latest(t)
	assert.Equal(t, 100, snapshot.TotalEggs)
	assert.Equal(t, 40, snapshot.RemainingEggs)
}

func TestRecordProductionValidation(t *testing.T) {
	svc := newTestService(newFakeProductionStore(), &fakeInventoryStore{})

	tests := []struct {
		name      string
		date      time.Time
		totalEggs int
		notes     string
		field     string
	}{
		{name: "future date", date: testNow.AddDate(0, 0, 1), totalEggs: 10, field: "date"},
		{name: "negative eggs", date: testNow, totalEggs: -1, field: "totalEggs"},
		{name: "oversized notes", date: testNow, totalEggs: 10, notes: strings.Repeat("x", 501), field: "notes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RecordProduction(context.Background(), tt.date, tt.totalEggs, tt.notes)
			require.Error(t, err)
			assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
			assert.Contains(t, apperror.FieldsOf(err), tt.field)
		})
	}
}

func TestRecordProductionRollsBackOnSnapshotFailure(t *testing.T) {
	productions := newFakeProductionStore()
	inventories := &fakeInventoryStore{}
	svc := newTestService(productions, inventories)

	_, err := svc.RecordProduction(context.Background(), testNow.AddDate(0, 0, -1), 100, "")
	require.NoError(t, err)

	inventories.incrementErr = errors.New("write concern failed")

	_, err = svc.RecordProduction(context.Background(), testNow, 50, "")
	require.Error(t, err)
	assert.NotEqual(t, apperror.KindPartialFailure, apperror.KindOf(err))

	// The compensating delete removed the new day's record.
	_, err = productions.FindProductionByDate(context.Background(), testNow)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestRecordProductionPartialFailureWhenRollbackFails(t *testing.T) {
	productions := newFakeProductionStore()
	inventories := &fakeInventoryStore{}
	svc := newTestService(productions, inventories)

	_, err := svc.RecordProduction(context.Background(), testNow.AddDate(0, 0, -1), 100, "")
	require.NoError(t, err)

	inventories.incrementErr = errors.New("write concern failed")
	productions.deleteErr = errors.New("connection lost")

	_, err = svc.RecordProduction(context.Background(), testNow, 50, "")
	require.Error(t, err)
	assert.Equal(t, apperror.KindPartialFailure, apperror.KindOf(err))
}

func TestRecordProductionCompensatesWhenUpdateFails(t *testing.T) {
	productions := newFakeProductionStore()
	inventories := &fakeInventoryStore{}
	svc := newTestService(productions, inventories)

	_, err := svc.RecordProduction(context.Background(), testNow, 100, "")
	require.NoError(t, err)

	productions.updateErr = errors.New("connection lost")

	_, err = svc.RecordProduction(context.Background(), testNow, 150, "")
	require.Error(t, err)

	// The snapshot delta was rolled back.
	snapshot := inventories.latest(t)
	assert.Equal(t, 100, snapshot.TotalEggs)
	assert.Equal(t, 100, snapshot.RemainingEggs)
}

func TestRecordSale(t *testing.T) {
	productions := newFakeProductionStore()
	inventories := &fakeInventoryStore{}
	svc := newTestService(productions, inventories)

	_, err := svc.RecordProduction(context.Background(), testNow, 100, "")
	require.NoError(t, err)

	snapshot, err := svc.RecordSale(context.Background(), "Aminata", "777-1234", 30, nil)
	require.NoError(t, err)
	assert.Equal(t, 70, snapshot.RemainingEggs)
	require.Len(t, snapshot.SoldEggs, 1)
	assert.Equal(t, "Aminata", snapshot.SoldEggs[0].Buyer.Name)
	assert.Equal(t, 30, snapshot.SoldEggs[0].Quantity)
}

func TestRecordSaleOversellLeavesStockUnchanged(t *testing.T) {
	productions := newFakeProductionStore()
	inventories := &fakeInventoryStore{}
	svc := newTestService(productions, inventories)

	_, err := svc.RecordProduction(context.Background(), testNow, 20, "")
	require.NoError(t, err)

	_, err = svc.RecordSale(context.Background(), "Aminata", "", 21, nil)
	require.Error(t, err)
	assert.Equal(t, apperror.KindInsufficientStock, apperror.KindOf(err))

	snapshot := inventories.latest(t)
	assert.Equal(t, 20, snapshot.RemainingEggs)
	assert.Empty(t, snapshot.SoldEggs)
}

func TestRecordSaleValidation(t *testing.T) {
	svc := newTestService(newFakeProductionStore(), &fakeInventoryStore{})

	_, err := svc.RecordSale(context.Background(), "", "", 0, nil)
	require.Error(t, err)
	fields := apperror.FieldsOf(err)
	assert.Contains(t, fields, "buyer.name")
	assert.Contains(t, fields, "quantity")

	future := testNow.AddDate(0, 0, 2)
	_, err = svc.RecordSale(context.Background(), "Aminata", "", 5, &future)
	require.Error(t, err)
	assert.Contains(t, apperror.FieldsOf(err), "saleDate")
}

func TestHistoryRejectsInvertedRange(t *testing.T) {
	svc := newTestService(newFakeProductionStore(), &fakeInventoryStore{})

	from := testNow
	to := testNow.AddDate(0, 0, -3)
	_, err := svc.History(context.Background(), &from, &to)
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}
