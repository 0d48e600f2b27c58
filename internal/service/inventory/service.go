// Package inventory keeps the egg inventory snapshot consistent with
// production inputs and sale outputs.
package inventory

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/coopkeeper/internal/domain/apperror"
	"github.com/mamadbah2/coopkeeper/internal/domain/models"
)

// ProductionStore is the production-record persistence the engine needs.
type ProductionStore interface {
	FindProductionByDate(ctx context.Context, date time.Time) (*models.EggProduction, error)
	InsertProduction(ctx context.Context, record *models.EggProduction) error
	UpdateProductionByDate(ctx context.Context, date time.Time, totalEggs int, notes string) (*models.EggProduction, error)
	DeleteProduction(ctx context.Context, id string) (*models.EggProduction, error)
}

// InventoryStore is the snapshot persistence the engine needs. Conditional
// mutations (ApplySale, negative IncrementInventory) must be atomic
// check-and-write operations in the implementation.
type InventoryStore interface {
	LatestInventory(ctx context.Context) (*models.EggInventory, error)
	InsertInventory(ctx context.Context, totalEggs int) (*models.EggInventory, error)
	IncrementInventory(ctx context.Context, id primitive.ObjectID, delta int) (*models.EggInventory, error)
	ApplySale(ctx context.Context, id primitive.ObjectID, sale models.EggSale) (*models.EggInventory, error)
	InventoryHistory(ctx context.Context, from, to *time.Time) ([]models.EggInventory, error)
}

// Service is the reconciliation engine.
type Service struct {
	productions ProductionStore
	inventories InventoryStore
	logger      *zap.Logger
	now         func() time.Time
}

// NewService wires the reconciliation engine.
func NewService(productions ProductionStore, inventories InventoryStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		productions: productions,
		inventories: inventories,
		logger:      logger,
		now:         time.Now,
	}
}

// ProductionResult reports what RecordProduction did.
type ProductionResult struct {
	Record  *models.EggProduction
	Updated bool // true when an existing day was overwritten
}

func (s *Service) validateProduction(date time.Time, totalEggs int, notes string) error {
	fields := map[string]string{}
	if models.DayOf(date).After(models.DayOf(s.now())) {
		fields["date"] = "production date cannot be in the future"
	}
	if totalEggs < 0 {
		fields["totalEggs"] = "total eggs cannot be negative"
	}
	if len(notes) > models.MaxProductionNotesLength {
		fields["notes"] = "notes cannot exceed 500 characters"
	}
	if len(fields) > 0 {
		return apperror.Validation("invalid production record", fields)
	}
	return nil
}

// RecordProduction adds or updates the production record for a calendar day
// and reconciles the inventory snapshot with it.
//
// Insert path: create the record, then add its total to the latest snapshot
// (seeding one if none exists). A snapshot failure triggers a compensating
// delete of the record; if the compensation also fails the caller gets a
// PartialFailure with the stored inconsistency logged.
//
// Update path: the snapshot absorbs the difference between the new and old
// totals before the record is overwritten. A reduction below the quantity
// already sold is rejected with InsufficientStock and nothing changes.
func (s *Service) RecordProduction(ctx context.Context, date time.Time, totalEggs int, notes string) (*ProductionResult, error) {
	if err := s.validateProduction(date, totalEggs, notes); err != nil {
		return nil, err
	}

	day := models.DayOf(date)

	existing, err := s.productions.FindProductionByDate(ctx, day)
	switch {
	case err == nil:
		return s.updateProduction(ctx, existing, day, totalEggs, notes)
	case apperror.KindOf(err) == apperror.KindNotFound:
		return s.insertProduction(ctx, day, totalEggs, notes)
	default:
		return nil, err
	}
}

func (s *Service) insertProduction(ctx context.Context, day time.Time, totalEggs int, notes string) (*ProductionResult, error) {
	record := &models.EggProduction{Date: day, TotalEggs: totalEggs, Notes: notes}
	if err := s.productions.InsertProduction(ctx, record); err != nil {
		return nil, err
	}

	if err := s.addToSnapshot(ctx, totalEggs); err != nil {
		// Roll the production insert back so the two writes stay one
		// logical operation.
		if _, delErr := s.productions.DeleteProduction(ctx, record.ID.Hex()); delErr != nil {
			s.logger.Error("production saved but inventory update and rollback both failed",
				zap.String("production_id", record.ID.Hex()),
				zap.NamedError("inventory_error", err),
				zap.NamedError("rollback_error", delErr))
			return nil, apperror.PartialFailure("production recorded but inventory is out of sync", err)
		}
		return nil, err
	}

	return &ProductionResult{Record: record, Updated: false}, nil
}

func (s *Service) updateProduction(ctx context.Context, existing *models.EggProduction, day time.Time, totalEggs int, notes string) (*ProductionResult, error) {
	delta := totalEggs - existing.TotalEggs

	// Adjust the snapshot first: if the compensating delta cannot apply
	// (reduction below sold quantity) the record stays untouched.
	if delta != 0 {
		if err := s.addToSnapshot(ctx, delta); err != nil {
			return nil, err
		}
	}

	record, err := s.productions.UpdateProductionByDate(ctx, day, totalEggs, notes)
	if err != nil {
		if delta != 0 {
			if compErr := s.addToSnapshot(ctx, -delta); compErr != nil {
				s.logger.Error("inventory adjusted but production update and compensation both failed",
					zap.Time("date", day),
					zap.NamedError("production_error", err),
					zap.NamedError("compensation_error", compErr))
				return nil, apperror.PartialFailure("inventory adjusted but production record is out of sync", err)
			}
		}
		return nil, err
	}

	return &ProductionResult{Record: record, Updated: true}, nil
}

// addToSnapshot applies a signed delta to the latest snapshot, seeding a
// fresh one when none exists and the delta is positive.
func (s *Service) addToSnapshot(ctx context.Context, delta int) error {
	latest, err := s.inventories.LatestInventory(ctx)
	if err != nil {
		if apperror.KindOf(err) == apperror.KindNotFound && delta > 0 {
			_, err = s.inventories.InsertInventory(ctx, delta)
			return err
		}
		return err
	}

	_, err = s.inventories.IncrementInventory(ctx, latest.ID, delta)
	return err
}

// RecordSale appends a sale to the current snapshot and decrements the
// remaining stock. The check-then-decrement happens as one conditional
// store update, so overselling is impossible even under concurrent sales.
func (s *Service) RecordSale(ctx context.Context, buyerName, buyerContact string, quantity int, saleDate *time.Time) (*models.EggInventory, error) {
	fields := map[string]string{}
	if buyerName == "" {
		fields["buyer.name"] = "buyer name is required"
	}
	if quantity < 1 {
		fields["quantity"] = "quantity must be at least 1"
	}

	when := s.now()
	if saleDate != nil {
		if saleDate.After(s.now()) {
			fields["saleDate"] = "sale date cannot be in the future"
		}
		when = *saleDate
	}
	if len(fields) > 0 {
		return nil, apperror.Validation("invalid sale", fields)
	}

	latest, err := s.inventories.LatestInventory(ctx)
	if err != nil {
		return nil, err
	}

	sale := models.EggSale{
		Buyer:    models.Buyer{Name: buyerName, Contact: buyerContact},
		Quantity: quantity,
		SaleDate: when,
	}

	snapshot, err := s.inventories.ApplySale(ctx, latest.ID, sale)
	if err != nil {
		return nil, err
	}

	s.logger.Info("egg sale recorded",
		zap.String("buyer", buyerName),
		zap.Int("quantity", quantity),
		zap.Int("remaining", snapshot.RemainingEggs))
	return snapshot, nil
}

// CurrentInventory returns the live snapshot.
func (s *Service) CurrentInventory(ctx context.Context) (*models.EggInventory, error) {
	return s.inventories.LatestInventory(ctx)
}

// History returns snapshots filtered by creation-date bounds.
func (s *Service) History(ctx context.Context, from, to *time.Time) ([]models.EggInventory, error) {
	if from != nil && to != nil && from.After(*to) {
		return nil, apperror.Validation("invalid date range", map[string]string{
			"startDate": fmt.Sprintf("start date %s is after end date %s", from.Format("2006-01-02"), to.Format("2006-01-02")),
		})
	}
	return s.inventories.InventoryHistory(ctx, from, to)
}

// DeleteProduction removes a production record by id without touching the
// snapshot; past collections stay reconciled through their sale history.
func (s *Service) DeleteProduction(ctx context.Context, id string) (*models.EggProduction, error) {
	record, err := s.productions.DeleteProduction(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("production record deleted", zap.String("id", id), zap.Time("date", record.Date))
	return record, nil
}
