// Package notifier inspects vaccination and feed state and writes
// role-targeted notification records. It is invoked by the cron trigger and
// by the signup path; every write is idempotent per (type, subject, day).
package notifier

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/coopkeeper/internal/domain/models"
)

const dateLayout = "2006-01-02"

// LowFeedThreshold mirrors the dashboard alert constant: batches under this
// quantity trigger a restock notification.
const LowFeedThreshold = 10.0

// Store is the persistence surface the trigger needs.
type Store interface {
	VaccinationsDueBetween(ctx context.Context, from, to time.Time) ([]models.Vaccination, error)
	LowFeeds(ctx context.Context, threshold float64) ([]models.Feed, error)
	UpsertNotification(ctx context.Context, notification models.Notification) (bool, error)
}

// AlertSender pushes an alert line to an external channel. Implementations
// must be safe to skip: delivery failure never fails the trigger.
type AlertSender interface {
	SendAlert(ctx context.Context, text string) error
}

// Service implements the notification trigger.
type Service struct {
	store  Store
	alerts AlertSender
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires the notification trigger. alerts may be nil when no
// webhook is configured.
func NewService(store Store, alerts AlertSender, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		alerts: alerts,
		logger: logger,
		now:    time.Now,
	}
}

// RunDailyChecks performs the scheduled sweep: vaccinations due today,
// vaccinations due tomorrow, and low feed batches. Each finding becomes at
// most one notification per day regardless of how often the trigger fires.
func (s *Service) RunDailyChecks(ctx context.Context) error {
	today := models.DayOf(s.now())
	endOfToday := today.Add(24*time.Hour - time.Nanosecond)
	tomorrow := today.Add(24 * time.Hour)
	endOfTomorrow := tomorrow.Add(24*time.Hour - time.Nanosecond)

	dueToday, err := s.store.VaccinationsDueBetween(ctx, today, endOfToday)
	if err != nil {
		return err
	}
	for _, vac := range dueToday {
		s.emit(ctx, models.Notification{
			Title: "Vaccination Due Today",
			Message: fmt.Sprintf("Vaccination for flock ID %s is due today (%s)",
				vac.FlockID.Hex(), vac.AdministrationDate.Format(dateLayout)),
			Type:      models.NotificationVaccination,
			UserRole:  models.RoleUser,
			DedupeKey: dedupeKey(models.NotificationVaccination, vac.ID.Hex()+":today", today),
		})
	}

	dueTomorrow, err := s.store.VaccinationsDueBetween(ctx, tomorrow, endOfTomorrow)
	if err != nil {
		return err
	}
	for _, vac := range dueTomorrow {
		s.emit(ctx, models.Notification{
			Title: "Vaccination Due Tomorrow",
			Message: fmt.Sprintf("Vaccination for flock ID %s is due tomorrow (%s)",
				vac.FlockID.Hex(), vac.AdministrationDate.Format(dateLayout)),
			Type:      models.NotificationVaccination,
			UserRole:  models.RoleUser,
			DedupeKey: dedupeKey(models.NotificationVaccination, vac.ID.Hex()+":tomorrow", today),
		})
	}

	lowFeeds, err := s.store.LowFeeds(ctx, LowFeedThreshold)
	if err != nil {
		return err
	}
	for _, feed := range lowFeeds {
		s.emit(ctx, models.Notification{
			Title: "Low Feed Alert",
			Message: fmt.Sprintf("Feed %s is low (%.1f kg remaining). Please restock.",
				feed.Name, feed.Quantity),
			Type:      models.NotificationFeed,
			UserRole:  models.RoleUser,
			DedupeKey: dedupeKey(models.NotificationFeed, feed.ID.Hex(), today),
		})
	}

	s.logger.Info("daily notification sweep finished",
		zap.Int("due_today", len(dueToday)),
		zap.Int("due_tomorrow", len(dueTomorrow)),
		zap.Int("low_feed", len(lowFeeds)))
	return nil
}

// NotifySignup records an admin-facing notification for a new account.
func (s *Service) NotifySignup(ctx context.Context, username string, when time.Time) {
	s.emit(ctx, models.Notification{
		Title:     "New User Signup",
		Message:   fmt.Sprintf("User %s registered on %s", username, when.Format(dateLayout)),
		Type:      models.NotificationSignup,
		UserRole:  models.RoleAdmin,
		DedupeKey: dedupeKey(models.NotificationSignup, username, models.DayOf(when)),
	})
}

// emit stores the notification and, when it is new, forwards it to the
// alert channel. Failures are logged and swallowed: reminders must never
// break the calling operation.
func (s *Service) emit(ctx context.Context, notification models.Notification) {
	created, err := s.store.UpsertNotification(ctx, notification)
	if err != nil {
		s.logger.Error("failed to store notification",
			zap.String("type", string(notification.Type)), zap.Error(err))
		return
	}
	if !created {
		return
	}

	if s.alerts != nil {
		if err := s.alerts.SendAlert(ctx, notification.Message); err != nil {
			s.logger.Warn("alert webhook delivery failed", zap.Error(err))
		}
	}
}

func dedupeKey(kind models.NotificationType, subject string, day time.Time) string {
	return fmt.Sprintf("%s:%s:%s", kind, subject, day.Format(dateLayout))
}
