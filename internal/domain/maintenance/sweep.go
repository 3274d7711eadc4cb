package maintenance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medops/medops/internal/domain/equipment"
	"github.com/medops/medops/internal/platform/notification"
)

// Sweep finds tasks whose scheduled date has arrived and flags their equipment
// as Under Maintenance. Registered with the cron scheduler hourly; Run is also
// callable directly.
type Sweep struct {
	repo      Repository
	equipment *equipment.Service
	notifier  notification.Notifier
	logger    zerolog.Logger
	now       func() time.Time
}

func NewSweep(repo Repository, eq *equipment.Service, notifier notification.Notifier, logger zerolog.Logger) *Sweep {
	return &Sweep{
		repo:      repo,
		equipment: eq,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Sweep) Name() string { return "due-task-sweep" }

func (s *Sweep) Run(ctx context.Context) error {
	due, err := s.repo.ListDue(ctx, s.now())
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	// One derivation per distinct equipment; the first due task per equipment
	// supplies the notification detail.
	firstDue := make(map[uuid.UUID]*ScheduledMaintenance)
	for _, m := range due {
		if _, seen := firstDue[m.EquipmentID]; !seen {
			firstDue[m.EquipmentID] = m
		}
	}

	flagged := 0
	for equipmentID, task := range firstDue {
		before, err := s.equipment.Get(ctx, equipmentID)
		if err != nil {
			s.logger.Error().Err(err).Stringer("equipment_id", equipmentID).Msg("sweep: load equipment")
			continue
		}

		after, err := s.equipment.SyncStatus(ctx, equipmentID)
		if err != nil {
			s.logger.Error().Err(err).Stringer("equipment_id", equipmentID).Msg("sweep: sync equipment status")
			continue
		}

		if before.Status != equipment.StatusUnderMaintenance && after.Status == equipment.StatusUnderMaintenance {
			flagged++
			s.notifier.Notify(ctx, notification.RoleAdmin, nil, "maintenance-due", map[string]string{
				"schedule_id":    task.ScheduleID,
				"equipment_name": after.Name,
				"date":           task.ScheduledDate.Format("2006-01-02"),
			})
		}
	}

	s.logger.Info().
		Int("due_tasks", len(due)).
		Int("equipment_flagged", flagged).
		Msg("due-task sweep finished")
	return nil
}
