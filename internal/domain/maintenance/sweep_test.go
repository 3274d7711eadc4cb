package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/medops/medops/internal/domain/equipment"
)

func TestSweepFlagsDueEquipment(t *testing.T) {
	e := newEnv(t)
	eq := e.seedEquipment(t, "Ventilator")
	ctx := context.Background()

	// Scheduled for yesterday, never started.
	in := baseInput(eq, e.now.AddDate(0, 0, -1), "09:00")
	if _, err := e.svc.Create(ctx, in); err != nil {
		t.Fatal(err)
	}

	sweep := NewSweep(e.repo, e.eqSvc, e.notifier, zerolog.Nop())
	sweep.now = func() time.Time { return e.now }

	if err := sweep.Run(ctx); err != nil {
		t.Fatal(err)
	}

	got, _ := e.eqSvc.Get(ctx, eq.ID)
	if got.Status != equipment.StatusUnderMaintenance {
		t.Fatalf("expected Under Maintenance, got %s", got.Status)
	}
	if len(e.notifier.calls) != 1 || e.notifier.calls[0] != "maintenance-due" {
		t.Fatalf("expected one due notification, got %v", e.notifier.calls)
	}

	// A second run finds the equipment already flagged and stays quiet.
	if err := sweep.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if len(e.notifier.calls) != 1 {
		t.Fatalf("expected no repeat notification, got %v", e.notifier.calls)
	}
}

func TestSweepIgnoresFutureTasks(t *testing.T) {
	e := newEnv(t)
	eq := e.seedEquipment(t, "Ventilator")
	ctx := context.Background()

	if _, err := e.svc.Create(ctx, baseInput(eq, e.now.AddDate(0, 0, 7), "09:00")); err != nil {
		t.Fatal(err)
	}

	sweep := NewSweep(e.repo, e.eqSvc, e.notifier, zerolog.Nop())
	sweep.now = func() time.Time { return e.now }
	if err := sweep.Run(ctx); err != nil {
		t.Fatal(err)
	}

	got, _ := e.eqSvc.Get(ctx, eq.ID)
	if got.Status != equipment.StatusOperational {
		t.Fatalf("expected Operational, got %s", got.Status)
	}
	if len(e.notifier.calls) != 0 {
		t.Fatalf("expected no notifications, got %v", e.notifier.calls)
	}
}
