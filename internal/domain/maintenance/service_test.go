package maintenance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medops/medops/internal/domain/equipment"
	"github.com/medops/medops/internal/domain/technician"
)

// --- in-memory fixtures ---

type memRepo struct {
	byID map[uuid.UUID]*ScheduledMaintenance
}

func newMemRepo() *memRepo {
	return &memRepo{byID: make(map[uuid.UUID]*ScheduledMaintenance)}
}

func (r *memRepo) Create(_ context.Context, m *ScheduledMaintenance) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	cp := *m
	r.byID[m.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (*ScheduledMaintenance, error) {
	m, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *memRepo) GetByScheduleID(_ context.Context, scheduleID string) (*ScheduledMaintenance, error) {
	for _, m := range r.byID {
		if m.ScheduleID == scheduleID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memRepo) Update(_ context.Context, m *ScheduledMaintenance) error {
	if _, ok := r.byID[m.ID]; !ok {
		return ErrNotFound
	}
	cp := *m
	r.byID[m.ID] = &cp
	return nil
}

func (r *memRepo) List(_ context.Context, f Filter, _, _ int) ([]*ScheduledMaintenance, int, error) {
	var out []*ScheduledMaintenance
	for _, m := range r.byID {
		if f.Status != "" && m.Status != f.Status {
			continue
		}
		if f.MaintenanceType != "" && m.MaintenanceType != f.MaintenanceType {
			continue
		}
		if f.Priority != "" && m.Priority != f.Priority {
			continue
		}
		if f.EquipmentID != nil && m.EquipmentID != *f.EquipmentID {
			continue
		}
		if f.TechnicianID != nil && (m.AssignedTechnicianID == nil || *m.AssignedTechnicianID != *f.TechnicianID) {
			continue
		}
		out = append(out, m)
	}
	return out, len(out), nil
}

func (r *memRepo) ListByMonth(_ context.Context, year, month int) ([]*ScheduledMaintenance, error) {
	var out []*ScheduledMaintenance
	for _, m := range r.byID {
		if m.ScheduledDate.Year() == year && int(m.ScheduledDate.Month()) == month {
			out = append(out, m)
		}
	}
	return out, nil
}

func onOrBefore(d, asOf time.Time) bool {
	y1, m1, d1 := d.Date()
	y2, m2, d2 := asOf.Date()
	a := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	b := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return !a.After(b)
}

func (r *memRepo) ListDue(_ context.Context, asOf time.Time) ([]*ScheduledMaintenance, error) {
	var out []*ScheduledMaintenance
	for _, m := range r.byID {
		if !m.Terminal() && onOrBefore(m.ScheduledDate, asOf) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memRepo) HasActiveMaintenance(_ context.Context, equipmentID uuid.UUID, asOf time.Time) (bool, error) {
	for _, m := range r.byID {
		if m.EquipmentID != equipmentID || m.Terminal() {
			continue
		}
		if m.Status == StatusInProgress || onOrBefore(m.ScheduledDate, asOf) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) CountActiveByTechnician(_ context.Context, technicianID uuid.UUID) (int, error) {
	n := 0
	for _, m := range r.byID {
		if m.AssignedTechnicianID != nil && *m.AssignedTechnicianID == technicianID && !m.Terminal() {
			n++
		}
	}
	return n, nil
}

func (r *memRepo) ListSlotsOnDate(_ context.Context, technicianID uuid.UUID, date time.Time) ([]Slot, error) {
	var out []Slot
	for _, m := range r.byID {
		if m.AssignedTechnicianID == nil || *m.AssignedTechnicianID != technicianID || m.Terminal() {
			continue
		}
		if m.ScheduledDate.Equal(date) {
			out = append(out, Slot{StartClock: m.ScheduledTime, DurationHours: m.EstimatedDurationHours})
		}
	}
	return out, nil
}

type eqMemRepo struct {
	byID map[uuid.UUID]*equipment.Equipment
}

func (r *eqMemRepo) Create(_ context.Context, e *equipment.Equipment) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	r.byID[e.ID] = e
	return nil
}

func (r *eqMemRepo) GetByID(_ context.Context, id uuid.UUID) (*equipment.Equipment, error) {
	e, ok := r.byID[id]
	if !ok {
		return nil, equipment.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *eqMemRepo) GetByCode(_ context.Context, code string) (*equipment.Equipment, error) {
	for _, e := range r.byID {
		if e.Code == code {
			cp := *e
			return &cp, nil
		}
	}
	return nil, equipment.ErrNotFound
}

func (r *eqMemRepo) List(_ context.Context, _, _ int) ([]*equipment.Equipment, int, error) {
	return nil, 0, nil
}

func (r *eqMemRepo) UpdateStatus(_ context.Context, e *equipment.Equipment) error {
	if _, ok := r.byID[e.ID]; !ok {
		return equipment.ErrNotFound
	}
	cp := *e
	r.byID[e.ID] = &cp
	return nil
}

type techMemRepo struct {
	byID map[uuid.UUID]*technician.Technician
}

func (r *techMemRepo) Create(_ context.Context, t *technician.Technician) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	r.byID[t.ID] = t
	return nil
}

func (r *techMemRepo) GetByID(_ context.Context, id uuid.UUID) (*technician.Technician, error) {
	t, ok := r.byID[id]
	if !ok {
		return nil, technician.ErrNotFound
	}
	return t, nil
}

func (r *techMemRepo) Update(_ context.Context, t *technician.Technician) error {
	r.byID[t.ID] = t
	return nil
}

func (r *techMemRepo) List(_ context.Context, _, _ int) ([]*technician.Technician, int, error) {
	return nil, 0, nil
}

func (r *techMemRepo) ListEmployed(_ context.Context) ([]*technician.Technician, error) {
	var out []*technician.Technician
	for _, t := range r.byID {
		if t.Employed {
			out = append(out, t)
		}
	}
	return out, nil
}

// taskProbe derives equipment activity from the maintenance repo the way the
// production adapter does.
type taskProbe struct {
	repo *memRepo
	now  func() time.Time
}

func (p *taskProbe) EquipmentActivity(ctx context.Context, equipmentID uuid.UUID) (equipment.Activity, error) {
	active, err := p.repo.HasActiveMaintenance(ctx, equipmentID, p.now())
	if err != nil {
		return equipment.Activity{}, err
	}
	return equipment.Activity{ActiveMaintenance: active}, nil
}

// taskWorkload backs technician availability from the maintenance repo.
type taskWorkload struct{ repo *memRepo }

func (w *taskWorkload) CountActiveTasks(ctx context.Context, id uuid.UUID) (int, error) {
	return w.repo.CountActiveByTechnician(ctx, id)
}

func (w *taskWorkload) ListWindowsOnDate(ctx context.Context, id uuid.UUID, date time.Time) ([]technician.Window, error) {
	slots, err := w.repo.ListSlotsOnDate(ctx, id, date)
	if err != nil {
		return nil, err
	}
	var out []technician.Window
	for _, s := range slots {
		start, err := technician.ClockToHours(s.StartClock)
		if err != nil {
			return nil, err
		}
		out = append(out, technician.Window{Start: start, Duration: s.DurationHours})
	}
	return out, nil
}

func (w *taskWorkload) CountOpenRequests(_ context.Context, _ uuid.UUID) (int, error) {
	return 0, nil
}

type memCodes struct{ n int }

func (c *memCodes) Next(_ context.Context, _, prefix string) (string, error) {
	c.n++
	return fmt.Sprintf("%s-%d", prefix, c.n), nil
}

type memNotifier struct {
	calls []string // template IDs in order
}

func (n *memNotifier) Notify(_ context.Context, _ string, _ *uuid.UUID, templateID string, _ map[string]string) {
	n.calls = append(n.calls, templateID)
}

type env struct {
	repo     *memRepo
	eqRepo   *eqMemRepo
	techRepo *techMemRepo
	notifier *memNotifier
	eqSvc    *equipment.Service
	techSvc  *technician.Service
	svc      *Service
	now      time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		repo:     newMemRepo(),
		eqRepo:   &eqMemRepo{byID: make(map[uuid.UUID]*equipment.Equipment)},
		techRepo: &techMemRepo{byID: make(map[uuid.UUID]*technician.Technician)},
		notifier: &memNotifier{},
		now:      time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
	}
	probe := &taskProbe{repo: e.repo, now: func() time.Time { return e.now }}
	e.eqSvc = equipment.NewService(e.eqRepo, probe)
	e.techSvc = technician.NewService(e.techRepo, &taskWorkload{repo: e.repo})
	e.svc = NewService(e.repo, e.eqSvc, e.techSvc, &memCodes{}, e.notifier)
	e.svc.now = func() time.Time { return e.now }
	return e
}

func (e *env) seedEquipment(t *testing.T, typ string) *equipment.Equipment {
	t.Helper()
	eq := &equipment.Equipment{
		Code:          fmt.Sprintf("EQ-%d", len(e.eqRepo.byID)+1),
		Name:          typ + " unit",
		EquipmentType: typ,
		Status:        equipment.StatusOperational,
	}
	if err := e.eqRepo.Create(context.Background(), eq); err != nil {
		t.Fatal(err)
	}
	return eq
}

func (e *env) seedTechnician(t *testing.T, name string, maxTasks int) *technician.Technician {
	t.Helper()
	tech := &technician.Technician{
		FullName:          name,
		Employed:          true,
		Available:         true,
		ShiftStart:        "08:00",
		ShiftEnd:          "17:00",
		MaxScheduledTasks: maxTasks,
		MaxOpenRequests:   5,
	}
	if err := e.techRepo.Create(context.Background(), tech); err != nil {
		t.Fatal(err)
	}
	return tech
}

func baseInput(eq *equipment.Equipment, date time.Time, clock string) CreateInput {
	return CreateInput{
		EquipmentID:     &eq.ID,
		MaintenanceType: "preventive",
		Priority:        "medium",
		ScheduledDate:   date,
		ScheduledTime:   clock,
		DurationHours:   2,
	}
}

var futureDate = time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

// --- tests ---

func TestCreateAllocatesSequentialCodes(t *testing.T) {
	e := newEnv(t)
	eq := e.seedEquipment(t, "Ventilator")
	ctx := context.Background()

	first, err := e.svc.Create(ctx, baseInput(eq, futureDate, "09:00"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.svc.Create(ctx, baseInput(eq, futureDate, "11:00"))
	if err != nil {
		t.Fatal(err)
	}
	if first.ScheduleID != "SM-1" || second.ScheduleID != "SM-2" {
		t.Fatalf("expected SM-1 then SM-2, got %s then %s", first.ScheduleID, second.ScheduleID)
	}
	if first.Status != StatusScheduled {
		t.Fatalf("expected Scheduled, got %s", first.Status)
	}
}

func TestCreateValidation(t *testing.T) {
	e := newEnv(t)
	eq := e.seedEquipment(t, "Ventilator")
	ctx := context.Background()

	in := baseInput(eq, futureDate, "09:00")
	in.MaintenanceType = "refurbishment"
	if _, err := e.svc.Create(ctx, in); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for type, got %v", err)
	}

	in = baseInput(eq, futureDate, "25:00")
	if _, err := e.svc.Create(ctx, in); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for time, got %v", err)
	}

	in = baseInput(eq, futureDate, "09:00")
	in.DurationHours = 9
	_, err := e.svc.Create(ctx, in)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for duration, got %v", err)
	}
	if !strings.Contains(err.Error(), "between 0.5 and 8") {
		t.Fatalf("expected rendered duration bounds, got %q", err.Error())
	}

	in = baseInput(eq, futureDate, "09:00")
	missing := uuid.New()
	in.EquipmentID = &missing
	if _, err := e.svc.Create(ctx, in); !errors.Is(err, equipment.ErrNotFound) {
		t.Fatalf("expected equipment not found, got %v", err)
	}
}

func TestAssignRejectsAtCapacity(t *testing.T) {
	e := newEnv(t)
	eq := e.seedEquipment(t, "Ventilator")
	tech := e.seedTechnician(t, "Asha", 3)
	ctx := context.Background()

	clocks := []string{"08:00", "10:00", "12:00", "14:00"}
	var last *ScheduledMaintenance
	for i, clock := range clocks {
		m, err := e.svc.Create(ctx, baseInput(eq, futureDate, clock))
		if err != nil {
			t.Fatal(err)
		}
		last = m
		if i < 3 {
			if _, err := e.svc.Assign(ctx, m.ID, tech.ID); err != nil {
				t.Fatalf("assign %d: %v", i+1, err)
			}
		}
	}

	_, err := e.svc.Assign(ctx, last.ID, tech.ID)
	if !errors.Is(err, ErrTechnicianUnavailable) {
		t.Fatalf("expected ErrTechnicianUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "maximum scheduled maintenance capacity") {
		t.Fatalf("expected capacity message, got %q", err.Error())
	}
}

func TestAssignRejectsOverlap(t *testing.T) {
	e := newEnv(t)
	eq := e.seedEquipment(t, "Ventilator")
	tech := e.seedTechnician(t, "Asha", 5)
	ctx := context.Background()

	first, err := e.svc.Create(ctx, baseInput(eq, futureDate, "09:00"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.svc.Assign(ctx, first.ID, tech.ID); err != nil {
		t.Fatal(err)
	}

	overlapping, err := e.svc.Create(ctx, baseInput(eq, futureDate, "10:00"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.svc.Assign(ctx, overlapping.ID, tech.ID); !errors.Is(err, ErrTechnicianUnavailable) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestReassignmentMovesTask(t *testing.T) {
	e := newEnv(t)
	eq := e.seedEquipment(t, "Ventilator")
	a := e.seedTechnician(t, "A", 3)
	b := e.seedTechnician(t, "B", 3)
	ctx := context.Background()

	m, err := e.svc.Create(ctx, baseInput(eq, futureDate, "09:00"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.svc.Assign(ctx, m.ID, a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := e.svc.Assign(ctx, m.ID, b.ID); err != nil {
		t.Fatal(err)
	}

	countA, _ := e.repo.CountActiveByTechnician(ctx, a.ID)
	countB, _ := e.repo.CountActiveByTechnician(ctx, b.ID)
	if countA != 0 || countB != 1 {
		t.Fatalf("expected 0/1 after reassignment, got %d/%d", countA, countB)
	}
}

func TestReassignCurrentTechnicianSucceeds(t *testing.T) {
	e := newEnv(t)
	eq := e.seedEquipment(t, "Ventilator")
	tech := e.seedTechnician(t, "Asha", 1)
	ctx := context.Background()

	m, err := e.svc.Create(ctx, baseInput(eq, futureDate, "09:00"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.svc.Assign(ctx, m.ID, tech.ID); err != nil {
		t.Fatal(err)
	}

	// The task must not count against its own technician: even at capacity 1
	// with the slot occupied by this very task, re-posting the assignment is
	// accepted.
	got, err := e.svc.Assign(ctx, m.ID, tech.ID)
	if err != nil {
		t.Fatalf("re-assigning current technician: %v", err)
	}
	if got.Status != StatusAssigned || got.AssignedTechnicianID == nil || *got.AssignedTechnicianID != tech.ID {
		t.Fatalf("expected task still assigned to %s, got %+v", tech.ID, got)
	}
	if count, _ := e.repo.CountActiveByTechnician(ctx, tech.ID); count != 1 {
		t.Fatalf("expected the task exactly once in the derived list, got %d", count)
	}
}

func TestUpdateRejectsZeroRecurrenceInterval(t *testing.T) {
	e := newEnv(t)
	eq := e.seedEquipment(t, "Ventilator")
	ctx := context.Background()

	in := baseInput(eq, futureDate, "09:00")
	in.RecurrenceUnit = RecurMonthly
	in.RecurrenceInterval = 1
	m, err := e.svc.Create(ctx, in)
	if err != nil {
		t.Fatal(err)
	}

	zero := 0
	if _, err := e.svc.Update(ctx, m.ID, UpdateInput{RecurrenceInterval: &zero}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for zero interval on a recurring task, got %v", err)
	}

	// The stored row keeps its recurrence.
	got, _ := e.repo.GetByID(ctx, m.ID)
	if !got.Recurs() {
		t.Fatalf("expected recurrence to survive the rejected update, got unit=%s interval=%d",
			got.RecurrenceUnit, got.RecurrenceInterval)
	}
}

func TestSetStatusInProgressFlagsEquipment(t *testing.T) {
	e := newEnv(t)
	eq := e.seedEquipment(t, "Ventilator")
	ctx := context.Background()

	m, err := e.svc.Create(ctx, baseInput(eq, futureDate, "09:00"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.svc.SetStatus(ctx, m.ID, StatusInProgress); err != nil {
		t.Fatal(err)
	}

	got, _ := e.eqSvc.Get(ctx, eq.ID)
	if got.Status != equipment.StatusUnderMaintenance {
		t.Fatalf("expected Under Maintenance, got %s", got.Status)
	}

	// Cancelling the only active task releases the equipment.
	if _, err := e.svc.SetStatus(ctx, m.ID, StatusCancelled); err != nil {
		t.Fatal(err)
	}
	got, _ = e.eqSvc.Get(ctx, eq.ID)
	if got.Status != equipment.StatusOperational {
		t.Fatalf("expected Operational after cancel, got %s", got.Status)
	}
}

func TestSetStatusGuards(t *testing.T) {
	e := newEnv(t)
	eq := e.seedEquipment(t, "Ventilator")
	ctx := context.Background()

	m, err := e.svc.Create(ctx, baseInput(eq, futureDate, "09:00"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := e.svc.SetStatus(ctx, m.ID, StatusCompleted); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected completion redirect, got %v", err)
	}
	if _, err := e.svc.SetStatus(ctx, m.ID, "Paused"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected unknown status rejection, got %v", err)
	}

	if _, err := e.svc.SetStatus(ctx, m.ID, StatusCancelled); err != nil {
		t.Fatal(err)
	}
	if _, err := e.svc.SetStatus(ctx, m.ID, StatusScheduled); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected terminal guard, got %v", err)
	}
}

func TestCompleteOnlyOnce(t *testing.T) {
	e := newEnv(t)
	eq := e.seedEquipment(t, "Ventilator")
	ctx := context.Background()

	m, err := e.svc.Create(ctx, baseInput(eq, futureDate, "09:00"))
	if err != nil {
		t.Fatal(err)
	}

	done, _, err := e.svc.Complete(ctx, m.ID, CompleteInput{})
	if err != nil {
		t.Fatal(err)
	}
	if done.CompletedAt == nil || !done.CompletedAt.Equal(e.now) {
		t.Fatal("expected completed_at stamped")
	}

	e.now = e.now.Add(time.Hour)
	_, _, err = e.svc.Complete(ctx, m.ID, CompleteInput{})
	if !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted, got %v", err)
	}

	stored, _ := e.repo.GetByID(ctx, m.ID)
	if !stored.CompletedAt.Equal(*done.CompletedAt) {
		t.Fatal("completed_at must not change on repeated completion")
	}
}

func TestCompleteSpawnsFromOriginalDate(t *testing.T) {
	e := newEnv(t)
	eq := e.seedEquipment(t, "Ventilator")
	ctx := context.Background()

	in := baseInput(eq, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), "09:00")
	in.RecurrenceUnit = RecurMonthly
	in.RecurrenceInterval = 1
	m, err := e.svc.Create(ctx, in)
	if err != nil {
		t.Fatal(err)
	}

	// Completed well past the scheduled date; the chain must not drift.
	e.now = time.Date(2026, 1, 28, 16, 0, 0, 0, time.UTC)
	_, spawned, err := e.svc.Complete(ctx, m.ID, CompleteInput{})
	if err != nil {
		t.Fatal(err)
	}
	if spawned == nil {
		t.Fatal("expected a spawned occurrence")
	}
	want := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	if !spawned.ScheduledDate.Equal(want) {
		t.Fatalf("expected %s, got %s", want.Format("2006-01-02"), spawned.ScheduledDate.Format("2006-01-02"))
	}
	if spawned.Status != StatusScheduled || spawned.AssignedTechnicianID != nil {
		t.Fatalf("spawned task must start unassigned and Scheduled, got %+v", spawned)
	}
	if spawned.ScheduleID == m.ScheduleID {
		t.Fatal("spawned task needs its own code")
	}
}

func TestCompleteHonorsRecurrenceEndDate(t *testing.T) {
	e := newEnv(t)
	eq := e.seedEquipment(t, "Ventilator")
	ctx := context.Background()

	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	in := baseInput(eq, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), "09:00")
	in.RecurrenceUnit = RecurMonthly
	in.RecurrenceInterval = 1
	in.RecurrenceEndDate = &end
	m, err := e.svc.Create(ctx, in)
	if err != nil {
		t.Fatal(err)
	}

	_, spawned, err := e.svc.Complete(ctx, m.ID, CompleteInput{})
	if err != nil {
		t.Fatal(err)
	}
	if spawned != nil {
		t.Fatalf("expected no spawn past end date, got %s", spawned.ScheduledDate)
	}
}

func TestCompleteForcesEquipmentStatus(t *testing.T) {
	e := newEnv(t)
	eq := e.seedEquipment(t, "Ventilator")
	ctx := context.Background()

	m, err := e.svc.Create(ctx, baseInput(eq, futureDate, "09:00"))
	if err != nil {
		t.Fatal(err)
	}

	_, _, err = e.svc.Complete(ctx, m.ID, CompleteInput{EquipmentStatusAfter: equipment.StatusOutOfService})
	if err != nil {
		t.Fatal(err)
	}
	got, _ := e.eqSvc.Get(ctx, eq.ID)
	if got.Status != equipment.StatusOutOfService {
		t.Fatalf("expected forced Out of Service, got %s", got.Status)
	}
}

func TestAutoScheduleVentilator(t *testing.T) {
	e := newEnv(t)
	eq := e.seedEquipment(t, "Ventilator")
	ctx := context.Background()

	m, err := e.svc.AutoSchedule(ctx, eq.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := e.now.AddDate(0, 1, 0)
	if !m.ScheduledDate.Equal(want) {
		t.Fatalf("expected next month, got %s", m.ScheduledDate)
	}
	if m.EstimatedDurationHours != 3 {
		t.Fatalf("expected 3h duration for ventilators, got %g", m.EstimatedDurationHours)
	}
	if m.RecurrenceUnit != RecurMonthly || m.RecurrenceInterval != 1 {
		t.Fatalf("expected monthly/1 recurrence, got %s/%d", m.RecurrenceUnit, m.RecurrenceInterval)
	}
}

func TestAutoScheduleUnknownTypeUsesDefault(t *testing.T) {
	e := newEnv(t)
	eq := e.seedEquipment(t, "Centrifuge")
	ctx := context.Background()

	m, err := e.svc.AutoSchedule(ctx, eq.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !m.ScheduledDate.Equal(e.now.AddDate(0, 6, 0)) || m.EstimatedDurationHours != 2 {
		t.Fatalf("expected default cadence, got %s / %g", m.ScheduledDate, m.EstimatedDurationHours)
	}
}

func TestCalendar(t *testing.T) {
	e := newEnv(t)
	eq := e.seedEquipment(t, "Ventilator")
	ctx := context.Background()

	for _, clock := range []string{"08:00", "10:00"} {
		if _, err := e.svc.Create(ctx, baseInput(eq, futureDate, clock)); err != nil {
			t.Fatal(err)
		}
	}

	view, err := e.svc.Calendar(ctx, 2026, 9)
	if err != nil {
		t.Fatal(err)
	}
	if len(view.Tasks) != 2 || view.CountsByStatus[StatusScheduled] != 2 {
		t.Fatalf("unexpected view %+v", view)
	}
	if view.TotalEstimatedHours != 4 {
		t.Fatalf("expected 4 estimated hours, got %g", view.TotalEstimatedHours)
	}

	if _, err := e.svc.Calendar(ctx, 2026, 13); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected month bounds check, got %v", err)
	}
	if _, err := e.svc.Calendar(ctx, 1900, 1); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected year bounds check, got %v", err)
	}
}

func TestNextOccurrence(t *testing.T) {
	from := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		unit     string
		interval int
		want     time.Time
	}{
		{RecurDaily, 10, time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC)},
		{RecurWeekly, 2, time.Date(2024, 1, 29, 0, 0, 0, 0, time.UTC)},
		{RecurMonthly, 1, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)},
		{RecurQuarterly, 1, time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)},
		{RecurYearly, 1, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		if got := NextOccurrence(from, tc.unit, tc.interval); !got.Equal(tc.want) {
			t.Errorf("%s/%d: got %s, want %s", tc.unit, tc.interval, got, tc.want)
		}
	}
}
