package technician

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

type memRepo struct {
	byID map[uuid.UUID]*Technician
}

func newMemRepo() *memRepo {
	return &memRepo{byID: make(map[uuid.UUID]*Technician)}
}

func (r *memRepo) Create(_ context.Context, t *Technician) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	r.byID[t.ID] = t
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (*Technician, error) {
	t, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return t, nil
}

func (r *memRepo) Update(_ context.Context, t *Technician) error {
	if _, ok := r.byID[t.ID]; !ok {
		return ErrNotFound
	}
	r.byID[t.ID] = t
	return nil
}

func (r *memRepo) List(_ context.Context, _, _ int) ([]*Technician, int, error) {
	var out []*Technician
	for _, t := range r.byID {
		out = append(out, t)
	}
	return out, len(out), nil
}

func (r *memRepo) ListEmployed(_ context.Context) ([]*Technician, error) {
	var out []*Technician
	for _, t := range r.byID {
		if t.Employed {
			out = append(out, t)
		}
	}
	return out, nil
}

type memWorkload struct {
	active  map[uuid.UUID]int
	windows map[uuid.UUID][]Window
	open    map[uuid.UUID]int
}

func newMemWorkload() *memWorkload {
	return &memWorkload{
		active:  make(map[uuid.UUID]int),
		windows: make(map[uuid.UUID][]Window),
		open:    make(map[uuid.UUID]int),
	}
}

func (w *memWorkload) CountActiveTasks(_ context.Context, id uuid.UUID) (int, error) {
	return w.active[id], nil
}

func (w *memWorkload) ListWindowsOnDate(_ context.Context, id uuid.UUID, _ time.Time) ([]Window, error) {
	return w.windows[id], nil
}

func (w *memWorkload) CountOpenRequests(_ context.Context, id uuid.UUID) (int, error) {
	return w.open[id], nil
}

func seedTech(t *testing.T, repo *memRepo, name string, mutate func(*Technician)) *Technician {
	t.Helper()
	tech := &Technician{
		FullName:          name,
		Employed:          true,
		Available:         true,
		ShiftStart:        "08:00",
		ShiftEnd:          "17:00",
		MaxScheduledTasks: 3,
		MaxOpenRequests:   5,
	}
	if mutate != nil {
		mutate(tech)
	}
	if err := repo.Create(context.Background(), tech); err != nil {
		t.Fatal(err)
	}
	return tech
}

var testDate = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

func TestCheckAvailabilityPredicateOrder(t *testing.T) {
	repo := newMemRepo()
	workload := newMemWorkload()
	svc := NewService(repo, workload)
	ctx := context.Background()

	t.Run("not employed", func(t *testing.T) {
		tech := seedTech(t, repo, "A", func(x *Technician) { x.Employed = false })
		reason, err := svc.CheckAvailability(ctx, tech, testDate, "09:00", 2)
		if err != nil || !strings.Contains(reason, "no longer employed") {
			t.Fatalf("reason=%q err=%v", reason, err)
		}
	})

	t.Run("at capacity", func(t *testing.T) {
		tech := seedTech(t, repo, "B", nil)
		workload.active[tech.ID] = 3
		reason, err := svc.CheckAvailability(ctx, tech, testDate, "09:00", 2)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(reason, "maximum scheduled maintenance capacity") {
			t.Fatalf("expected capacity reason, got %q", reason)
		}
	})

	t.Run("outside shift", func(t *testing.T) {
		tech := seedTech(t, repo, "C", nil)
		reason, err := svc.CheckAvailability(ctx, tech, testDate, "16:00", 2)
		if err != nil || !strings.Contains(reason, "outside the technician's shift") {
			t.Fatalf("reason=%q err=%v", reason, err)
		}
	})

	t.Run("overlapping assignment", func(t *testing.T) {
		tech := seedTech(t, repo, "D", nil)
		workload.windows[tech.ID] = []Window{{Start: 10, Duration: 2}}
		reason, err := svc.CheckAvailability(ctx, tech, testDate, "11:00", 2)
		if err != nil || !strings.Contains(reason, "conflicting assignment") {
			t.Fatalf("reason=%q err=%v", reason, err)
		}
	})

	t.Run("adjacent windows do not conflict", func(t *testing.T) {
		tech := seedTech(t, repo, "E", nil)
		workload.windows[tech.ID] = []Window{{Start: 9, Duration: 2}}
		reason, err := svc.CheckAvailability(ctx, tech, testDate, "11:00", 2)
		if err != nil || reason != "" {
			t.Fatalf("reason=%q err=%v", reason, err)
		}
	})
}

func TestCanAcceptRequestCapacity(t *testing.T) {
	repo := newMemRepo()
	workload := newMemWorkload()
	svc := NewService(repo, workload)

	tech := seedTech(t, repo, "F", func(x *Technician) { x.MaxOpenRequests = 2 })
	workload.open[tech.ID] = 2

	reason, err := svc.CanAcceptRequest(context.Background(), tech)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(reason, "maximum open request capacity") {
		t.Fatalf("expected capacity reason, got %q", reason)
	}
}

func TestMatchScore(t *testing.T) {
	spec := "Ventilator systems"
	tech := &Technician{
		Skills:            []string{"ventilator", "general-repair"},
		Specialization:    &spec,
		MaxScheduledTasks: 4,
	}

	// 30 skill + 15 general-repair + 20 specialization + 10 idle
	if got := matchScore(tech, "Ventilator", 0); got != 75 {
		t.Fatalf("expected 75, got %d", got)
	}
	// Idle bonus drops to the half-capacity bonus with one active task.
	if got := matchScore(tech, "Ventilator", 1); got != 70 {
		t.Fatalf("expected 70, got %d", got)
	}
	if got := matchScore(&Technician{MaxScheduledTasks: 3}, "Ventilator", 2); got != 0 {
		t.Fatalf("expected 0 for no match and busy, got %d", got)
	}
}

func TestFindAvailableRanksCandidates(t *testing.T) {
	repo := newMemRepo()
	workload := newMemWorkload()
	svc := NewService(repo, workload)

	skilled := seedTech(t, repo, "Skilled", func(x *Technician) { x.Skills = []string{"ventilator"} })
	generalist := seedTech(t, repo, "Generalist", func(x *Technician) { x.Skills = []string{"general-repair"} })
	busy := seedTech(t, repo, "Busy", func(x *Technician) { x.Skills = []string{"ventilator"} })
	workload.active[busy.ID] = 3
	_ = skilled
	_ = generalist

	out, err := svc.FindAvailable(context.Background(), "Ventilator", testDate, "09:00", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 candidates (busy filtered out), got %d", len(out))
	}
	if out[0].Technician.FullName != "Skilled" {
		t.Fatalf("expected Skilled ranked first, got %s", out[0].Technician.FullName)
	}
	if out[0].Score <= out[1].Score {
		t.Fatalf("expected descending scores, got %d then %d", out[0].Score, out[1].Score)
	}
}

func TestCreateAppliesDefaults(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, newMemWorkload())

	tech := &Technician{FullName: "G"}
	if err := svc.Create(context.Background(), tech); err != nil {
		t.Fatal(err)
	}
	if tech.ShiftStart != "08:00" || tech.ShiftEnd != "17:00" {
		t.Fatalf("expected default shift, got %s-%s", tech.ShiftStart, tech.ShiftEnd)
	}
	if tech.MaxScheduledTasks != 3 || tech.MaxOpenRequests != 5 {
		t.Fatalf("expected default capacities, got %d/%d", tech.MaxScheduledTasks, tech.MaxOpenRequests)
	}

	if err := svc.Create(context.Background(), &Technician{}); err == nil {
		t.Fatal("expected error for missing full_name")
	}
}
