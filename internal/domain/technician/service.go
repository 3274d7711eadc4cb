package technician

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common errors returned by the technician service.
var (
	ErrNotFound    = errors.New("technician not found")
	ErrUnavailable = errors.New("technician is unavailable")
)

// AssignmentSource exposes a technician's current workload. The scheduled
// maintenance repository implements it; the task row is the single owner of the
// assignment relationship, so the workload here is always a derived query.
type AssignmentSource interface {
	CountActiveTasks(ctx context.Context, technicianID uuid.UUID) (int, error)
	ListWindowsOnDate(ctx context.Context, technicianID uuid.UUID, date time.Time) ([]Window, error)
	CountOpenRequests(ctx context.Context, technicianID uuid.UUID) (int, error)
}

type Service struct {
	repo  Repository
	tasks AssignmentSource
}

func NewService(repo Repository, tasks AssignmentSource) *Service {
	return &Service{repo: repo, tasks: tasks}
}

func (s *Service) Create(ctx context.Context, t *Technician) error {
	if t.FullName == "" {
		return fmt.Errorf("full_name is required")
	}
	if t.ShiftStart == "" {
		t.ShiftStart = "08:00"
	}
	if t.ShiftEnd == "" {
		t.ShiftEnd = "17:00"
	}
	if _, err := ClockToHours(t.ShiftStart); err != nil {
		return err
	}
	if _, err := ClockToHours(t.ShiftEnd); err != nil {
		return err
	}
	if t.MaxScheduledTasks <= 0 {
		t.MaxScheduledTasks = 3
	}
	if t.MaxOpenRequests <= 0 {
		t.MaxOpenRequests = 5
	}
	return s.repo.Create(ctx, t)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Technician, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, t *Technician) error {
	if _, err := ClockToHours(t.ShiftStart); err != nil {
		return err
	}
	if _, err := ClockToHours(t.ShiftEnd); err != nil {
		return err
	}
	return s.repo.Update(ctx, t)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Technician, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// CheckAvailability evaluates the four availability predicates in order:
// employed, capacity, shift window, interval overlap, short-circuiting on the
// first failure. The returned reason is empty when the technician can take the
// slot.
func (s *Service) CheckAvailability(ctx context.Context, t *Technician, date time.Time, startClock string, durationHours float64) (reason string, err error) {
	if !t.Employed {
		return "technician is no longer employed", nil
	}
	if !t.Available {
		return "technician is marked unavailable", nil
	}

	active, err := s.tasks.CountActiveTasks(ctx, t.ID)
	if err != nil {
		return "", err
	}
	if active >= t.MaxScheduledTasks {
		return fmt.Sprintf("technician has reached maximum scheduled maintenance capacity (%d)", t.MaxScheduledTasks), nil
	}

	start, err := ClockToHours(startClock)
	if err != nil {
		return "", err
	}
	requested := Window{Start: start, Duration: durationHours}

	shiftStart, err := ClockToHours(t.ShiftStart)
	if err != nil {
		return "", err
	}
	shiftEnd, err := ClockToHours(t.ShiftEnd)
	if err != nil {
		return "", err
	}
	if requested.Start < shiftStart || requested.End() > shiftEnd {
		return fmt.Sprintf("requested window falls outside the technician's shift (%s-%s)", t.ShiftStart, t.ShiftEnd), nil
	}

	existing, err := s.tasks.ListWindowsOnDate(ctx, t.ID, date)
	if err != nil {
		return "", err
	}
	for _, w := range existing {
		if requested.Overlaps(w) {
			return "technician has a conflicting assignment in the requested window", nil
		}
	}
	return "", nil
}

// CanAcceptRequest reports whether the technician may take another ad-hoc
// maintenance request.
func (s *Service) CanAcceptRequest(ctx context.Context, t *Technician) (string, error) {
	if !t.Employed {
		return "technician is no longer employed", nil
	}
	if !t.Available {
		return "technician is marked unavailable", nil
	}
	open, err := s.tasks.CountOpenRequests(ctx, t.ID)
	if err != nil {
		return "", err
	}
	if open >= t.MaxOpenRequests {
		return fmt.Sprintf("technician has reached maximum open request capacity (%d)", t.MaxOpenRequests), nil
	}
	return "", nil
}

// Candidate is a technician ranked for a specific slot.
type Candidate struct {
	Technician *Technician `json:"technician"`
	Score      int         `json:"score"`
	ActiveTask int         `json:"active_tasks"`
}

// matchScore ranks how well a technician fits an equipment type: exact skill
// match 30, general-repair 15, specialization substring 20, plus a light-workload
// bonus (10 when idle, 5 when under half capacity), capped at 100.
func matchScore(t *Technician, equipmentType string, activeTasks int) int {
	score := 0
	if t.HasSkill(equipmentType) {
		score += 30
	}
	if t.HasSkill("general-repair") {
		score += 15
	}
	if t.Specialization != nil && equipmentType != "" &&
		strings.Contains(strings.ToLower(*t.Specialization), strings.ToLower(equipmentType)) {
		score += 20
	}
	switch {
	case activeTasks == 0:
		score += 10
	case activeTasks*2 < t.MaxScheduledTasks:
		score += 5
	}
	if score > 100 {
		score = 100
	}
	return score
}

// FindAvailable lists employed technicians able to take the given slot, ranked
// by match score (descending), ties broken by name.
func (s *Service) FindAvailable(ctx context.Context, equipmentType string, date time.Time, startClock string, durationHours float64) ([]Candidate, error) {
	techs, err := s.repo.ListEmployed(ctx)
	if err != nil {
		return nil, err
	}

	var out []Candidate
	for _, t := range techs {
		reason, err := s.CheckAvailability(ctx, t, date, startClock, durationHours)
		if err != nil {
			return nil, err
		}
		if reason != "" {
			continue
		}
		active, err := s.tasks.CountActiveTasks(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, Candidate{
			Technician: t,
			Score:      matchScore(t, equipmentType, active),
			ActiveTask: active,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Technician.FullName < out[j].Technician.FullName
	})
	return out, nil
}
