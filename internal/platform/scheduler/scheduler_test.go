package scheduler

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

type noopJob struct{ name string }

func (j noopJob) Name() string                { return j.name }
func (j noopJob) Run(_ context.Context) error { return nil }

func TestNewCronRejectsBadTimezone(t *testing.T) {
	if _, err := NewCron("Mars/Olympus", zerolog.Nop()); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestAddRejectsBadSpec(t *testing.T) {
	s, err := NewCron("Asia/Colombo", zerolog.Nop())
	if err != nil {
		t.Fatalf("new cron: %v", err)
	}
	if err := s.Add("not a cron spec", noopJob{name: "sweep"}); err == nil {
		t.Fatal("expected error for invalid spec")
	}
	if err := s.Add("0 * * * *", noopJob{name: "sweep"}); err != nil {
		t.Fatalf("valid spec rejected: %v", err)
	}
}
