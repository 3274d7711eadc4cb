package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type memRepo struct {
	stored  []*Notification
	failErr error
}

func (m *memRepo) Create(_ context.Context, n *Notification) error {
	if m.failErr != nil {
		return m.failErr
	}
	m.stored = append(m.stored, n)
	return nil
}

func (m *memRepo) ListForRecipient(_ context.Context, role string, _ *uuid.UUID, _, _ int) ([]*Notification, int, error) {
	var out []*Notification
	for _, n := range m.stored {
		if n.RecipientRole == role {
			out = append(out, n)
		}
	}
	return out, len(out), nil
}

func TestRenderReplacesPlaceholders(t *testing.T) {
	e := NewTemplateEngine()
	subject, body, err := e.Render("maintenance-due", map[string]string{
		"schedule_id":    "SM-7",
		"equipment_name": "Ventilator A",
		"date":           "2026-08-28",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if subject != "Maintenance SM-7 is due" {
		t.Errorf("unexpected subject: %q", subject)
	}
	if body == "" || body[:25] != "Scheduled maintenance for" {
		t.Errorf("unexpected body: %q", body)
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	e := NewTemplateEngine()
	if _, _, err := e.Render("nope", nil); err == nil {
		t.Fatal("expected error for unknown template")
	}
}

func TestNotifyStoresRecord(t *testing.T) {
	repo := &memRepo{}
	r := NewRecorder(repo, NewTemplateEngine(), zerolog.Nop())

	r.Notify(context.Background(), RoleAdmin, nil, "request-opened", map[string]string{
		"request_id":  "MR-1",
		"priority":    "critical",
		"reported_by": "Ward 3",
		"title":       "Pump leaking",
	})

	if len(repo.stored) != 1 {
		t.Fatalf("expected 1 stored notification, got %d", len(repo.stored))
	}
	if repo.stored[0].Category != "request-opened" {
		t.Errorf("unexpected category %q", repo.stored[0].Category)
	}
}

func TestNotifySwallowsStoreFailure(t *testing.T) {
	repo := &memRepo{failErr: errors.New("down")}
	r := NewRecorder(repo, NewTemplateEngine(), zerolog.Nop())

	// Must not panic or surface the error.
	r.Notify(context.Background(), RoleAdmin, nil, "maintenance-completed", nil)
}
