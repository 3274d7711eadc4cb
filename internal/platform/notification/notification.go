// Package notification records in-app notifications for maintenance events
// with template rendering. Writes are fire-and-forget: a failed insert is
// logged and never rolls back the write that triggered it.
package notification

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Recipient roles.
const (
	RoleAdmin      = "admin"
	RoleTechnician = "technician"
)

// Notification represents a single stored notification.
type Notification struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	RecipientRole string     `db:"recipient_role" json:"recipient_role"`
	RecipientID   *uuid.UUID `db:"recipient_id" json:"recipient_id,omitempty"`
	Category      string     `db:"category" json:"category"`
	Subject       string     `db:"subject" json:"subject"`
	Body          string     `db:"body" json:"body"`
	Read          bool       `db:"read" json:"read"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// Repository persists notifications.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListForRecipient(ctx context.Context, role string, recipientID *uuid.UUID, limit, offset int) ([]*Notification, int, error)
}

// Template defines a reusable notification template.
type Template struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// TemplateEngine manages notification templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{
		templates: make(map[string]*Template),
	}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      "maintenance-assigned",
			Name:    "Maintenance Assigned",
			Subject: "Maintenance {{schedule_id}} assigned to you",
			Body:    "You have been assigned {{maintenance_type}} maintenance for {{equipment_name}} on {{date}} at {{time}}.",
		},
		{
			ID:      "maintenance-completed",
			Name:    "Maintenance Completed",
			Subject: "Maintenance {{schedule_id}} completed",
			Body:    "{{maintenance_type}} maintenance for {{equipment_name}} was completed by {{technician}}.",
		},
		{
			ID:      "maintenance-due",
			Name:    "Maintenance Due",
			Subject: "Maintenance {{schedule_id}} is due",
			Body:    "Scheduled maintenance for {{equipment_name}} is due today ({{date}}). The equipment has been marked Under Maintenance.",
		},
		{
			ID:      "request-opened",
			Name:    "Request Opened",
			Subject: "Maintenance request {{request_id}} opened",
			Body:    "A new {{priority}} priority maintenance request was reported by {{reported_by}}: {{title}}.",
		},
		{
			ID:      "request-completed",
			Name:    "Request Completed",
			Subject: "Maintenance request {{request_id}} completed",
			Body:    "Maintenance request {{title}} has been resolved.",
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// RegisterTemplate adds or replaces a template in the engine.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render looks up a template by ID and performs {{key}} replacement using the
// supplied data map. Keys present in the template but absent from data are left
// as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}

	subject = t.Subject
	body = t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}

// Notifier is the narrow interface the domain services depend on.
type Notifier interface {
	Notify(ctx context.Context, role string, recipientID *uuid.UUID, templateID string, data map[string]string)
}

// Recorder renders a template and stores the result. It is the production
// Notifier: failures are logged, never returned, so a notification problem can
// never fail the state change that produced it.
type Recorder struct {
	repo      Repository
	templates *TemplateEngine
	logger    zerolog.Logger
}

func NewRecorder(repo Repository, templates *TemplateEngine, logger zerolog.Logger) *Recorder {
	return &Recorder{repo: repo, templates: templates, logger: logger}
}

func (r *Recorder) Notify(ctx context.Context, role string, recipientID *uuid.UUID, templateID string, data map[string]string) {
	subject, body, err := r.templates.Render(templateID, data)
	if err != nil {
		r.logger.Error().Err(err).Str("template", templateID).Msg("render notification")
		return
	}

	n := &Notification{
		RecipientRole: role,
		RecipientID:   recipientID,
		Category:      templateID,
		Subject:       subject,
		Body:          body,
	}
	if err := r.repo.Create(ctx, n); err != nil {
		r.logger.Error().Err(err).Str("template", templateID).Msg("store notification")
	}
}
