// Package notification delivers the clinic's outbound staff emails: new
// patient alerts to the nurses' station, patient-ready alerts to the
// physicians, and the daily activity report.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// EmailSender is the interface for sending email messages.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// Template defines a reusable notification template. Placeholders use
// {{key}} syntax.
type Template struct {
	ID      string
	Subject string
	Body    string
}

// TemplateEngine holds the clinic's templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// Built-in template ids.
const (
	TemplateNewPatient   = "new-patient"
	TemplatePatientReady = "patient-ready"
	TemplateDailyReport  = "daily-report"
)

// NewTemplateEngine creates a TemplateEngine with the built-in templates
// pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: make(map[string]*Template)}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      TemplateNewPatient,
			Subject: "Nouveau patient {{patient_name}}",
			Body:    "Chers infirmiers, vous avez un nouveau patient! Faites-le entrer dès que vous êtes prêt.",
		},
		{
			ID:      TemplatePatientReady,
			Subject: "Nouveau patient {{patient_name}}",
			Body:    "Cher médecin, le dossier de {{patient_name}} a été mis à jour et il semble que votre malade est prêt.",
		},
		{
			ID:      TemplateDailyReport,
			Subject: "Daily Action Report for {{date}}",
			Body:    "{{report}}",
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

// Render looks up a template by ID and performs {{key}} replacement using
// the supplied data map. Keys present in the template but absent from data
// are left as-is.
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

// Mailer renders templates and hands the result to the sender. Delivery is
// best-effort: failures are logged and never propagated to the caller's
// primary operation.
type Mailer struct {
	sender    EmailSender
	templates *TemplateEngine
	logger    zerolog.Logger
}

func NewMailer(sender EmailSender, templates *TemplateEngine, logger zerolog.Logger) *Mailer {
	return &Mailer{sender: sender, templates: templates, logger: logger}
}

// Notify renders templateID with data and emails it to the recipient.
// A missing recipient or sender disables delivery silently so the server
// runs without mail configuration.
func (m *Mailer) Notify(ctx context.Context, recipient, templateID string, data map[string]string) {
	if m.sender == nil || recipient == "" {
		return
	}
	subject, body, err := m.templates.Render(templateID, data)
	if err != nil {
		m.logger.Error().Err(err).Str("template", templateID).Msg("render notification")
		return
	}
	if err := m.sender.SendEmail(ctx, recipient, subject, body); err != nil {
		m.logger.Error().Err(err).Str("to", recipient).Str("template", templateID).Msg("send notification")
	}
}

// EmailCall records a single call to SendEmail.
type EmailCall struct {
	To      string
	Subject string
	Body    string
}

// MockEmailSender is a test double for EmailSender.
type MockEmailSender struct {
	mu         sync.Mutex
	calls      []EmailCall
	ShouldFail bool
}

// SendEmail records the call and optionally returns an error.
func (m *MockEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, EmailCall{To: to, Subject: subject, Body: body})
	if m.ShouldFail {
		return errors.New("mock send failure")
	}
	return nil
}

// Calls returns a copy of recorded email calls.
func (m *MockEmailSender) Calls() []EmailCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EmailCall, len(m.calls))
	copy(out, m.calls)
	return out
}
