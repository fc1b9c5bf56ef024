package notification

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestRender_ReplacesPlaceholders(t *testing.T) {
	e := NewTemplateEngine()
	subject, _, err := e.Render(TemplateNewPatient, map[string]string{"patient_name": "Jane Doe"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subject != "Nouveau patient Jane Doe" {
		t.Errorf("unexpected subject %q", subject)
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	e := NewTemplateEngine()
	if _, _, err := e.Render("no-such-template", nil); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestRender_MissingKeysLeftAsIs(t *testing.T) {
	e := NewTemplateEngine()
	subject, _, err := e.Render(TemplateNewPatient, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(subject, "{{patient_name}}") {
		t.Errorf("expected untouched placeholder, got %q", subject)
	}
}

func TestRegisterTemplate_Overrides(t *testing.T) {
	e := NewTemplateEngine()
	e.RegisterTemplate(Template{ID: TemplateNewPatient, Subject: "custom", Body: "b"})
	subject, _, err := e.Render(TemplateNewPatient, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subject != "custom" {
		t.Errorf("expected overridden subject, got %q", subject)
	}
}

func TestMailer_SendsRenderedMail(t *testing.T) {
	sender := &MockEmailSender{}
	m := NewMailer(sender, NewTemplateEngine(), zerolog.New(os.Stderr).Level(zerolog.Disabled))

	m.Notify(context.Background(), "nurses@clinic.example", TemplateNewPatient,
		map[string]string{"patient_name": "Jane"})

	calls := sender.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 send, got %d", len(calls))
	}
	if calls[0].To != "nurses@clinic.example" {
		t.Errorf("unexpected recipient %q", calls[0].To)
	}
	if !strings.Contains(calls[0].Subject, "Jane") {
		t.Errorf("expected rendered subject, got %q", calls[0].Subject)
	}
}

func TestMailer_SwallowsSendFailure(t *testing.T) {
	sender := &MockEmailSender{ShouldFail: true}
	m := NewMailer(sender, NewTemplateEngine(), zerolog.New(os.Stderr).Level(zerolog.Disabled))

	// Must not panic or propagate anything.
	m.Notify(context.Background(), "nurses@clinic.example", TemplateNewPatient, nil)

	if len(sender.Calls()) != 1 {
		t.Error("expected the send to have been attempted")
	}
}

func TestMailer_NoRecipientIsNoop(t *testing.T) {
	sender := &MockEmailSender{}
	m := NewMailer(sender, NewTemplateEngine(), zerolog.New(os.Stderr).Level(zerolog.Disabled))

	m.Notify(context.Background(), "", TemplateNewPatient, nil)

	if len(sender.Calls()) != 0 {
		t.Error("expected no send without a recipient")
	}
}
