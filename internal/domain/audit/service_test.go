package audit

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rapha/clinic/internal/platform/notification"
)

type mockRepo struct {
	entries    []Entry
	failInsert error
}

func (m *mockRepo) Insert(_ context.Context, entry Entry) error {
	if m.failInsert != nil {
		return m.failInsert
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]Entry, int, error) {
	total := len(m.entries)
	if offset >= total {
		return []Entry{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return m.entries[offset:end], total, nil
}

func (m *mockRepo) ListBetween(_ context.Context, from, to time.Time) ([]Entry, error) {
	var out []Entry
	for _, e := range m.entries {
		if !e.Timestamp.Before(from) && e.Timestamp.Before(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

type notifyCall struct {
	recipient  string
	templateID string
	data       map[string]string
}

type mockNotifier struct {
	calls []notifyCall
}

func (m *mockNotifier) Notify(_ context.Context, recipient, templateID string, data map[string]string) {
	m.calls = append(m.calls, notifyCall{recipient, templateID, data})
}

func TestRecord(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, &mockNotifier{}, "", zerolog.Nop())

	svc.Record(context.Background(), "infirmiers", "Ajout d'un patient", "Le patient 'X' a été ajouté")

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	e := repo.entries[0]
	if e.Actor != "infirmiers" || e.Action != "Ajout d'un patient" {
		t.Errorf("unexpected entry %+v", e)
	}
	if e.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("entry must get a fresh id")
	}
	if e.Timestamp.IsZero() {
		t.Error("entry must be timestamped")
	}
}

func TestRecord_SwallowsFailure(t *testing.T) {
	repo := &mockRepo{failInsert: errors.New("connection refused")}
	svc := NewService(repo, &mockNotifier{}, "", zerolog.Nop())

	// Must not panic or propagate anything.
	svc.Record(context.Background(), "infirmiers", "login", "ok")
}

func TestDailyReport(t *testing.T) {
	day := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	repo := &mockRepo{entries: []Entry{
		{Timestamp: day.Add(9 * time.Hour), Actor: "infirmiers", Action: "login", Details: "ok"},
		{Timestamp: day.Add(10 * time.Hour), Actor: "", Action: "Ajout d'un patient", Details: "X"},
		{Timestamp: day.AddDate(0, 0, 1).Add(time.Hour), Actor: "medecins", Action: "login", Details: "next day"},
	}}
	svc := NewService(repo, &mockNotifier{}, "", zerolog.Nop())

	report, err := svc.DailyReport(context.Background(), day.Add(13*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(report, "Action Logs Report for 2026-08-31") {
		t.Errorf("missing header: %q", report)
	}
	if !strings.Contains(report, "infirmiers") || !strings.Contains(report, "unknown") {
		t.Errorf("entries missing from report: %q", report)
	}
	if strings.Contains(report, "next day") {
		t.Errorf("next day's entries must be excluded: %q", report)
	}
}

func TestSendDailyReport(t *testing.T) {
	day := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	repo := &mockRepo{entries: []Entry{
		{Timestamp: day.Add(9 * time.Hour), Actor: "infirmiers", Action: "login", Details: "ok"},
	}}
	notifier := &mockNotifier{}
	svc := NewService(repo, notifier, "chef@clinic.test", zerolog.Nop())

	if err := svc.SendDailyReport(context.Background(), day); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifier.calls) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.calls))
	}
	call := notifier.calls[0]
	if call.recipient != "chef@clinic.test" || call.templateID != notification.TemplateDailyReport {
		t.Errorf("unexpected notification %+v", call)
	}
	if call.data["date"] != "2026-08-31" || !strings.Contains(call.data["report"], "login") {
		t.Errorf("unexpected data %v", call.data)
	}
}

func TestList_Paging(t *testing.T) {
	repo := &mockRepo{}
	for i := 0; i < 5; i++ {
		repo.entries = append(repo.entries, Entry{Action: "login"})
	}
	svc := NewService(repo, &mockNotifier{}, "", zerolog.Nop())

	entries, total, err := svc.List(context.Background(), 2, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 5 || len(entries) != 1 {
		t.Errorf("expected total 5 and 1 entry, got %d and %d", total, len(entries))
	}
}
