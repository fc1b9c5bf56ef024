package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rapha/clinic/internal/platform/notification"
)

// Notifier is satisfied by the notification mailer.
type Notifier interface {
	Notify(ctx context.Context, recipient, templateID string, data map[string]string)
}

// Service records actions and builds the daily report. Recording is
// best-effort: the trail must never fail the operation it describes.
type Service struct {
	repo        Repository
	mailer      Notifier
	reportEmail string
	logger      zerolog.Logger
}

func NewService(repo Repository, mailer Notifier, reportEmail string, logger zerolog.Logger) *Service {
	return &Service{repo: repo, mailer: mailer, reportEmail: reportEmail, logger: logger}
}

// Record appends an entry to the trail. Failures are logged and swallowed.
func (s *Service) Record(ctx context.Context, actor, action, details string) {
	entry := Entry{
		ID:        uuid.New(),
		Timestamp: time.Now(),
		Actor:     actor,
		Action:    action,
		Details:   details,
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		s.logger.Error().Err(err).Str("action", action).Msg("record audit entry")
	}
}

// List returns a page of the trail, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Entry, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// DailyReport builds the text digest of one day's entries.
func (s *Service) DailyReport(ctx context.Context, day time.Time) (string, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	to := from.AddDate(0, 0, 1)

	entries, err := s.repo.ListBetween(ctx, from, to)
	if err != nil {
		return "", fmt.Errorf("daily report: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Action Logs Report for %s\n\n", from.Format("2006-01-02"))
	for _, e := range entries {
		actor := e.Actor
		if actor == "" {
			actor = "unknown"
		}
		fmt.Fprintf(&b, "%s | Acteur: %s | Action: %s | Details: %s\n",
			e.Timestamp.Format("15:04:05"), actor, e.Action, e.Details)
	}
	return b.String(), nil
}

// SendDailyReport emails the digest for day to the configured recipient.
func (s *Service) SendDailyReport(ctx context.Context, day time.Time) error {
	report, err := s.DailyReport(ctx, day)
	if err != nil {
		return err
	}
	s.mailer.Notify(ctx, s.reportEmail, notification.TemplateDailyReport, map[string]string{
		"date":   day.Format("2006-01-02"),
		"report": report,
	})
	return nil
}
