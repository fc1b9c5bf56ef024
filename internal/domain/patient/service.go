package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rapha/clinic/internal/domain/schema"
	"github.com/rapha/clinic/internal/platform/auth"
	"github.com/rapha/clinic/internal/platform/notification"
)

// Projector supplies the current column projections. Satisfied by the schema
// service.
type Projector interface {
	VisibleColumnNames(ctx context.Context) ([]string, error)
	AllColumnNames(ctx context.Context) ([]string, error)
	Descriptors(ctx context.Context) (map[string]schema.ColumnDescriptor, error)
}

// AuditRecorder is satisfied by the audit service.
type AuditRecorder interface {
	Record(ctx context.Context, actor, action, details string)
}

// Notifier is satisfied by the notification mailer.
type Notifier interface {
	Notify(ctx context.Context, recipient, templateID string, data map[string]string)
}

// ServiceConfig carries the notification recipients and the chief physician
// account, which may open any signed record.
type ServiceConfig struct {
	NursesEmail     string
	PhysiciansEmail string
	ChiefPhysician  string
}

// Service implements patient reads and writes on top of the dynamic column
// projection.
type Service struct {
	repo   Repository
	cols   Projector
	mailer Notifier
	audit  AuditRecorder
	cfg    ServiceConfig
	logger zerolog.Logger
}

func NewService(repo Repository, cols Projector, mailer Notifier, audit AuditRecorder, cfg ServiceConfig, logger zerolog.Logger) *Service {
	return &Service{repo: repo, cols: cols, mailer: mailer, audit: audit, cfg: cfg, logger: logger}
}

// Search lists patients matching q on name or adresse, projected to the
// visible columns. With every column hidden there is nothing to select, so
// the result is empty without touching the table. The adresse clause applies
// while the column physically exists, hidden or not.
func (s *Service) Search(ctx context.Context, q string) ([]Record, error) {
	columns, err := s.cols.VisibleColumnNames(ctx)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return []Record{}, nil
	}

	all, err := s.cols.AllColumnNames(ctx)
	if err != nil {
		return nil, err
	}
	searchAdresse := false
	for _, name := range all {
		if name == "adresse" {
			searchAdresse = true
		}
	}
	return s.repo.Search(ctx, columns, q, searchAdresse)
}

// Get returns the full record. Physicians may only open records that are
// unsigned, signed by themselves, or anything if they are the chief.
func (s *Service) Get(ctx context.Context, actor auth.Actor, id int) (Record, error) {
	columns, err := s.cols.AllColumnNames(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := s.repo.Get(ctx, columns, id)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor.Username, "Patient sélectionné",
		fmt.Sprintf("Patient avec ID %d selectionné.", id))

	if actor.Role != auth.RolePhysician {
		return rec, nil
	}
	signature, _ := rec["signature"].(string)
	if signature == "" || signature == actor.DisplayName() || actor.Username == s.cfg.ChiefPhysician {
		return rec, nil
	}
	return nil, &SignatureError{Signature: signature}
}

// Create inserts a new patient from the submitted values. Unknown fields are
// dropped, values are coerced to their declared types, and a record created
// by a physician is signed with their name. The nurses' station is notified.
func (s *Service) Create(ctx context.Context, actor auth.Actor, input map[string]any) (int, error) {
	name := inputName(input)
	if name == "" {
		return 0, ErrNameRequired
	}

	descs, err := s.cols.Descriptors(ctx)
	if err != nil {
		return 0, err
	}
	values, err := CoerceRecord(descs, input)
	if err != nil {
		return 0, err
	}

	values["created_at"] = time.Now()
	if actor.Role == auth.RolePhysician {
		if _, ok := descs["signature"]; ok {
			values["signature"] = actor.DisplayName()
		}
	}

	id, err := s.repo.Insert(ctx, values)
	if err != nil {
		return 0, err
	}

	s.audit.Record(ctx, actor.Username, "Ajout d'un patient",
		fmt.Sprintf("Le patient '%s' a été ajouté", name))
	go s.mailer.Notify(context.WithoutCancel(ctx), s.cfg.NursesEmail,
		notification.TemplateNewPatient, map[string]string{"patient_name": name})
	return id, nil
}

// Update overwrites the submitted fields on an existing patient. A filled-in
// temperature tells the physicians their patient is ready.
func (s *Service) Update(ctx context.Context, actor auth.Actor, id int, input map[string]any) error {
	name := inputName(input)
	if name == "" {
		return ErrNameRequired
	}

	descs, err := s.cols.Descriptors(ctx)
	if err != nil {
		return err
	}
	values, err := CoerceRecord(descs, input)
	if err != nil {
		return err
	}

	if err := s.repo.Update(ctx, id, values); err != nil {
		return err
	}

	s.audit.Record(ctx, actor.Username, "modification patient",
		fmt.Sprintf("Patient avec ID %d a été modifié", id))
	if values["temperature"] != nil {
		go s.mailer.Notify(context.WithoutCancel(ctx), s.cfg.PhysiciansEmail,
			notification.TemplatePatientReady, map[string]string{"patient_name": name})
	}
	return nil
}

// Delete removes a patient. The record is read first so the audit trail
// keeps what was deleted. Deleting an absent row is a no-op.
func (s *Service) Delete(ctx context.Context, actor auth.Actor, id int) error {
	columns, err := s.cols.AllColumnNames(ctx)
	if err != nil {
		return err
	}
	rec, err := s.repo.Get(ctx, columns, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	name, _ := rec["name"].(string)
	s.audit.Record(ctx, actor.Username, "Suppression d'un patient",
		fmt.Sprintf("Le patient avec l'identifiant %d (%s) a été supprimé", id, name))
	return nil
}

// Stats aggregates the patient table.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}

func inputName(input map[string]any) string {
	name, _ := input["name"].(string)
	return strings.TrimSpace(name)
}
