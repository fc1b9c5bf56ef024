package visit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrDateRequired = errors.New("visit date is required")

// AuditRecorder is satisfied by the audit service.
type AuditRecorder interface {
	Record(ctx context.Context, actor, action, details string)
}

type Service struct {
	repo  Repository
	audit AuditRecorder
}

func NewService(repo Repository, audit AuditRecorder) *Service {
	return &Service{repo: repo, audit: audit}
}

func (s *Service) ListByPatient(ctx context.Context, patientID int) ([]Visit, error) {
	visits, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if visits == nil {
		visits = []Visit{}
	}
	return visits, nil
}

func (s *Service) Create(ctx context.Context, actor string, patientID int, visitDate time.Time, notes string) (*Visit, error) {
	if visitDate.IsZero() {
		return nil, ErrDateRequired
	}

	v := Visit{PatientID: patientID, VisitDate: visitDate, Notes: notes}
	id, err := s.repo.Insert(ctx, v)
	if err != nil {
		return nil, err
	}
	v.ID = id

	s.audit.Record(ctx, actor, "Ajout d'une visite",
		fmt.Sprintf("Visite du %s pour le patient %d", visitDate.Format("2006-01-02"), patientID))
	return &v, nil
}
