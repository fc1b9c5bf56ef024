package visit

import "context"

type Repository interface {
	ListByPatient(ctx context.Context, patientID int) ([]Visit, error)
	Insert(ctx context.Context, v Visit) (int, error)
}
