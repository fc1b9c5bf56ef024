package visit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rapha/clinic/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// RepoPG stores visits in the visits table.
type RepoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) *RepoPG {
	return &RepoPG{pool: pool}
}

func (r *RepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *RepoPG) ListByPatient(ctx context.Context, patientID int) ([]Visit, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT id, patient_id, visit_date, COALESCE(notes, '')
		FROM visits WHERE patient_id = $1 ORDER BY visit_date DESC, id DESC`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list visits for patient %d: %w", patientID, err)
	}
	defer rows.Close()

	var out []Visit
	for rows.Next() {
		var v Visit
		if err := rows.Scan(&v.ID, &v.PatientID, &v.VisitDate, &v.Notes); err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate visits: %w", err)
	}
	return out, nil
}

func (r *RepoPG) Insert(ctx context.Context, v Visit) (int, error) {
	var id int
	err := r.conn(ctx).QueryRow(ctx, `INSERT INTO visits (patient_id, visit_date, notes)
		VALUES ($1, $2, $3) RETURNING id`, v.PatientID, v.VisitDate, v.Notes).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert visit: %w", err)
	}
	return id, nil
}
