package patient

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

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

// RepoPG stores patients in the patients table. SQL is assembled from the
// projected column list; the names come from the metadata store, which only
// ever holds validated identifiers.
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

func joinColumns(columns []string) string {
	return strings.Join(columns, ", ")
}

func rowsToRecords(rows pgx.Rows) ([]Record, error) {
	defer rows.Close()

	fields := rows.FieldDescriptions()
	records := []Record{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read patient row: %w", err)
		}
		rec := make(Record, len(fields))
		for i, f := range fields {
			rec[string(f.Name)] = values[i]
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patient rows: %w", err)
	}
	return records, nil
}

func (r *RepoPG) Search(ctx context.Context, columns []string, query string, searchAdresse bool) ([]Record, error) {
	if len(columns) == 0 {
		return []Record{}, nil
	}

	pattern := "%" + query + "%"
	q := fmt.Sprintf("SELECT %s FROM patients WHERE name ILIKE $1", joinColumns(columns))
	args := []any{pattern}
	if searchAdresse {
		q += " OR adresse ILIKE $2"
		args = append(args, pattern)
	}
	q += " ORDER BY id"

	rows, err := r.conn(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("search patients: %w", err)
	}
	return rowsToRecords(rows)
}

func (r *RepoPG) Get(ctx context.Context, columns []string, id int) (Record, error) {
	if len(columns) == 0 {
		return nil, ErrNotFound
	}

	q := fmt.Sprintf("SELECT %s FROM patients WHERE id = $1", joinColumns(columns))
	rows, err := r.conn(ctx).Query(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("get patient %d: %w", id, err)
	}
	records, err := rowsToRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records[0], nil
}

func (r *RepoPG) Insert(ctx context.Context, values map[string]any) (int, error) {
	columns := make([]string, 0, len(values))
	for name := range values {
		columns = append(columns, name)
	}
	sort.Strings(columns)

	args := make([]any, 0, len(columns))
	placeholders := make([]string, 0, len(columns))
	for i, name := range columns {
		args = append(args, values[name])
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
	}

	q := fmt.Sprintf("INSERT INTO patients (%s) VALUES (%s) RETURNING id",
		joinColumns(columns), strings.Join(placeholders, ", "))

	var id int
	if err := r.conn(ctx).QueryRow(ctx, q, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert patient: %w", err)
	}
	return id, nil
}

func (r *RepoPG) Update(ctx context.Context, id int, values map[string]any) error {
	if len(values) == 0 {
		return nil
	}

	columns := make([]string, 0, len(values))
	for name := range values {
		columns = append(columns, name)
	}
	sort.Strings(columns)

	assignments := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns)+1)
	for i, name := range columns {
		assignments = append(assignments, fmt.Sprintf("%s = $%d", name, i+1))
		args = append(args, values[name])
	}
	args = append(args, id)

	q := fmt.Sprintf("UPDATE patients SET %s WHERE id = $%d",
		strings.Join(assignments, ", "), len(args))

	tag, err := r.conn(ctx).Exec(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update patient %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RepoPG) Delete(ctx context.Context, id int) error {
	tag, err := r.conn(ctx).Exec(ctx, "DELETE FROM patients WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete patient %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RepoPG) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*),
		COALESCE(AVG(age), 0)::float8,
		COALESCE(AVG(taille), 0)::float8,
		COALESCE(AVG(poids), 0)::float8
		FROM patients`).Scan(&s.Count, &s.AvgAge, &s.AvgHeight, &s.AvgWeight)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &Stats{}, nil
		}
		return nil, fmt.Errorf("patient stats: %w", err)
	}
	return &s, nil
}
