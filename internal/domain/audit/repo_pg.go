package audit

import (
	"context"
	"fmt"
	"time"

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

// RepoPG stores audit entries in the action_logs table.
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

const logCols = `id, timestamp, actor, action, details`

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.Timestamp, &e.Actor, &e.Action, &e.Details)
	return e, err
}

func (r *RepoPG) Insert(ctx context.Context, entry Entry) error {
	_, err := r.conn(ctx).Exec(ctx, `INSERT INTO action_logs
		(id, timestamp, actor, action, details)
		VALUES ($1, $2, $3, $4, $5)`,
		entry.ID, entry.Timestamp, entry.Actor, entry.Action, entry.Details)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (r *RepoPG) list(ctx context.Context, q string, args ...any) ([]Entry, error) {
	rows, err := r.conn(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return out, nil
}

func (r *RepoPG) List(ctx context.Context, limit, offset int) ([]Entry, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, "SELECT COUNT(*) FROM action_logs").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit entries: %w", err)
	}

	q := fmt.Sprintf("SELECT %s FROM action_logs ORDER BY timestamp DESC LIMIT $1 OFFSET $2", logCols)
	entries, err := r.list(ctx, q, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *RepoPG) ListBetween(ctx context.Context, from, to time.Time) ([]Entry, error) {
	q := fmt.Sprintf("SELECT %s FROM action_logs WHERE timestamp >= $1 AND timestamp < $2 ORDER BY timestamp ASC", logCols)
	return r.list(ctx, q, from, to)
}
