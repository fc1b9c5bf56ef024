package schema

import (
	"context"
	"errors"
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

const uniqueViolation = "23505"

// MetadataRepoPG stores ColumnDescriptors in the patient_columns_meta table.
type MetadataRepoPG struct {
	pool *pgxpool.Pool
}

func NewMetadataRepoPG(pool *pgxpool.Pool) *MetadataRepoPG {
	return &MetadataRepoPG{pool: pool}
}

func (r *MetadataRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const metaCols = `id, column_name, display_name, data_type, is_visible, is_required, display_order, created_at`

func scanDescriptor(row pgx.Row) (*ColumnDescriptor, error) {
	var d ColumnDescriptor
	err := row.Scan(&d.ID, &d.ColumnName, &d.DisplayName, &d.DataType,
		&d.IsVisible, &d.IsRequired, &d.DisplayOrder, &d.CreatedAt)
	return &d, err
}

func (r *MetadataRepoPG) Bootstrap(ctx context.Context) error {
	conn := r.conn(ctx)

	var count int
	if err := conn.QueryRow(ctx, "SELECT COUNT(*) FROM patient_columns_meta").Scan(&count); err != nil {
		return fmt.Errorf("count column metadata: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, d := range DefaultColumns() {
		_, err := conn.Exec(ctx, `INSERT INTO patient_columns_meta
			(column_name, display_name, data_type, is_visible, is_required, display_order)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			d.ColumnName, d.DisplayName, d.DataType, d.IsVisible, d.IsRequired, d.DisplayOrder)
		if err != nil {
			return fmt.Errorf("seed column metadata for %q: %w", d.ColumnName, err)
		}
	}
	return nil
}

func (r *MetadataRepoPG) list(ctx context.Context, q string) ([]ColumnDescriptor, error) {
	rows, err := r.conn(ctx).Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list column metadata: %w", err)
	}
	defer rows.Close()

	var out []ColumnDescriptor
	for rows.Next() {
		d, err := scanDescriptor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan column metadata: %w", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate column metadata: %w", err)
	}
	return out, nil
}

func (r *MetadataRepoPG) ListAll(ctx context.Context) ([]ColumnDescriptor, error) {
	q := fmt.Sprintf("SELECT %s FROM patient_columns_meta ORDER BY display_order, id", metaCols)
	return r.list(ctx, q)
}

func (r *MetadataRepoPG) ListVisible(ctx context.Context) ([]ColumnDescriptor, error) {
	q := fmt.Sprintf("SELECT %s FROM patient_columns_meta WHERE is_visible = TRUE ORDER BY display_order, id", metaCols)
	return r.list(ctx, q)
}

func (r *MetadataRepoPG) Get(ctx context.Context, columnName string) (*ColumnDescriptor, error) {
	q := fmt.Sprintf("SELECT %s FROM patient_columns_meta WHERE column_name = $1", metaCols)
	d, err := scanDescriptor(r.conn(ctx).QueryRow(ctx, q, columnName))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrColumnNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get column metadata %q: %w", columnName, err)
	}
	return d, nil
}

func (r *MetadataRepoPG) Insert(ctx context.Context, d ColumnDescriptor) error {
	_, err := r.conn(ctx).Exec(ctx, `INSERT INTO patient_columns_meta
		(column_name, display_name, data_type, is_visible, is_required, display_order)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		d.ColumnName, d.DisplayName, d.DataType, d.IsVisible, d.IsRequired, d.DisplayOrder)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateColumn
	}
	if err != nil {
		return fmt.Errorf("insert column metadata %q: %w", d.ColumnName, err)
	}
	return nil
}

func (r *MetadataRepoPG) Remove(ctx context.Context, columnName string) error {
	_, err := r.conn(ctx).Exec(ctx, "DELETE FROM patient_columns_meta WHERE column_name = $1", columnName)
	if err != nil {
		return fmt.Errorf("delete column metadata %q: %w", columnName, err)
	}
	return nil
}

func (r *MetadataRepoPG) SetVisibility(ctx context.Context, columnName string, visible bool) error {
	tag, err := r.conn(ctx).Exec(ctx,
		"UPDATE patient_columns_meta SET is_visible = $1 WHERE column_name = $2", visible, columnName)
	if err != nil {
		return fmt.Errorf("update column visibility %q: %w", columnName, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrColumnNotFound
	}
	return nil
}

func (r *MetadataRepoPG) MaxDisplayOrder(ctx context.Context) (int, error) {
	var max int
	err := r.conn(ctx).QueryRow(ctx,
		"SELECT COALESCE(MAX(display_order), 0) FROM patient_columns_meta").Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max display order: %w", err)
	}
	return max, nil
}

// TableMutatorPG alters the patients table. Callers validate column names
// before they reach this type; physical types come from DataType's fixed
// mapping, never from the request.
type TableMutatorPG struct {
	pool *pgxpool.Pool
}

func NewTableMutatorPG(pool *pgxpool.Pool) *TableMutatorPG {
	return &TableMutatorPG{pool: pool}
}

func (m *TableMutatorPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return m.pool
}

func (m *TableMutatorPG) AddColumn(ctx context.Context, columnName, physicalType string) error {
	q := fmt.Sprintf("ALTER TABLE patients ADD COLUMN %s %s", columnName, physicalType)
	if _, err := m.conn(ctx).Exec(ctx, q); err != nil {
		return err
	}
	return nil
}

func (m *TableMutatorPG) DropColumn(ctx context.Context, columnName string) error {
	q := fmt.Sprintf("ALTER TABLE patients DROP COLUMN %s", columnName)
	if _, err := m.conn(ctx).Exec(ctx, q); err != nil {
		return err
	}
	return nil
}

// TableInspectorPG reads the patients table's real column list from
// information_schema.
type TableInspectorPG struct {
	pool *pgxpool.Pool
}

func NewTableInspectorPG(pool *pgxpool.Pool) *TableInspectorPG {
	return &TableInspectorPG{pool: pool}
}

func (i *TableInspectorPG) ActualColumns(ctx context.Context) ([]string, error) {
	rows, err := i.pool.Query(ctx, `SELECT column_name FROM information_schema.columns
		WHERE table_name = 'patients' ORDER BY ordinal_position`)
	if err != nil {
		return nil, fmt.Errorf("inspect patients table: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan column name: %w", err)
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate column names: %w", err)
	}
	return out, nil
}
