package schema

import "context"

// MetadataRepository persists ColumnDescriptors. List results are always
// ordered ascending by display_order, so iteration order is stable even when
// order values repeat.
type MetadataRepository interface {
	// Bootstrap seeds the default descriptors when the store is empty.
	// Idempotent; runs on every process start.
	Bootstrap(ctx context.Context) error
	ListAll(ctx context.Context) ([]ColumnDescriptor, error)
	ListVisible(ctx context.Context) ([]ColumnDescriptor, error)
	Get(ctx context.Context, columnName string) (*ColumnDescriptor, error)
	// Insert creates a metadata row; the physical column must already exist.
	// Returns ErrDuplicateColumn if the name is taken.
	Insert(ctx context.Context, desc ColumnDescriptor) error
	// Remove deletes a metadata row; the physical column must already be gone.
	Remove(ctx context.Context, columnName string) error
	// SetVisibility flips the visibility flag. Returns ErrColumnNotFound if
	// no descriptor matches.
	SetVisibility(ctx context.Context, columnName string, visible bool) error
	// MaxDisplayOrder returns the current maximum display_order, 0 when the
	// store is empty.
	MaxDisplayOrder(ctx context.Context) (int, error)
}

// TableMutator applies structural changes to the patients table. Column
// names must be pre-validated by the caller; implementations interpolate
// them into DDL.
type TableMutator interface {
	AddColumn(ctx context.Context, columnName, physicalType string) error
	DropColumn(ctx context.Context, columnName string) error
}

// TableInspector reads the patients table's actual structure. Used by the
// drift verifier only.
type TableInspector interface {
	ActualColumns(ctx context.Context) ([]string, error)
}

// TxRunner executes a function transactionally so a DDL statement and its
// metadata write commit or roll back together.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}
