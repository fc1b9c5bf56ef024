package schema

import (
	"context"
	"errors"
	"fmt"
)

// Service is the column-management core: it validates requests, applies the
// physical change and the metadata change together, and serves the column
// projections the patient read/write paths are built from.
type Service struct {
	meta  MetadataRepository
	table TableMutator
	tx    TxRunner
}

func NewService(meta MetadataRepository, table TableMutator, tx TxRunner) *Service {
	return &Service{meta: meta, table: table, tx: tx}
}

// Bootstrap seeds the metadata store on first run. Safe to call on every
// start.
func (s *Service) Bootstrap(ctx context.Context) error {
	return s.meta.Bootstrap(ctx)
}

func (s *Service) ListAll(ctx context.Context) ([]ColumnDescriptor, error) {
	return s.meta.ListAll(ctx)
}

func (s *Service) ListVisible(ctx context.Context) ([]ColumnDescriptor, error) {
	return s.meta.ListVisible(ctx)
}

// AddColumn creates a new dynamic column: normalized and validated name,
// fixed type mapping, ALTER TABLE plus descriptor insert in one transaction.
// The new descriptor is visible, not required, and ordered after the current
// maximum.
func (s *Service) AddColumn(ctx context.Context, columnName, displayName, dataType string) (*ColumnDescriptor, error) {
	name := NormalizeName(columnName)
	if !ValidName(name) {
		return nil, ErrInvalidIdentifier
	}

	if _, err := s.meta.Get(ctx, name); err == nil {
		return nil, ErrDuplicateColumn
	} else if !errors.Is(err, ErrColumnNotFound) {
		return nil, err
	}

	dt := ParseDataType(dataType)
	desc := ColumnDescriptor{
		ColumnName:  name,
		DisplayName: displayName,
		DataType:    dt,
		IsVisible:   true,
		IsRequired:  false,
	}

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.table.AddColumn(ctx, name, dt.PhysicalType()); err != nil {
			return &SchemaError{Op: "add", Column: name, Err: err}
		}
		maxOrder, err := s.meta.MaxDisplayOrder(ctx)
		if err != nil {
			return err
		}
		desc.DisplayOrder = maxOrder + 1
		return s.meta.Insert(ctx, desc)
	})
	if err != nil {
		return nil, err
	}
	return &desc, nil
}

// RemoveColumn drops a dynamic column and its descriptor in one transaction.
// The name goes through the same normalize-and-validate gate as AddColumn
// before it can reach DDL, and essential columns are rejected before
// anything is touched.
func (s *Service) RemoveColumn(ctx context.Context, columnName string) error {
	name := NormalizeName(columnName)
	if !ValidName(name) {
		return ErrInvalidIdentifier
	}
	if IsEssential(name) {
		return ErrProtectedColumn
	}

	return s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.table.DropColumn(ctx, name); err != nil {
			return &SchemaError{Op: "drop", Column: name, Err: err}
		}
		return s.meta.Remove(ctx, name)
	})
}

// ToggleVisibility shows or hides a column. Hiding an essential column is
// rejected; an unknown column surfaces ErrColumnNotFound.
func (s *Service) ToggleVisibility(ctx context.Context, columnName string, visible bool) error {
	name := NormalizeName(columnName)
	if !ValidName(name) {
		return ErrInvalidIdentifier
	}
	if !visible && IsEssential(name) {
		return ErrProtectedColumn
	}
	return s.meta.SetVisibility(ctx, name, visible)
}

// VisibleColumnNames is the projection used by listing and search. An empty
// result means callers must short-circuit rather than issue a column-less
// query.
func (s *Service) VisibleColumnNames(ctx context.Context) ([]string, error) {
	descs, err := s.meta.ListVisible(ctx)
	if err != nil {
		return nil, fmt.Errorf("visible columns: %w", err)
	}
	return columnNames(descs), nil
}

// AllColumnNames is the projection used by full-record reads and updates.
func (s *Service) AllColumnNames(ctx context.Context) ([]string, error) {
	descs, err := s.meta.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("all columns: %w", err)
	}
	return columnNames(descs), nil
}

// Descriptors returns the full descriptor set keyed by column name, for
// callers that need declared types (value coercion on patient writes).
func (s *Service) Descriptors(ctx context.Context) (map[string]ColumnDescriptor, error) {
	descs, err := s.meta.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("column descriptors: %w", err)
	}
	byName := make(map[string]ColumnDescriptor, len(descs))
	for _, d := range descs {
		byName[d.ColumnName] = d
	}
	return byName, nil
}

func columnNames(descs []ColumnDescriptor) []string {
	names := make([]string, len(descs))
	for i, d := range descs {
		names[i] = d.ColumnName
	}
	return names
}
