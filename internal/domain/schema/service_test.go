package schema

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"
)

// -- Mocks --

type mockMetaRepo struct {
	descs map[string]ColumnDescriptor
}

func newMockMetaRepo() *mockMetaRepo {
	return &mockMetaRepo{descs: make(map[string]ColumnDescriptor)}
}

func (m *mockMetaRepo) Bootstrap(_ context.Context) error {
	if len(m.descs) > 0 {
		return nil
	}
	for _, d := range DefaultColumns() {
		d.CreatedAt = time.Now()
		m.descs[d.ColumnName] = d
	}
	return nil
}

func (m *mockMetaRepo) sorted() []ColumnDescriptor {
	out := make([]ColumnDescriptor, 0, len(m.descs))
	for _, d := range m.descs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out
}

func (m *mockMetaRepo) ListAll(_ context.Context) ([]ColumnDescriptor, error) {
	return m.sorted(), nil
}

func (m *mockMetaRepo) ListVisible(_ context.Context) ([]ColumnDescriptor, error) {
	var out []ColumnDescriptor
	for _, d := range m.sorted() {
		if d.IsVisible {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockMetaRepo) Get(_ context.Context, name string) (*ColumnDescriptor, error) {
	d, ok := m.descs[name]
	if !ok {
		return nil, ErrColumnNotFound
	}
	return &d, nil
}

func (m *mockMetaRepo) Insert(_ context.Context, d ColumnDescriptor) error {
	if _, ok := m.descs[d.ColumnName]; ok {
		return ErrDuplicateColumn
	}
	d.CreatedAt = time.Now()
	m.descs[d.ColumnName] = d
	return nil
}

func (m *mockMetaRepo) Remove(_ context.Context, name string) error {
	delete(m.descs, name)
	return nil
}

func (m *mockMetaRepo) SetVisibility(_ context.Context, name string, visible bool) error {
	d, ok := m.descs[name]
	if !ok {
		return ErrColumnNotFound
	}
	d.IsVisible = visible
	m.descs[name] = d
	return nil
}

func (m *mockMetaRepo) MaxDisplayOrder(_ context.Context) (int, error) {
	max := 0
	for _, d := range m.descs {
		if d.DisplayOrder > max {
			max = d.DisplayOrder
		}
	}
	return max, nil
}

type mockTableMutator struct {
	added   []string
	dropped []string
	failAdd error
}

func (m *mockTableMutator) AddColumn(_ context.Context, name, _ string) error {
	if m.failAdd != nil {
		return m.failAdd
	}
	m.added = append(m.added, name)
	return nil
}

func (m *mockTableMutator) DropColumn(_ context.Context, name string) error {
	m.dropped = append(m.dropped, name)
	return nil
}

type passthroughTx struct{}

func (passthroughTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService(t *testing.T) (*Service, *mockMetaRepo, *mockTableMutator) {
	t.Helper()
	meta := newMockMetaRepo()
	table := &mockTableMutator{}
	svc := NewService(meta, table, passthroughTx{})
	if err := svc.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return svc, meta, table
}

// -- Tests --

func TestBootstrap_Idempotent(t *testing.T) {
	svc, meta, _ := newTestService(t)
	ctx := context.Background()

	before, _ := meta.ListAll(ctx)
	if err := svc.Bootstrap(ctx); err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
	after, _ := meta.ListAll(ctx)

	if len(before) != len(after) {
		t.Errorf("bootstrap not idempotent: %d then %d descriptors", len(before), len(after))
	}
}

func TestAddColumn_RoundTrip(t *testing.T) {
	svc, _, table := newTestService(t)
	ctx := context.Background()

	desc, err := svc.AddColumn(ctx, "Allergies", "Allergies", "TEXT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if desc.ColumnName != "allergies" {
		t.Errorf("expected normalized name allergies, got %q", desc.ColumnName)
	}
	if !desc.IsVisible || desc.IsRequired {
		t.Errorf("new column should be visible and not required: %+v", desc)
	}
	if desc.DisplayOrder != 17 {
		t.Errorf("expected display order 17 (max 16 + 1), got %d", desc.DisplayOrder)
	}
	if len(table.added) != 1 || table.added[0] != "allergies" {
		t.Errorf("expected physical add of allergies, got %v", table.added)
	}

	all, _ := svc.ListAll(ctx)
	found := false
	for _, d := range all {
		if d.ColumnName == "allergies" {
			found = true
		}
	}
	if !found {
		t.Error("allergies missing from ListAll after add")
	}
}

func TestAddColumn_InvalidIdentifier(t *testing.T) {
	svc, _, table := newTestService(t)

	for _, name := range []string{"2fast", "bad-name", "drop;table", ""} {
		if _, err := svc.AddColumn(context.Background(), name, "Label", "TEXT"); !errors.Is(err, ErrInvalidIdentifier) {
			t.Errorf("AddColumn(%q): expected ErrInvalidIdentifier, got %v", name, err)
		}
	}
	if len(table.added) != 0 {
		t.Errorf("no physical column may be added for invalid names, got %v", table.added)
	}
}

func TestAddColumn_NormalizesBeforeValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	// "Blood Type" is invalid raw but normalizes to blood_type.
	desc, err := svc.AddColumn(context.Background(), "  Blood Type ", "Groupe sanguin", "TEXT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if desc.ColumnName != "blood_type" {
		t.Errorf("expected blood_type, got %q", desc.ColumnName)
	}
}

func TestAddColumn_Duplicate(t *testing.T) {
	svc, _, table := newTestService(t)
	ctx := context.Background()

	if _, err := svc.AddColumn(ctx, "notes", "Notes", "TEXT"); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if _, err := svc.AddColumn(ctx, "notes", "Notes", "TEXT"); !errors.Is(err, ErrDuplicateColumn) {
		t.Errorf("expected ErrDuplicateColumn, got %v", err)
	}
	// Seeded column names are taken too.
	if _, err := svc.AddColumn(ctx, "adresse", "Adresse", "TEXT"); !errors.Is(err, ErrDuplicateColumn) {
		t.Errorf("expected ErrDuplicateColumn for seeded name, got %v", err)
	}
	if len(table.added) != 1 {
		t.Errorf("expected exactly one physical add, got %v", table.added)
	}
}

func TestAddColumn_UnknownTypeDefaultsToText(t *testing.T) {
	svc, _, _ := newTestService(t)

	desc, err := svc.AddColumn(context.Background(), "misc", "Misc", "JSONB")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if desc.DataType != TypeText {
		t.Errorf("expected TEXT fallback, got %q", desc.DataType)
	}
}

func TestAddColumn_DDLFailureLeavesNoDescriptor(t *testing.T) {
	meta := newMockMetaRepo()
	table := &mockTableMutator{failAdd: errors.New("disk full")}
	svc := NewService(meta, table, passthroughTx{})
	ctx := context.Background()
	if err := svc.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	_, err := svc.AddColumn(ctx, "notes", "Notes", "TEXT")
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if se.Op != "add" || se.Column != "notes" {
		t.Errorf("unexpected SchemaError fields: %+v", se)
	}
	if _, err := meta.Get(ctx, "notes"); !errors.Is(err, ErrColumnNotFound) {
		t.Error("descriptor must not exist after DDL failure")
	}
}

func TestRemoveColumn_InvalidIdentifier(t *testing.T) {
	svc, meta, table := newTestService(t)

	names := []string{
		`allergies" CASCADE; DROP TABLE patients; --`,
		"bad;name",
		"col-name",
		"2cols",
		"",
	}
	for _, name := range names {
		if err := svc.RemoveColumn(context.Background(), name); !errors.Is(err, ErrInvalidIdentifier) {
			t.Errorf("RemoveColumn(%q): expected ErrInvalidIdentifier, got %v", name, err)
		}
	}
	if len(table.dropped) != 0 {
		t.Errorf("no unvalidated name may reach DDL, got %v", table.dropped)
	}
	if all, _ := meta.ListAll(context.Background()); len(all) != 16 {
		t.Errorf("metadata must be untouched, got %d descriptors", len(all))
	}
}

func TestRemoveColumn_NormalizesBeforeProtection(t *testing.T) {
	svc, meta, table := newTestService(t)

	// Unquoted identifiers fold to lowercase in Postgres, so "Name" would
	// drop the essential name column if it slipped past unnormalized.
	for _, name := range []string{"Name", " Created At ", "ID"} {
		if err := svc.RemoveColumn(context.Background(), name); !errors.Is(err, ErrProtectedColumn) {
			t.Errorf("RemoveColumn(%q): expected ErrProtectedColumn, got %v", name, err)
		}
	}
	if len(table.dropped) != 0 {
		t.Errorf("no essential column may be dropped, got %v", table.dropped)
	}
	if _, err := meta.Get(context.Background(), "name"); err != nil {
		t.Errorf("name descriptor must survive, got %v", err)
	}
}

func TestRemoveColumn_Protected(t *testing.T) {
	svc, _, table := newTestService(t)

	for _, name := range []string{"id", "name", "created_at"} {
		if err := svc.RemoveColumn(context.Background(), name); !errors.Is(err, ErrProtectedColumn) {
			t.Errorf("RemoveColumn(%q): expected ErrProtectedColumn, got %v", name, err)
		}
	}
	if len(table.dropped) != 0 {
		t.Errorf("no essential column may be dropped, got %v", table.dropped)
	}
}

func TestRemoveColumn_RoundTrip(t *testing.T) {
	svc, _, table := newTestService(t)
	ctx := context.Background()

	if _, err := svc.AddColumn(ctx, "allergies", "Allergies", "TEXT"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.RemoveColumn(ctx, "allergies"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(table.dropped) != 1 || table.dropped[0] != "allergies" {
		t.Errorf("expected physical drop of allergies, got %v", table.dropped)
	}

	names, _ := svc.AllColumnNames(ctx)
	for _, n := range names {
		if n == "allergies" {
			t.Error("allergies still present after remove")
		}
	}
}

func TestToggleVisibility_HideEssentialRejected(t *testing.T) {
	svc, _, _ := newTestService(t)

	for _, name := range []string{"id", "name", "created_at", "Name", " ID "} {
		if err := svc.ToggleVisibility(context.Background(), name, false); !errors.Is(err, ErrProtectedColumn) {
			t.Errorf("hide %q: expected ErrProtectedColumn, got %v", name, err)
		}
	}
	// Showing an essential column is always fine.
	if err := svc.ToggleVisibility(context.Background(), "name", true); err != nil {
		t.Errorf("show name: unexpected error %v", err)
	}
}

func TestToggleVisibility_Unknown(t *testing.T) {
	svc, _, _ := newTestService(t)
	if err := svc.ToggleVisibility(context.Background(), "ghost", false); !errors.Is(err, ErrColumnNotFound) {
		t.Errorf("expected ErrColumnNotFound, got %v", err)
	}
}

func TestToggleVisibility_HiddenLeavesAllList(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.ToggleVisibility(ctx, "adresse", false); err != nil {
		t.Fatalf("hide adresse: %v", err)
	}

	visible, _ := svc.VisibleColumnNames(ctx)
	for _, n := range visible {
		if n == "adresse" {
			t.Error("adresse still visible after hide")
		}
	}

	all, _ := svc.AllColumnNames(ctx)
	found := false
	for _, n := range all {
		if n == "adresse" {
			found = true
		}
	}
	if !found {
		t.Error("adresse must stay in the full column list when hidden")
	}
}

func TestVisibleIsSubsetOfAll(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_ = svc.ToggleVisibility(ctx, "bilan", false)
	_ = svc.ToggleVisibility(ctx, "ordonnance", false)

	all, _ := svc.ListAll(ctx)
	visible, _ := svc.ListVisible(ctx)

	allSet := make(map[string]bool)
	prevOrder := -1
	for _, d := range all {
		allSet[d.ColumnName] = true
		if d.DisplayOrder < prevOrder {
			t.Error("ListAll not ordered by display_order")
		}
		prevOrder = d.DisplayOrder
	}

	prevOrder = -1
	for _, d := range visible {
		if !allSet[d.ColumnName] {
			t.Errorf("visible column %q missing from ListAll", d.ColumnName)
		}
		if d.DisplayOrder < prevOrder {
			t.Error("ListVisible not ordered by display_order")
		}
		prevOrder = d.DisplayOrder
	}
}

func TestDescriptors_KeyedByName(t *testing.T) {
	svc, _, _ := newTestService(t)

	byName, err := svc.Descriptors(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if byName["age"].DataType != TypeInteger {
		t.Errorf("expected age to be INTEGER, got %q", byName["age"].DataType)
	}
	if byName["poids"].DataType != TypeReal {
		t.Errorf("expected poids to be REAL, got %q", byName["poids"].DataType)
	}
}
