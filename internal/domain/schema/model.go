// Package schema manages the patients table's dynamic columns: a metadata
// table describes every column (label, type, visibility, order), structural
// changes keep table and metadata in step, and read paths project only the
// currently visible columns.
package schema

import (
	"regexp"
	"strings"
	"time"
)

// DataType is the declared type of a dynamic column. It decides the physical
// column type at creation time; there is no type migration afterwards.
type DataType string

const (
	TypeText    DataType = "TEXT"
	TypeInteger DataType = "INTEGER"
	TypeReal    DataType = "REAL"
	TypeDate    DataType = "DATE"
	TypeBoolean DataType = "BOOLEAN"
)

// ParseDataType maps the caller-supplied type to a known DataType.
// Unrecognized input falls back to TEXT.
func ParseDataType(s string) DataType {
	switch DataType(strings.ToUpper(strings.TrimSpace(s))) {
	case TypeInteger:
		return TypeInteger
	case TypeReal:
		return TypeReal
	case TypeDate:
		return TypeDate
	case TypeBoolean:
		return TypeBoolean
	default:
		return TypeText
	}
}

// PhysicalType returns the Postgres column type used when a column of this
// DataType is created.
func (t DataType) PhysicalType() string {
	switch t {
	case TypeInteger:
		return "INTEGER"
	case TypeReal:
		return "REAL"
	case TypeDate:
		return "DATE"
	case TypeBoolean:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

// Numeric reports whether values of this type are coerced from text to
// numbers on patient writes.
func (t DataType) Numeric() bool {
	return t == TypeInteger || t == TypeReal
}

// ColumnDescriptor is one row of the column metadata table, describing one
// column of the patients table.
type ColumnDescriptor struct {
	ID           int       `db:"id" json:"id"`
	ColumnName   string    `db:"column_name" json:"column_name"`
	DisplayName  string    `db:"display_name" json:"display_name"`
	DataType     DataType  `db:"data_type" json:"data_type"`
	IsVisible    bool      `db:"is_visible" json:"is_visible"`
	IsRequired   bool      `db:"is_required" json:"is_required"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Column names are normalized before validation, so the pattern only needs
// the lowercase alphabet.
var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// NormalizeName turns caller input into a column identifier: trimmed,
// lowercased, spaces to underscores.
func NormalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// ValidName reports whether a normalized name is a legal column identifier.
// This is also the injection guard: only names that pass are ever
// interpolated into DDL or projections.
func ValidName(name string) bool {
	return identifierPattern.MatchString(name)
}

// essentialColumns can never be hidden or removed.
var essentialColumns = map[string]bool{
	"id":         true,
	"name":       true,
	"created_at": true,
}

// IsEssential reports whether the column is protected from hide and remove.
func IsEssential(name string) bool {
	return essentialColumns[name]
}

// DefaultColumns is the seed descriptor set for a fresh database, in
// canonical display order.
func DefaultColumns() []ColumnDescriptor {
	return []ColumnDescriptor{
		{ColumnName: "id", DisplayName: "ID", DataType: TypeInteger, IsVisible: true, IsRequired: true, DisplayOrder: 1},
		{ColumnName: "name", DisplayName: "Nom", DataType: TypeText, IsVisible: true, IsRequired: true, DisplayOrder: 2},
		{ColumnName: "adresse", DisplayName: "Adresse", DataType: TypeText, IsVisible: true, DisplayOrder: 3},
		{ColumnName: "age", DisplayName: "Âge", DataType: TypeInteger, IsVisible: true, DisplayOrder: 4},
		{ColumnName: "date_of_birth", DisplayName: "Date de naissance", DataType: TypeDate, IsVisible: true, DisplayOrder: 5},
		{ColumnName: "poids", DisplayName: "Poids", DataType: TypeReal, IsVisible: true, DisplayOrder: 6},
		{ColumnName: "taille", DisplayName: "Taille", DataType: TypeReal, IsVisible: true, DisplayOrder: 7},
		{ColumnName: "tension_arterielle", DisplayName: "Tension artérielle", DataType: TypeReal, IsVisible: true, DisplayOrder: 8},
		{ColumnName: "temperature", DisplayName: "Température", DataType: TypeReal, IsVisible: true, DisplayOrder: 9},
		{ColumnName: "hypothese_de_diagnostique", DisplayName: "Hypothèse de diagnostic", DataType: TypeText, IsVisible: true, DisplayOrder: 10},
		{ColumnName: "bilan", DisplayName: "Bilan", DataType: TypeText, IsVisible: true, DisplayOrder: 11},
		{ColumnName: "resultat_bilan", DisplayName: "Résultat bilan", DataType: TypeText, IsVisible: true, DisplayOrder: 12},
		{ColumnName: "signature", DisplayName: "Signature", DataType: TypeText, IsVisible: true, DisplayOrder: 13},
		{ColumnName: "renseignements_clinique", DisplayName: "Renseignements cliniques", DataType: TypeText, IsVisible: true, DisplayOrder: 14},
		{ColumnName: "ordonnance", DisplayName: "Ordonnance", DataType: TypeText, IsVisible: true, DisplayOrder: 15},
		{ColumnName: "created_at", DisplayName: "Date de création", DataType: TypeDate, IsVisible: true, IsRequired: true, DisplayOrder: 16},
	}
}
