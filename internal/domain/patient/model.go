// Package patient implements the clinic's patient records. Rows are not a
// fixed struct: the column set is whatever the metadata store says it is, so
// records travel as maps and every query is projected through the current
// column list.
package patient

import (
	"strconv"
	"strings"

	"github.com/rapha/clinic/internal/domain/schema"
)

// Record is one patient row under the current column projection.
type Record map[string]any

// Stats aggregates the patient table for the stats endpoint.
type Stats struct {
	Count     int     `json:"count"`
	AvgAge    float64 `json:"avg_age"`
	AvgHeight float64 `json:"avg_height"`
	AvgWeight float64 `json:"avg_weight"`
}

// CoerceValue converts a submitted value to what the column's declared type
// can store. An empty string on any non-text column means NULL. Numeric
// columns accept JSON numbers and numeric strings.
func CoerceValue(desc schema.ColumnDescriptor, value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	s, isString := value.(string)
	if desc.DataType != schema.TypeText && isString && strings.TrimSpace(s) == "" {
		return nil, nil
	}

	if desc.DataType.Numeric() {
		switch v := value.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, &ValidationError{Field: desc.ColumnName}
			}
			return f, nil
		default:
			return nil, &ValidationError{Field: desc.ColumnName}
		}
	}

	return value, nil
}

// CoerceRecord filters the input down to known columns and coerces each
// value. The id column is never writable.
func CoerceRecord(descs map[string]schema.ColumnDescriptor, input map[string]any) (map[string]any, error) {
	values := make(map[string]any, len(input))
	for name, raw := range input {
		if name == "id" {
			continue
		}
		desc, ok := descs[name]
		if !ok {
			continue
		}
		v, err := CoerceValue(desc, raw)
		if err != nil {
			return nil, err
		}
		values[name] = v
	}
	return values, nil
}
