package schema

import (
	"context"
	"fmt"
	"io"
)

// DriftReport is the result of comparing the metadata store against the
// patients table's actual structure.
type DriftReport struct {
	TableColumns          []string `json:"table_columns"`
	MetaColumns           []string `json:"meta_columns"`
	MissingInMetadata     []string `json:"missing_in_metadata"`
	MissingInTable        []string `json:"missing_in_table"`
	UnprotectedEssentials []string `json:"unprotected_essentials"`
}

// Clean reports whether table and metadata agree and every essential column
// is marked required.
func (r *DriftReport) Clean() bool {
	return len(r.MissingInMetadata) == 0 && len(r.MissingInTable) == 0 && len(r.UnprotectedEssentials) == 0
}

// Verifier detects schema drift. It is strictly read-only: it reports,
// repair is an administrative action.
type Verifier struct {
	meta      MetadataRepository
	inspector TableInspector
}

func NewVerifier(meta MetadataRepository, inspector TableInspector) *Verifier {
	return &Verifier{meta: meta, inspector: inspector}
}

func (v *Verifier) Verify(ctx context.Context) (*DriftReport, error) {
	actual, err := v.inspector.ActualColumns(ctx)
	if err != nil {
		return nil, err
	}
	descs, err := v.meta.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	actualSet := make(map[string]bool, len(actual))
	for _, name := range actual {
		actualSet[name] = true
	}

	report := &DriftReport{TableColumns: actual}
	metaSet := make(map[string]bool, len(descs))
	for _, d := range descs {
		report.MetaColumns = append(report.MetaColumns, d.ColumnName)
		metaSet[d.ColumnName] = true
		if !actualSet[d.ColumnName] {
			report.MissingInTable = append(report.MissingInTable, d.ColumnName)
		}
		if IsEssential(d.ColumnName) && !d.IsRequired {
			report.UnprotectedEssentials = append(report.UnprotectedEssentials, d.ColumnName)
		}
	}
	for _, name := range actual {
		if !metaSet[name] {
			report.MissingInMetadata = append(report.MissingInMetadata, name)
		}
	}
	return report, nil
}

// Print writes a human-readable drift report, for the verify subcommand.
func (r *DriftReport) Print(w io.Writer) {
	fmt.Fprintf(w, "patients table columns: %d, metadata descriptors: %d\n",
		len(r.TableColumns), len(r.MetaColumns))
	if len(r.MissingInMetadata) > 0 {
		fmt.Fprintf(w, "columns in patients table but not in metadata: %v\n", r.MissingInMetadata)
	}
	if len(r.MissingInTable) > 0 {
		fmt.Fprintf(w, "columns in metadata but not in patients table: %v\n", r.MissingInTable)
	}
	if len(r.UnprotectedEssentials) > 0 {
		fmt.Fprintf(w, "essential columns not marked required: %v\n", r.UnprotectedEssentials)
	}
	if r.Clean() {
		fmt.Fprintln(w, "table and metadata are consistent")
	}
}
