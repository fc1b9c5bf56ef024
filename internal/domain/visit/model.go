// Package visit tracks patient visits: one row per consultation, linked to
// the patient record.
package visit

import "time"

// Visit is one consultation of a patient.
type Visit struct {
	ID        int       `json:"id"`
	PatientID int       `json:"patient_id"`
	VisitDate time.Time `json:"visit_date"`
	Notes     string    `json:"notes"`
}
