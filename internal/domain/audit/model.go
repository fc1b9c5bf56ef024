// Package audit keeps the clinic's action trail: every login, patient
// change, and column change lands in the action_logs table, and the daily
// report digests a day's entries for email.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one recorded action.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
}
