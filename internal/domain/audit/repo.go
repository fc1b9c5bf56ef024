package audit

import (
	"context"
	"time"
)

// Repository stores and reads audit entries.
type Repository interface {
	Insert(ctx context.Context, entry Entry) error
	List(ctx context.Context, limit, offset int) ([]Entry, int, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]Entry, error)
}
