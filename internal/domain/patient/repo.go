package patient

import "context"

// Repository is the dynamic patient store. Every read takes the column
// projection to select; every write takes a map already filtered and coerced
// by the service.
type Repository interface {
	Search(ctx context.Context, columns []string, query string, searchAdresse bool) ([]Record, error)
	Get(ctx context.Context, columns []string, id int) (Record, error)
	Insert(ctx context.Context, values map[string]any) (int, error)
	Update(ctx context.Context, id int, values map[string]any) error
	Delete(ctx context.Context, id int) error
	Stats(ctx context.Context) (*Stats, error)
}
