package usage

import "context"

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, r *Run) error
	Paginate(ctx context.Context, page, pageSize int, f Filter) (PaginatedResult, error)
	Count(ctx context.Context, f Filter) (int64, error)
	EnsureSchema(ctx context.Context) error
}
