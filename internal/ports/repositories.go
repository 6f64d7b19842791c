package ports

import (
	"context"

	"sondaj/internal/domain"
)

// ResponseRepository stores survey responses and returns the full set for
// aggregation, ordered by creation time ascending.
type ResponseRepository interface {
	Insert(ctx context.Context, r *domain.Response) (id int64, err error)
	ListAll(ctx context.Context) ([]domain.Response, error)
	ExistsByCUI(ctx context.Context, cui string) (bool, error)
}

// MotiveOptionRepository manages the selectable motive options of the v2
// form. InsertMotiveOption reports ErrDuplicate when the label already
// exists in the category (labels are unique per category, case preserved).
type MotiveOptionRepository interface {
	InsertMotiveOption(ctx context.Context, o domain.MotiveOption) (id int64, err error)
	ListByCategory(ctx context.Context, c domain.MotiveCategory) ([]domain.MotiveOption, error)
	ListAllMotiveOptions(ctx context.Context) ([]domain.MotiveOption, error)
}
