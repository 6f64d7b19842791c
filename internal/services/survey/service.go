package survey

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sondaj/internal/domain"
	"sondaj/internal/ports"
)

// Service orchestrates interview submissions: validation, the one-survey-
// per-firm guard and the motive-option catalogue of the v2 form.
type Service struct {
	responses ports.ResponseRepository
	motives   ports.MotiveOptionRepository
}

func New(responses ports.ResponseRepository, motives ports.MotiveOptionRepository) *Service {
	return &Service{responses: responses, motives: motives}
}

// Submit stores one finished or terminated interview. The row is immutable
// after this point.
func (s *Service) Submit(ctx context.Context, r *domain.Response) (int64, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}
	r.Operator = strings.ToLower(strings.TrimSpace(r.Operator))
	return s.responses.Insert(ctx, r)
}

// AlreadySurveyed reports whether a survey attempt exists for the company.
// Operators check this before dialing; a hit blocks a second survey.
func (s *Service) AlreadySurveyed(ctx context.Context, cui string) (bool, error) {
	return s.responses.ExistsByCUI(ctx, strings.TrimSpace(cui))
}

// AddMotiveOption inserts an operator-added motive. A label already present
// in the category (compared case-insensitively) resolves to the existing
// option instead of failing, so two operators adding the same wording mid-
// interview converge on one row.
func (s *Service) AddMotiveOption(ctx context.Context, o domain.MotiveOption) (domain.MotiveOption, error) {
	o.Label = strings.TrimSpace(o.Label)
	if err := o.Validate(); err != nil {
		return domain.MotiveOption{}, err
	}
	id, err := s.motives.InsertMotiveOption(ctx, o)
	if err == nil {
		o.ID = id
		return o, nil
	}
	if !errors.Is(err, ports.ErrDuplicate) {
		return domain.MotiveOption{}, err
	}
	existing, err := s.motives.ListByCategory(ctx, o.Category)
	if err != nil {
		return domain.MotiveOption{}, err
	}
	want := strings.ToLower(o.Label)
	for _, opt := range existing {
		if strings.ToLower(strings.TrimSpace(opt.Label)) == want {
			return opt, nil
		}
	}
	return domain.MotiveOption{}, fmt.Errorf("duplicate option %q but existing row not found", o.Label)
}

// MotiveOptions lists the selectable motives of one category.
func (s *Service) MotiveOptions(ctx context.Context, c domain.MotiveCategory) ([]domain.MotiveOption, error) {
	if err := domain.ValidateMotiveCategory(c); err != nil {
		return nil, err
	}
	return s.motives.ListByCategory(ctx, c)
}
