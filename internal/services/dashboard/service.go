package dashboard

import (
	"context"

	"sondaj/internal/ports"
	"sondaj/internal/services/stats"
)

// Service recomputes aggregation results from the current response set on
// every call. The poller caches these for the live endpoint; this path is
// the always-fresh one.
type Service struct {
	responses ports.ResponseRepository
	motives   ports.MotiveOptionRepository
	operators []string
}

func New(responses ports.ResponseRepository, motives ports.MotiveOptionRepository, operators []string) *Service {
	return &Service{responses: responses, motives: motives, operators: operators}
}

func (s *Service) V1(ctx context.Context, operator string) (stats.ResultV1, error) {
	rs, err := s.responses.ListAll(ctx)
	if err != nil {
		return stats.ResultV1{}, err
	}
	return stats.AggregateV1(rs, operator, s.operators), nil
}

func (s *Service) V2(ctx context.Context, operator string) (stats.ResultV2, error) {
	rs, err := s.responses.ListAll(ctx)
	if err != nil {
		return stats.ResultV2{}, err
	}
	options, err := s.motives.ListAllMotiveOptions(ctx)
	if err != nil {
		return stats.ResultV2{}, err
	}
	return stats.AggregateV2(rs, operator, s.operators, options), nil
}
