package ports

import (
	"context"

	"sondaj/internal/domain"
	"sondaj/internal/services/stats"
)

// Survey accepts finished interviews and answers pre-call checks.
type Survey interface {
	Submit(ctx context.Context, r *domain.Response) (int64, error)
	AlreadySurveyed(ctx context.Context, cui string) (bool, error)
	AddMotiveOption(ctx context.Context, o domain.MotiveOption) (domain.MotiveOption, error)
	MotiveOptions(ctx context.Context, c domain.MotiveCategory) ([]domain.MotiveOption, error)
}

// Dashboard computes aggregation results over the current response set.
type Dashboard interface {
	V1(ctx context.Context, operator string) (stats.ResultV1, error)
	V2(ctx context.Context, operator string) (stats.ResultV2, error)
}

// LiveStats serves the most recent polled snapshot; ok is false before the
// first poll completes.
type LiveStats interface {
	SnapshotV1(operator string) (stats.ResultV1, bool)
	SnapshotV2(operator string) (stats.ResultV2, bool)
}

// Registry resolves a cleaned numeric CUI against the external company
// registry.
type Registry interface {
	LookupCUI(ctx context.Context, cui string) (domain.CompanyRecord, error)
}

// Auth validates operator logins and bearer tokens.
type Auth interface {
	Login(username, password string) (token string, operator string, err error)
	OperatorForToken(token string) (operator string, ok bool)
}
