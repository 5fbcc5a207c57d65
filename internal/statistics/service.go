package statistics

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/expense-reporting/internal"
	"github.com/frahmantamala/expense-reporting/internal/core/common/validation"
	coreUser "github.com/frahmantamala/expense-reporting/internal/core/user"
)

type RepositoryAPI interface {
	Overview(ctx context.Context, scope Scope, r Range) (OverviewRow, error)
	ByCategory(ctx context.Context, scope Scope, r Range) ([]CategoryRow, error)
	MonthlyTrend(ctx context.Context, scope Scope, since time.Time) ([]MonthRow, error)
	TopUsers(ctx context.Context, limit int) ([]UserRow, error)
	BudgetCompliance(ctx context.Context, scope Scope) (ComplianceRow, error)
}

type Service struct {
	repo   RepositoryAPI
	now    func() time.Time
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func scopeOf(p *coreUser.Principal) Scope {
	return Scope{UserID: p.ScopeUserID()}
}

func (s *Service) Overview(ctx context.Context, p *coreUser.Principal, start, end *time.Time) (*OverviewResponse, error) {
	r := NewRange(s.now(), start, end)
	if err := validation.ValidateDateRange(r.Start, r.LastDay()); err != nil {
		return nil, err
	}

	row, err := s.repo.Overview(ctx, scopeOf(p), r)
	if err != nil {
		s.logger.Error("failed to compute overview", "user_id", p.ID, "error", err)
		return nil, internal.NewInternalError("failed to compute statistics", err)
	}

	resp := ToOverviewResponse(row, r)
	return &resp, nil
}

func (s *Service) ByCategory(ctx context.Context, p *coreUser.Principal, start, end *time.Time) ([]CategoryResponse, error) {
	r := NewRange(s.now(), start, end)
	if err := validation.ValidateDateRange(r.Start, r.LastDay()); err != nil {
		return nil, err
	}

	rows, err := s.repo.ByCategory(ctx, scopeOf(p), r)
	if err != nil {
		s.logger.Error("failed to compute category breakdown", "user_id", p.ID, "error", err)
		return nil, internal.NewInternalError("failed to compute statistics", err)
	}
	return CategoryBreakdown(rows), nil
}

func (s *Service) MonthlyTrend(ctx context.Context, p *coreUser.Principal, months int) ([]MonthResponse, error) {
	if months == 0 {
		months = DefaultMonths
	}
	validator := validation.NewValidator()
	validator.Field("months", int64(months)).
		MinInt(1, internal.ErrCodeInvalidRequest).
		MaxInt(MaxMonths, internal.ErrCodeInvalidRequest)
	if err := validator.Validate(); err != nil {
		return nil, err
	}

	rows, err := s.repo.MonthlyTrend(ctx, scopeOf(p), TrendStart(s.now(), months))
	if err != nil {
		s.logger.Error("failed to compute monthly trend", "user_id", p.ID, "error", err)
		return nil, internal.NewInternalError("failed to compute statistics", err)
	}
	return ToMonthResponses(rows), nil
}

func (s *Service) TopUsers(ctx context.Context, p *coreUser.Principal, limit int) ([]UserResponse, error) {
	if err := coreUser.RequirePrivileged(p); err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = DefaultTopUsers
	}
	validator := validation.NewValidator()
	validator.Field("limit", int64(limit)).
		MinInt(1, internal.ErrCodeInvalidRequest).
		MaxInt(MaxTopUsers, internal.ErrCodeInvalidRequest)
	if err := validator.Validate(); err != nil {
		return nil, err
	}

	rows, err := s.repo.TopUsers(ctx, limit)
	if err != nil {
		s.logger.Error("failed to compute top users", "error", err)
		return nil, internal.NewInternalError("failed to compute statistics", err)
	}
	return ToUserResponses(rows), nil
}

func (s *Service) BudgetCompliance(ctx context.Context, p *coreUser.Principal) (*ComplianceResponse, error) {
	row, err := s.repo.BudgetCompliance(ctx, scopeOf(p))
	if err != nil {
		s.logger.Error("failed to compute budget compliance", "user_id", p.ID, "error", err)
		return nil, internal.NewInternalError("failed to compute statistics", err)
	}
	resp := ToComplianceResponse(row)
	return &resp, nil
}
