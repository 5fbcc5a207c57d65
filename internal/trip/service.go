package trip

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/expense-reporting/internal"
	"github.com/frahmantamala/expense-reporting/internal/core/database"
	expenseDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/expense"
	refundDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/refund"
	reportDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/report"
	tripDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/trip"
	"github.com/frahmantamala/expense-reporting/internal/core/events"
	coreUser "github.com/frahmantamala/expense-reporting/internal/core/user"
	"github.com/frahmantamala/expense-reporting/internal/expense"
	"github.com/frahmantamala/expense-reporting/internal/refund"
	"github.com/frahmantamala/expense-reporting/internal/report"
)

var (
	ErrTripNotFound   = internal.NewNotFoundError("trip not found", internal.ErrCodeTripNotFound)
	ErrTripCancelled  = internal.NewConflictError("a cancelled trip cannot be completed", internal.ErrCodeTripNotActive)
	ErrTripCompleted  = internal.NewConflictError("a completed trip cannot change status", internal.ErrCodeTripNotActive)
	ErrNoExpenses     = internal.NewValidationError("trip has no expenses to report", internal.ErrCodeTripHasNoExpenses)
	ErrReportExists   = internal.NewConflictError("trip already has a report", internal.ErrCodeReportExists)
	ErrReportNotFound = internal.NewNotFoundError("trip has no report", internal.ErrCodeReportNotFound)
)

type RepositoryAPI interface {
	Create(ctx context.Context, trip *tripDatamodel.Trip) error
	GetByID(ctx context.Context, id int64) (*tripDatamodel.Trip, error)
	List(ctx context.Context, filter ListFilter) ([]*tripDatamodel.Trip, error)
	Update(ctx context.Context, trip *tripDatamodel.Trip) error
	ListExpenses(ctx context.Context, tripID int64) ([]*expenseDatamodel.Expense, error)
	ExpenseTotals(ctx context.Context, tripIDs []int64) (map[int64]int64, error)
	// AttachExpenses links the trip's unassigned expenses to the report.
	AttachExpenses(ctx context.Context, tripID, reportID int64) (int64, error)
	// DeleteCascade removes the trip with its expenses, report, approvals and refund.
	DeleteCascade(ctx context.Context, tripID int64) error
}

type ReportStore interface {
	Create(ctx context.Context, report *reportDatamodel.Report) error
	GetByTrip(ctx context.Context, tripID int64) (*reportDatamodel.Report, error)
}

type RefundStore interface {
	Create(ctx context.Context, refund *refundDatamodel.Refund) error
	GetByTrip(ctx context.Context, tripID int64) (*refundDatamodel.Refund, error)
}

// ReportViewer renders a report with its expenses and live totals.
type ReportViewer interface {
	Get(ctx context.Context, p *coreUser.Principal, id int64) (*report.ReportDetailResponse, error)
}

type Service struct {
	repo       RepositoryAPI
	reports    ReportStore
	refunds    RefundStore
	viewer     ReportViewer
	txManager  database.TransactionManager
	publisher  events.Publisher
	refundDays int
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(
	repo RepositoryAPI,
	reports ReportStore,
	refunds RefundStore,
	viewer ReportViewer,
	txManager database.TransactionManager,
	publisher events.Publisher,
	refundDays int,
	logger *slog.Logger,
) *Service {
	if refundDays <= 0 {
		refundDays = refund.DefaultDueDays
	}
	return &Service{
		repo:       repo,
		reports:    reports,
		refunds:    refunds,
		viewer:     viewer,
		txManager:  txManager,
		publisher:  publisher,
		refundDays: refundDays,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Create(ctx context.Context, p *coreUser.Principal, dto CreateTripDTO) (*TripResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	data := ToDataModel(NewTrip(p.ID, dto))
	if err := s.repo.Create(ctx, data); err != nil {
		s.logger.Error("failed to create trip", "error", err, "user_id", p.ID)
		return nil, internal.NewInternalError("failed to create trip", err)
	}

	s.logger.Info("trip created", "trip_id", data.ID, "user_id", p.ID, "budget", data.Budget)
	resp := FromDataModel(data).ToResponse(0)
	return &resp, nil
}

// List shows employees their own trips and privileged users every trip.
func (s *Service) List(ctx context.Context, p *coreUser.Principal, filter ListFilter) (*TripsResponse, error) {
	filter.UserID = p.ScopeUserID()

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list trips", "error", err, "user_id", p.ID)
		return nil, internal.NewInternalError("failed to list trips", err)
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	totals, err := s.repo.ExpenseTotals(ctx, ids)
	if err != nil {
		return nil, internal.NewInternalError("failed to total trip expenses", err)
	}

	trips := make([]TripResponse, 0, len(rows))
	for _, row := range rows {
		trips = append(trips, FromDataModel(row).ToResponse(totals[row.ID]))
	}
	return &TripsResponse{Trips: trips, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (s *Service) Get(ctx context.Context, p *coreUser.Principal, id int64) (*TripDetailResponse, error) {
	t, err := s.loadAccessible(ctx, p, id)
	if err != nil {
		return nil, err
	}

	expenses, err := s.repo.ListExpenses(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load trip expenses", err)
	}
	return &TripDetailResponse{
		TripResponse: t.ToResponse(report.Summarize(expenses).TotalAmount),
		Expenses:     expense.Responses(expenses),
	}, nil
}

func (s *Service) Update(ctx context.Context, p *coreUser.Principal, id int64, dto UpdateTripDTO) (*TripResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	t, err := s.loadOwned(ctx, p, id)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil {
		t.Name = *dto.Name
	}
	if dto.Destination != nil {
		t.Destination = *dto.Destination
	}
	if dto.Description != nil {
		t.Description = *dto.Description
	}
	if dto.StartDate != nil {
		t.StartDate = dto.StartDate.Time
	}
	if dto.EndDate != nil {
		t.EndDate = dto.EndDate.Time
	}
	if dto.Budget != nil {
		t.Budget = dto.Budget
	}
	if dto.Status != nil && *dto.Status != t.Status {
		if t.IsCompleted() {
			return nil, ErrTripCompleted
		}
		t.Status = *dto.Status
	}
	if err := validateDates(t.StartDate, t.EndDate); err != nil {
		return nil, err
	}

	t.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, ToDataModel(t)); err != nil {
		s.logger.Error("failed to update trip", "error", err, "trip_id", id)
		return nil, internal.NewInternalError("failed to update trip", err)
	}

	totals, err := s.repo.ExpenseTotals(ctx, []int64{id})
	if err != nil {
		return nil, internal.NewInternalError("failed to total trip expenses", err)
	}
	resp := t.ToResponse(totals[id])
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, p *coreUser.Principal, id int64) error {
	if _, err := s.loadOwned(ctx, p, id); err != nil {
		return err
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		return s.repo.DeleteCascade(txCtx, id)
	})
	if err != nil {
		s.logger.Error("failed to delete trip", "error", err, "trip_id", id)
		return internal.NewInternalError("failed to delete trip", err)
	}

	s.logger.Info("trip deleted", "trip_id", id, "user_id", p.ID)
	return nil
}

// Complete closes the trip, folds its expenses into the trip report and raises a refund
// for spending over budget. Repeating it re-syncs the report without duplicating anything.
func (s *Service) Complete(ctx context.Context, p *coreUser.Principal, id int64) (*CompletionResponse, error) {
	t, err := s.loadAccessible(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if t.IsCancelled() {
		return nil, ErrTripCancelled
	}

	var (
		total     int64
		reportID  *int64
		refundRow *refundDatamodel.Refund
	)
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		expenses, err := s.repo.ListExpenses(txCtx, id)
		if err != nil {
			return internal.NewInternalError("failed to load trip expenses", err)
		}
		total = report.Summarize(expenses).TotalAmount

		if len(expenses) > 0 {
			rep, err := s.ensureReport(txCtx, t, "Report generated on completing trip '%s'")
			if err != nil {
				return err
			}
			if rep.Status == report.StatusDraft {
				if _, err := s.repo.AttachExpenses(txCtx, id, rep.ID); err != nil {
					return internal.NewInternalError("failed to attach trip expenses", err)
				}
			}
			reportID = &rep.ID
		}

		t.Status = StatusCompleted
		t.UpdatedAt = time.Now()
		if err := s.repo.Update(txCtx, ToDataModel(t)); err != nil {
			return internal.NewInternalError("failed to complete trip", err)
		}

		refundRow, err = s.refunds.GetByTrip(txCtx, id)
		if err != nil {
			return internal.NewInternalError("failed to load trip refund", err)
		}
		if refundRow == nil && t.ExceedsBudget(total) {
			due := s.now().AddDate(0, 0, s.refundDays)
			refundRow = refund.NewExcessRefund(id, t.UserID, t.Name, reportID, *t.Budget, total, due)
			if err := s.refunds.Create(txCtx, refundRow); err != nil {
				return internal.NewInternalError("failed to create refund", err)
			}
			s.logger.Info("budget exceeded, refund created",
				"trip_id", id,
				"budget", *t.Budget,
				"total", total,
				"excess", refundRow.ExcessAmount,
				"due_date", due)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := &CompletionResponse{Trip: t.ToResponse(total)}
	var refundID *int64
	var excess int64
	if refundRow != nil {
		r := refund.ToResponse(refundRow, s.now())
		resp.Refund = &r
		refundID = &refundRow.ID
		excess = refundRow.ExcessAmount
	}
	if reportID != nil {
		detail, err := s.viewer.Get(ctx, p, *reportID)
		if err != nil {
			return nil, err
		}
		resp.Report = &detail.ReportResponse
	}

	s.logger.Info("trip completed", "trip_id", id, "actor_id", p.ID, "total", total, "report_id", reportID)
	event := events.NewTripCompletedEvent(id, t.UserID, t.Name, total, reportID, refundID, excess)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish trip completed event", "trip_id", id, "error", err)
	}
	return resp, nil
}

// GenerateReport creates the trip's report on demand.
func (s *Service) GenerateReport(ctx context.Context, p *coreUser.Principal, id int64) (*report.ReportDetailResponse, error) {
	t, err := s.loadAccessible(ctx, p, id)
	if err != nil {
		return nil, err
	}

	var reportID int64
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		expenses, err := s.repo.ListExpenses(txCtx, id)
		if err != nil {
			return internal.NewInternalError("failed to load trip expenses", err)
		}
		if len(expenses) == 0 {
			return ErrNoExpenses
		}

		existing, err := s.reports.GetByTrip(txCtx, id)
		if err != nil {
			return internal.NewInternalError("failed to load trip report", err)
		}
		if existing != nil {
			return ErrReportExists
		}

		rep, err := s.ensureReport(txCtx, t, "Report generated from trip '%s'")
		if err != nil {
			return err
		}
		if _, err := s.repo.AttachExpenses(txCtx, id, rep.ID); err != nil {
			return internal.NewInternalError("failed to attach trip expenses", err)
		}
		reportID = rep.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("trip report generated", "trip_id", id, "report_id", reportID, "actor_id", p.ID)
	return s.viewer.Get(ctx, p, reportID)
}

func (s *Service) GetReport(ctx context.Context, p *coreUser.Principal, id int64) (*report.ReportDetailResponse, error) {
	if _, err := s.loadAccessible(ctx, p, id); err != nil {
		return nil, err
	}

	rep, err := s.reports.GetByTrip(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load trip report", err)
	}
	if rep == nil {
		return nil, ErrReportNotFound
	}
	return s.viewer.Get(ctx, p, rep.ID)
}

// ensureReport returns the trip's report, creating a draft owned by the trip owner when missing.
func (s *Service) ensureReport(ctx context.Context, t *Trip, description string) (*reportDatamodel.Report, error) {
	rep, err := s.reports.GetByTrip(ctx, t.ID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load trip report", err)
	}
	if rep != nil {
		return rep, nil
	}

	start, end := t.StartDate, t.EndDate
	draft := report.NewReport(t.UserID, report.CreateReportDTO{
		Title:       "Report - " + t.Name,
		Description: fmt.Sprintf(description, t.Name),
		Currency:    report.DefaultCurrency,
	})
	draft.TripID = &t.ID
	draft.StartDate = &start
	draft.EndDate = &end

	rep = report.ToDataModel(draft)
	if err := s.reports.Create(ctx, rep); err != nil {
		return nil, internal.NewInternalError("failed to create trip report", err)
	}
	s.logger.Info("trip report created", "trip_id", t.ID, "report_id", rep.ID)
	return rep, nil
}

func (s *Service) load(ctx context.Context, id int64) (*Trip, error) {
	data, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to get trip", err)
	}
	if data == nil {
		return nil, ErrTripNotFound
	}
	return FromDataModel(data), nil
}

func (s *Service) loadAccessible(ctx context.Context, p *coreUser.Principal, id int64) (*Trip, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.CanAccess(t.UserID) {
		return nil, ErrTripNotFound
	}
	return t, nil
}

func (s *Service) loadOwned(ctx context.Context, p *coreUser.Principal, id int64) (*Trip, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.UserID != p.ID {
		return nil, ErrTripNotFound
	}
	return t, nil
}
