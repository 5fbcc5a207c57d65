package report

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/expense-reporting/internal"
	"github.com/frahmantamala/expense-reporting/internal/core/common/dates"
	"github.com/frahmantamala/expense-reporting/internal/core/database"
	categoryDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/category"
	expenseDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/expense"
	reportDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/report"
	tripDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/trip"
	userDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/user"
	coreUser "github.com/frahmantamala/expense-reporting/internal/core/user"
	"github.com/frahmantamala/expense-reporting/internal/expense"
	"github.com/frahmantamala/expense-reporting/internal/export"
)

var (
	ErrReportNotFound     = internal.NewNotFoundError("report not found", internal.ErrCodeReportNotFound)
	ErrNotDraft           = internal.NewConflictError("report can only be changed while draft", internal.ErrCodeReportNotDraft)
	ErrEmptyReport        = internal.NewValidationError("report must contain at least one expense", internal.ErrCodeReportEmpty)
	ErrExpenseNotFound    = internal.NewNotFoundError("expense not found", internal.ErrCodeExpenseNotFound)
	ErrExpenseNotInReport = internal.NewNotFoundError("expense not found in this report", internal.ErrCodeExpenseNotFound)
	ErrExpenseAssigned    = internal.NewConflictError("expense already belongs to a report", internal.ErrCodeExpenseAssigned)
	ErrInvalidFormat      = internal.NewValidationFieldError("format", "format must be one of: pdf, excel", internal.ErrCodeValidationFailed)
)

type RepositoryAPI interface {
	Create(ctx context.Context, report *reportDatamodel.Report) error
	GetByID(ctx context.Context, id int64) (*reportDatamodel.Report, error)
	List(ctx context.Context, filter ListFilter) ([]*reportDatamodel.Report, error)
	Update(ctx context.Context, report *reportDatamodel.Report) error
}

// ExpenseStore is the part of the expense repository the report workflow drives.
type ExpenseStore interface {
	GetByID(ctx context.Context, id int64) (*expenseDatamodel.Expense, error)
	ListByReport(ctx context.Context, reportID int64) ([]*expenseDatamodel.Expense, error)
	ListByReports(ctx context.Context, reportIDs []int64) ([]*expenseDatamodel.Expense, error)
	AttachToReport(ctx context.Context, id, reportID int64) (bool, error)
	DetachFromReport(ctx context.Context, id, reportID int64) (bool, error)
	SetStatusByReport(ctx context.Context, reportID int64, status string) (int64, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
}

type CategoryReader interface {
	GetByID(ctx context.Context, id int64) (*categoryDatamodel.Category, error)
}

type TripReader interface {
	GetByID(ctx context.Context, id int64) (*tripDatamodel.Trip, error)
}

type Service struct {
	repo       RepositoryAPI
	expenses   ExpenseStore
	users      UserReader
	categories CategoryReader
	trips      TripReader
	txManager  database.TransactionManager
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(
	repo RepositoryAPI,
	expenses ExpenseStore,
	users UserReader,
	categories CategoryReader,
	trips TripReader,
	txManager database.TransactionManager,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:       repo,
		expenses:   expenses,
		users:      users,
		categories: categories,
		trips:      trips,
		txManager:  txManager,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *Service) Create(ctx context.Context, p *coreUser.Principal, dto CreateReportDTO) (*ReportResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	data := ToDataModel(NewReport(p.ID, dto))
	if err := s.repo.Create(ctx, data); err != nil {
		s.logger.Error("failed to create report", "error", err, "user_id", p.ID)
		return nil, internal.NewInternalError("failed to create report", err)
	}

	s.logger.Info("report created", "report_id", data.ID, "user_id", p.ID)
	resp := FromDataModel(data).ToResponse(Summary{})
	return &resp, nil
}

// List returns reports newest first; employees only see their own.
func (s *Service) List(ctx context.Context, p *coreUser.Principal, filter ListFilter) (*ReportsResponse, error) {
	filter.UserID = p.ScopeUserID()
	return s.list(ctx, filter)
}

// ListPending is the approval queue of submitted reports.
func (s *Service) ListPending(ctx context.Context, p *coreUser.Principal, limit, offset int) (*ReportsResponse, error) {
	if err := coreUser.RequirePrivileged(p); err != nil {
		return nil, err
	}
	return s.list(ctx, ListFilter{Status: StatusSubmitted, Limit: limit, Offset: offset})
}

func (s *Service) list(ctx context.Context, filter ListFilter) (*ReportsResponse, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, internal.NewInternalError("failed to list reports", err)
	}

	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	expenses, err := s.expenses.ListByReports(ctx, ids)
	if err != nil {
		return nil, internal.NewInternalError("failed to load report expenses", err)
	}
	byReport := make(map[int64][]*expenseDatamodel.Expense, len(rows))
	for _, e := range expenses {
		if e.ReportID != nil {
			byReport[*e.ReportID] = append(byReport[*e.ReportID], e)
		}
	}

	reports := make([]ReportResponse, 0, len(rows))
	for _, r := range rows {
		reports = append(reports, FromDataModel(r).ToResponse(Summarize(byReport[r.ID])))
	}
	return &ReportsResponse{Reports: reports, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (s *Service) Get(ctx context.Context, p *coreUser.Principal, id int64) (*ReportDetailResponse, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.CanAccess(r.UserID) {
		return nil, ErrReportNotFound
	}
	return s.detail(ctx, r)
}

// Update patches a draft report owned by the caller.
func (s *Service) Update(ctx context.Context, p *coreUser.Principal, id int64, dto UpdateReportDTO) (*ReportResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	r, err := s.loadOwned(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if !r.IsDraft() {
		return nil, ErrNotDraft
	}

	if dto.Title != nil {
		r.Title = *dto.Title
	}
	if dto.Description != nil {
		r.Description = *dto.Description
	}
	if dto.StartDate != nil {
		r.StartDate = dto.StartDate.Ptr()
	}
	if dto.EndDate != nil {
		r.EndDate = dto.EndDate.Ptr()
	}
	if err := validatePeriod(dates.FromPtr(r.StartDate), dates.FromPtr(r.EndDate)); err != nil {
		return nil, err
	}
	r.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, ToDataModel(r)); err != nil {
		return nil, internal.NewInternalError("failed to update report", err)
	}
	return s.summarized(ctx, r)
}

// Submit sends a draft report for approval and moves every expense on it to pending.
func (s *Service) Submit(ctx context.Context, p *coreUser.Principal, id int64) (*ReportResponse, error) {
	var (
		submitted *Report
		summary   Summary
	)
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		r, err := s.loadOwned(txCtx, p, id)
		if err != nil {
			return err
		}
		if !r.IsDraft() {
			return ErrNotDraft
		}

		expenses, err := s.expenses.ListByReport(txCtx, r.ID)
		if err != nil {
			return internal.NewInternalError("failed to load report expenses", err)
		}
		if len(expenses) == 0 {
			return ErrEmptyReport
		}

		now := s.now()
		r.Status = StatusSubmitted
		r.SubmittedAt = &now
		r.UpdatedAt = now
		if err := s.repo.Update(txCtx, ToDataModel(r)); err != nil {
			return internal.NewInternalError("failed to submit report", err)
		}
		if _, err := s.expenses.SetStatusByReport(txCtx, r.ID, expense.StatusPending); err != nil {
			return internal.NewInternalError("failed to update report expenses", err)
		}

		submitted = r
		summary = Summarize(expenses)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("report submitted",
		"report_id", submitted.ID,
		"user_id", p.ID,
		"expense_count", summary.ExpenseCount,
		"total_amount", summary.TotalAmount)

	resp := submitted.ToResponse(summary)
	return &resp, nil
}

func (s *Service) AddExpense(ctx context.Context, p *coreUser.Principal, reportID, expenseID int64) (*ReportResponse, error) {
	var r *Report
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		if r, err = s.loadDraft(txCtx, p, reportID); err != nil {
			return err
		}

		exp, err := s.expenses.GetByID(txCtx, expenseID)
		if err != nil {
			return internal.NewInternalError("failed to get expense", err)
		}
		if exp == nil || exp.UserID != p.ID {
			return ErrExpenseNotFound
		}
		if exp.ReportID != nil {
			return ErrExpenseAssigned
		}

		attached, err := s.expenses.AttachToReport(txCtx, expenseID, reportID)
		if err != nil {
			return internal.NewInternalError("failed to attach expense", err)
		}
		if !attached {
			return ErrExpenseAssigned
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("expense added to report", "report_id", reportID, "expense_id", expenseID)
	return s.summarized(ctx, r)
}

func (s *Service) RemoveExpense(ctx context.Context, p *coreUser.Principal, reportID, expenseID int64) (*ReportResponse, error) {
	var r *Report
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		if r, err = s.loadDraft(txCtx, p, reportID); err != nil {
			return err
		}

		exp, err := s.expenses.GetByID(txCtx, expenseID)
		if err != nil {
			return internal.NewInternalError("failed to get expense", err)
		}
		if exp == nil || exp.UserID != p.ID {
			return ErrExpenseNotInReport
		}

		detached, err := s.expenses.DetachFromReport(txCtx, expenseID, reportID)
		if err != nil {
			return internal.NewInternalError("failed to detach expense", err)
		}
		if !detached {
			return ErrExpenseNotInReport
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("expense removed from report", "report_id", reportID, "expense_id", expenseID)
	return s.summarized(ctx, r)
}

// Export renders the report for its owner or a privileged user.
func (s *Service) Export(ctx context.Context, p *coreUser.Principal, id int64, format string) (*export.File, error) {
	if !export.ValidFormat(format) {
		return nil, ErrInvalidFormat
	}

	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.CanAccess(r.UserID) {
		return nil, ErrReportNotFound
	}

	doc, err := s.document(ctx, r)
	if err != nil {
		return nil, err
	}

	file, err := export.Render(format, r.ID, *doc)
	if err != nil {
		s.logger.Error("failed to render report", "report_id", r.ID, "format", format, "error", err)
		return nil, internal.NewInternalError("failed to export report", err)
	}

	s.logger.Info("report exported", "report_id", r.ID, "format", format, "bytes", len(file.Data))
	return file, nil
}

func (s *Service) document(ctx context.Context, r *Report) (*export.Document, error) {
	owner, err := s.users.GetByID(ctx, r.UserID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load report owner", err)
	}

	doc := &export.Document{
		Title:       r.Title,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		Currency:    r.Currency,
		GeneratedAt: s.now(),
	}
	if owner != nil {
		doc.UserName = owner.FullName
	}
	if r.TripID != nil {
		trip, err := s.trips.GetByID(ctx, *r.TripID)
		if err != nil {
			return nil, internal.NewInternalError("failed to load trip", err)
		}
		if trip != nil {
			doc.TripName = trip.Name
		}
	}

	expenses, err := s.expenses.ListByReport(ctx, r.ID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load report expenses", err)
	}

	names := make(map[int64]string)
	for _, e := range expenses {
		name, ok := names[e.CategoryID]
		if !ok {
			cat, err := s.categories.GetByID(ctx, e.CategoryID)
			if err != nil {
				return nil, internal.NewInternalError("failed to load category", err)
			}
			if cat != nil {
				name = cat.Name
			}
			names[e.CategoryID] = name
		}
		doc.Rows = append(doc.Rows, export.Row{
			Date:        e.ExpenseDate,
			Category:    name,
			Description: e.Description,
			Merchant:    e.Merchant,
			Amount:      e.Amount,
		})
	}
	return doc, nil
}

func (s *Service) detail(ctx context.Context, r *Report) (*ReportDetailResponse, error) {
	expenses, err := s.expenses.ListByReport(ctx, r.ID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load report expenses", err)
	}
	return &ReportDetailResponse{
		ReportResponse: r.ToResponse(Summarize(expenses)),
		Expenses:       expense.Responses(expenses),
	}, nil
}

func (s *Service) summarized(ctx context.Context, r *Report) (*ReportResponse, error) {
	d, err := s.detail(ctx, r)
	if err != nil {
		return nil, err
	}
	return &d.ReportResponse, nil
}

func (s *Service) load(ctx context.Context, id int64) (*Report, error) {
	data, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to get report", err)
	}
	if data == nil {
		return nil, ErrReportNotFound
	}
	return FromDataModel(data), nil
}

// loadOwned hides other users' reports behind not found.
func (s *Service) loadOwned(ctx context.Context, p *coreUser.Principal, id int64) (*Report, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.UserID != p.ID {
		return nil, ErrReportNotFound
	}
	return r, nil
}

func (s *Service) loadDraft(ctx context.Context, p *coreUser.Principal, id int64) (*Report, error) {
	r, err := s.loadOwned(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if !r.IsDraft() {
		return nil, ErrNotDraft
	}
	return r, nil
}
