package approval

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/expense-reporting/internal"
	"github.com/frahmantamala/expense-reporting/internal/core/database"
	approvalDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/approval"
	expenseDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/expense"
	reportDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/report"
	"github.com/frahmantamala/expense-reporting/internal/core/events"
	coreUser "github.com/frahmantamala/expense-reporting/internal/core/user"
	"github.com/frahmantamala/expense-reporting/internal/report"
)

var ErrNotSubmitted = internal.NewConflictError("only submitted reports can be reviewed", internal.ErrCodeReportNotSubmitted)

type RepositoryAPI interface {
	Create(ctx context.Context, approval *approvalDatamodel.Approval) error
	ListByReport(ctx context.Context, reportID int64) ([]*approvalDatamodel.Approval, error)
}

type ReportStore interface {
	GetByID(ctx context.Context, id int64) (*reportDatamodel.Report, error)
	Update(ctx context.Context, report *reportDatamodel.Report) error
}

type ExpenseStore interface {
	ListByReport(ctx context.Context, reportID int64) ([]*expenseDatamodel.Expense, error)
	SetStatusByReport(ctx context.Context, reportID int64, status string) (int64, error)
}

type Service struct {
	repo      RepositoryAPI
	reports   ReportStore
	expenses  ExpenseStore
	txManager database.TransactionManager
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo RepositoryAPI, reports ReportStore, expenses ExpenseStore, txManager database.TransactionManager, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		reports:   reports,
		expenses:  expenses,
		txManager: txManager,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) Approve(ctx context.Context, p *coreUser.Principal, reportID int64, decision Decision) (*report.ReportResponse, error) {
	return s.review(ctx, p, reportID, true, decision)
}

func (s *Service) Reject(ctx context.Context, p *coreUser.Principal, reportID int64, decision Decision) (*report.ReportResponse, error) {
	return s.review(ctx, p, reportID, false, decision)
}

// review moves the report and its expenses in lockstep and records the decision.
func (s *Service) review(ctx context.Context, p *coreUser.Principal, reportID int64, approved bool, decision Decision) (*report.ReportResponse, error) {
	if err := coreUser.RequirePrivileged(p); err != nil {
		return nil, err
	}
	decision.Normalize()

	reportStatus, expenseStatus := report.StatusRejected, expenseDatamodel.StatusRejected
	if approved {
		reportStatus, expenseStatus = report.StatusApproved, expenseDatamodel.StatusApproved
	}

	var (
		reviewed *report.Report
		summary  report.Summary
	)
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		data, err := s.reports.GetByID(txCtx, reportID)
		if err != nil {
			return internal.NewInternalError("failed to get report", err)
		}
		if data == nil {
			return report.ErrReportNotFound
		}
		if data.Status != report.StatusSubmitted {
			return ErrNotSubmitted
		}

		data.Status = reportStatus
		data.UpdatedAt = s.now()
		if err := s.reports.Update(txCtx, data); err != nil {
			return internal.NewInternalError("failed to update report", err)
		}
		if _, err := s.expenses.SetStatusByReport(txCtx, reportID, expenseStatus); err != nil {
			return internal.NewInternalError("failed to update report expenses", err)
		}

		record := &approvalDatamodel.Approval{
			ReportID:   reportID,
			ApproverID: p.ID,
			Approved:   approved,
			Comments:   decision.Comments,
		}
		if err := s.repo.Create(txCtx, record); err != nil {
			return internal.NewInternalError("failed to record approval", err)
		}

		expenses, err := s.expenses.ListByReport(txCtx, reportID)
		if err != nil {
			return internal.NewInternalError("failed to load report expenses", err)
		}
		reviewed = report.FromDataModel(data)
		summary = report.Summarize(expenses)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("report reviewed",
		"report_id", reportID,
		"reviewer_id", p.ID,
		"approved", approved,
		"total_amount", summary.TotalAmount)

	event := events.NewReportReviewedEvent(reviewed.ID, reviewed.UserID, p.ID, reviewed.Title, approved, decision.Comments)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish report reviewed event", "report_id", reportID, "error", err)
	}

	resp := reviewed.ToResponse(summary)
	return &resp, nil
}

// History lists the decisions on a report, oldest first.
func (s *Service) History(ctx context.Context, p *coreUser.Principal, reportID int64) (*HistoryResponse, error) {
	data, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, internal.NewInternalError("failed to get report", err)
	}
	if data == nil || !p.CanAccess(data.UserID) {
		return nil, report.ErrReportNotFound
	}

	rows, err := s.repo.ListByReport(ctx, reportID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list approvals", err)
	}

	approvals := make([]Response, 0, len(rows))
	for _, row := range rows {
		approvals = append(approvals, ToResponse(row))
	}
	return &HistoryResponse{Approvals: approvals}, nil
}
