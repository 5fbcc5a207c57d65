package report

import (
	"time"

	"github.com/frahmantamala/expense-reporting/internal/core/common/dates"
	expenseDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/expense"
	reportDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/report"
)

const (
	StatusDraft     = reportDatamodel.StatusDraft
	StatusSubmitted = reportDatamodel.StatusSubmitted
	StatusApproved  = reportDatamodel.StatusApproved
	StatusRejected  = reportDatamodel.StatusRejected
	StatusPaid      = reportDatamodel.StatusPaid

	DefaultCurrency = "USD"
)

type Report struct {
	ID          int64
	UserID      int64
	TripID      *int64
	Title       string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
	Currency    string
	Status      string
	SubmittedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Summary is derived from the live expense set and never stored.
type Summary struct {
	TotalAmount  int64
	ExpenseCount int
}

// Summarize totals a report's expenses.
func Summarize(expenses []*expenseDatamodel.Expense) Summary {
	var s Summary
	for _, e := range expenses {
		if e == nil {
			continue
		}
		s.TotalAmount += e.Amount
		s.ExpenseCount++
	}
	return s
}

func (r *Report) IsDraft() bool {
	return r.Status == StatusDraft
}

func NewReport(userID int64, dto CreateReportDTO) *Report {
	now := time.Now()
	return &Report{
		UserID:      userID,
		Title:       dto.Title,
		Description: dto.Description,
		StartDate:   dto.StartDate.Ptr(),
		EndDate:     dto.EndDate.Ptr(),
		Currency:    dto.Currency,
		Status:      StatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (r *Report) ToResponse(summary Summary) ReportResponse {
	return ReportResponse{
		ID:           r.ID,
		UserID:       r.UserID,
		TripID:       r.TripID,
		Title:        r.Title,
		Description:  r.Description,
		StartDate:    dates.FromPtr(r.StartDate),
		EndDate:      dates.FromPtr(r.EndDate),
		Currency:     r.Currency,
		Status:       r.Status,
		TotalAmount:  summary.TotalAmount,
		ExpenseCount: summary.ExpenseCount,
		SubmittedAt:  r.SubmittedAt,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func ToDataModel(r *Report) *reportDatamodel.Report {
	return &reportDatamodel.Report{
		ID:          r.ID,
		UserID:      r.UserID,
		TripID:      r.TripID,
		Title:       r.Title,
		Description: r.Description,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		Currency:    r.Currency,
		Status:      r.Status,
		SubmittedAt: r.SubmittedAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func FromDataModel(r *reportDatamodel.Report) *Report {
	return &Report{
		ID:          r.ID,
		UserID:      r.UserID,
		TripID:      r.TripID,
		Title:       r.Title,
		Description: r.Description,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		Currency:    r.Currency,
		Status:      r.Status,
		SubmittedAt: r.SubmittedAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
