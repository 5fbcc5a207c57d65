package report

import (
	"strings"
	"time"

	"github.com/frahmantamala/expense-reporting/internal/core/common/dates"
	"github.com/frahmantamala/expense-reporting/internal/core/common/validation"
	"github.com/frahmantamala/expense-reporting/internal/expense"
)

type CreateReportDTO struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	StartDate   *dates.Date `json:"start_date,omitempty"`
	EndDate     *dates.Date `json:"end_date,omitempty"`
	Currency    string      `json:"currency"`
}

func (d *CreateReportDTO) Validate() error {
	d.Title = strings.TrimSpace(d.Title)
	d.Currency = strings.ToUpper(strings.TrimSpace(d.Currency))
	if d.Currency == "" {
		d.Currency = DefaultCurrency
	}

	v := validation.NewValidator()
	v.Field("title", d.Title).Required().MaxLength(255)
	if err := v.Validate(); err != nil {
		return err
	}
	if err := validation.ValidateCurrency(d.Currency); err != nil {
		return err
	}
	return validatePeriod(d.StartDate, d.EndDate)
}

type UpdateReportDTO struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	StartDate   *dates.Date `json:"start_date,omitempty"`
	EndDate     *dates.Date `json:"end_date,omitempty"`
}

func (d *UpdateReportDTO) Validate() error {
	if d.Title != nil {
		title := strings.TrimSpace(*d.Title)
		d.Title = &title
		v := validation.NewValidator()
		v.Field("title", title).Required().MaxLength(255)
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// validatePeriod only checks the order when both ends are present.
func validatePeriod(start, end *dates.Date) error {
	if start.Ptr() == nil || end.Ptr() == nil {
		return nil
	}
	if err := validation.ValidateDateRange(start.Time, end.Time); err != nil {
		return err
	}
	return nil
}

type ListFilter struct {
	UserID *int64
	Status string
	Limit  int
	Offset int
}

type ReportResponse struct {
	ID           int64       `json:"id"`
	UserID       int64       `json:"user_id"`
	TripID       *int64      `json:"trip_id"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	StartDate    *dates.Date `json:"start_date"`
	EndDate      *dates.Date `json:"end_date"`
	Currency     string      `json:"currency"`
	Status       string      `json:"status"`
	TotalAmount  int64       `json:"total_amount"`
	ExpenseCount int         `json:"expense_count"`
	SubmittedAt  *time.Time  `json:"submitted_at"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type ReportDetailResponse struct {
	ReportResponse
	Expenses []expense.ExpenseResponse `json:"expenses"`
}

type ReportsResponse struct {
	Reports []ReportResponse `json:"reports"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}
