package trip

import (
	"strings"
	"time"

	"github.com/frahmantamala/expense-reporting/internal"
	"github.com/frahmantamala/expense-reporting/internal/core/common/dates"
	"github.com/frahmantamala/expense-reporting/internal/core/common/validation"
	"github.com/frahmantamala/expense-reporting/internal/expense"
	"github.com/frahmantamala/expense-reporting/internal/refund"
	"github.com/frahmantamala/expense-reporting/internal/report"
)

type CreateTripDTO struct {
	Name        string     `json:"name"`
	Destination string     `json:"destination"`
	Description string     `json:"description"`
	StartDate   dates.Date `json:"start_date"`
	EndDate     dates.Date `json:"end_date"`
	Budget      *int64     `json:"budget,omitempty"`
}

func (d *CreateTripDTO) Validate() error {
	d.Name = strings.TrimSpace(d.Name)
	d.Destination = strings.TrimSpace(d.Destination)

	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(255)
	v.Field("destination", d.Destination).MaxLength(255)
	if d.Budget != nil {
		v.Field("budget", *d.Budget).MinInt(0, internal.ErrCodeInvalidAmount)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return validateDates(d.StartDate.Time, d.EndDate.Time)
}

func validateDates(start, end time.Time) error {
	if err := validation.ValidateDateRange(start, end); err != nil {
		return err
	}
	return nil
}

// UpdateTripDTO patches a trip. Status may only move between active and cancelled.
type UpdateTripDTO struct {
	Name        *string     `json:"name,omitempty"`
	Destination *string     `json:"destination,omitempty"`
	Description *string     `json:"description,omitempty"`
	StartDate   *dates.Date `json:"start_date,omitempty"`
	EndDate     *dates.Date `json:"end_date,omitempty"`
	Budget      *int64      `json:"budget,omitempty"`
	Status      *string     `json:"status,omitempty"`
}

func (d *UpdateTripDTO) Validate() error {
	v := validation.NewValidator()
	if d.Name != nil {
		name := strings.TrimSpace(*d.Name)
		d.Name = &name
		v.Field("name", name).Required().MaxLength(255)
	}
	if d.Budget != nil {
		v.Field("budget", *d.Budget).MinInt(0, internal.ErrCodeInvalidAmount)
	}
	if d.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*d.Status))
		d.Status = &status
		v.Field("status", status).Required().OneOf(StatusActive, StatusCancelled)
	}
	if err := v.Validate(); err != nil {
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

type TripResponse struct {
	ID                   int64      `json:"id"`
	UserID               int64      `json:"user_id"`
	Name                 string     `json:"name"`
	Destination          string     `json:"destination"`
	Description          string     `json:"description"`
	StartDate            dates.Date `json:"start_date"`
	EndDate              dates.Date `json:"end_date"`
	Budget               *int64     `json:"budget"`
	Status               string     `json:"status"`
	TotalExpenses        int64      `json:"total_expenses"`
	BudgetUsedPercentage float64    `json:"budget_used_percentage"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

type TripDetailResponse struct {
	TripResponse
	Expenses []expense.ExpenseResponse `json:"expenses"`
}

type TripsResponse struct {
	Trips  []TripResponse `json:"trips"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// CompletionResponse describes what completing a trip produced.
type CompletionResponse struct {
	Trip   TripResponse           `json:"trip"`
	Report *report.ReportResponse `json:"report,omitempty"`
	Refund *refund.Response       `json:"refund,omitempty"`
}
