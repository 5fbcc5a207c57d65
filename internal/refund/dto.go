package refund

import (
	"strings"
	"time"

	"github.com/frahmantamala/expense-reporting/internal"
	"github.com/frahmantamala/expense-reporting/internal/core/common/validation"
)

const minWaiveReason = 10

type PaymentDTO struct {
	Amount       int64   `json:"amount"`
	RefundMethod string  `json:"refund_method"`
	Notes        *string `json:"notes,omitempty"`
	ReceiptURL   *string `json:"receipt_url,omitempty"`
}

func (d *PaymentDTO) Validate() error {
	d.RefundMethod = strings.ToLower(strings.TrimSpace(d.RefundMethod))

	v := validation.NewValidator()
	v.Field("amount", d.Amount).MinInt(1, internal.ErrCodeInvalidAmount)
	v.Field("refund_method", d.RefundMethod).Required().OneOf(methods...)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ConfirmDTO struct {
	AdminNotes *string `json:"admin_notes,omitempty"`
}

type WaiveDTO struct {
	WaiveReason string  `json:"waive_reason"`
	AdminNotes  *string `json:"admin_notes,omitempty"`
}

func (d *WaiveDTO) Validate() error {
	d.WaiveReason = strings.TrimSpace(d.WaiveReason)

	v := validation.NewValidator()
	v.Field("waive_reason", d.WaiveReason).Required().MinLength(minWaiveReason)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// UpdateRefundDTO patches the free-text fields; amounts and status are not editable.
type UpdateRefundDTO struct {
	Notes        *string `json:"notes,omitempty"`
	RefundMethod *string `json:"refund_method,omitempty"`
	ReceiptURL   *string `json:"receipt_url,omitempty"`
}

func (d *UpdateRefundDTO) Validate() error {
	if d.RefundMethod == nil {
		return nil
	}
	method := strings.ToLower(strings.TrimSpace(*d.RefundMethod))
	d.RefundMethod = &method

	v := validation.NewValidator()
	v.Field("refund_method", method).Required().OneOf(methods...)
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

type Response struct {
	ID               int64      `json:"id"`
	TripID           int64      `json:"trip_id"`
	ReportID         *int64     `json:"report_id"`
	UserID           int64      `json:"user_id"`
	BudgetAmount     int64      `json:"budget_amount"`
	TotalExpenses    int64      `json:"total_expenses"`
	ExcessAmount     int64      `json:"excess_amount"`
	RefundedAmount   int64      `json:"refunded_amount"`
	RemainingAmount  int64      `json:"remaining_amount"`
	RefundPercentage float64    `json:"refund_percentage"`
	Status           string     `json:"status"`
	RefundMethod     *string    `json:"refund_method"`
	DueDate          *time.Time `json:"due_date"`
	CompletedDate    *time.Time `json:"completed_date"`
	IsOverdue        bool       `json:"is_overdue"`
	Notes            string     `json:"notes"`
	AdminNotes       string     `json:"admin_notes"`
	WaiveReason      *string    `json:"waive_reason"`
	ReceiptURL       *string    `json:"receipt_url"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	TripName  string `json:"trip_name,omitempty"`
	UserName  string `json:"user_name,omitempty"`
	UserEmail string `json:"user_email,omitempty"`
}

type RefundsResponse struct {
	Refunds []Response `json:"refunds"`
	Limit   int        `json:"limit"`
	Offset  int        `json:"offset"`
}
