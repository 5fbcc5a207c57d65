package refund

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	refundDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/refund"
)

const (
	StatusPending   = refundDatamodel.StatusPending
	StatusPartial   = refundDatamodel.StatusPartial
	StatusCompleted = refundDatamodel.StatusCompleted
	StatusWaived    = refundDatamodel.StatusWaived
	StatusDisputed  = refundDatamodel.StatusDisputed
	StatusOverdue   = refundDatamodel.StatusOverdue

	MethodCash     = "cash"
	MethodTransfer = "transfer"
	MethodPayroll  = "payroll"
	MethodCheck    = "check"
	MethodOther    = "other"

	DefaultDueDays = 15
)

var methods = []string{MethodCash, MethodTransfer, MethodPayroll, MethodCheck, MethodOther}

// payableStatuses accept payments; overdue is listed for rows written by older deployments.
var payableStatuses = []string{StatusPending, StatusPartial, StatusOverdue}

func Methods() []string {
	return append([]string(nil), methods...)
}

func ValidMethod(method string) bool {
	for _, m := range methods {
		if m == method {
			return true
		}
	}
	return false
}

func Payable(status string) bool {
	for _, s := range payableStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// RemainingAmount is what the employee still owes.
func RemainingAmount(r *refundDatamodel.Refund) int64 {
	return r.ExcessAmount - r.RefundedAmount
}

// IsOverdue holds for a pending refund whose due date has passed.
func IsOverdue(r *refundDatamodel.Refund, now time.Time) bool {
	return r.Status == StatusPending && r.DueDate != nil && now.After(*r.DueDate)
}

// RefundPercentage is refunded/excess*100 with two decimal places.
func RefundPercentage(r *refundDatamodel.Refund) float64 {
	if r.ExcessAmount <= 0 {
		return 0
	}
	return decimal.NewFromInt(r.RefundedAmount).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(r.ExcessAmount), 2).
		InexactFloat64()
}

// EffectiveStatus reclassifies an overdue pending refund at read time.
func EffectiveStatus(r *refundDatamodel.Refund, now time.Time) string {
	if IsOverdue(r, now) {
		return StatusOverdue
	}
	return r.Status
}

// NewExcessRefund builds the refund owed when a trip's expenses exceed its budget.
func NewExcessRefund(tripID, userID int64, tripName string, reportID *int64, budget, total int64, due time.Time) *refundDatamodel.Refund {
	return &refundDatamodel.Refund{
		TripID:        tripID,
		ReportID:      reportID,
		UserID:        userID,
		BudgetAmount:  budget,
		TotalExpenses: total,
		ExcessAmount:  total - budget,
		Status:        StatusPending,
		DueDate:       &due,
		Notes:         fmt.Sprintf("Budget excess generated on completing trip '%s'", tripName),
	}
}

func ToResponse(r *refundDatamodel.Refund, now time.Time) Response {
	return Response{
		ID:               r.ID,
		TripID:           r.TripID,
		ReportID:         r.ReportID,
		UserID:           r.UserID,
		BudgetAmount:     r.BudgetAmount,
		TotalExpenses:    r.TotalExpenses,
		ExcessAmount:     r.ExcessAmount,
		RefundedAmount:   r.RefundedAmount,
		RemainingAmount:  RemainingAmount(r),
		RefundPercentage: RefundPercentage(r),
		Status:           EffectiveStatus(r, now),
		RefundMethod:     r.RefundMethod,
		DueDate:          r.DueDate,
		CompletedDate:    r.CompletedDate,
		IsOverdue:        IsOverdue(r, now),
		Notes:            r.Notes,
		AdminNotes:       r.AdminNotes,
		WaiveReason:      r.WaiveReason,
		ReceiptURL:       r.ReceiptURL,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}
