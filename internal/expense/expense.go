package expense

import (
	"time"

	"github.com/frahmantamala/expense-reporting/internal/core/common/dates"
	expenseDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/expense"
)

const (
	StatusDraft    = expenseDatamodel.StatusDraft
	StatusPending  = expenseDatamodel.StatusPending
	StatusApproved = expenseDatamodel.StatusApproved
	StatusRejected = expenseDatamodel.StatusRejected

	DefaultCurrency = "USD"
)

type Expense struct {
	ID                  int64
	UserID              int64
	CategoryID          int64
	TripID              *int64
	ReportID            *int64
	Amount              int64
	Currency            string
	Merchant            string
	Description         string
	ExpenseDate         time.Time
	ReceiptURL          *string
	ReceiptOriginalName *string
	OCRData             *string
	OCRConfidence       *float64
	Status              string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsEditable reports whether the owner may still change the expense.
func (e *Expense) IsEditable() bool {
	return e.Status == StatusDraft || e.Status == StatusRejected
}

func (e *Expense) InReport() bool {
	return e.ReportID != nil
}

func NewExpense(userID int64, dto CreateExpenseDTO) *Expense {
	now := time.Now()
	return &Expense{
		UserID:      userID,
		CategoryID:  dto.CategoryID,
		TripID:      dto.TripID,
		Amount:      dto.Amount,
		Currency:    dto.Currency,
		Merchant:    dto.Merchant,
		Description: dto.Description,
		ExpenseDate: dto.ExpenseDate.Time,
		Status:      StatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (e *Expense) ToResponse() ExpenseResponse {
	return ExpenseResponse{
		ID:                  e.ID,
		UserID:              e.UserID,
		CategoryID:          e.CategoryID,
		TripID:              e.TripID,
		ReportID:            e.ReportID,
		Amount:              e.Amount,
		Currency:            e.Currency,
		Merchant:            e.Merchant,
		Description:         e.Description,
		ExpenseDate:         dates.New(e.ExpenseDate),
		ReceiptURL:          e.ReceiptURL,
		ReceiptOriginalName: e.ReceiptOriginalName,
		OCRData:             e.OCRData,
		OCRConfidence:       e.OCRConfidence,
		Status:              e.Status,
		CreatedAt:           e.CreatedAt,
		UpdatedAt:           e.UpdatedAt,
	}
}

func ToDataModel(e *Expense) *expenseDatamodel.Expense {
	return &expenseDatamodel.Expense{
		ID:                  e.ID,
		UserID:              e.UserID,
		CategoryID:          e.CategoryID,
		TripID:              e.TripID,
		ReportID:            e.ReportID,
		Amount:              e.Amount,
		Currency:            e.Currency,
		Merchant:            e.Merchant,
		Description:         e.Description,
		ExpenseDate:         e.ExpenseDate,
		ReceiptURL:          e.ReceiptURL,
		ReceiptOriginalName: e.ReceiptOriginalName,
		OCRData:             e.OCRData,
		OCRConfidence:       e.OCRConfidence,
		Status:              e.Status,
		CreatedAt:           e.CreatedAt,
		UpdatedAt:           e.UpdatedAt,
	}
}

func FromDataModel(e *expenseDatamodel.Expense) *Expense {
	return &Expense{
		ID:                  e.ID,
		UserID:              e.UserID,
		CategoryID:          e.CategoryID,
		TripID:              e.TripID,
		ReportID:            e.ReportID,
		Amount:              e.Amount,
		Currency:            e.Currency,
		Merchant:            e.Merchant,
		Description:         e.Description,
		ExpenseDate:         e.ExpenseDate,
		ReceiptURL:          e.ReceiptURL,
		ReceiptOriginalName: e.ReceiptOriginalName,
		OCRData:             e.OCRData,
		OCRConfidence:       e.OCRConfidence,
		Status:              e.Status,
		CreatedAt:           e.CreatedAt,
		UpdatedAt:           e.UpdatedAt,
	}
}

func FromDataModelSlice(expenses []*expenseDatamodel.Expense) []*Expense {
	result := make([]*Expense, len(expenses))
	for i, e := range expenses {
		result[i] = FromDataModel(e)
	}
	return result
}

// Responses converts data rows straight to their JSON shape.
func Responses(expenses []*expenseDatamodel.Expense) []ExpenseResponse {
	result := make([]ExpenseResponse, 0, len(expenses))
	for _, e := range expenses {
		result = append(result, FromDataModel(e).ToResponse())
	}
	return result
}
