package expense

import (
	"strings"
	"time"

	"github.com/frahmantamala/expense-reporting/internal"
	"github.com/frahmantamala/expense-reporting/internal/core/common/dates"
	"github.com/frahmantamala/expense-reporting/internal/core/common/validation"
)

// CreateExpenseDTO is accepted as JSON or as multipart form fields.
type CreateExpenseDTO struct {
	CategoryID  int64      `json:"category_id"`
	TripID      *int64     `json:"trip_id,omitempty"`
	Amount      int64      `json:"amount"`
	Currency    string     `json:"currency"`
	Merchant    string     `json:"merchant"`
	Description string     `json:"description"`
	ExpenseDate dates.Date `json:"expense_date"`
}

func (d *CreateExpenseDTO) Validate() error {
	d.Currency = strings.ToUpper(strings.TrimSpace(d.Currency))
	if d.Currency == "" {
		d.Currency = DefaultCurrency
	}
	d.Merchant = strings.TrimSpace(d.Merchant)

	v := validation.NewValidator()
	v.Field("category_id", d.CategoryID).Required()
	v.Field("amount", d.Amount).MinInt(1, internal.ErrCodeInvalidAmount)
	v.Field("merchant", d.Merchant).MaxLength(255)
	v.Field("expense_date", d.ExpenseDate.Time).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	if err := validation.ValidateCurrency(d.Currency); err != nil {
		return err
	}
	return nil
}

// UpdateExpenseDTO patches an editable expense. Status and report are not part of it.
type UpdateExpenseDTO struct {
	CategoryID  *int64      `json:"category_id,omitempty"`
	TripID      *int64      `json:"trip_id,omitempty"`
	Amount      *int64      `json:"amount,omitempty"`
	Currency    *string     `json:"currency,omitempty"`
	Merchant    *string     `json:"merchant,omitempty"`
	Description *string     `json:"description,omitempty"`
	ExpenseDate *dates.Date `json:"expense_date,omitempty"`
}

func (d *UpdateExpenseDTO) Validate() error {
	v := validation.NewValidator()
	if d.CategoryID != nil {
		v.Field("category_id", *d.CategoryID).Required()
	}
	if d.Amount != nil {
		v.Field("amount", *d.Amount).MinInt(1, internal.ErrCodeInvalidAmount)
	}
	if d.Merchant != nil {
		v.Field("merchant", *d.Merchant).MaxLength(255)
	}
	if d.ExpenseDate != nil {
		v.Field("expense_date", d.ExpenseDate.Time).Required()
	}
	if err := v.Validate(); err != nil {
		return err
	}
	if d.Currency != nil {
		upper := strings.ToUpper(strings.TrimSpace(*d.Currency))
		d.Currency = &upper
		if err := validation.ValidateCurrency(upper); err != nil {
			return err
		}
	}
	return nil
}

// Receipt is an uploaded receipt image.
type Receipt struct {
	Filename string
	Data     []byte
}

type ListFilter struct {
	UserID     *int64
	CategoryID *int64
	TripID     *int64
	Status     string
	Limit      int
	Offset     int
}

type ExpenseResponse struct {
	ID                  int64      `json:"id"`
	UserID              int64      `json:"user_id"`
	CategoryID          int64      `json:"category_id"`
	TripID              *int64     `json:"trip_id"`
	ReportID            *int64     `json:"report_id"`
	Amount              int64      `json:"amount"`
	Currency            string     `json:"currency"`
	Merchant            string     `json:"merchant"`
	Description         string     `json:"description"`
	ExpenseDate         dates.Date `json:"expense_date"`
	ReceiptURL          *string    `json:"receipt_url"`
	ReceiptOriginalName *string    `json:"receipt_original_name"`
	OCRData             *string    `json:"ocr_data"`
	OCRConfidence       *float64   `json:"ocr_confidence"`
	Status              string     `json:"status"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

type ExpensesResponse struct {
	Expenses []ExpenseResponse `json:"expenses"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

type SuggestedExpense struct {
	CategoryID  *int64  `json:"category_id"`
	Amount      int64   `json:"amount"`
	Merchant    *string `json:"merchant"`
	ExpenseDate string  `json:"expense_date"`
	Currency    string  `json:"currency"`
}

type ScanResponse struct {
	Merchant         *string           `json:"merchant"`
	Amount           *int64            `json:"amount"`
	Date             *string           `json:"date"`
	Confidence       int               `json:"confidence"`
	RawText          string            `json:"raw_text"`
	ReceiptURL       string            `json:"receipt_url"`
	SuggestedExpense *SuggestedExpense `json:"suggested_expense"`
}
