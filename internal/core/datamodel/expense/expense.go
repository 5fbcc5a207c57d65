package expense

import "time"

const (
	StatusDraft    = "draft"
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type Expense struct {
	ID                  int64     `gorm:"primaryKey"`
	UserID              int64     `gorm:"column:user_id;not null;index"`
	CategoryID          int64     `gorm:"column:category_id;not null;index"`
	TripID              *int64    `gorm:"column:trip_id;index"`
	ReportID            *int64    `gorm:"column:report_id;index"`
	Amount              int64     `gorm:"column:amount;not null"`
	Currency            string    `gorm:"column:currency;size:3;not null"`
	Merchant            string    `gorm:"column:merchant"`
	Description         string    `gorm:"column:description"`
	ExpenseDate         time.Time `gorm:"column:expense_date;not null"`
	ReceiptURL          *string   `gorm:"column:receipt_url"`
	ReceiptOriginalName *string   `gorm:"column:receipt_original_name"`
	OCRData             *string   `gorm:"column:ocr_data"`
	OCRConfidence       *float64  `gorm:"column:ocr_confidence"`
	Status              string    `gorm:"column:status;not null;index"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Expense) TableName() string { return "expenses" }
