package refund

import "time"

const (
	StatusPending   = "pending"
	StatusPartial   = "partial"
	StatusCompleted = "completed"
	StatusWaived    = "waived"
	StatusDisputed  = "disputed"
	StatusOverdue   = "overdue"
)

type Refund struct {
	ID             int64      `gorm:"primaryKey"`
	TripID         int64      `gorm:"column:trip_id;not null;uniqueIndex"`
	ReportID       *int64     `gorm:"column:report_id"`
	UserID         int64      `gorm:"column:user_id;not null;index"`
	BudgetAmount   int64      `gorm:"column:budget_amount;not null"`
	TotalExpenses  int64      `gorm:"column:total_expenses;not null"`
	ExcessAmount   int64      `gorm:"column:excess_amount;not null"`
	RefundedAmount int64      `gorm:"column:refunded_amount;not null"`
	Status         string     `gorm:"column:status;not null;index"`
	RefundMethod   *string    `gorm:"column:refund_method"`
	DueDate        *time.Time `gorm:"column:due_date"`
	CompletedDate  *time.Time `gorm:"column:completed_date"`
	Notes          string     `gorm:"column:notes"`
	AdminNotes     string     `gorm:"column:admin_notes"`
	WaiveReason    *string    `gorm:"column:waive_reason"`
	ReceiptURL     *string    `gorm:"column:receipt_url"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Refund) TableName() string { return "refunds" }
