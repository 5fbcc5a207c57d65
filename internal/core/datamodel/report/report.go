package report

import "time"

const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusPaid      = "paid"
)

type Report struct {
	ID          int64      `gorm:"primaryKey"`
	UserID      int64      `gorm:"column:user_id;not null;index"`
	TripID      *int64     `gorm:"column:trip_id;uniqueIndex"`
	Title       string     `gorm:"column:title;not null"`
	Description string     `gorm:"column:description"`
	StartDate   *time.Time `gorm:"column:start_date"`
	EndDate     *time.Time `gorm:"column:end_date"`
	Currency    string     `gorm:"column:currency;size:3;not null"`
	Status      string     `gorm:"column:status;not null;index"`
	SubmittedAt *time.Time `gorm:"column:submitted_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Report) TableName() string { return "reports" }
