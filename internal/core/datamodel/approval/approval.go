package approval

import "time"

type Approval struct {
	ID         int64     `gorm:"primaryKey"`
	ReportID   int64     `gorm:"column:report_id;not null;index"`
	ApproverID int64     `gorm:"column:approver_id;not null"`
	Approved   bool      `gorm:"column:approved;not null"`
	Comments   *string   `gorm:"column:comments"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Approval) TableName() string { return "approvals" }
