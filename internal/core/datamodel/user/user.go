package user

import "time"

type User struct {
	ID                int64      `gorm:"primaryKey"`
	Email             string     `gorm:"column:email;uniqueIndex;not null"`
	FullName          string     `gorm:"column:full_name;not null"`
	PasswordHash      string     `gorm:"column:password_hash;not null"`
	Role              string     `gorm:"column:role;not null;default:employee"`
	IsActive          bool       `gorm:"column:is_active;not null"`
	ResetToken        *string    `gorm:"column:reset_token;index"`
	ResetTokenExpires *time.Time `gorm:"column:reset_token_expires"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "users" }
