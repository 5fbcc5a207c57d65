package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/expense-reporting/internal/core/database"
	userDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/user"
	coreUser "github.com/frahmantamala/expense-reporting/internal/core/user"
	"gorm.io/gorm"
)

// Repository backs credentials and password reset on the users table.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*coreUser.User, error) {
	return r.first(ctx, "LOWER(email) = LOWER(?)", email)
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*coreUser.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *Repository) GetByResetToken(ctx context.Context, token string) (*coreUser.User, error) {
	return r.first(ctx, "reset_token = ?", token)
}

func (r *Repository) Create(ctx context.Context, u *coreUser.User) error {
	row := ToDataModel(u)
	if err := database.GetDB(ctx, r.db).Create(row).Error; err != nil {
		return err
	}
	u.ID = row.ID
	u.CreatedAt = row.CreatedAt
	u.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *Repository) SetResetToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	return database.GetDB(ctx, r.db).
		Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"reset_token":         token,
			"reset_token_expires": expiresAt,
		}).Error
}

// UpdatePassword stores the new hash and consumes any outstanding reset token.
func (r *Repository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	return database.GetDB(ctx, r.db).
		Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"password_hash":       passwordHash,
			"reset_token":         nil,
			"reset_token_expires": nil,
		}).Error
}

func (r *Repository) first(ctx context.Context, query string, args ...interface{}) (*coreUser.User, error) {
	var row userDatamodel.User
	err := database.GetDB(ctx, r.db).Where(query, args...).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return FromDataModel(&row), nil
}

func ToDataModel(u *coreUser.User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:                u.ID,
		Email:             u.Email,
		FullName:          u.FullName,
		PasswordHash:      u.PasswordHash,
		Role:              string(u.Role),
		IsActive:          u.IsActive,
		ResetToken:        u.ResetToken,
		ResetTokenExpires: u.ResetTokenExpires,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *coreUser.User {
	return &coreUser.User{
		ID:                u.ID,
		Email:             u.Email,
		FullName:          u.FullName,
		PasswordHash:      u.PasswordHash,
		Role:              coreUser.Role(u.Role),
		IsActive:          u.IsActive,
		ResetToken:        u.ResetToken,
		ResetTokenExpires: u.ResetTokenExpires,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}
