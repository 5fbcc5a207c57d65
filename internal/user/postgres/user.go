package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/expense-reporting/internal/core/database"
	userDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/user"
	"github.com/frahmantamala/expense-reporting/internal/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := database.GetDB(ctx, r.db).Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, fields map[string]interface{}) error {
	return database.GetDB(ctx, r.db).
		Model(&userDatamodel.User{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *UserRepository) List(ctx context.Context, filter user.ListFilter) ([]*userDatamodel.User, int64, error) {
	query := database.GetDB(ctx, r.db).Model(&userDatamodel.User{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []*userDatamodel.User
	err := query.Order("id ASC").Limit(filter.Limit).Offset(filter.Offset).Find(&users).Error
	return users, total, err
}
