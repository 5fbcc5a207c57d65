package user

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/expense-reporting/internal"
	userDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/user"
	coreUser "github.com/frahmantamala/expense-reporting/internal/core/user"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound          = internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
	ErrWrongPassword     = internal.NewValidationFieldError("current_password", "current password is incorrect", internal.ErrCodeInvalidCredentials)
	ErrInvalidRoleFilter = internal.NewValidationFieldError("role", "role must be one of: employee, manager, admin", internal.ErrCodeValidationFailed)
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	UpdateProfile(ctx context.Context, id int64, fields map[string]interface{}) error
	List(ctx context.Context, filter ListFilter) ([]*userDatamodel.User, int64, error)
}

type Service struct {
	repo       Repository
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo Repository, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (s *Service) GetByID(ctx context.Context, userID int64) (*Profile, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to get user", err)
	}
	if u == nil {
		return nil, ErrNotFound
	}
	profile := ToProfile(u)
	return &profile, nil
}

// UpdateProfile applies a self-service change. A password change requires the current password.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, dto UpdateProfileDTO) (*Profile, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to get user", err)
	}
	if u == nil {
		return nil, ErrNotFound
	}

	fields := make(map[string]interface{})
	if dto.FullName != nil {
		fields["full_name"] = *dto.FullName
	}
	if dto.NewPassword != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(dto.CurrentPassword)); err != nil {
			return nil, ErrWrongPassword
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(dto.NewPassword), s.bcryptCost)
		if err != nil {
			return nil, internal.NewInternalError("failed to hash password", err)
		}
		fields["password_hash"] = string(hash)
	}

	if err := s.repo.UpdateProfile(ctx, userID, fields); err != nil {
		return nil, internal.NewInternalError("failed to update user", err)
	}

	s.logger.Info("profile updated", "user_id", userID, "password_changed", dto.NewPassword != "")
	return s.GetByID(ctx, userID)
}

func (s *Service) List(ctx context.Context, filter ListFilter) (*UsersResponse, error) {
	if filter.Role != "" && !coreUser.Role(filter.Role).Valid() {
		return nil, ErrInvalidRoleFilter
	}

	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, internal.NewInternalError("failed to list users", err)
	}

	users := make([]Profile, 0, len(rows))
	for _, row := range rows {
		users = append(users, ToProfile(row))
	}
	return &UsersResponse{Users: users, Total: total}, nil
}
