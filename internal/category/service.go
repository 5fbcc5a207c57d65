package category

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/expense-reporting/internal"
	categoryDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/category"
)

var (
	ErrCategoryNotFound = internal.NewNotFoundError("category not found", internal.ErrCodeCategoryNotFound)
	ErrDuplicateName    = internal.NewConflictError("a category with this name already exists", internal.ErrCodeDuplicateCategory)
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*categoryDatamodel.Category, error)
	GetByID(ctx context.Context, id int64) (*categoryDatamodel.Category, error)
	GetByName(ctx context.Context, name string) (*categoryDatamodel.Category, error)
	Create(ctx context.Context, category *categoryDatamodel.Category) error
	Update(ctx context.Context, category *categoryDatamodel.Category) error
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) GetAllCategories(ctx context.Context) ([]CategoryResponse, error) {
	dataCategories, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to get categories from repository", "error", err)
		return nil, internal.NewInternalError("failed to get categories", err)
	}

	responses := make([]CategoryResponse, 0, len(dataCategories))
	for _, dataCategory := range dataCategories {
		domainCategory := FromDataModel(dataCategory)
		if domainCategory.IsActiveCategory() {
			responses = append(responses, domainCategory.ToResponse())
		}
	}

	s.logger.Debug("retrieved categories", "count", len(responses))
	return responses, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Category, error) {
	dataCategory, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to get category", err)
	}
	if dataCategory == nil {
		return nil, ErrCategoryNotFound
	}
	return FromDataModel(dataCategory), nil
}

// GetActive returns the category only while it can still receive expenses.
func (s *Service) GetActive(ctx context.Context, id int64) (*Category, error) {
	cat, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !cat.IsActiveCategory() {
		return nil, ErrCategoryNotFound
	}
	return cat, nil
}

func (s *Service) Create(ctx context.Context, dto CreateCategoryDTO) (*Category, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByName(ctx, dto.Name)
	if err != nil {
		return nil, internal.NewInternalError("failed to check category name", err)
	}
	if existing != nil {
		return nil, ErrDuplicateName
	}

	cat := NewCategory(dto)
	data := ToDataModel(cat)
	if err := s.repo.Create(ctx, data); err != nil {
		s.logger.Error("failed to create category", "name", dto.Name, "error", err)
		return nil, internal.NewInternalError("failed to create category", err)
	}

	s.logger.Info("category created", "category_id", data.ID, "name", data.Name)
	return FromDataModel(data), nil
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdateCategoryDTO) (*Category, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	cat, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil && *dto.Name != cat.Name {
		existing, err := s.repo.GetByName(ctx, *dto.Name)
		if err != nil {
			return nil, internal.NewInternalError("failed to check category name", err)
		}
		if existing != nil {
			return nil, ErrDuplicateName
		}
		cat.Name = *dto.Name
	}
	if dto.Description != nil {
		cat.Description = *dto.Description
	}
	if dto.Icon != nil {
		cat.Icon = *dto.Icon
	}
	if dto.Color != nil {
		cat.Color = *dto.Color
	}
	if dto.MaxAmount != nil {
		cat.MaxAmount = dto.MaxAmount
	}
	if dto.IsActive != nil {
		if *dto.IsActive {
			cat.Activate()
		} else {
			cat.Deactivate()
		}
	}

	if err := s.repo.Update(ctx, ToDataModel(cat)); err != nil {
		return nil, internal.NewInternalError("failed to update category", err)
	}
	return cat, nil
}

// Delete deactivates the category. Expenses keep pointing at it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return internal.NewInternalError("failed to delete category", err)
	}
	s.logger.Info("category deactivated", "category_id", id)
	return nil
}
