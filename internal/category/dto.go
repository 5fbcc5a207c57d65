package category

import (
	"strings"

	"github.com/frahmantamala/expense-reporting/internal"
	"github.com/frahmantamala/expense-reporting/internal/core/common/validation"
)

type CategoryResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon,omitempty"`
	Color       string `json:"color,omitempty"`
	MaxAmount   *int64 `json:"max_amount,omitempty"`
	IsActive    bool   `json:"is_active"`
}

type CategoriesResponse struct {
	Categories []CategoryResponse `json:"categories"`
}

type CreateCategoryDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
	MaxAmount   *int64 `json:"max_amount"`
}

func (dto *CreateCategoryDTO) Validate() error {
	dto.Name = strings.TrimSpace(dto.Name)
	v := validation.NewValidator()
	v.Field("name", dto.Name).Required().MaxLength(100)
	v.Field("description", dto.Description).MaxLength(500)
	if dto.MaxAmount != nil {
		v.Field("max_amount", *dto.MaxAmount).MinInt(1, internal.ErrCodeInvalidAmount)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// UpdateCategoryDTO patches only the fields that are present.
type UpdateCategoryDTO struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
	Color       *string `json:"color"`
	MaxAmount   *int64  `json:"max_amount"`
	IsActive    *bool   `json:"is_active"`
}

func (dto *UpdateCategoryDTO) Validate() error {
	v := validation.NewValidator()
	if dto.Name != nil {
		trimmed := strings.TrimSpace(*dto.Name)
		dto.Name = &trimmed
		v.Field("name", trimmed).Required().MaxLength(100)
	}
	if dto.MaxAmount != nil {
		v.Field("max_amount", *dto.MaxAmount).MinInt(1, internal.ErrCodeInvalidAmount)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
