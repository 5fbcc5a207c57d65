package user

import (
	"strings"

	"github.com/frahmantamala/expense-reporting/internal"
	"github.com/frahmantamala/expense-reporting/internal/core/common/validation"
)

const minPasswordLength = 8

// UpdateProfileDTO changes the caller's own account. Role and email are not editable here.
type UpdateProfileDTO struct {
	FullName        *string `json:"full_name,omitempty"`
	CurrentPassword string  `json:"current_password,omitempty"`
	NewPassword     string  `json:"new_password,omitempty"`
}

func (d *UpdateProfileDTO) Validate() error {
	v := validation.NewValidator()
	if d.FullName != nil {
		trimmed := strings.TrimSpace(*d.FullName)
		d.FullName = &trimmed
		v.Field("full_name", trimmed).Required().MaxLength(255)
	}
	if d.NewPassword != "" {
		v.Field("current_password", d.CurrentPassword).Required()
		v.Field("new_password", d.NewPassword).MinLength(minPasswordLength).MaxLength(72)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	if d.FullName == nil && d.NewPassword == "" {
		return internal.NewValidationError("nothing to update", internal.ErrCodeInvalidRequest)
	}
	return nil
}

type ListFilter struct {
	Role   string
	Limit  int
	Offset int
}
