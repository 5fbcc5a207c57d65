package auth

import (
	"strings"

	"github.com/frahmantamala/expense-reporting/internal/core/common/validation"
	coreUser "github.com/frahmantamala/expense-reporting/internal/core/user"
)

const minPasswordLength = 8

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (d *LoginDTO) Validate() error {
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	v := validation.NewValidator()
	v.Field("email", d.Email).Required().Email()
	v.Field("password", d.Password).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type RegisterDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

func (d *RegisterDTO) Validate() error {
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.FullName = strings.TrimSpace(d.FullName)
	v := validation.NewValidator()
	v.Field("email", d.Email).Required().Email().MaxLength(255)
	v.Field("password", d.Password).Required().MinLength(minPasswordLength).MaxLength(72)
	v.Field("full_name", d.FullName).Required().MaxLength(255)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// RefreshTokenDTO for refresh token requests
type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

func (d RefreshTokenDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("refresh_token", d.RefreshToken).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type PasswordResetRequestDTO struct {
	Email string `json:"email"`
}

type PasswordResetDTO struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (d PasswordResetDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("token", d.Token).Required()
	v.Field("new_password", d.NewPassword).Required().MinLength(minPasswordLength).MaxLength(72)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type UserView struct {
	ID       int64         `json:"id"`
	Email    string        `json:"email"`
	FullName string        `json:"full_name"`
	Role     coreUser.Role `json:"role"`
}

type AuthResponse struct {
	User   UserView   `json:"user"`
	Tokens AuthTokens `json:"tokens"`
}

type MessageResponse struct {
	Message    string `json:"message"`
	ResetToken string `json:"reset_token,omitempty"`
}

func toUserView(u *coreUser.User) UserView {
	return UserView{ID: u.ID, Email: u.Email, FullName: u.FullName, Role: u.Role}
}
