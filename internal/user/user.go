package user

import (
	"time"

	userDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/user"
	coreUser "github.com/frahmantamala/expense-reporting/internal/core/user"
)

// Profile is the public view of an account. Password and reset state never leave the service.
type Profile struct {
	ID        int64         `json:"id"`
	Email     string        `json:"email"`
	FullName  string        `json:"full_name"`
	Role      coreUser.Role `json:"role"`
	IsActive  bool          `json:"is_active"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type UsersResponse struct {
	Users []Profile `json:"users"`
	Total int64     `json:"total"`
}

func (p *Profile) IsManager() bool {
	return p.Role == coreUser.RoleManager
}

func (p *Profile) IsAdmin() bool {
	return p.Role == coreUser.RoleAdmin
}

func ToProfile(u *userDatamodel.User) Profile {
	return Profile{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      coreUser.Role(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
