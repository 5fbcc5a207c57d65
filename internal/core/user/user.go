package user

import (
	"context"
	"time"
)

type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleManager, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID                int64
	Email             string
	FullName          string
	PasswordHash      string
	Role              Role
	IsActive          bool
	ResetToken        *string
	ResetTokenExpires *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Principal is the authenticated caller attached to a request.
type Principal struct {
	ID       int64
	Email    string
	FullName string
	Role     Role
}

func (u *User) Principal() *Principal {
	return &Principal{ID: u.ID, Email: u.Email, FullName: u.FullName, Role: u.Role}
}

// IsPrivileged reports whether the caller may act on other users' records.
func (p *Principal) IsPrivileged() bool {
	return p != nil && (p.Role == RoleManager || p.Role == RoleAdmin)
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// CanAccess reports whether the caller may read a record owned by ownerID.
func (p *Principal) CanAccess(ownerID int64) bool {
	return p != nil && (p.ID == ownerID || p.IsPrivileged())
}

// ScopeUserID returns the owner filter for list queries: nil for privileged callers.
func (p *Principal) ScopeUserID() *int64 {
	if p.IsPrivileged() {
		return nil
	}
	id := p.ID
	return &id
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
