package user

import (
	"github.com/frahmantamala/expense-reporting/internal"
)

type Decision int

const (
	Deny Decision = iota
	Allow
)

// Authorization is the outcome of a role check.
type Authorization struct {
	Decision Decision
	Role     Role
	Required []Role
}

func (a Authorization) Allowed() bool {
	return a.Decision == Allow
}

// Err converts a denied decision into a Forbidden AppError.
func (a Authorization) Err() error {
	if a.Allowed() {
		return nil
	}
	if a.Role == "" {
		return internal.NewUnauthorizedError("authentication required", internal.ErrCodeInvalidToken)
	}
	return internal.ErrInsufficientRole
}

// Authorize checks that p holds one of roles. With no roles any authenticated caller passes.
func Authorize(p *Principal, roles ...Role) Authorization {
	if p == nil {
		return Authorization{Decision: Deny, Required: roles}
	}
	result := Authorization{Decision: Deny, Role: p.Role, Required: roles}
	if len(roles) == 0 {
		result.Decision = Allow
		return result
	}
	for _, role := range roles {
		if p.Role == role {
			result.Decision = Allow
			break
		}
	}
	return result
}

// RequirePrivileged is the manager/admin check shared by the approval and refund workflows.
func RequirePrivileged(p *Principal) error {
	return Authorize(p, RoleManager, RoleAdmin).Err()
}
