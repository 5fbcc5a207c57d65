package user_test

import (
	"context"

	"github.com/frahmantamala/expense-reporting/internal"
	"github.com/frahmantamala/expense-reporting/internal/core/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Authorize", func() {
	employee := &user.Principal{ID: 1, Role: user.RoleEmployee}
	manager := &user.Principal{ID: 2, Role: user.RoleManager}
	admin := &user.Principal{ID: 3, Role: user.RoleAdmin}

	DescribeTable("role checks",
		func(p *user.Principal, roles []user.Role, allowed bool) {
			Expect(user.Authorize(p, roles...).Allowed()).To(Equal(allowed))
		},
		Entry("any authenticated caller", employee, nil, true),
		Entry("employee on manager route", employee, []user.Role{user.RoleManager, user.RoleAdmin}, false),
		Entry("manager on manager route", manager, []user.Role{user.RoleManager, user.RoleAdmin}, true),
		Entry("manager on admin route", manager, []user.Role{user.RoleAdmin}, false),
		Entry("admin on admin route", admin, []user.Role{user.RoleAdmin}, true),
		Entry("anonymous caller", nil, nil, false),
	)

	It("maps a denied role to Forbidden", func() {
		err := user.RequirePrivileged(employee)
		Expect(internal.IsErrorType(err, internal.ErrorTypeForbidden)).To(BeTrue())
		Expect(user.RequirePrivileged(admin)).To(Succeed())
	})

	It("maps a missing principal to Unauthorized", func() {
		err := user.Authorize(nil).Err()
		Expect(internal.IsErrorType(err, internal.ErrorTypeUnauthorized)).To(BeTrue())
	})

	It("scopes list queries by role", func() {
		Expect(*employee.ScopeUserID()).To(Equal(int64(1)))
		Expect(manager.ScopeUserID()).To(BeNil())
		Expect(employee.CanAccess(1)).To(BeTrue())
		Expect(employee.CanAccess(2)).To(BeFalse())
		Expect(manager.CanAccess(1)).To(BeTrue())
	})

	It("round-trips the principal through the context", func() {
		ctx := user.WithPrincipal(context.Background(), manager)
		p, ok := user.PrincipalFromContext(ctx)
		Expect(ok).To(BeTrue())
		Expect(p.ID).To(Equal(int64(2)))

		_, ok = user.PrincipalFromContext(context.Background())
		Expect(ok).To(BeFalse())
	})
})
