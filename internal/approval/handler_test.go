package approval_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/expense-reporting/internal/approval"
	coreUser "github.com/frahmantamala/expense-reporting/internal/core/user"
	"github.com/frahmantamala/expense-reporting/internal/report"
	"github.com/frahmantamala/expense-reporting/internal/transport"
	"github.com/frahmantamala/expense-reporting/pkg/logger"
)

func withPrincipal(p *coreUser.Principal) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(coreUser.WithPrincipal(r.Context(), p)))
		})
	}
}

var _ = Describe("Approval Handler", func() {
	var (
		ctx    context.Context
		f      *fixture
		router chi.Router
	)

	routerFor := func(p *coreUser.Principal) chi.Router {
		handler := approval.NewHandler(&transport.BaseHandler{Logger: logger.Discard()}, f.service)
		r := chi.NewRouter()
		r.Use(withPrincipal(p))
		r.Post("/reports/{id}/approve", handler.ApproveReport)
		r.Post("/reports/{id}/reject", handler.RejectReport)
		r.Get("/reports/{id}/approvals", handler.GetApprovalHistory)
		return r
	}

	BeforeEach(func() {
		ctx = context.Background()
		f = newFixture(ctx)
		router = routerFor(&coreUser.Principal{ID: 3, Role: coreUser.RoleManager})
	})

	AfterEach(func() {
		f.conns.Close()
	})

	It("approves without a body", func() {
		req := httptest.NewRequest(http.MethodPost, "/reports/1/approve", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp report.ReportResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Status).To(Equal(report.StatusApproved))
	})

	It("rejects with comments and records them", func() {
		req := httptest.NewRequest(http.MethodPost, "/reports/1/reject", strings.NewReader(`{"comments":"missing receipts"}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusOK))

		req = httptest.NewRequest(http.MethodGet, "/reports/1/approvals", nil)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring("missing receipts"))
	})

	It("answers 409 on a repeated review", func() {
		for _, code := range []int{http.StatusOK, http.StatusConflict} {
			req := httptest.NewRequest(http.MethodPost, "/reports/1/approve", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(code))
		}
	})

	It("answers 403 for employees", func() {
		router = routerFor(&coreUser.Principal{ID: 1, Role: coreUser.RoleEmployee})

		req := httptest.NewRequest(http.MethodPost, "/reports/1/approve", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusForbidden))
	})

	It("answers 400 for a malformed body", func() {
		req := httptest.NewRequest(http.MethodPost, "/reports/1/approve", strings.NewReader(`{`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})
})
