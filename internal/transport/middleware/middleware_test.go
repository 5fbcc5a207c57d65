package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/expense-reporting/internal"
	coreUser "github.com/frahmantamala/expense-reporting/internal/core/user"
	"github.com/frahmantamala/expense-reporting/pkg/logger"
)

var _ = Describe("RequestID", func() {
	var seen string

	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = internal.TraceIDFromContext(r.Context())
	}))

	It("keeps the caller's trace id", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(TraceHeader, "trace-123")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		Expect(seen).To(Equal("trace-123"))
		Expect(rec.Header().Get(TraceHeader)).To(Equal("trace-123"))
	})

	It("mints one when missing or oversized", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(TraceHeader, strings.Repeat("x", 100))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		Expect(seen).To(HaveLen(36))
		Expect(rec.Header().Get(TraceHeader)).To(Equal(seen))
	})
})

var _ = Describe("RecoveryMiddleware", func() {
	It("answers a panic with the internal error body", func() {
		handler := RecoveryMiddleware(logger.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/expenses", nil))

		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		var body map[string]map[string]interface{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body["error"]["type"]).To(Equal(string(internal.ErrorTypeInternal)))
		Expect(body["error"]["message"]).To(Equal("internal server error"))
	})
})

var _ = Describe("LoggingMiddleware", func() {
	var (
		out *bytes.Buffer
		log *slog.Logger
	)

	BeforeEach(func() {
		out = &bytes.Buffer{}
		log = slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	})

	It("redacts credentials and leaves the body readable downstream", func() {
		var downstream string
		handler := LoggingMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, _ := io.ReadAll(r.Body)
			downstream = string(data)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"invalid credentials"}}`))
		}))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
			strings.NewReader(`{"email":"ana@example.com","password":"hunter22"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer abc")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		Expect(downstream).To(ContainSubstring("hunter22"))
		Expect(out.String()).NotTo(ContainSubstring("hunter22"))
		Expect(out.String()).NotTo(ContainSubstring("Bearer abc"))
		Expect(out.String()).To(ContainSubstring("ana@example.com"))
		Expect(out.String()).To(ContainSubstring(`"level":"WARN"`))
		Expect(out.String()).To(ContainSubstring("invalid credentials"))
	})

	It("uses the request scoped logger when one is attached", func() {
		handler := RequestID(LoggingMiddleware(logger.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})))
		req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
		req = req.WithContext(logger.WithLogger(req.Context(), log))
		req.Header.Set(TraceHeader, "trace-abc")

		handler.ServeHTTP(httptest.NewRecorder(), req)

		Expect(out.String()).To(ContainSubstring(`"trace_id":"trace-abc"`))
		Expect(out.String()).To(ContainSubstring(`"level":"DEBUG"`))
	})

	It("logs only the head of a large body and passes all of it on", func() {
		body := `{"description":"` + strings.Repeat("ab7Q", 50000) + `"}`
		var downstream int
		handler := LoggingMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, _ := io.ReadAll(r.Body)
			downstream = len(data)
		}))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/expenses", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		Expect(downstream).To(Equal(len(body)))
		Expect(out.String()).To(ContainSubstring("ab7Q"))
		Expect(strings.Count(out.String(), "ab7Q")).To(BeNumerically("<=", maxLoggedBody/4))
	})

	It("masks nested fields", func() {
		Expect(redactBody([]byte(`{"user":{"new_password":"x","name":"y"},"items":[{"reset_token":"t"}]}`))).
			To(MatchJSON(`{"user":{"new_password":"[REDACTED]","name":"y"},"items":[{"reset_token":"[REDACTED]"}]}`))
	})
})

var _ = Describe("RequireRoles", func() {
	handler := RequirePrivileged()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	serve := func(p *coreUser.Principal) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if p != nil {
			req = req.WithContext(coreUser.WithPrincipal(req.Context(), p))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	It("admits managers and admins", func() {
		Expect(serve(&coreUser.Principal{ID: 1, Role: coreUser.RoleManager})).To(Equal(http.StatusNoContent))
		Expect(serve(&coreUser.Principal{ID: 2, Role: coreUser.RoleAdmin})).To(Equal(http.StatusNoContent))
	})

	It("forbids employees", func() {
		Expect(serve(&coreUser.Principal{ID: 3, Role: coreUser.RoleEmployee})).To(Equal(http.StatusForbidden))
	})

	It("rejects anonymous callers", func() {
		Expect(serve(nil)).To(Equal(http.StatusUnauthorized))
	})
})
