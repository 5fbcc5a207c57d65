package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/expense-reporting/internal/approval"
	"github.com/frahmantamala/expense-reporting/internal/auth"
	"github.com/frahmantamala/expense-reporting/internal/category"
	coreUser "github.com/frahmantamala/expense-reporting/internal/core/user"
	"github.com/frahmantamala/expense-reporting/internal/expense"
	"github.com/frahmantamala/expense-reporting/internal/notification"
	"github.com/frahmantamala/expense-reporting/internal/realtime"
	"github.com/frahmantamala/expense-reporting/internal/refund"
	"github.com/frahmantamala/expense-reporting/internal/report"
	"github.com/frahmantamala/expense-reporting/internal/statistics"
	"github.com/frahmantamala/expense-reporting/internal/transport/middleware"
	"github.com/frahmantamala/expense-reporting/internal/transport/swagger"
	"github.com/frahmantamala/expense-reporting/internal/trip"
	"github.com/frahmantamala/expense-reporting/internal/user"
)

const APIPrefix = "/api/v1"

type Handlers struct {
	Health       *HealthHandler
	Auth         *auth.Handler
	User         *user.Handler
	Category     *category.Handler
	Expense      *expense.Handler
	Report       *report.Handler
	Approval     *approval.Handler
	Trip         *trip.Handler
	Refund       *refund.Handler
	Notification *notification.Handler
	Statistics   *statistics.Handler
	Realtime     *realtime.Handler
}

type RouterConfig struct {
	AllowedOrigins []string
	SpecPath       string
	Logger         *slog.Logger
}

func RegisterAllRoutes(router *chi.Mux, cfg RouterConfig, h Handlers) {
	logger := cfg.Logger

	// Apply global middleware
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, cfg.SpecPath)
	})
	router.Handle("/swagger/*", swagger.Handler("/openapi.yml"))

	router.Route(APIPrefix, func(r chi.Router) {
		r.Get("/health", h.Health.HealthCheck)
		r.Get("/ping", h.Health.Ping)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/register", h.Auth.Register)
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
			sr.Post("/logout", h.Auth.Logout)
			sr.Post("/request-reset", h.Auth.RequestPasswordReset)
			sr.Post("/validate-token", h.Auth.ValidateResetToken)
			sr.Post("/reset-password", h.Auth.ResetPassword)
		})

		// Reading categories is public; changing them is admin only
		r.Route("/categories", func(cr chi.Router) {
			cr.Get("/", h.Category.GetCategories)
			cr.Get("/{id}", h.Category.GetCategory)

			cr.Group(func(ar chi.Router) {
				ar.Use(h.Auth.AuthMiddleware)
				ar.Use(middleware.RequireRoles(coreUser.RoleAdmin))
				ar.Post("/", h.Category.CreateCategory)
				ar.Put("/{id}", h.Category.UpdateCategory)
				ar.Delete("/{id}", h.Category.DeleteCategory)
			})
		})

		// the socket authenticates with ?token= since browsers cannot set headers on the handshake
		r.Get("/ws", h.Realtime.ServeWS)

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)
			pr.Use(middleware.UserContext)

			pr.Route("/users", func(ur chi.Router) {
				ur.Get("/me", h.User.GetCurrentUser)
				ur.Put("/me", h.User.UpdateCurrentUser)
				ur.With(middleware.RequireRoles(coreUser.RoleAdmin)).Get("/", h.User.ListUsers)
			})

			pr.Route("/expenses", func(er chi.Router) {
				er.Get("/", h.Expense.ListExpenses)
				er.Post("/", h.Expense.CreateExpense)
				er.Post("/scan", h.Expense.ScanReceipt)
				er.Get("/{id}", h.Expense.GetExpense)
				er.Put("/{id}", h.Expense.UpdateExpense)
				er.Delete("/{id}", h.Expense.DeleteExpense)
			})

			pr.Route("/reports", func(rr chi.Router) {
				rr.Get("/", h.Report.ListReports)
				rr.Post("/", h.Report.CreateReport)
				rr.With(middleware.RequirePrivileged()).Get("/pending", h.Report.ListPendingReports)
				rr.Get("/{id}", h.Report.GetReport)
				rr.Put("/{id}", h.Report.UpdateReport)
				rr.Post("/{id}/submit", h.Report.SubmitReport)
				rr.Post("/{id}/expenses/{expenseID}", h.Report.AddExpense)
				rr.Delete("/{id}/expenses/{expenseID}", h.Report.RemoveExpense)
				rr.Get("/{id}/export", h.Report.ExportReport)
				rr.Get("/{id}/approvals", h.Approval.GetApprovalHistory)

				rr.Group(func(mr chi.Router) {
					mr.Use(middleware.RequirePrivileged())
					mr.Post("/{id}/approve", h.Approval.ApproveReport)
					mr.Post("/{id}/reject", h.Approval.RejectReport)
				})
			})

			pr.Route("/trips", func(tr chi.Router) {
				tr.Get("/", h.Trip.ListTrips)
				tr.Post("/", h.Trip.CreateTrip)
				tr.Get("/{id}", h.Trip.GetTrip)
				tr.Put("/{id}", h.Trip.UpdateTrip)
				tr.Delete("/{id}", h.Trip.DeleteTrip)
				tr.Post("/{id}/complete", h.Trip.CompleteTrip)
				tr.Post("/{id}/generate-report", h.Trip.GenerateReport)
				tr.Get("/{id}/report", h.Trip.GetTripReport)
			})

			pr.Route("/refunds", func(fr chi.Router) {
				fr.Get("/", h.Refund.ListRefunds)
				fr.Get("/{id}", h.Refund.GetRefund)
				fr.Put("/{id}", h.Refund.UpdateRefund)
				fr.Post("/{id}/payments", h.Refund.RecordPayment)

				fr.Group(func(ar chi.Router) {
					ar.Use(middleware.RequirePrivileged())
					ar.Post("/{id}/confirm", h.Refund.ConfirmRefund)
					ar.Post("/{id}/waive", h.Refund.WaiveRefund)
					ar.Delete("/{id}", h.Refund.DeleteRefund)
				})
			})

			pr.Route("/notifications", func(nr chi.Router) {
				nr.Get("/", h.Notification.ListNotifications)
				nr.Get("/unread-count", h.Notification.UnreadCount)
				nr.Put("/mark-all-read", h.Notification.MarkAllRead)
				nr.Put("/{id}/read", h.Notification.MarkRead)
				nr.Delete("/{id}", h.Notification.DeleteNotification)
			})

			pr.Route("/statistics", func(sr chi.Router) {
				sr.Get("/overview", h.Statistics.Overview)
				sr.Get("/by-category", h.Statistics.ByCategory)
				sr.Get("/monthly-trend", h.Statistics.MonthlyTrend)
				sr.With(middleware.RequirePrivileged()).Get("/top-users", h.Statistics.TopUsers)
				sr.Get("/budget-compliance", h.Statistics.BudgetCompliance)
			})
		})
	})
}
