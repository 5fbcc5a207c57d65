package statistics

import (
	"context"
	"net/http"
	"time"

	coreUser "github.com/frahmantamala/expense-reporting/internal/core/user"
	"github.com/frahmantamala/expense-reporting/internal/transport"
)

type ServiceAPI interface {
	Overview(ctx context.Context, p *coreUser.Principal, start, end *time.Time) (*OverviewResponse, error)
	ByCategory(ctx context.Context, p *coreUser.Principal, start, end *time.Time) ([]CategoryResponse, error)
	MonthlyTrend(ctx context.Context, p *coreUser.Principal, months int) ([]MonthResponse, error)
	TopUsers(ctx context.Context, p *coreUser.Principal, limit int) ([]UserResponse, error)
	BudgetCompliance(ctx context.Context, p *coreUser.Principal) (*ComplianceResponse, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) dateRange(w http.ResponseWriter, r *http.Request) (start, end *time.Time, ok bool) {
	start, err := transport.QueryDate(r, "start_date")
	if err != nil {
		h.HandleServiceError(w, err)
		return nil, nil, false
	}
	end, err = transport.QueryDate(r, "end_date")
	if err != nil {
		h.HandleServiceError(w, err)
		return nil, nil, false
	}
	return start, end, true
}

func (h *Handler) queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := transport.QueryInt64(r, name)
	if err != nil {
		h.HandleServiceError(w, err)
		return 0, false
	}
	if v == nil {
		return 0, true
	}
	return int(*v), true
}

func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	start, end, ok := h.dateRange(w, r)
	if !ok {
		return
	}

	resp, err := h.Service.Overview(r.Context(), p, start, end)
	if err != nil {
		h.Logger.Error("Overview: failed to compute overview", "error", err, "user_id", p.ID)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) ByCategory(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	start, end, ok := h.dateRange(w, r)
	if !ok {
		return
	}

	categories, err := h.Service.ByCategory(r.Context(), p, start, end)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, CategoriesResponse{Categories: categories})
}

func (h *Handler) MonthlyTrend(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	months, ok := h.queryInt(w, r, "months")
	if !ok {
		return
	}

	trend, err := h.Service.MonthlyTrend(r.Context(), p, months)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, TrendResponse{Months: trend})
}

func (h *Handler) TopUsers(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	limit, ok := h.queryInt(w, r, "limit")
	if !ok {
		return
	}

	users, err := h.Service.TopUsers(r.Context(), p, limit)
	if err != nil {
		h.Logger.Warn("TopUsers: request rejected", "error", err, "user_id", p.ID)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, TopUsersResponse{Users: users})
}

func (h *Handler) BudgetCompliance(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}

	resp, err := h.Service.BudgetCompliance(r.Context(), p)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}
