package user

import (
	"context"
	"net/http"

	"github.com/frahmantamala/expense-reporting/internal/transport"
)

type ServiceAPI interface {
	GetByID(ctx context.Context, userID int64) (*Profile, error)
	UpdateProfile(ctx context.Context, userID int64, dto UpdateProfileDTO) (*Profile, error)
	List(ctx context.Context, filter ListFilter) (*UsersResponse, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}

	u, err := h.Service.GetByID(r.Context(), principal.ID)
	if err != nil {
		h.Logger.Error("GetCurrentUser: service GetByID failed", "user_id", principal.ID, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

// UpdateCurrentUser handles PUT /users/me
func (h *Handler) UpdateCurrentUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}

	var dto UpdateProfileDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	u, err := h.Service.UpdateProfile(r.Context(), principal.ID, dto)
	if err != nil {
		h.Logger.Warn("UpdateCurrentUser: update failed", "user_id", principal.ID, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

// ListUsers handles GET /users. Routed behind the admin role check.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := transport.Pagination(r, transport.DefaultLimit)

	resp, err := h.Service.List(r.Context(), ListFilter{
		Role:   r.URL.Query().Get("role"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}
