package notification

import (
	"context"
	"net/http"
	"strconv"

	coreUser "github.com/frahmantamala/expense-reporting/internal/core/user"
	"github.com/frahmantamala/expense-reporting/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, p *coreUser.Principal, unreadOnly bool, limit, offset int) (*NotificationsResponse, error)
	UnreadCount(ctx context.Context, p *coreUser.Principal) (*UnreadCountResponse, error)
	MarkRead(ctx context.Context, p *coreUser.Principal, id int64) error
	MarkAllRead(ctx context.Context, p *coreUser.Principal) (*MarkAllReadResponse, error)
	Delete(ctx context.Context, p *coreUser.Principal, id int64) error
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

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}

	unreadOnly, _ := strconv.ParseBool(r.URL.Query().Get("unread_only"))
	limit, offset := transport.Pagination(r, DefaultLimit)

	resp, err := h.Service.List(r.Context(), principal, unreadOnly, limit, offset)
	if err != nil {
		h.Logger.Error("ListNotifications: service error", "error", err, "user_id", principal.ID)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}

	resp, err := h.Service.UnreadCount(r.Context(), principal)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}
	id, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.Service.MarkRead(r.Context(), principal, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "notification marked as read"})
}

func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}

	resp, err := h.Service.MarkAllRead(r.Context(), principal)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}
	id, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), principal, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
