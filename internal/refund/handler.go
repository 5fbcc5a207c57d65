package refund

import (
	"context"
	"net/http"

	coreUser "github.com/frahmantamala/expense-reporting/internal/core/user"
	"github.com/frahmantamala/expense-reporting/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, p *coreUser.Principal, filter ListFilter) (*RefundsResponse, error)
	Get(ctx context.Context, p *coreUser.Principal, id int64) (*Response, error)
	RecordPayment(ctx context.Context, p *coreUser.Principal, id int64, dto PaymentDTO) (*Response, error)
	Confirm(ctx context.Context, p *coreUser.Principal, id int64, dto ConfirmDTO) (*Response, error)
	Waive(ctx context.Context, p *coreUser.Principal, id int64, dto WaiveDTO) (*Response, error)
	Update(ctx context.Context, p *coreUser.Principal, id int64, dto UpdateRefundDTO) (*Response, error)
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

func (h *Handler) ListRefunds(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}

	userID, err := transport.QueryInt64(r, "user_id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	limit, offset := transport.Pagination(r, transport.MaxLimit)
	resp, err := h.Service.List(r.Context(), principal, ListFilter{
		UserID: userID,
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.Logger.Error("ListRefunds: service error", "error", err, "user_id", principal.ID)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetRefund(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}
	refundID, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	resp, err := h.Service.Get(r.Context(), principal, refundID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}
	refundID, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	var dto PaymentDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	resp, err := h.Service.RecordPayment(r.Context(), principal, refundID, dto)
	if err != nil {
		h.Logger.Warn("RecordPayment: service error", "error", err, "refund_id", refundID, "amount", dto.Amount)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("RecordPayment: payment recorded",
		"refund_id", refundID,
		"actor_id", principal.ID,
		"status", resp.Status)
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) ConfirmRefund(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}
	refundID, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	var dto ConfirmDTO
	if r.ContentLength != 0 && !h.DecodeJSON(w, r, &dto) {
		return
	}

	resp, err := h.Service.Confirm(r.Context(), principal, refundID, dto)
	if err != nil {
		h.Logger.Warn("ConfirmRefund: service error", "error", err, "refund_id", refundID)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) WaiveRefund(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}
	refundID, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	var dto WaiveDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	resp, err := h.Service.Waive(r.Context(), principal, refundID, dto)
	if err != nil {
		h.Logger.Warn("WaiveRefund: service error", "error", err, "refund_id", refundID)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) UpdateRefund(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}
	refundID, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	var dto UpdateRefundDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	resp, err := h.Service.Update(r.Context(), principal, refundID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) DeleteRefund(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}
	refundID, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), principal, refundID); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
