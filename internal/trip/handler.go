package trip

import (
	"context"
	"net/http"

	coreUser "github.com/frahmantamala/expense-reporting/internal/core/user"
	"github.com/frahmantamala/expense-reporting/internal/report"
	"github.com/frahmantamala/expense-reporting/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, p *coreUser.Principal, dto CreateTripDTO) (*TripResponse, error)
	List(ctx context.Context, p *coreUser.Principal, filter ListFilter) (*TripsResponse, error)
	Get(ctx context.Context, p *coreUser.Principal, id int64) (*TripDetailResponse, error)
	Update(ctx context.Context, p *coreUser.Principal, id int64, dto UpdateTripDTO) (*TripResponse, error)
	Delete(ctx context.Context, p *coreUser.Principal, id int64) error
	Complete(ctx context.Context, p *coreUser.Principal, id int64) (*CompletionResponse, error)
	GenerateReport(ctx context.Context, p *coreUser.Principal, id int64) (*report.ReportDetailResponse, error)
	GetReport(ctx context.Context, p *coreUser.Principal, id int64) (*report.ReportDetailResponse, error)
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

func (h *Handler) ListTrips(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}

	limit, offset := transport.Pagination(r, transport.MaxLimit)
	resp, err := h.Service.List(r.Context(), principal, ListFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.Logger.Error("ListTrips: service error", "error", err, "user_id", principal.ID)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}

	var dto CreateTripDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	resp, err := h.Service.Create(r.Context(), principal, dto)
	if err != nil {
		h.Logger.Warn("CreateTrip: service error", "error", err, "user_id", principal.ID)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) GetTrip(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}
	tripID, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	resp, err := h.Service.Get(r.Context(), principal, tripID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}
	tripID, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	var dto UpdateTripDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	resp, err := h.Service.Update(r.Context(), principal, tripID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}
	tripID, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), principal, tripID); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CompleteTrip(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}
	tripID, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	resp, err := h.Service.Complete(r.Context(), principal, tripID)
	if err != nil {
		h.Logger.Warn("CompleteTrip: service error", "error", err, "trip_id", tripID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CompleteTrip: trip completed",
		"trip_id", tripID,
		"actor_id", principal.ID,
		"refund_created", resp.Refund != nil)
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}
	tripID, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	resp, err := h.Service.GenerateReport(r.Context(), principal, tripID)
	if err != nil {
		h.Logger.Warn("GenerateReport: service error", "error", err, "trip_id", tripID)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) GetTripReport(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}
	tripID, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	resp, err := h.Service.GetReport(r.Context(), principal, tripID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}
