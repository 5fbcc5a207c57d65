package approval

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/frahmantamala/expense-reporting/internal"
	coreUser "github.com/frahmantamala/expense-reporting/internal/core/user"
	"github.com/frahmantamala/expense-reporting/internal/report"
	"github.com/frahmantamala/expense-reporting/internal/transport"
)

type ServiceAPI interface {
	Approve(ctx context.Context, p *coreUser.Principal, reportID int64, decision Decision) (*report.ReportResponse, error)
	Reject(ctx context.Context, p *coreUser.Principal, reportID int64, decision Decision) (*report.ReportResponse, error)
	History(ctx context.Context, p *coreUser.Principal, reportID int64) (*HistoryResponse, error)
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

func (h *Handler) ApproveReport(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, true)
}

func (h *Handler) RejectReport(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, false)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request, approve bool) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}
	reportID, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	// the body is optional
	var decision Decision
	if err := json.NewDecoder(r.Body).Decode(&decision); err != nil && !errors.Is(err, io.EOF) {
		h.HandleServiceError(w, internal.NewValidationError("invalid request body", internal.ErrCodeInvalidRequest))
		return
	}

	review := h.Service.Reject
	if approve {
		review = h.Service.Approve
	}
	resp, err := review(r.Context(), principal, reportID, decision)
	if err != nil {
		h.Logger.Warn("ReviewReport: service error", "error", err, "report_id", reportID, "approve", approve)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("ReviewReport: report reviewed",
		"report_id", reportID,
		"reviewer_id", principal.ID,
		"status", resp.Status)
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetApprovalHistory(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}
	reportID, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	resp, err := h.Service.History(r.Context(), principal, reportID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}
