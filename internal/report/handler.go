package report

import (
	"context"
	"net/http"
	"strconv"

	coreUser "github.com/frahmantamala/expense-reporting/internal/core/user"
	"github.com/frahmantamala/expense-reporting/internal/export"
	"github.com/frahmantamala/expense-reporting/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, p *coreUser.Principal, dto CreateReportDTO) (*ReportResponse, error)
	List(ctx context.Context, p *coreUser.Principal, filter ListFilter) (*ReportsResponse, error)
	ListPending(ctx context.Context, p *coreUser.Principal, limit, offset int) (*ReportsResponse, error)
	Get(ctx context.Context, p *coreUser.Principal, id int64) (*ReportDetailResponse, error)
	Update(ctx context.Context, p *coreUser.Principal, id int64, dto UpdateReportDTO) (*ReportResponse, error)
	Submit(ctx context.Context, p *coreUser.Principal, id int64) (*ReportResponse, error)
	AddExpense(ctx context.Context, p *coreUser.Principal, reportID, expenseID int64) (*ReportResponse, error)
	RemoveExpense(ctx context.Context, p *coreUser.Principal, reportID, expenseID int64) (*ReportResponse, error)
	Export(ctx context.Context, p *coreUser.Principal, id int64, format string) (*export.File, error)
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

func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
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
		h.Logger.Error("ListReports: service error", "error", err, "user_id", principal.ID)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) ListPendingReports(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}

	limit, offset := transport.Pagination(r, transport.MaxLimit)
	resp, err := h.Service.ListPending(r.Context(), principal, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}

	var dto CreateReportDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	resp, err := h.Service.Create(r.Context(), principal, dto)
	if err != nil {
		h.Logger.Warn("CreateReport: service error", "error", err, "user_id", principal.ID)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}
	reportID, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	resp, err := h.Service.Get(r.Context(), principal, reportID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) UpdateReport(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}
	reportID, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	var dto UpdateReportDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	resp, err := h.Service.Update(r.Context(), principal, reportID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}
	reportID, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	resp, err := h.Service.Submit(r.Context(), principal, reportID)
	if err != nil {
		h.Logger.Warn("SubmitReport: service error", "error", err, "report_id", reportID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("SubmitReport: report submitted", "report_id", reportID, "user_id", principal.ID)
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) AddExpense(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}
	reportID, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}
	expenseID, ok := h.ParseIDParam(w, r, "expenseID")
	if !ok {
		return
	}

	resp, err := h.Service.AddExpense(r.Context(), principal, reportID, expenseID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) RemoveExpense(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}
	reportID, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}
	expenseID, ok := h.ParseIDParam(w, r, "expenseID")
	if !ok {
		return
	}

	resp, err := h.Service.RemoveExpense(r.Context(), principal, reportID, expenseID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// ExportReport streams the rendered file; format defaults to pdf.
func (h *Handler) ExportReport(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}
	reportID, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = export.FormatPDF
	}

	file, err := h.Service.Export(r.Context(), principal, reportID, format)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+file.Filename)
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Data); err != nil {
		h.Logger.Error("ExportReport: failed to write file", "error", err, "report_id", reportID)
	}
}
