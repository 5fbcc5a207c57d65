package expense

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/frahmantamala/expense-reporting/internal"
	"github.com/frahmantamala/expense-reporting/internal/core/common/dates"
	coreUser "github.com/frahmantamala/expense-reporting/internal/core/user"
	"github.com/frahmantamala/expense-reporting/internal/transport"
)

const maxUploadSize = 10 << 20

type ServiceAPI interface {
	List(ctx context.Context, p *coreUser.Principal, filter ListFilter) (*ExpensesResponse, error)
	Create(ctx context.Context, p *coreUser.Principal, dto CreateExpenseDTO, receipt *Receipt) (*Expense, error)
	Scan(ctx context.Context, p *coreUser.Principal, receipt Receipt) (*ScanResponse, error)
	Get(ctx context.Context, p *coreUser.Principal, id int64) (*Expense, error)
	Update(ctx context.Context, p *coreUser.Principal, id int64, dto UpdateExpenseDTO) (*Expense, error)
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

func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}

	filter, err := listFilterFromQuery(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp, err := h.Service.List(r.Context(), principal, filter)
	if err != nil {
		h.Logger.Error("ListExpenses: service error", "error", err, "user_id", principal.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

// CreateExpense accepts application/json or multipart/form-data with an optional receipt file.
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}

	var (
		dto     CreateExpenseDTO
		receipt *Receipt
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		var err error
		dto, receipt, err = h.parseMultipartExpense(w, r)
		if err != nil {
			h.Logger.Warn("CreateExpense: invalid form", "error", err)
			h.HandleServiceError(w, err)
			return
		}
	} else if !h.DecodeJSON(w, r, &dto) {
		return
	}

	exp, err := h.Service.Create(r.Context(), principal, dto, receipt)
	if err != nil {
		h.Logger.Warn("CreateExpense: service error", "error", err, "user_id", principal.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateExpense: expense created successfully",
		"expense_id", exp.ID,
		"user_id", principal.ID,
		"amount", exp.Amount)

	h.WriteJSON(w, http.StatusCreated, exp.ToResponse())
}

func (h *Handler) ScanReceipt(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.HandleServiceError(w, internal.NewValidationError("invalid multipart form", internal.ErrCodeInvalidRequest))
		return
	}

	receipt, err := readReceipt(r, "file")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if receipt == nil {
		h.HandleServiceError(w, internal.NewValidationFieldError("file", "file is required", internal.ErrCodeValidationFailed))
		return
	}

	resp, err := h.Service.Scan(r.Context(), principal, *receipt)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetExpense(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}
	expenseID, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	exp, err := h.Service.Get(r.Context(), principal, expenseID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, exp.ToResponse())
}

func (h *Handler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}
	expenseID, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	var dto UpdateExpenseDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	exp, err := h.Service.Update(r.Context(), principal, expenseID, dto)
	if err != nil {
		h.Logger.Warn("UpdateExpense: service error", "error", err, "expense_id", expenseID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, exp.ToResponse())
}

func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.Principal(w, r)
	if !ok {
		return
	}
	expenseID, ok := h.ParseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), principal, expenseID); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) parseMultipartExpense(w http.ResponseWriter, r *http.Request) (CreateExpenseDTO, *Receipt, error) {
	var dto CreateExpenseDTO

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return dto, nil, internal.NewValidationError("invalid multipart form", internal.ErrCodeInvalidRequest)
	}

	var err error
	if dto.CategoryID, err = formInt(r, "category_id"); err != nil {
		return dto, nil, err
	}
	if dto.Amount, err = formInt(r, "amount"); err != nil {
		return dto, nil, err
	}
	if raw := r.FormValue("trip_id"); raw != "" {
		tripID, err := formInt(r, "trip_id")
		if err != nil {
			return dto, nil, err
		}
		dto.TripID = &tripID
	}
	if raw := r.FormValue("expense_date"); raw != "" {
		t, err := dates.Parse(raw)
		if err != nil {
			return dto, nil, internal.NewValidationFieldError("expense_date", "expense_date must be a date (YYYY-MM-DD)", internal.ErrCodeInvalidDate)
		}
		dto.ExpenseDate = dates.New(t)
	}
	dto.Currency = r.FormValue("currency")
	dto.Merchant = r.FormValue("merchant")
	dto.Description = r.FormValue("description")

	receipt, err := readReceipt(r, "receipt")
	if err != nil {
		return dto, nil, err
	}
	return dto, receipt, nil
}

// readReceipt returns nil when the form carries no file under field.
func readReceipt(r *http.Request, field string) (*Receipt, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, internal.NewValidationFieldError(field, "unreadable file", internal.ErrCodeInvalidRequest)
	}
	defer func(f multipart.File) { _ = f.Close() }(file)

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, internal.NewValidationFieldError(field, "unreadable file", internal.ErrCodeInvalidRequest)
	}
	return &Receipt{Filename: header.Filename, Data: data}, nil
}

func formInt(r *http.Request, field string) (int64, error) {
	raw := r.FormValue(field)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, internal.NewValidationFieldError(field, field+" must be an integer", internal.ErrCodeInvalidRequest)
	}
	return v, nil
}

func listFilterFromQuery(r *http.Request) (ListFilter, error) {
	limit, offset := transport.Pagination(r, transport.MaxLimit)
	filter := ListFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	}

	var err error
	if filter.CategoryID, err = transport.QueryInt64(r, "category_id"); err != nil {
		return filter, err
	}
	if filter.TripID, err = transport.QueryInt64(r, "trip_id"); err != nil {
		return filter, err
	}
	return filter, nil
}
