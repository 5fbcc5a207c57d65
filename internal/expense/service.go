package expense

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/expense-reporting/internal"
	"github.com/frahmantamala/expense-reporting/internal/category"
	"github.com/frahmantamala/expense-reporting/internal/core/common/money"
	"github.com/frahmantamala/expense-reporting/internal/core/common/validation"
	expenseDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/expense"
	reportDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/report"
	tripDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/trip"
	coreUser "github.com/frahmantamala/expense-reporting/internal/core/user"
	"github.com/frahmantamala/expense-reporting/internal/ocr"
	"github.com/frahmantamala/expense-reporting/internal/storage"
)

var (
	ErrExpenseNotFound     = internal.NewNotFoundError("expense not found", internal.ErrCodeExpenseNotFound)
	ErrTripNotFound        = internal.NewNotFoundError("trip not found", internal.ErrCodeTripNotFound)
	ErrTripCompleted       = internal.NewConflictError("cannot add expenses to a completed trip", internal.ErrCodeTripNotActive)
	ErrCannotModifyExpense = internal.NewConflictError("expense can only be changed while draft or rejected", internal.ErrCodeCannotModifyExpense)
	ErrInReviewedReport    = internal.NewConflictError("expense belongs to a report that is no longer draft", internal.ErrCodeCannotModifyExpense)
	ErrTripChangeOnReport  = internal.NewConflictError("remove the expense from its report before moving it to another trip", internal.ErrCodeCannotModifyExpense)
)

type RepositoryAPI interface {
	Create(ctx context.Context, expense *expenseDatamodel.Expense) error
	GetByID(ctx context.Context, id int64) (*expenseDatamodel.Expense, error)
	List(ctx context.Context, filter ListFilter) ([]*expenseDatamodel.Expense, error)
	Update(ctx context.Context, expense *expenseDatamodel.Expense) error
	Delete(ctx context.Context, id int64) error
}

type CategoryProvider interface {
	GetActive(ctx context.Context, id int64) (*category.Category, error)
	GetAllCategories(ctx context.Context) ([]category.CategoryResponse, error)
}

type TripReader interface {
	GetByID(ctx context.Context, id int64) (*tripDatamodel.Trip, error)
}

type ReportReader interface {
	GetByID(ctx context.Context, id int64) (*reportDatamodel.Report, error)
}

// ReceiptStore saves receipt images. Save never fails; it degrades to a placeholder URL.
type ReceiptStore interface {
	Save(ctx context.Context, userID int64, originalName string, data []byte) string
	Delete(ctx context.Context, url string)
}

type Service struct {
	repo       RepositoryAPI
	categories CategoryProvider
	trips      TripReader
	reports    ReportReader
	receipts   ReceiptStore
	extractor  ocr.Extractor
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(repo RepositoryAPI, categories CategoryProvider, trips TripReader, reports ReportReader, receipts ReceiptStore, extractor ocr.Extractor, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		categories: categories,
		trips:      trips,
		reports:    reports,
		receipts:   receipts,
		extractor:  extractor,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *Service) List(ctx context.Context, p *coreUser.Principal, filter ListFilter) (*ExpensesResponse, error) {
	filter.UserID = p.ScopeUserID()

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list expenses", "error", err, "user_id", p.ID)
		return nil, internal.NewInternalError("failed to list expenses", err)
	}

	return &ExpensesResponse{
		Expenses: Responses(rows),
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	}, nil
}

// Create records a draft expense. The receipt, when given, is stored and scanned best-effort.
func (s *Service) Create(ctx context.Context, p *coreUser.Principal, dto CreateExpenseDTO, receipt *Receipt) (*Expense, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if receipt != nil && !storage.AllowedExtension(receipt.Filename) {
		return nil, invalidFileType()
	}

	if err := s.checkCategory(ctx, dto.CategoryID, dto.Amount); err != nil {
		return nil, err
	}
	if dto.TripID != nil {
		if err := s.checkTrip(ctx, p.ID, *dto.TripID); err != nil {
			return nil, err
		}
	}

	exp := NewExpense(p.ID, dto)
	if receipt != nil {
		s.attachReceipt(ctx, exp, receipt)
	}

	data := ToDataModel(exp)
	if err := s.repo.Create(ctx, data); err != nil {
		s.logger.Error("failed to create expense", "error", err, "user_id", p.ID)
		return nil, internal.NewInternalError("failed to create expense", err)
	}

	s.logger.Info("expense created",
		"expense_id", data.ID,
		"user_id", p.ID,
		"amount", data.Amount,
		"trip_id", data.TripID)

	return FromDataModel(data), nil
}

// Scan stores a receipt and reads it. OCR failures yield a zero-confidence result.
func (s *Service) Scan(ctx context.Context, p *coreUser.Principal, receipt Receipt) (*ScanResponse, error) {
	if !storage.AllowedExtension(receipt.Filename) {
		return nil, invalidFileType()
	}

	url := s.receipts.Save(ctx, p.ID, receipt.Filename, receipt.Data)
	result := s.extract(ctx, receipt.Data)

	resp := &ScanResponse{
		Merchant:   result.Merchant,
		Date:       result.Date,
		Confidence: result.Confidence,
		RawText:    result.RawText,
		ReceiptURL: url,
	}

	if result.Amount != nil {
		amount := money.FromMajor(*result.Amount)
		resp.Amount = &amount

		suggestion := &SuggestedExpense{
			Amount:      amount,
			Merchant:    result.Merchant,
			ExpenseDate: s.now().Format(time.RFC3339),
			Currency:    DefaultCurrency,
		}
		if result.Date != nil {
			suggestion.ExpenseDate = *result.Date
		}
		if result.Merchant != nil {
			categories, err := s.categories.GetAllCategories(ctx)
			if err != nil {
				s.logger.Warn("category suggestion skipped", "error", err)
			} else {
				suggestion.CategoryID = SuggestCategory(*result.Merchant, categories)
			}
		}
		resp.SuggestedExpense = suggestion
	}

	return resp, nil
}

func (s *Service) Get(ctx context.Context, p *coreUser.Principal, id int64) (*Expense, error) {
	exp, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.CanAccess(exp.UserID) {
		return nil, ErrExpenseNotFound
	}
	return exp, nil
}

func (s *Service) Update(ctx context.Context, p *coreUser.Principal, id int64, dto UpdateExpenseDTO) (*Expense, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	exp, err := s.loadOwned(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if !exp.IsEditable() {
		return nil, ErrCannotModifyExpense
	}

	if dto.CategoryID != nil {
		exp.CategoryID = *dto.CategoryID
	}
	if dto.Amount != nil {
		exp.Amount = *dto.Amount
	}
	if dto.CategoryID != nil || dto.Amount != nil {
		if err := s.checkCategory(ctx, exp.CategoryID, exp.Amount); err != nil {
			return nil, err
		}
	}
	if dto.TripID != nil && !sameTrip(exp.TripID, *dto.TripID) {
		if exp.InReport() {
			return nil, ErrTripChangeOnReport
		}
		if err := s.checkTrip(ctx, p.ID, *dto.TripID); err != nil {
			return nil, err
		}
		exp.TripID = dto.TripID
	}
	if dto.Currency != nil {
		exp.Currency = *dto.Currency
	}
	if dto.Merchant != nil {
		exp.Merchant = strings.TrimSpace(*dto.Merchant)
	}
	if dto.Description != nil {
		exp.Description = *dto.Description
	}
	if dto.ExpenseDate != nil {
		exp.ExpenseDate = dto.ExpenseDate.Time
	}
	exp.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, ToDataModel(exp)); err != nil {
		return nil, internal.NewInternalError("failed to update expense", err)
	}
	return exp, nil
}

func (s *Service) Delete(ctx context.Context, p *coreUser.Principal, id int64) error {
	exp, err := s.loadOwned(ctx, p, id)
	if err != nil {
		return err
	}

	if exp.ReportID != nil {
		report, err := s.reports.GetByID(ctx, *exp.ReportID)
		if err != nil {
			return internal.NewInternalError("failed to load report", err)
		}
		if report != nil && report.Status != reportDatamodel.StatusDraft {
			return ErrInReviewedReport
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return internal.NewInternalError("failed to delete expense", err)
	}

	if exp.ReceiptURL != nil {
		s.receipts.Delete(ctx, *exp.ReceiptURL)
	}

	s.logger.Info("expense deleted", "expense_id", id, "user_id", p.ID)
	return nil
}

func (s *Service) load(ctx context.Context, id int64) (*Expense, error) {
	data, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to get expense", err)
	}
	if data == nil {
		return nil, ErrExpenseNotFound
	}
	return FromDataModel(data), nil
}

// loadOwned hides other users' expenses behind not found.
func (s *Service) loadOwned(ctx context.Context, p *coreUser.Principal, id int64) (*Expense, error) {
	exp, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if exp.UserID != p.ID {
		return nil, ErrExpenseNotFound
	}
	return exp, nil
}

func (s *Service) checkCategory(ctx context.Context, categoryID, amount int64) error {
	cat, err := s.categories.GetActive(ctx, categoryID)
	if err != nil {
		return err
	}
	if err := validation.ValidateAmount("amount", amount, cat.MaxAmount); err != nil {
		return err
	}
	return nil
}

func sameTrip(current *int64, tripID int64) bool {
	return current != nil && *current == tripID
}

func (s *Service) checkTrip(ctx context.Context, userID, tripID int64) error {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return internal.NewInternalError("failed to load trip", err)
	}
	if trip == nil || trip.UserID != userID {
		return ErrTripNotFound
	}
	if trip.Status == tripDatamodel.StatusCompleted {
		return ErrTripCompleted
	}
	return nil
}

func (s *Service) attachReceipt(ctx context.Context, exp *Expense, receipt *Receipt) {
	url := s.receipts.Save(ctx, exp.UserID, receipt.Filename, receipt.Data)
	name := receipt.Filename
	exp.ReceiptURL = &url
	exp.ReceiptOriginalName = &name

	if s.extractor == nil {
		return
	}
	result, err := s.extractor.Extract(ctx, receipt.Data)
	if err != nil {
		s.logger.Warn("receipt OCR failed", "user_id", exp.UserID, "file", name, "error", err)
		return
	}

	raw, err := json.Marshal(result)
	if err != nil {
		s.logger.Warn("receipt OCR result not encodable", "error", err)
		return
	}
	data := string(raw)
	confidence := float64(result.Confidence)
	exp.OCRData = &data
	exp.OCRConfidence = &confidence
}

func (s *Service) extract(ctx context.Context, image []byte) *ocr.Result {
	if s.extractor == nil {
		return ocr.Empty()
	}
	result, err := s.extractor.Extract(ctx, image)
	if err != nil {
		s.logger.Warn("receipt scan degraded", "error", err)
		return ocr.Empty()
	}
	return result
}

func invalidFileType() error {
	message := fmt.Sprintf("file extension not allowed, use one of: %s", strings.Join(storage.AllowedExtensions(), ", "))
	return internal.NewValidationFieldError("receipt", message, internal.ErrCodeInvalidFileType)
}
