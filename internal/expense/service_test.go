package expense_test

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/expense-reporting/internal"
	"github.com/frahmantamala/expense-reporting/internal/category"
	"github.com/frahmantamala/expense-reporting/internal/core/common/dates"
	expenseDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/expense"
	reportDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/report"
	tripDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/trip"
	coreUser "github.com/frahmantamala/expense-reporting/internal/core/user"
	"github.com/frahmantamala/expense-reporting/internal/expense"
	"github.com/frahmantamala/expense-reporting/internal/ocr"
	"github.com/frahmantamala/expense-reporting/pkg/logger"
)

// Mock repository for testing
type mockExpenseRepository struct {
	expenses    map[int64]*expenseDatamodel.Expense
	createError error
	lastFilter  expense.ListFilter
	nextID      int64
}

func newMockExpenseRepository() *mockExpenseRepository {
	return &mockExpenseRepository{
		expenses: make(map[int64]*expenseDatamodel.Expense),
		nextID:   1,
	}
}

func (m *mockExpenseRepository) Create(ctx context.Context, exp *expenseDatamodel.Expense) error {
	if m.createError != nil {
		return m.createError
	}
	exp.ID = m.nextID
	m.nextID++
	copied := *exp
	m.expenses[exp.ID] = &copied
	return nil
}

func (m *mockExpenseRepository) GetByID(ctx context.Context, id int64) (*expenseDatamodel.Expense, error) {
	exp, exists := m.expenses[id]
	if !exists {
		return nil, nil
	}
	copied := *exp
	return &copied, nil
}

func (m *mockExpenseRepository) List(ctx context.Context, filter expense.ListFilter) ([]*expenseDatamodel.Expense, error) {
	m.lastFilter = filter
	var out []*expenseDatamodel.Expense
	for _, exp := range m.expenses {
		if filter.UserID == nil || exp.UserID == *filter.UserID {
			out = append(out, exp)
		}
	}
	return out, nil
}

func (m *mockExpenseRepository) Update(ctx context.Context, exp *expenseDatamodel.Expense) error {
	copied := *exp
	m.expenses[exp.ID] = &copied
	return nil
}

func (m *mockExpenseRepository) Delete(ctx context.Context, id int64) error {
	delete(m.expenses, id)
	return nil
}

type mockCategories struct {
	categories map[int64]*category.Category
}

func (m *mockCategories) GetActive(ctx context.Context, id int64) (*category.Category, error) {
	cat, ok := m.categories[id]
	if !ok || !cat.IsActive {
		return nil, category.ErrCategoryNotFound
	}
	return cat, nil
}

func (m *mockCategories) GetAllCategories(ctx context.Context) ([]category.CategoryResponse, error) {
	var out []category.CategoryResponse
	for _, cat := range m.categories {
		if cat.IsActive {
			out = append(out, cat.ToResponse())
		}
	}
	return out, nil
}

type mockTrips map[int64]*tripDatamodel.Trip

func (m mockTrips) GetByID(ctx context.Context, id int64) (*tripDatamodel.Trip, error) {
	return m[id], nil
}

type mockReports map[int64]*reportDatamodel.Report

func (m mockReports) GetByID(ctx context.Context, id int64) (*reportDatamodel.Report, error) {
	return m[id], nil
}

type mockReceipts struct {
	saved   []string
	deleted []string
}

func (m *mockReceipts) Save(ctx context.Context, userID int64, originalName string, data []byte) string {
	url := "receipts/test/" + originalName
	m.saved = append(m.saved, url)
	return url
}

func (m *mockReceipts) Delete(ctx context.Context, url string) {
	m.deleted = append(m.deleted, url)
}

type stubExtractor struct {
	result *ocr.Result
	err    error
}

func (s *stubExtractor) Extract(ctx context.Context, image []byte) (*ocr.Result, error) {
	return s.result, s.err
}

var _ = Describe("ExpenseService", func() {
	var (
		ctx            context.Context
		expenseService *expense.Service
		mockRepo       *mockExpenseRepository
		trips          mockTrips
		reports        mockReports
		receipts       *mockReceipts
		extractor      *stubExtractor
		employee       *coreUser.Principal
		colleague      *coreUser.Principal
		manager        *coreUser.Principal
		mealCap        int64
	)

	validDTO := func() expense.CreateExpenseDTO {
		return expense.CreateExpenseDTO{
			CategoryID:  1,
			Amount:      2500,
			Merchant:    "Blue Bottle Cafe",
			Description: "Team coffee",
			ExpenseDate: dates.New(time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)),
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		mealCap = 5000
		mockRepo = newMockExpenseRepository()
		categories := &mockCategories{categories: map[int64]*category.Category{
			1: {ID: 1, Name: "Food & Drinks", MaxAmount: &mealCap, IsActive: true},
			2: {ID: 2, Name: "Transport", IsActive: true},
			3: {ID: 3, Name: "Retired", IsActive: false},
		}}
		trips = mockTrips{
			10: {ID: 10, UserID: 1, Name: "Berlin", Status: tripDatamodel.StatusActive},
			11: {ID: 11, UserID: 1, Name: "Paris", Status: tripDatamodel.StatusCompleted},
			12: {ID: 12, UserID: 2, Name: "Rome", Status: tripDatamodel.StatusActive},
			13: {ID: 13, UserID: 1, Name: "Lisbon", Status: tripDatamodel.StatusActive},
		}
		reports = mockReports{
			20: {ID: 20, UserID: 1, Status: reportDatamodel.StatusDraft},
			21: {ID: 21, UserID: 1, Status: reportDatamodel.StatusSubmitted},
		}
		receipts = &mockReceipts{}
		extractor = &stubExtractor{result: &ocr.Result{Confidence: 91, RawText: "TOTAL 25.00"}}

		employee = &coreUser.Principal{ID: 1, Role: coreUser.RoleEmployee}
		colleague = &coreUser.Principal{ID: 2, Role: coreUser.RoleEmployee}
		manager = &coreUser.Principal{ID: 3, Role: coreUser.RoleManager}

		expenseService = expense.NewService(mockRepo, categories, trips, reports, receipts, extractor, logger.Discard())
	})

	Describe("Create", func() {
		It("should create a draft expense with the default currency", func() {
			result, err := expenseService.Create(ctx, employee, validDTO(), nil)

			Expect(err).ToNot(HaveOccurred())
			Expect(result.ID).To(BeNumerically(">", 0))
			Expect(result.UserID).To(Equal(int64(1)))
			Expect(result.Status).To(Equal(expense.StatusDraft))
			Expect(result.Currency).To(Equal("USD"))
			Expect(result.ReceiptURL).To(BeNil())
		})

		It("should reject amounts over the category cap", func() {
			dto := validDTO()
			dto.Amount = 5001

			_, err := expenseService.Create(ctx, employee, dto, nil)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
			Expect(appErr.Error()).To(ContainSubstring("must not exceed 5000"))
		})

		It("should reject a non-positive amount", func() {
			dto := validDTO()
			dto.Amount = 0

			_, err := expenseService.Create(ctx, employee, dto, nil)

			Expect(internal.IsErrorType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})

		It("should return not found for an inactive category", func() {
			dto := validDTO()
			dto.CategoryID = 3

			_, err := expenseService.Create(ctx, employee, dto, nil)

			Expect(err).To(Equal(category.ErrCategoryNotFound))
		})

		It("should refuse a completed trip", func() {
			dto := validDTO()
			tripID := int64(11)
			dto.TripID = &tripID

			_, err := expenseService.Create(ctx, employee, dto, nil)

			Expect(err).To(Equal(expense.ErrTripCompleted))
		})

		It("should hide trips owned by someone else", func() {
			dto := validDTO()
			tripID := int64(12)
			dto.TripID = &tripID

			_, err := expenseService.Create(ctx, employee, dto, nil)

			Expect(err).To(Equal(expense.ErrTripNotFound))
		})

		It("should store the receipt and keep the OCR result", func() {
			result, err := expenseService.Create(ctx, employee, validDTO(), &expense.Receipt{Filename: "coffee.png", Data: []byte("img")})

			Expect(err).ToNot(HaveOccurred())
			Expect(*result.ReceiptURL).To(Equal("receipts/test/coffee.png"))
			Expect(*result.ReceiptOriginalName).To(Equal("coffee.png"))
			Expect(*result.OCRConfidence).To(Equal(float64(91)))
			Expect(*result.OCRData).To(ContainSubstring("TOTAL 25.00"))
		})

		It("should still create the expense when OCR fails", func() {
			extractor.err = errors.New("vision down")

			result, err := expenseService.Create(ctx, employee, validDTO(), &expense.Receipt{Filename: "coffee.jpg", Data: []byte("img")})

			Expect(err).ToNot(HaveOccurred())
			Expect(result.ReceiptURL).NotTo(BeNil())
			Expect(result.OCRData).To(BeNil())
			Expect(result.OCRConfidence).To(BeNil())
		})

		It("should reject unsupported receipt types", func() {
			_, err := expenseService.Create(ctx, employee, validDTO(), &expense.Receipt{Filename: "invoice.pdf", Data: []byte("pdf")})

			Expect(internal.IsErrorType(err, internal.ErrorTypeValidation)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("file extension not allowed"))
			Expect(receipts.saved).To(BeEmpty())
		})

		It("should surface repository failures as internal errors", func() {
			mockRepo.createError = errors.New("database error")

			_, err := expenseService.Create(ctx, employee, validDTO(), nil)

			Expect(internal.IsErrorType(err, internal.ErrorTypeInternal)).To(BeTrue())
		})
	})

	Describe("Scan", func() {
		It("should suggest a category and an amount in minor units", func() {
			amount := decimal.RequireFromString("45.99")
			merchant := "Corner Cafe"
			extractor.result = &ocr.Result{Merchant: &merchant, Amount: &amount, Confidence: 80}

			resp, err := expenseService.Scan(ctx, employee, expense.Receipt{Filename: "r.jpg", Data: []byte("img")})

			Expect(err).ToNot(HaveOccurred())
			Expect(resp.ReceiptURL).To(Equal("receipts/test/r.jpg"))
			Expect(*resp.Amount).To(Equal(int64(4599)))
			Expect(resp.SuggestedExpense).NotTo(BeNil())
			Expect(resp.SuggestedExpense.Amount).To(Equal(int64(4599)))
			Expect(*resp.SuggestedExpense.CategoryID).To(Equal(int64(1)))
			Expect(resp.SuggestedExpense.Currency).To(Equal("USD"))
		})

		It("should encode the scanned amount in minor units", func() {
			amount := decimal.RequireFromString("45.99")
			extractor.result = &ocr.Result{Amount: &amount, Confidence: 80}

			resp, err := expenseService.Scan(ctx, employee, expense.Receipt{Filename: "r.jpg", Data: []byte("img")})
			Expect(err).ToNot(HaveOccurred())

			body, err := json.Marshal(resp)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(body)).To(ContainSubstring(`"amount":4599,`))
			Expect(string(body)).NotTo(ContainSubstring("45.99"))
		})

		It("should degrade to zero confidence when OCR fails", func() {
			extractor.err = errors.New("quota exceeded")

			resp, err := expenseService.Scan(ctx, employee, expense.Receipt{Filename: "r.jpg", Data: []byte("img")})

			Expect(err).ToNot(HaveOccurred())
			Expect(resp.Confidence).To(Equal(0))
			Expect(resp.SuggestedExpense).To(BeNil())
			Expect(resp.ReceiptURL).NotTo(BeEmpty())
		})
	})

	Describe("Get and List", func() {
		var created *expense.Expense

		BeforeEach(func() {
			var err error
			created, err = expenseService.Create(ctx, employee, validDTO(), nil)
			Expect(err).ToNot(HaveOccurred())
		})

		It("should let managers read any expense", func() {
			result, err := expenseService.Get(ctx, manager, created.ID)

			Expect(err).ToNot(HaveOccurred())
			Expect(result.ID).To(Equal(created.ID))
		})

		It("should hide the expense from other employees", func() {
			_, err := expenseService.Get(ctx, colleague, created.ID)

			Expect(err).To(Equal(expense.ErrExpenseNotFound))
		})

		It("should scope employee listings to their own expenses", func() {
			resp, err := expenseService.List(ctx, colleague, expense.ListFilter{Limit: 20})

			Expect(err).ToNot(HaveOccurred())
			Expect(resp.Expenses).To(BeEmpty())
			Expect(*mockRepo.lastFilter.UserID).To(Equal(int64(2)))
		})

		It("should not scope manager listings", func() {
			resp, err := expenseService.List(ctx, manager, expense.ListFilter{Limit: 20})

			Expect(err).ToNot(HaveOccurred())
			Expect(resp.Expenses).To(HaveLen(1))
			Expect(mockRepo.lastFilter.UserID).To(BeNil())
		})
	})

	Describe("Update", func() {
		var created *expense.Expense

		BeforeEach(func() {
			var err error
			created, err = expenseService.Create(ctx, employee, validDTO(), nil)
			Expect(err).ToNot(HaveOccurred())
		})

		It("should patch the given fields", func() {
			amount := int64(4000)
			merchant := "Tartine"

			result, err := expenseService.Update(ctx, employee, created.ID, expense.UpdateExpenseDTO{Amount: &amount, Merchant: &merchant})

			Expect(err).ToNot(HaveOccurred())
			Expect(result.Amount).To(Equal(amount))
			Expect(result.Merchant).To(Equal("Tartine"))
			Expect(result.Description).To(Equal("Team coffee"))
		})

		It("should refuse once the expense is pending", func() {
			mockRepo.expenses[created.ID].Status = expense.StatusPending
			amount := int64(100)

			_, err := expenseService.Update(ctx, employee, created.ID, expense.UpdateExpenseDTO{Amount: &amount})

			Expect(err).To(Equal(expense.ErrCannotModifyExpense))
		})

		It("should allow editing a rejected expense", func() {
			mockRepo.expenses[created.ID].Status = expense.StatusRejected
			description := "Resubmitted"

			result, err := expenseService.Update(ctx, employee, created.ID, expense.UpdateExpenseDTO{Description: &description})

			Expect(err).ToNot(HaveOccurred())
			Expect(result.Status).To(Equal(expense.StatusRejected))
		})

		It("should re-check the cap when only the category changes", func() {
			amount := int64(9000)
			_, err := expenseService.Update(ctx, employee, created.ID, expense.UpdateExpenseDTO{Amount: &amount})
			Expect(internal.IsErrorType(err, internal.ErrorTypeValidation)).To(BeTrue())

			transport := int64(2)
			result, err := expenseService.Update(ctx, employee, created.ID, expense.UpdateExpenseDTO{CategoryID: &transport, Amount: &amount})
			Expect(err).ToNot(HaveOccurred())
			Expect(result.CategoryID).To(Equal(int64(2)))
		})

		It("should move an unreported expense to another trip", func() {
			berlin, lisbon := int64(10), int64(13)
			mockRepo.expenses[created.ID].TripID = &berlin

			result, err := expenseService.Update(ctx, employee, created.ID, expense.UpdateExpenseDTO{TripID: &lisbon})

			Expect(err).ToNot(HaveOccurred())
			Expect(*result.TripID).To(Equal(lisbon))
		})

		It("should refuse to move an expense to another trip while it is on a report", func() {
			berlin, lisbon, draftReport := int64(10), int64(13), int64(20)
			mockRepo.expenses[created.ID].TripID = &berlin
			mockRepo.expenses[created.ID].ReportID = &draftReport

			_, err := expenseService.Update(ctx, employee, created.ID, expense.UpdateExpenseDTO{TripID: &lisbon})

			Expect(err).To(Equal(expense.ErrTripChangeOnReport))
			Expect(*mockRepo.expenses[created.ID].TripID).To(Equal(berlin))
		})

		It("should accept the current trip on a reported expense", func() {
			berlin, draftReport := int64(10), int64(20)
			mockRepo.expenses[created.ID].TripID = &berlin
			mockRepo.expenses[created.ID].ReportID = &draftReport
			description := "Airport taxi"

			result, err := expenseService.Update(ctx, employee, created.ID, expense.UpdateExpenseDTO{TripID: &berlin, Description: &description})

			Expect(err).ToNot(HaveOccurred())
			Expect(result.Description).To(Equal("Airport taxi"))
		})

		It("should not let managers edit someone else's expense", func() {
			amount := int64(100)

			_, err := expenseService.Update(ctx, manager, created.ID, expense.UpdateExpenseDTO{Amount: &amount})

			Expect(err).To(Equal(expense.ErrExpenseNotFound))
		})
	})

	Describe("Delete", func() {
		It("should delete the expense and its receipt", func() {
			created, err := expenseService.Create(ctx, employee, validDTO(), &expense.Receipt{Filename: "a.png", Data: []byte("x")})
			Expect(err).ToNot(HaveOccurred())

			Expect(expenseService.Delete(ctx, employee, created.ID)).To(Succeed())

			Expect(mockRepo.expenses).NotTo(HaveKey(created.ID))
			Expect(receipts.deleted).To(Equal([]string{"receipts/test/a.png"}))
		})

		It("should refuse while attached to a submitted report", func() {
			created, err := expenseService.Create(ctx, employee, validDTO(), nil)
			Expect(err).ToNot(HaveOccurred())
			reportID := int64(21)
			mockRepo.expenses[created.ID].ReportID = &reportID

			err = expenseService.Delete(ctx, employee, created.ID)

			Expect(err).To(Equal(expense.ErrInReviewedReport))
		})

		It("should allow deleting from a draft report", func() {
			created, err := expenseService.Create(ctx, employee, validDTO(), nil)
			Expect(err).ToNot(HaveOccurred())
			reportID := int64(20)
			mockRepo.expenses[created.ID].ReportID = &reportID

			Expect(expenseService.Delete(ctx, employee, created.ID)).To(Succeed())
		})
	})
})

var _ = Describe("SuggestCategory", func() {
	categories := []category.CategoryResponse{
		{ID: 1, Name: "Food & Drinks"},
		{ID: 2, Name: "Transport"},
		{ID: 3, Name: "Lodging"},
	}

	DescribeTable("merchant keywords",
		func(merchant string, expected *int64) {
			Expect(expense.SuggestCategory(merchant, categories)).To(Equal(expected))
		},
		Entry("cafe", "Corner CAFE", ptr(1)),
		Entry("ride share", "Uber *trip", ptr(2)),
		Entry("hotel", "Hilton Hotel Berlin", ptr(3)),
		Entry("unknown", "Office Depot", nil),
		Entry("empty", "", nil),
	)
})

func ptr(v int64) *int64 { return &v }
