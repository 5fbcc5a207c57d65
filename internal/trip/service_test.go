package trip_test

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/expense-reporting/internal"
	categoryPostgres "github.com/frahmantamala/expense-reporting/internal/category/postgres"
	"github.com/frahmantamala/expense-reporting/internal/core/common/dates"
	"github.com/frahmantamala/expense-reporting/internal/core/database"
	approvalDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/approval"
	categoryDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/category"
	expenseDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/expense"
	refundDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/refund"
	reportDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/report"
	userDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/user"
	"github.com/frahmantamala/expense-reporting/internal/core/events"
	coreUser "github.com/frahmantamala/expense-reporting/internal/core/user"
	expensePostgres "github.com/frahmantamala/expense-reporting/internal/expense/postgres"
	"github.com/frahmantamala/expense-reporting/internal/refund"
	refundPostgres "github.com/frahmantamala/expense-reporting/internal/refund/postgres"
	"github.com/frahmantamala/expense-reporting/internal/report"
	reportPostgres "github.com/frahmantamala/expense-reporting/internal/report/postgres"
	"github.com/frahmantamala/expense-reporting/internal/trip"
	tripPostgres "github.com/frahmantamala/expense-reporting/internal/trip/postgres"
	userPostgres "github.com/frahmantamala/expense-reporting/internal/user/postgres"
	"github.com/frahmantamala/expense-reporting/pkg/logger"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingPublisher) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

var _ = Describe("TripService", func() {
	var (
		ctx       context.Context
		conns     *database.Connections
		svc       *trip.Service
		expenses  *expensePostgres.ExpenseRepository
		reports   *reportPostgres.ReportRepository
		publisher *recordingPublisher
		category  *categoryDatamodel.Category
		now       time.Time
		owner     *coreUser.Principal
		other     *coreUser.Principal
		manager   *coreUser.Principal
	)

	createUser := func(email, name string, role coreUser.Role) *coreUser.Principal {
		u := &userDatamodel.User{Email: email, FullName: name, PasswordHash: "x", Role: string(role), IsActive: true}
		Expect(conns.Gorm.Create(u).Error).To(Succeed())
		return &coreUser.Principal{ID: u.ID, Email: email, FullName: name, Role: role}
	}

	createTrip := func(p *coreUser.Principal, b *int64) *trip.TripResponse {
		resp, err := svc.Create(ctx, p, trip.CreateTripDTO{
			Name:      "Jakarta Summit",
			StartDate: dates.New(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)),
			EndDate:   dates.New(time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC)),
			Budget:    b,
		})
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	addExpense := func(userID, tripID, amount int64) *expenseDatamodel.Expense {
		e := &expenseDatamodel.Expense{
			UserID:      userID,
			CategoryID:  category.ID,
			TripID:      &tripID,
			Amount:      amount,
			Currency:    "USD",
			Merchant:    "Hotel Indonesia",
			ExpenseDate: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
			Status:      expenseDatamodel.StatusDraft,
		}
		Expect(expenses.Create(ctx, e)).To(Succeed())
		return e
	}

	count := func(model interface{}) int64 {
		var n int64
		Expect(conns.Gorm.Model(model).Count(&n).Error).To(Succeed())
		return n
	}

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		conns, err = database.OpenSQLiteMemory()
		Expect(err).NotTo(HaveOccurred())

		category = &categoryDatamodel.Category{Name: "Hotel", IsActive: true}
		Expect(conns.Gorm.Create(category).Error).To(Succeed())

		now = time.Date(2024, 5, 5, 9, 0, 0, 0, time.UTC)
		txManager := database.NewTransactionManager(conns.Gorm)
		trips := tripPostgres.NewTripRepository(conns.Gorm)
		expenses = expensePostgres.NewExpenseRepository(conns.Gorm)
		reports = reportPostgres.NewReportRepository(conns.Gorm)
		publisher = &recordingPublisher{}

		reportService := report.NewService(
			reports,
			expenses,
			userPostgres.NewUserRepository(conns.Gorm),
			categoryPostgres.NewCategoryRepository(conns.Gorm),
			trips,
			txManager,
			logger.Discard(),
		)
		svc = trip.NewService(
			trips,
			reports,
			refundPostgres.NewRefundRepository(conns.Gorm),
			reportService,
			txManager,
			publisher,
			15,
			logger.Discard(),
		).WithClock(func() time.Time { return now })

		owner = createUser("owner@example.com", "Olivia Owner", coreUser.RoleEmployee)
		other = createUser("other@example.com", "Oscar Other", coreUser.RoleEmployee)
		manager = createUser("manager@example.com", "Mia Manager", coreUser.RoleManager)
	})

	AfterEach(func() {
		conns.Close()
	})

	Describe("Complete", func() {
		It("builds the report and a refund for the excess", func() {
			t := createTrip(owner, budget(100000))
			addExpense(owner.ID, t.ID, 60000)
			addExpense(owner.ID, t.ID, 55050)

			resp, err := svc.Complete(ctx, owner, t.ID)

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Trip.Status).To(Equal(trip.StatusCompleted))
			Expect(resp.Trip.TotalExpenses).To(Equal(int64(115050)))
			Expect(resp.Trip.BudgetUsedPercentage).To(Equal(115.05))

			Expect(resp.Report).NotTo(BeNil())
			Expect(resp.Report.Title).To(Equal("Report - Jakarta Summit"))
			Expect(resp.Report.Status).To(Equal(report.StatusDraft))
			Expect(resp.Report.ExpenseCount).To(Equal(2))
			Expect(resp.Report.TotalAmount).To(Equal(int64(115050)))
			Expect(*resp.Report.TripID).To(Equal(t.ID))

			Expect(resp.Refund).NotTo(BeNil())
			Expect(resp.Refund.ExcessAmount).To(Equal(int64(15050)))
			Expect(resp.Refund.Status).To(Equal(refund.StatusPending))
			Expect(*resp.Refund.DueDate).To(BeTemporally("==", now.AddDate(0, 0, 15)))
			Expect(resp.Refund.Notes).To(Equal("Budget excess generated on completing trip 'Jakarta Summit'"))
			Expect(*resp.Refund.ReportID).To(Equal(resp.Report.ID))

			Expect(publisher.Count()).To(Equal(1))
		})

		It("is idempotent and re-syncs late expenses", func() {
			t := createTrip(owner, budget(1000))
			addExpense(owner.ID, t.ID, 1500)

			first, err := svc.Complete(ctx, owner, t.ID)
			Expect(err).NotTo(HaveOccurred())

			late := addExpense(owner.ID, t.ID, 200)
			second, err := svc.Complete(ctx, owner, t.ID)

			Expect(err).NotTo(HaveOccurred())
			Expect(second.Report.ID).To(Equal(first.Report.ID))
			Expect(second.Report.ExpenseCount).To(Equal(2))
			Expect(second.Refund.ID).To(Equal(first.Refund.ID))
			Expect(second.Refund.ExcessAmount).To(Equal(int64(500)))
			Expect(count(&reportDatamodel.Report{})).To(Equal(int64(1)))
			Expect(count(&refundDatamodel.Refund{})).To(Equal(int64(1)))

			stored, err := expenses.GetByID(ctx, late.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(*stored.ReportID).To(Equal(first.Report.ID))
		})

		It("creates no refund within budget and no report without expenses", func() {
			within := createTrip(owner, budget(100000))
			addExpense(owner.ID, within.ID, 500)
			resp, err := svc.Complete(ctx, owner, within.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Refund).To(BeNil())
			Expect(resp.Report).NotTo(BeNil())

			empty := createTrip(owner, nil)
			resp, err = svc.Complete(ctx, owner, empty.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Report).To(BeNil())
			Expect(resp.Trip.Status).To(Equal(trip.StatusCompleted))
		})

		It("leaves expenses already on another report alone", func() {
			t := createTrip(owner, nil)
			e := addExpense(owner.ID, t.ID, 700)
			elsewhere := &reportDatamodel.Report{UserID: owner.ID, Title: "Manual", Currency: "USD", Status: report.StatusDraft}
			Expect(reports.Create(ctx, elsewhere)).To(Succeed())
			attached, err := expenses.AttachToReport(ctx, e.ID, elsewhere.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(attached).To(BeTrue())

			resp, err := svc.Complete(ctx, owner, t.ID)

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Report.ExpenseCount).To(Equal(0))
			stored, _ := expenses.GetByID(ctx, e.ID)
			Expect(*stored.ReportID).To(Equal(elsewhere.ID))
		})

		It("lets a manager complete but hides the trip from other employees", func() {
			t := createTrip(owner, nil)

			_, err := svc.Complete(ctx, other, t.ID)
			Expect(internal.IsErrorType(err, internal.ErrorTypeNotFound)).To(BeTrue())

			resp, err := svc.Complete(ctx, manager, t.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Trip.Status).To(Equal(trip.StatusCompleted))
		})

		It("refuses a cancelled trip", func() {
			t := createTrip(owner, nil)
			cancelled := trip.StatusCancelled
			_, err := svc.Update(ctx, owner, t.ID, trip.UpdateTripDTO{Status: &cancelled})
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Complete(ctx, owner, t.ID)
			Expect(internal.IsErrorType(err, internal.ErrorTypeConflict)).To(BeTrue())
		})
	})

	Describe("GenerateReport and GetReport", func() {
		It("requires expenses and refuses a second report", func() {
			t := createTrip(owner, nil)

			_, err := svc.GetReport(ctx, owner, t.ID)
			Expect(internal.IsErrorType(err, internal.ErrorTypeNotFound)).To(BeTrue())

			_, err = svc.GenerateReport(ctx, owner, t.ID)
			Expect(internal.IsErrorType(err, internal.ErrorTypeValidation)).To(BeTrue())

			addExpense(owner.ID, t.ID, 4200)
			generated, err := svc.GenerateReport(ctx, owner, t.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(generated.Expenses).To(HaveLen(1))
			Expect(generated.TotalAmount).To(Equal(int64(4200)))

			_, err = svc.GenerateReport(ctx, owner, t.ID)
			Expect(internal.IsErrorType(err, internal.ErrorTypeConflict)).To(BeTrue())

			fetched, err := svc.GetReport(ctx, manager, t.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(fetched.ID).To(Equal(generated.ID))
		})
	})

	Describe("Update", func() {
		It("re-validates the dates against the stored ones", func() {
			t := createTrip(owner, nil)
			end := dates.New(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))

			_, err := svc.Update(ctx, owner, t.ID, trip.UpdateTripDTO{EndDate: &end})

			Expect(internal.IsErrorType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})

		It("keeps a completed trip completed", func() {
			t := createTrip(owner, nil)
			_, err := svc.Complete(ctx, owner, t.ID)
			Expect(err).NotTo(HaveOccurred())

			active := trip.StatusActive
			_, err = svc.Update(ctx, owner, t.ID, trip.UpdateTripDTO{Status: &active})
			Expect(internal.IsErrorType(err, internal.ErrorTypeConflict)).To(BeTrue())
		})

		It("is limited to the owner", func() {
			t := createTrip(owner, nil)
			name := "Renamed"

			_, err := svc.Update(ctx, manager, t.ID, trip.UpdateTripDTO{Name: &name})
			Expect(internal.IsErrorType(err, internal.ErrorTypeNotFound)).To(BeTrue())
		})
	})

	Describe("List and Get", func() {
		It("scopes employees and derives totals", func() {
			mine := createTrip(owner, budget(10000))
			addExpense(owner.ID, mine.ID, 2500)
			createTrip(other, nil)

			resp, err := svc.List(ctx, owner, trip.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Trips).To(HaveLen(1))
			Expect(resp.Trips[0].TotalExpenses).To(Equal(int64(2500)))
			Expect(resp.Trips[0].BudgetUsedPercentage).To(Equal(25.0))

			all, err := svc.List(ctx, manager, trip.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(all.Trips).To(HaveLen(2))

			detail, err := svc.Get(ctx, owner, mine.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(detail.Expenses).To(HaveLen(1))

			_, err = svc.Get(ctx, other, mine.ID)
			Expect(internal.IsErrorType(err, internal.ErrorTypeNotFound)).To(BeTrue())
		})
	})

	Describe("Delete", func() {
		It("cascades to expenses, report, approvals and refund", func() {
			t := createTrip(owner, budget(100))
			addExpense(owner.ID, t.ID, 300)
			resp, err := svc.Complete(ctx, owner, t.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(conns.Gorm.Create(&approvalDatamodel.Approval{ReportID: resp.Report.ID, ApproverID: manager.ID}).Error).To(Succeed())

			Expect(svc.Delete(ctx, owner, t.ID)).To(Succeed())

			Expect(count(&expenseDatamodel.Expense{})).To(BeZero())
			Expect(count(&reportDatamodel.Report{})).To(BeZero())
			Expect(count(&approvalDatamodel.Approval{})).To(BeZero())
			Expect(count(&refundDatamodel.Refund{})).To(BeZero())
			_, err = svc.Get(ctx, owner, t.ID)
			Expect(internal.IsErrorType(err, internal.ErrorTypeNotFound)).To(BeTrue())
		})
	})
})
