package refund_test

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/expense-reporting/internal"
	"github.com/frahmantamala/expense-reporting/internal/core/database"
	refundDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/refund"
	tripDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/trip"
	userDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/user"
	"github.com/frahmantamala/expense-reporting/internal/core/events"
	coreUser "github.com/frahmantamala/expense-reporting/internal/core/user"
	"github.com/frahmantamala/expense-reporting/internal/refund"
	refundPostgres "github.com/frahmantamala/expense-reporting/internal/refund/postgres"
	userPostgres "github.com/frahmantamala/expense-reporting/internal/user/postgres"
	"github.com/frahmantamala/expense-reporting/pkg/logger"
)

type stubTrips map[int64]*tripDatamodel.Trip

func (s stubTrips) GetByID(ctx context.Context, id int64) (*tripDatamodel.Trip, error) {
	return s[id], nil
}

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

func (r *recordingPublisher) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.EventType())
	}
	return types
}

var _ = Describe("RefundService", func() {
	var (
		ctx       context.Context
		conns     *database.Connections
		repo      *refundPostgres.RefundRepository
		publisher *recordingPublisher
		svc       *refund.Service
		now       time.Time
		owner     *coreUser.Principal
		other     *coreUser.Principal
		admin     *coreUser.Principal
	)

	createUser := func(email, name string, role coreUser.Role) *coreUser.Principal {
		u := &userDatamodel.User{Email: email, FullName: name, PasswordHash: "x", Role: string(role), IsActive: true}
		Expect(conns.Gorm.Create(u).Error).To(Succeed())
		return &coreUser.Principal{ID: u.ID, Email: email, FullName: name, Role: role}
	}

	createRefund := func(tripID int64, excess int64, due time.Time) *refundDatamodel.Refund {
		r := refund.NewExcessRefund(tripID, owner.ID, "Jakarta Summit", nil, 100000, 100000+excess, due)
		Expect(repo.Create(ctx, r)).To(Succeed())
		return r
	}

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		conns, err = database.OpenSQLiteMemory()
		Expect(err).NotTo(HaveOccurred())

		now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
		repo = refundPostgres.NewRefundRepository(conns.Gorm)
		publisher = &recordingPublisher{}
		svc = refund.NewService(
			repo,
			userPostgres.NewUserRepository(conns.Gorm),
			stubTrips{1: {ID: 1, Name: "Jakarta Summit"}},
			database.NewTransactionManager(conns.Gorm),
			publisher,
			logger.Discard(),
		).WithClock(func() time.Time { return now })

		owner = createUser("owner@example.com", "Olivia Owner", coreUser.RoleEmployee)
		other = createUser("other@example.com", "Oscar Other", coreUser.RoleEmployee)
		admin = createUser("admin@example.com", "Ada Admin", coreUser.RoleAdmin)
	})

	AfterEach(func() {
		conns.Close()
	})

	Describe("RecordPayment", func() {
		var r *refundDatamodel.Refund

		BeforeEach(func() {
			r = createRefund(1, 5000, now.AddDate(0, 0, 15))
		})

		It("moves pending to partial and then completed", func() {
			resp, err := svc.RecordPayment(ctx, owner, r.ID, refund.PaymentDTO{Amount: 2000, RefundMethod: "cash"})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Status).To(Equal(refund.StatusPartial))
			Expect(resp.RefundedAmount).To(Equal(int64(2000)))
			Expect(resp.RemainingAmount).To(Equal(int64(3000)))
			Expect(resp.RefundPercentage).To(Equal(40.0))
			Expect(resp.CompletedDate).To(BeNil())
			Expect(resp.TripName).To(Equal("Jakarta Summit"))
			Expect(resp.UserEmail).To(Equal("owner@example.com"))

			resp, err = svc.RecordPayment(ctx, admin, r.ID, refund.PaymentDTO{Amount: 3000, RefundMethod: "transfer"})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Status).To(Equal(refund.StatusCompleted))
			Expect(resp.RemainingAmount).To(BeZero())
			Expect(resp.CompletedDate).NotTo(BeNil())
			Expect(*resp.RefundMethod).To(Equal(refund.MethodTransfer))

			Expect(publisher.Types()).To(HaveLen(2))
		})

		It("rejects an overpayment without changing the balance", func() {
			_, err := svc.RecordPayment(ctx, owner, r.ID, refund.PaymentDTO{Amount: 5001, RefundMethod: "cash"})

			Expect(internal.IsErrorType(err, internal.ErrorTypeValidation)).To(BeTrue())
			stored, _ := repo.GetByID(ctx, r.ID)
			Expect(stored.RefundedAmount).To(BeZero())
			Expect(stored.Status).To(Equal(refund.StatusPending))
		})

		It("hides another employee's refund", func() {
			_, err := svc.RecordPayment(ctx, other, r.ID, refund.PaymentDTO{Amount: 100, RefundMethod: "cash"})
			Expect(internal.IsErrorType(err, internal.ErrorTypeNotFound)).To(BeTrue())
		})

		It("refuses payments on a completed refund", func() {
			_, err := svc.RecordPayment(ctx, owner, r.ID, refund.PaymentDTO{Amount: 5000, RefundMethod: "cash"})
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.RecordPayment(ctx, owner, r.ID, refund.PaymentDTO{Amount: 1, RefundMethod: "cash"})
			Expect(internal.IsErrorType(err, internal.ErrorTypeConflict)).To(BeTrue())
		})

		It("accepts payment on an overdue refund", func() {
			overdue := createRefund(2, 1000, now.AddDate(0, 0, -1))

			resp, err := svc.RecordPayment(ctx, owner, overdue.ID, refund.PaymentDTO{Amount: 400, RefundMethod: "payroll"})

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Status).To(Equal(refund.StatusPartial))
		})
	})

	Describe("ApplyPayment", func() {
		It("never lets the refunded amount pass the excess", func() {
			r := createRefund(1, 1000, now.AddDate(0, 0, 15))
			payment := refund.Payment{Amount: 600, Method: "cash", At: now}

			applied, err := repo.ApplyPayment(ctx, r.ID, payment)
			Expect(err).NotTo(HaveOccurred())
			Expect(applied).To(BeTrue())

			applied, err = repo.ApplyPayment(ctx, r.ID, payment)
			Expect(err).NotTo(HaveOccurred())
			Expect(applied).To(BeFalse())

			stored, _ := repo.GetByID(ctx, r.ID)
			Expect(stored.RefundedAmount).To(Equal(int64(600)))
			Expect(stored.Status).To(Equal(refund.StatusPartial))
		})
	})

	Describe("Confirm", func() {
		It("requires a completed refund", func() {
			r := createRefund(1, 1000, now.AddDate(0, 0, 15))

			_, err := svc.Confirm(ctx, admin, r.ID, refund.ConfirmDTO{})
			Expect(internal.IsErrorType(err, internal.ErrorTypeConflict)).To(BeTrue())
		})

		It("is forbidden to employees", func() {
			r := createRefund(1, 1000, now.AddDate(0, 0, 15))

			_, err := svc.Confirm(ctx, owner, r.ID, refund.ConfirmDTO{})
			Expect(internal.IsErrorType(err, internal.ErrorTypeForbidden)).To(BeTrue())
		})

		It("appends admin notes on a completed refund", func() {
			r := createRefund(1, 1000, now.AddDate(0, 0, 15))
			_, err := svc.RecordPayment(ctx, owner, r.ID, refund.PaymentDTO{Amount: 1000, RefundMethod: "cash"})
			Expect(err).NotTo(HaveOccurred())

			first, second := "checked", "filed"
			_, err = svc.Confirm(ctx, admin, r.ID, refund.ConfirmDTO{AdminNotes: &first})
			Expect(err).NotTo(HaveOccurred())
			resp, err := svc.Confirm(ctx, admin, r.ID, refund.ConfirmDTO{AdminNotes: &second})

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.AdminNotes).To(Equal("checked\nfiled"))
			Expect(resp.Status).To(Equal(refund.StatusCompleted))
		})
	})

	Describe("Waive", func() {
		It("closes a partial refund", func() {
			r := createRefund(1, 1000, now.AddDate(0, 0, 15))
			_, err := svc.RecordPayment(ctx, owner, r.ID, refund.PaymentDTO{Amount: 250, RefundMethod: "cash"})
			Expect(err).NotTo(HaveOccurred())

			resp, err := svc.Waive(ctx, admin, r.ID, refund.WaiveDTO{WaiveReason: "hardship approved by finance"})

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Status).To(Equal(refund.StatusWaived))
			Expect(*resp.WaiveReason).To(Equal("hardship approved by finance"))
			Expect(resp.CompletedDate).NotTo(BeNil())

			_, err = svc.Waive(ctx, admin, r.ID, refund.WaiveDTO{WaiveReason: "hardship approved by finance"})
			Expect(internal.IsErrorType(err, internal.ErrorTypeConflict)).To(BeTrue())

			_, err = svc.RecordPayment(ctx, owner, r.ID, refund.PaymentDTO{Amount: 1, RefundMethod: "cash"})
			Expect(internal.IsErrorType(err, internal.ErrorTypeConflict)).To(BeTrue())
		})

		It("rejects a short reason", func() {
			r := createRefund(1, 1000, now.AddDate(0, 0, 15))

			_, err := svc.Waive(ctx, admin, r.ID, refund.WaiveDTO{WaiveReason: "nope"})
			Expect(internal.IsErrorType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})
	})

	Describe("List", func() {
		BeforeEach(func() {
			createRefund(1, 1000, now.AddDate(0, 0, 15))
			createRefund(2, 2000, now.AddDate(0, 0, -3))

			foreign := refund.NewExcessRefund(3, other.ID, "Elsewhere", nil, 0, 700, now.AddDate(0, 0, 5))
			Expect(repo.Create(ctx, foreign)).To(Succeed())
		})

		It("scopes employees to their own refunds", func() {
			resp, err := svc.List(ctx, owner, refund.ListFilter{UserID: &other.ID})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Refunds).To(HaveLen(2))
			for _, r := range resp.Refunds {
				Expect(r.UserID).To(Equal(owner.ID))
			}
		})

		It("lets admins filter by user", func() {
			resp, err := svc.List(ctx, admin, refund.ListFilter{UserID: &other.ID})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Refunds).To(HaveLen(1))
			Expect(resp.Refunds[0].UserName).To(Equal("Oscar Other"))
		})

		It("splits pending and overdue on the due date", func() {
			overdue, err := svc.List(ctx, admin, refund.ListFilter{Status: refund.StatusOverdue})
			Expect(err).NotTo(HaveOccurred())
			Expect(overdue.Refunds).To(HaveLen(1))
			Expect(overdue.Refunds[0].ExcessAmount).To(Equal(int64(2000)))
			Expect(overdue.Refunds[0].Status).To(Equal(refund.StatusOverdue))

			pending, err := svc.List(ctx, admin, refund.ListFilter{Status: refund.StatusPending})
			Expect(err).NotTo(HaveOccurred())
			Expect(pending.Refunds).To(HaveLen(2))
			for _, r := range pending.Refunds {
				Expect(r.Status).To(Equal(refund.StatusPending))
			}
		})
	})

	Describe("Update and Delete", func() {
		It("patches notes for the owner", func() {
			r := createRefund(1, 1000, now.AddDate(0, 0, 15))
			notes := "will pay next payroll"
			method := "PAYROLL"

			resp, err := svc.Update(ctx, owner, r.ID, refund.UpdateRefundDTO{Notes: &notes, RefundMethod: &method})

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Notes).To(Equal(notes))
			Expect(*resp.RefundMethod).To(Equal(refund.MethodPayroll))
			Expect(resp.ExcessAmount).To(Equal(int64(1000)))
		})

		It("only lets privileged users delete", func() {
			r := createRefund(1, 1000, now.AddDate(0, 0, 15))

			err := svc.Delete(ctx, owner, r.ID)
			Expect(internal.IsErrorType(err, internal.ErrorTypeForbidden)).To(BeTrue())

			Expect(svc.Delete(ctx, admin, r.ID)).To(Succeed())
			_, err = svc.Get(ctx, admin, r.ID)
			Expect(internal.IsErrorType(err, internal.ErrorTypeNotFound)).To(BeTrue())
		})
	})
})
