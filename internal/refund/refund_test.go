package refund_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	refundDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/refund"
	"github.com/frahmantamala/expense-reporting/internal/refund"
)

var _ = Describe("Refund", func() {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	DescribeTable("EffectiveStatus",
		func(status string, due *time.Time, expected string) {
			r := &refundDatamodel.Refund{Status: status, DueDate: due, ExcessAmount: 1000}
			Expect(refund.EffectiveStatus(r, now)).To(Equal(expected))
			Expect(refund.IsOverdue(r, now)).To(Equal(expected == refund.StatusOverdue))
		},
		Entry("pending past due", refund.StatusPending, &past, refund.StatusOverdue),
		Entry("pending before due", refund.StatusPending, &future, refund.StatusPending),
		Entry("pending without due date", refund.StatusPending, nil, refund.StatusPending),
		Entry("partial past due stays partial", refund.StatusPartial, &past, refund.StatusPartial),
		Entry("waived past due stays waived", refund.StatusWaived, &past, refund.StatusWaived),
	)

	DescribeTable("RefundPercentage",
		func(refunded, excess int64, expected float64) {
			r := &refundDatamodel.Refund{RefundedAmount: refunded, ExcessAmount: excess}
			Expect(refund.RefundPercentage(r)).To(Equal(expected))
		},
		Entry("nothing paid", int64(0), int64(5000), 0.0),
		Entry("a third", int64(1000), int64(3000), 33.33),
		Entry("two thirds rounds half up", int64(2000), int64(3000), 66.67),
		Entry("fully paid", int64(5000), int64(5000), 100.0),
		Entry("zero excess", int64(0), int64(0), 0.0),
	)

	It("computes the remaining amount", func() {
		r := &refundDatamodel.Refund{RefundedAmount: 1250, ExcessAmount: 5000}
		Expect(refund.RemainingAmount(r)).To(Equal(int64(3750)))
	})

	It("accepts payments only while open", func() {
		Expect(refund.Payable(refund.StatusPending)).To(BeTrue())
		Expect(refund.Payable(refund.StatusPartial)).To(BeTrue())
		Expect(refund.Payable(refund.StatusOverdue)).To(BeTrue())
		Expect(refund.Payable(refund.StatusCompleted)).To(BeFalse())
		Expect(refund.Payable(refund.StatusWaived)).To(BeFalse())
		Expect(refund.Payable(refund.StatusDisputed)).To(BeFalse())
	})

	It("builds the excess refund for an over-budget trip", func() {
		reportID := int64(9)
		due := now.AddDate(0, 0, refund.DefaultDueDays)

		r := refund.NewExcessRefund(4, 2, "Jakarta Summit", &reportID, 100000, 125050, due)

		Expect(r.ExcessAmount).To(Equal(int64(25050)))
		Expect(r.RefundedAmount).To(BeZero())
		Expect(r.Status).To(Equal(refund.StatusPending))
		Expect(*r.DueDate).To(Equal(due))
		Expect(*r.ReportID).To(Equal(reportID))
		Expect(r.Notes).To(Equal("Budget excess generated on completing trip 'Jakarta Summit'"))
	})

	It("decorates the response with derived fields", func() {
		r := &refundDatamodel.Refund{
			ID:             1,
			Status:         refund.StatusPending,
			DueDate:        &past,
			ExcessAmount:   4000,
			RefundedAmount: 0,
		}

		resp := refund.ToResponse(r, now)

		Expect(resp.Status).To(Equal(refund.StatusOverdue))
		Expect(resp.IsOverdue).To(BeTrue())
		Expect(resp.RemainingAmount).To(Equal(int64(4000)))
		Expect(resp.RefundPercentage).To(Equal(0.0))
	})

	Describe("DTO validation", func() {
		It("normalizes the payment method", func() {
			dto := refund.PaymentDTO{Amount: 100, RefundMethod: " Transfer "}
			Expect(dto.Validate()).To(Succeed())
			Expect(dto.RefundMethod).To(Equal(refund.MethodTransfer))
		})

		It("rejects an unknown method and a non-positive amount", func() {
			Expect((&refund.PaymentDTO{Amount: 100, RefundMethod: "bitcoin"}).Validate()).NotTo(Succeed())
			Expect((&refund.PaymentDTO{Amount: 0, RefundMethod: refund.MethodCash}).Validate()).NotTo(Succeed())
		})

		It("requires a waive reason of at least ten characters", func() {
			Expect((&refund.WaiveDTO{WaiveReason: "   too short  "}).Validate()).NotTo(Succeed())
			Expect((&refund.WaiveDTO{WaiveReason: "approved by finance"}).Validate()).To(Succeed())
		})
	})
})
