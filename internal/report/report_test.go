package report_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	expenseDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-reporting/internal/report"
)

var _ = Describe("Summarize", func() {
	It("totals amounts and counts expenses", func() {
		summary := report.Summarize([]*expenseDatamodel.Expense{
			{Amount: 1250},
			{Amount: 3000},
			nil,
			{Amount: 5},
		})

		Expect(summary.TotalAmount).To(Equal(int64(4255)))
		Expect(summary.ExpenseCount).To(Equal(3))
	})

	It("is zero for an empty report", func() {
		Expect(report.Summarize(nil)).To(Equal(report.Summary{}))
	})
})
