package money_test

import (
	"github.com/frahmantamala/expense-reporting/internal/core/common/money"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Money", func() {
	DescribeTable("Percentage",
		func(part, whole int64, expected float64) {
			Expect(money.Percentage(part, whole)).To(Equal(expected))
		},
		Entry("half", int64(50), int64(100), 50.0),
		Entry("thirds round to two places", int64(1), int64(3), 33.33),
		Entry("over budget", int64(1500), int64(1000), 150.0),
		Entry("zero whole", int64(10), int64(0), 0.0),
	)

	DescribeTable("Format",
		func(minor int64, expected string) {
			Expect(money.Format(minor)).To(Equal(expected))
		},
		Entry("cents", int64(5), "0.05"),
		Entry("thousands", int64(123456), "1,234.56"),
		Entry("millions", int64(100000000), "1,000,000.00"),
		Entry("negative", int64(-250), "-2.50"),
	)
})
