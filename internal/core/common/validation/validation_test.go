package validation_test

import (
	"time"

	"github.com/frahmantamala/expense-reporting/internal"
	"github.com/frahmantamala/expense-reporting/internal/core/common/validation"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Validation", func() {
	Describe("ValidateAmount", func() {
		It("rejects zero and negative amounts", func() {
			Expect(validation.ValidateAmount("amount", 0, nil)).NotTo(BeNil())
			Expect(validation.ValidateAmount("amount", -5, nil)).NotTo(BeNil())
		})

		It("enforces the optional cap", func() {
			max := int64(5000)
			Expect(validation.ValidateAmount("amount", 5000, &max)).To(BeNil())

			err := validation.ValidateAmount("amount", 5001, &max)
			Expect(err).NotTo(BeNil())
			details := err.Details.(internal.ValidationErrors)
			Expect(details.Errors[0].Code).To(Equal(string(internal.ErrCodeAmountTooHigh)))
		})
	})

	Describe("ValidateDateRange", func() {
		start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

		It("accepts a one day range", func() {
			Expect(validation.ValidateDateRange(start, start)).To(BeNil())
		})

		It("rejects an end before the start", func() {
			err := validation.ValidateDateRange(start, start.AddDate(0, 0, -1))
			Expect(err).NotTo(BeNil())
			Expect(err.StatusCode).To(Equal(400))
		})
	})

	It("collects errors from several fields", func() {
		v := validation.NewValidator()
		v.Field("email", "not-an-email").Required().Email()
		v.Field("full_name", "").Required()
		v.Field("role", "owner").OneOf("employee", "manager", "admin")

		err := v.Validate()
		Expect(err).NotTo(BeNil())
		Expect(err.Details.(internal.ValidationErrors).Errors).To(HaveLen(3))
	})

	It("checks currency codes", func() {
		Expect(validation.ValidateCurrency("USD")).To(BeNil())
		Expect(validation.ValidateCurrency("usd")).NotTo(BeNil())
		Expect(validation.ValidateCurrency("EURO")).NotTo(BeNil())
	})
})
