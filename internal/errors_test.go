package internal_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/expense-reporting/internal"
)

var _ = Describe("AppError", func() {
	It("maps each type to its status", func() {
		Expect(internal.NewValidationError("bad", internal.ErrCodeInvalidRequest).StatusCode).To(Equal(http.StatusBadRequest))
		Expect(internal.NewNotFoundError("gone", internal.ErrCodeTripNotFound).StatusCode).To(Equal(http.StatusNotFound))
		Expect(internal.NewConflictError("state", internal.ErrCodeReportNotDraft).StatusCode).To(Equal(http.StatusConflict))
		Expect(internal.NewExternalError("ocr", internal.ErrCodeOCRFailed, nil).StatusCode).To(Equal(http.StatusBadGateway))
		Expect(internal.ErrInvalidToken.StatusCode).To(Equal(http.StatusUnauthorized))
		Expect(internal.ErrInsufficientRole.StatusCode).To(Equal(http.StatusForbidden))
	})

	It("leaves sentinels untouched when adding a cause", func() {
		cause := errors.New("signature mismatch")
		err := internal.ErrInvalidToken.WithCause(cause)

		Expect(internal.ErrInvalidToken.Cause).To(BeNil())
		Expect(errors.Is(err, internal.ErrInvalidToken)).To(BeTrue())
		Expect(errors.Is(err, cause)).To(BeTrue())
		Expect(errors.Is(err, internal.ErrTokenExpired)).To(BeFalse())
	})

	It("is found through wrapping", func() {
		wrapped := fmt.Errorf("refund 7: %w", internal.NewNotFoundError("refund not found", internal.ErrCodeRefundNotFound))

		appErr, ok := internal.IsAppError(wrapped)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(internal.ErrCodeRefundNotFound))
		Expect(internal.IsErrorType(wrapped, internal.ErrorTypeNotFound)).To(BeTrue())
		Expect(internal.IsErrorType(errors.New("plain"), internal.ErrorTypeNotFound)).To(BeFalse())
	})

	It("reports field errors in its message and body", func() {
		err := internal.NewValidationFieldError("amount", "amount must be at least 1", internal.ErrCodeInvalidAmount)
		Expect(err.Error()).To(Equal("amount must be at least 1"))
		Expect(err.GetDetailedMessage()).To(Equal("amount must be at least 1"))

		status, body := err.ToHTTPResponse()
		Expect(status).To(Equal(http.StatusBadRequest))
		data, marshalErr := json.Marshal(body)
		Expect(marshalErr).NotTo(HaveOccurred())
		Expect(data).To(MatchJSON(`{"error":{"type":"VALIDATION_ERROR","code":"VALIDATION_FAILED","message":"Validation failed",
			"details":{"errors":[{"field":"amount","message":"amount must be at least 1","code":"INVALID_AMOUNT"}]}}}`))
	})

	It("never serialises the cause", func() {
		data, err := json.Marshal(internal.NewInternalError("failed to list trips", errors.New("pq: connection refused")))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).NotTo(ContainSubstring("connection refused"))
	})
})
