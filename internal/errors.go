package internal

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal     ErrorType = "EXTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidAmount    ErrorCode = "INVALID_AMOUNT"
	ErrCodeInvalidCategory  ErrorCode = "INVALID_CATEGORY"
	ErrCodeInvalidDate      ErrorCode = "INVALID_DATE"
	ErrCodeInvalidDateRange ErrorCode = "INVALID_DATE_RANGE"
	ErrCodeAmountTooHigh    ErrorCode = "AMOUNT_TOO_HIGH"
	ErrCodeInvalidFileType  ErrorCode = "INVALID_FILE_TYPE"
	ErrCodeInvalidStatus    ErrorCode = "INVALID_STATUS"
	ErrCodeInvalidRequest   ErrorCode = "INVALID_REQUEST"

	ErrCodeExpenseNotFound     ErrorCode = "EXPENSE_NOT_FOUND"
	ErrCodeCategoryNotFound    ErrorCode = "CATEGORY_NOT_FOUND"
	ErrCodeReportNotFound      ErrorCode = "REPORT_NOT_FOUND"
	ErrCodeTripNotFound        ErrorCode = "TRIP_NOT_FOUND"
	ErrCodeRefundNotFound      ErrorCode = "REFUND_NOT_FOUND"
	ErrCodeUserNotFound        ErrorCode = "USER_NOT_FOUND"
	ErrCodeNotificationMissing ErrorCode = "NOTIFICATION_NOT_FOUND"

	ErrCodeCannotModifyExpense ErrorCode = "CANNOT_MODIFY_EXPENSE"
	ErrCodeExpenseAssigned     ErrorCode = "EXPENSE_ALREADY_ASSIGNED"
	ErrCodeReportNotDraft      ErrorCode = "REPORT_NOT_DRAFT"
	ErrCodeReportNotSubmitted  ErrorCode = "REPORT_NOT_SUBMITTED"
	ErrCodeReportEmpty         ErrorCode = "REPORT_EMPTY"
	ErrCodeReportExists        ErrorCode = "REPORT_ALREADY_EXISTS"
	ErrCodeTripNotActive       ErrorCode = "TRIP_NOT_ACTIVE"
	ErrCodeTripHasNoExpenses   ErrorCode = "TRIP_HAS_NO_EXPENSES"
	ErrCodeRefundNotPayable    ErrorCode = "REFUND_NOT_PAYABLE"
	ErrCodeRefundNotCompleted  ErrorCode = "REFUND_NOT_COMPLETED"
	ErrCodeRefundOverpaid      ErrorCode = "REFUND_AMOUNT_EXCEEDS_REMAINING"
	ErrCodeDuplicateEmail      ErrorCode = "EMAIL_ALREADY_REGISTERED"
	ErrCodeDuplicateCategory   ErrorCode = "CATEGORY_ALREADY_EXISTS"

	ErrCodeUnauthorizedAccess ErrorCode = "UNAUTHORIZED_ACCESS"
	ErrCodeInsufficientRole   ErrorCode = "INSUFFICIENT_ROLE"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUserInactive       ErrorCode = "USER_INACTIVE"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"

	ErrCodeStorageFailed ErrorCode = "STORAGE_FAILED"
	ErrCodeOCRFailed     ErrorCode = "OCR_FAILED"
	ErrCodeExportFailed  ErrorCode = "EXPORT_FAILED"
)

// AppError is the error every service returns to the transport layer. Type picks the HTTP
// status, Code is the stable machine readable reason.
type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

var statusByType = map[ErrorType]int{
	ErrorTypeValidation:   http.StatusBadRequest,
	ErrorTypeNotFound:     http.StatusNotFound,
	ErrorTypeUnauthorized: http.StatusUnauthorized,
	ErrorTypeForbidden:    http.StatusForbidden,
	ErrorTypeConflict:     http.StatusConflict,
	ErrorTypeInternal:     http.StatusInternalServerError,
	ErrorTypeExternal:     http.StatusBadGateway,
}

func newAppError(t ErrorType, code ErrorCode, message string) *AppError {
	return &AppError{Type: t, Code: code, Message: message, StatusCode: statusByType[t]}
}

func (e *AppError) Error() string {
	if fields := e.fieldErrors(); len(fields) > 0 {
		return fields[0].Message
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// GetDetailedMessage joins every field message of a validation error.
func (e *AppError) GetDetailedMessage() string {
	fields := e.fieldErrors()
	if len(fields) == 0 {
		return e.Message
	}
	messages := make([]string, len(fields))
	for i, f := range fields {
		messages[i] = f.Message
	}
	return strings.Join(messages, "; ")
}

func (e *AppError) fieldErrors() []ValidationError {
	if details, ok := e.Details.(ValidationErrors); ok {
		return details.Errors
	}
	return nil
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches another AppError with the same type and code, so a sentinel still matches
// after WithCause produced a copy of it.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// WithCause returns a copy carrying cause. Sentinels are shared, so they are never mutated.
func (e *AppError) WithCause(cause error) *AppError {
	c := *e
	c.Cause = cause
	return &c
}

// WithDetails returns a copy carrying details.
func (e *AppError) WithDetails(details interface{}) *AppError {
	c := *e
	c.Details = details
	return &c
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeValidation, code, message)
}

// NewValidationFieldError reports a single invalid field.
func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeValidation, ErrCodeValidationFailed, "Validation failed").
		WithDetails(ValidationErrors{Errors: []ValidationError{{Field: field, Message: message, Code: string(code)}}})
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeNotFound, code, message)
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeUnauthorized, code, message)
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeForbidden, code, message)
}

// NewInternalError hides cause from the client; it is only logged.
func NewInternalError(message string, cause error) *AppError {
	e := newAppError(ErrorTypeInternal, "INTERNAL_ERROR", message)
	e.Cause = cause
	return e
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeConflict, code, message)
}

// NewExternalError wraps a failure of an outside collaborator such as OCR or object storage.
func NewExternalError(message string, code ErrorCode, cause error) *AppError {
	e := newAppError(ErrorTypeExternal, code, message)
	e.Cause = cause
	return e
}

var (
	ErrUnauthorizedAccess = NewForbiddenError("unauthorized access", ErrCodeUnauthorizedAccess)
	ErrInsufficientRole   = NewForbiddenError("insufficient role for this operation", ErrCodeInsufficientRole)

	ErrInvalidCredentials = NewUnauthorizedError("Invalid email or password", ErrCodeInvalidCredentials)
	ErrUserInactive       = NewForbiddenError("User account is inactive", ErrCodeUserInactive)
	ErrInvalidToken       = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsErrorType reports whether err is an AppError of the given type.
func IsErrorType(err error, t ErrorType) bool {
	appErr, ok := IsAppError(err)
	return ok && appErr.Type == t
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}
