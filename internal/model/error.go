package model

import "fmt"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorKind classifies domain errors for transport mapping.
type ErrorKind string

const (
	KindNotFound     ErrorKind = "NOT_FOUND"
	KindInvalidState ErrorKind = "INVALID_STATE"
	KindValidation   ErrorKind = "VALIDATION_ERROR"
	KindStore        ErrorKind = "STORE_ERROR"
)

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON       = "INVALID_JSON"
	ErrCodeMissingField      = "MISSING_FIELD"
	ErrCodeInvalidPrice      = "INVALID_PRICE"
	ErrCodeInvalidQuantity   = "INVALID_QUANTITY"
	ErrCodeInvalidCurrency   = "INVALID_CURRENCY"
	ErrCodeInvalidMetadata   = "INVALID_METADATA"
	ErrCodeInvalidCriteria   = "INVALID_CRITERIA"
	ErrCodeInvalidStatus     = "INVALID_STATUS"
	ErrCodeOfferNotFound     = "OFFER_NOT_FOUND"
	ErrCodeOfferExpired      = "OFFER_EXPIRED"
	ErrCodeOfferUnavailable  = "OFFER_UNAVAILABLE"
	ErrCodeOrderNotFound     = "ORDER_NOT_FOUND"
	ErrCodeOrderNotPending   = "ORDER_NOT_PENDING"
	ErrCodeInvalidTransition = "INVALID_STATUS_TRANSITION"
	ErrCodeConcurrentUpdate  = "CONCURRENT_UPDATE"
	ErrCodeStoreUnavailable  = "STORE_UNAVAILABLE"
	ErrCodeUnauthorised      = "UNAUTHORIZED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// DomainError is a business-rule failure carrying a kind and a stable code.
type DomainError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches on Code when the target carries one, otherwise on Kind.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	if t.Code != "" {
		return t.Code == e.Code
	}
	return t.Kind == e.Kind
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a validation error for malformed input.
func NewValidationError(code, format string, args ...any) *DomainError {
	return NewDomainError(KindValidation, code, fmt.Sprintf(format, args...))
}

// NewNotFoundError creates a not-found error.
func NewNotFoundError(code, format string, args ...any) *DomainError {
	return NewDomainError(KindNotFound, code, fmt.Sprintf(format, args...))
}

// NewInvalidStateError creates an error for an operation the current status forbids.
func NewInvalidStateError(code, format string, args ...any) *DomainError {
	return NewDomainError(KindInvalidState, code, fmt.Sprintf(format, args...))
}

// NewStoreError wraps an underlying store failure.
func NewStoreError(message string, err error) *DomainError {
	return &DomainError{
		Kind:    KindStore,
		Code:    ErrCodeStoreUnavailable,
		Message: message,
		Err:     err,
	}
}

// Kind sentinels for errors.Is.
var (
	ErrNotFound     = &DomainError{Kind: KindNotFound}
	ErrInvalidState = &DomainError{Kind: KindInvalidState}
	ErrValidation   = &DomainError{Kind: KindValidation}
	ErrStore        = &DomainError{Kind: KindStore}
)

// Common domain errors
var (
	ErrInvalidQuantity = NewDomainError(KindValidation, ErrCodeInvalidQuantity, "Quantity must be at least 1")
	ErrInvalidPrice    = NewDomainError(KindValidation, ErrCodeInvalidPrice, "Price must be greater than 0")
)
