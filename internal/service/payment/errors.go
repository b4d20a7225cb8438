package payment

import (
	"errors"
	"fmt"
)

var (
	ErrNotConfigured      = errors.New("server configuration incomplete (missing secrets)")
	ErrMissingFields      = errors.New("missing required fields (booking id, payment method or payer e-mail)")
	ErrMissingBookingID   = errors.New("booking id is required")
	ErrInvalidAmount      = errors.New("transaction amount must be greater than zero")
	ErrBookingNotFound    = errors.New("booking not found")
	ErrAlreadyPaid        = errors.New("this booking has already been paid")
	ErrBookingCancelled   = errors.New("this booking has been cancelled")
	ErrPaymentInProgress  = errors.New("a payment for this booking is still being processed")
	ErrInvalidCredentials = errors.New("configuration error: invalid provider credentials (401)")
)

// DeclinedError is a charge the provider refused.
type DeclinedError struct {
	Reason string
	Err    error
}

func (e *DeclinedError) Error() string {
	return fmt.Sprintf("payment declined: %s", e.Reason)
}

func (e *DeclinedError) Unwrap() error {
	return e.Err
}
