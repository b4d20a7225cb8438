package booking

import "errors"

var (
	ErrNotConfigured    = errors.New("server configuration incomplete (missing secrets)")
	ErrMissingBookingID = errors.New("booking id is required")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrTripNotFound     = errors.New("trip not found")
	ErrRefundFailed     = errors.New("failed to refund payment")
	ErrUpdateFailed     = errors.New("failed to cancel booking")
	ErrConflict         = errors.New("booking changed while cancelling, please try again")
)
