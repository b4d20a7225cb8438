package kafka

import "time"

const (
	EventPaymentConfirmed = "payment_confirmed"
	EventPaymentFailed    = "payment_failed"
	EventBookingCancelled = "booking_cancelled"
	// EventPaymentRefunded: a payment approved after its booking was cancelled
	// was sent back.
	EventPaymentRefunded = "payment_refunded"
	// EventRefundRequired: such a payment could not be refunded automatically.
	EventRefundRequired = "payment_refund_required"
)

type PaymentEvent struct {
	Type         string    `json:"type"`
	BookingID    string    `json:"booking_id"`
	PaymentID    string    `json:"payment_id,omitempty"`
	Status       string    `json:"status"`
	Amount       float64   `json:"amount"`
	AppFee       *float64  `json:"app_fee,omitempty"`
	DriverAmount *float64  `json:"driver_amount,omitempty"`
	PayerEmail   string    `json:"payer_email,omitempty"`
	Refunded     bool      `json:"refunded"`
	OccurredAt   time.Time `json:"occurred_at"`
}
