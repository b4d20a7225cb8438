package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusPaid      BookingStatus = "paid"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusFailed    BookingStatus = "failed"
	BookingStatusRejected  BookingStatus = "rejected"
)

// IsPaid reports whether money has been captured for the booking.
func (s BookingStatus) IsPaid() bool {
	return s == BookingStatusPaid || s == BookingStatusConfirmed
}

type Booking struct {
	ID              string
	TripID          string
	TotalPrice      float64
	Status          BookingStatus
	PaymentID       *string
	PaymentMethod   *string
	PayerEmail      *string
	OriginName      string
	DestinationName string
	AppFee          *float64
	DriverAmount    *float64
	// CancelledFrom is the status the booking had when it was cancelled.
	CancelledFrom   *BookingStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasPayment reports whether a provider payment is associated with the booking.
func (b *Booking) HasPayment() bool {
	return b.PaymentID != nil && *b.PaymentID != ""
}

// OwesRefundFor reports whether an approved paymentID arriving for this booking
// is money nobody will deliver a trip for: the booking was cancelled before it
// was paid, or it was paid through a different payment.
func (b *Booking) OwesRefundFor(paymentID string) bool {
	if b.Status != BookingStatusCancelled {
		return false
	}
	if b.CancelledFrom == nil || !b.CancelledFrom.IsPaid() {
		return true
	}
	return !b.HasPayment() || *b.PaymentID != paymentID
}
