package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Domenick1991/ridepay/internal/domain"
	"github.com/Domenick1991/ridepay/internal/mercadopago"
	"github.com/Domenick1991/ridepay/internal/repository"
	"github.com/sirupsen/logrus"
)

const (
	maxDescriptionLen = 100
	payerFirstName    = "Passenger"
	identificationCPF = "CPF"
	firstAttempt      = "first"
)

type PaymentUseCase interface {
	// CreatePayment forwards a client-priced charge to the provider.
	CreatePayment(ctx context.Context, input CreatePaymentInput) (*mercadopago.Payment, error)
	// ProcessPayment charges the stored price of a booking.
	ProcessPayment(ctx context.Context, input ProcessPaymentInput) (*mercadopago.Payment, error)
}

type Provider interface {
	Configured() bool
	CreatePayment(ctx context.Context, req mercadopago.PaymentRequest, idempotencyKey string) (*mercadopago.Payment, error)
	GetPayment(ctx context.Context, paymentID string) (*mercadopago.Payment, error)
}

type CreatePaymentInput struct {
	BookingID         string
	TransactionAmount float64
	Description       string
	PayerEmail        string
	Method            domain.MethodInput
}

type ProcessPaymentInput struct {
	BookingID  string
	PayerEmail string
	DocNumber  string
	Method     domain.MethodInput
}

type PaymentService struct {
	bookings repository.BookingRepository
	provider Provider
	log      *logrus.Logger
}

func NewPaymentService(bookings repository.BookingRepository, provider Provider, log *logrus.Logger) *PaymentService {
	return &PaymentService{bookings: bookings, provider: provider, log: log}
}

func (s *PaymentService) CreatePayment(ctx context.Context, input CreatePaymentInput) (*mercadopago.Payment, error) {
	if !s.provider.Configured() {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(input.BookingID) == "" {
		return nil, ErrMissingBookingID
	}
	if input.TransactionAmount <= 0 {
		return nil, ErrInvalidAmount
	}
	method, err := domain.ParseMethod(input.Method, false)
	if err != nil {
		return nil, err
	}
	if _, err := s.payableBooking(ctx, input.BookingID); err != nil {
		return nil, err
	}

	req := mercadopago.PaymentRequest{
		TransactionAmount: input.TransactionAmount,
		Description:       input.Description,
		PaymentMethodID:   method.MethodID(),
		ExternalReference: input.BookingID,
		Payer:             mercadopago.Payer{Email: input.PayerEmail},
	}
	if err := applyMethod(&req, method); err != nil {
		return nil, err
	}

	// The booking id alone keys the charge: a double tap re-sends the same key.
	payment, err := s.provider.CreatePayment(ctx, req, input.BookingID)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"booking_id": input.BookingID, "payment_id": payment.ID, "status": payment.Status}).
		Info("payment created")
	return payment, nil
}

func (s *PaymentService) ProcessPayment(ctx context.Context, input ProcessPaymentInput) (*mercadopago.Payment, error) {
	entry := s.log.WithFields(logrus.Fields{"booking_id": input.BookingID, "method": input.Method.MethodID})
	entry.Info("processing payment")

	if !s.provider.Configured() {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(input.BookingID) == "" || strings.TrimSpace(input.Method.MethodID) == "" || strings.TrimSpace(input.PayerEmail) == "" {
		return nil, ErrMissingFields
	}
	method, err := domain.ParseMethod(input.Method, true)
	if err != nil {
		return nil, err
	}

	booking, err := s.payableBooking(ctx, input.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.TotalPrice <= 0 {
		return nil, ErrInvalidAmount
	}
	attempt, err := s.nextAttempt(ctx, booking)
	if err != nil {
		return nil, err
	}

	req := mercadopago.PaymentRequest{
		TransactionAmount: booking.TotalPrice,
		Description:       tripDescription(booking),
		PaymentMethodID:   method.MethodID(),
		ExternalReference: booking.ID,
		Payer: mercadopago.Payer{
			Email:     input.PayerEmail,
			FirstName: payerFirstName,
		},
	}
	if doc := digitsOnly(input.DocNumber); doc != "" {
		req.Payer.Identification = &mercadopago.Identification{Type: identificationCPF, Number: doc}
	}
	if err := applyMethod(&req, method); err != nil {
		return nil, err
	}

	payment, err := s.provider.CreatePayment(ctx, req, idempotencyKey(booking.ID, method, attempt))
	if err != nil {
		var apiErr *mercadopago.APIError
		if errors.As(err, &apiErr) {
			entry.WithField("provider_status", apiErr.StatusCode).WithField("body", string(apiErr.Body)).Error("provider rejected payment")
			if apiErr.Unauthorized() {
				return nil, ErrInvalidCredentials
			}
			return nil, &DeclinedError{Reason: apiErr.Message, Err: apiErr}
		}
		return nil, err
	}

	if err := s.bookings.AttachPayment(ctx, booking.ID, payment.ID.String(), method.MethodID(), input.PayerEmail); err != nil {
		entry.WithError(err).Warn("payment created but could not be attached to booking")
	}

	entry.WithFields(logrus.Fields{"payment_id": payment.ID, "status": payment.Status}).Info("payment submitted")
	return payment, nil
}

func applyMethod(req *mercadopago.PaymentRequest, method domain.PaymentMethod) error {
	switch m := method.(type) {
	case domain.PixMethod:
		return nil
	case domain.CardMethod:
		req.Token = m.Token
		req.Installments = m.Installments
		req.IssuerID = m.IssuerID
		return nil
	default:
		return fmt.Errorf("unsupported payment method %T", method)
	}
}

// payableBooking loads the booking and refuses it when it can no longer take
// a charge.
func (s *PaymentService) payableBooking(ctx context.Context, id string) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("load booking %s: %w", id, err)
	}
	switch {
	case booking.Status.IsPaid():
		return nil, ErrAlreadyPaid
	case booking.Status == domain.BookingStatusCancelled:
		return nil, ErrBookingCancelled
	}
	return booking, nil
}

// nextAttempt names the charge attempt for a booking. The booking's last
// payment is checked with the provider: while it may still be approved no new
// charge is started, once it has failed its id marks the next attempt.
func (s *PaymentService) nextAttempt(ctx context.Context, booking *domain.Booking) (string, error) {
	if !booking.HasPayment() {
		return firstAttempt, nil
	}
	previous, err := s.provider.GetPayment(ctx, *booking.PaymentID)
	if err != nil {
		return "", fmt.Errorf("check payment %s of booking %s: %w", *booking.PaymentID, booking.ID, err)
	}
	switch previous.Status {
	case domain.PaymentStatusApproved, domain.PaymentStatusAuthorized:
		return "", ErrAlreadyPaid
	case domain.PaymentStatusPending, domain.PaymentStatusInProcess, domain.PaymentStatusInMediation:
		return "", ErrPaymentInProgress
	}
	return *booking.PaymentID, nil
}

// idempotencyKey is stable for a booking, method and attempt. Card tokens are
// single-use and stay out of the key: two submissions of the same attempt with
// fresh tokens still collapse into one charge.
func idempotencyKey(bookingID string, method domain.PaymentMethod, attempt string) string {
	return fmt.Sprintf("pay_%s_%s_%s", bookingID, method.MethodID(), attempt)
}

func tripDescription(b *domain.Booking) string {
	desc := fmt.Sprintf("Trip: %s > %s", b.OriginName, b.DestinationName)
	if r := []rune(desc); len(r) > maxDescriptionLen {
		return string(r[:maxDescriptionLen])
	}
	return desc
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var _ PaymentUseCase = (*PaymentService)(nil)
