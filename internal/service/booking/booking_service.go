package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/ridepay/internal/domain"
	"github.com/Domenick1991/ridepay/internal/kafka"
	"github.com/Domenick1991/ridepay/internal/mercadopago"
	"github.com/Domenick1991/ridepay/internal/repository"
	"github.com/sirupsen/logrus"
)

const (
	MessageRefunded        = "Cancelled successfully. The amount will be refunded."
	MessageLateNoRefund    = "Cancelled without refund (less than 2h before the trip)."
	MessageCancelled       = "Booking cancelled successfully."
	MessageAlreadyCanceled = "booking already cancelled"
)

type BookingUseCase interface {
	CancelBooking(ctx context.Context, id string) (*CancelResult, error)
	GetStatus(ctx context.Context, id string) (*domain.Booking, error)
}

type Refunder interface {
	Configured() bool
	RefundPayment(ctx context.Context, paymentID, idempotencyKey string) (*mercadopago.Refund, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type CancelResult struct {
	Booking  *domain.Booking
	Refunded bool
	Message  string
}

type BookingService struct {
	bookings           repository.BookingRepository
	trips              repository.TripRepository
	refunder           Refunder
	producer           Producer
	eventsTopic        string
	notificationsTopic string
	refundWindow       time.Duration
	now                func() time.Time
	log                *logrus.Logger
}

type BookingServiceOption func(*BookingService)

func WithProducer(producer Producer, eventsTopic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.eventsTopic = eventsTopic
	}
}

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	trips repository.TripRepository,
	refunder Refunder,
	refundWindow time.Duration,
	log *logrus.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:     bookings,
		trips:        trips,
		refunder:     refunder,
		refundWindow: refundWindow,
		now:          time.Now,
		log:          log,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CancelBooking cancels a booking, refunding the captured payment when the trip
// is still far enough away. A failed refund leaves the booking untouched.
func (s *BookingService) CancelBooking(ctx context.Context, id string) (*CancelResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrMissingBookingID
	}

	current, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to load booking %s: %w", id, err)
	}
	if current.Status == domain.BookingStatusCancelled {
		return &CancelResult{Booking: current, Message: MessageAlreadyCanceled}, nil
	}

	entry := s.log.WithFields(logrus.Fields{"booking_id": id, "status": current.Status})
	result := &CancelResult{Message: MessageCancelled}

	if current.Status.IsPaid() && current.HasPayment() {
		trip, err := s.trips.GetByID(ctx, current.TripID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrTripNotFound
			}
			return nil, fmt.Errorf("failed to load trip %s: %w", current.TripID, err)
		}

		hours := trip.HoursUntilDeparture(s.now())
		entry = entry.WithField("hours_until_departure", hours)
		if hours >= s.refundWindow.Hours() {
			if s.refunder == nil || !s.refunder.Configured() {
				return nil, ErrNotConfigured
			}
			refund, err := s.refunder.RefundPayment(ctx, *current.PaymentID, refundKey(id))
			if err != nil {
				entry.WithError(err).Error("refund failed, booking left unchanged")
				return nil, fmt.Errorf("%w: %v", ErrRefundFailed, err)
			}
			entry.WithField("refund_id", refund.ID.String()).Info("payment refunded")
			result.Refunded = true
			result.Message = MessageRefunded
		} else {
			result.Message = MessageLateNoRefund
		}
	}

	// The refund decision above holds only for the status it was made on.
	updated, err := s.bookings.Cancel(ctx, id, current.Status)
	if err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			entry.WithError(err).Warn("booking changed during cancellation")
			return nil, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		entry.WithError(err).Error("failed to persist cancellation")
		return nil, fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}
	result.Booking = updated
	entry.WithField("refunded", result.Refunded).Info("booking cancelled")

	if err := s.publish(ctx, updated, result.Refunded); err != nil {
		entry.WithError(err).Warn("failed to publish booking_cancelled event")
	}
	return result, nil
}

func (s *BookingService) GetStatus(ctx context.Context, id string) (*domain.Booking, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrMissingBookingID
	}
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *BookingService) publish(ctx context.Context, booking *domain.Booking, refunded bool) error {
	if s.producer == nil || s.eventsTopic == "" {
		return nil
	}
	event := kafka.PaymentEvent{
		Type:       kafka.EventBookingCancelled,
		BookingID:  booking.ID,
		Status:     string(booking.Status),
		Amount:     booking.TotalPrice,
		Refunded:   refunded,
		OccurredAt: s.now().UTC(),
	}
	if booking.PaymentID != nil {
		event.PaymentID = *booking.PaymentID
	}
	if booking.PayerEmail != nil {
		event.PayerEmail = *booking.PayerEmail
	}
	if err := s.producer.Publish(ctx, s.eventsTopic, booking.ID, event); err != nil {
		return err
	}
	if s.notificationsTopic != "" {
		return s.producer.Publish(ctx, s.notificationsTopic, booking.ID, event)
	}
	return nil
}

func refundKey(bookingID string) string {
	return "refund-" + bookingID
}

var _ BookingUseCase = (*BookingService)(nil)
