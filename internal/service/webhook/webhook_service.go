package webhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/ridepay/internal/domain"
	"github.com/Domenick1991/ridepay/internal/kafka"
	"github.com/Domenick1991/ridepay/internal/mercadopago"
	"github.com/Domenick1991/ridepay/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const TopicPayment = "payment"

var (
	ErrNotConfigured  = errors.New("missing environment configuration")
	ErrRefundRequired = errors.New("payment approved for a cancelled booking needs a manual refund")
)

type Outcome string

const (
	// OutcomeIgnored: the notification carried no payment to look at.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeInFlight: another delivery of the same payment is being handled.
	OutcomeInFlight  Outcome = "in_flight"
	OutcomeProcessed Outcome = "processed"
)

type Notification struct {
	PaymentID string
	Topic     string
	Payload   []byte
}

type Result struct {
	Outcome       Outcome
	PaymentStatus string
	BookingID     string
	// Applied is true when this call changed the booking.
	Applied bool
	// Refunded is true when the payment was sent back because its booking
	// had been cancelled.
	Refunded bool
}

type WebhookUseCase interface {
	HandleNotification(ctx context.Context, n Notification) (Result, error)
	Reconcile(ctx context.Context, paymentID string) (Result, error)
	ReconcilePending(ctx context.Context, updatedBefore time.Time) (int, error)
}

type Provider interface {
	Configured() bool
	GetPayment(ctx context.Context, paymentID string) (*mercadopago.Payment, error)
}

type Refunder interface {
	Configured() bool
	RefundPayment(ctx context.Context, paymentID, idempotencyKey string) (*mercadopago.Refund, error)
}

type Locker interface {
	AcquireNotificationLock(ctx context.Context, paymentID string, ttl time.Duration) (bool, error)
	ReleaseNotificationLock(ctx context.Context, paymentID string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type WebhookService struct {
	bookings           repository.BookingRepository
	events             repository.WebhookEventRepository
	provider           Provider
	refunder           Refunder
	locker             Locker
	producer           Producer
	eventsTopic        string
	notificationsTopic string
	commissionRate     float64
	lockTTL            time.Duration
	log                *logrus.Logger
}

type WebhookServiceOption func(*WebhookService)

func WithLocker(locker Locker, ttl time.Duration) WebhookServiceOption {
	return func(s *WebhookService) {
		s.locker = locker
		s.lockTTL = ttl
	}
}

func WithProducer(producer Producer, eventsTopic, notificationsTopic string) WebhookServiceOption {
	return func(s *WebhookService) {
		s.producer = producer
		s.eventsTopic = eventsTopic
		s.notificationsTopic = notificationsTopic
	}
}

// WithRefunder lets the service refund payments approved after their booking
// was cancelled. Without it such payments are only reported.
func WithRefunder(refunder Refunder) WebhookServiceOption {
	return func(s *WebhookService) {
		s.refunder = refunder
	}
}

func WithEventLog(events repository.WebhookEventRepository) WebhookServiceOption {
	return func(s *WebhookService) {
		s.events = events
	}
}

func NewWebhookService(
	bookings repository.BookingRepository,
	provider Provider,
	commissionRate float64,
	log *logrus.Logger,
	opts ...WebhookServiceOption,
) *WebhookService {
	s := &WebhookService{
		bookings:       bookings,
		provider:       provider,
		commissionRate: commissionRate,
		lockTTL:        30 * time.Second,
		log:            log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *WebhookService) HandleNotification(ctx context.Context, n Notification) (Result, error) {
	if n.PaymentID == "" || n.Topic != TopicPayment {
		return Result{Outcome: OutcomeIgnored}, nil
	}
	if s.provider == nil || !s.provider.Configured() {
		return Result{}, ErrNotConfigured
	}

	entry := s.log.WithField("payment_id", n.PaymentID)
	entry.Info("payment notification received")

	if s.events != nil {
		err := s.events.Record(ctx, domain.WebhookEvent{
			ID:         uuid.NewString(),
			PaymentID:  n.PaymentID,
			Topic:      n.Topic,
			Payload:    n.Payload,
			ReceivedAt: time.Now().UTC(),
		})
		if err != nil {
			entry.WithError(err).Warn("failed to record webhook event")
		}
	}

	if s.locker != nil {
		ok, err := s.locker.AcquireNotificationLock(ctx, n.PaymentID, s.lockTTL)
		switch {
		case err != nil:
			entry.WithError(err).Warn("notification lock unavailable, processing without it")
		case !ok:
			entry.Info("notification already being processed")
			return Result{Outcome: OutcomeInFlight}, nil
		default:
			defer func() {
				if err := s.locker.ReleaseNotificationLock(context.WithoutCancel(ctx), n.PaymentID); err != nil {
					entry.WithError(err).Warn("failed to release notification lock")
				}
			}()
		}
	}

	return s.Reconcile(ctx, n.PaymentID)
}

// Reconcile re-reads the payment from the provider and applies its status to
// the booking it references. The notification body is never trusted.
func (s *WebhookService) Reconcile(ctx context.Context, paymentID string) (Result, error) {
	payment, err := s.provider.GetPayment(ctx, paymentID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to query payment %s: %w", paymentID, err)
	}

	res := Result{Outcome: OutcomeProcessed, PaymentStatus: payment.Status, BookingID: payment.ExternalReference}
	entry := s.log.WithFields(logrus.Fields{"payment_id": paymentID, "status": payment.Status, "booking_id": payment.ExternalReference})

	if payment.ExternalReference == "" {
		entry.Warn("payment has no external reference")
		return res, nil
	}

	var (
		booking   *domain.Booking
		eventType string
	)
	switch payment.Status {
	case domain.PaymentStatusApproved:
		split := domain.SplitFee(payment.TransactionAmount, s.commissionRate)
		booking, res.Applied, err = s.bookings.ConfirmPayment(ctx, payment.ExternalReference, paymentID, split)
		if err != nil {
			return res, fmt.Errorf("failed to confirm booking %s: %w", payment.ExternalReference, err)
		}
		if !res.Applied && booking.OwesRefundFor(paymentID) {
			return s.refundCancelled(ctx, entry, booking, payment, paymentID, res)
		}
		eventType = kafka.EventPaymentConfirmed
		entry = entry.WithField("split", split.String())
	case domain.PaymentStatusRejected, domain.PaymentStatusCancelled:
		booking, res.Applied, err = s.bookings.MarkFailed(ctx, payment.ExternalReference, paymentID)
		if err != nil {
			return res, fmt.Errorf("failed to mark booking %s as failed: %w", payment.ExternalReference, err)
		}
		eventType = kafka.EventPaymentFailed
	default:
		entry.Debug("payment status requires no booking change")
		return res, nil
	}

	if !res.Applied {
		entry.WithField("booking_status", booking.Status).Info("booking already reconciled")
		return res, nil
	}
	entry.WithField("booking_status", booking.Status).Info("booking reconciled")

	if err := s.publish(ctx, eventType, booking, payment, paymentID, false); err != nil {
		entry.WithError(err).Warn("failed to publish payment event")
	}
	return res, nil
}

// refundCancelled sends back a payment the provider approved for a booking
// that was cancelled before it was paid. The key is per payment, so
// redeliveries never refund twice.
func (s *WebhookService) refundCancelled(ctx context.Context, entry *logrus.Entry, booking *domain.Booking, payment *mercadopago.Payment, paymentID string, res Result) (Result, error) {
	entry = entry.WithField("booking_status", booking.Status)

	var refundErr error
	if s.refunder == nil || !s.refunder.Configured() {
		refundErr = ErrRefundRequired
	} else if _, err := s.refunder.RefundPayment(ctx, paymentID, cancelledRefundKey(booking.ID, paymentID)); err != nil {
		refundErr = fmt.Errorf("failed to refund payment %s for cancelled booking %s: %w", paymentID, booking.ID, err)
	}

	if refundErr != nil {
		entry.WithError(refundErr).Error("approved payment on a cancelled booking was not refunded")
		if err := s.publish(ctx, kafka.EventRefundRequired, booking, payment, paymentID, false); err != nil {
			entry.WithError(err).Warn("failed to publish payment event")
		}
		return res, refundErr
	}

	res.Refunded = true
	entry.Info("refunded payment approved after cancellation")
	if err := s.publish(ctx, kafka.EventPaymentRefunded, booking, payment, paymentID, true); err != nil {
		entry.WithError(err).Warn("failed to publish payment event")
	}
	return res, nil
}

func cancelledRefundKey(bookingID, paymentID string) string {
	return fmt.Sprintf("refund-%s-%s", bookingID, paymentID)
}

// ReconcilePending re-checks bookings still pending with a payment attached,
// covering notifications the provider never delivered. It returns how many
// bookings changed.
func (s *WebhookService) ReconcilePending(ctx context.Context, updatedBefore time.Time) (int, error) {
	if s.provider == nil || !s.provider.Configured() {
		return 0, ErrNotConfigured
	}
	pending, err := s.bookings.ListPendingWithPayment(ctx, updatedBefore)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending bookings: %w", err)
	}

	changed := 0
	for _, b := range pending {
		if ctx.Err() != nil {
			return changed, ctx.Err()
		}
		if !b.HasPayment() {
			continue
		}
		res, err := s.Reconcile(ctx, *b.PaymentID)
		if err != nil {
			s.log.WithError(err).WithField("booking_id", b.ID).Warn("reconciliation failed")
			continue
		}
		if res.Applied {
			changed++
		}
	}
	return changed, nil
}

func (s *WebhookService) publish(ctx context.Context, eventType string, booking *domain.Booking, payment *mercadopago.Payment, paymentID string, refunded bool) error {
	if s.producer == nil || s.eventsTopic == "" {
		return nil
	}
	event := kafka.PaymentEvent{
		Type:         eventType,
		BookingID:    booking.ID,
		PaymentID:    paymentID,
		Status:       string(booking.Status),
		Amount:       payment.TransactionAmount,
		AppFee:       booking.AppFee,
		DriverAmount: booking.DriverAmount,
		PayerEmail:   payerEmail(booking, payment),
		Refunded:     refunded,
		OccurredAt:   time.Now().UTC(),
	}
	if err := s.producer.Publish(ctx, s.eventsTopic, booking.ID, event); err != nil {
		return err
	}
	if s.notificationsTopic != "" {
		return s.producer.Publish(ctx, s.notificationsTopic, booking.ID, event)
	}
	return nil
}

func payerEmail(b *domain.Booking, p *mercadopago.Payment) string {
	if b.PayerEmail != nil && *b.PayerEmail != "" {
		return *b.PayerEmail
	}
	return p.Payer.Email
}

var _ WebhookUseCase = (*WebhookService)(nil)
