package email

import (
	"context"
	"fmt"

	"github.com/Domenick1991/ridepay/config"
	"github.com/Domenick1991/ridepay/internal/kafka"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type Sender struct {
	from   string
	dialer dialer
	log    *logrus.Logger
}

// NewSender sends through SMTP when a host is configured; otherwise messages
// are only logged.
func NewSender(cfg config.SMTPConfig, log *logrus.Logger) *Sender {
	s := &Sender{from: cfg.From, log: log}
	if cfg.Host != "" {
		s.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}
	return s
}

func (s *Sender) Send(ctx context.Context, event kafka.PaymentEvent) error {
	if event.PayerEmail == "" {
		return nil
	}
	subject, body, ok := render(event)
	if !ok {
		return nil
	}

	entry := s.log.WithFields(logrus.Fields{"to": event.PayerEmail, "type": event.Type, "booking_id": event.BookingID})
	if s.dialer == nil {
		entry.Info("smtp not configured, e-mail not sent")
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", event.PayerEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send e-mail for booking %s: %w", event.BookingID, err)
	}
	entry.Info("e-mail sent")
	return nil
}

func render(event kafka.PaymentEvent) (subject, body string, ok bool) {
	switch event.Type {
	case kafka.EventPaymentConfirmed:
		return "Payment confirmed",
			fmt.Sprintf("Your payment of %.2f for booking %s was approved. Have a good trip!", event.Amount, event.BookingID), true
	case kafka.EventPaymentFailed:
		return "Payment not approved",
			fmt.Sprintf("The payment for booking %s was not approved. You can try again with another method.", event.BookingID), true
	case kafka.EventBookingCancelled:
		if event.Refunded {
			return "Booking cancelled",
				fmt.Sprintf("Booking %s was cancelled. The amount will be refunded.", event.BookingID), true
		}
		return "Booking cancelled", fmt.Sprintf("Booking %s was cancelled.", event.BookingID), true
	case kafka.EventPaymentRefunded:
		return "Payment refunded",
			fmt.Sprintf("Booking %s had already been cancelled when your payment of %.2f was approved. The amount will be refunded.", event.BookingID, event.Amount), true
	default:
		return "", "", false
	}
}
