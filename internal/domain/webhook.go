package domain

import "time"

// WebhookEvent is a raw provider notification kept for audit and replay.
type WebhookEvent struct {
	ID         string
	PaymentID  string
	Topic      string
	Payload    []byte
	ReceivedAt time.Time
}
