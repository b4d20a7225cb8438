package repository

import (
	"context"

	"github.com/Domenick1991/ridepay/internal/domain"
)

type WebhookEventRepository interface {
	Record(ctx context.Context, event domain.WebhookEvent) error
}

type PGWebhookEventRepository struct {
	db DB
}

func NewWebhookEventRepository(db DB) WebhookEventRepository {
	return &PGWebhookEventRepository{db: db}
}

func (r *PGWebhookEventRepository) Record(ctx context.Context, event domain.WebhookEvent) error {
	_, err := r.db.Exec(ctx, `INSERT INTO webhook_events (id, payment_id, topic, payload, received_at) VALUES ($1, $2, $3, $4, $5)`,
		event.ID, event.PaymentID, event.Topic, string(event.Payload), event.ReceivedAt)
	return err
}

var _ WebhookEventRepository = (*PGWebhookEventRepository)(nil)
