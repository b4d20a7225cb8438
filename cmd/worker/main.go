package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/ridepay/config"
	"github.com/Domenick1991/ridepay/internal/email"
	"github.com/Domenick1991/ridepay/internal/kafka"
	"github.com/Domenick1991/ridepay/internal/logger"
	"github.com/Domenick1991/ridepay/internal/mercadopago"
	"github.com/Domenick1991/ridepay/internal/repository"
	"github.com/Domenick1991/ridepay/internal/service/webhook"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.WithError(err).Fatal("connect postgres")
	}
	defer pool.Close()

	provider := mercadopago.NewClient(cfg.MercadoPago)
	opts := []webhook.WebhookServiceOption{webhook.WithRefunder(provider)}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
		defer producer.Close()
		opts = append(opts, webhook.WithProducer(producer, cfg.Kafka.PaymentEventsTopic, cfg.Kafka.NotificationsTopic))

		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, log)
		defer consumer.Close()

		sender := email.NewSender(cfg.SMTP, log)
		go func() {
			err := consumer.Consume(ctx, func(ctx context.Context, event kafka.PaymentEvent) error {
				if err := sender.Send(ctx, event); err != nil {
					log.WithError(err).WithField("booking_id", event.BookingID).Error("notification not delivered")
				}
				return nil
			})
			if err != nil {
				log.WithError(err).Error("consumer stopped")
			}
		}()
	} else {
		log.Warn("no kafka brokers configured, notifications disabled")
	}

	webhookService := webhook.NewWebhookService(
		repository.NewBookingRepository(pool),
		provider,
		cfg.Payments.CommissionRate,
		log,
		opts...,
	)

	reconcileAfter := time.Duration(cfg.Worker.ReconcileAfterMinutes) * time.Minute
	ticker := time.NewTicker(time.Duration(cfg.Worker.ReconcileIntervalMinutes) * time.Minute)
	defer ticker.Stop()

	log.Info("worker started")
	for {
		select {
		case <-ticker.C:
			changed, err := webhookService.ReconcilePending(ctx, time.Now().Add(-reconcileAfter))
			if err != nil {
				log.WithError(err).Error("reconcile pending bookings")
				continue
			}
			if changed > 0 {
				log.WithField("changed", changed).Info("reconciled pending bookings")
			}
		case <-ctx.Done():
			log.Info("shutting down")
			return
		}
	}
}
