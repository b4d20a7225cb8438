package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/ridepay/api"
	"github.com/Domenick1991/ridepay/config"
	"github.com/Domenick1991/ridepay/internal/bootstrap"
	"github.com/Domenick1991/ridepay/internal/cache"
	"github.com/Domenick1991/ridepay/internal/kafka"
	"github.com/Domenick1991/ridepay/internal/logger"
	"github.com/Domenick1991/ridepay/internal/mercadopago"
	"github.com/Domenick1991/ridepay/internal/repository"
	"github.com/Domenick1991/ridepay/internal/service/booking"
	"github.com/Domenick1991/ridepay/internal/service/payment"
	"github.com/Domenick1991/ridepay/internal/service/webhook"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
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
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.WithError(err).Fatal("connect postgres")
	}
	defer pool.Close()

	checks := map[string]bootstrap.Check{"postgres": pool.Ping}

	provider := mercadopago.NewClient(cfg.MercadoPago)
	if !provider.Configured() {
		log.Warn("MP_ACCESS_TOKEN is not set, payment endpoints will answer 500")
	}

	bookingRepo := repository.NewBookingRepository(pool)
	tripRepo := repository.NewTripRepository(pool)
	eventRepo := repository.NewWebhookEventRepository(pool)

	webhookOpts := []webhook.WebhookServiceOption{webhook.WithEventLog(eventRepo), webhook.WithRefunder(provider)}
	bookingOpts := []booking.BookingServiceOption{}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisCache, err := cache.NewRedisCache(cfg.Redis)
		if err != nil {
			log.WithError(err).Fatal("connect redis")
		}
		defer redisCache.Close()
		redisClient = redisCache.Client()
		checks["redis"] = redisCache.Ping
		webhookOpts = append(webhookOpts, webhook.WithLocker(redisCache, time.Duration(cfg.Payments.NotificationLockSeconds)*time.Second))
	}

	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
		defer producer.Close()
		checks["kafka"] = producer.CheckConnection
		webhookOpts = append(webhookOpts, webhook.WithProducer(producer, cfg.Kafka.PaymentEventsTopic, cfg.Kafka.NotificationsTopic))
		bookingOpts = append(bookingOpts,
			booking.WithProducer(producer, cfg.Kafka.PaymentEventsTopic),
			booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		)
	}

	paymentService := payment.NewPaymentService(bookingRepo, provider, log)
	webhookService := webhook.NewWebhookService(bookingRepo, provider, cfg.Payments.CommissionRate, log, webhookOpts...)
	bookingService := booking.NewBookingService(
		bookingRepo,
		tripRepo,
		provider,
		time.Duration(cfg.Payments.RefundWindowHours*float64(time.Hour)),
		log,
		bookingOpts...,
	)

	chargeLimit, err := api.RateLimiter(cfg.RateLimit.Rate, redisClient, log)
	if err != nil {
		log.WithError(err).Fatal("configure rate limiter")
	}

	routes := api.RouterConfig{
		Payments:    api.NewPaymentHandler(paymentService),
		Webhooks:    api.NewWebhookHandler(webhookService, log),
		Bookings:    api.NewBookingHandler(bookingService),
		ChargeLimit: chargeLimit,
	}
	if err := bootstrap.Run(ctx, cfg, log, routes, checks); err != nil {
		log.WithError(err).Fatal("server error")
	}
}
