package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const basePath = "/functions/v1"

type RouterConfig struct {
	Payments *PaymentHandler
	Webhooks *WebhookHandler
	Bookings *BookingHandler
	// ChargeLimit guards the charge endpoints. Nil disables limiting.
	ChargeLimit gin.HandlerFunc
	// Health serves /healthz. Nil leaves the route out.
	Health http.Handler
}

func NewRouter(log *logrus.Logger, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(log), CORS())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Health != nil {
		router.GET("/healthz", gin.WrapH(cfg.Health))
	}
	RegisterDocs(router)

	functions := router.Group(basePath)
	functions.OPTIONS("/*path", Preflight)

	var limit []gin.HandlerFunc
	if cfg.ChargeLimit != nil {
		limit = append(limit, cfg.ChargeLimit)
	}
	if cfg.Payments != nil {
		cfg.Payments.Register(functions, limit...)
	}
	if cfg.Webhooks != nil {
		cfg.Webhooks.Register(functions)
	}
	if cfg.Bookings != nil {
		cfg.Bookings.Register(functions)
	}
	return router
}
