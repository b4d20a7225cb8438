package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Domenick1991/ridepay/internal/service/webhook"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const maxNotificationBody = 1 << 20

type WebhookHandler struct {
	service webhook.WebhookUseCase
	log     *logrus.Logger
}

type notificationBody struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
	Data  struct {
		ID flexString `json:"id"`
	} `json:"data"`
}

func NewWebhookHandler(service webhook.WebhookUseCase, log *logrus.Logger) *WebhookHandler {
	return &WebhookHandler{service: service, log: log}
}

func (h *WebhookHandler) Register(router *gin.RouterGroup) {
	router.POST("/payment-webhook", h.receive)
}

// receive always answers 200 unless the service itself is misconfigured: the
// provider retries anything else and the payment is re-read on every delivery.
func (h *WebhookHandler) receive(c *gin.Context) {
	n := parseNotification(c, h.log)

	res, err := h.service.HandleNotification(c.Request.Context(), n)
	if err != nil {
		if errors.Is(err, webhook.ErrNotConfigured) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		h.log.WithError(err).WithField("payment_id", n.PaymentID).Error("webhook processing failed")
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}

	if res.Outcome == webhook.OutcomeIgnored {
		c.JSON(http.StatusOK, gin.H{"message": "Ignored"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OK"})
}

func parseNotification(c *gin.Context, log *logrus.Logger) webhook.Notification {
	var body notificationBody
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxNotificationBody))
	if err != nil {
		log.WithError(err).Warn("failed to read webhook body")
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			log.WithError(err).Debug("webhook body is not JSON")
		}
	}

	n := webhook.Notification{
		PaymentID: firstNonEmpty(c.Query("id"), c.Query("data.id"), body.Data.ID.String()),
		Topic:     firstNonEmpty(body.Type, body.Topic, c.Query("type"), c.Query("topic")),
		Payload:   raw,
	}
	return n
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
