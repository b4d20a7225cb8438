package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/ridepay/internal/mercadopago"
	"github.com/Domenick1991/ridepay/internal/service/booking"
	"github.com/Domenick1991/ridepay/internal/service/payment"
	"github.com/Domenick1991/ridepay/internal/service/webhook"
	"github.com/gin-gonic/gin"
)

// statusFor maps service errors to HTTP statuses. Anything unrecognised is a
// client-visible 400, matching how the mobile app treats failures.
func statusFor(err error) int {
	switch {
	case errors.Is(err, payment.ErrNotConfigured),
		errors.Is(err, booking.ErrNotConfigured),
		errors.Is(err, webhook.ErrNotConfigured),
		errors.Is(err, mercadopago.ErrMissingAccessToken),
		errors.Is(err, booking.ErrUpdateFailed):
		return http.StatusInternalServerError
	case errors.Is(err, payment.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, booking.ErrConflict),
		errors.Is(err, payment.ErrPaymentInProgress):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func errorMessage(err error) string {
	var declined *payment.DeclinedError
	if errors.As(err, &declined) {
		return declined.Error()
	}
	var apiErr *mercadopago.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	switch {
	case errors.Is(err, booking.ErrRefundFailed):
		return booking.ErrRefundFailed.Error()
	case errors.Is(err, booking.ErrUpdateFailed):
		return booking.ErrUpdateFailed.Error()
	case errors.Is(err, booking.ErrConflict):
		return booking.ErrConflict.Error()
	}
	return err.Error()
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": errorMessage(err)})
}
