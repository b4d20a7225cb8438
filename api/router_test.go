package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Domenick1991/ridepay/internal/logger"
	"github.com/Domenick1991/ridepay/internal/mercadopago"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRouter_Preflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(logger.Discard(), RouterConfig{})

	for _, path := range []string{"/functions/v1/process-payment", "/functions/v1/payment-webhook", "/functions/v1/cancel-booking"} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, path, nil))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "ok", w.Body.String())
		})
	}

	req := httptest.NewRequest(http.MethodOptions, "/functions/v1/process-payment", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization, content-type")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, strings.ToLower(w.Header().Get("Access-Control-Allow-Headers")), "x-client-info")
}

func TestRouter_HealthAndDocs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	health := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router := NewRouter(logger.Discard(), RouterConfig{Health: health})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/docs/openapi.json", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/functions/v1/process-payment")
}

func TestRouter_ChargeRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limit, err := RateLimiter("1-M", nil, logger.Discard())
	require.NoError(t, err)

	mockService := &MockPaymentUseCase{}
	mockService.On("ProcessPayment", mock.Anything, mock.Anything).
		Return(&mercadopago.Payment{ID: "1", Raw: []byte(`{"id":1}`)}, nil).Once()
	mockWebhooks := &MockWebhookUseCase{}

	router := NewRouter(logger.Discard(), RouterConfig{
		Payments:    NewPaymentHandler(mockService),
		Webhooks:    NewWebhookHandler(mockWebhooks, logger.Discard()),
		ChargeLimit: limit,
	})

	send := func(path string) int {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"booking_id":"b-1","payment_method_id":"pix","payer_email":"a@b.c"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("/functions/v1/process-payment"))
	assert.Equal(t, http.StatusTooManyRequests, send("/functions/v1/process-payment"))
	mockService.AssertNumberOfCalls(t, "ProcessPayment", 1)
}

func TestRateLimiter_InvalidRate(t *testing.T) {
	_, err := RateLimiter("lots", nil, logger.Discard())
	assert.Error(t, err)
}
