package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Domenick1991/ridepay/internal/domain"
	"github.com/Domenick1991/ridepay/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestBookingHandler_cancel(t *testing.T) {
	gin.SetMode(gin.TestMode)

	testCases := []struct {
		name         string
		body         string
		id           string
		result       *booking.CancelResult
		err          error
		expectedCode int
		expectedBody string
	}{
		{
			name:         "refunded",
			body:         `{"booking_id":"b-1"}`,
			id:           "b-1",
			result:       &booking.CancelResult{Refunded: true, Message: booking.MessageRefunded},
			expectedCode: http.StatusOK,
			expectedBody: `{"success":true,"message":"Cancelled successfully. The amount will be refunded.","refunded":true}`,
		},
		{
			name:         "numeric id",
			body:         `{"booking_id":42}`,
			id:           "42",
			result:       &booking.CancelResult{Message: booking.MessageCancelled},
			expectedCode: http.StatusOK,
			expectedBody: `{"success":true,"message":"Booking cancelled successfully.","refunded":false}`,
		},
		{
			name:         "not found",
			body:         `{"booking_id":"b-1"}`,
			id:           "b-1",
			err:          booking.ErrBookingNotFound,
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"error":"booking not found"}`,
		},
		{
			name:         "refund failed",
			body:         `{"booking_id":"b-1"}`,
			id:           "b-1",
			err:          fmt.Errorf("%w: %v", booking.ErrRefundFailed, "status 400"),
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"error":"failed to refund payment"}`,
		},
		{
			name:         "store failure",
			body:         `{"booking_id":"b-1"}`,
			id:           "b-1",
			err:          fmt.Errorf("%w: %v", booking.ErrUpdateFailed, "conn reset"),
			expectedCode: http.StatusInternalServerError,
			expectedBody: `{"error":"failed to cancel booking"}`,
		},
		{
			name:         "changed concurrently",
			body:         `{"booking_id":"b-1"}`,
			id:           "b-1",
			err:          fmt.Errorf("%w: %v", booking.ErrConflict, "expected pending, found confirmed"),
			expectedCode: http.StatusConflict,
			expectedBody: `{"error":"booking changed while cancelling, please try again"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockService := &MockBookingUseCase{}
			handler := NewBookingHandler(mockService)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/functions/v1/cancel-booking", strings.NewReader(tc.body))
			c.Request.Header.Set("Content-Type", "application/json")

			if tc.err != nil {
				mockService.On("CancelBooking", mock.Anything, tc.id).Return(nil, tc.err).Once()
			} else {
				mockService.On("CancelBooking", mock.Anything, tc.id).Return(tc.result, nil).Once()
			}

			handler.cancel(c)

			assert.Equal(t, tc.expectedCode, w.Code)
			assert.JSONEq(t, tc.expectedBody, w.Body.String())
			mockService.AssertExpectations(t)
		})
	}
}

func TestBookingHandler_cancel_InvalidJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/functions/v1/cancel-booking", strings.NewReader("{"))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.cancel(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "CancelBooking", mock.Anything, mock.Anything)
}

func TestBookingHandler_status(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)
	router := gin.New()
	handler.Register(router.Group("/functions/v1"))

	paymentID := "123"
	mockService.On("GetStatus", mock.Anything, "b-1").
		Return(&domain.Booking{ID: "b-1", Status: domain.BookingStatusConfirmed, PaymentID: &paymentID}, nil).Once()
	mockService.On("GetStatus", mock.Anything, "b-2").Return(nil, booking.ErrBookingNotFound).Once()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/functions/v1/bookings/b-1/status", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"booking_id":"b-1","status":"confirmed","payment_id":"123"}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/functions/v1/bookings/b-2/status", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
