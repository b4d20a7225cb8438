package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/ridepay/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type cancelBookingRequest struct {
	BookingID flexString `json:"booking_id"`
}

type cancelBookingResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Refunded bool   `json:"refunded"`
}

type bookingStatusResponse struct {
	BookingID string  `json:"booking_id"`
	Status    string  `json:"status"`
	PaymentID *string `json:"payment_id"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/cancel-booking", h.cancel)
	router.GET("/bookings/:id/status", h.status)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	var req cancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.service.CancelBooking(c.Request.Context(), req.BookingID.String())
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, cancelBookingResponse{
		Success:  true,
		Message:  res.Message,
		Refunded: res.Refunded,
	})
}

func (h *BookingHandler) status(c *gin.Context) {
	b, err := h.service.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, booking.ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookingStatusResponse{
		BookingID: b.ID,
		Status:    string(b.Status),
		PaymentID: b.PaymentID,
	})
}
