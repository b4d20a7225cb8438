package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/ridepay/internal/domain"
	"github.com/Domenick1991/ridepay/internal/mercadopago"
	"github.com/Domenick1991/ridepay/internal/service/payment"
	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	service payment.PaymentUseCase
}

type createPaymentRequest struct {
	TransactionAmount flexFloat  `json:"transaction_amount"`
	Description       string     `json:"description"`
	PaymentMethodID   string     `json:"payment_method_id"`
	PayerEmail        string     `json:"payer_email"`
	BookingID         flexString `json:"booking_id"`
	Token             string     `json:"token"`
	Installments      flexString `json:"installments"`
	IssuerID          flexString `json:"issuer_id"`
}

type processPaymentRequest struct {
	BookingID       flexString `json:"booking_id"`
	PaymentMethodID string     `json:"payment_method_id"`
	PayerEmail      string     `json:"payer_email"`
	Token           string     `json:"token"`
	Installments    flexString `json:"installments"`
	IssuerID        flexString `json:"issuer_id"`
	DocNumber       flexString `json:"doc_number"`
}

func NewPaymentHandler(service payment.PaymentUseCase) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// Register mounts the charge endpoints. limit runs in front of both.
func (h *PaymentHandler) Register(router *gin.RouterGroup, limit ...gin.HandlerFunc) {
	charges := router.Group("", limit...)
	charges.POST("/create-payment-preference", h.create)
	charges.POST("/process-payment", h.process)
}

func (h *PaymentHandler) create(c *gin.Context) {
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.service.CreatePayment(c.Request.Context(), payment.CreatePaymentInput{
		BookingID:         req.BookingID.String(),
		TransactionAmount: float64(req.TransactionAmount),
		Description:       req.Description,
		PayerEmail:        req.PayerEmail,
		Method: domain.MethodInput{
			MethodID:     req.PaymentMethodID,
			Token:        req.Token,
			Installments: req.Installments.String(),
			IssuerID:     req.IssuerID.String(),
		},
	})
	if err != nil {
		var apiErr *mercadopago.APIError
		if statusFor(err) == http.StatusBadRequest && !errors.As(err, &apiErr) && !isValidation(err) {
			err = errors.New("failed to create payment")
		}
		abortWithError(c, err)
		return
	}
	writePayment(c, p)
}

func (h *PaymentHandler) process(c *gin.Context) {
	var req processPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.service.ProcessPayment(c.Request.Context(), payment.ProcessPaymentInput{
		BookingID:  req.BookingID.String(),
		PayerEmail: req.PayerEmail,
		DocNumber:  req.DocNumber.String(),
		Method: domain.MethodInput{
			MethodID:     req.PaymentMethodID,
			Token:        req.Token,
			Installments: req.Installments.String(),
			IssuerID:     req.IssuerID.String(),
		},
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	writePayment(c, p)
}

// writePayment passes the provider object through as received, so fields such
// as point_of_interaction reach the client untouched.
func writePayment(c *gin.Context, p *mercadopago.Payment) {
	if len(p.Raw) > 0 {
		c.Data(http.StatusOK, "application/json; charset=utf-8", p.Raw)
		return
	}
	c.JSON(http.StatusOK, p)
}

func isValidation(err error) bool {
	for _, target := range []error{
		payment.ErrMissingBookingID,
		payment.ErrInvalidAmount,
		domain.ErrMissingMethod,
		domain.ErrIncompleteCard,
		domain.ErrInvalidInstallments,
		domain.ErrInvalidIssuer,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
