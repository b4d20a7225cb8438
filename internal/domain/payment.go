package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Provider-side payment statuses that drive local transitions.
const (
	PaymentStatusApproved    = "approved"
	PaymentStatusAuthorized  = "authorized"
	PaymentStatusPending     = "pending"
	PaymentStatusInProcess   = "in_process"
	PaymentStatusInMediation = "in_mediation"
	PaymentStatusRejected    = "rejected"
	PaymentStatusCancelled   = "cancelled"
)

const MethodPix = "pix"

var (
	ErrMissingMethod       = errors.New("payment method is required")
	ErrIncompleteCard      = errors.New("incomplete card data (token or installments)")
	ErrInvalidInstallments = errors.New("installments must be a positive number")
	ErrInvalidIssuer       = errors.New("issuer id must be numeric")
)

// PaymentMethod is either PixMethod or CardMethod.
type PaymentMethod interface {
	MethodID() string
	isPaymentMethod()
}

type PixMethod struct{}

func (PixMethod) MethodID() string { return MethodPix }
func (PixMethod) isPaymentMethod() {}

// CardMethod is any card brand ("visa", "master", ...) paid with a tokenized card.
type CardMethod struct {
	Brand        string
	Token        string
	Installments int
	IssuerID     *int64
}

func (c CardMethod) MethodID() string { return c.Brand }
func (CardMethod) isPaymentMethod()   {}

// MethodInput is the raw, untyped method data as it arrives from a client.
type MethodInput struct {
	MethodID     string
	Token        string
	Installments string
	IssuerID     string
}

// ParseMethod validates in and returns the matching variant. With
// requireInstallments unset a missing installment count defaults to 1.
func ParseMethod(in MethodInput, requireInstallments bool) (PaymentMethod, error) {
	id := strings.TrimSpace(in.MethodID)
	if id == "" {
		return nil, ErrMissingMethod
	}
	if id == MethodPix {
		return PixMethod{}, nil
	}

	card := CardMethod{Brand: id, Token: strings.TrimSpace(in.Token)}
	if card.Token == "" {
		return nil, ErrIncompleteCard
	}

	switch inst := strings.TrimSpace(in.Installments); {
	case inst == "" && requireInstallments:
		return nil, ErrIncompleteCard
	case inst == "":
		card.Installments = 1
	default:
		n, err := strconv.Atoi(inst)
		if err != nil || n <= 0 {
			return nil, ErrInvalidInstallments
		}
		card.Installments = n
	}

	if issuer := strings.TrimSpace(in.IssuerID); issuer != "" {
		n, err := strconv.ParseInt(issuer, 10, 64)
		if err != nil {
			return nil, ErrInvalidIssuer
		}
		card.IssuerID = &n
	}
	return card, nil
}

// FeeSplit is how an approved transaction is divided between the platform
// and the driver.
type FeeSplit struct {
	AppFee       float64
	DriverAmount float64
}

// SplitFee applies the commission rate to amount. Both parts are rounded to
// two decimals and the driver share is taken from the rounded fee, so the
// parts always add up to the rounded amount.
func SplitFee(amount, commissionRate float64) FeeSplit {
	total := decimal.NewFromFloat(amount).Round(2)
	fee := total.Mul(decimal.NewFromFloat(commissionRate)).Round(2)
	driver := total.Sub(fee).Round(2)
	return FeeSplit{
		AppFee:       fee.InexactFloat64(),
		DriverAmount: driver.InexactFloat64(),
	}
}

func (f FeeSplit) String() string {
	return fmt.Sprintf("app_fee=%.2f driver_amount=%.2f", f.AppFee, f.DriverAmount)
}
