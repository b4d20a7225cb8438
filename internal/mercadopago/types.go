package mercadopago

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// PaymentRequest is the body of POST /v1/payments.
type PaymentRequest struct {
	TransactionAmount float64 `json:"transaction_amount"`
	Description       string  `json:"description,omitempty"`
	PaymentMethodID   string  `json:"payment_method_id"`
	ExternalReference string  `json:"external_reference"`
	Payer             Payer   `json:"payer"`
	Token             string  `json:"token,omitempty"`
	Installments      int     `json:"installments,omitempty"`
	IssuerID          *int64  `json:"issuer_id,omitempty"`
}

type Payer struct {
	Email          string          `json:"email"`
	FirstName      string          `json:"first_name,omitempty"`
	Identification *Identification `json:"identification,omitempty"`
}

type Identification struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

// Payment is the subset of the provider payment object this service reads.
// Raw keeps the full body so callers can pass it through untouched.
type Payment struct {
	ID                ID      `json:"id"`
	Status            string  `json:"status"`
	StatusDetail      string  `json:"status_detail"`
	ExternalReference string  `json:"external_reference"`
	TransactionAmount float64 `json:"transaction_amount"`
	PaymentMethodID   string  `json:"payment_method_id"`
	Payer             struct {
		Email string `json:"email"`
	} `json:"payer"`

	Raw json.RawMessage `json:"-"`
}

type Refund struct {
	ID     ID      `json:"id"`
	Status string  `json:"status"`
	Amount float64 `json:"amount"`

	Raw json.RawMessage `json:"-"`
}

// ID is a provider identifier. The API sends numbers; notifications
// sometimes carry them as strings.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", string(data), err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// MarshalJSON writes numeric ids back as numbers.
func (id ID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Status  int    `json:"status"`
	Cause   []struct {
		Code        json.RawMessage `json:"code"`
		Description string          `json:"description"`
	} `json:"cause"`
}
