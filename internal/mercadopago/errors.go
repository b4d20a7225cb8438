package mercadopago

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var ErrMissingAccessToken = errors.New("mercadopago access token is not configured")

// APIError is a non-2xx answer from the provider.
type APIError struct {
	StatusCode int
	// Message is the provider's own explanation, preferring the first cause.
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mercadopago: status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Body: body}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		switch {
		case len(eb.Cause) > 0 && eb.Cause[0].Description != "":
			apiErr.Message = eb.Cause[0].Description
		case eb.Message != "":
			apiErr.Message = eb.Message
		case eb.Error != "":
			apiErr.Message = eb.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
