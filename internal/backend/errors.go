package backend

import (
	"errors"
	"fmt"
)

// ErrNoCode means no unused redemption code exists for the (customer, reward)
// pair. It is a normal branch of the redemption flow, not a failure.
var ErrNoCode = errors.New("no outstanding redemption code")

// Validation codes the backend rejects issuance with. Passed through to the
// caller verbatim, never retried.
const (
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeInvalidPoints       = "INVALID_POINTS"
)

// APIError is a structured rejection from the loyalty backend.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend rejected request: %s (%s)", e.Message, e.Code)
	}
	return fmt.Sprintf("backend rejected request: %s", e.Message)
}

// AsAPIError unwraps err into an *APIError if it is one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// ErrUnknownEnvelope is returned when the catalog endpoint answers with a
// shape none of the recognized envelopes match. Unrecognized payloads are a
// decode error, never an empty catalog.
var ErrUnknownEnvelope = errors.New("unrecognized catalog response envelope")
