package notesdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/notebook/pkg/httpx"
)

// Error codes carried in the "error" field of every error response.
const (
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeInvalidInput       = "invalid_input"
	ErrorCodeDuplicateEmail     = "duplicate_email"
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeUnauthorized       = "unauthorized"
	ErrorCodeForbidden          = "forbidden"
	ErrorCodeNotFound           = "not_found"
	ErrorCodeRateLimitExceeded  = "rate_limit_exceeded"
	ErrorCodeUnavailable        = "service_unavailable"
	ErrorCodeServerError        = "server_error"
)

// APIError is the error body returned by the API. The server writes it with
// WriteError; the client parses it back from non-2xx responses.
type APIError struct {
	StatusCode int `json:"-"`

	Code string `json:"error"`

	// Description is localized according to the request's Accept-Language.
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, e)
}

func NewAPIError(statusCode int, code, description string) *APIError {
	return &APIError{StatusCode: statusCode, Code: code, Description: description}
}

// IsCode reports whether err is an *APIError with the given code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

func parseErrorResponse(resp *http.Response, body []byte) error {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != "" {
		apiErr.StatusCode = resp.StatusCode
		return &apiErr
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
