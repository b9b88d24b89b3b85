package backend

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// DefaultErrorText is shown when a failure carries no message from the backend.
const DefaultErrorText = "Error occurred"

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	// Message is the backend's "error" field, if the body had one.
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend returned %d", e.StatusCode)
}

func newAPIError(status int, body []byte) *APIError {
	e := &APIError{StatusCode: status}
	if gjson.ValidBytes(body) {
		if msg := gjson.GetBytes(body, "error"); msg.Type == gjson.String {
			e.Message = msg.String()
		}
	}
	return e
}

// ErrorText returns the text to show a user for err: the backend's own
// message when there is one, DefaultErrorText otherwise.
func ErrorText(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return DefaultErrorText
}
