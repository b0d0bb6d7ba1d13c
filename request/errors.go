package request

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/kbukum/cloudreq/httpclient"
)

// DefaultErrorMessage is reported when an error response has no body.
const DefaultErrorMessage = "The request was unsuccessful"

// RequestError is returned when the API answers with an error status.
type RequestError struct {
	StatusCode int
	Message    string
	// Body is the raw error body, when one was received.
	Body []byte
}

func (e *RequestError) Error() string {
	return e.Message
}

// IsRequestError reports whether err wraps a *RequestError.
func IsRequestError(err error) bool {
	var re *RequestError
	return errors.As(err, &re)
}

// StatusCode returns the API status carried by err, or 0 if err is not a
// *RequestError.
func StatusCode(err error) int {
	var re *RequestError
	if errors.As(err, &re) {
		return re.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// Classifier decides whether a status code is an error.
type Classifier func(status int) bool

// Extractor derives a human-readable message from an error response.
type Extractor func(resp *httpclient.Response) string

// IsErrorCode classifies every 4xx and 5xx status as an error.
func IsErrorCode(status int) bool {
	return status >= 400
}

type errorBody struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
}

// ErrorMessageFromResponse extracts the message of an error response. It
// understands {"error": {"text": ...}}, {"error": "..."} and
// {"message": "..."} bodies and falls back to the body text itself.
func ErrorMessageFromResponse(resp *httpclient.Response) string {
	if resp == nil {
		return DefaultErrorMessage
	}
	text := strings.TrimSpace(string(resp.Body))
	if text == "" {
		return DefaultErrorMessage
	}

	var body errorBody
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return text
	}

	if len(body.Error) > 0 {
		var detail struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(body.Error, &detail); err == nil && detail.Text != "" {
			return detail.Text
		}
		var msg string
		if err := json.Unmarshal(body.Error, &msg); err == nil && msg != "" {
			return msg
		}
	}
	if body.Message != "" {
		return body.Message
	}
	return text
}
