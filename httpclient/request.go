package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// Request describes an outbound HTTP request with an absolute URL.
type Request struct {
	// Method is the HTTP method (GET, POST, PUT, PATCH, DELETE, etc).
	Method string
	// URL is the absolute target URL.
	URL string
	// Headers are request-specific headers (merged over client defaults).
	Headers map[string]string
	// Body is the request body. Accepts io.Reader, []byte, string, or any value
	// that will be JSON-encoded.
	Body any
	// Gzip asks the server for a compressed response and transparently
	// decompresses it. When false the request asks for identity encoding.
	Gzip bool
	// JSON marks the exchange as JSON: an Accept header is added and
	// structured bodies are sent as application/json.
	JSON bool
}

// Response is the result of a buffered HTTP request.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Header holds the response headers.
	Header http.Header
	// Body is the raw response body. It is nil for responses that were
	// reported before their body was read.
	Body []byte
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// Decode unmarshals a JSON body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("httpclient: empty response body")
	}
	return json.Unmarshal(r.Body, v)
}

// StreamResponse is a response whose body has not been read yet.
type StreamResponse struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Header holds the response headers.
	Header http.Header
	// ContentLength is the declared body size, or -1 when unknown.
	ContentLength int64
	// Body is the raw streaming body.
	Body io.ReadCloser
}

// Meta returns the status and headers as a body-less Response.
func (r *StreamResponse) Meta() *Response {
	return &Response{StatusCode: r.StatusCode, Header: r.Header}
}

// Close releases the underlying connection.
func (r *StreamResponse) Close() error {
	if r.Body != nil {
		return r.Body.Close()
	}
	return nil
}

// ParseContentLength parses a Content-Length header value. It returns false
// when the value is missing, malformed or negative.
func ParseContentLength(v string) (int64, bool) {
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
