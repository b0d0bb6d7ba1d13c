package request

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/kbukum/cloudreq/httpclient"
	"github.com/kbukum/cloudreq/logger"
)

func TestSend_Success(t *testing.T) {
	tr := &fakeTransport{do: func(httpclient.Request) (*httpclient.Response, error) {
		return jsonResponse(http.StatusOK, `{"a":1}`), nil
	}}
	c := newTestClient(tr, &fakeStore{log: &journal{}})

	resp, err := c.Send(context.Background(), Options{URL: "things"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK || string(resp.Body) != `{"a":1}` {
		t.Errorf("unexpected response %d %s", resp.StatusCode, resp.Body)
	}
	if resp.Header.Get("Content-Type") != "application/json" {
		t.Error("expected the full envelope including headers")
	}

	req := tr.last()
	if req.URL != "https://api.example.com/v1/things" || req.Method != http.MethodGet || !req.Gzip || !req.JSON {
		t.Errorf("unexpected transport request %+v", req)
	}
}

func TestSend_ErrorStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"error text", http.StatusNotFound, `{"error":{"text":"Device not found"}}`, "Device not found"},
		{"plain body", http.StatusBadRequest, "bad input", "bad input"},
		{"empty body", http.StatusInternalServerError, "", DefaultErrorMessage},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr := &fakeTransport{do: func(httpclient.Request) (*httpclient.Response, error) {
				return jsonResponse(tc.status, tc.body), nil
			}}
			c := newTestClient(tr, &fakeStore{log: &journal{}})

			resp, err := c.Send(context.Background(), Options{URL: "things"})
			if resp != nil {
				t.Error("expected no response on error status")
			}
			var reqErr *RequestError
			if !errors.As(err, &reqErr) {
				t.Fatalf("expected *RequestError, got %v", err)
			}
			if reqErr.StatusCode != tc.status || reqErr.Message != tc.message {
				t.Errorf("got %d %q, want %d %q", reqErr.StatusCode, reqErr.Message, tc.status, tc.message)
			}
			if err.Error() != tc.message {
				t.Errorf("Error() = %q", err.Error())
			}
		})
	}
}

func TestSend_CustomClassifierAndExtractor(t *testing.T) {
	tr := &fakeTransport{do: func(httpclient.Request) (*httpclient.Response, error) {
		return jsonResponse(http.StatusNotModified, ""), nil
	}}
	c := newTestClient(tr, &fakeStore{log: &journal{}},
		WithClassifier(func(status int) bool { return status >= 300 }),
		WithExtractor(func(resp *httpclient.Response) string { return "custom" }),
	)

	_, err := c.Send(context.Background(), Options{URL: "things"})
	if StatusCode(err) != http.StatusNotModified || err.Error() != "custom" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestSend_TransportErrorUnchanged(t *testing.T) {
	cause := httpclient.NewConnectionError(errors.New("connection refused"))
	tr := &fakeTransport{do: func(httpclient.Request) (*httpclient.Response, error) {
		return nil, cause
	}}
	c := newTestClient(tr, &fakeStore{log: &journal{}})

	_, err := c.Send(context.Background(), Options{URL: "things"})
	if err != cause {
		t.Fatalf("expected transport error unchanged, got %v", err)
	}
	if IsRequestError(err) {
		t.Error("transport errors are not request errors")
	}
}

func TestSend_RequestID(t *testing.T) {
	tr := &fakeTransport{}
	c := newTestClient(tr, &fakeStore{log: &journal{}})

	if _, err := c.Send(context.Background(), Options{URL: "a"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := logger.ContextWithRequestID(context.Background(), "req-42")
	if _, err := c.Send(ctx, Options{URL: "b"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tr.ids[0] == "" {
		t.Error("expected a generated request id")
	}
	if tr.ids[1] != "req-42" {
		t.Errorf("expected caller request id, got %q", tr.ids[1])
	}
}

func TestSendJSON(t *testing.T) {
	tr := &fakeTransport{do: func(httpclient.Request) (*httpclient.Response, error) {
		return jsonResponse(http.StatusOK, `{"username":"jviotti","id":7}`), nil
	}}
	c := newTestClient(tr, &fakeStore{log: &journal{}})

	var out struct {
		Username string `json:"username"`
		ID       int    `json:"id"`
	}
	if err := c.SendJSON(context.Background(), Options{URL: "whoami"}, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Username != "jviotti" || out.ID != 7 {
		t.Errorf("unexpected decode %+v", out)
	}

	tr.do = func(httpclient.Request) (*httpclient.Response, error) {
		return jsonResponse(http.StatusOK, `not json`), nil
	}
	if err := c.SendJSON(context.Background(), Options{URL: "whoami"}, &out); err == nil {
		t.Error("expected decode error")
	}
}

func TestErrorMessageFromResponse(t *testing.T) {
	tests := []struct {
		name string
		resp *httpclient.Response
		want string
	}{
		{"nil", nil, DefaultErrorMessage},
		{"empty", &httpclient.Response{}, DefaultErrorMessage},
		{"whitespace", &httpclient.Response{Body: []byte("  \n")}, DefaultErrorMessage},
		{"error text", &httpclient.Response{Body: []byte(`{"error":{"text":"Nope"}}`)}, "Nope"},
		{"error string", &httpclient.Response{Body: []byte(`{"error":"Nope"}`)}, "Nope"},
		{"message", &httpclient.Response{Body: []byte(`{"message":"Nope"}`)}, "Nope"},
		{"unknown json", &httpclient.Response{Body: []byte(`{"code":3}`)}, `{"code":3}`},
		{"plain", &httpclient.Response{Body: []byte("Nope\n")}, "Nope"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ErrorMessageFromResponse(tc.resp); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestIsErrorCode(t *testing.T) {
	for status, want := range map[int]bool{200: false, 204: false, 304: false, 399: false, 400: true, 404: true, 500: true} {
		if got := IsErrorCode(status); got != want {
			t.Errorf("IsErrorCode(%d) = %v", status, got)
		}
	}
}

func TestErrorHelpers(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &RequestError{StatusCode: http.StatusNotFound, Message: "x"})
	if !IsRequestError(err) || !IsNotFound(err) || IsUnauthorized(err) {
		t.Errorf("helpers failed for %v", err)
	}
	if StatusCode(errors.New("other")) != 0 {
		t.Error("expected 0 for foreign errors")
	}
}
