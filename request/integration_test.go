package request

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/cloudreq/apitest"
	"github.com/kbukum/cloudreq/config"
	"github.com/kbukum/cloudreq/httpclient"
	"github.com/kbukum/cloudreq/logger"
	"github.com/kbukum/cloudreq/progress"
	"github.com/kbukum/cloudreq/token"
)

type harness struct {
	srv    *apitest.Server
	tokens *token.Manager
	client *Client
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)

	transport, err := httpclient.New(httpclient.Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tokens := token.NewManager(token.NewMemoryBackend())
	settings := config.StaticSettings{SettingAPIURL: srv.URL + "/v1/"}

	return &harness{
		srv:    srv,
		tokens: tokens,
		client: New(transport, settings, tokens, WithLogger(logger.Nop())),
	}
}

func (h *harness) login(t *testing.T, issuedAt time.Time) string {
	t.Helper()
	tok := h.srv.IssueToken(issuedAt)
	if err := h.tokens.Set(context.Background(), tok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return tok
}

func TestIntegration_FreshTokenIsSent(t *testing.T) {
	h := newHarness(t)
	tok := h.login(t, time.Now())

	resp, err := h.client.Send(context.Background(), Options{URL: "echo"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	if n := len(h.srv.CallsTo("/whoami")); n != 0 {
		t.Errorf("fresh token should not be refreshed, got %d whoami calls", n)
	}
	calls := h.srv.CallsTo("/v1/echo")
	if len(calls) != 1 || calls[0].Authorization != "Bearer "+tok {
		t.Errorf("unexpected calls %+v", calls)
	}
	if calls[0].RequestID == "" {
		t.Error("expected a request id on the wire")
	}
}

func TestIntegration_StaleTokenRefreshedOnce(t *testing.T) {
	h := newHarness(t)
	stale := h.login(t, time.Now().Add(-2*time.Hour))

	if _, err := h.client.Send(context.Background(), Options{URL: "echo"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calls := h.srv.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected whoami then echo, got %+v", calls)
	}
	if calls[0].Path != "/whoami" || calls[1].Path != "/v1/echo" {
		t.Errorf("unexpected order %s, %s", calls[0].Path, calls[1].Path)
	}
	if calls[0].Authorization != "" {
		t.Errorf("whoami must be anonymous, got %q", calls[0].Authorization)
	}

	fresh, err := h.tokens.Get(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fresh == stale {
		t.Error("expected the stored token to be replaced")
	}
	if calls[1].Authorization != "Bearer "+fresh {
		t.Errorf("expected refreshed token on the wire, got %q", calls[1].Authorization)
	}

	h.srv.Reset()
	if _, err := h.client.Send(context.Background(), Options{URL: "echo"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(h.srv.CallsTo("/whoami")); n != 0 {
		t.Errorf("refreshed token should not be refreshed again, got %d", n)
	}
}

func TestIntegration_RefreshFailureStopsRequest(t *testing.T) {
	h := newHarness(t)
	h.login(t, time.Now().Add(-2*time.Hour))
	h.srv.FailWhoami(1)

	_, err := h.client.Send(context.Background(), Options{URL: "echo"})
	if StatusCode(err) != http.StatusInternalServerError {
		t.Fatalf("expected 500 request error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Token service unavailable") {
		t.Errorf("unexpected message %q", err.Error())
	}
	if n := len(h.srv.CallsTo("/v1/echo")); n != 0 {
		t.Errorf("main request must not be sent, got %d", n)
	}
}

func TestIntegration_Unauthorized(t *testing.T) {
	h := newHarness(t)

	_, err := h.client.Send(context.Background(), Options{URL: "echo"})
	if !IsUnauthorized(err) {
		t.Fatalf("expected 401, got %v", err)
	}
	if err.Error() != "Authentication required" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestIntegration_ErrorStatuses(t *testing.T) {
	h := newHarness(t)

	_, err := h.client.Send(context.Background(), Options{URL: "/status/404?text=Device+not+found", RefreshToken: Bool(false)})
	if !IsNotFound(err) || err.Error() != "Device not found" {
		t.Errorf("unexpected error %v", err)
	}

	_, err = h.client.Send(context.Background(), Options{URL: "/status/503", RefreshToken: Bool(false)})
	if StatusCode(err) != http.StatusServiceUnavailable || err.Error() != DefaultErrorMessage {
		t.Errorf("unexpected error %v", err)
	}
}

func TestIntegration_PostJSON(t *testing.T) {
	h := newHarness(t)
	h.login(t, time.Now())

	var echo struct {
		Method  string            `json:"method"`
		Headers map[string]string `json:"headers"`
		Body    string            `json:"body"`
	}
	err := h.client.SendJSON(context.Background(), Options{
		Method: http.MethodPost,
		URL:    "echo",
		Body:   map[string]string{"name": "rpi"},
	}, &echo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if echo.Method != http.MethodPost || echo.Body != `{"name":"rpi"}` {
		t.Errorf("unexpected echo %+v", echo)
	}
	if echo.Headers["Content-Type"] != "application/json" {
		t.Errorf("expected JSON content type, got %q", echo.Headers["Content-Type"])
	}
}

func TestIntegration_Download(t *testing.T) {
	h := newHarness(t)
	h.login(t, time.Now())
	payload := bytes.Repeat([]byte{0x50, 0x4b}, 512)
	h.srv.AddFile("image.zip", "application/zip", payload)

	var last progress.State
	events := 0
	stream, err := h.client.Stream(context.Background(), Options{
		URL: "files/image.zip",
		OnProgress: func(s progress.State) {
			events++
			last = s
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer stream.Close()

	if stream.Length == nil || *stream.Length != 1024 {
		t.Errorf("expected Length 1024, got %v", stream.Length)
	}
	if stream.Mime != "application/zip" {
		t.Errorf("expected application/zip, got %q", stream.Mime)
	}

	got, err := io.ReadAll(stream)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("payload mismatch: %d bytes", len(got))
	}
	if events == 0 || last.Percent != 100 || last.Received != 1024 {
		t.Errorf("unexpected progress: %d events, last %+v", events, last)
	}
}

func TestIntegration_DownloadUnknownLength(t *testing.T) {
	h := newHarness(t)
	h.login(t, time.Now())
	h.srv.AddFile("log.txt", "text/plain", bytes.Repeat([]byte("line\n"), 1000))

	stream, err := h.client.Stream(context.Background(), Options{URL: "files/log.txt?chunked=1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer stream.Close()

	if stream.Length != nil {
		t.Errorf("expected unknown length, got %d", *stream.Length)
	}
	got, err := io.ReadAll(stream)
	if err != nil || len(got) != 5000 {
		t.Errorf("read %d bytes, err %v", len(got), err)
	}
}

func TestIntegration_DownloadError(t *testing.T) {
	h := newHarness(t)
	h.login(t, time.Now())

	stream, err := h.client.Stream(context.Background(), Options{URL: "files/missing.zip"})
	if stream != nil {
		t.Error("expected no stream")
	}
	if !IsNotFound(err) {
		t.Fatalf("expected 404, got %v", err)
	}
	if err.Error() != "File not found: missing.zip" {
		t.Errorf("expected drained body as message, got %q", err.Error())
	}

	_, err = h.client.Stream(context.Background(), Options{URL: "/status/500", RefreshToken: Bool(false)})
	if StatusCode(err) != http.StatusInternalServerError || err.Error() != DefaultErrorMessage {
		t.Errorf("unexpected error %v", err)
	}
}
