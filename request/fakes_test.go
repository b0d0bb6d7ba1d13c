package request

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/kbukum/cloudreq/config"
	"github.com/kbukum/cloudreq/httpclient"
	"github.com/kbukum/cloudreq/logger"
)

const testAPIURL = "https://api.example.com/v1/"

// journal records collaborator calls in order.
type journal struct {
	mu     sync.Mutex
	events []string
}

func (j *journal) add(e string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, e)
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.events...)
}

type fakeStore struct {
	log       *journal
	due       bool
	dueErr    error
	token     string
	setErr    error
	setValues []string
}

func (s *fakeStore) ShouldUpdate(context.Context) (bool, error) {
	s.log.add("should_update")
	return s.due, s.dueErr
}

func (s *fakeStore) Set(_ context.Context, raw string) error {
	s.log.add("set " + raw)
	s.setValues = append(s.setValues, raw)
	if s.setErr != nil {
		return s.setErr
	}
	s.token = raw
	s.due = false
	return nil
}

func (s *fakeStore) AuthorizationHeader(context.Context) (string, bool, error) {
	s.log.add("authorization_header")
	if s.token == "" {
		return "", false, nil
	}
	return "Bearer " + s.token, true, nil
}

type fakeTransport struct {
	log      *journal
	mu       sync.Mutex
	requests []httpclient.Request
	ids      []string

	do       func(req httpclient.Request) (*httpclient.Response, error)
	doStream func(req httpclient.Request) (*httpclient.StreamResponse, error)
}

func (t *fakeTransport) record(ctx context.Context, kind string, req httpclient.Request) {
	t.mu.Lock()
	t.requests = append(t.requests, req)
	t.ids = append(t.ids, logger.RequestIDFromContext(ctx))
	t.mu.Unlock()
	if t.log != nil {
		t.log.add(kind + " " + req.Method + " " + req.URL)
	}
}

func (t *fakeTransport) Do(ctx context.Context, req httpclient.Request) (*httpclient.Response, error) {
	t.record(ctx, "do", req)
	if t.do == nil {
		return jsonResponse(http.StatusOK, `{}`), nil
	}
	return t.do(req)
}

func (t *fakeTransport) DoStream(ctx context.Context, req httpclient.Request) (*httpclient.StreamResponse, error) {
	t.record(ctx, "stream", req)
	return t.doStream(req)
}

func (t *fakeTransport) last() httpclient.Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.requests[len(t.requests)-1]
}

func jsonResponse(status int, body string) *httpclient.Response {
	return &httpclient.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       []byte(body),
	}
}

type trackedBody struct {
	io.Reader
	closed bool
}

func (b *trackedBody) Close() error {
	b.closed = true
	return nil
}

func streamResponse(status int, mime, body string, withLength bool) (*httpclient.StreamResponse, *trackedBody) {
	h := http.Header{}
	if mime != "" {
		h.Set("Content-Type", mime)
	}
	length := int64(-1)
	if withLength {
		length = int64(len(body))
		h.Set("Content-Length", strconv.Itoa(len(body)))
	}
	b := &trackedBody{Reader: strings.NewReader(body)}
	return &httpclient.StreamResponse{
		StatusCode:    status,
		Header:        h,
		ContentLength: length,
		Body:          b,
	}, b
}

func newTestClient(tr *fakeTransport, store *fakeStore, opts ...Option) *Client {
	opts = append([]Option{WithLogger(logger.Nop())}, opts...)
	return New(tr, config.StaticSettings{SettingAPIURL: testAPIURL}, store, opts...)
}
