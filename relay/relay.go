// Package relay implements the pass-through stream handed to streaming
// callers. A Relay owns the raw response body, forwards its bytes through an
// io.Pipe and re-emits two kinds of events: "progress" for every tracked
// chunk and "response" once the response headers are known. Callers never
// read the raw transport body directly.
package relay

import (
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/kbukum/cloudreq/httpclient"
	"github.com/kbukum/cloudreq/progress"
)

// Relay is an io.ReadCloser over a response body, annotated with the
// response's length and MIME type.
//
// Copying from the raw body starts on the first Read (or Drain), so
// listeners registered before reading observe every progress event.
// Progress listeners run on the copying goroutine.
type Relay struct {
	// Length is the parsed Content-Length, nil when missing or unparseable.
	Length *int64
	// Mime is the Content-Type header, verbatim.
	Mime string

	src io.ReadCloser
	pr  *io.PipeReader
	pw  *io.PipeWriter

	startOnce    sync.Once
	closeOnce    sync.Once
	srcCloseOnce sync.Once
	srcCloseErr  error

	mu         sync.Mutex
	onProgress []func(progress.State)
	onResponse []func(*httpclient.Response)
	response   *httpclient.Response
}

// New wraps src. total is the expected body size (-1 if unknown); every
// chunk read from src is counted, enriched by est and emitted as progress.
func New(src io.ReadCloser, total int64, est progress.Estimator, opts ...progress.ReaderOption) *Relay {
	r := &Relay{}
	r.pr, r.pw = io.Pipe()

	tracked := progress.NewReader(src, total, func(raw progress.RawState) {
		r.EmitProgress(est(raw))
	}, opts...)
	r.src = readCloser{Reader: tracked, Closer: src}
	return r
}

type readCloser struct {
	io.Reader
	io.Closer
}

// OnProgress registers a progress listener.
func (r *Relay) OnProgress(fn func(progress.State)) {
	r.mu.Lock()
	r.onProgress = append(r.onProgress, fn)
	r.mu.Unlock()
}

// OnResponse registers a response listener. The response event fires once;
// listeners registered after it are called immediately with the response.
func (r *Relay) OnResponse(fn func(*httpclient.Response)) {
	r.mu.Lock()
	resp := r.response
	if resp == nil {
		r.onResponse = append(r.onResponse, fn)
	}
	r.mu.Unlock()

	if resp != nil {
		fn(resp)
	}
}

// EmitProgress delivers st to every progress listener.
func (r *Relay) EmitProgress(st progress.State) {
	r.mu.Lock()
	fns := slices.Clone(r.onProgress)
	r.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}

// EmitResponse records resp and delivers it to every response listener.
func (r *Relay) EmitResponse(resp *httpclient.Response) {
	r.mu.Lock()
	r.response = resp
	fns := r.onResponse
	r.onResponse = nil
	r.mu.Unlock()

	for _, fn := range fns {
		fn(resp)
	}
}

// Response returns the emitted response metadata, or nil.
func (r *Relay) Response() *httpclient.Response {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.response
}

// Annotate sets Length and Mime from response headers.
func (r *Relay) Annotate(h http.Header) {
	r.Length = nil
	if n, ok := httpclient.ParseContentLength(h.Get("Content-Length")); ok {
		r.Length = &n
	}
	r.Mime = h.Get("Content-Type")
}

// Read implements io.Reader.
func (r *Relay) Read(p []byte) (int, error) {
	r.startOnce.Do(r.pump)
	return r.pr.Read(p)
}

// Drain reads the remaining body into memory and closes the relay.
func (r *Relay) Drain() (string, error) {
	defer r.Close()

	var sb strings.Builder
	_, err := io.Copy(&sb, r)
	return sb.String(), err
}

// Close stops the relay and releases the raw body. A pump blocked on a
// stalled body is unblocked by closing that body.
func (r *Relay) Close() error {
	var err error
	r.closeOnce.Do(func() {
		// Consume startOnce so a later Read cannot start a pump.
		r.startOnce.Do(func() {})
		_ = r.pr.Close()
		err = r.closeSrc()
	})
	return err
}

func (r *Relay) closeSrc() error {
	r.srcCloseOnce.Do(func() {
		r.srcCloseErr = r.src.Close()
	})
	return r.srcCloseErr
}

func (r *Relay) pump() {
	go func() {
		_, err := io.Copy(r.pw, r.src)
		_ = r.closeSrc()
		_ = r.pw.CloseWithError(err)
	}()
}
