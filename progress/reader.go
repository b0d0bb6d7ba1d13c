package progress

import (
	"io"
	"time"
)

const defaultInterval = 250 * time.Millisecond

// RawState is the byte count reported by Reader for every emitted chunk.
type RawState struct {
	// Received is the number of bytes read so far.
	Received int64
	// Total is the expected body size, or -1 when unknown.
	Total int64
}

// Reader is an io.Reader decorator that reports download progress.
//
// Events are throttled to one per interval, except that the first chunk
// and end of stream are always reported.
type Reader struct {
	r          io.Reader
	total      int64
	received   int64
	onProgress func(RawState)

	interval time.Duration
	now      func() time.Time
	last     time.Time
	emitted  bool
	reported int64
	finished bool
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithInterval sets the minimum time between two progress events.
func WithInterval(d time.Duration) ReaderOption {
	return func(r *Reader) { r.interval = d }
}

// WithReaderClock overrides the time source (tests).
func WithReaderClock(now func() time.Time) ReaderOption {
	return func(r *Reader) { r.now = now }
}

// NewReader wraps r. total is the expected size in bytes, or -1 if unknown.
func NewReader(r io.Reader, total int64, fn func(RawState), opts ...ReaderOption) *Reader {
	pr := &Reader{
		r:          r,
		total:      total,
		onProgress: fn,
		interval:   defaultInterval,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(pr)
	}
	return pr
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	r.received += int64(n)

	if n > 0 {
		t := r.now()
		if !r.emitted || t.Sub(r.last) >= r.interval {
			r.last = t
			r.emit()
		}
	}
	if err == io.EOF && !r.finished {
		r.finished = true
		if !r.emitted || r.reported != r.received {
			r.emit()
		}
	}
	return n, err
}

// Received returns the number of bytes read so far.
func (r *Reader) Received() int64 {
	return r.received
}

func (r *Reader) emit() {
	r.emitted = true
	r.reported = r.received
	if r.onProgress != nil {
		r.onProgress(RawState{Received: r.received, Total: r.total})
	}
}
