package progress

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"testing/iotest"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestReader_ReportsFirstChunkAndEOF(t *testing.T) {
	body := strings.Repeat("x", 1024)
	var events []RawState

	r := NewReader(iotest.OneByteReader(strings.NewReader(body)), 1024, func(s RawState) {
		events = append(events, s)
	}, WithInterval(time.Hour))

	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data) != 1024 {
		t.Fatalf("expected 1024 bytes, got %d", len(data))
	}
	if len(events) != 2 {
		t.Fatalf("expected first-chunk and EOF events, got %d", len(events))
	}
	if events[0].Received != 1 || events[0].Total != 1024 {
		t.Errorf("unexpected first event: %+v", events[0])
	}
	if events[1].Received != 1024 {
		t.Errorf("expected final event at 1024, got %+v", events[1])
	}
}

func TestReader_Throttles(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	var events []RawState
	r := NewReader(bytes.NewReader(make([]byte, 4)), 4, func(s RawState) {
		events = append(events, s)
	}, WithInterval(time.Second), WithReaderClock(clock.now))

	buf := make([]byte, 1)
	for i := 0; i < 4; i++ {
		if _, err := r.Read(buf); err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		clock.advance(600 * time.Millisecond)
	}
	// reads at 0s, 0.6s, 1.2s, 1.8s: events at 0s and 1.2s only
	if len(events) != 2 {
		t.Fatalf("expected 2 throttled events, got %d: %+v", len(events), events)
	}
	if _, err := r.Read(buf); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
	if len(events) != 3 || events[2].Received != 4 {
		t.Errorf("expected final event at EOF, got %+v", events)
	}
}

func TestReader_EmptyBodyEmitsOnce(t *testing.T) {
	count := 0
	r := NewReader(strings.NewReader(""), 0, func(RawState) { count++ })
	if _, err := io.ReadAll(r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.Read(make([]byte, 1)); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
	if count != 1 {
		t.Errorf("expected exactly one event, got %d", count)
	}
}

func TestReader_NilCallback(t *testing.T) {
	r := NewReader(strings.NewReader("abc"), -1, nil)
	data, err := io.ReadAll(r)
	if err != nil || string(data) != "abc" {
		t.Fatalf("got %q, %v", data, err)
	}
	if r.Received() != 3 {
		t.Errorf("expected 3 received, got %d", r.Received())
	}
}
