package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestDefaultTracerConfig(t *testing.T) {
	cfg := DefaultTracerConfig("cloudreq")

	if cfg.ServiceName != "cloudreq" {
		t.Errorf("expected ServiceName 'cloudreq', got %s", cfg.ServiceName)
	}
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected Endpoint 'localhost:4318', got %s", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected SampleRate 1.0, got %f", cfg.SampleRate)
	}
}

func TestDefaultMeterConfig(t *testing.T) {
	cfg := DefaultMeterConfig("cloudreq")
	if cfg.Interval != 15*time.Second {
		t.Errorf("expected Interval 15s, got %v", cfg.Interval)
	}
}

func TestConfig(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cfg.Tracer("svc", "1.0").Endpoint; got != "localhost:4318" {
		t.Errorf("expected default endpoint, got %q", got)
	}
	if got := cfg.Meter("svc", "1.0").Interval; got != 15*time.Second {
		t.Errorf("expected default interval, got %v", got)
	}

	cfg.SampleRate = 2
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for sample rate above 1")
	}
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, sdktrace.AlwaysSample().Description()},
		{0, sdktrace.NeverSample().Description()},
		{0.5, sdktrace.TraceIDRatioBased(0.5).Description()},
	}
	for _, tc := range tests {
		if got := sampler(tc.rate).Description(); got != tc.want {
			t.Errorf("sampler(%v) = %s, want %s", tc.rate, got, tc.want)
		}
	}
}

func TestNewMetrics_Noop(t *testing.T) {
	metrics, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}

	ctx := context.Background()
	metrics.RecordRequestStart(ctx)
	metrics.RecordRequestEnd(ctx, KindSend, "GET", 200, 100*time.Millisecond)
	metrics.RecordError(ctx, "request", KindSend)
	metrics.RecordTokenRefresh(ctx, true)
}

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return sr
}

func TestCall_RecordsSpan(t *testing.T) {
	sr := withRecorder(t)

	_, call := StartCall(context.Background(), nil, KindStream, "GET", "https://api.example.com/files/1")
	call.SetRequestID("req-1")
	call.End(404, "request", errors.New("not found"))

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name() != SpanStream {
		t.Errorf("expected span name %s, got %s", SpanStream, span.Name())
	}
	if span.Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", span.Status().Code)
	}

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	if attrs[AttrStatusCode].AsInt64() != 404 {
		t.Errorf("expected status attribute 404, got %v", attrs[AttrStatusCode])
	}
	if attrs[AttrRequestID].AsString() != "req-1" {
		t.Errorf("expected request id attribute, got %v", attrs[AttrRequestID])
	}
	if attrs[AttrMethod].AsString() != "GET" {
		t.Errorf("expected method attribute, got %v", attrs[AttrMethod])
	}
}

func TestCall_RecordsMetrics(t *testing.T) {
	withRecorder(t)
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, call := StartCall(context.Background(), metrics, KindSend, "GET", "https://api.example.com/whoami")
	call.End(200, "", nil)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}

	found := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			found[m.Name] = true
			if m.Name == "cloudreq.request.total" {
				sum, ok := m.Data.(metricdata.Sum[int64])
				if !ok || len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 1 {
					t.Errorf("unexpected request.total data: %+v", m.Data)
				}
			}
		}
	}
	if !found["cloudreq.request.total"] || !found["cloudreq.request.duration"] {
		t.Errorf("expected request metrics, got %v", found)
	}
	if found["cloudreq.error.total"] {
		t.Error("no error should be recorded for a successful call")
	}
}
