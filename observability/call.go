package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Request kinds recorded on spans and metrics.
const (
	KindSend   = "send"
	KindStream = "stream"
)

// Call tracks the span and metrics of one outgoing request.
// A nil Metrics skips metric recording.
type Call struct {
	Kind      string
	Method    string
	StartTime time.Time
	Metrics   *Metrics

	ctx  context.Context
	span trace.Span
}

// StartCall starts a client span for the request and records its start.
func StartCall(ctx context.Context, metrics *Metrics, kind, method, url string) (context.Context, *Call) {
	name := SpanSend
	if kind == KindStream {
		name = SpanStream
	}
	ctx, span := StartSpan(ctx, name, trace.WithAttributes(methodAttrs(method, url)...))

	if metrics != nil {
		metrics.RecordRequestStart(ctx)
	}
	return ctx, &Call{
		Kind:      kind,
		Method:    method,
		StartTime: time.Now(),
		Metrics:   metrics,
		ctx:       ctx,
		span:      span,
	}
}

// SetRequestID tags the span with the outgoing request ID.
func (c *Call) SetRequestID(id string) {
	if id != "" {
		c.span.SetAttributes(attribute.String(AttrRequestID, id))
	}
}

// End finishes the span. status is 0 when no response was received.
// errType classifies err for the error counter and is ignored when err is nil.
func (c *Call) End(status int, errType string, err error) {
	duration := c.Duration()

	if status > 0 {
		c.span.SetAttributes(attribute.Int(AttrStatusCode, status))
	}
	if err != nil {
		c.span.RecordError(err)
		c.span.SetAttributes(attribute.String(AttrError, err.Error()))
		c.span.SetStatus(codes.Error, errType)
	}
	c.span.SetAttributes(attribute.Int64(AttrDurationMs, duration.Milliseconds()))
	c.span.End()

	if c.Metrics == nil {
		return
	}
	c.Metrics.RecordRequestEnd(c.ctx, c.Kind, c.Method, status, duration)
	if err != nil {
		c.Metrics.RecordError(c.ctx, errType, c.Kind)
	}
}

// Duration returns the elapsed time since the call started.
func (c *Call) Duration() time.Duration {
	return time.Since(c.StartTime)
}
