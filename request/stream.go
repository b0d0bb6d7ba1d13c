package request

import (
	"context"

	"github.com/kbukum/cloudreq/logger"
	"github.com/kbukum/cloudreq/observability"
	"github.com/kbukum/cloudreq/relay"
)

// Stream performs a streaming call and returns once the response headers
// arrive. The returned relay is annotated with Length and Mime and must be
// closed by the caller.
//
// On an error status the body is drained completely; it becomes the error
// message when non-empty, otherwise the extractor runs on the headers alone.
func (c *Client) Stream(ctx context.Context, opts Options) (*relay.Relay, error) {
	p, err := c.Prepare(ctx, opts)
	if err != nil {
		return nil, err
	}

	ctx, id := withRequestID(ctx)
	ctx, call := observability.StartCall(ctx, c.metrics, observability.KindStream, p.Method, p.URL)
	call.SetRequestID(id)
	log := c.log.WithContext(ctx)

	sr, err := c.transport.DoStream(ctx, p.Request())
	if err != nil {
		call.End(0, errorType(err), err)
		log.Debug("stream failed", logger.ErrorFields(p.URL, err))
		return nil, err
	}

	r := relay.New(sr.Body, sr.ContentLength, c.newEstimator(), c.readerOpts...)
	if p.OnProgress != nil {
		r.OnProgress(p.OnProgress)
	}
	if p.OnResponse != nil {
		r.OnResponse(p.OnResponse)
	}

	meta := sr.Meta()
	r.EmitResponse(meta)

	if c.classify(sr.StatusCode) {
		body, drainErr := r.Drain()
		if drainErr != nil {
			log.Debug("error body drain failed", logger.ErrorFields(p.URL, drainErr))
		}
		message := body
		if message == "" {
			message = c.extract(meta)
		}
		reqErr := &RequestError{
			StatusCode: sr.StatusCode,
			Message:    message,
			Body:       []byte(body),
		}
		call.End(sr.StatusCode, errorType(reqErr), reqErr)
		log.Warn("stream rejected", logger.Fields(
			logger.FieldMethod, p.Method,
			logger.FieldURL, p.URL,
			logger.FieldStatus, sr.StatusCode,
			logger.FieldError, message,
		))
		return nil, reqErr
	}

	r.Annotate(sr.Header)
	call.End(sr.StatusCode, "", nil)

	fields := logger.Fields(
		logger.FieldMethod, p.Method,
		logger.FieldURL, p.URL,
		logger.FieldStatus, sr.StatusCode,
		logger.FieldMime, r.Mime,
	)
	if r.Length != nil {
		fields[logger.FieldBytes] = *r.Length
	}
	log.Debug("stream opened", logger.MergeWithDuration(fields, call.Duration()))
	return r, nil
}
