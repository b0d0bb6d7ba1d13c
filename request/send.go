package request

import (
	"context"
	"fmt"

	"github.com/kbukum/cloudreq/httpclient"
	"github.com/kbukum/cloudreq/logger"
	"github.com/kbukum/cloudreq/observability"
)

// Send performs a buffered call. An error status yields a *RequestError
// carrying the extracted message; otherwise the full response is returned.
// Transport errors are returned unchanged.
func (c *Client) Send(ctx context.Context, opts Options) (*httpclient.Response, error) {
	p, err := c.Prepare(ctx, opts)
	if err != nil {
		return nil, err
	}

	ctx, id := withRequestID(ctx)
	ctx, call := observability.StartCall(ctx, c.metrics, observability.KindSend, p.Method, p.URL)
	call.SetRequestID(id)
	log := c.log.WithContext(ctx)

	resp, err := c.transport.Do(ctx, p.Request())
	if err != nil {
		call.End(0, errorType(err), err)
		log.Debug("request failed", logger.ErrorFields(p.URL, err))
		return nil, err
	}

	if c.classify(resp.StatusCode) {
		reqErr := &RequestError{
			StatusCode: resp.StatusCode,
			Message:    c.extract(resp),
			Body:       resp.Body,
		}
		call.End(resp.StatusCode, errorType(reqErr), reqErr)
		log.Warn("request rejected", logger.Fields(
			logger.FieldMethod, p.Method,
			logger.FieldURL, p.URL,
			logger.FieldStatus, resp.StatusCode,
			logger.FieldError, reqErr.Message,
		))
		return nil, reqErr
	}

	call.End(resp.StatusCode, "", nil)
	log.Debug("request sent", logger.MergeWithDuration(logger.Fields(
		logger.FieldMethod, p.Method,
		logger.FieldURL, p.URL,
		logger.FieldStatus, resp.StatusCode,
		logger.FieldBytes, len(resp.Body),
	), call.Duration()))
	return resp, nil
}

// SendJSON performs Send and decodes the JSON body into out.
func (c *Client) SendJSON(ctx context.Context, opts Options, out any) error {
	resp, err := c.Send(ctx, opts)
	if err != nil {
		return err
	}
	if err := resp.Decode(out); err != nil {
		return fmt.Errorf("request: decode response: %w", err)
	}
	return nil
}
