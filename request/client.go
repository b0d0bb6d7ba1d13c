package request

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/cloudreq/httpclient"
	"github.com/kbukum/cloudreq/logger"
	"github.com/kbukum/cloudreq/observability"
	"github.com/kbukum/cloudreq/progress"
	"github.com/kbukum/cloudreq/token"
)

// Setting keys consulted on every call.
const (
	SettingAPIURL     = "api_url"
	SettingWhoamiPath = "whoami_path"
)

const defaultWhoamiPath = "/whoami"

// Transport performs HTTP exchanges. Error statuses are not errors at this
// level. *httpclient.Client implements it.
type Transport interface {
	Do(ctx context.Context, req httpclient.Request) (*httpclient.Response, error)
	DoStream(ctx context.Context, req httpclient.Request) (*httpclient.StreamResponse, error)
}

// Settings looks up configuration values by key.
type Settings interface {
	Get(key string) string
}

// Client sends authenticated requests to the cloud API.
// It is safe for concurrent use.
type Client struct {
	transport Transport
	settings  Settings
	tokens    token.Store

	defaults     Defaults
	classify     Classifier
	extract      Extractor
	newEstimator func() progress.Estimator
	readerOpts   []progress.ReaderOption
	whoamiPath   string

	log     *logger.Logger
	metrics *observability.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithDefaults replaces the values unset Options fall back to.
func WithDefaults(d Defaults) Option {
	return func(c *Client) {
		headers := make(map[string]string, len(d.Headers))
		for k, v := range d.Headers {
			headers[k] = v
		}
		d.Headers = headers
		c.defaults = d
	}
}

// WithClassifier replaces IsErrorCode.
func WithClassifier(fn Classifier) Option {
	return func(c *Client) { c.classify = fn }
}

// WithExtractor replaces ErrorMessageFromResponse.
func WithExtractor(fn Extractor) Option {
	return func(c *Client) { c.extract = fn }
}

// WithEstimator sets the factory called once per stream for a fresh
// progress estimator.
func WithEstimator(factory func() progress.Estimator) Option {
	return func(c *Client) { c.newEstimator = factory }
}

// WithProgressInterval throttles stream progress events.
func WithProgressInterval(d time.Duration) Option {
	return func(c *Client) {
		c.readerOpts = append(c.readerOpts, progress.WithInterval(d))
	}
}

// WithWhoamiPath overrides the token refresh endpoint. Without it the
// whoami_path setting is used, then "/whoami".
func WithWhoamiPath(path string) Option {
	return func(c *Client) { c.whoamiPath = path }
}

// WithLogger sets the logger. Defaults to the global logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithMetrics records request metrics on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a Client. tokens may be nil for an API without authentication.
func New(transport Transport, settings Settings, tokens token.Store, opts ...Option) *Client {
	c := &Client{
		transport: transport,
		settings:  settings,
		tokens:    tokens,
		defaults:  StandardDefaults(),
		classify:  IsErrorCode,
		extract:   ErrorMessageFromResponse,
		newEstimator: func() progress.Estimator {
			return progress.NewEstimator()
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.WithComponent("request")
	}
	return c
}

// Defaults returns a copy of the client's defaults.
func (c *Client) Defaults() Defaults {
	d := c.defaults
	d.Headers = make(map[string]string, len(c.defaults.Headers))
	for k, v := range c.defaults.Headers {
		d.Headers[k] = v
	}
	return d
}

func (c *Client) whoami() string {
	if c.whoamiPath != "" {
		return c.whoamiPath
	}
	if p := c.settings.Get(SettingWhoamiPath); p != "" {
		return p
	}
	return defaultWhoamiPath
}

// withRequestID makes sure ctx carries an ID for the outgoing request.
func withRequestID(ctx context.Context) (context.Context, string) {
	if id := logger.RequestIDFromContext(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return logger.ContextWithRequestID(ctx, id), id
}

func errorType(err error) string {
	switch {
	case IsRequestError(err):
		return "request"
	case httpclient.IsTimeout(err):
		return "timeout"
	case httpclient.IsConnection(err):
		return "connection"
	case httpclient.IsValidation(err):
		return "validation"
	default:
		return "transport"
	}
}
