package request

import (
	"net/http"

	"github.com/kbukum/cloudreq/httpclient"
	"github.com/kbukum/cloudreq/progress"
)

// HeaderAuthorization carries the bearer token.
const HeaderAuthorization = "Authorization"

// Options describes one API call. Unset fields take the client's Defaults;
// pointer booleans tell "unset" apart from an explicit false.
type Options struct {
	Method string
	// URL is resolved against api_url. Absolute URLs are used as given.
	URL     string
	Body    any
	Headers map[string]string

	// RefreshToken controls the token refresh and Authorization header.
	RefreshToken *bool
	Gzip         *bool
	JSON         *bool

	// OnProgress and OnResponse are registered on the stream before any
	// event fires. Send ignores them.
	OnProgress func(progress.State)
	OnResponse func(*httpclient.Response)
}

// Bool returns a pointer to b, for Options fields.
func Bool(b bool) *bool {
	return &b
}

// Defaults is the immutable set of values Options fall back to.
type Defaults struct {
	Method       string
	Gzip         bool
	JSON         bool
	RefreshToken bool
	Headers      map[string]string
}

// StandardDefaults returns GET with gzip, JSON and token refresh enabled.
func StandardDefaults() Defaults {
	return Defaults{
		Method:       http.MethodGet,
		Gzip:         true,
		JSON:         true,
		RefreshToken: true,
		Headers:      map[string]string{},
	}
}

// Prepared is a fully populated call ready for the transport.
// URL is always absolute.
type Prepared struct {
	Method       string
	URL          string
	Body         any
	Headers      map[string]string
	Gzip         bool
	JSON         bool
	RefreshToken bool

	OnProgress func(progress.State)
	OnResponse func(*httpclient.Response)
}

// Request converts p into a transport request.
func (p *Prepared) Request() httpclient.Request {
	return httpclient.Request{
		Method:  p.Method,
		URL:     p.URL,
		Headers: p.Headers,
		Body:    p.Body,
		Gzip:    p.Gzip,
		JSON:    p.JSON,
	}
}

// merge overlays o on d. Header maps are copied so neither d nor o is
// ever written to.
func (d Defaults) merge(o Options) *Prepared {
	p := &Prepared{
		Method:       d.Method,
		URL:          o.URL,
		Body:         o.Body,
		Gzip:         d.Gzip,
		JSON:         d.JSON,
		RefreshToken: d.RefreshToken,
		OnProgress:   o.OnProgress,
		OnResponse:   o.OnResponse,
	}
	if o.Method != "" {
		p.Method = o.Method
	}
	if o.Gzip != nil {
		p.Gzip = *o.Gzip
	}
	if o.JSON != nil {
		p.JSON = *o.JSON
	}
	if o.RefreshToken != nil {
		p.RefreshToken = *o.RefreshToken
	}

	p.Headers = make(map[string]string, len(d.Headers)+len(o.Headers)+1)
	for k, v := range d.Headers {
		p.Headers[k] = v
	}
	for k, v := range o.Headers {
		p.Headers[k] = v
	}
	return p
}
