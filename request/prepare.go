package request

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Prepare merges opts over the client defaults, resolves the URL and, unless
// RefreshToken is false, refreshes the token when due and sets the
// Authorization header. opts is never modified.
func (c *Client) Prepare(ctx context.Context, opts Options) (*Prepared, error) {
	p := c.defaults.merge(opts)

	u, err := c.resolve(p.URL)
	if err != nil {
		return nil, err
	}
	p.URL = u

	if !p.RefreshToken || c.tokens == nil {
		return p, nil
	}

	// Refresh failures reach the caller as-is.
	due, err := c.tokens.ShouldUpdate(ctx)
	if err != nil {
		return nil, err
	}
	if due {
		if err := c.refreshToken(ctx); err != nil {
			return nil, err
		}
	}

	value, ok, err := c.tokens.AuthorizationHeader(ctx)
	if err != nil {
		return nil, fmt.Errorf("request: authorization header: %w", err)
	}
	if ok {
		p.Headers[HeaderAuthorization] = value
	}
	return p, nil
}

// resolve applies standard reference resolution of ref against api_url.
func (c *Client) resolve(ref string) (string, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("request: invalid url %q: %w", ref, err)
	}

	base := c.settings.Get(SettingAPIURL)
	if base == "" {
		if !r.IsAbs() {
			return "", fmt.Errorf("request: cannot resolve %q: %s is not set", ref, SettingAPIURL)
		}
		return r.String(), nil
	}

	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("request: invalid %s %q: %w", SettingAPIURL, base, err)
	}

	resolved := b.ResolveReference(r)
	if !resolved.IsAbs() {
		return "", fmt.Errorf("request: %q does not resolve to an absolute url", ref)
	}
	return resolved.String(), nil
}

// refreshToken fetches a fresh token anonymously and hands it to the store.
func (c *Client) refreshToken(ctx context.Context) error {
	resp, err := c.Send(ctx, Options{
		Method:       http.MethodGet,
		URL:          c.whoami(),
		RefreshToken: Bool(false),
	})
	if c.metrics != nil {
		c.metrics.RecordTokenRefresh(ctx, err == nil)
	}
	if err != nil {
		c.log.WithContext(ctx).Warn("token refresh failed", map[string]interface{}{"error": err.Error()})
		return err
	}
	return c.tokens.Set(ctx, tokenFromBody(resp.Body))
}

// tokenFromBody accepts a JSON string body or the raw token text.
func tokenFromBody(body []byte) string {
	var s string
	if err := json.Unmarshal(body, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(body))
}
