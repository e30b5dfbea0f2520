// Package client implements the HTTP client facade: one call per HTTP verb,
// each delegating to a single generic Request that merges per-call options
// over instance defaults, resolves the URL against the configured base, and
// hands every response to the active response handler strategy.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pulpprobe/pulpprobe/internal/common"
	"github.com/pulpprobe/pulpprobe/internal/config"
	"github.com/pulpprobe/pulpprobe/internal/handler"
	"github.com/pulpprobe/pulpprobe/internal/httpc"
)

// RequestOptions are the per-call overrides merged over the client's
// defaults. The merge is shallow: a non-nil Headers or Query map replaces
// the default map wholesale, it is never merged key-by-key.
type RequestOptions struct {
	Headers map[string]string
	Query   map[string]string
}

// Client drives HTTP verbs against a single configured server. Instances
// are cheap and single-goroutine: concurrent use of one Client is not a
// supported case.
type Client struct {
	cfg         *config.Config
	base        *url.URL
	http        *resty.Client
	handler     handler.Handler
	defaults    RequestOptions
	defaultBody map[string]any
}

// Option adjusts client construction.
type Option func(*Client)

// WithAuthHeader installs a pre-acquired credential header (e.g. a bearer
// token from an auth provider) instead of basic auth.
func WithAuthHeader(name, value string) Option {
	return func(c *Client) {
		if c.defaults.Headers == nil {
			c.defaults.Headers = map[string]string{}
		}
		c.defaults.Headers[name] = value
	}
}

// WithHTTPClient substitutes the underlying transport. Used by tests.
func WithHTTPClient(rc *resty.Client) Option {
	return func(c *Client) { c.http = rc }
}

// New builds a client from a settings snapshot and a response handler
// strategy. The config is cloned so the client's defaults cannot be mutated
// through the caller's copy, and vice versa.
func New(cfg *config.Config, h handler.Handler, opts ...Option) (*Client, error) {
	cfg = cfg.Clone()
	base, err := cfg.Base()
	if err != nil {
		return nil, err
	}

	hc := httpc.Httpc{
		TlsConfig: cfg.TLSConfig(),
		Username:  cfg.Username,
		Password:  cfg.Password,
	}
	rc := hc.New()
	if s := cfg.Request.Timeout; s != "" {
		if d, perr := time.ParseDuration(s); perr == nil && d > 0 {
			rc.SetTimeout(d)
		}
	}

	c := &Client{
		cfg:         cfg,
		base:        base,
		http:        rc,
		handler:     h,
		defaults:    RequestOptions{Headers: cfg.Request.Headers, Query: cfg.Request.Query},
		defaultBody: cfg.Request.Body,
	}
	for _, fn := range opts {
		fn(c)
	}
	return c, nil
}

// Config exposes the client's settings snapshot.
func (c *Client) Config() *config.Config { return c.cfg }

// Get issues a GET. Per HTTP semantics the bodyless verbs take no body
// parameter.
func (c *Client) Get(ctx context.Context, path string, opts ...RequestOptions) (any, error) {
	return c.Request(ctx, http.MethodGet, path, DefaultBody(), opts...)
}

// Head issues a HEAD.
func (c *Client) Head(ctx context.Context, path string, opts ...RequestOptions) (any, error) {
	return c.Request(ctx, http.MethodHead, path, DefaultBody(), opts...)
}

// Options issues an OPTIONS.
func (c *Client) Options(ctx context.Context, path string, opts ...RequestOptions) (any, error) {
	return c.Request(ctx, http.MethodOptions, path, DefaultBody(), opts...)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOptions) (any, error) {
	return c.Request(ctx, http.MethodDelete, path, DefaultBody(), opts...)
}

// Post issues a POST with the three-way body option.
func (c *Client) Post(ctx context.Context, path string, body Body, opts ...RequestOptions) (any, error) {
	return c.Request(ctx, http.MethodPost, path, body, opts...)
}

// Put issues a PUT with the three-way body option.
func (c *Client) Put(ctx context.Context, path string, body Body, opts ...RequestOptions) (any, error) {
	return c.Request(ctx, http.MethodPut, path, body, opts...)
}

// Patch issues a PATCH with the three-way body option.
func (c *Client) Patch(ctx context.Context, path string, body Body, opts ...RequestOptions) (any, error) {
	return c.Request(ctx, http.MethodPatch, path, body, opts...)
}

// Request sends exactly one HTTP request and returns whatever the active
// handler strategy decides. Handler and poller errors propagate unchanged;
// the facade adds no recovery of its own.
func (c *Client) Request(ctx context.Context, method, path string, body Body, opts ...RequestOptions) (any, error) {
	merged := c.merge(opts)
	target, err := c.resolve(path)
	if err != nil {
		return nil, err
	}

	req := c.http.R().SetContext(ctx).SetHeaders(merged.Headers).SetQueryParams(merged.Query)
	if payload, ok := body.resolve(c.defaultBody); ok {
		req.SetHeader("Content-Type", "application/json")
		req.SetBody(payload)
	}

	logger := common.GetLogger().WithComponent("client").WithRequest(method, target)
	logger.Debug("sending request")

	resp, err := c.send(req, method, target)
	if err != nil {
		logger.Error("request failed", "error", err)
		return nil, err
	}
	logger.Debug("received response", "status_code", resp.StatusCode())

	return c.handler.Handle(c.cfg, resp)
}

// merge builds the effective options for one call without touching the
// stored defaults. Call-site values win on collision; nested maps are
// replaced wholesale.
func (c *Client) merge(opts []RequestOptions) RequestOptions {
	merged := c.defaults
	for _, o := range opts {
		if o.Headers != nil {
			merged.Headers = o.Headers
		}
		if o.Query != nil {
			merged.Query = o.Query
		}
	}
	return merged
}

// resolve joins a possibly-relative path against the configured base URL
// using standard reference resolution. Absolute URLs pass through.
func (c *Client) resolve(path string) (string, error) {
	rel, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("client: invalid request url %q: %w", path, err)
	}
	return c.base.ResolveReference(rel).String(), nil
}

func (c *Client) send(req *resty.Request, method, target string) (*resty.Response, error) {
	switch method {
	case http.MethodGet:
		return req.Get(target)
	case http.MethodHead:
		return req.Head(target)
	case http.MethodOptions:
		return req.Options(target)
	case http.MethodDelete:
		return req.Delete(target)
	case http.MethodPost:
		return req.Post(target)
	case http.MethodPut:
		return req.Put(target)
	case http.MethodPatch:
		return req.Patch(target)
	default:
		return nil, fmt.Errorf("client: unsupported method: %s", method)
	}
}
