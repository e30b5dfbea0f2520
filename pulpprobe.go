package pulpprobe

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/pulpprobe/pulpprobe/internal/auth"
	"github.com/pulpprobe/pulpprobe/internal/client"
	"github.com/pulpprobe/pulpprobe/internal/config"
	"github.com/pulpprobe/pulpprobe/internal/handler"
	"github.com/pulpprobe/pulpprobe/internal/selectors"
	"github.com/pulpprobe/pulpprobe/internal/shell"
	"github.com/pulpprobe/pulpprobe/internal/store"
	"github.com/pulpprobe/pulpprobe/internal/tasks"
	"github.com/tidwall/gjson"
)

// Re-export commonly used types for the public API

// Config is the per-process settings snapshot consumed by clients.
type Config = config.Config

// ConfigCache is the explicit process-scoped settings cache.
type ConfigCache = config.Cache

// AuthConfig is one entry of the settings file's auth section.
type AuthConfig = config.AuthConfig

// Client is the HTTP client facade.
type Client = client.Client

// RequestOptions are per-call overrides shallow-merged over client defaults.
type RequestOptions = client.RequestOptions

// Body is the three-way request body option for POST/PUT/PATCH.
type Body = client.Body

// Handler is the response handler strategy interface.
type Handler = handler.Handler

// HTTPError reports a 4xx/5xx response on a Safe or JSON call.
type HTTPError = handler.HTTPError

// TaskFailedError reports a task that ended in a failure state.
type TaskFailedError = tasks.TaskFailedError

// TaskStream yields terminal task bodies in spawned-task order.
type TaskStream = tasks.TaskStream

// CallReport is the body of a Pulp-2 style HTTP 202 response.
type CallReport = tasks.CallReport

// BugCache memoizes bug tracker lookups for test selection.
type BugCache = selectors.BugCache

// SkipError tells a suite to skip a test instead of failing it.
type SkipError = selectors.SkipError

// ShellClient runs commands locally or over SSH.
type ShellClient = shell.Client

// Store persists task poll outcomes.
type Store = store.Store

// LoadConfig reads settings from path, or the XDG search path when empty.
func LoadConfig(path string) (*Config, error) { return config.Load(path) }

// NewConfigCache builds a process-scoped settings cache.
func NewConfigCache(path string) *ConfigCache { return config.NewCache(path) }

// Handler strategy constructors.

// EchoHandler returns responses unchanged.
func EchoHandler() Handler { return handler.Echo{} }

// SafeHandler errors on 4xx/5xx and waits out spawned tasks on 202.
func SafeHandler(opts ...tasks.Option) Handler { return handler.NewSafe(opts...) }

// JSONHandler is SafeHandler plus body decoding.
func JSONHandler(opts ...tasks.Option) Handler { return handler.NewJSON(opts...) }

// NewClient builds an HTTP client facade for cfg with the given handler
// strategy. When the settings carry an auth section, the first provider's
// credential is acquired and installed as a default header.
func NewClient(ctx context.Context, cfg *Config, h Handler) (*Client, error) {
	var opts []client.Option
	if len(cfg.Auth) > 0 {
		a := cfg.Auth[0]
		m, err := auth.New(a.Type, a.Config)
		if err != nil {
			return nil, err
		}
		name, value, err := m.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, client.WithAuthHeader(name, value))
	}
	return client.New(cfg, h, opts...)
}

// Body helpers.

// DefaultBody defers to the client's configured default body.
func DefaultBody() Body { return client.DefaultBody() }

// NoBody suppresses the client's default body for one call.
func NoBody() Body { return client.NoBody() }

// JSONBody sends v serialized as JSON.
func JSONBody(v any) Body { return client.JSONBody(v) }

// Task polling.

// PollSpawnedTasks builds the lazy stream of terminal task bodies for a
// Pulp-2 call report.
func PollSpawnedTasks(cfg *Config, report *CallReport, opts ...tasks.Option) *TaskStream {
	return tasks.PollSpawnedTasks(cfg, report, opts...)
}

// MonitorTask polls a Pulp-3 task href to completion and returns its
// created resources.
func MonitorTask(ctx context.Context, cfg *Config, href string, opts ...tasks.Option) ([]string, error) {
	return tasks.MonitorTask(ctx, cfg, href, opts...)
}

// Selectors.

// NewBugCache builds the bug-status cache for cfg's tracker.
func NewBugCache(cfg *Config) *BugCache { return selectors.NewBugCache(cfg) }

// RequireVersion returns a *SkipError when cfg's server does not satisfy
// the semver constraint.
func RequireVersion(cfg *Config, constraint string) error {
	return selectors.RequireVersion(cfg, constraint)
}

// Shell.

// NewShellClient builds a command execution facade from settings.
func NewShellClient(cfg *Config) (*ShellClient, error) { return shell.New(cfg, shell.Check{}) }

// Store.

// OpenStore opens the run-history store named in settings (nil if disabled).
func OpenStore(cfg *Config) (*Store, error) { return store.FromConfig(cfg.Store) }

// ServerStatus fetches the server's status endpoint and returns the parsed
// body. The path depends on the configured API generation.
func ServerStatus(ctx context.Context, cfg *Config) (gjson.Result, error) {
	path := "pulp/api/v2/status/"
	if cfg.IsPulp3() {
		path = "pulp/api/v3/status/"
	}
	c, err := client.New(cfg, handler.Echo{})
	if err != nil {
		return gjson.Result{}, err
	}
	res, err := c.Get(ctx, path)
	if err != nil {
		return gjson.Result{}, err
	}
	resp, ok := res.(*resty.Response)
	if !ok {
		return gjson.Result{}, fmt.Errorf("pulpprobe: unexpected handler result %T", res)
	}
	if resp.StatusCode() >= 400 {
		return gjson.Result{}, fmt.Errorf("pulpprobe: status endpoint returned HTTP %d", resp.StatusCode())
	}
	return gjson.ParseBytes(resp.Body()), nil
}
