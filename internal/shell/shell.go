// Package shell runs commands on the server host, locally or over SSH,
// mirroring the HTTP facade's handler shape: the transport produces a raw
// result and the active handler decides what the caller gets back.
package shell

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pulpprobe/pulpprobe/internal/common"
	"github.com/pulpprobe/pulpprobe/internal/config"
)

// Result is the raw outcome of one executed command.
type Result struct {
	Stdout []byte
	Stderr []byte
	Code   int
}

// ExitError reports a command that finished with a non-zero exit code. Only
// the checking handler raises it; Echo never does.
type ExitError struct {
	Cmd    string
	Result *Result
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("shell: %q exited with code %d: %s", e.Cmd, e.Result.Code, strings.TrimSpace(string(e.Result.Stderr)))
}

// Transport executes a command somewhere and reports its raw result.
type Transport interface {
	Run(ctx context.Context, argv []string) (*Result, error)
}

// Handler decides what a shell call returns, given the raw result. The
// variants mirror the HTTP response handlers: Echo passes the result
// through, Check raises on a non-zero exit code.
type Handler interface {
	Handle(cmd string, res *Result) (*Result, error)
}

// Echo returns the result untouched so callers can assert on exit codes.
type Echo struct{}

func (Echo) Handle(_ string, res *Result) (*Result, error) { return res, nil }

// Check raises an *ExitError on non-zero exit codes.
type Check struct{}

func (Check) Handle(cmd string, res *Result) (*Result, error) {
	if res.Code != 0 {
		return res, &ExitError{Cmd: cmd, Result: res}
	}
	return res, nil
}

// Client pairs a transport with a handler.
type Client struct {
	t Transport
	h Handler
}

// New builds a shell client from settings: an SSH transport when the shell
// section names one, a local transport otherwise.
func New(cfg *config.Config, h Handler) (*Client, error) {
	if h == nil {
		h = Check{}
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Shell.Transport)) {
	case "", "local":
		return &Client{t: localTransport{}, h: h}, nil
	case "ssh":
		t, err := newSSHTransport(cfg.Shell)
		if err != nil {
			return nil, err
		}
		return &Client{t: t, h: h}, nil
	default:
		return nil, fmt.Errorf("shell: unknown transport %q (valid: local, ssh)", cfg.Shell.Transport)
	}
}

// NewWithTransport builds a client around an explicit transport. Used by
// tests and embedders with custom execution environments.
func NewWithTransport(t Transport, h Handler) *Client {
	if h == nil {
		h = Check{}
	}
	return &Client{t: t, h: h}
}

// Close releases transport resources, such as the SSH transport's cached
// connection. Transports without resources are a no-op.
func (c *Client) Close() error {
	if closer, ok := c.t.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Run executes argv through the transport and applies the handler.
func (c *Client) Run(ctx context.Context, argv ...string) (*Result, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("shell: empty command")
	}
	cmd := strings.Join(argv, " ")
	logger := common.GetLogger().WithComponent("shell")
	logger.Debug("running command", "cmd", cmd)

	res, err := c.t.Run(ctx, argv)
	if err != nil {
		return nil, err
	}
	logger.Debug("command finished", "cmd", cmd, "code", res.Code)
	return c.h.Handle(cmd, res)
}
