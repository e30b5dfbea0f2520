package tasks

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pulpprobe/pulpprobe/internal/common"
	"github.com/pulpprobe/pulpprobe/internal/config"
	"github.com/pulpprobe/pulpprobe/internal/httpc"
	"github.com/tidwall/gjson"
)

// Pulp 2 task states. Transitions are pull-based only: the server never
// pushes, the poller re-fetches until a terminal state appears.
const (
	StateWaiting  = "waiting"
	StateRunning  = "running"
	StateFinished = "finished"
	StateError    = "error"
	StateTimedOut = "timed out"
	StateCanceled = "canceled"
	StateSkipped  = "skipped"
)

// taskPathV2 is where a Pulp 2 task resource lives when the spawned-task
// reference carries only an id.
const taskPathV2 = "pulp/api/v2/tasks/%s/"

var terminalStatesV2 = map[string]bool{
	StateFinished: true,
	StateError:    true,
	StateTimedOut: true,
	StateCanceled: true,
	StateSkipped:  true,
}

// failureStatesV2 marks which terminal states raise. "skipped" counts as
// success: the server skips units it has already synced.
var failureStatesV2 = map[string]bool{
	StateError:    true,
	StateTimedOut: true,
	StateCanceled: true,
}

// ErrPollBudget is returned when an injected max-poll bound is exhausted.
// Production code never sets a bound; tests use it to prove the call-report
// poller would otherwise loop indefinitely on a never-terminal task.
var ErrPollBudget = fmt.Errorf("tasks: poll budget exhausted before task reached a terminal state")

// Outcome is the record of one task resolved to a terminal state.
type Outcome struct {
	Ref      string
	State    string
	Failed   bool
	Duration time.Duration
	Detail   string
}

// Recorder persists task outcomes. Implemented by the run-history store;
// wired in by callers that want an audit trail.
type Recorder interface {
	Record(ctx context.Context, o Outcome) error
}

type pollerOptions struct {
	interval time.Duration
	maxPolls int
	http     *resty.Client
	recorder Recorder
}

// Option adjusts poller behavior.
type Option func(*pollerOptions)

// WithInterval overrides the sleep between status polls.
func WithInterval(d time.Duration) Option {
	return func(o *pollerOptions) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithMaxPolls bounds the number of status fetches per task. Zero means
// unbounded, which is the production behavior.
func WithMaxPolls(n int) Option {
	return func(o *pollerOptions) { o.maxPolls = n }
}

// WithClient substitutes the HTTP client used for status fetches.
func WithClient(c *resty.Client) Option {
	return func(o *pollerOptions) { o.http = c }
}

// WithRecorder registers a Recorder for terminal outcomes.
func WithRecorder(r Recorder) Option {
	return func(o *pollerOptions) { o.recorder = r }
}

func newPollerOptions(cfg *config.Config, opts []Option) pollerOptions {
	o := pollerOptions{interval: cfg.Interval()}
	for _, fn := range opts {
		fn(&o)
	}
	if o.http == nil {
		h := httpc.Httpc{
			TlsConfig: cfg.TLSConfig(),
			Username:  cfg.Username,
			Password:  cfg.Password,
		}
		o.http = h.New()
	}
	return o
}

// TaskStream yields terminal task bodies for a call report's spawned tasks,
// one per entry and strictly in spawned-task order. Each Next blocks until
// the corresponding task settles. Consumers that stop draining early leave
// the remaining tasks unpolled; Drain forces every task to finish.
type TaskStream struct {
	cfg  *config.Config
	opts pollerOptions
	refs []TaskRef
	next int
}

// PollSpawnedTasks builds the stream for a decoded call report. An empty
// spawned_tasks list produces an exhausted stream: zero iterations, zero
// network calls.
func PollSpawnedTasks(cfg *config.Config, report *CallReport, opts ...Option) *TaskStream {
	return &TaskStream{
		cfg:  cfg,
		opts: newPollerOptions(cfg, opts),
		refs: report.SpawnedTasks,
	}
}

// More reports whether unresolved spawned tasks remain.
func (s *TaskStream) More() bool {
	return s.next < len(s.refs)
}

// Next blocks until the next spawned task reaches a terminal state and
// returns its full body. A failure terminal state yields a *TaskFailedError
// alongside the zero result; the stream stays positioned so the caller may
// keep consuming the remaining tasks.
func (s *TaskStream) Next(ctx context.Context) (gjson.Result, error) {
	if !s.More() {
		return gjson.Result{}, fmt.Errorf("tasks: stream exhausted")
	}
	ref := s.refs[s.next]
	s.next++

	target, err := s.taskURL(ref)
	if err != nil {
		return gjson.Result{}, err
	}
	refName := ref.TaskID
	if refName == "" {
		refName = ref.Href
	}
	start := time.Now()
	body, err := pollUntil(ctx, s.opts, refName, target, terminalStatesV2)
	if err != nil {
		return gjson.Result{}, err
	}

	state := body.Get("state").String()
	recordOutcome(ctx, s.opts.recorder, Outcome{
		Ref:      refName,
		State:    state,
		Failed:   failureStatesV2[state],
		Duration: time.Since(start),
		Detail:   body.Get("error.description").String(),
	})
	if failureStatesV2[state] {
		return gjson.Result{}, &TaskFailedError{
			Ref:         refName,
			State:       state,
			Description: body.Get("error.description").String(),
			Traceback:   body.Get("traceback").String(),
			Body:        body.Raw,
		}
	}
	return body, nil
}

// Drain consumes the stream fully, forcing every remaining task to finish.
// It stops at the first failure, matching the behavior of a caller that
// aborts consumption when Next errors.
func (s *TaskStream) Drain(ctx context.Context) ([]gjson.Result, error) {
	var out []gjson.Result
	for s.More() {
		body, err := s.Next(ctx)
		if err != nil {
			return out, err
		}
		out = append(out, body)
	}
	return out, nil
}

func (s *TaskStream) taskURL(ref TaskRef) (string, error) {
	base, err := s.cfg.Base()
	if err != nil {
		return "", err
	}
	raw := ref.Href
	if raw == "" {
		if ref.TaskID == "" {
			return "", fmt.Errorf("tasks: spawned task reference has neither _href nor task_id")
		}
		raw = fmt.Sprintf(taskPathV2, ref.TaskID)
	}
	rel, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("tasks: invalid task reference %q: %w", raw, err)
	}
	return base.ResolveReference(rel).String(), nil
}

// pollUntil repeatedly fetches a task resource until its state is in the
// terminal set. There is no wall-clock timeout here: bounding run time is
// the caller's job (ctx for the Pulp-3 monitor, the test framework's own
// timeout for call reports).
func pollUntil(ctx context.Context, opts pollerOptions, ref, target string, terminal map[string]bool) (gjson.Result, error) {
	logger := common.GetLogger().WithComponent("tasks").WithTask(ref)
	start := time.Now()

	for polls := 0; ; {
		resp, err := opts.http.R().SetContext(ctx).Get(target)
		if err != nil {
			return gjson.Result{}, fmt.Errorf("tasks: fetch task status: %w", err)
		}
		if resp.StatusCode() >= 400 {
			return gjson.Result{}, fmt.Errorf("tasks: task status fetch returned HTTP %d for %s", resp.StatusCode(), target)
		}
		body := gjson.ParseBytes(resp.Body())
		state := body.Get("state").String()
		polls++
		logger.Debug("polled task", "state", state, "polls", polls)

		if terminal[state] {
			logger.Debug("task reached terminal state", "state", state, "elapsed", time.Since(start))
			return body, nil
		}
		if opts.maxPolls > 0 && polls >= opts.maxPolls {
			return gjson.Result{}, fmt.Errorf("%w (last state %q after %d polls)", ErrPollBudget, state, polls)
		}

		select {
		case <-ctx.Done():
			return gjson.Result{}, fmt.Errorf("tasks: polling canceled: %w", ctx.Err())
		case <-time.After(opts.interval):
		}
	}
}

func recordOutcome(ctx context.Context, r Recorder, o Outcome) {
	if r == nil {
		return
	}
	if err := r.Record(ctx, o); err != nil {
		common.GetLogger().WithComponent("tasks").Warn("failed to record task outcome", "task", o.Ref, "error", err)
	}
}
