package tasks

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/pulpprobe/pulpprobe/internal/config"
)

// Pulp 3 terminal task states.
const (
	StateCompleted = "completed"
	StateFailed    = "failed"
)

var terminalStatesV3 = map[string]bool{
	StateCompleted: true,
	StateFailed:    true,
	StateCanceled:  true,
}

// MonitorTask polls a single Pulp-3 task href until it settles. On
// "completed" it returns the task's created_resources hrefs; any other
// terminal state yields a *TaskFailedError whose message carries the
// server's error.description. The only cutoff is the caller's context:
// cancel it or attach a deadline to bound the wait.
func MonitorTask(ctx context.Context, cfg *config.Config, href string, opts ...Option) ([]string, error) {
	o := newPollerOptions(cfg, opts)

	base, err := cfg.Base()
	if err != nil {
		return nil, err
	}
	rel, err := url.Parse(href)
	if err != nil {
		return nil, fmt.Errorf("tasks: invalid task href %q: %w", href, err)
	}
	target := base.ResolveReference(rel).String()

	start := time.Now()
	body, err := pollUntil(ctx, o, href, target, terminalStatesV3)
	if err != nil {
		return nil, err
	}

	state := body.Get("state").String()
	recordOutcome(ctx, o.recorder, Outcome{
		Ref:      href,
		State:    state,
		Failed:   state != StateCompleted,
		Duration: time.Since(start),
		Detail:   body.Get("error.description").String(),
	})

	if state != StateCompleted {
		return nil, &TaskFailedError{
			Ref:         href,
			State:       state,
			Description: body.Get("error.description").String(),
			Traceback:   body.Get("error.traceback").String(),
			Body:        body.Raw,
		}
	}

	var created []string
	for _, r := range body.Get("created_resources").Array() {
		created = append(created, r.String())
	}
	return created, nil
}
