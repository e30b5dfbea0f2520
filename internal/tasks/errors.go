package tasks

import (
	"fmt"
	"strings"
)

// TaskFailedError reports a polled task that reached a failure terminal
// state. It carries the fields a test needs to present a diagnostic:
// id/href, final state, the server's error description and traceback.
type TaskFailedError struct {
	Ref         string // task id (Pulp 2) or href (Pulp 3)
	State       string
	Description string
	Traceback   string
	Body        string // full task resource JSON
}

func (e *TaskFailedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "task %s ended in state %q", e.Ref, e.State)
	if e.Description != "" {
		fmt.Fprintf(&b, ": %s", e.Description)
	}
	if e.Traceback != "" {
		fmt.Fprintf(&b, "\n%s", e.Traceback)
	}
	return b.String()
}
