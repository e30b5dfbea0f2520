package shell

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

type localTransport struct{}

func (localTransport) Run(ctx context.Context, argv []string) (*Result, error) {
	var stdout, stderr bytes.Buffer
	// #nosec G204 -- commands come from the test suites driving this harness
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			res.Code = ee.ExitCode()
			return res, nil
		}
		return nil, err
	}
	return res, nil
}
