package selectors

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/pulpprobe/pulpprobe/internal/config"
)

// SkipError tells a test suite to skip rather than fail. Callers typically
// feed Reason straight into t.Skip.
type SkipError struct {
	Reason string
}

func (e *SkipError) Error() string { return "skip: " + e.Reason }

// MeetsVersion reports whether the configured server version satisfies a
// semver constraint such as ">= 2.19" or ">= 3.0, < 3.10".
func MeetsVersion(cfg *config.Config, constraint string) (bool, error) {
	v, err := cfg.SemVersion()
	if err != nil {
		return false, err
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("selectors: invalid version constraint %q: %w", constraint, err)
	}
	return c.Check(v), nil
}

// RequireVersion returns a *SkipError when the server does not satisfy the
// constraint, nil when it does.
func RequireVersion(cfg *config.Config, constraint string) error {
	ok, err := MeetsVersion(cfg, constraint)
	if err != nil {
		return err
	}
	if !ok {
		return &SkipError{Reason: fmt.Sprintf("server version %s does not satisfy %q", cfg.Version, constraint)}
	}
	return nil
}
