// Package selectors decides whether a test should run against a given
// server: bug-tracker status lookups with a process-wide cache, and
// semantic-version gating.
package selectors

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/go-resty/resty/v2"
	"github.com/pulpprobe/pulpprobe/internal/common"
	"github.com/pulpprobe/pulpprobe/internal/config"
	"github.com/pulpprobe/pulpprobe/internal/httpc"
	"github.com/tidwall/gjson"
)

// TestableStatuses are tracker states meaning the bug is still open: the
// behavior it describes is present and the test exercising it should run.
var TestableStatuses = map[string]bool{
	"NEW":      true,
	"ASSIGNED": true,
	"POST":     true,
	"MODIFIED": true,
}

// UntestableStatuses are tracker states meaning a fix shipped or the report
// was rejected; whether the test runs then depends on the server version
// relative to the fix's target release.
var UntestableStatuses = map[string]bool{
	"ON_QA":                   true,
	"VERIFIED":                true,
	"CLOSED - COMPLETE":       true,
	"CLOSED - CURRENTRELEASE": true,
	"CLOSED - DUPLICATE":      true,
	"CLOSED - NOTABUG":        true,
	"CLOSED - WONTFIX":        true,
	"CLOSED - WORKSFORME":     true,
}

// BugStatus is one tracker entry: the bug's state and the release the fix
// targets (empty when not set on the tracker).
type BugStatus struct {
	Status        string
	TargetRelease string
}

// BugCache memoizes tracker lookups for a process lifetime. Construct one
// at process start and pass it to the suites that need it; entries are
// never invalidated implicitly.
type BugCache struct {
	mu         sync.Mutex
	trackerURL string
	http       *resty.Client
	byID       map[int]BugStatus
}

// BugCacheOption adjusts cache construction.
type BugCacheOption func(*BugCache)

// WithBugHTTPClient substitutes the lookup transport. Used by tests.
func WithBugHTTPClient(rc *resty.Client) BugCacheOption {
	return func(c *BugCache) { c.http = rc }
}

// NewBugCache builds a cache querying the tracker configured in settings.
func NewBugCache(cfg *config.Config, opts ...BugCacheOption) *BugCache {
	c := &BugCache{
		trackerURL: strings.TrimRight(cfg.BugTracker.URL, "/"),
		byID:       map[int]BugStatus{},
	}
	for _, fn := range opts {
		fn(c)
	}
	if c.http == nil {
		h := httpc.Httpc{TlsConfig: cfg.TLSConfig()}
		c.http = h.New()
	}
	return c
}

// GetOrLoad returns the cached status for a bug, fetching it from the
// tracker on first use.
func (c *BugCache) GetOrLoad(ctx context.Context, id int) (BugStatus, error) {
	c.mu.Lock()
	if st, ok := c.byID[id]; ok {
		c.mu.Unlock()
		return st, nil
	}
	c.mu.Unlock()

	st, err := c.fetch(ctx, id)
	if err != nil {
		return BugStatus{}, err
	}

	c.mu.Lock()
	c.byID[id] = st
	c.mu.Unlock()
	return st, nil
}

// Invalidate drops every cached entry.
func (c *BugCache) Invalidate() {
	c.mu.Lock()
	c.byID = map[int]BugStatus{}
	c.mu.Unlock()
}

func (c *BugCache) fetch(ctx context.Context, id int) (BugStatus, error) {
	if c.trackerURL == "" {
		return BugStatus{}, fmt.Errorf("selectors: bug_tracker.url is not configured")
	}
	target := fmt.Sprintf("%s/issues/%d.json", c.trackerURL, id)
	logger := common.GetLogger().WithComponent("selectors").WithBug(id)
	logger.Debug("fetching bug status", "url", target)

	resp, err := c.http.R().SetContext(ctx).Get(target)
	if err != nil {
		return BugStatus{}, fmt.Errorf("selectors: fetch bug %d: %w", id, err)
	}
	if resp.StatusCode() >= 400 {
		return BugStatus{}, fmt.Errorf("selectors: bug tracker returned HTTP %d for bug %d", resp.StatusCode(), id)
	}
	body := gjson.ParseBytes(resp.Body())
	st := BugStatus{
		Status:        body.Get("issue.status.name").String(),
		TargetRelease: body.Get("issue.fixed_version.name").String(),
	}
	if st.Status == "" {
		return BugStatus{}, fmt.Errorf("selectors: bug %d has no status in tracker response", id)
	}
	return st, nil
}

// IsTestable decides whether the test guarded by a bug should run against a
// server of the given version. Open bugs are testable; fixed bugs are
// testable once the server carries the fix (version >= target release). A
// status outside both known sets is an error, never silently treated as
// either.
func (c *BugCache) IsTestable(ctx context.Context, id int, serverVersion *semver.Version) (bool, error) {
	st, err := c.GetOrLoad(ctx, id)
	if err != nil {
		return false, err
	}
	status := strings.ToUpper(strings.TrimSpace(st.Status))
	switch {
	case TestableStatuses[status]:
		return true, nil
	case UntestableStatuses[status]:
		if st.TargetRelease == "" || serverVersion == nil {
			return false, nil
		}
		target, err := semver.NewVersion(st.TargetRelease)
		if err != nil {
			return false, fmt.Errorf("selectors: bug %d has unparsable target release %q: %w", id, st.TargetRelease, err)
		}
		return !serverVersion.LessThan(target), nil
	default:
		return false, fmt.Errorf("selectors: bug %d has unknown status %q", id, st.Status)
	}
}
