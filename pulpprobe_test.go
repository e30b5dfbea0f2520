package pulpprobe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/pulpprobe/pulpprobe/pkg/fakeserver"
)

func startFake(t *testing.T, version string) (*fakeserver.Server, *Config) {
	t.Helper()
	fs := fakeserver.New(version)
	srv := httptest.NewServer(fs.Handler())
	t.Cleanup(srv.Close)
	return fs, &Config{BaseURL: srv.URL, Version: version, PollInterval: "1ms"}
}

func TestServerStatus(t *testing.T) {
	_, cfg := startFake(t, "2.21.0")
	status, err := ServerStatus(context.Background(), cfg)
	if err != nil {
		t.Fatalf("ServerStatus: %v", err)
	}
	if got := status.Get("versions.0.version").String(); got != "2.21.0" {
		t.Fatalf("unexpected reported version %q", got)
	}
}

func TestSafeClient_202SyncWaitsForSpawnedTasks(t *testing.T) {
	fs, cfg := startFake(t, "2.21.0")
	fs.AddTaskV2("t1", "waiting", "running", "finished")
	fs.AddTaskV2("t2", "finished")
	fs.StubCallReport("/pulp/api/v2/repositories/zoo/actions/sync/", "t1", "t2")

	c, err := NewClient(context.Background(), cfg, SafeHandler())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	res, err := c.Post(context.Background(), "/pulp/api/v2/repositories/zoo/actions/sync/", NoBody())
	if err != nil {
		t.Fatalf("sync call: %v", err)
	}
	if res.(*resty.Response).StatusCode() != http.StatusAccepted {
		t.Fatalf("expected the 202 response back")
	}
}

func TestSafeClient_202TaskFailureSurfaces(t *testing.T) {
	fs, cfg := startFake(t, "2.21.0")
	fs.FailTaskV2("bad", "publish exploded", "Traceback: ...", "running", "error")
	fs.StubCallReport("/pulp/api/v2/repositories/zoo/actions/publish/", "bad")

	c, err := NewClient(context.Background(), cfg, SafeHandler())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = c.Post(context.Background(), "/pulp/api/v2/repositories/zoo/actions/publish/", NoBody())
	var tfe *TaskFailedError
	if !errors.As(err, &tfe) {
		t.Fatalf("expected TaskFailedError, got %v", err)
	}
	if !strings.Contains(err.Error(), "publish exploded") {
		t.Fatalf("expected failure description, got %q", err.Error())
	}
}

func TestMonitorTask_AgainstFakePulp3(t *testing.T) {
	fs, cfg := startFake(t, "3.9.0")
	fs.AddTaskV3("xyz", []string{"/pulp/api/v3/repositories/1/"}, "running", "completed")

	created, err := MonitorTask(context.Background(), cfg, "/pulp/api/v3/tasks/xyz/")
	if err != nil {
		t.Fatalf("MonitorTask: %v", err)
	}
	if len(created) != 1 || created[0] != "/pulp/api/v3/repositories/1/" {
		t.Fatalf("unexpected created resources %v", created)
	}
}

func TestJSONClient_DecodesStubbedResource(t *testing.T) {
	fs, cfg := startFake(t, "2.21.0")
	fs.Stub(http.MethodGet, "/pulp/api/v2/repositories/zoo/", http.StatusOK, map[string]any{"id": "zoo"})

	c, err := NewClient(context.Background(), cfg, JSONHandler())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	res, err := c.Get(context.Background(), "/pulp/api/v2/repositories/zoo/")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	m, ok := res.(map[string]any)
	if !ok || m["id"] != "zoo" {
		t.Fatalf("unexpected decoded body %v", res)
	}
}

func TestNewClient_AuthProviderHeaderApplied(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	cfg := &Config{BaseURL: srv.URL, Version: "2.21.0"}
	cfg.Auth = []AuthConfig{{Type: "token", Config: map[string]any{"token": "opaque-abc"}}}

	c, err := NewClient(context.Background(), cfg, EchoHandler())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.Get(context.Background(), "/pulp/api/v2/status/"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gotAuth != "Bearer opaque-abc" {
		t.Fatalf("expected bearer header from the auth provider, got %q", gotAuth)
	}
}

func TestRequireVersion_SkipFlow(t *testing.T) {
	cfg := &Config{BaseURL: "https://pulp.example.com", Version: "2.19.1"}
	err := RequireVersion(cfg, ">= 3.0")
	var se *SkipError
	if !errors.As(err, &se) {
		t.Fatalf("expected SkipError, got %v", err)
	}
}
