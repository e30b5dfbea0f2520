package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// v3Server serves one scripted Pulp-3 task resource.
type v3Server struct {
	mu      sync.Mutex
	states  []string
	created []string
	errDesc string
	hits    int
}

func (s *v3Server) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.hits++
		state := s.states[0]
		if len(s.states) > 1 {
			s.states = s.states[1:]
		}
		body := map[string]any{"state": state}
		if state == "completed" {
			body["created_resources"] = s.created
		}
		if s.errDesc != "" && state != "completed" {
			body["error"] = map[string]any{"description": s.errDesc}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	})
}

func TestMonitorTask_Completed_ReturnsCreatedResources(t *testing.T) {
	s := &v3Server{states: []string{"running", "completed"}, created: []string{"/a/1/"}}
	srv := httptest.NewServer(s.handler())
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Version = "3.9.0"

	created, err := MonitorTask(context.Background(), cfg, "/pulp/api/v3/tasks/xyz/")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(created) != 1 || created[0] != "/a/1/" {
		t.Fatalf("expected created resources [/a/1/], got %v", created)
	}
	if s.hits != 2 {
		t.Fatalf("expected 2 polls, got %d", s.hits)
	}
}

func TestMonitorTask_Failed_ErrorCarriesDescription(t *testing.T) {
	s := &v3Server{states: []string{"running", "failed"}, errDesc: "boom"}
	srv := httptest.NewServer(s.handler())
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Version = "3.9.0"

	_, err := MonitorTask(context.Background(), cfg, "/pulp/api/v3/tasks/xyz/")
	var tfe *TaskFailedError
	if !errors.As(err, &tfe) {
		t.Fatalf("expected TaskFailedError, got %v", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected description in message, got %q", err.Error())
	}
	if tfe.State != StateFailed {
		t.Fatalf("expected failed state, got %q", tfe.State)
	}
}

func TestMonitorTask_CanceledIsFailure(t *testing.T) {
	s := &v3Server{states: []string{"canceled"}, errDesc: "operator canceled"}
	srv := httptest.NewServer(s.handler())
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Version = "3.9.0"

	_, err := MonitorTask(context.Background(), cfg, "/pulp/api/v3/tasks/xyz/")
	var tfe *TaskFailedError
	if !errors.As(err, &tfe) {
		t.Fatalf("expected TaskFailedError, got %v", err)
	}
	if tfe.State != StateCanceled {
		t.Fatalf("expected canceled state, got %q", tfe.State)
	}
}

func TestMonitorTask_DeadlineBoundsTheWait(t *testing.T) {
	s := &v3Server{states: []string{"running"}}
	srv := httptest.NewServer(s.handler())
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Version = "3.9.0"

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := MonitorTask(ctx, cfg, "/pulp/api/v3/tasks/xyz/", WithInterval(5*time.Millisecond))
	if err == nil {
		t.Fatalf("expected error once the deadline elapsed")
	}
}
