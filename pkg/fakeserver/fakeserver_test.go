package fakeserver

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func getJSON(t *testing.T, url string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	b, _ := io.ReadAll(resp.Body)
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("decode %s: %v (%s)", url, err, b)
	}
	return resp.StatusCode, m
}

func TestStatusEndpoints(t *testing.T) {
	srv := httptest.NewServer(New("2.21.0").Handler())
	defer srv.Close()

	for _, path := range []string{"/pulp/api/v2/status/", "/pulp/api/v3/status/"} {
		code, body := getJSON(t, srv.URL+path)
		if code != 200 {
			t.Fatalf("%s: expected 200, got %d", path, code)
		}
		versions, ok := body["versions"].([]any)
		if !ok || len(versions) == 0 {
			t.Fatalf("%s: expected versions array, got %v", path, body)
		}
	}
}

func TestScriptedTask_StatesAdvanceAndLastRepeats(t *testing.T) {
	fs := New("2.21.0")
	fs.AddTaskV2("abc", "waiting", "running", "finished")
	srv := httptest.NewServer(fs.Handler())
	defer srv.Close()

	want := []string{"waiting", "running", "finished", "finished"}
	for i, w := range want {
		_, body := getJSON(t, srv.URL+"/pulp/api/v2/tasks/abc/")
		if body["state"] != w {
			t.Fatalf("poll %d: expected state %s, got %v", i, w, body["state"])
		}
	}
}

func TestFailTaskV2_CarriesErrorOnTerminalState(t *testing.T) {
	fs := New("2.21.0")
	fs.FailTaskV2("bad", "sync exploded", "Traceback: ...", "running", "error")
	srv := httptest.NewServer(fs.Handler())
	defer srv.Close()

	_, body := getJSON(t, srv.URL+"/pulp/api/v2/tasks/bad/")
	if body["error"] != nil {
		t.Fatalf("running state must not carry the error yet: %v", body)
	}
	_, body = getJSON(t, srv.URL+"/pulp/api/v2/tasks/bad/")
	errObj, ok := body["error"].(map[string]any)
	if !ok || errObj["description"] != "sync exploded" {
		t.Fatalf("expected error description on terminal state, got %v", body)
	}
}

func TestTaskV3_CompletedReportsCreatedResources(t *testing.T) {
	fs := New("3.9.0")
	fs.AddTaskV3("xyz", []string{"/pulp/api/v3/repositories/1/"}, "running", "completed")
	srv := httptest.NewServer(fs.Handler())
	defer srv.Close()

	_, body := getJSON(t, srv.URL+"/pulp/api/v3/tasks/xyz/")
	if _, present := body["created_resources"]; present {
		t.Fatalf("running state must not report created resources")
	}
	_, body = getJSON(t, srv.URL+"/pulp/api/v3/tasks/xyz/")
	created, ok := body["created_resources"].([]any)
	if !ok || len(created) != 1 {
		t.Fatalf("expected created resources on completion, got %v", body)
	}
}

func TestUnknownTaskIs404(t *testing.T) {
	srv := httptest.NewServer(New("2.21.0").Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/pulp/api/v2/tasks/nope/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestStubCallReport(t *testing.T) {
	fs := New("2.21.0")
	fs.StubCallReport("/pulp/api/v2/repositories/zoo/actions/sync/", "t1", "t2")
	srv := httptest.NewServer(fs.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/pulp/api/v2/repositories/zoo/actions/sync/", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	b, _ := io.ReadAll(resp.Body)
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	spawned, ok := m["spawned_tasks"].([]any)
	if !ok || len(spawned) != 2 {
		t.Fatalf("expected 2 spawned tasks, got %v", m)
	}
}

func TestTaskMutatorsConcurrentWithServing(t *testing.T) {
	fs := New("2.21.0")
	srv := httptest.NewServer(fs.Handler())
	defer srv.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			fs.AddTaskV2("hot", "finished")
			fs.AddTaskV3("hot", nil, "completed")
		}
	}()
	for i := 0; i < 50; i++ {
		resp, err := http.Get(srv.URL + "/pulp/api/v2/tasks/hot/")
		if err != nil {
			t.Fatalf("GET during mutation: %v", err)
		}
		_ = resp.Body.Close()
	}
	<-done
}

func TestStubArbitraryEndpoint(t *testing.T) {
	fs := New("2.21.0")
	fs.Stub(http.MethodGet, "/pulp/api/v2/repositories/zoo/", http.StatusOK, gin.H{"id": "zoo"})
	srv := httptest.NewServer(fs.Handler())
	defer srv.Close()

	code, body := getJSON(t, srv.URL+"/pulp/api/v2/repositories/zoo/")
	if code != 200 || body["id"] != "zoo" {
		t.Fatalf("unexpected stub response: %d %v", code, body)
	}
}
