// Package fakeserver provides an in-process Pulp stand-in for examples and
// downstream test suites: scripted 202 call reports and task resources that
// walk through a configured state sequence, one step per poll.
package fakeserver

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
)

// Server simulates the slices of the Pulp 2 and Pulp 3 APIs the harness
// talks to. Task mutators (AddTaskV2, FailTaskV2, AddTaskV3, FailTaskV3)
// are safe for concurrent use with serving; route registration (Stub,
// StubCallReport) is setup-only and must happen before the first request.
type Server struct {
	engine *gin.Engine

	mu      sync.Mutex
	v2      map[string]*scriptedTask
	v3      map[string]*scriptedTask
	version string
}

type scriptedTask struct {
	states    []string // remaining states; the last one repeats forever
	created   []string
	errDesc   string
	traceback string
}

// step returns the task's current state and advances the script by one.
func (t *scriptedTask) step() string {
	if len(t.states) == 0 {
		return ""
	}
	s := t.states[0]
	if len(t.states) > 1 {
		t.states = t.states[1:]
	}
	return s
}

// New builds a fake server reporting the given API version from its status
// endpoints.
func New(version string) *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{
		engine:  gin.New(),
		v2:      map[string]*scriptedTask{},
		v3:      map[string]*scriptedTask{},
		version: version,
	}
	s.engine.GET("/pulp/api/v2/status/", s.status)
	s.engine.GET("/pulp/api/v3/status/", s.status)
	s.engine.GET("/pulp/api/v2/tasks/:id/", s.taskV2)
	s.engine.GET("/pulp/api/v3/tasks/:id/", s.taskV3)
	return s
}

// Handler exposes the server as an http.Handler, typically wrapped in
// httptest.NewServer.
func (s *Server) Handler() http.Handler { return s.engine }

// AddTaskV2 scripts a Pulp-2 task: each poll observes the next state in the
// sequence, and the final state repeats.
func (s *Server) AddTaskV2(id string, states ...string) {
	s.mu.Lock()
	s.v2[id] = &scriptedTask{states: states}
	s.mu.Unlock()
}

// FailTaskV2 scripts a Pulp-2 task ending in failure with the given
// description and traceback.
func (s *Server) FailTaskV2(id, description, traceback string, states ...string) {
	s.mu.Lock()
	s.v2[id] = &scriptedTask{states: states, errDesc: description, traceback: traceback}
	s.mu.Unlock()
}

// AddTaskV3 scripts a Pulp-3 task with the resources reported on
// completion.
func (s *Server) AddTaskV3(id string, created []string, states ...string) {
	s.mu.Lock()
	s.v3[id] = &scriptedTask{states: states, created: created}
	s.mu.Unlock()
}

// FailTaskV3 scripts a Pulp-3 task ending in failure.
func (s *Server) FailTaskV3(id, description string, states ...string) {
	s.mu.Lock()
	s.v3[id] = &scriptedTask{states: states, errDesc: description}
	s.mu.Unlock()
}

// StubCallReport registers a POST endpoint answering 202 with a call report
// spawning the given Pulp-2 task ids. Setup-only: call before serving.
func (s *Server) StubCallReport(path string, taskIDs ...string) {
	s.engine.POST(path, func(c *gin.Context) {
		spawned := make([]gin.H, 0, len(taskIDs))
		for _, id := range taskIDs {
			spawned = append(spawned, gin.H{"_href": "/pulp/api/v2/tasks/" + id + "/", "task_id": id})
		}
		c.JSON(http.StatusAccepted, gin.H{
			"result":        nil,
			"error":         nil,
			"spawned_tasks": spawned,
		})
	})
}

// Stub registers an arbitrary endpoint with a fixed response. Setup-only:
// call before serving.
func (s *Server) Stub(method, path string, status int, body gin.H) {
	s.engine.Handle(method, path, func(c *gin.Context) {
		c.JSON(status, body)
	})
}

func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"versions": []gin.H{{"component": "core", "version": s.version}},
	})
}

func (s *Server) taskV2(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	t, ok := s.v2[id]
	if !ok {
		s.mu.Unlock()
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown task"})
		return
	}
	state := t.step()
	body := gin.H{
		"task_id":         id,
		"state":           state,
		"error":           nil,
		"traceback":       nil,
		"progress_report": gin.H{},
	}
	if t.errDesc != "" && (state == "error" || state == "timed out" || state == "canceled") {
		body["error"] = gin.H{"description": t.errDesc}
		body["traceback"] = t.traceback
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, body)
}

func (s *Server) taskV3(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	t, ok := s.v3[id]
	if !ok {
		s.mu.Unlock()
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown task"})
		return
	}
	state := t.step()
	body := gin.H{"state": state}
	if state == "completed" {
		body["created_resources"] = t.created
	}
	if t.errDesc != "" && state != "completed" {
		body["error"] = gin.H{"description": t.errDesc}
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, body)
}
