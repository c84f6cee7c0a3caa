// Package fakeapi serves an in-memory megaverse API for tests.
package fakeapi

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/danmuck/megaversectl/internal/grid"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Call is one request the server received.
type Call struct {
	Method string
	Path   string
	Body   map[string]any
	Status int
	At     time.Time
}

// Position returns the row/column carried in the body, if any.
func (c Call) Position() (grid.Position, bool) {
	row, rok := c.Body["row"].(float64)
	col, cok := c.Body["column"].(float64)
	if !rok || !cok {
		return grid.Position{}, false
	}
	return grid.Position{Row: int(row), Column: int(col)}, true
}

type failRule struct {
	method    string
	path      string
	remaining int
	status    int
}

// Server is a gin-backed megaverse API double. Create calls store a token in
// the grid, delete calls clear it, and the goal endpoint serves whatever was
// configured with SetGoal.
type Server struct {
	mu          sync.Mutex
	candidateID string
	calls       []Call
	rules       []*failRule
	failWhen    func(Call) bool
	cells       map[grid.Position]string
	goal        any
	goalStatus  int
	delay       time.Duration

	httpServer *httptest.Server
}

func New(t *testing.T, candidateID string) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &Server{
		candidateID: candidateID,
		cells:       make(map[grid.Position]string),
		goalStatus:  http.StatusOK,
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log.Logger.With().Str("component", "fakeapi").Logger()))
	for _, path := range []string{"/polyanets", "/soloons", "/comeths"} {
		r.POST(path, s.handleMutation)
		r.DELETE(path, s.handleMutation)
	}
	r.GET("/map/:candidate/goal", s.handleGoal)

	s.httpServer = httptest.NewServer(r)
	t.Cleanup(s.httpServer.Close)
	return s
}

func (s *Server) URL() string {
	return s.httpServer.URL
}

// FailNext makes the next n calls to method+path answer with status.
func (s *Server) FailNext(method, path string, n, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, &failRule{method: method, path: path, remaining: n, status: status})
}

// FailWhen fails every matching call with 500 until cleared with nil.
func (s *Server) FailWhen(fn func(Call) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWhen = fn
}

// Delay holds every response for d before answering.
func (s *Server) Delay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// SetGoal sets the goal payload. Pass grid.GoalMap for a well-formed body or
// any other value to serve it under "goal" verbatim.
func (s *Server) SetGoal(goal any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goal = goal
}

func (s *Server) SetGoalStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goalStatus = status
}

func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// Mutations returns the non-GET calls in arrival order.
func (s *Server) Mutations() []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Method != http.MethodGet {
			out = append(out, c)
		}
	}
	return out
}

// Cells returns a copy of the grid state built by successful mutations.
func (s *Server) Cells() map[grid.Position]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[grid.Position]string, len(s.cells))
	for k, v := range s.cells {
		out[k] = v
	}
	return out
}

func (s *Server) handleMutation(c *gin.Context) {
	s.hold(c)
	call := Call{Method: c.Request.Method, Path: c.FullPath(), At: time.Now()}
	if err := c.ShouldBindJSON(&call.Body); err != nil {
		s.finish(c, call, http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if status, failed := s.injectedFailure(call); failed {
		s.finish(c, call, status, gin.H{"error": "injected failure"})
		return
	}
	if call.Body["candidateId"] != s.candidateID {
		s.finish(c, call, http.StatusForbidden, gin.H{"error": "unknown candidate"})
		return
	}
	pos, ok := call.Position()
	if !ok {
		s.finish(c, call, http.StatusBadRequest, gin.H{"error": "row and column required"})
		return
	}

	s.mu.Lock()
	if call.Method == http.MethodDelete {
		delete(s.cells, pos)
	} else {
		s.cells[pos] = cellToken(call)
	}
	s.mu.Unlock()
	s.finish(c, call, http.StatusOK, gin.H{})
}

func (s *Server) handleGoal(c *gin.Context) {
	s.hold(c)
	call := Call{Method: http.MethodGet, Path: c.Request.URL.Path, At: time.Now()}
	if status, failed := s.injectedFailure(call); failed {
		s.finish(c, call, status, gin.H{"error": "injected failure"})
		return
	}
	if c.Param("candidate") != s.candidateID {
		s.finish(c, call, http.StatusNotFound, gin.H{"error": "unknown candidate"})
		return
	}
	s.mu.Lock()
	goal, status := s.goal, s.goalStatus
	s.mu.Unlock()
	if status != http.StatusOK {
		s.finish(c, call, status, gin.H{"error": "goal unavailable"})
		return
	}
	if raw, ok := goal.(string); ok {
		s.record(call, status)
		c.Data(status, "application/json", []byte(raw))
		return
	}
	s.finish(c, call, status, gin.H{"goal": goal})
}

func (s *Server) injectedFailure(call Call) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rule := range s.rules {
		if rule.remaining > 0 && rule.method == call.Method && rule.path == call.Path {
			rule.remaining--
			return rule.status, true
		}
	}
	if s.failWhen != nil && s.failWhen(call) {
		return http.StatusInternalServerError, true
	}
	return 0, false
}

func (s *Server) finish(c *gin.Context, call Call, status int, body gin.H) {
	s.record(call, status)
	c.JSON(status, body)
}

func (s *Server) record(call Call, status int) {
	s.mu.Lock()
	call.Status = status
	s.calls = append(s.calls, call)
	s.mu.Unlock()
}

// hold applies the configured response delay, giving up early when the
// client has already gone away.
func (s *Server) hold(c *gin.Context) {
	s.mu.Lock()
	delay := s.delay
	s.mu.Unlock()
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-c.Request.Context().Done():
	case <-timer.C:
	}
}

func cellToken(call Call) string {
	switch call.Path {
	case "/soloons":
		color, _ := call.Body["color"].(string)
		return color + "_soloon"
	case "/comeths":
		direction, _ := call.Body["direction"].(string)
		return direction + "_cometh"
	default:
		return "polyanet"
	}
}

func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := logger.Debug()
		if status >= 500 {
			event = logger.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("fake api request")
	}
}
