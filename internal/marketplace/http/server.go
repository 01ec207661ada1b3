package http

import (
	"net/http"
	"time"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"

	"github.com/thewillhuang/middleman/internal/marketplace/lifecycle"
)

// Logger captures the logging contract required by the server.
type Logger interface {
	Infof(string, ...interface{})
	Errorf(string, ...interface{})
}

// RequestObserver records request metrics.
type RequestObserver interface {
	ObserveRequest(route, method string, code int, elapsed time.Duration)
}

// Server provides HTTP handlers for the marketplace. It only translates between
// HTTP and the engine; every rule lives in the engine.
type Server struct {
	logger   Logger
	engine   *lifecycle.Engine
	observer RequestObserver
}

// NewServer constructs a Server instance. observer may be nil.
func NewServer(logger Logger, engine *lifecycle.Engine, observer RequestObserver) *Server {
	return &Server{logger: logger, engine: engine, observer: observer}
}

// Register mounts marketplace routes on the mux behind chain. The chain must
// resolve the caller into the request context.
func (s *Server) Register(mux *pat.PatternServeMux, chain alice.Chain) {
	routes := []struct {
		method, pattern string
		handler         http.HandlerFunc
	}{
		{http.MethodPost, "/api/v1/persons/register", s.handleRegister},
		{http.MethodPost, "/api/v1/auth/token", s.handleAuthenticate},
		{http.MethodGet, "/api/v1/persons/me", s.handleCurrentPerson},
		{http.MethodGet, "/api/v1/persons/:id", s.handlePerson},

		{http.MethodPost, "/api/v1/tasks", s.handleCreateTask},
		{http.MethodGet, "/api/v1/tasks", s.handleListTasks},
		{http.MethodGet, "/api/v1/tasks/:id", s.handleGetTask},
		{http.MethodPatch, "/api/v1/tasks/:id", s.handleUpdateTask},
		{http.MethodGet, "/api/v1/tasks/:id/history", s.handleTaskHistory},

		{http.MethodPost, "/api/v1/tasks/:id/task-review", s.handleAddTaskReview},
		{http.MethodPost, "/api/v1/tasks/:id/client-review", s.handleAddClientReview},
		{http.MethodGet, "/api/v1/tasks/:id/reviews", s.handleTaskReviews},

		{http.MethodPost, "/api/v1/tasks/:id/comments", s.handleCreateComment},
		{http.MethodGet, "/api/v1/tasks/:id/comments", s.handleListComments},
	}
	for _, rt := range routes {
		mux.Add(rt.method, rt.pattern, chain.Then(s.instrument(rt.pattern, rt.handler)))
	}
}
