package http

import (
	"context"
	"net/http"

	"github.com/thewillhuang/middleman/internal/marketplace/auth"
	"github.com/thewillhuang/middleman/internal/models"
)

type reviewRequest struct {
	Rating int `json:"rating"`
}

type reviewFunc func(ctx context.Context, caller auth.Caller, taskID string, rating int) (models.Task, error)

func (s *Server) handleAddTaskReview(w http.ResponseWriter, r *http.Request) {
	s.handleReview(w, r, s.engine.AddTaskReview)
}

func (s *Server) handleAddClientReview(w http.ResponseWriter, r *http.Request) {
	s.handleReview(w, r, s.engine.AddClientReview)
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request, submit reviewFunc) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	task, err := submit(r.Context(), caller, getParam(r, "id"), req.Rating)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleTaskReviews(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	reviews, err := s.engine.TaskReviews(r.Context(), caller, getParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reviews": reviews})
}
