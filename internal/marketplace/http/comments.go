package http

import (
	"net/http"
)

type commentRequest struct {
	Commentary string `json:"commentary"`
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	comment, err := s.engine.CreateComment(r.Context(), caller, getParam(r, "id"), req.Commentary)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	limit, offset, err := parsePaging(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	comments, err := s.engine.ListComments(r.Context(), caller, getParam(r, "id"), limit, offset)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"comments": comments, "limit": limit, "offset": offset})
}
