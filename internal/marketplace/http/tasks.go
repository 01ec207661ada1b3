package http

import (
	"net/http"

	"github.com/thewillhuang/middleman/internal/marketplace/discovery"
	"github.com/thewillhuang/middleman/internal/marketplace/lifecycle"
)

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	var req lifecycle.CreateTaskInput
	if err := decodeJSON(r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	task, err := s.engine.CreateTask(r.Context(), caller, req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	task, err := s.engine.Task(r.Context(), caller, getParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	var req lifecycle.UpdateTaskInput
	if err := decodeJSON(r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	req.TaskID = getParam(r, "id")
	task, err := s.engine.UpdateTask(r.Context(), caller, req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	params, err := parseDiscoveryParams(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	conn, err := s.engine.ListTasks(r.Context(), caller, params)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conn)
}

func (s *Server) handleTaskHistory(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	events, err := s.engine.TaskHistory(r.Context(), caller, getParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

func parseDiscoveryParams(r *http.Request) (discovery.Params, error) {
	lon, err := parseFloatParam(r, "longitude", true)
	if err != nil {
		return discovery.Params{}, err
	}
	lat, err := parseFloatParam(r, "latitude", true)
	if err != nil {
		return discovery.Params{}, err
	}
	radius, err := parseFloatParam(r, "radius", false)
	if err != nil {
		return discovery.Params{}, err
	}
	first, err := parseOptionalInt(r, "first")
	if err != nil {
		return discovery.Params{}, err
	}
	return discovery.Params{
		Longitude:    lon,
		Latitude:     lat,
		Categories:   parseList(r, "categories", "category"),
		Statuses:     parseList(r, "statuses", "status"),
		First:        first,
		After:        r.URL.Query().Get("after"),
		RadiusMeters: radius,
	}, nil
}
