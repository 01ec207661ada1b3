package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/thewillhuang/middleman/internal/marketplace/auth"
	"github.com/thewillhuang/middleman/internal/models"
)

const maxBodyBytes = 1 << 20

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrAuthenticationRequired):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrAuthorizationDenied):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidState), errors.Is(err, models.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError maps an engine error onto a status code. Server-side
// failures are logged and their details hidden from the client.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()
	switch status {
	case http.StatusServiceUnavailable:
		s.logger.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
		w.Header().Set("Retry-After", "1")
		message = "temporarily unavailable, retry later"
	case http.StatusInternalServerError:
		s.logger.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
		message = "internal server error"
	}
	writeError(w, status, models.ErrorCode(err), message)
}

// requireCaller writes the authentication error and reports false for anonymous
// requests, before any input is parsed.
func (s *Server) requireCaller(w http.ResponseWriter, r *http.Request) (auth.Caller, bool) {
	caller := auth.CallerFrom(r.Context())
	if err := caller.Require(); err != nil {
		s.writeDomainError(w, r, err)
		return auth.Caller{}, false
	}
	return caller, true
}

func decodeJSON(r *http.Request, dst interface{}) error {
	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid json", models.ErrValidation)
	}
	return nil
}

// getParam returns a pat path capture, falling back to the query string.
func getParam(r *http.Request, name string) string {
	if val := r.URL.Query().Get(":" + name); val != "" {
		return val
	}
	return r.URL.Query().Get(name)
}

func parseFloatParam(r *http.Request, name string, required bool) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		if required {
			return 0, fmt.Errorf("%w: %s is required", models.ErrValidation, name)
		}
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s", models.ErrValidation, name)
	}
	return v, nil
}

func parseOptionalInt(r *http.Request, name string) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s", models.ErrValidation, name)
	}
	return &v, nil
}

// parseList accepts both repeated and comma separated values.
func parseList(r *http.Request, names ...string) []string {
	var out []string
	for _, name := range names {
		for _, raw := range r.URL.Query()[name] {
			for _, part := range strings.Split(raw, ",") {
				if part = strings.TrimSpace(part); part != "" {
					out = append(out, part)
				}
			}
		}
	}
	return out
}

func parsePaging(r *http.Request) (int, int, error) {
	limit := 50
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l <= 0 {
			return 0, 0, fmt.Errorf("%w: invalid limit", models.ErrValidation)
		}
		limit = l
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		o, err := strconv.Atoi(v)
		if err != nil || o < 0 {
			return 0, 0, fmt.Errorf("%w: invalid offset", models.ErrValidation)
		}
		offset = o
	}
	return limit, offset, nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument reports every request served by h under the route pattern.
func (s *Server) instrument(route string, h http.HandlerFunc) http.Handler {
	if s.observer == nil {
		return h
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		s.observer.ObserveRequest(route, r.Method, rec.status, time.Since(start))
	})
}
