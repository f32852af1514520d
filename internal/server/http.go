package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	flagsv1 "github.com/alfredjeanlab/flags/api/flags/v1"
)

// maxBodyBytes caps request bodies; the largest legitimate body is a
// description string.
const maxBodyBytes = 64 << 10

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header.
func (s *FlagServer) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/flags", s.handleListFlags)
	mux.HandleFunc("GET /v1/flags/{name}", s.handleGetFlag)
	mux.HandleFunc("GET /v1/flags/{name}/enabled", s.handleIsEnabled)
	mux.HandleFunc("POST /v1/flags/{name}/enable", s.handleEnableFlag)
	mux.HandleFunc("POST /v1/flags/{name}/disable", s.handleDisableFlag)
	mux.HandleFunc("DELETE /v1/flags/{name}", s.handleDeleteFlag)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	return s.LoggingMiddleware(AuthMiddleware(authToken, mux))
}

// handleListFlags handles GET /v1/flags. With ?details=true the response
// also carries the records.
func (s *FlagServer) handleListFlags(w http.ResponseWriter, r *http.Request) {
	details, _ := strconv.ParseBool(r.URL.Query().Get("details"))
	resp, err := s.listFlags(r.Context(), details)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGetFlag handles GET /v1/flags/{name}.
func (s *FlagServer) handleGetFlag(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.GetFlagDetails(r.Context(), r.PathValue("name"))
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	if d == nil {
		writeErrorCode(w, http.StatusNotFound, "flag not found", CodeNotFound)
		return
	}
	writeJSON(w, http.StatusOK, detailsToWire(d))
}

// handleIsEnabled handles GET /v1/flags/{name}/enabled.
func (s *FlagServer) handleIsEnabled(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	on, err := s.svc.IsEnabled(r.Context(), name)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, flagsv1.IsEnabledResponse{Name: name, Enabled: on})
}

// handleEnableFlag handles POST /v1/flags/{name}/enable.
func (s *FlagServer) handleEnableFlag(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Description string `json:"description"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	ok, err := s.svc.EnableFlag(r.Context(), r.PathValue("name"), in.Description)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, flagsv1.EnableFlagResponse{Success: ok})
}

// handleDisableFlag handles POST /v1/flags/{name}/disable.
func (s *FlagServer) handleDisableFlag(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Reason string `json:"reason"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	ok, err := s.svc.DisableFlag(r.Context(), r.PathValue("name"), in.Reason)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, flagsv1.DisableFlagResponse{Success: ok})
}

// handleDeleteFlag handles DELETE /v1/flags/{name}.
func (s *FlagServer) handleDeleteFlag(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.svc.DeleteFlag(r.Context(), r.PathValue("name"))
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, flagsv1.DeleteFlagResponse{Deleted: deleted})
}

// handleHealth handles GET /v1/health.
func (s *FlagServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := s.healthStatus(r.Context())
	code := http.StatusOK
	if resp.Status != flagsv1.StatusOK {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

// decodeBody decodes an optional JSON body into v. An empty body leaves v
// untouched. It writes a 400 and returns false on malformed input.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		writeErrorCode(w, http.StatusBadRequest, "invalid JSON body", CodeInvalidArgument)
		return false
	}
	return true
}

// statusRecorder captures the status code for the logging middleware.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs method, path, status and duration of every request.
func (s *FlagServer) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		level := s.logger.Info
		if rec.status >= http.StatusInternalServerError {
			level = s.logger.Error
		}
		level("http request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeErrorCode writes a JSON error response with a machine-readable code.
func writeErrorCode(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, map[string]string{"error": message, "code": code})
}

func writeRegistryError(w http.ResponseWriter, err error) {
	_, httpStatus, code := classify(err)
	writeErrorCode(w, httpStatus, err.Error(), code)
}
