// Package httpapi serves the lesson REST API and the classroom mock API.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/p-n-ai/pai-lms/internal/audit"
	"github.com/p-n-ai/pai-lms/internal/backend"
	"github.com/p-n-ai/pai-lms/internal/classroom"
	"github.com/p-n-ai/pai-lms/internal/editor"
	"github.com/p-n-ai/pai-lms/internal/explorer"
	"github.com/p-n-ai/pai-lms/internal/lesson"
	"github.com/p-n-ai/pai-lms/internal/platform/config"
	"github.com/p-n-ai/pai-lms/internal/realtime"
	"github.com/p-n-ai/pai-lms/internal/store"
)

// Request headers set by the session layer in front of the API.
const (
	HeaderRole = "X-User-Role"
	HeaderUser = "X-User-ID"
)

const maxBodyBytes = 1 << 20

// Error codes that have no sentinel in the backend package.
const (
	codeBadRequest           = "bad_request"
	codeForbidden            = "forbidden"
	codeConflict             = "conflict"
	codeConfirmationRequired = "confirmation_required"
)

var (
	errBadRequest = errors.New("bad request")
	errForbidden  = errors.New("role not allowed")
	errConflict   = errors.New("already exists")
)

// Deps are the services the API is built on. Events and Hub may be nil.
type Deps struct {
	Lessons   backend.Backend
	Classroom *classroom.Service
	Events    audit.EventLogger
	Hub       *realtime.Hub
	Auth      config.AuthConfig
	Store     store.Store
}

// Server holds the handlers.
type Server struct {
	lessons   backend.Backend
	classroom *classroom.Service
	events    audit.EventLogger
	hub       *realtime.Hub
	auth      config.AuthConfig
	store     store.Store
}

// New creates a server from d.
func New(d Deps) *Server {
	s := &Server{
		lessons:   d.Lessons,
		classroom: d.Classroom,
		events:    d.Events,
		hub:       d.Hub,
		auth:      d.Auth,
		store:     d.Store,
	}
	if s.events == nil {
		s.events = audit.NopEventLogger{}
	}
	if s.hub == nil {
		s.hub = realtime.NewHub()
	}
	return s
}

// Handler returns the router with every route registered.
func (s *Server) Handler() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	lessonRoles := s.auth.LessonRoles
	mux.HandleFunc("GET /lessons", s.handleListLessons)
	mux.HandleFunc("POST /lessons", requireRole(lessonRoles, s.handleCreateLesson))
	mux.HandleFunc("GET /lessons/{id}/structure", s.handleStructure)
	mux.HandleFunc("PUT /lessons/{id}", requireRole(lessonRoles, s.handlePutLesson))
	mux.HandleFunc("GET /lessons/{id}/export.xlsx", s.handleExport)
	mux.HandleFunc("GET /lessons/{id}/events", s.handleEvents)
	mux.HandleFunc("GET /lessons/{id}/ws", s.handleWS)
	mux.HandleFunc("POST /lessons/{id}/{path...}", requireRole(lessonRoles, s.handleInsert))
	mux.HandleFunc("PATCH /lessons/{id}/{path...}", requireRole(lessonRoles, s.handleUpdate))
	mux.HandleFunc("DELETE /lessons/{id}/{path...}", requireRole(lessonRoles, s.handleDelete))

	mux.HandleFunc("GET /announcements", s.handleAnnouncements)
	mux.HandleFunc("POST /announcements", requireRole(s.auth.AnnouncerRoles, s.handlePostAnnouncement))

	mux.HandleFunc("GET /chat/rooms", s.handleRooms)
	mux.HandleFunc("POST /chat/rooms", s.handleCreateRoom)
	mux.HandleFunc("GET /chat/rooms/{room}/messages", s.handleRoomMessages)
	mux.HandleFunc("POST /chat/rooms/{room}/messages", s.handlePostRoomMessage)
	mux.HandleFunc("GET /dm/messages/{thread}", s.handleThread)
	mux.HandleFunc("POST /dm/messages", s.handleSendDirect)

	rosterRoles := s.auth.RosterRoles
	mux.HandleFunc("GET /faculty", s.handleFaculty)
	mux.HandleFunc("POST /faculty", requireRole(rosterRoles, s.handleAddFaculty))
	mux.HandleFunc("PATCH /faculty/{id}", requireRole(rosterRoles, s.handleUpdateFaculty))
	mux.HandleFunc("DELETE /faculty/{id}", requireRole(rosterRoles, s.handleRemoveFaculty))
	mux.HandleFunc("GET /learners", s.handleLearners)
	mux.HandleFunc("POST /learners", requireRole(rosterRoles, s.handleAddLearner))
	mux.HandleFunc("PATCH /learners/{id}", requireRole(rosterRoles, s.handleUpdateLearner))
	mux.HandleFunc("DELETE /learners/{id}", requireRole(rosterRoles, s.handleRemoveLearner))
	mux.HandleFunc("POST /learners/{id}/login", s.handleLearnerLogin)
	return mux
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if hc, ok := s.store.(store.HealthChecker); ok {
		if err := hc.HealthCheck(r.Context()); err != nil {
			slog.Warn("store not ready", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// requireRole rejects requests whose role header is not in roles.
func requireRole(roles []string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := r.Header.Get(HeaderRole)
		if role == "" || !slices.Contains(roles, role) {
			writeError(w, fmt.Errorf("%w: %q", errForbidden, role))
			return
		}
		next(w, r)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("writing response", "error", err)
	}
}

// writeError maps err onto a status and an ErrorResponse. Unknown errors are
// logged and reported without detail.
func writeError(w http.ResponseWriter, err error) {
	resp := backend.ErrorResponse{Error: err.Error(), Code: backend.Code(err)}
	status := http.StatusBadRequest

	var verr *editor.ValidationError
	switch {
	case errors.As(err, &verr):
		resp.Code = backend.CodeValidation
		resp.Fields = verr.Fields
	case errors.Is(err, backend.ErrNotFound), errors.Is(err, lesson.ErrPathOutOfRange):
		status = http.StatusNotFound
	case errors.Is(err, classroom.ErrNotFound):
		status = http.StatusNotFound
		resp.Code = backend.CodeNotFound
	case resp.Code != "":
		// remaining lesson errors are client errors
	case errors.Is(err, classroom.ErrInvalid), errors.Is(err, errBadRequest):
		resp.Code = codeBadRequest
	case errors.Is(err, errForbidden):
		status = http.StatusForbidden
		resp.Code = codeForbidden
	case errors.Is(err, errConflict):
		status = http.StatusConflict
		resp.Code = codeConflict
	case errors.Is(err, explorer.ErrConfirmationRequired):
		status = http.StatusConflict
		resp.Code = codeConfirmationRequired
	default:
		slog.Error("request failed", "error", err)
		status = http.StatusInternalServerError
		resp = backend.ErrorResponse{Error: "operation failed"}
	}
	writeJSON(w, status, resp)
}
