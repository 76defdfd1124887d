package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/p-n-ai/pai-lms/internal/audit"
	"github.com/p-n-ai/pai-lms/internal/backend"
	"github.com/p-n-ai/pai-lms/internal/editor"
	"github.com/p-n-ai/pai-lms/internal/explorer"
	"github.com/p-n-ai/pai-lms/internal/lesson"
	"github.com/p-n-ai/pai-lms/internal/realtime"
)

const (
	defaultEventLimit = 50
	xlsxContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func (s *Server) handleListLessons(w http.ResponseWriter, r *http.Request) {
	list, err := s.lessons.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type createLessonRequest struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Subject string `json:"subject"`
	Grade   string `json:"grade"`
}

// handleCreateLesson starts an empty document.
func (s *Server) handleCreateLesson(w http.ResponseWriter, r *http.Request) {
	var req createLessonRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	title := editor.Clean(req.Title)
	if title == "" {
		writeError(w, &editor.ValidationError{Fields: map[string]string{"title": "is required"}})
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	ctx := r.Context()
	_, err := s.lessons.Get(ctx, req.ID)
	switch {
	case err == nil:
		writeError(w, fmt.Errorf("lesson %s: %w", req.ID, errConflict))
		return
	case !errors.Is(err, backend.ErrNotFound):
		writeError(w, err)
		return
	}

	doc := lesson.NewDocument(req.ID, title)
	doc.Subject = editor.Clean(req.Subject)
	doc.Grade = editor.Clean(req.Grade)
	if err := s.lessons.Put(ctx, doc); err != nil {
		writeError(w, err)
		return
	}
	s.record(ctx, r, doc, "create", lesson.Root, nil)
	writeDocument(w, http.StatusCreated, doc)
}

func (s *Server) handleStructure(w http.ResponseWriter, r *http.Request) {
	doc, err := s.lessons.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeDocument(w, http.StatusOK, doc)
}

// handlePutLesson replaces a whole document. The body is checked against the
// document schema before it is decoded.
func (s *Server) handlePutLesson(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	doc, err := lesson.DecodeJSON(data)
	if err != nil {
		writeError(w, err)
		return
	}
	if doc.ID != id {
		writeError(w, fmt.Errorf("%w: body id %q does not match %q", lesson.ErrInvalidDocument, doc.ID, id))
		return
	}

	ctx := r.Context()
	if err := s.lessons.Put(ctx, doc); err != nil {
		writeError(w, err)
		return
	}
	s.record(ctx, r, doc, "replace", lesson.Root, nil)
	writeDocument(w, http.StatusOK, doc)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	doc, err := s.lessons.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := lesson.ExportXLSX(doc, &buf); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.ID+".xlsx"))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, fmt.Errorf("%w: limit must be a positive integer", errBadRequest))
			return
		}
		limit = min(n, audit.DefaultMemoryLimit)
	}
	events, err := s.events.Recent(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.lessons.Get(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	s.hub.ServeWS(w, r, id)
}

// handleInsert serves POST /lessons/{id}/term[/{t}/topic...]: the trailing
// level name is the kind of node to append under the path before it.
func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("path")
	parentRaw, childName := "", raw
	if i := strings.LastIndex(raw, "/"); i >= 0 {
		parentRaw, childName = raw[:i], raw[i+1:]
	}
	parent, err := lesson.ParsePath(parentRaw)
	if err != nil {
		writeError(w, err)
		return
	}
	level, err := lesson.ParseLevel(childName)
	if err != nil {
		writeError(w, err)
		return
	}
	if child, ok := parent.Level.Child(); !ok || child != level {
		writeError(w, fmt.Errorf("%w: cannot add a %s under %s", lesson.ErrInvalidLevel, level, parent.Level))
		return
	}
	node, err := decodeNode(w, r, level)
	if err != nil {
		writeError(w, err)
		return
	}
	s.apply(w, r, lesson.Op{Kind: lesson.OpInsert, Path: parent, Node: node}, http.StatusCreated)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	path, err := parseNodePath(r.PathValue("path"))
	if err != nil {
		writeError(w, err)
		return
	}
	node, err := decodeNode(w, r, path.Level)
	if err != nil {
		writeError(w, err)
		return
	}
	s.apply(w, r, lesson.Op{Kind: lesson.OpUpdate, Path: path, Node: node}, http.StatusOK)
}

// handleDelete removes a subtree. The request must carry confirm=true.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	path, err := parseNodePath(r.PathValue("path"))
	if err != nil {
		writeError(w, err)
		return
	}
	if r.URL.Query().Get("confirm") != "true" {
		writeError(w, fmt.Errorf("delete %s: %w", path, explorer.ErrConfirmationRequired))
		return
	}
	s.apply(w, r, lesson.Op{Kind: lesson.OpDelete, Path: path}, http.StatusOK)
}

func (s *Server) apply(w http.ResponseWriter, r *http.Request, op lesson.Op, status int) {
	ctx := r.Context()
	id := r.PathValue("id")
	doc, err := s.lessons.Apply(ctx, id, op)
	if err != nil {
		writeError(w, err)
		return
	}
	var data map[string]any
	if op.Node != nil {
		data = map[string]any{"level": op.Level().String(), "title": op.Node.NodeTitle()}
	}
	s.record(ctx, r, doc, string(op.Kind), op.Path, data)
	writeDocument(w, status, doc)
}

// record writes the audit event and notifies change-feed subscribers. Neither
// failure fails the request.
func (s *Server) record(ctx context.Context, r *http.Request, doc *lesson.Document, op string, path lesson.Path, data map[string]any) {
	err := s.events.LogEvent(ctx, audit.Event{
		LessonID:  doc.ID,
		ActorRole: r.Header.Get(HeaderRole),
		Op:        op,
		Path:      path.String(),
		Data:      data,
	})
	if err != nil {
		slog.Warn("failed to log lesson event", "lesson_id", doc.ID, "op", op, "error", err)
	}

	rev, err := lesson.Revision(doc)
	if err != nil {
		slog.Warn("failed to compute revision", "lesson_id", doc.ID, "error", err)
		return
	}
	s.hub.Publish(realtime.Change{LessonID: doc.ID, Op: op, Path: path.String(), Revision: rev})
}

// writeDocument sends doc with its revision as the ETag.
func writeDocument(w http.ResponseWriter, status int, doc *lesson.Document) {
	if rev, err := lesson.Revision(doc); err == nil {
		w.Header().Set("ETag", strconv.Quote(rev))
	}
	writeJSON(w, status, doc)
}

// nodeBody is a node payload: the editor fields, an optional id and, for
// updates, an optional replacement child list. A missing or null child list
// keeps the node's children.
type nodeBody struct {
	ID string `json:"id"`
	editor.Draft
	Topics   json.RawMessage `json:"topics"`
	Lessons  json.RawMessage `json:"lessons"`
	Chapters json.RawMessage `json:"chapters"`
}

// decodeNode runs the body through the editor for level, so the API accepts
// exactly what the editors accept, then attaches any child list it carries.
func decodeNode(w http.ResponseWriter, r *http.Request, level lesson.Level) (lesson.Node, error) {
	var body nodeBody
	if err := decode(w, r, &body); err != nil {
		return nil, err
	}
	ed, err := editor.For(level, nil)
	if err != nil {
		return nil, err
	}
	if _, err := ed.Open(r.Context(), nil); err != nil {
		return nil, err
	}
	node, err := ed.Submit(r.Context(), body.Draft)
	if err != nil {
		return nil, err
	}
	return withChildren(withID(node, strings.TrimSpace(body.ID)), body)
}

func withID(n lesson.Node, id string) lesson.Node {
	switch v := n.(type) {
	case lesson.Term:
		v.ID = id
		return v
	case lesson.Topic:
		v.ID = id
		return v
	case lesson.Lesson:
		v.ID = id
		return v
	case lesson.Chapter:
		v.ID = id
		return v
	}
	return n
}

// withChildren sets the child list body carries for n's level. The tree
// checks the children when the node is applied.
func withChildren(n lesson.Node, body nodeBody) (lesson.Node, error) {
	var err error
	switch v := n.(type) {
	case lesson.Term:
		err = decodeChildren(body.Topics, &v.Topics)
		n = v
	case lesson.Topic:
		err = decodeChildren(body.Lessons, &v.Lessons)
		n = v
	case lesson.Lesson:
		err = decodeChildren(body.Chapters, &v.Chapters)
		n = v
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

func decodeChildren[T any](raw json.RawMessage, dst *[]T) error {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var list []T
	if err := json.Unmarshal(raw, &list); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	if list == nil {
		list = []T{}
	}
	*dst = list
	return nil
}

// parseNodePath parses "term/0/topic/1" into a path that addresses a node.
func parseNodePath(raw string) (lesson.Path, error) {
	p, err := lesson.ParsePath(raw)
	if err != nil {
		return lesson.Path{}, err
	}
	if p.Level == lesson.LevelDocument {
		return lesson.Path{}, fmt.Errorf("%w: path %q names no node", lesson.ErrInvalidLevel, raw)
	}
	return p, nil
}
