// Package editor validates the drafts submitted from the term, topic, lesson
// and chapter editors and turns them into tree nodes.
package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/p-n-ai/pai-lms/internal/lesson"
	"github.com/p-n-ai/pai-lms/internal/store"
)

// ErrValidation is matched by every *ValidationError, as is
// lesson.ErrInvalidNode.
var ErrValidation = errors.New("validation failed")

// ErrNotOpen is returned by Submit on a closed editor.
var ErrNotOpen = errors.New("editor is not open")

// ValidationError lists the rejected fields and their messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, k := range names {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() []error { return []error{ErrValidation, lesson.ErrInvalidNode} }

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Draft is the form state of an editor. XP accepts whatever the form sent
// (number or string) and is coerced on submit.
type Draft struct {
	Title      string           `json:"title"`
	Summary    string           `json:"summary"`
	Content    string           `json:"content,omitempty"`
	XP         any              `json:"xp,omitempty"`
	Assessment lesson.Questions `json:"assessment"`
}

// DraftFrom seeds a draft from an existing node.
func DraftFrom(n lesson.Node) Draft {
	d := Draft{
		Title:      n.NodeTitle(),
		Summary:    n.NodeSummary(),
		Assessment: n.Questions().Clone(),
	}
	switch v := n.(type) {
	case lesson.Lesson:
		d.XP = v.XP
	case lesson.Chapter:
		d.XP = v.XP
		d.Content = v.Content
	}
	return d
}

// Editor is one of the four modal editors. Open with a nil node starts a
// create; with a node it edits that node.
type Editor interface {
	Level() lesson.Level
	Open(ctx context.Context, initial lesson.Node) (Draft, error)
	Submit(ctx context.Context, d Draft) (lesson.Node, error)
	Cancel()
	IsOpen() bool
	Editing() bool
}

// For returns a fresh editor for nodes of level l. The store is only used by
// the chapter editor's draft slot.
func For(l lesson.Level, s store.Store) (Editor, error) {
	switch l {
	case lesson.LevelTerm:
		return NewTermEditor(), nil
	case lesson.LevelTopic:
		return NewTopicEditor(), nil
	case lesson.LevelLesson:
		return NewLessonEditor(), nil
	case lesson.LevelChapter:
		return NewChapterEditor(s), nil
	}
	return nil, fmt.Errorf("%w: no editor for %s", lesson.ErrInvalidLevel, l)
}

// CoerceXP turns form input into a non-negative integer. Anything that is not
// a number becomes 0.
func CoerceXP(v any) int {
	var f float64
	switch x := v.(type) {
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case float64:
		f = x
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return 0
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		f = n
	default:
		return 0
	}
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}

// Clean applies NFC normalisation and trims surrounding whitespace, the same
// cleaning the tree applies to stored text.
func Clean(s string) string {
	return lesson.CleanText(s)
}

// session is the open/closed state shared by all editors.
type session struct {
	open     bool
	existing lesson.Node
}

func (s *session) start(initial lesson.Node) {
	s.open = true
	s.existing = initial
}

func (s *session) Cancel() {
	s.open = false
	s.existing = nil
}

func (s *session) IsOpen() bool  { return s.open }
func (s *session) Editing() bool { return s.open && s.existing != nil }

func (s *session) id() string {
	if s.existing == nil {
		return ""
	}
	return s.existing.NodeID()
}

// checkHeader validates the fields every editor has and returns them cleaned.
func checkHeader(d Draft, verr *ValidationError) (title, summary string) {
	title, summary = Clean(d.Title), Clean(d.Summary)
	if title == "" {
		verr.add("title", "is required")
	}
	if summary == "" {
		verr.add("summary", "is required")
	}
	if err := d.Assessment.Validate(); err != nil {
		verr.add("assessment", err.Error())
	}
	return title, summary
}
