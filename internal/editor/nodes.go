package editor

import (
	"context"

	"github.com/p-n-ai/pai-lms/internal/lesson"
)

// TermEditor edits term headers.
type TermEditor struct{ session }

func NewTermEditor() *TermEditor { return &TermEditor{} }

func (*TermEditor) Level() lesson.Level { return lesson.LevelTerm }

func (e *TermEditor) Open(_ context.Context, initial lesson.Node) (Draft, error) {
	return open(&e.session, lesson.LevelTerm, initial)
}

func (e *TermEditor) Submit(_ context.Context, d Draft) (lesson.Node, error) {
	if !e.open {
		return nil, ErrNotOpen
	}
	var verr ValidationError
	title, summary := checkHeader(d, &verr)
	if err := verr.orNil(); err != nil {
		return nil, err
	}
	id := e.id()
	e.Cancel()
	return lesson.Term{ID: id, Title: title, Summary: summary, Assessment: d.Assessment.Clone()}, nil
}

// TopicEditor edits topic headers.
type TopicEditor struct{ session }

func NewTopicEditor() *TopicEditor { return &TopicEditor{} }

func (*TopicEditor) Level() lesson.Level { return lesson.LevelTopic }

func (e *TopicEditor) Open(_ context.Context, initial lesson.Node) (Draft, error) {
	return open(&e.session, lesson.LevelTopic, initial)
}

func (e *TopicEditor) Submit(_ context.Context, d Draft) (lesson.Node, error) {
	if !e.open {
		return nil, ErrNotOpen
	}
	var verr ValidationError
	title, summary := checkHeader(d, &verr)
	if err := verr.orNil(); err != nil {
		return nil, err
	}
	id := e.id()
	e.Cancel()
	return lesson.Topic{ID: id, Title: title, Summary: summary, Assessment: d.Assessment.Clone()}, nil
}

// LessonEditor edits lesson headers, including their XP.
type LessonEditor struct{ session }

func NewLessonEditor() *LessonEditor { return &LessonEditor{} }

func (*LessonEditor) Level() lesson.Level { return lesson.LevelLesson }

func (e *LessonEditor) Open(_ context.Context, initial lesson.Node) (Draft, error) {
	return open(&e.session, lesson.LevelLesson, initial)
}

func (e *LessonEditor) Submit(_ context.Context, d Draft) (lesson.Node, error) {
	if !e.open {
		return nil, ErrNotOpen
	}
	var verr ValidationError
	title, summary := checkHeader(d, &verr)
	if err := verr.orNil(); err != nil {
		return nil, err
	}
	id := e.id()
	e.Cancel()
	return lesson.Lesson{
		ID:         id,
		Title:      title,
		Summary:    summary,
		XP:         CoerceXP(d.XP),
		Assessment: d.Assessment.Clone(),
	}, nil
}

func open(s *session, want lesson.Level, initial lesson.Node) (Draft, error) {
	if initial != nil && initial.Level() != want {
		return Draft{}, lesson.ErrInvalidLevel
	}
	s.start(initial)
	if initial == nil {
		return Draft{Assessment: lesson.Questions{}}, nil
	}
	return DraftFrom(initial), nil
}
