package editor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/p-n-ai/pai-lms/internal/editor"
	"github.com/p-n-ai/pai-lms/internal/lesson"
)

var oneQuestion = lesson.Questions{
	lesson.MultipleChoice{Prompt: "2+2?", Options: []string{"3", "4", "5"}, CorrectIndex: 1},
}

func TestCoerceXP(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int
	}{
		{"int", 15, 15},
		{"float", 12.7, 12},
		{"numeric string", " 20 ", 20},
		{"negative", -4, 0},
		{"word", "lots", 0},
		{"empty string", "", 0},
		{"nil", nil, 0},
		{"bool", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := editor.CoerceXP(tt.in); got != tt.want {
				t.Errorf("CoerceXP(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestClean(t *testing.T) {
	// "e" + combining acute composes to a single rune under NFC.
	if got := editor.Clean("  Cafe\u0301 \n"); got != "Caf\u00e9" {
		t.Errorf("Clean() = %q, want %q", got, "Caf\u00e9")
	}
}

func TestFor(t *testing.T) {
	for _, l := range []lesson.Level{lesson.LevelTerm, lesson.LevelTopic, lesson.LevelLesson, lesson.LevelChapter} {
		e, err := editor.For(l, nil)
		if err != nil {
			t.Fatalf("For(%s) error = %v", l, err)
		}
		if e.Level() != l {
			t.Errorf("For(%s).Level() = %s", l, e.Level())
		}
	}
	if _, err := editor.For(lesson.LevelDocument, nil); !errors.Is(err, lesson.ErrInvalidLevel) {
		t.Errorf("For(document) error = %v, want ErrInvalidLevel", err)
	}
}

func TestSubmit_RequiresTitleAndSummary(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		draft  editor.Draft
		fields []string
	}{
		{"both blank", editor.Draft{Title: "  ", Summary: ""}, []string{"title", "summary"}},
		{"blank title", editor.Draft{Title: "", Summary: "ok"}, []string{"title"}},
		{"blank summary", editor.Draft{Title: "ok", Summary: "\t"}, []string{"summary"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := editor.NewTopicEditor()
			if _, err := e.Open(ctx, nil); err != nil {
				t.Fatalf("Open() error = %v", err)
			}

			_, err := e.Submit(ctx, tt.draft)
			if !errors.Is(err, editor.ErrValidation) {
				t.Fatalf("Submit() error = %v, want ErrValidation", err)
			}
			var verr *editor.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error %T is not *ValidationError", err)
			}
			for _, f := range tt.fields {
				if _, ok := verr.Fields[f]; !ok {
					t.Errorf("missing field error for %q: %v", f, verr.Fields)
				}
			}
			if !e.IsOpen() {
				t.Error("editor closed after rejected submit")
			}
		})
	}
}

func TestSubmit_Term(t *testing.T) {
	ctx := context.Background()
	e := editor.NewTermEditor()
	_, _ = e.Open(ctx, nil)

	n, err := e.Submit(ctx, editor.Draft{Title: " Term 2 ", Summary: "Geometry"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	term, ok := n.(lesson.Term)
	if !ok {
		t.Fatalf("node = %T, want Term", n)
	}
	if term.Title != "Term 2" || term.ID != "" {
		t.Errorf("term = %+v", term)
	}
	if e.IsOpen() {
		t.Error("editor still open after submit")
	}
	if _, err := e.Submit(ctx, editor.Draft{Title: "x", Summary: "y"}); !errors.Is(err, editor.ErrNotOpen) {
		t.Errorf("Submit() on closed editor error = %v, want ErrNotOpen", err)
	}
}

func TestSubmit_EditKeepsID(t *testing.T) {
	ctx := context.Background()
	e := editor.NewLessonEditor()
	existing := lesson.Lesson{ID: "l-1", Title: "Old", Summary: "s", XP: 5}

	d, err := e.Open(ctx, existing)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !e.Editing() || d.Title != "Old" || editor.CoerceXP(d.XP) != 5 {
		t.Fatalf("Open() draft = %+v, editing = %v", d, e.Editing())
	}

	d.Title = "New"
	d.XP = "abc"
	n, err := e.Submit(ctx, d)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	l := n.(lesson.Lesson)
	if l.ID != "l-1" || l.Title != "New" || l.XP != 0 {
		t.Errorf("lesson = %+v", l)
	}
}

func TestOpen_WrongLevel(t *testing.T) {
	e := editor.NewTermEditor()
	if _, err := e.Open(context.Background(), lesson.Topic{Title: "x"}); !errors.Is(err, lesson.ErrInvalidLevel) {
		t.Errorf("Open(topic) error = %v, want ErrInvalidLevel", err)
	}
	if e.IsOpen() {
		t.Error("editor opened with wrong level")
	}
}

func TestSubmit_RejectsInvalidQuestion(t *testing.T) {
	ctx := context.Background()
	e := editor.NewTermEditor()
	_, _ = e.Open(ctx, nil)

	bad := lesson.Questions{lesson.MultipleChoice{Prompt: "q", Options: []string{"a"}, CorrectIndex: 0}}
	_, err := e.Submit(ctx, editor.Draft{Title: "t", Summary: "s", Assessment: bad})
	if !errors.Is(err, editor.ErrValidation) {
		t.Errorf("Submit() error = %v, want ErrValidation", err)
	}
}
