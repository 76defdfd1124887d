package lesson_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/p-n-ai/pai-lms/internal/lesson"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		in      string
		want    lesson.Path
		wantErr error
	}{
		{"", lesson.Root, nil},
		{"term/2", lesson.PathTo(2), nil},
		{"term/0/topic/1/lesson/2/chapter/3", lesson.PathTo(0, 1, 2, 3), nil},
		{"/term/0/topic/1/", lesson.PathTo(0, 1), nil},
		{"term", lesson.Path{}, lesson.ErrInvalidPath},
		{"term/x", lesson.Path{}, lesson.ErrInvalidPath},
		{"term/-1", lesson.Path{}, lesson.ErrInvalidPath},
		{"topic/0", lesson.Path{}, lesson.ErrInvalidLevel},
		{"term/0/lesson/0", lesson.Path{}, lesson.ErrInvalidLevel},
		{"unit/0", lesson.Path{}, lesson.ErrInvalidLevel},
		{"term/0/topic/0/lesson/0/chapter/0/term/0", lesson.Path{}, lesson.ErrInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := lesson.ParsePath(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParsePath(%q) error = %v, want %v", tt.in, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePath(%q) error = %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParsePath(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestPath_StringRoundTrip(t *testing.T) {
	for _, p := range []lesson.Path{lesson.Root, lesson.PathTo(3), lesson.PathTo(1, 0, 4), lesson.PathTo(0, 0, 0, 7)} {
		got, err := lesson.ParsePath(p.String())
		if err != nil {
			t.Fatalf("ParsePath(%q) error = %v", p, err)
		}
		if !got.Equal(p) {
			t.Errorf("round trip of %q = %q", p, got)
		}
	}
}

func TestPath_Navigation(t *testing.T) {
	p := lesson.PathTo(1, 2)
	if got := p.Child(3); !got.Equal(lesson.PathTo(1, 2, 3)) {
		t.Errorf("Child(3) = %s", got)
	}
	if got := p.Parent(); !got.Equal(lesson.PathTo(1)) {
		t.Errorf("Parent() = %s", got)
	}
	if got := lesson.PathTo(1).Parent(); !got.Equal(lesson.Root) {
		t.Errorf("term parent = %s, want root", got)
	}
	// Indices below the level do not take part in equality.
	deep := lesson.Path{Level: lesson.LevelTerm, Term: 1, Topic: 9}
	if !deep.Equal(lesson.PathTo(1)) {
		t.Error("Equal compared indices below the level")
	}
}

func TestPath_JSON(t *testing.T) {
	data, err := json.Marshal(lesson.PathTo(0, 2))
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if m["type"] != "topic" || m["topicIndex"] != float64(2) {
		t.Errorf("encoded = %s", data)
	}
	if _, ok := m["lessonIndex"]; ok {
		t.Errorf("encoded deeper index: %s", data)
	}

	var back lesson.Path
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if !back.Equal(lesson.PathTo(0, 2)) {
		t.Errorf("decoded = %s", back)
	}
}

func TestPath_String(t *testing.T) {
	tests := []struct {
		path lesson.Path
		want string
	}{
		{lesson.Root, ""},
		{lesson.PathTo(2), "term/2"},
		{lesson.PathTo(0, 1, 2, 3), "term/0/topic/1/lesson/2/chapter/3"},
		{lesson.PathTo(0, 1).Child(4), "term/0/topic/1/lesson/4"},
		{lesson.PathTo(0, 1, 2).Parent(), "term/0/topic/1"},
	}
	for _, tt := range tests {
		if got := tt.path.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
