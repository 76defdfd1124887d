package assessment_test

import (
	"errors"
	"testing"

	"github.com/p-n-ai/pai-lms/internal/assessment"
	"github.com/p-n-ai/pai-lms/internal/lesson"
)

func TestNew_Defaults(t *testing.T) {
	b := assessment.New(nil)
	d := b.Current()

	if d.Type != lesson.TypeMultipleChoice {
		t.Errorf("Type = %q, want multipleChoice", d.Type)
	}
	if len(d.Options) != 3 {
		t.Errorf("len(Options) = %d, want 3", len(d.Options))
	}
	if d.WordLimit != assessment.DefaultWordLimit {
		t.Errorf("WordLimit = %d, want %d", d.WordLimit, assessment.DefaultWordLimit)
	}
	if d.CorrectIndex != 0 {
		t.Errorf("CorrectIndex = %d, want 0", d.CorrectIndex)
	}
	if got := b.Save(); len(got) != 0 {
		t.Errorf("Save() on empty builder = %d questions, want 0", len(got))
	}
}

func TestSave_FlushesFilledDraft(t *testing.T) {
	b := assessment.New(nil)
	b.SetPrompt("2+2?")
	for i, o := range []string{"3", "4", "5"} {
		if err := b.SetOption(i, o); err != nil {
			t.Fatalf("SetOption(%d) error = %v", i, err)
		}
	}
	if err := b.SetCorrectIndex(1); err != nil {
		t.Fatalf("SetCorrectIndex() error = %v", err)
	}

	got := b.Save()
	if len(got) != 1 {
		t.Fatalf("Save() = %d questions, want 1", len(got))
	}
	mc, ok := got[0].(lesson.MultipleChoice)
	if !ok {
		t.Fatalf("question type = %T, want MultipleChoice", got[0])
	}
	if mc.Prompt != "2+2?" || mc.CorrectIndex != 1 || len(mc.Options) != 3 || mc.Options[1] != "4" {
		t.Errorf("question = %+v", mc)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("saved questions invalid: %v", err)
	}
}

func TestAddQuestion(t *testing.T) {
	b := assessment.New(nil)

	if err := b.AddQuestion(); !errors.Is(err, assessment.ErrIncomplete) {
		t.Fatalf("AddQuestion() on blank draft error = %v, want ErrIncomplete", err)
	}

	b.SetPrompt("Pick one")
	if err := b.AddQuestion(); !errors.Is(err, assessment.ErrIncomplete) {
		t.Fatalf("AddQuestion() with no options error = %v, want ErrIncomplete", err)
	}

	_ = b.SetOption(0, "a")
	if err := b.AddQuestion(); err != nil {
		t.Fatalf("AddQuestion() error = %v", err)
	}
	if n := len(b.Accepted()); n != 1 {
		t.Fatalf("Accepted() = %d, want 1", n)
	}

	d := b.Current()
	if d.Prompt != "" || d.Options[0] != "" {
		t.Errorf("draft not reset after AddQuestion: %+v", d)
	}
	if d.Type != lesson.TypeMultipleChoice {
		t.Errorf("draft type = %q, want type kept", d.Type)
	}

	// The blank draft is not flushed on save.
	if n := len(b.Save()); n != 1 {
		t.Errorf("Save() = %d, want 1", n)
	}
}

func TestSetType_KeepsPrompt(t *testing.T) {
	b := assessment.New(nil)
	b.SetPrompt("Describe the water cycle")
	_ = b.SetOption(0, "x")
	_ = b.SetCorrectIndex(2)

	if err := b.SetType(lesson.TypeWritten); err != nil {
		t.Fatalf("SetType() error = %v", err)
	}
	d := b.Current()
	if d.Prompt != "Describe the water cycle" {
		t.Errorf("Prompt = %q, want kept", d.Prompt)
	}
	if d.Options[0] != "" || d.CorrectIndex != 0 {
		t.Errorf("multiple-choice fields not reset: %+v", d)
	}

	b.SetWordLimit(-5)
	got := b.Save()
	w, ok := got[0].(lesson.Written)
	if !ok {
		t.Fatalf("question type = %T, want Written", got[0])
	}
	if w.WordLimit != 0 {
		t.Errorf("WordLimit = %d, want negative clamped to 0", w.WordLimit)
	}

	if err := b.SetType("essay"); !errors.Is(err, lesson.ErrInvalidQuestion) {
		t.Errorf("SetType(essay) error = %v, want ErrInvalidQuestion", err)
	}
}

func TestScenario(t *testing.T) {
	b := assessment.New(nil)
	_ = b.SetType(lesson.TypeScenario)
	b.SetImageURL("https://example.com/a.png")

	if n := len(b.Save()); n != 0 {
		t.Fatalf("Save() with blank scenario = %d, want 0", n)
	}

	b.SetPrompt("A train leaves at noon")
	got := b.Save()
	s, ok := got[0].(lesson.Scenario)
	if !ok {
		t.Fatalf("question type = %T, want Scenario", got[0])
	}
	if s.ImageURL != "https://example.com/a.png" {
		t.Errorf("ImageURL = %q", s.ImageURL)
	}
}

func TestOptionsAndIndexBounds(t *testing.T) {
	b := assessment.New(nil)

	if err := b.SetOption(3, "x"); err == nil {
		t.Error("SetOption(3) on three options should fail")
	}
	if i := b.AddOption(); i != 3 {
		t.Errorf("AddOption() = %d, want 3", i)
	}
	if err := b.SetOption(3, "d"); err != nil {
		t.Errorf("SetOption(3) after AddOption error = %v", err)
	}
	if err := b.SetCorrectIndex(3); err != nil {
		t.Errorf("SetCorrectIndex(3) error = %v", err)
	}
	if err := b.SetCorrectIndex(-1); err == nil {
		t.Error("SetCorrectIndex(-1) should fail")
	}
}

func TestNew_SeededAndRemove(t *testing.T) {
	initial := lesson.Questions{
		lesson.Written{Prompt: "one", WordLimit: 10},
		lesson.Written{Prompt: "two", WordLimit: 10},
	}
	b := assessment.New(initial)

	if err := b.Remove(0); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := b.Remove(5); err == nil {
		t.Error("Remove(5) should fail")
	}
	got := b.Save()
	if len(got) != 1 || got[0].Text() != "two" {
		t.Errorf("Save() = %+v, want [two]", got)
	}
	if len(initial) != 2 || initial[0].Text() != "one" {
		t.Errorf("initial slice mutated: %+v", initial)
	}
}
