// Package assessment builds an ordered list of questions one draft at a time.
package assessment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/p-n-ai/pai-lms/internal/lesson"
)

// DefaultWordLimit is the word limit of a new written question.
const DefaultWordLimit = 150

// ErrIncomplete is returned by AddQuestion when the current draft is not filled in.
var ErrIncomplete = errors.New("question is incomplete")

// Draft is the question being edited. Only the fields of Type are used when
// it is turned into a lesson.Question.
type Draft struct {
	Type         lesson.QuestionType
	Prompt       string
	Options      []string
	CorrectIndex int
	WordLimit    int
	ImageURL     string
}

func newDraft(t lesson.QuestionType, prompt string) Draft {
	return Draft{
		Type:      t,
		Prompt:    prompt,
		Options:   make([]string, lesson.MinOptions),
		WordLimit: DefaultWordLimit,
	}
}

// Filled reports whether the draft can be accepted: every type needs a
// prompt, and a multiple-choice question needs at least one option.
func (d Draft) Filled() bool {
	if strings.TrimSpace(d.Prompt) == "" {
		return false
	}
	if d.Type == lesson.TypeMultipleChoice {
		for _, o := range d.Options {
			if strings.TrimSpace(o) != "" {
				return true
			}
		}
		return false
	}
	return true
}

// Question converts the draft into its typed form.
func (d Draft) Question() lesson.Question {
	switch d.Type {
	case lesson.TypeWritten:
		limit := d.WordLimit
		if limit < 0 {
			limit = 0
		}
		return lesson.Written{Prompt: d.Prompt, WordLimit: limit}
	case lesson.TypeScenario:
		return lesson.Scenario{Prompt: d.Prompt, ImageURL: d.ImageURL}
	default:
		opts := append([]string(nil), d.Options...)
		for len(opts) < lesson.MinOptions {
			opts = append(opts, "")
		}
		idx := d.CorrectIndex
		if idx < 0 || idx >= len(opts) {
			idx = 0
		}
		return lesson.MultipleChoice{Prompt: d.Prompt, Options: opts, CorrectIndex: idx}
	}
}

// Builder holds the accepted questions and the one currently being edited.
type Builder struct {
	accepted lesson.Questions
	current  Draft
}

// New starts a builder seeded with existing questions. The current draft is
// an empty multiple-choice question.
func New(initial lesson.Questions) *Builder {
	return &Builder{
		accepted: initial.Clone(),
		current:  newDraft(lesson.TypeMultipleChoice, ""),
	}
}

// Current returns a copy of the draft being edited.
func (b *Builder) Current() Draft {
	d := b.current
	d.Options = append([]string(nil), d.Options...)
	return d
}

// Accepted returns the questions accepted so far.
func (b *Builder) Accepted() lesson.Questions {
	return b.accepted.Clone()
}

// SetType switches the draft's kind. Type-specific fields are reset; the
// prompt is kept.
func (b *Builder) SetType(t lesson.QuestionType) error {
	if _, err := lesson.ParseQuestionType(string(t)); err != nil {
		return err
	}
	b.current = newDraft(t, b.current.Prompt)
	return nil
}

// SetPrompt sets the question text (the scenario description for scenarios).
func (b *Builder) SetPrompt(p string) { b.current.Prompt = p }

// SetOption sets option i of a multiple-choice draft.
func (b *Builder) SetOption(i int, v string) error {
	if i < 0 || i >= len(b.current.Options) {
		return fmt.Errorf("option %d out of range (have %d)", i, len(b.current.Options))
	}
	b.current.Options[i] = v
	return nil
}

// AddOption appends an empty option and returns its index.
func (b *Builder) AddOption() int {
	b.current.Options = append(b.current.Options, "")
	return len(b.current.Options) - 1
}

// SetCorrectIndex marks option i as the answer.
func (b *Builder) SetCorrectIndex(i int) error {
	if i < 0 || i >= len(b.current.Options) {
		return fmt.Errorf("correct index %d out of range (have %d)", i, len(b.current.Options))
	}
	b.current.CorrectIndex = i
	return nil
}

// SetWordLimit sets the limit of a written draft. Negative values become 0.
func (b *Builder) SetWordLimit(n int) {
	if n < 0 {
		n = 0
	}
	b.current.WordLimit = n
}

// SetImageURL sets the illustration of a scenario draft.
func (b *Builder) SetImageURL(u string) { b.current.ImageURL = u }

// AddQuestion accepts the current draft and starts a fresh one of the same
// type. An incomplete draft is left untouched.
func (b *Builder) AddQuestion() error {
	if !b.current.Filled() {
		return ErrIncomplete
	}
	b.accepted = append(b.accepted, b.current.Question())
	b.current = newDraft(b.current.Type, "")
	return nil
}

// Save returns the final list: the accepted questions plus the current
// draft when it is filled in, even if AddQuestion was never called for it.
func (b *Builder) Save() lesson.Questions {
	out := b.accepted.Clone()
	if out == nil {
		out = lesson.Questions{}
	}
	if b.current.Filled() {
		out = append(out, b.current.Question())
	}
	return out
}

// Remove drops accepted question i.
func (b *Builder) Remove(i int) error {
	if i < 0 || i >= len(b.accepted) {
		return fmt.Errorf("question %d out of range (have %d)", i, len(b.accepted))
	}
	b.accepted = append(b.accepted[:i:i], b.accepted[i+1:]...)
	return nil
}
