package lesson

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// QuestionType tags the kind of an assessment question.
type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multipleChoice"
	TypeWritten        QuestionType = "written"
	TypeScenario       QuestionType = "scenario"
)

// MinOptions is the number of options a multiple-choice question carries.
const MinOptions = 3

// ErrInvalidQuestion is returned for questions that violate their type's rules.
var ErrInvalidQuestion = errors.New("invalid question")

// ParseQuestionType validates a wire tag.
func ParseQuestionType(s string) (QuestionType, error) {
	switch QuestionType(s) {
	case TypeMultipleChoice, TypeWritten, TypeScenario:
		return QuestionType(s), nil
	}
	return "", fmt.Errorf("%w: unknown type %q", ErrInvalidQuestion, s)
}

// Question is one of MultipleChoice, Written or Scenario.
type Question interface {
	Type() QuestionType
	Text() string
	Validate() error
	isQuestion()
}

// MultipleChoice asks the learner to pick one of Options.
type MultipleChoice struct {
	Prompt       string
	Options      []string
	CorrectIndex int
}

// Written asks for a free-text answer of at most WordLimit words.
type Written struct {
	Prompt    string
	WordLimit int
}

// Scenario describes a situation, optionally illustrated by ImageURL.
type Scenario struct {
	Prompt   string
	ImageURL string
}

func (MultipleChoice) Type() QuestionType { return TypeMultipleChoice }
func (Written) Type() QuestionType        { return TypeWritten }
func (Scenario) Type() QuestionType       { return TypeScenario }

func (q MultipleChoice) Text() string { return q.Prompt }
func (q Written) Text() string        { return q.Prompt }
func (q Scenario) Text() string       { return q.Prompt }

func (MultipleChoice) isQuestion() {}
func (Written) isQuestion()        {}
func (Scenario) isQuestion()       {}

func (q MultipleChoice) Validate() error {
	if strings.TrimSpace(q.Prompt) == "" {
		return fmt.Errorf("%w: question text is empty", ErrInvalidQuestion)
	}
	if len(q.Options) < MinOptions {
		return fmt.Errorf("%w: multiple choice needs at least %d options, got %d", ErrInvalidQuestion, MinOptions, len(q.Options))
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return fmt.Errorf("%w: correct index %d outside %d options", ErrInvalidQuestion, q.CorrectIndex, len(q.Options))
	}
	return nil
}

func (q Written) Validate() error {
	if strings.TrimSpace(q.Prompt) == "" {
		return fmt.Errorf("%w: question text is empty", ErrInvalidQuestion)
	}
	if q.WordLimit < 0 {
		return fmt.Errorf("%w: negative word limit", ErrInvalidQuestion)
	}
	return nil
}

func (q Scenario) Validate() error {
	if strings.TrimSpace(q.Prompt) == "" {
		return fmt.Errorf("%w: scenario description is empty", ErrInvalidQuestion)
	}
	return nil
}

// Questions is an ordered assessment. It owns the tagged JSON encoding of its
// elements.
type Questions []Question

type questionWire struct {
	Type         QuestionType `json:"type"`
	Question     string       `json:"question"`
	Options      []string     `json:"options,omitempty"`
	CorrectIndex *int         `json:"correctIndex,omitempty"`
	WordLimit    *int         `json:"wordLimit,omitempty"`
	ImageURL     string       `json:"imageUrl,omitempty"`
}

func (qs Questions) MarshalJSON() ([]byte, error) {
	wire := make([]questionWire, 0, len(qs))
	for i, q := range qs {
		w, err := toWire(q)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		wire = append(wire, w)
	}
	return json.Marshal(wire)
}

func (qs *Questions) UnmarshalJSON(data []byte) error {
	var wire []questionWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	out := make(Questions, 0, len(wire))
	for i, w := range wire {
		q, err := fromWire(w)
		if err != nil {
			return fmt.Errorf("question %d: %w", i, err)
		}
		out = append(out, q)
	}
	*qs = out
	return nil
}

// Validate checks every question and reports the first failure with its index.
func (qs Questions) Validate() error {
	for i, q := range qs {
		if q == nil {
			return fmt.Errorf("question %d: %w: nil", i, ErrInvalidQuestion)
		}
		if err := q.Validate(); err != nil {
			return fmt.Errorf("question %d: %w", i, err)
		}
	}
	return nil
}

// Clone returns a copy that shares no option slices with qs.
func (qs Questions) Clone() Questions {
	if qs == nil {
		return nil
	}
	out := make(Questions, len(qs))
	for i, q := range qs {
		if mc, ok := q.(MultipleChoice); ok {
			mc.Options = append([]string(nil), mc.Options...)
			q = mc
		}
		out[i] = q
	}
	return out
}

func (qs Questions) orEmpty() Questions {
	if qs == nil {
		return Questions{}
	}
	return qs
}

func toWire(q Question) (questionWire, error) {
	switch v := q.(type) {
	case MultipleChoice:
		idx := v.CorrectIndex
		return questionWire{Type: TypeMultipleChoice, Question: v.Prompt, Options: v.Options, CorrectIndex: &idx}, nil
	case Written:
		limit := v.WordLimit
		return questionWire{Type: TypeWritten, Question: v.Prompt, WordLimit: &limit}, nil
	case Scenario:
		return questionWire{Type: TypeScenario, Question: v.Prompt, ImageURL: v.ImageURL}, nil
	case nil:
		return questionWire{}, fmt.Errorf("%w: nil", ErrInvalidQuestion)
	default:
		return questionWire{}, fmt.Errorf("%w: unsupported %T", ErrInvalidQuestion, q)
	}
}

func fromWire(w questionWire) (Question, error) {
	typ, err := ParseQuestionType(string(w.Type))
	if err != nil {
		return nil, err
	}
	switch typ {
	case TypeMultipleChoice:
		q := MultipleChoice{Prompt: w.Question, Options: w.Options}
		if w.CorrectIndex != nil {
			q.CorrectIndex = *w.CorrectIndex
		}
		return q, nil
	case TypeWritten:
		q := Written{Prompt: w.Question}
		if w.WordLimit != nil {
			q.WordLimit = *w.WordLimit
		}
		return q, nil
	default:
		return Scenario{Prompt: w.Question, ImageURL: w.ImageURL}, nil
	}
}
