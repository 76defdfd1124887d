package lesson

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrInvalidNode is returned when an inserted or updated node breaks a field
// rule: blank title or summary, a bad question, or a chapter without content
// or questions.
var ErrInvalidNode = errors.New("invalid node")

// CleanText applies NFC normalisation and trims surrounding whitespace.
func CleanText(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

func checkHeader(l Level, title, summary string, qs Questions) (string, string, error) {
	title, summary = CleanText(title), CleanText(summary)
	if title == "" {
		return "", "", fmt.Errorf("%w: %s title is required", ErrInvalidNode, l)
	}
	if summary == "" {
		return "", "", fmt.Errorf("%w: %s %q: summary is required", ErrInvalidNode, l, title)
	}
	if err := qs.Validate(); err != nil {
		return "", "", fmt.Errorf("%w: %s %q: %w", ErrInvalidNode, l, title, err)
	}
	return title, summary, nil
}

// The prepare functions clean and check a payload node. A nil child list is
// left nil; a supplied one is checked node by node and its nodes get ids.

func prepareTerm(t Term) (Term, error) {
	var err error
	if t.Title, t.Summary, err = checkHeader(LevelTerm, t.Title, t.Summary, t.Assessment); err != nil {
		return Term{}, err
	}
	t.Assessment = t.Assessment.Clone().orEmpty()
	if t.Topics == nil {
		return t, nil
	}
	topics := make([]Topic, len(t.Topics))
	for i, p := range t.Topics {
		p.ID = ensureID(p.ID)
		if p.Lessons == nil {
			p.Lessons = []Lesson{}
		}
		if topics[i], err = prepareTopic(p); err != nil {
			return Term{}, err
		}
	}
	t.Topics = topics
	return t, nil
}

func prepareTopic(p Topic) (Topic, error) {
	var err error
	if p.Title, p.Summary, err = checkHeader(LevelTopic, p.Title, p.Summary, p.Assessment); err != nil {
		return Topic{}, err
	}
	p.Assessment = p.Assessment.Clone().orEmpty()
	if p.Lessons == nil {
		return p, nil
	}
	lessons := make([]Lesson, len(p.Lessons))
	for i, l := range p.Lessons {
		l.ID = ensureID(l.ID)
		if l.Chapters == nil {
			l.Chapters = []Chapter{}
		}
		if lessons[i], err = prepareLesson(l); err != nil {
			return Topic{}, err
		}
	}
	p.Lessons = lessons
	return p, nil
}

func prepareLesson(l Lesson) (Lesson, error) {
	var err error
	if l.Title, l.Summary, err = checkHeader(LevelLesson, l.Title, l.Summary, l.Assessment); err != nil {
		return Lesson{}, err
	}
	l.XP = max(l.XP, 0)
	l.Assessment = l.Assessment.Clone().orEmpty()
	if l.Chapters == nil {
		return l, nil
	}
	chapters := make([]Chapter, len(l.Chapters))
	for i, c := range l.Chapters {
		c.ID = ensureID(c.ID)
		if chapters[i], err = prepareChapter(c); err != nil {
			return Lesson{}, err
		}
	}
	l.Chapters = chapters
	return l, nil
}

func prepareChapter(c Chapter) (Chapter, error) {
	var err error
	if c.Title, c.Summary, err = checkHeader(LevelChapter, c.Title, c.Summary, c.Assessment); err != nil {
		return Chapter{}, err
	}
	c.Content = CleanText(c.Content)
	if c.Content == "" {
		return Chapter{}, fmt.Errorf("%w: chapter %q: content is required", ErrInvalidNode, c.Title)
	}
	if len(c.Assessment) == 0 {
		return Chapter{}, fmt.Errorf("%w: chapter %q: needs at least one question", ErrInvalidNode, c.Title)
	}
	c.XP = max(c.XP, 0)
	c.Assessment = c.Assessment.Clone()
	return c, nil
}
