package lesson

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// OpKind is the kind of tree mutation.
type OpKind string

const (
	OpInsert OpKind = "insert"
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"
)

// ErrNilDocument is returned when an operation is applied to no document.
var ErrNilDocument = errors.New("nil document")

// Op is a single mutation. For inserts Path addresses the parent; for updates
// and deletes it addresses the node itself. Node is ignored for deletes.
type Op struct {
	Kind OpKind
	Path Path
	Node Node
}

// Level returns the level of the node the op creates, replaces or removes.
func (op Op) Level() Level {
	if op.Kind == OpInsert {
		if op.Node != nil {
			return op.Node.Level()
		}
		l, _ := op.Path.Level.Child()
		return l
	}
	return op.Path.Level
}

// Apply performs op against doc and returns the new document. doc itself is
// never modified; only the spine leading to the change is copied.
func Apply(doc *Document, op Op) (*Document, error) {
	switch op.Kind {
	case OpInsert:
		return Insert(doc, op.Path, op.Node)
	case OpUpdate:
		return Update(doc, op.Path, op.Node)
	case OpDelete:
		return Delete(doc, op.Path)
	default:
		return nil, fmt.Errorf("unknown op kind %q", op.Kind)
	}
}

// Insert appends node as the last child of the node at parent. The inserted
// node is cleaned and checked, starts with an empty child list and gets an id
// if it has none.
func Insert(doc *Document, parent Path, node Node) (*Document, error) {
	if err := Check(doc, parent); err != nil {
		return nil, err
	}
	if node == nil {
		return nil, fmt.Errorf("%w: no payload", ErrInvalidLevel)
	}
	if want, ok := parent.Level.Child(); !ok || node.Level() != want {
		return nil, fmt.Errorf("%w: cannot insert %s under %s", ErrInvalidLevel, node.Level(), parent.Level)
	}

	switch n := node.(type) {
	case Term:
		n.Topics = nil
		t, err := prepareTerm(n)
		if err != nil {
			return nil, err
		}
		t.ID = ensureID(t.ID)
		t.Topics = []Topic{}
		return editTerms(doc, func(s []Term) []Term { return appended(s, t) }), nil
	case Topic:
		n.Lessons = nil
		p, err := prepareTopic(n)
		if err != nil {
			return nil, err
		}
		p.ID = ensureID(p.ID)
		p.Lessons = []Lesson{}
		return editTopics(doc, parent, func(s []Topic) []Topic { return appended(s, p) }), nil
	case Lesson:
		n.Chapters = nil
		l, err := prepareLesson(n)
		if err != nil {
			return nil, err
		}
		l.ID = ensureID(l.ID)
		l.Chapters = []Chapter{}
		return editLessons(doc, parent, func(s []Lesson) []Lesson { return appended(s, l) }), nil
	case Chapter:
		c, err := prepareChapter(n)
		if err != nil {
			return nil, err
		}
		c.ID = ensureID(c.ID)
		return editChapters(doc, parent, func(s []Chapter) []Chapter { return appended(s, c) }), nil
	default:
		return nil, fmt.Errorf("%w: unsupported node %T", ErrInvalidLevel, node)
	}
}

// Update replaces the fields of the node at path. Children are kept when the
// payload's child list is nil and replaced by it otherwise; the id is kept
// when the payload has none.
func Update(doc *Document, path Path, node Node) (*Document, error) {
	if err := Check(doc, path); err != nil {
		return nil, err
	}
	if node == nil || node.Level() != path.Level {
		return nil, fmt.Errorf("%w: payload does not match %s", ErrInvalidLevel, path.Level)
	}

	switch n := node.(type) {
	case Term:
		old := doc.Terms[path.Term]
		t, err := prepareTerm(n)
		if err != nil {
			return nil, err
		}
		t.ID = keepID(t.ID, old.ID)
		if t.Topics == nil {
			t.Topics = old.Topics
		}
		return editTerms(doc, func(s []Term) []Term { return replaced(s, path.Term, t) }), nil
	case Topic:
		old := doc.Terms[path.Term].Topics[path.Topic]
		p, err := prepareTopic(n)
		if err != nil {
			return nil, err
		}
		p.ID = keepID(p.ID, old.ID)
		if p.Lessons == nil {
			p.Lessons = old.Lessons
		}
		return editTopics(doc, path, func(s []Topic) []Topic { return replaced(s, path.Topic, p) }), nil
	case Lesson:
		old := doc.Terms[path.Term].Topics[path.Topic].Lessons[path.Lesson]
		l, err := prepareLesson(n)
		if err != nil {
			return nil, err
		}
		l.ID = keepID(l.ID, old.ID)
		if l.Chapters == nil {
			l.Chapters = old.Chapters
		}
		return editLessons(doc, path, func(s []Lesson) []Lesson { return replaced(s, path.Lesson, l) }), nil
	case Chapter:
		old := doc.Terms[path.Term].Topics[path.Topic].Lessons[path.Lesson].Chapters[path.Chapter]
		c, err := prepareChapter(n)
		if err != nil {
			return nil, err
		}
		c.ID = keepID(c.ID, old.ID)
		return editChapters(doc, path, func(s []Chapter) []Chapter { return replaced(s, path.Chapter, c) }), nil
	default:
		return nil, fmt.Errorf("%w: unsupported node %T", ErrInvalidLevel, node)
	}
}

// Delete removes the node at path together with its subtree.
func Delete(doc *Document, path Path) (*Document, error) {
	if err := Check(doc, path); err != nil {
		return nil, err
	}
	switch path.Level {
	case LevelTerm:
		return editTerms(doc, func(s []Term) []Term { return removed(s, path.Term) }), nil
	case LevelTopic:
		return editTopics(doc, path, func(s []Topic) []Topic { return removed(s, path.Topic) }), nil
	case LevelLesson:
		return editLessons(doc, path, func(s []Lesson) []Lesson { return removed(s, path.Lesson) }), nil
	case LevelChapter:
		return editChapters(doc, path, func(s []Chapter) []Chapter { return removed(s, path.Chapter) }), nil
	default:
		return nil, fmt.Errorf("%w: cannot delete the %s", ErrInvalidLevel, path.Level)
	}
}

// Check verifies that every index of path exists in doc.
func Check(doc *Document, path Path) error {
	if doc == nil {
		return ErrNilDocument
	}
	if path.Level < LevelDocument || path.Level > LevelChapter {
		return fmt.Errorf("%w: %s", ErrInvalidLevel, path.Level)
	}
	if path.Level == LevelDocument {
		return nil
	}
	if !inRange(path.Term, len(doc.Terms)) {
		return outOfRange(LevelTerm, path.Term, len(doc.Terms))
	}
	if path.Level == LevelTerm {
		return nil
	}
	term := doc.Terms[path.Term]
	if !inRange(path.Topic, len(term.Topics)) {
		return outOfRange(LevelTopic, path.Topic, len(term.Topics))
	}
	if path.Level == LevelTopic {
		return nil
	}
	topic := term.Topics[path.Topic]
	if !inRange(path.Lesson, len(topic.Lessons)) {
		return outOfRange(LevelLesson, path.Lesson, len(topic.Lessons))
	}
	if path.Level == LevelLesson {
		return nil
	}
	les := topic.Lessons[path.Lesson]
	if !inRange(path.Chapter, len(les.Chapters)) {
		return outOfRange(LevelChapter, path.Chapter, len(les.Chapters))
	}
	return nil
}

// Get returns the node at path.
func Get(doc *Document, path Path) (Node, error) {
	if err := Check(doc, path); err != nil {
		return nil, err
	}
	switch path.Level {
	case LevelTerm:
		return doc.Terms[path.Term], nil
	case LevelTopic:
		return doc.Terms[path.Term].Topics[path.Topic], nil
	case LevelLesson:
		return doc.Terms[path.Term].Topics[path.Topic].Lessons[path.Lesson], nil
	case LevelChapter:
		return doc.Terms[path.Term].Topics[path.Topic].Lessons[path.Lesson].Chapters[path.Chapter], nil
	default:
		return nil, fmt.Errorf("%w: the document is not a node", ErrInvalidLevel)
	}
}

// Resolve finds the current path of the node with the given id.
func Resolve(doc *Document, id string) (Path, bool) {
	if doc == nil || id == "" {
		return Path{}, false
	}
	for t, term := range doc.Terms {
		if term.ID == id {
			return PathTo(t), true
		}
		for p, topic := range term.Topics {
			if topic.ID == id {
				return PathTo(t, p), true
			}
			for l, les := range topic.Lessons {
				if les.ID == id {
					return PathTo(t, p, l), true
				}
				for c, ch := range les.Chapters {
					if ch.ID == id {
						return PathTo(t, p, l, c), true
					}
				}
			}
		}
	}
	return Path{}, false
}

// AssignIDs gives every node without an id a fresh one, in place.
func AssignIDs(doc *Document) {
	for t := range doc.Terms {
		term := &doc.Terms[t]
		term.ID = ensureID(term.ID)
		for p := range term.Topics {
			topic := &term.Topics[p]
			topic.ID = ensureID(topic.ID)
			for l := range topic.Lessons {
				les := &topic.Lessons[l]
				les.ID = ensureID(les.ID)
				for c := range les.Chapters {
					les.Chapters[c].ID = ensureID(les.Chapters[c].ID)
				}
			}
		}
	}
}

// The edit* helpers rebuild the spine from the document down to one child
// list. Callers must have run Check first.

func editTerms(doc *Document, fn func([]Term) []Term) *Document {
	out := *doc
	out.Terms = fn(doc.Terms)
	return &out
}

func editTopics(doc *Document, at Path, fn func([]Topic) []Topic) *Document {
	return editTerms(doc, func(terms []Term) []Term {
		term := terms[at.Term]
		term.Topics = fn(term.Topics)
		return replaced(terms, at.Term, term)
	})
}

func editLessons(doc *Document, at Path, fn func([]Lesson) []Lesson) *Document {
	return editTopics(doc, at, func(topics []Topic) []Topic {
		topic := topics[at.Topic]
		topic.Lessons = fn(topic.Lessons)
		return replaced(topics, at.Topic, topic)
	})
}

func editChapters(doc *Document, at Path, fn func([]Chapter) []Chapter) *Document {
	return editLessons(doc, at, func(lessons []Lesson) []Lesson {
		les := lessons[at.Lesson]
		les.Chapters = fn(les.Chapters)
		return replaced(lessons, at.Lesson, les)
	})
}

func appended[T any](s []T, v T) []T {
	out := make([]T, len(s), len(s)+1)
	copy(out, s)
	return append(out, v)
}

func replaced[T any](s []T, i int, v T) []T {
	out := make([]T, len(s))
	copy(out, s)
	out[i] = v
	return out
}

func removed[T any](s []T, i int) []T {
	out := make([]T, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...)
}

func inRange(i, n int) bool { return i >= 0 && i < n }

func outOfRange(l Level, idx, n int) error {
	return fmt.Errorf("%w: %s index %d, have %d", ErrPathOutOfRange, l, idx, n)
}

func ensureID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

func keepID(id, old string) string {
	if id == "" {
		return old
	}
	return id
}
