package backend

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/p-n-ai/pai-lms/internal/lesson"
	"github.com/p-n-ai/pai-lms/internal/store"
)

// Lessons is the lesson collection: a map of id to document, holding the
// sample structure until something is written.
var Lessons = store.Collection{
	Key: store.KeyLessons,
	Default: func() any {
		return map[string]*lesson.Document{lesson.SampleID: lesson.Sample()}
	},
}

// Local keeps every document in the lesson collection of a Store. Each write
// replaces the whole collection.
type Local struct {
	store store.Store
	mu    sync.Mutex
}

// NewLocal creates a backend over s.
func NewLocal(s store.Store) *Local {
	return &Local{store: s}
}

func (l *Local) load(ctx context.Context) (map[string]*lesson.Document, error) {
	docs := make(map[string]*lesson.Document)
	if err := Lessons.Load(ctx, l.store, &docs); err != nil {
		return nil, fmt.Errorf("loading lessons: %w", err)
	}
	for id, d := range docs {
		if d == nil {
			delete(docs, id)
			continue
		}
		d.Normalize()
	}
	return docs, nil
}

func (l *Local) Get(ctx context.Context, id string) (*lesson.Document, error) {
	docs, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	doc, ok := docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return doc, nil
}

func (l *Local) List(ctx context.Context) ([]Summary, error) {
	docs, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(docs))
	for _, d := range docs {
		out = append(out, SummaryOf(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Put stores doc, replacing any document with the same id.
func (l *Local) Put(ctx context.Context, doc *lesson.Document) error {
	if err := lesson.Validate(doc); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	docs, err := l.load(ctx)
	if err != nil {
		return err
	}
	docs[doc.ID] = doc
	return Lessons.Save(ctx, l.store, docs)
}

// Seed stores docs that are not present yet and reports how many were added.
func (l *Local) Seed(ctx context.Context, docs ...*lesson.Document) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := l.load(ctx)
	if err != nil {
		return 0, err
	}
	added := 0
	for _, d := range docs {
		if _, ok := current[d.ID]; ok {
			continue
		}
		if err := lesson.Validate(d); err != nil {
			return added, fmt.Errorf("seed %s: %w", d.ID, err)
		}
		current[d.ID] = d
		added++
	}
	if added == 0 {
		return 0, nil
	}
	return added, Lessons.Save(ctx, l.store, current)
}

// Apply runs op on the stored document and writes the result back.
func (l *Local) Apply(ctx context.Context, id string, op lesson.Op) (*lesson.Document, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	docs, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	doc, ok := docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	out, err := lesson.Apply(doc, op)
	if err != nil {
		return nil, err
	}
	docs[id] = out
	if err := Lessons.Save(ctx, l.store, docs); err != nil {
		return nil, err
	}
	return out, nil
}
