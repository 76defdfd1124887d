package explorer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/p-n-ai/pai-lms/internal/editor"
	"github.com/p-n-ai/pai-lms/internal/lesson"
	"github.com/p-n-ai/pai-lms/internal/store"
)

// Source loads and mutates lesson documents. Both backend implementations
// satisfy it.
type Source interface {
	Get(ctx context.Context, id string) (*lesson.Document, error)
	Apply(ctx context.Context, id string, op lesson.Op) (*lesson.Document, error)
}

// Explorer is the lesson explorer for one document: selection state, the
// open editor and the current document.
type Explorer struct {
	id     string
	source Source
	drafts store.Store
	logger *slog.Logger

	mu      sync.Mutex
	doc     *lesson.Document
	machine Machine
	editor  editor.Editor
	opened  lesson.Node // node the editor was opened with; nil when adding
}

// New creates an explorer for document id. drafts backs the chapter draft
// slot and may be nil.
func New(id string, source Source, drafts store.Store) *Explorer {
	return &Explorer{
		id:     id,
		source: source,
		drafts: drafts,
		logger: slog.Default().With("lesson_id", id),
	}
}

// Reload fetches the document and clears the selection.
func (e *Explorer) Reload(ctx context.Context) error {
	doc, err := e.source.Get(ctx, e.id)
	if err != nil {
		return fmt.Errorf("loading lesson %s: %w", e.id, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.doc = doc
	e.machine.Reset()
	e.closeEditor()
	return nil
}

// Document returns the current document. It must not be modified.
func (e *Explorer) Document() *lesson.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc
}

// State returns the selection and mode.
func (e *Explorer) State() (Selection, Mode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.machine.Selection(), e.machine.Mode()
}

// CanAdd reports whether a node of level can be added with the current selection.
func (e *Explorer) CanAdd(level lesson.Level) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.machine.CanAdd(level)
}

// Select selects the node at path. The path must exist.
func (e *Explorer) Select(path lesson.Path) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.loaded(); err != nil {
		return err
	}
	if path.Level == lesson.LevelDocument {
		return fmt.Errorf("%w: cannot select the document", lesson.ErrInvalidLevel)
	}
	if err := lesson.Check(e.doc, path); err != nil {
		return err
	}
	e.closeEditor()
	e.machine.Select(path.Level, path)
	return nil
}

// StartAdd opens the editor for a new node of level.
func (e *Explorer) StartAdd(ctx context.Context, level lesson.Level) (editor.Draft, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.loaded(); err != nil {
		return editor.Draft{}, err
	}
	if err := e.machine.StartAdd(level); err != nil {
		return editor.Draft{}, err
	}
	return e.openEditor(ctx, level, nil)
}

// StartEdit opens the editor on the selected node.
func (e *Explorer) StartEdit(ctx context.Context) (editor.Draft, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.loaded(); err != nil {
		return editor.Draft{}, err
	}
	sel := e.machine.Selection()
	node, err := lesson.Get(e.doc, sel.Path)
	if err != nil {
		return editor.Draft{}, err
	}
	if err := e.machine.StartEdit(); err != nil {
		return editor.Draft{}, err
	}
	return e.openEditor(ctx, sel.Level, node)
}

// StartPreview returns the selected chapter for preview.
func (e *Explorer) StartPreview() (lesson.Chapter, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.loaded(); err != nil {
		return lesson.Chapter{}, err
	}
	if err := e.machine.StartPreview(); err != nil {
		return lesson.Chapter{}, err
	}
	e.closeEditor()
	node, err := lesson.Get(e.doc, e.machine.Selection().Path)
	if err != nil {
		e.machine.Cancel()
		return lesson.Chapter{}, err
	}
	return node.(lesson.Chapter), nil
}

// SaveDraft stores chapter form state while a new chapter is being written.
func (e *Explorer) SaveDraft(ctx context.Context, d editor.Draft) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ch, ok := e.editor.(*editor.ChapterEditor); ok {
		return ch.SaveDraft(ctx, d)
	}
	return nil
}

// Submit validates d in the open editor and commits it. On a validation error
// the editor stays open; on a failed mutation the editor is reopened so the
// same draft can be submitted again, and a new chapter's form is kept in the
// draft slot. The slot is cleared only once the chapter is saved.
func (e *Explorer) Submit(ctx context.Context, d editor.Draft) (*lesson.Document, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.editor == nil {
		return nil, fmt.Errorf("%w: no editor open", ErrTransition)
	}
	node, err := e.editor.Submit(ctx, d)
	if err != nil {
		return nil, err
	}

	ch, isChapter := e.editor.(*editor.ChapterEditor)
	doc, err := e.machine.Commit(ctx, e.doc, node, e.apply)
	if err != nil {
		if e.machine.Mode() == Browsing {
			e.closeEditor()
			return nil, err
		}
		if _, rerr := e.editor.Open(ctx, e.opened); rerr != nil {
			e.logger.Warn("reopening editor", "error", rerr)
		} else if isChapter {
			if serr := ch.SaveDraft(ctx, d); serr != nil {
				e.logger.Warn("keeping chapter draft", "error", serr)
			}
		}
		return nil, err
	}
	e.doc = doc
	if isChapter {
		if cerr := ch.ClearDraft(ctx); cerr != nil {
			e.logger.Warn("clearing chapter draft", "error", cerr)
		}
	}
	e.closeEditor()
	return doc, nil
}

// Cancel closes the editor, keeping any chapter draft, and returns to browsing.
func (e *Explorer) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closeEditor()
	e.machine.Cancel()
}

// Exit is Cancel that also discards the chapter draft.
func (e *Explorer) Exit(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var err error
	if ch, ok := e.editor.(*editor.ChapterEditor); ok {
		err = ch.Exit(ctx)
	}
	e.closeEditor()
	e.machine.Cancel()
	return err
}

// RequestDelete arms deletion of the selected node and returns what a
// confirmation prompt should name. The delete removes the whole subtree.
func (e *Explorer) RequestDelete() (lesson.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.loaded(); err != nil {
		return nil, err
	}
	path, err := e.machine.RequestDelete()
	if err != nil {
		return nil, err
	}
	e.closeEditor()
	node, err := lesson.Get(e.doc, path)
	if err != nil {
		e.machine.Cancel()
		return nil, err
	}
	return node, nil
}

// ConfirmDelete performs the armed delete.
func (e *Explorer) ConfirmDelete(ctx context.Context) (*lesson.Document, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	doc, err := e.machine.ConfirmDelete(ctx, e.doc, e.apply)
	if err != nil {
		return nil, err
	}
	e.doc = doc
	return doc, nil
}

func (e *Explorer) apply(ctx context.Context, op lesson.Op) (*lesson.Document, error) {
	doc, err := e.source.Apply(ctx, e.id, op)
	if err != nil {
		e.logger.Error("applying lesson op", "op", op.Kind, "path", op.Path.String(), "error", err)
		return nil, err
	}
	e.logger.Info("lesson mutated", "op", op.Kind, "level", op.Level().String(), "path", op.Path.String())
	return doc, nil
}

func (e *Explorer) openEditor(ctx context.Context, level lesson.Level, node lesson.Node) (editor.Draft, error) {
	e.closeEditor()
	ed, err := editor.For(level, e.drafts)
	if err != nil {
		e.machine.Cancel()
		return editor.Draft{}, err
	}
	d, err := ed.Open(ctx, node)
	if err != nil {
		e.machine.Cancel()
		return editor.Draft{}, err
	}
	e.editor = ed
	e.opened = node
	return d, nil
}

func (e *Explorer) closeEditor() {
	if e.editor != nil {
		e.editor.Cancel()
	}
	e.editor = nil
	e.opened = nil
}

func (e *Explorer) loaded() error {
	if e.doc == nil {
		return fmt.Errorf("%w: lesson %s not loaded", ErrTransition, e.id)
	}
	return nil
}
