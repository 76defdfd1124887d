package editor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/p-n-ai/pai-lms/internal/lesson"
	"github.com/p-n-ai/pai-lms/internal/store"
)

// Chapter defaults for a new chapter.
const (
	DefaultChapterXP      = 10
	DefaultChapterContent = "<p>Start writing your chapter...</p>"
)

var chapterDraft = store.Collection{Key: store.KeyChapterDraft}

// ChapterEditor edits chapters. Work on a new chapter is kept in the store's
// draft slot until the chapter is saved or the editor is exited.
type ChapterEditor struct {
	session
	store store.Store
}

// NewChapterEditor creates a chapter editor. A nil store disables drafts.
func NewChapterEditor(s store.Store) *ChapterEditor {
	return &ChapterEditor{store: s}
}

func (*ChapterEditor) Level() lesson.Level { return lesson.LevelChapter }

// Open starts editing initial, or a new chapter when initial is nil. A new
// chapter resumes from the saved draft when there is one.
func (e *ChapterEditor) Open(ctx context.Context, initial lesson.Node) (Draft, error) {
	d, err := open(&e.session, lesson.LevelChapter, initial)
	if err != nil {
		return Draft{}, err
	}
	if initial != nil {
		return d, nil
	}

	d.XP = DefaultChapterXP
	d.Content = DefaultChapterContent
	if e.store == nil {
		return d, nil
	}

	var saved Draft
	found, err := store.ReadJSON(ctx, e.store, chapterDraft.Key, &saved)
	if err != nil {
		// A broken draft is dropped rather than blocking the editor.
		slog.Warn("ignoring chapter draft", "error", err)
		return d, nil
	}
	if !found {
		return d, nil
	}
	if CoerceXP(saved.XP) == 0 {
		saved.XP = DefaultChapterXP
	}
	if saved.Assessment == nil {
		saved.Assessment = lesson.Questions{}
	}
	return saved, nil
}

// SaveDraft stores the in-progress form. Drafts are only kept for new chapters.
func (e *ChapterEditor) SaveDraft(ctx context.Context, d Draft) error {
	if !e.open || e.existing != nil || e.store == nil {
		return nil
	}
	if err := chapterDraft.Save(ctx, e.store, d); err != nil {
		return fmt.Errorf("saving chapter draft: %w", err)
	}
	return nil
}

// Submit validates d. A chapter needs a body and at least one question on top
// of the common title and summary.
func (e *ChapterEditor) Submit(ctx context.Context, d Draft) (lesson.Node, error) {
	if !e.open {
		return nil, ErrNotOpen
	}
	var verr ValidationError
	title, summary := checkHeader(d, &verr)
	content := Clean(d.Content)
	if content == "" {
		verr.add("content", "is required")
	}
	if len(d.Assessment) == 0 {
		verr.add("assessment", "needs at least one question")
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	ch := lesson.Chapter{
		ID:         e.id(),
		Title:      title,
		Summary:    summary,
		Content:    content,
		XP:         CoerceXP(d.XP),
		Assessment: d.Assessment.Clone(),
	}
	e.Cancel()
	return ch, nil
}

// Exit closes the editor and discards the draft.
func (e *ChapterEditor) Exit(ctx context.Context) error {
	e.Cancel()
	return e.ClearDraft(ctx)
}

// ClearDraft empties the draft slot. Submit leaves the slot alone; the caller
// clears it once the chapter has been saved.
func (e *ChapterEditor) ClearDraft(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	if err := e.store.Delete(ctx, chapterDraft.Key); err != nil {
		return fmt.Errorf("clearing chapter draft: %w", err)
	}
	return nil
}
