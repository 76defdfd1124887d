package editor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/p-n-ai/pai-lms/internal/editor"
	"github.com/p-n-ai/pai-lms/internal/lesson"
	"github.com/p-n-ai/pai-lms/internal/store"
)

func draftStored(t *testing.T, s *store.MemoryStore) bool {
	t.Helper()
	_, ok, err := s.Read(context.Background(), store.KeyChapterDraft)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	return ok
}

func TestChapterEditor_NewDefaults(t *testing.T) {
	e := editor.NewChapterEditor(store.NewMemoryStore())
	d, err := e.Open(context.Background(), nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if editor.CoerceXP(d.XP) != editor.DefaultChapterXP {
		t.Errorf("XP = %v, want %d", d.XP, editor.DefaultChapterXP)
	}
	if d.Content != editor.DefaultChapterContent {
		t.Errorf("Content = %q", d.Content)
	}
}

func TestChapterEditor_DraftRestoredOnNextOpen(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	first := editor.NewChapterEditor(s)
	_, _ = first.Open(ctx, nil)
	if err := first.SaveDraft(ctx, editor.Draft{Title: "Half done", Summary: "wip", Content: "<p>x</p>", XP: 25, Assessment: oneQuestion}); err != nil {
		t.Fatalf("SaveDraft() error = %v", err)
	}
	first.Cancel()

	second := editor.NewChapterEditor(s)
	d, err := second.Open(ctx, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if d.Title != "Half done" || d.Content != "<p>x</p>" || editor.CoerceXP(d.XP) != 25 {
		t.Errorf("restored draft = %+v", d)
	}
	if len(d.Assessment) != 1 {
		t.Errorf("restored %d questions, want 1", len(d.Assessment))
	}
}

func TestChapterEditor_EditingIgnoresDraft(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	if err := store.WriteJSON(ctx, s, store.KeyChapterDraft, editor.Draft{Title: "stale"}); err != nil {
		t.Fatal(err)
	}

	e := editor.NewChapterEditor(s)
	d, err := e.Open(ctx, lesson.Chapter{ID: "c1", Title: "Chapter 1", Summary: "s", Content: "<p>b</p>", XP: 10})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if d.Title != "Chapter 1" {
		t.Errorf("Title = %q, want the edited chapter's", d.Title)
	}

	// Edits never write the slot.
	if err := e.SaveDraft(ctx, editor.Draft{Title: "other"}); err != nil {
		t.Fatal(err)
	}
	var got editor.Draft
	if _, err := store.ReadJSON(ctx, s, store.KeyChapterDraft, &got); err != nil {
		t.Fatal(err)
	}
	if got.Title != "stale" {
		t.Errorf("draft slot = %q, want untouched", got.Title)
	}
}

func TestChapterEditor_SubmitRules(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	e := editor.NewChapterEditor(s)
	_, _ = e.Open(ctx, nil)
	_ = e.SaveDraft(ctx, editor.Draft{Title: "t"})

	_, err := e.Submit(ctx, editor.Draft{Title: "t", Summary: "s", Content: "  "})
	var verr *editor.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Submit() error = %v, want *ValidationError", err)
	}
	if _, ok := verr.Fields["content"]; !ok {
		t.Error("missing content error")
	}
	if _, ok := verr.Fields["assessment"]; !ok {
		t.Error("missing assessment error")
	}
	if !e.IsOpen() || !draftStored(t, s) {
		t.Fatal("rejected submit must keep the editor open and the draft stored")
	}

	n, err := e.Submit(ctx, editor.Draft{Title: "t", Summary: "s", Content: "<p>b</p>", XP: "7", Assessment: oneQuestion})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if ch := n.(lesson.Chapter); ch.XP != 7 || len(ch.Assessment) != 1 {
		t.Errorf("chapter = %+v", ch)
	}
	if !draftStored(t, s) {
		t.Error("submit must leave the draft slot until the chapter is saved")
	}
	if err := e.ClearDraft(ctx); err != nil {
		t.Fatalf("ClearDraft() error = %v", err)
	}
	if draftStored(t, s) {
		t.Error("draft slot not cleared")
	}
}

func TestChapterEditor_ExitClearsDraft(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	e := editor.NewChapterEditor(s)
	_, _ = e.Open(ctx, nil)
	_ = e.SaveDraft(ctx, editor.Draft{Title: "t"})

	if err := e.Exit(ctx); err != nil {
		t.Fatalf("Exit() error = %v", err)
	}
	if e.IsOpen() {
		t.Error("editor open after Exit")
	}
	if draftStored(t, s) {
		t.Error("draft slot not cleared after Exit")
	}
}

func TestChapterEditor_CorruptDraftIgnored(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	_ = s.Write(ctx, store.KeyChapterDraft, []byte("{not json"))

	d, err := editor.NewChapterEditor(s).Open(ctx, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if d.Content != editor.DefaultChapterContent {
		t.Errorf("Content = %q, want default", d.Content)
	}
}
