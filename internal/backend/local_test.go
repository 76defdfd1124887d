package backend_test

import (
	"context"
	"errors"
	"testing"

	"github.com/p-n-ai/pai-lms/internal/backend"
	"github.com/p-n-ai/pai-lms/internal/lesson"
	"github.com/p-n-ai/pai-lms/internal/platform/config"
	"github.com/p-n-ai/pai-lms/internal/store"
)

func TestLocal_DefaultsToSample(t *testing.T) {
	ctx := context.Background()
	b := backend.NewLocal(store.NewMemoryStore())

	doc, err := b.Get(ctx, lesson.SampleID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if doc.Title != "Algebra Basics" {
		t.Errorf("Title = %q", doc.Title)
	}

	list, err := b.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 || list[0].ID != lesson.SampleID {
		t.Errorf("List() = %+v", list)
	}

	if _, err := b.Get(ctx, "nope"); !errors.Is(err, backend.ErrNotFound) {
		t.Errorf("Get(nope) error = %v, want ErrNotFound", err)
	}
}

func TestLocal_ApplyPersists(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	b := backend.NewLocal(s)

	_, err := b.Apply(ctx, lesson.SampleID, lesson.Op{
		Kind: lesson.OpInsert,
		Path: lesson.Root,
		Node: lesson.Term{Title: "Term 2", Summary: "Geometry"},
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	// A second backend over the same store sees the change.
	doc, err := backend.NewLocal(s).Get(ctx, lesson.SampleID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(doc.Terms) != 2 || doc.Terms[1].Title != "Term 2" {
		t.Errorf("terms = %+v", doc.Terms)
	}
}

func TestLocal_ApplyErrors(t *testing.T) {
	ctx := context.Background()
	b := backend.NewLocal(store.NewMemoryStore())

	del := lesson.Op{Kind: lesson.OpDelete, Path: lesson.PathTo(0)}
	if _, err := b.Apply(ctx, lesson.SampleID, del); err != nil {
		t.Fatalf("first delete error = %v", err)
	}
	if _, err := b.Apply(ctx, lesson.SampleID, del); !errors.Is(err, lesson.ErrPathOutOfRange) {
		t.Errorf("second delete error = %v, want ErrPathOutOfRange", err)
	}
	if _, err := b.Apply(ctx, "missing", del); !errors.Is(err, backend.ErrNotFound) {
		t.Errorf("Apply(missing) error = %v, want ErrNotFound", err)
	}
}

func TestLocal_PutAndSeed(t *testing.T) {
	ctx := context.Background()
	b := backend.NewLocal(store.NewMemoryStore())

	bad := lesson.NewDocument("", "No id")
	if err := b.Put(ctx, bad); !errors.Is(err, lesson.ErrInvalidDocument) {
		t.Errorf("Put() without id error = %v, want ErrInvalidDocument", err)
	}

	geo := lesson.NewDocument("geo", "Geometry")
	if err := b.Put(ctx, geo); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	n, err := b.Seed(ctx, lesson.NewDocument("geo", "Other"), lesson.NewDocument("bio", "Biology"))
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Seed() added %d, want 1", n)
	}
	got, _ := b.Get(ctx, "geo")
	if got.Title != "Geometry" {
		t.Errorf("seed overwrote existing document: %q", got.Title)
	}
	list, _ := b.List(ctx)
	if len(list) != 3 {
		t.Errorf("List() = %d documents, want 3", len(list))
	}
}

func TestLocal_CorruptCollectionFallsBack(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	_ = s.Write(ctx, store.KeyLessons, []byte("[not a map"))

	doc, err := backend.NewLocal(s).Get(ctx, lesson.SampleID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if doc.ID != lesson.SampleID {
		t.Errorf("ID = %q", doc.ID)
	}
}

func TestNew_Switch(t *testing.T) {
	cfg := &config.Config{}
	if _, ok := backend.New(cfg, store.NewMemoryStore()).(*backend.Local); !ok {
		t.Error("New() without UseBackend should be Local")
	}
	cfg.API.UseBackend = true
	cfg.API.BaseURL = "http://localhost:3000/api"
	if _, ok := backend.New(cfg, store.NewMemoryStore()).(*backend.HTTP); !ok {
		t.Error("New() with UseBackend should be HTTP")
	}
}
