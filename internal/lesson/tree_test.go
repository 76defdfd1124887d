package lesson_test

import (
	"errors"
	"testing"

	"github.com/p-n-ai/pai-lms/internal/lesson"
)

var quiz = lesson.Questions{lesson.Written{Prompt: "Explain", WordLimit: 150}}

// twoTermDoc builds:
//
//	T0 ── P0 ── L0 ── C0, C1
//	T1 ── P0
func twoTermDoc(t *testing.T) *lesson.Document {
	t.Helper()
	doc := lesson.NewDocument("doc-1", "Test")
	steps := []struct {
		parent lesson.Path
		node   lesson.Node
	}{
		{lesson.Root, lesson.Term{Title: "T0", Summary: "first"}},
		{lesson.Root, lesson.Term{Title: "T1", Summary: "second"}},
		{lesson.PathTo(0), lesson.Topic{Title: "T0-P0", Summary: "s"}},
		{lesson.PathTo(1), lesson.Topic{Title: "T1-P0", Summary: "s"}},
		{lesson.PathTo(0, 0), lesson.Lesson{Title: "L0", Summary: "s", XP: 5}},
		{lesson.PathTo(0, 0, 0), lesson.Chapter{Title: "C0", Summary: "s", Content: "<p>a</p>", Assessment: quiz}},
		{lesson.PathTo(0, 0, 0), lesson.Chapter{Title: "C1", Summary: "s", Content: "<p>b</p>", Assessment: quiz}},
	}
	for _, s := range steps {
		var err error
		doc, err = lesson.Insert(doc, s.parent, s.node)
		if err != nil {
			t.Fatalf("Insert(%s, %s) error = %v", s.parent, s.node.NodeTitle(), err)
		}
	}
	return doc
}

func TestInsert_LessonIntoEmptyTopic(t *testing.T) {
	doc := lesson.NewDocument("d", "Doc")
	doc, _ = lesson.Insert(doc, lesson.Root, lesson.Term{Title: "Term", Summary: "S"})
	doc, _ = lesson.Insert(doc, lesson.PathTo(0), lesson.Topic{Title: "Topic", Summary: "S"})

	got, err := lesson.Insert(doc, lesson.PathTo(0, 0), lesson.Lesson{Title: "L1", Summary: "S1", XP: 10})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	lessons := got.Terms[0].Topics[0].Lessons
	if len(lessons) != 1 {
		t.Fatalf("lessons = %d, want 1", len(lessons))
	}
	if lessons[0].Title != "L1" {
		t.Errorf("Title = %q, want L1", lessons[0].Title)
	}
	if lessons[0].Chapters == nil || len(lessons[0].Chapters) != 0 {
		t.Errorf("Chapters = %#v, want empty non-nil list", lessons[0].Chapters)
	}
	if lessons[0].ID == "" {
		t.Error("inserted lesson should get an id")
	}
	if len(doc.Terms[0].Topics[0].Lessons) != 0 {
		t.Error("Insert() must not modify the input document")
	}
}

func TestInsert_AppendsInOrder(t *testing.T) {
	doc := twoTermDoc(t)

	for _, title := range []string{"C2", "C3"} {
		var err error
		doc, err = lesson.Insert(doc, lesson.PathTo(0, 0, 0), lesson.Chapter{Title: title, Summary: "s", Content: "<p>c</p>", Assessment: quiz})
		if err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	chapters := doc.Terms[0].Topics[0].Lessons[0].Chapters
	want := []string{"C0", "C1", "C2", "C3"}
	if len(chapters) != len(want) {
		t.Fatalf("chapters = %d, want %d", len(chapters), len(want))
	}
	for i, w := range want {
		if chapters[i].Title != w {
			t.Errorf("chapters[%d] = %q, want %q", i, chapters[i].Title, w)
		}
	}
}

func TestInsert_DiscardsPayloadChildren(t *testing.T) {
	doc := lesson.NewDocument("d", "Doc")
	got, err := lesson.Insert(doc, lesson.Root, lesson.Term{
		Title:   "T",
		Summary: "S",
		Topics:  []lesson.Topic{{Title: "smuggled"}},
	})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if n := len(got.Terms[0].Topics); n != 0 {
		t.Errorf("topics = %d, want 0", n)
	}
}

func TestInsert_CleansText(t *testing.T) {
	doc := lesson.NewDocument("d", "Doc")
	got, err := lesson.Insert(doc, lesson.Root, lesson.Term{Title: "  Cafe\u0301 ", Summary: " Menus\n"})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if term := got.Terms[0]; term.Title != "Caf\u00e9" || term.Summary != "Menus" {
		t.Errorf("term = %q / %q, want cleaned text", term.Title, term.Summary)
	}
}

func TestApply_RejectsInvalidNode(t *testing.T) {
	doc := twoTermDoc(t)
	badMC := lesson.Questions{lesson.MultipleChoice{Prompt: "2+2?", Options: []string{"3", "4", "5"}, CorrectIndex: 7}}

	tests := []struct {
		name         string
		op           lesson.Op
		wantQuestion bool
	}{
		{"blank title", lesson.Op{Kind: lesson.OpInsert, Path: lesson.Root, Node: lesson.Term{Title: "  ", Summary: "s"}}, false},
		{"blank summary", lesson.Op{Kind: lesson.OpInsert, Path: lesson.PathTo(0), Node: lesson.Topic{Title: "P"}}, false},
		{"correct index out of range", lesson.Op{Kind: lesson.OpInsert, Path: lesson.PathTo(0, 0), Node: lesson.Lesson{Title: "L", Summary: "s", Assessment: badMC}}, true},
		{"chapter without content", lesson.Op{Kind: lesson.OpInsert, Path: lesson.PathTo(0, 0, 0), Node: lesson.Chapter{Title: "C", Summary: "s", Assessment: quiz}}, false},
		{"chapter without questions", lesson.Op{Kind: lesson.OpInsert, Path: lesson.PathTo(0, 0, 0), Node: lesson.Chapter{Title: "C", Summary: "s", Content: "<p>x</p>"}}, false},
		{"update with bad question", lesson.Op{Kind: lesson.OpUpdate, Path: lesson.PathTo(0, 0, 0, 0), Node: lesson.Chapter{Title: "C", Summary: "s", Content: "<p>x</p>", Assessment: badMC}}, true},
		{"update with bad child", lesson.Op{Kind: lesson.OpUpdate, Path: lesson.PathTo(1), Node: lesson.Term{Title: "T1", Summary: "s", Topics: []lesson.Topic{{Title: "no summary"}}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := lesson.Apply(doc, tt.op)
			if !errors.Is(err, lesson.ErrInvalidNode) {
				t.Fatalf("Apply() error = %v, want ErrInvalidNode", err)
			}
			if tt.wantQuestion && !errors.Is(err, lesson.ErrInvalidQuestion) {
				t.Errorf("Apply() error = %v, want ErrInvalidQuestion too", err)
			}
			if got != nil {
				t.Error("Apply() should return no document on error")
			}
		})
	}
}

func TestInsert_WrongLevel(t *testing.T) {
	doc := twoTermDoc(t)

	tests := []struct {
		name   string
		parent lesson.Path
		node   lesson.Node
	}{
		{"topic at root", lesson.Root, lesson.Topic{Title: "x"}},
		{"chapter under topic", lesson.PathTo(0, 0), lesson.Chapter{Title: "x"}},
		{"anything under chapter", lesson.PathTo(0, 0, 0, 0), lesson.Chapter{Title: "x"}},
		{"nil payload", lesson.Root, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := lesson.Insert(doc, tt.parent, tt.node)
			if !errors.Is(err, lesson.ErrInvalidLevel) {
				t.Errorf("Insert() error = %v, want ErrInvalidLevel", err)
			}
		})
	}
}

func TestDelete_TermKeepsSibling(t *testing.T) {
	doc := twoTermDoc(t)
	secondID := doc.Terms[1].ID

	got, err := lesson.Delete(doc, lesson.PathTo(0))
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(got.Terms) != 1 {
		t.Fatalf("terms = %d, want 1", len(got.Terms))
	}
	if got.Terms[0].Title != "T1" || got.Terms[0].ID != secondID {
		t.Errorf("remaining term = %q (%s), want T1 (%s)", got.Terms[0].Title, got.Terms[0].ID, secondID)
	}
	if len(doc.Terms) != 2 {
		t.Error("Delete() must not modify the input document")
	}
}

func TestDelete_RemovesSubtreeOnly(t *testing.T) {
	doc := twoTermDoc(t)
	doc, _ = lesson.Insert(doc, lesson.PathTo(0, 0, 0), lesson.Chapter{Title: "C2", Summary: "s", Content: "<p>c</p>", Assessment: quiz})

	got, err := lesson.Delete(doc, lesson.PathTo(0, 0, 0, 1))
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	chapters := got.Terms[0].Topics[0].Lessons[0].Chapters
	if len(chapters) != 2 || chapters[0].Title != "C0" || chapters[1].Title != "C2" {
		t.Errorf("chapters = %+v, want [C0 C2]", chapters)
	}

	got, err = lesson.Delete(got, lesson.PathTo(0, 0))
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if n := len(got.Terms[0].Topics); n != 0 {
		t.Errorf("topics = %d, want 0", n)
	}
	if got.Terms[1].Topics[0].Title != "T1-P0" {
		t.Error("deleting in one term must not touch another")
	}
}

func TestDelete_TwiceIsRejected(t *testing.T) {
	doc := lesson.NewDocument("d", "Doc")
	doc, _ = lesson.Insert(doc, lesson.Root, lesson.Term{Title: "only", Summary: "s"})

	doc, err := lesson.Delete(doc, lesson.PathTo(0))
	if err != nil {
		t.Fatalf("first Delete() error = %v", err)
	}
	_, err = lesson.Delete(doc, lesson.PathTo(0))
	if !errors.Is(err, lesson.ErrPathOutOfRange) {
		t.Errorf("second Delete() error = %v, want ErrPathOutOfRange", err)
	}
}

func TestDelete_Root(t *testing.T) {
	_, err := lesson.Delete(lesson.NewDocument("d", "Doc"), lesson.Root)
	if !errors.Is(err, lesson.ErrInvalidLevel) {
		t.Errorf("Delete(root) error = %v, want ErrInvalidLevel", err)
	}
}

func TestUpdate_KeepsChildrenAndSiblings(t *testing.T) {
	doc := twoTermDoc(t)
	oldID := doc.Terms[0].Topics[0].Lessons[0].ID

	got, err := lesson.Update(doc, lesson.PathTo(0, 0, 0), lesson.Lesson{Title: "Renamed", Summary: "new", XP: 7})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	les := got.Terms[0].Topics[0].Lessons[0]
	if les.Title != "Renamed" || les.XP != 7 {
		t.Errorf("lesson = %q/%d, want Renamed/7", les.Title, les.XP)
	}
	if len(les.Chapters) != 2 {
		t.Errorf("chapters = %d, want 2 (kept)", len(les.Chapters))
	}
	if les.ID != oldID {
		t.Errorf("ID = %q, want %q (kept)", les.ID, oldID)
	}
	if got.Terms[1].Title != "T1" {
		t.Error("siblings must be untouched")
	}
	if doc.Terms[0].Topics[0].Lessons[0].Title != "L0" {
		t.Error("Update() must not modify the input document")
	}
}

func TestUpdate_ExplicitChildrenReplace(t *testing.T) {
	doc := twoTermDoc(t)

	got, err := lesson.Update(doc, lesson.PathTo(0, 0, 0), lesson.Lesson{Title: "L", Summary: "s", Chapters: []lesson.Chapter{}})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if n := len(got.Terms[0].Topics[0].Lessons[0].Chapters); n != 0 {
		t.Errorf("chapters = %d, want 0", n)
	}
}

func TestUpdate_ExplicitChildrenAreChecked(t *testing.T) {
	doc := twoTermDoc(t)

	got, err := lesson.Update(doc, lesson.PathTo(1), lesson.Term{Title: "T1", Summary: "second", Topics: []lesson.Topic{
		{Title: " Fresh ", Summary: "s"},
	}})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	topics := got.Terms[1].Topics
	if len(topics) != 1 || topics[0].Title != "Fresh" {
		t.Fatalf("topics = %+v, want one cleaned topic", topics)
	}
	if topics[0].ID == "" || topics[0].Lessons == nil {
		t.Errorf("replacement topic = %#v, want an id and an empty lesson list", topics[0])
	}
}

func TestUpdate_LevelMismatch(t *testing.T) {
	doc := twoTermDoc(t)
	_, err := lesson.Update(doc, lesson.PathTo(0), lesson.Topic{Title: "x"})
	if !errors.Is(err, lesson.ErrInvalidLevel) {
		t.Errorf("Update() error = %v, want ErrInvalidLevel", err)
	}
}

func TestOperations_OutOfRange(t *testing.T) {
	doc := twoTermDoc(t)

	tests := []struct {
		name string
		op   lesson.Op
	}{
		{"insert under missing term", lesson.Op{Kind: lesson.OpInsert, Path: lesson.PathTo(5), Node: lesson.Topic{Title: "x"}}},
		{"insert under negative topic", lesson.Op{Kind: lesson.OpInsert, Path: lesson.PathTo(0, -1), Node: lesson.Lesson{Title: "x"}}},
		{"update missing chapter", lesson.Op{Kind: lesson.OpUpdate, Path: lesson.PathTo(0, 0, 0, 9), Node: lesson.Chapter{Title: "x"}}},
		{"update under missing lesson", lesson.Op{Kind: lesson.OpUpdate, Path: lesson.PathTo(1, 0, 0), Node: lesson.Lesson{Title: "x"}}},
		{"delete missing topic", lesson.Op{Kind: lesson.OpDelete, Path: lesson.PathTo(1, 3)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := lesson.Apply(doc, tt.op)
			if !errors.Is(err, lesson.ErrPathOutOfRange) {
				t.Errorf("Apply() error = %v, want ErrPathOutOfRange", err)
			}
			if got != nil {
				t.Error("Apply() should return no document on error")
			}
		})
	}
}

func TestApply_ReturnsNewDocument(t *testing.T) {
	doc := twoTermDoc(t)
	got, err := lesson.Apply(doc, lesson.Op{Kind: lesson.OpUpdate, Path: lesson.PathTo(1), Node: lesson.Term{Title: "T1b", Summary: "second"}})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got == doc {
		t.Error("Apply() should return a new document pointer")
	}
	if got.Terms[1].Topics[0].Title != "T1-P0" {
		t.Error("update without children should keep topics")
	}
}

func TestApply_NilDocument(t *testing.T) {
	_, err := lesson.Apply(nil, lesson.Op{Kind: lesson.OpDelete, Path: lesson.PathTo(0)})
	if !errors.Is(err, lesson.ErrNilDocument) {
		t.Errorf("Apply(nil) error = %v, want ErrNilDocument", err)
	}
}

func TestGetAndResolve(t *testing.T) {
	doc := twoTermDoc(t)

	n, err := lesson.Get(doc, lesson.PathTo(0, 0, 0, 1))
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if n.NodeTitle() != "C1" {
		t.Errorf("Get() title = %q, want C1", n.NodeTitle())
	}

	p, ok := lesson.Resolve(doc, n.NodeID())
	if !ok {
		t.Fatal("Resolve() did not find chapter")
	}
	if !p.Equal(lesson.PathTo(0, 0, 0, 1)) {
		t.Errorf("Resolve() = %s, want term/0/topic/0/lesson/0/chapter/1", p)
	}

	if _, ok := lesson.Resolve(doc, "missing"); ok {
		t.Error("Resolve(missing) should fail")
	}
}
