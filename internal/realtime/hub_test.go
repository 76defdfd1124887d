package realtime_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/p-n-ai/pai-lms/internal/realtime"
)

func TestHub_PublishToSubscribers(t *testing.T) {
	h := realtime.NewHub()
	a, unsubA := h.Subscribe("lesson1")
	b, unsubB := h.Subscribe("lesson1")
	other, unsubOther := h.Subscribe("lesson2")
	defer unsubA()
	defer unsubB()
	defer unsubOther()

	h.Publish(realtime.Change{LessonID: "lesson1", Op: "insert", Revision: "r1"})

	for name, ch := range map[string]<-chan realtime.Change{"a": a, "b": b} {
		select {
		case c := <-ch:
			if c.Revision != "r1" || c.At.IsZero() {
				t.Errorf("%s got %+v", name, c)
			}
		default:
			t.Errorf("%s got nothing", name)
		}
	}
	select {
	case c := <-other:
		t.Errorf("other lesson got %+v", c)
	default:
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	h := realtime.NewHub()
	ch, unsub := h.Subscribe("lesson1")
	if n := h.Subscribers("lesson1"); n != 1 {
		t.Fatalf("Subscribers() = %d, want 1", n)
	}
	unsub()
	unsub()
	if n := h.Subscribers("lesson1"); n != 0 {
		t.Errorf("Subscribers() after unsubscribe = %d", n)
	}
	if _, ok := <-ch; ok {
		t.Error("channel should be closed")
	}
	// Publishing with no subscribers is fine.
	h.Publish(realtime.Change{LessonID: "lesson1"})
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	h := realtime.NewHub()
	_, unsub := h.Subscribe("lesson1")
	defer unsub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			h.Publish(realtime.Change{LessonID: "lesson1"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
}

func TestHub_ServeWS(t *testing.T) {
	h := realtime.NewHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeWS(w, r, "lesson1")
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.CloseNow()

	// Wait for the handler to register before publishing.
	deadline := time.Now().Add(2 * time.Second)
	for h.Subscribers("lesson1") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	h.Publish(realtime.Change{LessonID: "lesson1", Op: "delete", Path: "term/0", Revision: "abc"})

	var got realtime.Change
	if err := wsjson.Read(ctx, conn, &got); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.Op != "delete" || got.Path != "term/0" || got.Revision != "abc" {
		t.Errorf("got %+v", got)
	}

	conn.Close(websocket.StatusNormalClosure, "")
	deadline = time.Now().Add(2 * time.Second)
	for h.Subscribers("lesson1") != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber not removed after close")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
