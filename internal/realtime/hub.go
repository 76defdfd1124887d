// Package realtime pushes lesson change notifications to WebSocket clients.
package realtime

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const (
	subscriberBuffer = 16
	writeTimeout     = 5 * time.Second
)

// Change tells clients that a lesson document has a new revision.
type Change struct {
	LessonID string    `json:"lessonId"`
	Op       string    `json:"op"`
	Path     string    `json:"path,omitempty"`
	Revision string    `json:"revision"`
	At       time.Time `json:"at"`
}

type subscriber struct {
	ch chan Change
}

// Hub fans changes out to the subscribers of each lesson.
type Hub struct {
	subs map[string]map[*subscriber]struct{}
	mu   sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[*subscriber]struct{}),
	}
}

// Subscribe registers for changes to lessonID. The returned func must be
// called to unsubscribe; it closes the channel.
func (h *Hub) Subscribe(lessonID string) (<-chan Change, func()) {
	s := &subscriber{ch: make(chan Change, subscriberBuffer)}

	h.mu.Lock()
	if h.subs[lessonID] == nil {
		h.subs[lessonID] = make(map[*subscriber]struct{})
	}
	h.subs[lessonID][s] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return s.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[lessonID], s)
			if len(h.subs[lessonID]) == 0 {
				delete(h.subs, lessonID)
			}
			h.mu.Unlock()
			close(s.ch)
		})
	}
}

// Publish delivers c to every subscriber of c.LessonID. A subscriber whose
// buffer is full misses the change.
func (h *Hub) Publish(c Change) {
	if c.At.IsZero() {
		c.At = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.subs[c.LessonID] {
		select {
		case s.ch <- c:
		default:
			slog.Warn("dropping change for slow subscriber", "lesson_id", c.LessonID)
		}
	}
}

// Subscribers returns the number of subscribers to lessonID.
func (h *Hub) Subscribers(lessonID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[lessonID])
}

// ServeWS upgrades the request and streams changes to lessonID until the
// client disconnects. Client messages are ignored.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, lessonID string) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	changes, unsubscribe := h.Subscribe(lessonID)
	defer unsubscribe()

	slog.Debug("change feed connected", "lesson_id", lessonID)
	ctx := conn.CloseRead(r.Context())

	for {
		select {
		case <-ctx.Done():
			slog.Debug("change feed disconnected", "lesson_id", lessonID)
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			if err := write(ctx, conn, c); err != nil {
				slog.Debug("change feed write failed", "lesson_id", lessonID, "error", err)
				return
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, c Change) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, c)
}
