// Package audit records applied lesson mutations.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// DefaultMemoryLimit is how many events a MemoryEventLogger keeps.
const DefaultMemoryLimit = 1000

// Event is one applied mutation.
type Event struct {
	LessonID  string         `json:"lessonId"`
	ActorRole string         `json:"actorRole,omitempty"`
	Op        string         `json:"op"`
	Path      string         `json:"path,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// EventLogger defines event logging behavior.
type EventLogger interface {
	LogEvent(ctx context.Context, event Event) error
	Recent(ctx context.Context, lessonID string, limit int) ([]Event, error)
}

func check(event Event) error {
	if event.Op == "" {
		return fmt.Errorf("op is required")
	}
	if event.LessonID == "" {
		return fmt.Errorf("lesson_id is required")
	}
	return nil
}

// NopEventLogger ignores all events.
type NopEventLogger struct{}

func (NopEventLogger) LogEvent(context.Context, Event) error { return nil }

func (NopEventLogger) Recent(context.Context, string, int) ([]Event, error) {
	return []Event{}, nil
}

// MemoryEventLogger keeps the most recent events in memory.
type MemoryEventLogger struct {
	mu     sync.Mutex
	events []Event
	limit  int
}

// NewMemoryEventLogger keeps at most limit events; limit <= 0 uses DefaultMemoryLimit.
func NewMemoryEventLogger(limit int) *MemoryEventLogger {
	if limit <= 0 {
		limit = DefaultMemoryLimit
	}
	return &MemoryEventLogger{
		events: []Event{},
		limit:  limit,
	}
}

func (l *MemoryEventLogger) LogEvent(_ context.Context, event Event) error {
	if err := check(event); err != nil {
		return err
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	l.mu.Lock()
	l.events = append(l.events, event)
	if over := len(l.events) - l.limit; over > 0 {
		l.events = append([]Event(nil), l.events[over:]...)
	}
	l.mu.Unlock()

	return nil
}

// Recent returns up to limit events for lessonID, newest first.
func (l *MemoryEventLogger) Recent(_ context.Context, lessonID string, limit int) ([]Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := []Event{}
	for i := len(l.events) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		if l.events[i].LessonID == lessonID {
			out = append(out, l.events[i])
		}
	}
	return out, nil
}

// Events returns every retained event, oldest first.
func (l *MemoryEventLogger) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event{}, l.events...)
}

// PostgresEventLogger inserts events into the lesson_events table.
type PostgresEventLogger struct {
	pool *pgxpool.Pool
}

func NewPostgresEventLogger(pool *pgxpool.Pool) *PostgresEventLogger {
	return &PostgresEventLogger{pool: pool}
}

func (l *PostgresEventLogger) LogEvent(ctx context.Context, event Event) error {
	if l == nil || l.pool == nil {
		return fmt.Errorf("event logger pool is nil")
	}
	if err := check(event); err != nil {
		return err
	}

	payload := event.Data
	if payload == nil {
		payload = map[string]any{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err = l.pool.Exec(ctx,
		`INSERT INTO lesson_events (lesson_id, actor_role, op, path, data, created_at)
		 VALUES ($1, $2, $3, $4, $5::jsonb, $6)`,
		event.LessonID,
		event.ActorRole,
		event.Op,
		event.Path,
		string(data),
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	slog.Debug("event logged",
		"op", event.Op,
		"lesson_id", event.LessonID,
		"path", event.Path,
	)
	return nil
}

// Recent returns up to limit events for lessonID, newest first.
func (l *PostgresEventLogger) Recent(ctx context.Context, lessonID string, limit int) ([]Event, error) {
	if l == nil || l.pool == nil {
		return nil, fmt.Errorf("event logger pool is nil")
	}
	if limit <= 0 {
		limit = DefaultMemoryLimit
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := l.pool.Query(ctx,
		`SELECT lesson_id, actor_role, op, path, data::text, created_at
		 FROM lesson_events
		 WHERE lesson_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		lessonID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var (
			e    Event
			data string
		)
		if err := rows.Scan(&e.LessonID, &e.ActorRole, &e.Op, &e.Path, &data, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &e.Data); err != nil {
			return nil, fmt.Errorf("decode event data: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return out, nil
}
