// Package store is the key-value persistence layer. Every collection is one
// JSON blob under a fixed key; writes overwrite the whole value and the last
// writer wins.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Collection keys.
const (
	KeyAnnouncements  = "mockAnnouncements"
	KeyChatRooms      = "mockChatRooms"
	KeyMessages       = "mockMessages"
	KeyDirectMessages = "mockDirectMessages"
	KeyFaculty        = "facultyCache"
	KeyLearners       = "learnerCache"
	KeyLessons        = "lessonStructures"
	KeyChapterDraft   = "chapterDraft"
)

// ErrDecode is returned when a stored value is not valid JSON for its target.
var ErrDecode = errors.New("stored value does not decode")

// Store reads and writes raw values by key.
type Store interface {
	Read(ctx context.Context, key string) ([]byte, bool, error)
	Write(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// HealthChecker is implemented by stores backed by a network service.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Collection pairs a key with the value readers get when nothing is stored.
type Collection struct {
	Key     string
	Default func() any
}

// Load decodes the collection into v. A missing key or an undecodable value
// yields the default; only transport errors are returned.
func (c Collection) Load(ctx context.Context, s Store, v any) error {
	found, err := ReadJSON(ctx, s, c.Key, v)
	if err == nil && found {
		return nil
	}
	if err != nil && !errors.Is(err, ErrDecode) {
		return err
	}
	if err != nil {
		slog.Warn("falling back to collection default", "key", c.Key, "error", err)
	}
	if c.Default == nil {
		return nil
	}
	data, err := json.Marshal(c.Default())
	if err != nil {
		return fmt.Errorf("encoding default for %s: %w", c.Key, err)
	}
	return json.Unmarshal(data, v)
}

// Save overwrites the collection with v.
func (c Collection) Save(ctx context.Context, s Store, v any) error {
	return WriteJSON(ctx, s, c.Key, v)
}

// ReadJSON decodes the value under key into v and reports whether it existed.
func ReadJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	data, ok, err := s.Read(ctx, key)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("%w: %s: %w", ErrDecode, key, err)
	}
	return true, nil
}

// WriteJSON encodes v and stores it under key.
func WriteJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := s.Write(ctx, key, data); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	values map[string][]byte
	mu     sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

func (s *MemoryStore) Read(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *MemoryStore) Write(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}
