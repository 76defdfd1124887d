// Package backend switches lesson operations between the local store and a
// remote REST API. Both sides share the tree engine's semantics.
package backend

import (
	"context"
	"errors"
	"net/http"

	"github.com/p-n-ai/pai-lms/internal/lesson"
	"github.com/p-n-ai/pai-lms/internal/platform/config"
	"github.com/p-n-ai/pai-lms/internal/store"
)

// ErrNotFound is returned for unknown lesson ids.
var ErrNotFound = errors.New("lesson not found")

// Summary is a lesson document without its tree.
type Summary struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Subject string `json:"subject,omitempty"`
	Grade   string `json:"grade,omitempty"`
}

// SummaryOf returns the header of doc.
func SummaryOf(doc *lesson.Document) Summary {
	return Summary{ID: doc.ID, Title: doc.Title, Subject: doc.Subject, Grade: doc.Grade}
}

// Backend loads, stores and mutates lesson documents.
type Backend interface {
	Get(ctx context.Context, id string) (*lesson.Document, error)
	List(ctx context.Context) ([]Summary, error)
	Put(ctx context.Context, doc *lesson.Document) error
	Apply(ctx context.Context, id string, op lesson.Op) (*lesson.Document, error)
}

// New returns the HTTP backend when cfg.API.UseBackend is set and the local
// backend over s otherwise.
func New(cfg *config.Config, s store.Store) Backend {
	if cfg.API.UseBackend {
		return NewHTTP(cfg.API.BaseURL, WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}))
	}
	return NewLocal(s)
}
