package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/p-n-ai/pai-lms/internal/lesson"
)

// HTTP talks to a lesson REST API:
//
//	GET    /lessons
//	GET    /lessons/{id}/structure
//	PUT    /lessons/{id}
//	POST   /lessons/{id}/term[/{t}/topic[/{p}/lesson[/{l}/chapter]]]
//	PATCH  /lessons/{id}/term/{t}[/topic/{p}[/lesson/{l}[/chapter/{c}]]]
//	DELETE (same as PATCH)?confirm=true
//
// Mutations are followed by a structure fetch, so Apply returns the
// server's view of the document.
type HTTP struct {
	baseURL string
	client  *http.Client
}

// HTTPOption configures an HTTP backend.
type HTTPOption func(*HTTP)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(h *HTTP) {
		h.client = client
	}
}

// NewHTTP creates a client for the API rooted at baseURL.
func NewHTTP(baseURL string, opts ...HTTPOption) *HTTP {
	h := &HTTP{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *HTTP) Get(ctx context.Context, id string) (*lesson.Document, error) {
	var doc lesson.Document
	if err := h.do(ctx, http.MethodGet, lessonURL(id)+"/structure", nil, &doc); err != nil {
		return nil, err
	}
	doc.Normalize()
	return &doc, nil
}

func (h *HTTP) List(ctx context.Context) ([]Summary, error) {
	var out []Summary
	if err := h.do(ctx, http.MethodGet, "/lessons", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (h *HTTP) Put(ctx context.Context, doc *lesson.Document) error {
	if doc == nil {
		return lesson.ErrNilDocument
	}
	return h.do(ctx, http.MethodPut, lessonURL(doc.ID), doc, nil)
}

func (h *HTTP) Apply(ctx context.Context, id string, op lesson.Op) (*lesson.Document, error) {
	method, path, err := route(op)
	if err != nil {
		return nil, err
	}
	var body any
	if op.Kind != lesson.OpDelete {
		if op.Node == nil {
			return nil, fmt.Errorf("%w: %s without a node", lesson.ErrInvalidLevel, op.Kind)
		}
		body = op.Node
	}
	if err := h.do(ctx, method, lessonURL(id)+path, body, nil); err != nil {
		return nil, err
	}
	return h.Get(ctx, id)
}

// route maps an op to its method and path below /lessons/{id}.
func route(op lesson.Op) (string, string, error) {
	switch op.Kind {
	case lesson.OpInsert:
		child, ok := op.Path.Level.Child()
		if !ok {
			return "", "", fmt.Errorf("%w: %s has no children", lesson.ErrInvalidLevel, op.Path.Level)
		}
		prefix := op.Path.String()
		if prefix != "" {
			prefix = "/" + prefix
		}
		return http.MethodPost, prefix + "/" + child.String(), nil
	case lesson.OpUpdate:
		if op.Path.Level == lesson.LevelDocument {
			return "", "", fmt.Errorf("%w: cannot update the document", lesson.ErrInvalidLevel)
		}
		return http.MethodPatch, "/" + op.Path.String(), nil
	case lesson.OpDelete:
		if op.Path.Level == lesson.LevelDocument {
			return "", "", fmt.Errorf("%w: cannot delete the document", lesson.ErrInvalidLevel)
		}
		return http.MethodDelete, "/" + op.Path.String() + "?confirm=true", nil
	}
	return "", "", fmt.Errorf("unknown op kind %q", op.Kind)
}

func lessonURL(id string) string {
	return "/lessons/" + url.PathEscape(id)
}

func (h *HTTP) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(method, path, resp.StatusCode, respBody)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func responseError(method, path string, status int, body []byte) error {
	var er ErrorResponse
	_ = json.Unmarshal(body, &er)
	msg := er.Error
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	if err := sentinel(er.Code); err != nil {
		return fmt.Errorf("%s %s: %w: %s", method, path, err, msg)
	}
	if status == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	}
	return fmt.Errorf("lesson api error (status %d): %s", status, msg)
}
