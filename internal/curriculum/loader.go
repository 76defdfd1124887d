// Package curriculum loads seed lesson documents from YAML files.
package curriculum

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/p-n-ai/pai-lms/internal/lesson"
)

// contentFileKey lets a chapter keep its HTML body in a sibling file.
const contentFileKey = "content_file"

// Loader loads and caches lesson documents from a directory tree. Every
// *.yaml or *.yml file holds one document in the same shape as the JSON API.
type Loader struct {
	rootDir string
	docs    map[string]*lesson.Document
	mu      sync.RWMutex
}

// NewLoader creates a loader and loads all documents under rootDir. A missing
// directory yields an empty loader.
func NewLoader(rootDir string) (*Loader, error) {
	l := &Loader{
		rootDir: rootDir,
		docs:    make(map[string]*lesson.Document),
	}

	if _, err := os.Stat(rootDir); errors.Is(err, fs.ErrNotExist) {
		slog.Info("no seed directory", "path", rootDir)
		return l, nil
	}

	if err := l.loadAll(); err != nil {
		return nil, fmt.Errorf("loading seeds: %w", err)
	}

	slog.Info("seed lessons loaded", "lessons", len(l.docs))
	return l, nil
}

// Get returns a seeded document by id.
func (l *Loader) Get(id string) (*lesson.Document, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	d, ok := l.docs[id]
	return d, ok
}

// All returns every loaded document ordered by id.
func (l *Loader) All() []*lesson.Document {
	l.mu.RLock()
	defer l.mu.RUnlock()
	docs := make([]*lesson.Document, 0, len(l.docs))
	for _, d := range l.docs {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs
}

func (l *Loader) loadAll() error {
	return filepath.WalkDir(l.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
			return l.loadDocument(path)
		}
		return nil
	})
}

func (l *Loader) loadDocument(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	doc, err := Decode(data, filepath.Dir(path))
	if err != nil {
		slog.Warn("skipping invalid seed YAML", "path", path, "error", err)
		return nil
	}

	l.mu.Lock()
	if _, dup := l.docs[doc.ID]; dup {
		slog.Warn("duplicate seed lesson id", "id", doc.ID, "path", path)
	}
	l.docs[doc.ID] = doc
	l.mu.Unlock()

	return nil
}

// Decode parses one YAML document. content_file entries on chapters are read
// relative to dir and replace the chapter's content.
func Decode(data []byte, dir string) (*lesson.Document, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: empty file", lesson.ErrInvalidDocument)
	}
	if err := inlineContent(raw, dir); err != nil {
		return nil, err
	}

	js, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("converting yaml: %w", err)
	}
	return lesson.DecodeJSON(js)
}

func inlineContent(raw map[string]any, dir string) error {
	for _, term := range children(raw, "terms") {
		for _, topic := range children(term, "topics") {
			for _, les := range children(topic, "lessons") {
				for _, ch := range children(les, "chapters") {
					name, ok := ch[contentFileKey].(string)
					if !ok {
						continue
					}
					body, err := os.ReadFile(filepath.Join(dir, name))
					if err != nil {
						return fmt.Errorf("chapter content %s: %w", name, err)
					}
					ch["content"] = string(body)
					delete(ch, contentFileKey)
				}
			}
		}
	}
	return nil
}

func children(node map[string]any, key string) []map[string]any {
	list, _ := node[key].([]any)
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
