// Package explorer holds the selection and navigation state of the lesson
// explorer and drives editors and tree mutations from it.
package explorer

import (
	"context"
	"errors"
	"fmt"

	"github.com/p-n-ai/pai-lms/internal/lesson"
)

var (
	// ErrTransition is returned when an action is not allowed in the current state.
	ErrTransition = errors.New("transition not allowed")

	// ErrConfirmationRequired is returned by ConfirmDelete without a prior RequestDelete.
	ErrConfirmationRequired = errors.New("delete needs confirmation")
)

// Mode is what the explorer is doing with the selection.
type Mode int

const (
	Browsing Mode = iota
	Adding
	Editing
	Previewing
)

func (m Mode) String() string {
	switch m {
	case Adding:
		return "adding"
	case Editing:
		return "editing"
	case Previewing:
		return "previewing"
	default:
		return "browsing"
	}
}

// Selection is the selected node. The zero value selects nothing.
type Selection struct {
	Level lesson.Level `json:"type"`
	Path  lesson.Path  `json:"path"`
}

// NoSelection is the state after a reload.
var NoSelection = Selection{}

// Selected reports whether a node is selected.
func (s Selection) Selected() bool { return s.Level != lesson.LevelDocument }

// ApplyFunc applies a mutation and returns the resulting document.
type ApplyFunc func(ctx context.Context, op lesson.Op) (*lesson.Document, error)

// Machine is the selection state machine. It is not safe for concurrent use.
type Machine struct {
	sel           Selection
	mode          Mode
	target        lesson.Path // parent for Adding, node for Editing
	addLevel      lesson.Level
	pendingDelete bool
}

func (m *Machine) Selection() Selection { return m.sel }
func (m *Machine) Mode() Mode           { return m.mode }

// AddLevel is the level being added while in Adding mode.
func (m *Machine) AddLevel() lesson.Level { return m.addLevel }

// DeletePending reports whether a delete is armed.
func (m *Machine) DeletePending() bool { return m.pendingDelete }

// Select moves the selection and returns to Browsing from any state.
func (m *Machine) Select(level lesson.Level, path lesson.Path) {
	path.Level = level
	m.sel = Selection{Level: level, Path: path}
	m.browse()
}

// CanAdd reports whether a child of level can be added now. Terms can always
// be added; anything else needs its immediate parent selected.
func (m *Machine) CanAdd(level lesson.Level) bool {
	switch level {
	case lesson.LevelTerm:
		return true
	case lesson.LevelTopic, lesson.LevelLesson, lesson.LevelChapter:
		return m.sel.Selected() && m.sel.Level == level.Parent()
	}
	return false
}

// StartAdd enters Adding for a new node of level under the selection.
func (m *Machine) StartAdd(level lesson.Level) error {
	if !m.CanAdd(level) {
		return fmt.Errorf("%w: add %s with %s selected", ErrTransition, level, m.sel.Level)
	}
	m.browse()
	m.mode = Adding
	m.addLevel = level
	if level == lesson.LevelTerm {
		m.target = lesson.Root
	} else {
		m.target = m.sel.Path
	}
	return nil
}

// StartEdit enters Editing for the selected node.
func (m *Machine) StartEdit() error {
	if !m.sel.Selected() {
		return fmt.Errorf("%w: edit with nothing selected", ErrTransition)
	}
	m.browse()
	m.mode = Editing
	m.target = m.sel.Path
	return nil
}

// StartPreview enters Previewing. Only chapters can be previewed.
func (m *Machine) StartPreview() error {
	if m.sel.Level != lesson.LevelChapter {
		return fmt.Errorf("%w: preview %s", ErrTransition, m.sel.Level)
	}
	m.browse()
	m.mode = Previewing
	return nil
}

// Commit applies node as the pending add or update. The target path is
// checked against doc first; if it no longer exists the machine returns to
// Browsing. Any other failure leaves the mode unchanged so the caller can retry.
func (m *Machine) Commit(ctx context.Context, doc *lesson.Document, node lesson.Node, apply ApplyFunc) (*lesson.Document, error) {
	var op lesson.Op
	switch m.mode {
	case Adding:
		op = lesson.Op{Kind: lesson.OpInsert, Path: m.target, Node: node}
	case Editing:
		op = lesson.Op{Kind: lesson.OpUpdate, Path: m.target, Node: node}
	default:
		return nil, fmt.Errorf("%w: commit while %s", ErrTransition, m.mode)
	}

	if err := lesson.Check(doc, m.target); err != nil {
		m.browse()
		return nil, err
	}

	out, err := apply(ctx, op)
	if err != nil {
		if errors.Is(err, lesson.ErrPathOutOfRange) {
			m.browse()
		}
		return nil, err
	}
	m.browse()
	return out, nil
}

// Cancel discards any pending add, edit, preview or delete.
func (m *Machine) Cancel() { m.browse() }

// RequestDelete arms deletion of the selected node.
func (m *Machine) RequestDelete() (lesson.Path, error) {
	if !m.sel.Selected() {
		return lesson.Path{}, fmt.Errorf("%w: delete with nothing selected", ErrTransition)
	}
	m.browse()
	m.pendingDelete = true
	return m.sel.Path, nil
}

// ConfirmDelete deletes the node armed by RequestDelete. The selection is
// cleared afterwards since the node is gone.
func (m *Machine) ConfirmDelete(ctx context.Context, doc *lesson.Document, apply ApplyFunc) (*lesson.Document, error) {
	if !m.pendingDelete {
		return nil, ErrConfirmationRequired
	}
	path := m.sel.Path
	m.pendingDelete = false

	if err := lesson.Check(doc, path); err != nil {
		m.Reset()
		return nil, err
	}
	out, err := apply(ctx, lesson.Op{Kind: lesson.OpDelete, Path: path})
	if err != nil {
		return nil, err
	}
	m.Reset()
	return out, nil
}

// Reset clears the selection. It is used when the document is reloaded.
func (m *Machine) Reset() {
	m.sel = NoSelection
	m.browse()
}

func (m *Machine) browse() {
	m.mode = Browsing
	m.target = lesson.Path{}
	m.addLevel = lesson.LevelDocument
	m.pendingDelete = false
}
