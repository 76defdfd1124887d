// Package console drives the lesson explorer from line commands, so the tree
// can be browsed and edited from a terminal against either backend.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/p-n-ai/pai-lms/internal/assessment"
	"github.com/p-n-ai/pai-lms/internal/editor"
	"github.com/p-n-ai/pai-lms/internal/explorer"
	"github.com/p-n-ai/pai-lms/internal/lesson"
	"github.com/p-n-ai/pai-lms/internal/store"
)

// ErrQuit is returned by Exec for the quit command.
var ErrQuit = errors.New("quit")

// ErrUsage is returned for unknown commands and bad arguments.
var ErrUsage = errors.New("usage")

const help = `commands:
  open <lesson-id>            load a lesson
  tree                        print the lesson with node paths
  state                       show selection and mode
  select <path>               select a node, e.g. term/0/topic/1
  add <term|topic|lesson|chapter>
  edit                        edit the selected node
  preview                     show the selected chapter
  set <title|summary|content|xp> <value>
  q <type|prompt|option|addoption|correct|words|image|add|remove|list> [args]
  draft                       show the form
  save                        keep the chapter draft
  submit | cancel | exit
  delete                      ask to delete the selected node
  confirm                     delete it
  quit`

// Session is one terminal session over an explorer.
type Session struct {
	source explorer.Source
	drafts store.Store
	out    io.Writer

	ex      *explorer.Explorer
	form    editor.Draft
	editing bool
	qb      *assessment.Builder
}

// New creates a session. drafts backs the chapter draft slot and may be nil.
func New(source explorer.Source, drafts store.Store, out io.Writer) *Session {
	return &Session{source: source, drafts: drafts, out: out}
}

// Run reads commands from in until EOF or quit. Command errors are printed
// and do not end the session.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	s.prompt()
	for sc.Scan() {
		err := s.Exec(ctx, sc.Text())
		if errors.Is(err, ErrQuit) {
			return nil
		}
		if err != nil {
			s.printf("error: %v\n", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.prompt()
	}
	return sc.Err()
}

// Exec runs a single command line.
func (s *Session) Exec(ctx context.Context, line string) error {
	cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "":
		return nil
	case "help":
		s.printf("%s\n", help)
		return nil
	case "quit":
		return ErrQuit
	case "open":
		return s.open(ctx, rest)
	}

	if s.ex == nil {
		return fmt.Errorf("%w: open a lesson first", ErrUsage)
	}
	switch cmd {
	case "tree":
		s.printTree()
	case "state":
		sel, mode := s.ex.State()
		s.printf("mode %s, selected %q\n", mode, sel.Path)
	case "select":
		path, err := lesson.ParsePath(rest)
		if err != nil {
			return err
		}
		if err := s.ex.Select(path); err != nil {
			return err
		}
		s.closeForm()
		s.printf("selected %s\n", path)
	case "add":
		level, err := lesson.ParseLevel(rest)
		if err != nil {
			return err
		}
		d, err := s.ex.StartAdd(ctx, level)
		if err != nil {
			return err
		}
		s.openForm(d)
		s.printf("adding %s\n", level)
	case "edit":
		d, err := s.ex.StartEdit(ctx)
		if err != nil {
			return err
		}
		s.openForm(d)
		s.printf("editing %q\n", d.Title)
	case "preview":
		ch, err := s.ex.StartPreview()
		if err != nil {
			return err
		}
		s.closeForm()
		s.printf("%s (%d xp)\n%s\n%s\n", ch.Title, ch.XP, ch.Summary, ch.Content)
		s.printQuestions(ch.Assessment)
	case "set":
		return s.set(rest)
	case "q":
		return s.question(rest)
	case "draft":
		return s.printForm()
	case "save":
		if !s.editing {
			return fmt.Errorf("%w: no editor open", ErrUsage)
		}
		return s.ex.SaveDraft(ctx, s.collect())
	case "submit":
		return s.submit(ctx)
	case "cancel":
		s.ex.Cancel()
		s.closeForm()
	case "exit":
		s.closeForm()
		return s.ex.Exit(ctx)
	case "delete":
		n, err := s.ex.RequestDelete()
		if err != nil {
			return err
		}
		s.printf("delete %s %q and everything under it? type confirm\n", n.Level(), n.NodeTitle())
	case "confirm":
		if _, err := s.ex.ConfirmDelete(ctx); err != nil {
			return err
		}
		s.printf("deleted\n")
	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
	return nil
}

func (s *Session) open(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: open <lesson-id>", ErrUsage)
	}
	ex := explorer.New(id, s.source, s.drafts)
	if err := ex.Reload(ctx); err != nil {
		return err
	}
	s.ex = ex
	s.closeForm()
	doc := ex.Document()
	terms, topics, lessons, chapters := doc.Count()
	s.printf("%s: %d terms, %d topics, %d lessons, %d chapters\n", doc.Title, terms, topics, lessons, chapters)
	return nil
}

func (s *Session) submit(ctx context.Context) error {
	if !s.editing {
		return fmt.Errorf("%w: no editor open", ErrUsage)
	}
	d := s.collect()
	if _, err := s.ex.Submit(ctx, d); err != nil {
		var verr *editor.ValidationError
		if errors.As(err, &verr) {
			s.form = d
		} else if _, mode := s.ex.State(); mode == explorer.Browsing {
			s.closeForm()
		}
		return err
	}
	s.closeForm()
	slog.Debug("submitted", "title", d.Title)
	s.printf("saved\n")
	return nil
}

func (s *Session) set(rest string) error {
	if !s.editing {
		return fmt.Errorf("%w: no editor open", ErrUsage)
	}
	field, value, _ := strings.Cut(rest, " ")
	switch field {
	case "title":
		s.form.Title = value
	case "summary":
		s.form.Summary = value
	case "content":
		s.form.Content = value
	case "xp":
		s.form.XP = value
	default:
		return fmt.Errorf("%w: set <title|summary|content|xp> <value>", ErrUsage)
	}
	return nil
}

func (s *Session) question(rest string) error {
	if !s.editing {
		return fmt.Errorf("%w: no editor open", ErrUsage)
	}
	sub, arg, _ := strings.Cut(rest, " ")
	arg = strings.TrimSpace(arg)

	switch sub {
	case "type":
		return s.qb.SetType(lesson.QuestionType(arg))
	case "prompt":
		s.qb.SetPrompt(arg)
	case "option":
		idx, text, _ := strings.Cut(arg, " ")
		i, err := strconv.Atoi(idx)
		if err != nil {
			return fmt.Errorf("%w: q option <index> <text>", ErrUsage)
		}
		return s.qb.SetOption(i, text)
	case "addoption":
		s.printf("option %d added\n", s.qb.AddOption())
	case "correct":
		i, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("%w: q correct <index>", ErrUsage)
		}
		return s.qb.SetCorrectIndex(i)
	case "words":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("%w: q words <limit>", ErrUsage)
		}
		s.qb.SetWordLimit(n)
	case "image":
		s.qb.SetImageURL(arg)
	case "add":
		if err := s.qb.AddQuestion(); err != nil {
			return err
		}
		s.printf("%d questions\n", len(s.qb.Accepted()))
	case "remove":
		i, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("%w: q remove <index>", ErrUsage)
		}
		return s.qb.Remove(i)
	case "list":
		s.printQuestions(s.qb.Accepted())
		cur := s.qb.Current()
		s.printf("current: %s %q %v\n", cur.Type, cur.Prompt, cur.Options)
	default:
		return fmt.Errorf("%w: unknown question command %q", ErrUsage, sub)
	}
	return nil
}

func (s *Session) openForm(d editor.Draft) {
	s.form = d
	s.editing = true
	s.qb = assessment.New(d.Assessment)
}

func (s *Session) closeForm() {
	s.form = editor.Draft{}
	s.editing = false
	s.qb = nil
}

// collect returns the form with the builder's questions, including a filled
// but not yet added one.
func (s *Session) collect() editor.Draft {
	d := s.form
	d.Assessment = s.qb.Save()
	s.qb = assessment.New(d.Assessment)
	return d
}

func (s *Session) printForm() error {
	if !s.editing {
		return fmt.Errorf("%w: no editor open", ErrUsage)
	}
	s.printf("title:   %s\nsummary: %s\n", s.form.Title, s.form.Summary)
	if s.form.Content != "" {
		s.printf("content: %s\n", s.form.Content)
	}
	if s.form.XP != nil {
		s.printf("xp:      %d\n", editor.CoerceXP(s.form.XP))
	}
	s.printQuestions(s.qb.Accepted())
	return nil
}

func (s *Session) printTree() {
	doc := s.ex.Document()
	s.printf("%s\n", doc.Title)
	for t, term := range doc.Terms {
		s.printNode(lesson.PathTo(t), term)
		for p, topic := range term.Topics {
			s.printNode(lesson.PathTo(t, p), topic)
			for l, les := range topic.Lessons {
				s.printNode(lesson.PathTo(t, p, l), les)
				for c, ch := range les.Chapters {
					s.printNode(lesson.PathTo(t, p, l, c), ch)
				}
			}
		}
	}
}

func (s *Session) printNode(p lesson.Path, n lesson.Node) {
	indent := strings.Repeat("  ", int(p.Level))
	s.printf("%s%s  [%s]\n", indent, n.NodeTitle(), p)
}

func (s *Session) printQuestions(qs lesson.Questions) {
	for i, q := range qs {
		s.printf("  %d. (%s) %s\n", i, q.Type(), q.Text())
	}
}

func (s *Session) prompt() {
	if s.ex == nil {
		s.printf("> ")
		return
	}
	_, mode := s.ex.State()
	s.printf("%s> ", mode)
}

func (s *Session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}
