package lesson

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Level is a depth in the tree. LevelDocument addresses the root.
type Level int

const (
	LevelDocument Level = iota
	LevelTerm
	LevelTopic
	LevelLesson
	LevelChapter
)

var (
	// ErrInvalidLevel is returned when a level name or payload does not fit the addressed position.
	ErrInvalidLevel = errors.New("invalid level")
	// ErrPathOutOfRange is returned when any index of a path does not exist in the document.
	ErrPathOutOfRange = errors.New("path out of range")
	// ErrInvalidPath is returned by ParsePath for text that is not a path.
	ErrInvalidPath = errors.New("invalid path")
)

var levelNames = [...]string{"document", "term", "topic", "lesson", "chapter"}

func (l Level) String() string {
	if l < LevelDocument || l > LevelChapter {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel maps "term", "topic", "lesson" or "chapter" to a Level.
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if i > 0 && strings.EqualFold(s, name) {
			return Level(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
}

// Parent returns the level one step up. The parent of a term is the document.
func (l Level) Parent() Level {
	if l <= LevelDocument {
		return LevelDocument
	}
	return l - 1
}

// Child returns the level one step down, or false for chapters.
func (l Level) Child() (Level, bool) {
	if l >= LevelChapter || l < LevelDocument {
		return 0, false
	}
	return l + 1, true
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(b []byte) error {
	if string(b) == levelNames[LevelDocument] {
		*l = LevelDocument
		return nil
	}
	v, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// Path locates a node by the index of each of its ancestors and itself.
// Indices below Level are ignored.
type Path struct {
	Level   Level `json:"type"`
	Term    int   `json:"termIndex"`
	Topic   int   `json:"topicIndex"`
	Lesson  int   `json:"lessonIndex"`
	Chapter int   `json:"chapterIndex"`
}

// Root addresses the document itself.
var Root = Path{Level: LevelDocument}

// PathTo builds a path at the depth given by the number of indices.
func PathTo(indices ...int) Path {
	p := Path{Level: Level(len(indices))}
	if p.Level > LevelChapter {
		p.Level = LevelChapter
	}
	for i, idx := range indices {
		switch Level(i + 1) {
		case LevelTerm:
			p.Term = idx
		case LevelTopic:
			p.Topic = idx
		case LevelLesson:
			p.Lesson = idx
		case LevelChapter:
			p.Chapter = idx
		}
	}
	return p
}

// Indices returns the meaningful indices of p, outermost first.
func (p Path) Indices() []int {
	all := []int{p.Term, p.Topic, p.Lesson, p.Chapter}
	if p.Level <= LevelDocument {
		return nil
	}
	return append([]int(nil), all[:p.Level]...)
}

// Parent drops the last index.
func (p Path) Parent() Path {
	idx := p.Indices()
	if len(idx) == 0 {
		return Root
	}
	return PathTo(idx[:len(idx)-1]...)
}

// Child extends p with one more index.
func (p Path) Child(i int) Path {
	return PathTo(append(p.Indices(), i)...)
}

// Equal compares only the meaningful indices.
func (p Path) Equal(o Path) bool {
	if p.Level != o.Level {
		return false
	}
	a, b := p.Indices(), o.Indices()
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// String renders the path in the REST scheme, e.g. "term/0/topic/1".
func (p Path) String() string {
	var sb strings.Builder
	for i, idx := range p.Indices() {
		if i > 0 {
			sb.WriteByte('/')
		}
		fmt.Fprintf(&sb, "%s/%d", Level(i+1), idx)
	}
	return sb.String()
}

// ParsePath reads the form produced by String. Levels must appear in tree
// order starting at term; the empty string is Root.
func ParsePath(s string) (Path, error) {
	s = strings.Trim(s, "/")
	if s == "" {
		return Root, nil
	}
	segs := strings.Split(s, "/")
	if len(segs)%2 != 0 || len(segs)/2 > int(LevelChapter) {
		return Path{}, fmt.Errorf("%w: %q", ErrInvalidPath, s)
	}
	indices := make([]int, 0, len(segs)/2)
	for i := 0; i < len(segs); i += 2 {
		level, err := ParseLevel(segs[i])
		if err != nil {
			return Path{}, err
		}
		if want := Level(i/2 + 1); level != want {
			return Path{}, fmt.Errorf("%w: expected %s, got %s", ErrInvalidLevel, want, level)
		}
		idx, err := strconv.Atoi(segs[i+1])
		if err != nil || idx < 0 {
			return Path{}, fmt.Errorf("%w: bad %s index %q", ErrInvalidPath, level, segs[i+1])
		}
		indices = append(indices, idx)
	}
	return PathTo(indices...), nil
}

// MarshalJSON omits indices deeper than the level.
func (p Path) MarshalJSON() ([]byte, error) {
	m := map[string]any{"type": p.Level.String()}
	keys := []string{"termIndex", "topicIndex", "lessonIndex", "chapterIndex"}
	for i, idx := range p.Indices() {
		m[keys[i]] = idx
	}
	return json.Marshal(m)
}

func (p *Path) UnmarshalJSON(data []byte) error {
	type plain Path
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = Path(v)
	return nil
}
