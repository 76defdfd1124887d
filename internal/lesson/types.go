// Package lesson holds the curriculum tree (term → topic → lesson → chapter)
// and the copy-on-write mutation engine that edits it by index path.
package lesson

// Document is a lesson structure: an ordered list of terms.
type Document struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Subject string `json:"subject,omitempty"`
	Grade   string `json:"grade,omitempty"`
	Terms   []Term `json:"terms"`
}

// Term is the coarsest level of the tree.
type Term struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Summary    string    `json:"summary"`
	Assessment Questions `json:"assessment"`
	Topics     []Topic   `json:"topics"`
}

// Topic groups lessons inside a term.
type Topic struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Summary    string    `json:"summary"`
	Assessment Questions `json:"assessment"`
	Lessons    []Lesson  `json:"lessons"`
}

// Lesson groups chapters inside a topic.
type Lesson struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Summary    string    `json:"summary"`
	XP         int       `json:"xp"`
	Assessment Questions `json:"assessment"`
	Chapters   []Chapter `json:"chapters"`
}

// Chapter is a leaf. Content is an HTML fragment and is never parsed here.
type Chapter struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Summary    string    `json:"summary"`
	Content    string    `json:"content"`
	XP         int       `json:"xp"`
	Assessment Questions `json:"assessment"`
}

// Node is any one of Term, Topic, Lesson or Chapter.
type Node interface {
	Level() Level
	NodeID() string
	NodeTitle() string
	NodeSummary() string
	Questions() Questions
}

func (Term) Level() Level    { return LevelTerm }
func (Topic) Level() Level   { return LevelTopic }
func (Lesson) Level() Level  { return LevelLesson }
func (Chapter) Level() Level { return LevelChapter }

func (t Term) NodeID() string    { return t.ID }
func (t Topic) NodeID() string   { return t.ID }
func (l Lesson) NodeID() string  { return l.ID }
func (c Chapter) NodeID() string { return c.ID }

func (t Term) NodeTitle() string    { return t.Title }
func (t Topic) NodeTitle() string   { return t.Title }
func (l Lesson) NodeTitle() string  { return l.Title }
func (c Chapter) NodeTitle() string { return c.Title }

func (t Term) NodeSummary() string    { return t.Summary }
func (t Topic) NodeSummary() string   { return t.Summary }
func (l Lesson) NodeSummary() string  { return l.Summary }
func (c Chapter) NodeSummary() string { return c.Summary }

func (t Term) Questions() Questions    { return t.Assessment }
func (t Topic) Questions() Questions   { return t.Assessment }
func (l Lesson) Questions() Questions  { return l.Assessment }
func (c Chapter) Questions() Questions { return c.Assessment }

// NewDocument returns an empty document with the given identity.
func NewDocument(id, title string) *Document {
	return &Document{ID: id, Title: title, Terms: []Term{}}
}

// Normalize replaces nil child and assessment slices with empty ones so the
// document always encodes with [] rather than null.
func (d *Document) Normalize() {
	if d.Terms == nil {
		d.Terms = []Term{}
	}
	for i := range d.Terms {
		t := &d.Terms[i]
		t.Assessment = t.Assessment.orEmpty()
		if t.Topics == nil {
			t.Topics = []Topic{}
		}
		for j := range t.Topics {
			p := &t.Topics[j]
			p.Assessment = p.Assessment.orEmpty()
			if p.Lessons == nil {
				p.Lessons = []Lesson{}
			}
			for k := range p.Lessons {
				l := &p.Lessons[k]
				l.Assessment = l.Assessment.orEmpty()
				if l.Chapters == nil {
					l.Chapters = []Chapter{}
				}
				for m := range l.Chapters {
					l.Chapters[m].Assessment = l.Chapters[m].Assessment.orEmpty()
				}
			}
		}
	}
}

// Count returns the number of nodes at each level.
func (d *Document) Count() (terms, topics, lessons, chapters int) {
	terms = len(d.Terms)
	for _, t := range d.Terms {
		topics += len(t.Topics)
		for _, p := range t.Topics {
			lessons += len(p.Lessons)
			for _, l := range p.Lessons {
				chapters += len(l.Chapters)
			}
		}
	}
	return terms, topics, lessons, chapters
}
