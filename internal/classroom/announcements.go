package classroom

import (
	"context"
	"strings"
	"time"

	"github.com/p-n-ai/pai-lms/internal/store"
)

// Announcement defaults.
const (
	DefaultBody     = "No content available."
	AudienceAll     = "all"
	DefaultAuthorID = "mock-author"
)

// Announcement is a notice shown to an audience.
type Announcement struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Audience  string    `json:"audience"`
	AuthorID  string    `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
}

var announcements = store.Collection{
	Key:     store.KeyAnnouncements,
	Default: func() any { return []Announcement{} },
}

// PostAnnouncement stores a new announcement. Only the title is required.
func (s *Service) PostAnnouncement(ctx context.Context, in Announcement) (Announcement, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := required("title", in.Title); err != nil {
		return Announcement{}, err
	}
	if strings.TrimSpace(in.Body) == "" {
		in.Body = DefaultBody
	}
	if in.Audience == "" {
		in.Audience = AudienceAll
	}
	if in.AuthorID == "" {
		in.AuthorID = DefaultAuthorID
	}
	in.ID = s.newID()
	in.CreatedAt = s.now()

	err := update(ctx, s, announcements, func(list *[]Announcement) error {
		*list = append(*list, in)
		return nil
	})
	if err != nil {
		return Announcement{}, err
	}
	return in, nil
}

// Announcements lists announcements in posting order. A non-empty audience
// keeps only announcements for that audience or for everyone.
func (s *Service) Announcements(ctx context.Context, audience string) ([]Announcement, error) {
	list, err := load[[]Announcement](ctx, s, announcements)
	if err != nil {
		return nil, err
	}
	if audience == "" || audience == AudienceAll {
		return list, nil
	}
	out := make([]Announcement, 0, len(list))
	for _, a := range list {
		if a.Audience == AudienceAll || a.Audience == audience {
			out = append(out, a)
		}
	}
	return out, nil
}
