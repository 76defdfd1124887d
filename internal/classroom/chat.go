package classroom

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/p-n-ai/pai-lms/internal/store"
)

// Room is a group chat room.
type Room struct {
	ID          string   `json:"_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Access      []string `json:"access"`
	CreatedBy   string   `json:"createdBy"`
}

// RoomMessage is one message in a room.
type RoomMessage struct {
	ID         string    `json:"_id"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
}

// DirectMessage is one message in a direct-message thread.
type DirectMessage struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"roomId"`
	SenderID  string    `json:"senderId"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

var (
	rooms = store.Collection{
		Key:     store.KeyChatRooms,
		Default: func() any { return []Room{} },
	}
	roomMessages = store.Collection{
		Key:     store.KeyMessages,
		Default: func() any { return map[string][]RoomMessage{} },
	}
	directMessages = store.Collection{
		Key:     store.KeyDirectMessages,
		Default: func() any { return map[string][]DirectMessage{} },
	}
)

// CreateRoom stores a new room. Access defaults to ["shared"].
func (s *Service) CreateRoom(ctx context.Context, in Room) (Room, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := required("name", in.Name); err != nil {
		return Room{}, err
	}
	if len(in.Access) == 0 {
		in.Access = []string{"shared"}
	}
	if in.CreatedBy == "" {
		in.CreatedBy = "mock-user"
	}
	in.ID = s.newID()

	err := update(ctx, s, rooms, func(list *[]Room) error {
		*list = append(*list, in)
		return nil
	})
	if err != nil {
		return Room{}, err
	}
	return in, nil
}

// Rooms lists all rooms.
func (s *Service) Rooms(ctx context.Context) ([]Room, error) {
	return load[[]Room](ctx, s, rooms)
}

// PostRoomMessage appends a message to an existing room.
func (s *Service) PostRoomMessage(ctx context.Context, roomID string, in RoomMessage) (RoomMessage, error) {
	if strings.TrimSpace(in.Text) == "" {
		return RoomMessage{}, fmt.Errorf("%w: text is required", ErrInvalid)
	}
	list, err := s.Rooms(ctx)
	if err != nil {
		return RoomMessage{}, err
	}
	found := false
	for _, r := range list {
		if r.ID == roomID {
			found = true
			break
		}
	}
	if !found {
		return RoomMessage{}, fmt.Errorf("room %s: %w", roomID, ErrNotFound)
	}

	in.ID = s.newID()
	in.Timestamp = s.now()
	err = update(ctx, s, roomMessages, func(m *map[string][]RoomMessage) error {
		if *m == nil {
			*m = make(map[string][]RoomMessage)
		}
		(*m)[roomID] = append((*m)[roomID], in)
		return nil
	})
	if err != nil {
		return RoomMessage{}, err
	}
	return in, nil
}

// RoomMessages returns a room's messages; a room without messages has none.
func (s *Service) RoomMessages(ctx context.Context, roomID string) ([]RoomMessage, error) {
	m, err := load[map[string][]RoomMessage](ctx, s, roomMessages)
	if err != nil {
		return nil, err
	}
	if msgs := m[roomID]; msgs != nil {
		return msgs, nil
	}
	return []RoomMessage{}, nil
}

// SendDirect appends a message to the thread named by in.RoomID.
func (s *Service) SendDirect(ctx context.Context, in DirectMessage) (DirectMessage, error) {
	if err := required("roomId", in.RoomID); err != nil {
		return DirectMessage{}, err
	}
	if strings.TrimSpace(in.Content) == "" {
		return DirectMessage{}, fmt.Errorf("%w: content is required", ErrInvalid)
	}
	in.ID = s.newID()
	in.Timestamp = s.now()

	err := update(ctx, s, directMessages, func(m *map[string][]DirectMessage) error {
		if *m == nil {
			*m = make(map[string][]DirectMessage)
		}
		(*m)[in.RoomID] = append((*m)[in.RoomID], in)
		return nil
	})
	if err != nil {
		return DirectMessage{}, err
	}
	return in, nil
}

// Thread returns the messages of a direct-message thread.
func (s *Service) Thread(ctx context.Context, roomID string) ([]DirectMessage, error) {
	m, err := load[map[string][]DirectMessage](ctx, s, directMessages)
	if err != nil {
		return nil, err
	}
	if msgs := m[roomID]; msgs != nil {
		return msgs, nil
	}
	return []DirectMessage{}, nil
}
