package messages

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/curbshare/curbshare/internal/models"
	"github.com/curbshare/curbshare/internal/users"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrEmptyMessage is returned when the body is blank.
	ErrEmptyMessage = errors.New("empty message")
	// ErrUserNotFound is returned when the counterpart does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// Service implements direct messaging between users.
type Service struct {
	repo  Repository
	users users.Repository
}

func NewService(repo Repository, usersRepo users.Repository) *Service {
	return &Service{repo: repo, users: usersRepo}
}

// InboxEntry is the latest exchange with one counterpart.
type InboxEntry struct {
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	ProfileImage string    `json:"profile_image"`
	LastMessage  string    `json:"last_message"`
	Timestamp    time.Time `json:"timestamp"`
}

// View is one message in a conversation.
type View struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"sender_id"`
	Body      string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Send delivers a message to the user with the given username.
func (s *Service) Send(ctx context.Context, senderID, receiverUsername, body string) error {
	body = strings.TrimSpace(body)
	if body == "" {
		return ErrEmptyMessage
	}
	receiver, err := s.users.GetByUsername(ctx, receiverUsername)
	if err != nil {
		return err
	}
	if receiver == nil {
		return ErrUserNotFound
	}
	sid, err := primitive.ObjectIDFromHex(senderID)
	if err != nil {
		return ErrUserNotFound
	}
	_, err = s.repo.Create(ctx, &Message{
		SenderID:   sid,
		ReceiverID: receiver.ID,
		Body:       body,
	})
	return err
}

// Inbox returns the latest message per counterpart, newest conversation
// first.
func (s *Service) Inbox(ctx context.Context, userID string) ([]InboxEntry, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	msgs, err := s.repo.ListInvolving(ctx, uid)
	if err != nil {
		return nil, err
	}

	// msgs is newest-first, so the first message seen per counterpart is
	// the latest one.
	seen := map[primitive.ObjectID]bool{}
	out := make([]InboxEntry, 0)
	for _, m := range msgs {
		other := m.SenderID
		if other == uid {
			other = m.ReceiverID
		}
		if seen[other] {
			continue
		}
		seen[other] = true

		entry := InboxEntry{
			UserID:      other.Hex(),
			Username:    "Unknown",
			LastMessage: m.Body,
			Timestamp:   m.CreatedAt,
		}
		if u, err := s.users.GetByID(ctx, other.Hex()); err == nil && u != nil {
			entry.Username = u.Username
			entry.ProfileImage = u.ProfileImage
		}
		out = append(out, entry)
	}
	return out, nil
}

// Conversation returns the full two-way exchange with the counterpart,
// oldest first.
func (s *Service) Conversation(ctx context.Context, userID, otherID string) ([]View, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	other, err := s.resolve(ctx, otherID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.repo.ListBetween(ctx, uid, other.ID)
	if err != nil {
		return nil, err
	}
	out := make([]View, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, View{
			ID:        m.ID.Hex(),
			SenderID:  m.SenderID.Hex(),
			Body:      m.Body,
			Timestamp: m.CreatedAt,
		})
	}
	return out, nil
}

func (s *Service) resolve(ctx context.Context, id string) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}
