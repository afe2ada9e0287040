package comments

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/curbshare/curbshare/internal/spots"
	"github.com/curbshare/curbshare/internal/users"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrEmptyText is returned when the comment body is blank.
	ErrEmptyText = errors.New("empty comment")
	// ErrSpotNotFound is returned when the target listing does not exist.
	ErrSpotNotFound = errors.New("spot not found")
)

// Service implements comment creation, listing and likes for a spot.
type Service struct {
	repo  Repository
	spots spots.Repository
	users users.Repository
}

func NewService(repo Repository, spotsRepo spots.Repository, usersRepo users.Repository) *Service {
	return &Service{repo: repo, spots: spotsRepo, users: usersRepo}
}

// View is the API shape of a single comment.
type View struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	LikeCount int       `json:"like_count"`
	IsLiked   bool      `json:"is_liked"`
}

// Create posts a comment on a spot. The text must be non-blank and the spot
// must exist.
func (s *Service) Create(ctx context.Context, spotID, authorID, text string) (*View, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	sid := parseID(spotID)
	if _, err := s.spots.Get(ctx, sid); err != nil {
		if errors.Is(err, spots.ErrNotFound) {
			return nil, ErrSpotNotFound
		}
		return nil, err
	}
	aid := parseID(authorID)

	c, err := s.repo.Create(ctx, &Comment{SpotID: sid, AuthorID: aid, Text: text})
	if err != nil {
		return nil, err
	}
	v := s.view(ctx, c, aid, map[primitive.ObjectID]string{})
	return &v, nil
}

// ListBySpot returns the spot's comments newest first. viewerID may be empty
// for anonymous readers; their is_liked is always false.
func (s *Service) ListBySpot(ctx context.Context, spotID, viewerID string) ([]View, error) {
	sid := parseID(spotID)
	if _, err := s.spots.Get(ctx, sid); err != nil {
		if errors.Is(err, spots.ErrNotFound) {
			return nil, ErrSpotNotFound
		}
		return nil, err
	}
	list, err := s.repo.ListBySpot(ctx, sid)
	if err != nil {
		return nil, err
	}
	viewer := parseID(viewerID)
	names := map[primitive.ObjectID]string{}
	out := make([]View, 0, len(list))
	for _, c := range list {
		out = append(out, s.view(ctx, c, viewer, names))
	}
	return out, nil
}

// ToggleLike flips the viewer's like on a comment and returns the new count
// and state.
func (s *Service) ToggleLike(ctx context.Context, commentID, userID string) (int, bool, error) {
	c, err := s.repo.Get(ctx, parseID(commentID))
	if err != nil {
		return 0, false, err
	}
	uid := parseID(userID)
	// Build a fresh slice so the stored copy's backing array is untouched.
	likes := make([]primitive.ObjectID, 0, len(c.Likes)+1)
	for _, id := range c.Likes {
		if id != uid {
			likes = append(likes, id)
		}
	}
	liked := false
	if len(likes) == len(c.Likes) {
		likes = append(likes, uid)
		liked = true
	}
	if err := s.repo.SetLikes(ctx, c.ID, likes); err != nil {
		return 0, false, err
	}
	return len(likes), liked, nil
}

func (s *Service) view(ctx context.Context, c *Comment, viewer primitive.ObjectID, names map[primitive.ObjectID]string) View {
	name, ok := names[c.AuthorID]
	if !ok {
		name = "Unknown"
		if u, err := s.users.GetByID(ctx, c.AuthorID.Hex()); err == nil && u != nil {
			name = u.Username
		}
		names[c.AuthorID] = name
	}
	isLiked := false
	if !viewer.IsZero() {
		isLiked = c.likedBy(viewer)
	}
	return View{
		ID:        c.ID.Hex(),
		Text:      c.Text,
		Author:    name,
		CreatedAt: c.CreatedAt,
		LikeCount: len(c.Likes),
		IsLiked:   isLiked,
	}
}

func parseID(id string) primitive.ObjectID {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}
