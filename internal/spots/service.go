package spots

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/curbshare/curbshare/internal/users"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrUserNotFound is returned when the authenticated user id no longer
// resolves to a stored user.
var ErrUserNotFound = errors.New("user not found")

// Service encapsulates listing business logic. It resolves owner usernames
// through the user repository and computes the viewer-dependent like state.
type Service struct {
	repo  Repository
	users users.Repository
}

func NewService(repo Repository, usersRepo users.Repository) *Service {
	return &Service{repo: repo, users: usersRepo}
}

// CreateInput carries a new listing. Tags is the raw space-separated string
// clients submit; it is split into words here.
type CreateInput struct {
	Title       string
	Description string
	Address     string
	ImageURL    string
	Tags        string
	Lat         float64
	Lng         float64
}

// View is the listing as seen by a particular viewer.
type View struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Address     string    `json:"address"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	Tags        []string  `json:"tags"`
	Owner       string    `json:"owner"`
	TimeCreated time.Time `json:"time_created"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	LikeCount   int       `json:"like_count"`
	IsLiked     bool      `json:"is_liked"`
}

func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*Spot, error) {
	owner, err := s.resolveUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	spot := &Spot{
		Title:       in.Title,
		Description: in.Description,
		Address:     in.Address,
		ImageURL:    in.ImageURL,
		Tags:        strings.Fields(in.Tags),
		OwnerID:     owner.ID,
		Lat:         in.Lat,
		Lng:         in.Lng,
	}
	created, err := s.repo.Create(ctx, spot)
	if err != nil {
		return nil, fmt.Errorf("create spot: %w", err)
	}
	return created, nil
}

// List returns all listings newest-first. viewerID may be empty for an
// anonymous viewer, whose IsLiked is always false.
func (s *Service) List(ctx context.Context, viewerID string) ([]View, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list spots: %w", err)
	}
	viewer := parseID(viewerID)
	names := map[primitive.ObjectID]string{}
	out := make([]View, 0, len(all))
	for _, sp := range all {
		out = append(out, s.view(ctx, sp, viewer, names))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id, viewerID string) (*View, error) {
	oid := parseID(id)
	if oid.IsZero() {
		return nil, ErrNotFound
	}
	sp, err := s.repo.Get(ctx, oid)
	if err != nil {
		return nil, err
	}
	v := s.view(ctx, sp, parseID(viewerID), map[primitive.ObjectID]string{})
	return &v, nil
}

// Update applies an owner-only partial update and returns the updated view.
func (s *Service) Update(ctx context.Context, id, ownerID string, p Patch) (*View, error) {
	owner, err := s.resolveUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	oid := parseID(id)
	if oid.IsZero() {
		return nil, ErrNotFound
	}
	sp, err := s.repo.UpdateOwned(ctx, oid, owner.ID, p)
	if err != nil {
		return nil, err
	}
	v := s.view(ctx, sp, owner.ID, map[primitive.ObjectID]string{owner.ID: owner.Username})
	return &v, nil
}

func (s *Service) Delete(ctx context.Context, id, ownerID string) error {
	owner, err := s.resolveUser(ctx, ownerID)
	if err != nil {
		return err
	}
	oid := parseID(id)
	if oid.IsZero() {
		return ErrNotFound
	}
	return s.repo.DeleteOwned(ctx, oid, owner.ID)
}

// ToggleLike flips the viewer's like on the spot and returns the new count
// and state.
func (s *Service) ToggleLike(ctx context.Context, id, userID string) (int, bool, error) {
	user, err := s.resolveUser(ctx, userID)
	if err != nil {
		return 0, false, err
	}
	oid := parseID(id)
	if oid.IsZero() {
		return 0, false, ErrNotFound
	}
	sp, err := s.repo.Get(ctx, oid)
	if err != nil {
		return 0, false, err
	}

	liked := false
	likes := make([]primitive.ObjectID, 0, len(sp.Likes)+1)
	for _, l := range sp.Likes {
		if l != user.ID {
			likes = append(likes, l)
		}
	}
	if len(likes) == len(sp.Likes) {
		likes = append(likes, user.ID)
		liked = true
	}

	if err := s.repo.SetLikes(ctx, oid, likes); err != nil {
		return 0, false, err
	}
	return len(likes), liked, nil
}

func (s *Service) view(ctx context.Context, sp *Spot, viewer primitive.ObjectID, names map[primitive.ObjectID]string) View {
	name, ok := names[sp.OwnerID]
	if !ok {
		name = "Unknown"
		if u, err := s.users.GetByID(ctx, sp.OwnerID.Hex()); err == nil && u != nil {
			name = u.Username
		}
		names[sp.OwnerID] = name
	}
	isLiked := !viewer.IsZero() && sp.likedBy(viewer)
	tags := sp.Tags
	if tags == nil {
		tags = []string{}
	}
	return View{
		ID:          sp.ID.Hex(),
		Title:       sp.Title,
		Address:     sp.Address,
		Description: sp.Description,
		ImageURL:    sp.ImageURL,
		Tags:        tags,
		Owner:       name,
		TimeCreated: sp.CreatedAt,
		Lat:         sp.Lat,
		Lng:         sp.Lng,
		LikeCount:   len(sp.Likes),
		IsLiked:     isLiked,
	}
}

func (s *Service) resolveUser(ctx context.Context, id string) (*resolvedUser, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return &resolvedUser{ID: u.ID, Username: u.Username}, nil
}

type resolvedUser struct {
	ID       primitive.ObjectID
	Username string
}

func parseID(id string) primitive.ObjectID {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}
