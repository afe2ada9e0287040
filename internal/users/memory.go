package users

import (
	"context"
	"sync"
	"time"

	"github.com/curbshare/curbshare/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepository is an in-memory Repository with the same uniqueness
// semantics as the Mongo implementation. Used by tests.
type MemoryRepository struct {
	mu    sync.Mutex
	store map[primitive.ObjectID]*models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: make(map[primitive.ObjectID]*models.User)}
}

func (m *MemoryRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.store {
		if existing.Email == u.Email {
			return nil, ErrDuplicate
		}
		if u.GoogleID != "" && existing.GoogleID == u.GoogleID {
			return nil, ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	m.store[u.ID] = &cp
	return u, nil
}

func (m *MemoryRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.store[oid]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *MemoryRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.findFirst(func(u *models.User) bool { return u.Email == email })
}

func (m *MemoryRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.findFirst(func(u *models.User) bool { return u.Username == username })
}

func (m *MemoryRepository) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return m.findFirst(func(u *models.User) bool { return u.GoogleID != "" && u.GoogleID == googleID })
}

func (m *MemoryRepository) UpdateProfile(ctx context.Context, id string, p ProfilePatch) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[oid]
	if !ok {
		return ErrNotFound
	}
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Firstname != nil {
		u.Firstname = *p.Firstname
	}
	if p.Lastname != nil {
		u.Lastname = *p.Lastname
	}
	if p.ProfileImage != nil {
		u.ProfileImage = *p.ProfileImage
	}
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryRepository) findFirst(match func(*models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.store {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}
