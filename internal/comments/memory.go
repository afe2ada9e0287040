package comments

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepository is an in-memory Repository used by tests.
type MemoryRepository struct {
	mu    sync.Mutex
	store map[primitive.ObjectID]*Comment
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: make(map[primitive.ObjectID]*Comment)}
}

func (m *MemoryRepository) Create(ctx context.Context, c *Comment) (*Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	c.CreatedAt = time.Now().UTC()
	m.store[c.ID] = cloneComment(c)
	return c, nil
}

func (m *MemoryRepository) ListBySpot(ctx context.Context, spotID primitive.ObjectID) ([]*Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Comment
	for _, c := range m.store {
		if c.SpotID == spotID {
			out = append(out, cloneComment(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryRepository) Get(ctx context.Context, id primitive.ObjectID) (*Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.store[id]; ok {
		return cloneComment(c), nil
	}
	return nil, ErrNotFound
}

// cloneComment deep-copies likes so callers never alias the stored slice.
func cloneComment(c *Comment) *Comment {
	cp := *c
	cp.Likes = append([]primitive.ObjectID(nil), c.Likes...)
	return &cp
}

func (m *MemoryRepository) SetLikes(ctx context.Context, id primitive.ObjectID, likes []primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[id]
	if !ok {
		return ErrNotFound
	}
	c.Likes = append([]primitive.ObjectID(nil), likes...)
	return nil
}
