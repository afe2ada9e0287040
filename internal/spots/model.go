package spots

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Spot is a published parking-spot listing. Likes holds the ids of users who
// currently like the listing; toggling a like adds or removes an entry.
type Spot struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	Title       string               `bson:"title"`
	Description string               `bson:"description,omitempty"`
	Address     string               `bson:"address"`
	ImageURL    string               `bson:"imageUrl,omitempty"`
	Tags        []string             `bson:"tags,omitempty"`
	OwnerID     primitive.ObjectID   `bson:"ownerId"`
	Lat         float64              `bson:"lat"`
	Lng         float64              `bson:"lng"`
	Likes       []primitive.ObjectID `bson:"likes,omitempty"`
	CreatedAt   time.Time            `bson:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt"`
}

func (s *Spot) likedBy(userID primitive.ObjectID) bool {
	for _, id := range s.Likes {
		if id == userID {
			return true
		}
	}
	return false
}
