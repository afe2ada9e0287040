package comments

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment is a remark left on a parking spot listing.
type Comment struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty"`
	SpotID    primitive.ObjectID   `bson:"spotId"`
	AuthorID  primitive.ObjectID   `bson:"authorId"`
	Text      string               `bson:"text"`
	Likes     []primitive.ObjectID `bson:"likes,omitempty"`
	CreatedAt time.Time            `bson:"createdAt"`
}

func (c *Comment) likedBy(user primitive.ObjectID) bool {
	for _, id := range c.Likes {
		if id == user {
			return true
		}
	}
	return false
}
