package spots

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("spot not found")

// Patch is a partial listing update; nil fields are left untouched.
type Patch struct {
	Title       *string
	Description *string
	ImageURL    *string
	Tags        []string
}

// Repository defines persistence operations for parking spots
type Repository interface {
	Create(ctx context.Context, s *Spot) (*Spot, error)
	List(ctx context.Context) ([]*Spot, error)
	Get(ctx context.Context, id primitive.ObjectID) (*Spot, error)
	UpdateOwned(ctx context.Context, id, owner primitive.ObjectID, p Patch) (*Spot, error)
	DeleteOwned(ctx context.Context, id, owner primitive.ObjectID) error
	SetLikes(ctx context.Context, id primitive.ObjectID, likes []primitive.ObjectID) error
}

// MongoRepository implements Repository using MongoDB
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, s *Spot) (*Spot, error) {
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	res, err := r.col.InsertOne(ctx, s)
	if err != nil {
		return nil, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		s.ID = oid
	}
	return s, nil
}

// List returns all spots, newest first.
func (r *MongoRepository) List(ctx context.Context) ([]*Spot, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*Spot{}
	for cur.Next(ctx) {
		var s Spot
		if err := cur.Decode(&s); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, cur.Err()
}

func (r *MongoRepository) Get(ctx context.Context, id primitive.ObjectID) (*Spot, error) {
	var s Spot
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&s); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// UpdateOwned applies the patch when the spot exists and belongs to owner;
// a missing spot and a foreign spot are indistinguishable.
func (r *MongoRepository) UpdateOwned(ctx context.Context, id, owner primitive.ObjectID, p Patch) (*Spot, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.ImageURL != nil {
		set["imageUrl"] = *p.ImageURL
	}
	if p.Tags != nil {
		set["tags"] = p.Tags
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var s Spot
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id, "ownerId": owner}, bson.M{"$set": set}, opts).Decode(&s)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *MongoRepository) DeleteOwned(ctx context.Context, id, owner primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "ownerId": owner})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) SetLikes(ctx context.Context, id primitive.ObjectID, likes []primitive.ObjectID) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"likes": likes, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
