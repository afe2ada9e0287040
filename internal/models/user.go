package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Login methods. The method is fixed at account creation and never changes:
// a Google-created account has no password and can never log in with one.
const (
	LoginMethodLocal  = "local"
	LoginMethodGoogle = "google"
)

// User is the identity record shared by password and Google accounts.
// Exactly one of PasswordHash / GoogleID is set, matching LoginMethod.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	Username     string             `bson:"username" json:"username"`
	PasswordHash string             `bson:"passwordHash,omitempty" json:"-"`
	GoogleID     string             `bson:"googleId,omitempty" json:"-"`
	LoginMethod  string             `bson:"loginMethod" json:"login_method"`
	Firstname    string             `bson:"firstname,omitempty" json:"firstname,omitempty"`
	Lastname     string             `bson:"lastname,omitempty" json:"lastname,omitempty"`
	ProfileImage string             `bson:"profileImage,omitempty" json:"profile_image,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updated_at"`
}
