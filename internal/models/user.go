package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username  string             `bson:"username" json:"username"`
	Password  string             `bson:"password" json:"-"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

func NewUser(username, password string) *User {
	now := time.Now()
	return &User{
		ID:        primitive.NewObjectID(),
		Username:  username,
		Password:  password,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
