package entity

import (
	"time"
)

// User is the aggregate root for user domain
// Passwords are stored as bcrypt hashes in Password field
type User struct {
	ID         string    `json:"id" bson:"_id"`
	Email      string    `json:"email" bson:"email" validate:"required,email,max=254"`
	Password   string    `json:"-" bson:"password" validate:"required"`
	Name       string    `json:"name" bson:"name" validate:"required,max=100"`
	Role       Role      `json:"role" bson:"role" validate:"required,oneof=user manager admin"`
	AvatarURL  string    `json:"avatar_url,omitempty" bson:"avatar_url,omitempty" validate:"omitempty,max=2048"`
	IsVerified bool      `json:"is_verified" bson:"is_verified"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
}

func (u *User) Validate() error { return validateStruct(u) }

// Public is the user as shown to other users.
type Public struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

func (u *User) Public() Public {
	return Public{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, AvatarURL: u.AvatarURL}
}
