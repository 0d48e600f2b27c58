package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the closed set of user roles known to the system.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether the role is a member of the closed set.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// ParseRole maps arbitrary input to a role; anything but an explicit
// "admin" request falls back to the regular user role.
func ParseRole(raw string) Role {
	if Role(raw) == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// User is a registered account. PasswordHash never leaves the backend.
type User struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username         string             `bson:"username" json:"username"`
	Email            string             `bson:"email" json:"email"`
	PasswordHash     string             `bson:"passwordHash" json:"-"`
	Role             Role               `bson:"role" json:"role"`
	RegistrationDate time.Time          `bson:"registrationDate" json:"registrationDate"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PublicUser is the caller-facing projection of a User.
type PublicUser struct {
	ID               primitive.ObjectID `json:"id"`
	Username         string             `json:"username"`
	Email            string             `json:"email"`
	Role             Role               `json:"role"`
	RegistrationDate time.Time          `json:"registrationDate"`
}

// Public strips credential material from the user record.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:               u.ID,
		Username:         u.Username,
		Email:            u.Email,
		Role:             u.Role,
		RegistrationDate: u.RegistrationDate,
	}
}
