package model

import "time"

// User is a registered account. Email is unique and stored lowercased.
type User struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty"`
	Email        string    `json:"email" bson:"email"`
	FirstName    string    `json:"first_name" bson:"first_name"`
	LastName     string    `json:"last_name" bson:"last_name"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	Role         Role      `json:"role" bson:"role"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// Principal is the identity carried by the user's access tokens.
func (u *User) Principal() Principal {
	return Principal{UserID: u.ID, Name: u.FirstName, Role: u.Role}
}

// bcrypt ignores input past 72 bytes, hence the password cap.
type UserRegistration struct {
	Email          string `json:"email" validate:"required,email,max=100"`
	Password       string `json:"password" validate:"required,min=8,max=72"`
	RepeatPassword string `json:"repeat_password" validate:"required,eqfield=Password"`
	FirstName      string `json:"first_name" validate:"required,max=50"`
	LastName       string `json:"last_name" validate:"required,max=50"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,max=72"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type UserUpdate struct {
	Email     string `json:"email" validate:"required,email,max=100"`
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name" validate:"required,max=50"`
}

type PasswordUpdate struct {
	Password       string `json:"password" validate:"required,min=8,max=72"`
	RepeatPassword string `json:"repeat_password" validate:"required,eqfield=Password"`
}

type RoleUpdate struct {
	Role Role `json:"role" validate:"required,oneof=USER ADMIN"`
}
