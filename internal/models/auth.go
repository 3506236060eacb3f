package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	SchoolID  string `json:"school_id" validate:"omitempty,uuid"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        UserInfo  `json:"user"`
	IssuedAt    time.Time `json:"issued_at"`
}

// Membership is the compact form of SchoolMembership carried in tokens.
type Membership struct {
	SchoolID string   `json:"school_id"`
	Role     UserRole `json:"role"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID          string       `json:"id"`
	Email       string       `json:"email"`
	FullName    string       `json:"full_name"`
	Role        UserRole     `json:"role"`
	SchoolID    string       `json:"school_id"`
	Memberships []Membership `json:"memberships"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID      string       `json:"user_id"`
	Role        UserRole     `json:"role"`
	Email       string       `json:"email"`
	FullName    string       `json:"full_name"`
	SchoolID    string       `json:"school_id"`
	Memberships []Membership `json:"memberships"`
	jwt.RegisteredClaims
}

// RoleIn returns the role held in schoolID, if any.
func (c *JWTClaims) RoleIn(schoolID string) (UserRole, bool) {
	for _, m := range c.Memberships {
		if m.SchoolID == schoolID {
			return m.Role, true
		}
	}
	return "", false
}

// Actor is the already authorised caller of a domain operation. Scheduled jobs act
// with an empty UserID.
type Actor struct {
	UserID   string
	Name     string
	Role     UserRole
	SchoolID string
}

// SystemActor is used by background routines.
func SystemActor(schoolID string) Actor {
	return Actor{Name: "system", SchoolID: schoolID}
}

// IDRef returns the actor id as a nullable column value.
func (a Actor) IDRef() *string {
	if a.UserID == "" {
		return nil
	}
	id := a.UserID
	return &id
}
