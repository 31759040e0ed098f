// Package models defines the client-side data model for the auth API.
package models

import "time"

// User is the profile returned by the auth API. Field names follow the
// server's JSON contract; the same encoding is used when the profile is
// persisted locally.
type User struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Username   string     `json:"username"`
	IsActive   bool       `json:"is_active"`
	IsVerified bool       `json:"is_verified"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// Token is the login response: a bearer access token plus its type
// (always "bearer" for this API). The token itself is opaque to the
// client.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
