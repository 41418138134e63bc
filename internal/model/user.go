// Package model defines the data structures used throughout the application.
package model

import "time"

// User is a registered account.
//
// PasswordHash carries the bcrypt hash and is tagged json:"-" so it can never
// leak into an API response, even if a handler encodes the struct directly.
//
// GitHubID is set only for accounts created or linked through GitHub
// sign-in. It is a pointer because "no GitHub account" must be distinct from
// GitHub's (never issued) id 0.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	GitHubID     *int64    `json:"githubId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserInput is the data needed to create a user. The store assigns ID and
// CreatedAt.
type UserInput struct {
	Username     string
	PasswordHash string
	GitHubID     *int64
}
