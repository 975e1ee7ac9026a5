// Package presence mirrors user identity into the external chat service so
// that real-time chat can display names and avatars.
package presence

import "context"

// User is the subset of a profile the chat service needs.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// Syncer creates or updates a chat user keyed by ID.
type Syncer interface {
	UpsertUser(ctx context.Context, user User) error
}

// Noop is used when no chat service credentials are configured.
type Noop struct{}

func (Noop) UpsertUser(context.Context, User) error { return nil }
