// Package sessionstore is the durable key-value store for session
// credentials: the bearer token, the serialized user profile, and the
// client installation id. Entries survive process restarts.
package sessionstore

import "context"

// Keys recognized by the session manager.
const (
	// KeyToken holds the raw bearer token of the remembered session.
	KeyToken = "auth_token"
	// KeyUser holds the JSON-serialized profile of the remembered session.
	KeyUser = "auth_user"
	// KeyClientID holds the installation id; it outlives logins.
	KeyClientID = "client_id"
)

// Repository is the persistence contract. Get returns (nil, nil) for an
// absent key. SetMany and DeleteMany apply all their changes in a single
// transaction, so the token and user entries cannot diverge mid-write.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetMany(ctx context.Context, entries map[string][]byte) error
	DeleteMany(ctx context.Context, keys ...string) error
}
