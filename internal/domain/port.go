package domain

import "context"

// KeyValueStore is the durable client-side storage holding the session entries.
type KeyValueStore interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// SetAll writes every entry atomically.
	SetAll(ctx context.Context, entries map[string]string) error
	// Delete removes the keys; missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}

// TokenSource yields the bearer token currently persisted, if any.
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

// InvalidationPublisher lets subscribers react to server-reported session invalidation.
type InvalidationPublisher interface {
	OnSessionInvalidated(fn func(SessionInvalidated)) (unsubscribe func())
}
