// Package storage persists whole collections (issues, users, votes) as JSON
// arrays addressed by key. Every backend reads and writes a collection in one
// piece; Collections adds typed access and serialises writers.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// Collection keys.
const (
	IssuesKey = "issues"
	UsersKey  = "users"
	VotesKey  = "votes"
)

var (
	// ErrNotFound is returned by Get when a collection has never been written.
	ErrNotFound = errors.New("collection not found")

	keyPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)
)

// Store gets and sets serialized collections by key.
type Store interface {
	// Get returns the raw JSON of a collection, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set replaces a collection.
	Set(ctx context.Context, key string, data []byte) error
	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}

func validateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("invalid collection key %q", key)
	}
	return nil
}
