package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"civease-be/models"
)

// Collections gives typed access to the stored collections. Updates run
// read-modify-write under a per-collection mutex, so writers in this process
// never lose each other's changes. Separate processes sharing a backend still
// race, and the last write wins.
//
// Reads skip individual records that do not decode. Updates refuse to run on
// such a collection instead, so a rewrite never drops them.
type Collections struct {
	store Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewCollections wraps store.
func NewCollections(store Store) *Collections {
	return &Collections{
		store: store,
		locks: make(map[string]*sync.Mutex),
	}
}

// Store returns the underlying backend.
func (c *Collections) Store() Store {
	return c.store
}

func (c *Collections) Issues(ctx context.Context) ([]models.Issue, error) {
	return load[models.Issue](ctx, c.store, IssuesKey, false)
}

func (c *Collections) Users(ctx context.Context) ([]models.User, error) {
	return load[models.User](ctx, c.store, UsersKey, false)
}

func (c *Collections) Votes(ctx context.Context) ([]models.Vote, error) {
	return load[models.Vote](ctx, c.store, VotesKey, false)
}

// UpdateIssues loads the issues, applies fn and writes the result back. An
// error from fn aborts the write and is returned unchanged.
func (c *Collections) UpdateIssues(ctx context.Context, fn func([]models.Issue) ([]models.Issue, error)) error {
	return update(ctx, c, IssuesKey, fn)
}

func (c *Collections) UpdateUsers(ctx context.Context, fn func([]models.User) ([]models.User, error)) error {
	return update(ctx, c, UsersKey, fn)
}

func (c *Collections) UpdateVotes(ctx context.Context, fn func([]models.Vote) ([]models.Vote, error)) error {
	return update(ctx, c, VotesKey, fn)
}

func (c *Collections) lock(key string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.locks[key]
	if !ok {
		l = &sync.Mutex{}
		c.locks[key] = l
	}
	return l
}

// load decodes a collection. A collection that was never written is empty.
// Data that is not a JSON array is always an error; a record that does not
// decode is skipped unless strict is set.
func load[T any](ctx context.Context, store Store, key string, strict bool) ([]T, error) {
	data, err := store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}

	items := make([]T, 0, len(records))
	for i, record := range records {
		var item T
		if err := json.Unmarshal(record, &item); err != nil {
			if strict {
				return nil, fmt.Errorf("failed to decode %s record %d: %w", key, i, err)
			}
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func update[T any](ctx context.Context, c *Collections, key string, fn func([]T) ([]T, error)) error {
	l := c.lock(key)
	l.Lock()
	defer l.Unlock()

	items, err := load[T](ctx, c.store, key, true)
	if err != nil {
		return err
	}

	items, err = fn(items)
	if err != nil {
		return err
	}
	if items == nil {
		items = []T{}
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := c.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
