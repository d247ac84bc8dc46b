// Package session keeps per-client server-side state behind a cookie.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by a Store when the id is unknown or expired.
var ErrNotFound = errors.New("session not found")

// Store persists session values by id.
type Store interface {
	Load(ctx context.Context, id string) (map[string]json.RawMessage, error)
	Save(ctx context.Context, id string, values map[string]json.RawMessage) error
	Delete(ctx context.Context, id string) error
}

// Session is the state of one client. It is owned by the single request
// that loaded it and is not safe for concurrent use.
type Session struct {
	id       string
	values   map[string]json.RawMessage
	modified bool
	isNew    bool
}

// New creates an empty session with the given id.
func New(id string) *Session {
	return &Session{id: id, values: make(map[string]json.RawMessage), isNew: true}
}

func loaded(id string, values map[string]json.RawMessage) *Session {
	if values == nil {
		values = make(map[string]json.RawMessage)
	}
	return &Session{id: id, values: values}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// IsNew reports whether the session was created by this request.
func (s *Session) IsNew() bool { return s.isNew }

// Modified reports whether values changed since load.
func (s *Session) Modified() bool { return s.modified }

// Has reports whether key is set.
func (s *Session) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Get decodes the value under key into dest. It reports false when the key is absent.
func (s *Session) Get(key string, dest any) (bool, error) {
	raw, ok := s.values[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return true, fmt.Errorf("session value %q: %w", key, err)
	}
	return true, nil
}

// Set stores value under key and marks the session modified.
func (s *Session) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("session value %q: %w", key, err)
	}
	s.values[key] = raw
	s.modified = true
	return nil
}

// Delete removes key and marks the session modified.
func (s *Session) Delete(key string) {
	if _, ok := s.values[key]; ok {
		delete(s.values, key)
		s.modified = true
	}
}

// Save writes the session to store if it was modified.
func (s *Session) Save(ctx context.Context, store Store) error {
	if !s.modified {
		return nil
	}
	if err := store.Save(ctx, s.id, s.values); err != nil {
		return err
	}
	s.modified = false
	s.isNew = false
	return nil
}
