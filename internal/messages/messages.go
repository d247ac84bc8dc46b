// Package messages is the process-wide in-memory message board.
package messages

import (
	"cmp"
	"slices"
	"sync"

	"github.com/marshallshelly/pebble-shop/internal/apperr"
)

// Message is one stored text.
type Message struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

const msgNotFound = "Message not found"

// Store holds messages keyed by id. Ids increase monotonically and are never reused.
type Store struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{items: make(map[int64]string)}
}

// List returns every message by ascending id.
func (s *Store) List() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, 0, len(s.items))
	for id, text := range s.items {
		out = append(out, Message{ID: id, Text: text})
	}
	slices.SortFunc(out, func(a, b Message) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Get returns message id.
func (s *Store) Get(id int64) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.items[id]
	if !ok {
		return Message{}, apperr.NotFound(msgNotFound)
	}
	return Message{ID: id, Text: text}, nil
}

// Create stores text under the next id.
func (s *Store) Create(text string) Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.items[s.nextID] = text
	return Message{ID: s.nextID, Text: text}
}

// Update replaces the text of message id.
func (s *Store) Update(id int64, text string) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return Message{}, apperr.NotFound(msgNotFound)
	}
	s.items[id] = text
	return Message{ID: id, Text: text}, nil
}

// Delete removes message id.
func (s *Store) Delete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return apperr.NotFound(msgNotFound)
	}
	delete(s.items, id)
	return nil
}

// DeleteAll removes every message and returns how many there were.
func (s *Store) DeleteAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.items)
	clear(s.items)
	return n
}
