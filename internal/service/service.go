package service

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and checks passwords.
type Hasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// BcryptHasher hashes with bcrypt at Cost.
type BcryptHasher struct {
	Cost int
}

// Hash implements Hasher.
func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare implements Hasher.
func (h BcryptHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// Service runs use cases against one set of session-bound repositories.
// Build one per request.
type Service struct {
	repos  Repositories
	hasher Hasher
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithHasher sets the password hasher.
func WithHasher(h Hasher) Option {
	return func(s *Service) { s.hasher = h }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service.
func New(repos Repositories, opts ...Option) *Service {
	s := &Service{
		repos:  repos,
		hasher: BcryptHasher{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
