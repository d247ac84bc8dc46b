package service

import (
	"context"
	"strings"
	"time"

	"github.com/marshallshelly/pebble-shop/internal/apperr"
	"github.com/marshallshelly/pebble-shop/internal/models"
)

// UserInput is the full replacement payload of a user.
type UserInput struct {
	Username  string `label:"Username" validate:"required,max=150"`
	Email     string `label:"Email" validate:"required,contains=@,max=254"`
	Birthdate string `label:"Birthdate" validate:"required,datetime=2006-01-02"`
	Password  string `label:"Password" validate:"min=7"`
}

func (in *UserInput) normalize() {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Birthdate = strings.TrimSpace(in.Birthdate)
}

func (s *Service) userFromInput(in UserInput) (*models.User, error) {
	in.normalize()
	if err := check(in, nil); err != nil {
		return nil, err
	}
	birthdate, err := time.Parse(dateLayout, in.Birthdate)
	if err != nil {
		return nil, apperr.ValidationErrors{MsgBirthdateFormat}
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &models.User{
		Username:  in.Username,
		Email:     in.Email,
		Birthdate: birthdate,
		Password:  hash,
	}, nil
}

// CreateUser inserts a user, rejecting a taken username.
func (s *Service) CreateUser(ctx context.Context, in UserInput) (*models.User, error) {
	user, err := s.userFromInput(in)
	if err != nil {
		return nil, err
	}
	taken, err := s.repos.Users.UsernameTaken(ctx, user.Username, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Conflict(MsgUserExists)
	}
	return s.repos.Users.Create(ctx, user)
}

// User returns one user.
func (s *Service) User(ctx context.Context, id int64) (*models.User, error) {
	return s.repos.Users.Get(ctx, id)
}

// Users lists every user.
func (s *Service) Users(ctx context.Context) ([]models.User, error) {
	return s.repos.Users.List(ctx)
}

// ReplaceUser overwrites every field of user id and rehashes the password.
func (s *Service) ReplaceUser(ctx context.Context, id int64, in UserInput) (*models.User, error) {
	if _, err := s.repos.Users.Get(ctx, id); err != nil {
		return nil, err
	}
	user, err := s.userFromInput(in)
	if err != nil {
		return nil, err
	}
	taken, err := s.repos.Users.UsernameTaken(ctx, user.Username, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Conflict(MsgUserExists)
	}
	user.ID = id
	return s.repos.Users.Replace(ctx, user)
}

// DeleteUser removes user id and, by cascade, its purchases.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	if _, err := s.repos.Users.Get(ctx, id); err != nil {
		return err
	}
	return s.repos.Users.Delete(ctx, id)
}
