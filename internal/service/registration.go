package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/marshallshelly/pebble-shop/internal/apperr"
	"github.com/marshallshelly/pebble-shop/internal/models"
)

// Registration messages shown on the sign-in form.
const (
	MsgUsernameTooShort = "Username must be longer than 5 characters"
	MsgInvalidEmail     = "Invalid email"
	MsgBirthdateMissing = "Birthdate is required"
	MsgBirthdateFormat  = "Birthdate must be in YYYY-MM-DD format"
	MsgPasswordTooShort = "Password must be longer than 6 characters"
	MsgPasswordMismatch = "Passwords do not match"
	MsgUserExists       = "User already exists"
	MsgRegistered       = "Registration successful"
)

const dateLayout = "2006-01-02"

// RegistrationForm is the sign-in form.
type RegistrationForm struct {
	Username  string `form:"username" validate:"min=6"`
	Email     string `form:"email" validate:"contains=@"`
	Birthdate string `form:"birthdate" validate:"required,datetime=2006-01-02"`
	Password1 string `form:"password1" validate:"min=7"`
	Password2 string `form:"password2" validate:"eqfield=Password1"`
}

var registrationMessages = messageOverrides{
	"Username.min":       MsgUsernameTooShort,
	"Email.contains":     MsgInvalidEmail,
	"Birthdate.required": MsgBirthdateMissing,
	"Birthdate.datetime": MsgBirthdateFormat,
	"Password1.min":      MsgPasswordTooShort,
	"Password2.eqfield":  MsgPasswordMismatch,
}

// Register validates the form and creates the user. Rule failures are returned
// together as apperr.ValidationErrors; an existing username is a conflict.
func (s *Service) Register(ctx context.Context, form RegistrationForm) (*models.User, error) {
	form.Username = strings.TrimSpace(form.Username)
	form.Email = strings.TrimSpace(form.Email)
	form.Birthdate = strings.TrimSpace(form.Birthdate)

	if err := check(form, registrationMessages); err != nil {
		return nil, err
	}
	birthdate, err := time.Parse(dateLayout, form.Birthdate)
	if err != nil {
		return nil, apperr.ValidationErrors{MsgBirthdateFormat}
	}

	taken, err := s.repos.Users.UsernameTaken(ctx, form.Username, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Conflict(MsgUserExists)
	}

	hash, err := s.hasher.Hash(form.Password1)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	user, err := s.repos.Users.Create(ctx, &models.User{
		Username:  form.Username,
		Email:     form.Email,
		Birthdate: birthdate,
		Password:  hash,
	})
	if errors.Is(err, apperr.ErrConflict) {
		return nil, apperr.Conflict(MsgUserExists)
	}
	return user, err
}
