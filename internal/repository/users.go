package repository

import (
	"context"

	"github.com/marshallshelly/pebble-shop/internal/models"
	"github.com/marshallshelly/pebble-shop/pkg/builder"
)

// Users is the users table.
type Users struct {
	q builder.Querier
}

// Create inserts u and returns the stored row.
func (r *Users) Create(ctx context.Context, u *models.User) (*models.User, error) {
	row, err := one(builder.Insert[models.User](r.q).Values(*u).ExecReturning(ctx))
	return row, userEntity.translate(err)
}

// Get returns user id.
func (r *Users) Get(ctx context.Context, id int64) (*models.User, error) {
	row, err := builder.Select[models.User](r.q).Where(builder.Eq("id", id)).First(ctx)
	return row, userEntity.translate(err)
}

// UsernameTaken reports whether a user other than excludeID has username.
func (r *Users) UsernameTaken(ctx context.Context, username string, excludeID int64) (bool, error) {
	ok, err := builder.Select[models.User](r.q).
		Where(builder.Eq("username", username)).
		And(builder.NotEq("id", excludeID)).
		Exists(ctx)
	return ok, userEntity.translate(err)
}

// List returns every user by id.
func (r *Users) List(ctx context.Context) ([]models.User, error) {
	rows, err := builder.Select[models.User](r.q).OrderByAsc("id").All(ctx)
	return rows, userEntity.translate(err)
}

// Replace overwrites every column of u.ID.
func (r *Users) Replace(ctx context.Context, u *models.User) (*models.User, error) {
	row, err := one(builder.Update[models.User](r.q).
		Set("username", u.Username).
		Set("email", u.Email).
		Set("birthdate", u.Birthdate).
		Set("password", u.Password).
		Where(builder.Eq("id", u.ID)).
		ExecReturning(ctx))
	return row, userEntity.translate(err)
}

// Delete removes user id.
func (r *Users) Delete(ctx context.Context, id int64) error {
	return userEntity.translate(affected(builder.Delete[models.User](r.q).Where(builder.Eq("id", id)).Exec(ctx)))
}

// Count returns the number of users.
func (r *Users) Count(ctx context.Context) (int, error) {
	n, err := count(builder.Select[models.User](r.q).Count(ctx))
	return n, userEntity.translate(err)
}
