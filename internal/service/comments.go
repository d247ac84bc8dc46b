package service

import (
	"context"
	"strings"

	"github.com/marshallshelly/pebble-shop/internal/apperr"
	"github.com/marshallshelly/pebble-shop/internal/models"
)

// Comment messages.
const (
	MsgCommentNotFound = "Comment not found"
	MsgCommentExists   = "Comment already exists"
)

// CommentForm is the public comment form on a post detail page.
type CommentForm struct {
	Name  string `form:"name" label:"Name" validate:"required,max=80"`
	Email string `form:"email" label:"Email" validate:"required,contains=@,max=254"`
	Body  string `form:"body" label:"Body" validate:"required"`
}

func (f *CommentForm) normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Body = strings.TrimSpace(f.Body)
}

// CommentInput is the full replacement payload of a comment. A nil Active means true.
type CommentInput struct {
	PostID int64 `label:"Post" validate:"required"`
	CommentForm
	Active *bool
}

// AddComment attaches an active comment to the published post identified by
// date and slug, and returns the refreshed detail view.
func (s *Service) AddComment(ctx context.Context, year, month, day int, postSlug string, form CommentForm) (*PostDetail, *models.Comment, error) {
	post, err := s.PostOn(ctx, year, month, day, postSlug)
	if err != nil {
		return nil, nil, err
	}
	comment, err := s.createComment(ctx, CommentInput{PostID: post.ID, CommentForm: form})
	if err != nil {
		return nil, nil, err
	}
	detail, err := s.detailOf(ctx, post)
	if err != nil {
		return nil, nil, err
	}
	return detail, comment, nil
}

func (s *Service) commentFromInput(ctx context.Context, in CommentInput, excludeID int64) (*models.Comment, error) {
	in.normalize()
	if err := check(in, nil); err != nil {
		return nil, err
	}
	if _, err := s.repos.Posts.Get(ctx, in.PostID); err != nil {
		return nil, err
	}
	taken, err := s.repos.Comments.BodyTaken(ctx, in.PostID, in.Body, excludeID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Conflict(MsgCommentExists)
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	return &models.Comment{
		PostID: in.PostID,
		Name:   in.Name,
		Email:  in.Email,
		Body:   in.Body,
		Active: active,
	}, nil
}

func (s *Service) createComment(ctx context.Context, in CommentInput) (*models.Comment, error) {
	comment, err := s.commentFromInput(ctx, in, 0)
	if err != nil {
		return nil, err
	}
	now := s.now()
	comment.Created = now
	comment.Updated = now
	return s.repos.Comments.Create(ctx, comment)
}

// CreateComment inserts a comment on an existing post.
func (s *Service) CreateComment(ctx context.Context, in CommentInput) (*models.Comment, error) {
	return s.createComment(ctx, in)
}

// Comment returns one comment.
func (s *Service) Comment(ctx context.Context, id int64) (*models.Comment, error) {
	return s.repos.Comments.Get(ctx, id)
}

// Comments lists comments matching filter.
func (s *Service) Comments(ctx context.Context, filter CommentFilter) ([]models.Comment, error) {
	return s.repos.Comments.List(ctx, filter)
}

// ReplaceComment overwrites comment id, keeping its creation time.
func (s *Service) ReplaceComment(ctx context.Context, id int64, in CommentInput) (*models.Comment, error) {
	current, err := s.repos.Comments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	comment, err := s.commentFromInput(ctx, in, id)
	if err != nil {
		return nil, err
	}
	comment.ID = id
	comment.Created = current.Created
	comment.Updated = s.now()
	return s.repos.Comments.Replace(ctx, comment)
}

// DeleteComment removes comment id.
func (s *Service) DeleteComment(ctx context.Context, id int64) error {
	if _, err := s.repos.Comments.Get(ctx, id); err != nil {
		return err
	}
	return s.repos.Comments.Delete(ctx, id)
}
