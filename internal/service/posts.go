package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/marshallshelly/pebble-shop/internal/apperr"
	"github.com/marshallshelly/pebble-shop/internal/models"
	"github.com/marshallshelly/pebble-shop/internal/pagination"
)

// Post messages.
const (
	MsgPostNotFound = "Post not found"
	MsgPostExists   = "Post already exists"
	MsgTitleNoSlug  = "Title must contain letters or digits"
)

// SimilarLimit caps the similar posts shown on a detail page.
const SimilarLimit = 4

// PostInput is the full replacement payload of a post. A nil Publish keeps the
// stored publish time, or uses the current time on create.
type PostInput struct {
	Title     string     `label:"Title" validate:"required,max=250"`
	Body      string     `label:"Body" validate:"required"`
	Status    string     `label:"Status" validate:"omitempty,oneof=draft published"`
	Image     string     `label:"Image" validate:"max=255"`
	Published bool       `label:"Published"`
	Tags      string     `label:"Tags"`
	Publish   *time.Time `label:"Publish"`
}

// NormalizeTags lowercases, trims and deduplicates a comma separated tag list.
func NormalizeTags(raw string) string {
	var tags []string
	for t := range strings.SplitSeq(raw, ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || slices.Contains(tags, t) {
			continue
		}
		tags = append(tags, t)
	}
	return strings.Join(tags, ",")
}

func (s *Service) postFromInput(ctx context.Context, in PostInput, excludeID int64) (*models.Post, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := check(in, nil); err != nil {
		return nil, err
	}
	postSlug := slug.Make(in.Title)
	if postSlug == "" {
		return nil, apperr.ValidationErrors{MsgTitleNoSlug}
	}
	taken, err := s.repos.Posts.TitleOrSlugTaken(ctx, in.Title, postSlug, excludeID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Conflict(MsgPostExists)
	}
	status := in.Status
	if status == "" {
		status = models.StatusDraft
	}
	return &models.Post{
		Title:     in.Title,
		Slug:      postSlug,
		Body:      in.Body,
		Status:    status,
		Image:     in.Image,
		Published: in.Published,
		Tags:      NormalizeTags(in.Tags),
	}, nil
}

// CreatePost inserts a post with a slug derived from its title.
func (s *Service) CreatePost(ctx context.Context, in PostInput) (*models.Post, error) {
	post, err := s.postFromInput(ctx, in, 0)
	if err != nil {
		return nil, err
	}
	now := s.now()
	post.Publish = now
	if in.Publish != nil {
		post.Publish = *in.Publish
	}
	post.Updated = now
	return s.repos.Posts.Create(ctx, post)
}

// Post returns one post regardless of its published flag.
func (s *Service) Post(ctx context.Context, id int64) (*models.Post, error) {
	return s.repos.Posts.Get(ctx, id)
}

// Posts lists every post.
func (s *Service) Posts(ctx context.Context) ([]models.Post, error) {
	return s.repos.Posts.List(ctx)
}

// ReplacePost overwrites post id and recomputes its slug.
func (s *Service) ReplacePost(ctx context.Context, id int64, in PostInput) (*models.Post, error) {
	current, err := s.repos.Posts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	post, err := s.postFromInput(ctx, in, id)
	if err != nil {
		return nil, err
	}
	post.ID = id
	post.Publish = current.Publish
	if in.Publish != nil {
		post.Publish = *in.Publish
	}
	post.Updated = s.now()
	return s.repos.Posts.Replace(ctx, post)
}

// DeletePost removes post id and its comments.
func (s *Service) DeletePost(ctx context.Context, id int64) error {
	if _, err := s.repos.Posts.Get(ctx, id); err != nil {
		return err
	}
	return s.repos.Posts.Delete(ctx, id)
}

// PublishedPosts pages the published posts, newest first.
func (s *Service) PublishedPosts(ctx context.Context, p pagination.Params) (pagination.Page[models.Post], error) {
	if err := p.Validate(); err != nil {
		return pagination.Page[models.Post]{}, err
	}
	posts, err := s.repos.Posts.ListPublished(ctx)
	if err != nil {
		return pagination.Page[models.Post]{}, err
	}
	return pagination.FromSlice(posts, p)
}

// PublishedPost finds a published post by slug.
func (s *Service) PublishedPost(ctx context.Context, postSlug string) (*models.Post, error) {
	return s.repos.Posts.GetPublishedBySlug(ctx, postSlug)
}

// PublishedDetail loads the detail view of the published post with slug.
func (s *Service) PublishedDetail(ctx context.Context, postSlug string) (*PostDetail, error) {
	post, err := s.repos.Posts.GetPublishedBySlug(ctx, postSlug)
	if err != nil {
		return nil, err
	}
	return s.detailOf(ctx, post)
}

// PostDetail is a published post with its visible comments and related posts.
type PostDetail struct {
	Post     *models.Post
	Comments []models.Comment
	Similar  []models.Post
}

// PostOn finds a published post by slug on the given UTC calendar day.
// Impossible dates are reported as not found.
func (s *Service) PostOn(ctx context.Context, year, month, day int, postSlug string) (*models.Post, error) {
	from := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if from.Year() != year || int(from.Month()) != month || from.Day() != day {
		return nil, apperr.NotFound(MsgPostNotFound)
	}
	return s.repos.Posts.GetPublishedOn(ctx, postSlug, from, from.AddDate(0, 0, 1))
}

// Detail loads the detail view of a published post.
func (s *Service) Detail(ctx context.Context, year, month, day int, postSlug string) (*PostDetail, error) {
	post, err := s.PostOn(ctx, year, month, day, postSlug)
	if err != nil {
		return nil, err
	}
	return s.detailOf(ctx, post)
}

func (s *Service) detailOf(ctx context.Context, post *models.Post) (*PostDetail, error) {
	comments, err := s.repos.Comments.ListActiveForPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	similar, err := s.Similar(ctx, post)
	if err != nil {
		return nil, err
	}
	return &PostDetail{Post: post, Comments: comments, Similar: similar}, nil
}

// Similar returns up to SimilarLimit published posts sharing a tag with post.
func (s *Service) Similar(ctx context.Context, post *models.Post) ([]models.Post, error) {
	if len(post.TagList()) == 0 {
		return []models.Post{}, nil
	}
	return s.repos.Posts.Similar(ctx, post, SimilarLimit)
}
