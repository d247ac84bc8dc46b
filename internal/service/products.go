package service

import (
	"context"
	"strings"

	"github.com/marshallshelly/pebble-shop/internal/apperr"
	"github.com/marshallshelly/pebble-shop/internal/models"
	"github.com/marshallshelly/pebble-shop/internal/pagination"
)

// Product messages.
const (
	MsgProductNotFound = "Product not found"
	MsgProductExists   = "Product already exists"
)

// DefaultStorePageSize is the store listing page size when none is given.
const DefaultStorePageSize = 10

// ProductInput is the full replacement payload of a product.
type ProductInput struct {
	Title       string  `label:"Title" validate:"required,max=250"`
	Size        float64 `label:"Size" validate:"gte=0"`
	Description string  `label:"Description"`
	Cost        int64   `label:"Cost" validate:"gte=0"`
	Photo       string  `label:"Photo" validate:"max=255"`
	UploadedAt  bool    `label:"Uploaded"`
}

func (s *Service) productFromInput(ctx context.Context, in ProductInput, excludeID int64) (*models.Product, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := check(in, nil); err != nil {
		return nil, err
	}
	taken, err := s.repos.Products.TitleTaken(ctx, in.Title, excludeID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Conflict(MsgProductExists)
	}
	return &models.Product{
		Title:       in.Title,
		Size:        in.Size,
		Description: in.Description,
		Cost:        in.Cost,
		Photo:       in.Photo,
		UploadedAt:  in.UploadedAt,
	}, nil
}

// CreateProduct inserts a product with a unique title.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	product, err := s.productFromInput(ctx, in, 0)
	if err != nil {
		return nil, err
	}
	return s.repos.Products.Create(ctx, product)
}

// Get returns one product. It makes Service a cart.Catalog.
func (s *Service) Get(ctx context.Context, id int64) (*models.Product, error) {
	return s.repos.Products.Get(ctx, id)
}

// ListByIDs returns the products among ids that exist.
func (s *Service) ListByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	return s.repos.Products.ListByIDs(ctx, ids)
}

// Products lists every product.
func (s *Service) Products(ctx context.Context) ([]models.Product, error) {
	return s.repos.Products.List(ctx)
}

// ProductPage pages the store at the database.
func (s *Service) ProductPage(ctx context.Context, p pagination.Params) (pagination.Page[models.Product], error) {
	src := pagination.SourceFuncs[models.Product]{
		CountFunc: s.repos.Products.Count,
		FetchFunc: s.repos.Products.Window,
	}
	return pagination.FromQuery(ctx, src, p)
}

// ReplaceProduct overwrites product id.
func (s *Service) ReplaceProduct(ctx context.Context, id int64, in ProductInput) (*models.Product, error) {
	if _, err := s.repos.Products.Get(ctx, id); err != nil {
		return nil, err
	}
	product, err := s.productFromInput(ctx, in, id)
	if err != nil {
		return nil, err
	}
	product.ID = id
	return s.repos.Products.Replace(ctx, product)
}

// DeleteProduct removes product id and, by cascade, its purchases.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if _, err := s.repos.Products.Get(ctx, id); err != nil {
		return err
	}
	return s.repos.Products.Delete(ctx, id)
}
