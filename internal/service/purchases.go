package service

import (
	"context"

	"github.com/marshallshelly/pebble-shop/internal/apperr"
	"github.com/marshallshelly/pebble-shop/internal/models"
)

// Purchase messages.
const (
	MsgPurchaseNotFound = "Purchase not found"
	MsgPurchaseExists   = "Purchase already exists"
)

// Purchase records that user bought product.
func (s *Service) Purchase(ctx context.Context, userID, productID int64) (*models.UserStore, error) {
	if _, err := s.repos.Users.Get(ctx, userID); err != nil {
		return nil, err
	}
	if _, err := s.repos.Products.Get(ctx, productID); err != nil {
		return nil, err
	}
	exists, err := s.repos.Purchases.Exists(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict(MsgPurchaseExists)
	}
	return s.repos.Purchases.Create(ctx, userID, productID)
}

// Purchases lists the products bought by user.
func (s *Service) Purchases(ctx context.Context, userID int64) ([]models.Product, error) {
	if _, err := s.repos.Users.Get(ctx, userID); err != nil {
		return nil, err
	}
	return s.repos.Purchases.ProductsForUser(ctx, userID)
}

// RevertPurchase deletes the association.
func (s *Service) RevertPurchase(ctx context.Context, userID, productID int64) error {
	return s.repos.Purchases.Delete(ctx, userID, productID)
}
