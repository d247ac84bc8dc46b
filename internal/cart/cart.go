// Package cart keeps the product ids a client intends to buy in its session.
package cart

import (
	"context"
	"slices"

	"github.com/marshallshelly/pebble-shop/internal/apperr"
	"github.com/marshallshelly/pebble-shop/internal/models"
)

// SessionKey is the session value holding the ordered product ids.
const SessionKey = "cart"

// Catalog resolves product ids.
type Catalog interface {
	// Get returns apperr.ErrNotFound when the product does not exist.
	Get(ctx context.Context, id int64) (*models.Product, error)
	// ListByIDs returns the products that still exist, in any order.
	ListByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
}

// State is where the ids live between requests; *session.Session satisfies it.
type State interface {
	Get(key string, dest any) (bool, error)
	Set(key string, value any) error
}

// Cart operates on the ids stored in one client's state.
type Cart struct {
	state   State
	catalog Catalog
}

// New binds a cart to state and catalog.
func New(state State, catalog Catalog) *Cart {
	return &Cart{state: state, catalog: catalog}
}

// IDs returns the stored ids in insertion order.
func (c *Cart) IDs() ([]int64, error) {
	var ids []int64
	if _, err := c.state.Get(SessionKey, &ids); err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}

// Add appends productID unless it is already present and returns the ids.
// Unknown products are rejected with apperr.ErrNotFound.
func (c *Cart) Add(ctx context.Context, productID int64) ([]int64, error) {
	if _, err := c.catalog.Get(ctx, productID); err != nil {
		return nil, err
	}
	ids, err := c.IDs()
	if err != nil {
		return nil, err
	}
	if !slices.Contains(ids, productID) {
		ids = append(ids, productID)
	}
	if err := c.state.Set(SessionKey, ids); err != nil {
		return nil, apperr.Internal(err)
	}
	return ids, nil
}

// View is the resolved content of a cart.
type View struct {
	Products  []models.Product
	TotalCost int64
}

// View resolves the stored ids in cart order. Ids of products removed since
// they were added are skipped.
func (c *Cart) View(ctx context.Context) (View, error) {
	ids, err := c.IDs()
	if err != nil {
		return View{}, err
	}
	view := View{Products: []models.Product{}}
	if len(ids) == 0 {
		return view, nil
	}

	found, err := c.catalog.ListByIDs(ctx, ids)
	if err != nil {
		return View{}, err
	}
	byID := make(map[int64]models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			view.Products = append(view.Products, p)
			view.TotalCost += p.Cost
		}
	}
	return view, nil
}

// Clear empties the cart.
func (c *Cart) Clear() error {
	if err := c.state.Set(SessionKey, []int64{}); err != nil {
		return apperr.Internal(err)
	}
	return nil
}
