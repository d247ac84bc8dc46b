package models

import "github.com/marshallshelly/pebble-shop/pkg/registry"

// All returns one zero value of every model, in no particular order.
func All() []any {
	return []any{
		User{},
		Post{},
		Comment{},
		Product{},
		UserStore{},
	}
}

// RegisterAll registers all models with the table registry.
func RegisterAll() error {
	for _, model := range All() {
		if err := registry.Register(model); err != nil {
			return err
		}
	}
	return nil
}
