package commands

import (
	"context"
	"fmt"

	"github.com/marshallshelly/pebble-shop/internal/models"
	"github.com/marshallshelly/pebble-shop/pkg/migration"
	"github.com/marshallshelly/pebble-shop/pkg/registry"
	"github.com/marshallshelly/pebble-shop/pkg/runtime"
)

// schemaPlan registers every model and plans their tables.
func schemaPlan() (*migration.Plan, error) {
	if err := models.RegisterAll(); err != nil {
		return nil, fmt.Errorf("failed to register models: %w", err)
	}
	plan, err := migration.NewPlanner().Plan(registry.All())
	if err != nil {
		return nil, fmt.Errorf("failed to plan schema: %w", err)
	}
	return plan, nil
}

func connect(ctx context.Context) (*runtime.DB, error) {
	db, err := runtime.Connect(ctx, &runtime.Config{URL: cfg.DatabaseURL, MaxConns: cfg.MaxConns})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}
