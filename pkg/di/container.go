// Package di provides dependency injection container
package di

import (
	"context"
	"log/slog"

	"github.com/ssargent/geoimg/pkg/api" //nolint:depguard
	"github.com/ssargent/geoimg/pkg/config"
	"github.com/ssargent/geoimg/pkg/record"
	"github.com/ssargent/geoimg/pkg/storage"
)

// StoreOpener opens the record store selected by a store configuration
type StoreOpener func(ctx context.Context, cfg config.Store, logger *slog.Logger) (record.Store, error)

// Container holds all the dependencies for the application
type Container struct {
	storeOpener   StoreOpener
	serverFactory api.ServerFactory
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	return &Container{
		storeOpener:   storage.Open,
		serverFactory: api.NewServerFactory(),
	}
}

// GetStoreOpener returns the store opener
func (c *Container) GetStoreOpener() StoreOpener {
	return c.storeOpener
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// SetStoreOpener allows overriding the store opener (for testing)
func (c *Container) SetStoreOpener(opener StoreOpener) {
	c.storeOpener = opener
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}
