// Package api provides interfaces for dependency injection
package api

import (
	"context"
	"log/slog"

	"github.com/ssargent/geoimg/pkg/record"
)

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves the API over store until ctx is canceled
	StartServer(ctx context.Context, store record.Store, config ServerConfig, logger *slog.Logger) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter
	CreateServerStarter() ServerStarter
}
