package datastore

import (
	"context"

	"github.com/lepinkainen/olcatalog/internal/catalog"
)

// Store defines the interface for a relational mirror of the catalog tables
type Store interface {
	// Connect establishes a connection to the data store
	Connect() error

	// CreateTable creates a new table with the given schema if it doesn't exist
	CreateTable(schema string) error

	// MirrorCatalog replaces the mirrored tables with the given snapshot
	MirrorCatalog(ctx context.Context, tables catalog.Tables) error

	// Close closes the connection to the data store
	Close() error
}
