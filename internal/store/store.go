// Package store persists logo records.
//
// Every backend enforces uniqueness of (owner, content hash) at write time, so
// two concurrent uploads of the same file by the same owner cannot both be
// committed: the loser receives ErrDuplicate.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/ironsheep/logo-gallery/internal/config"
	"github.com/ironsheep/logo-gallery/internal/models"
)

var (
	// ErrNotFound is returned when a logo does not exist.
	ErrNotFound = errors.New("logo not found")

	// ErrDuplicate is returned when (owner, content hash) is already stored.
	ErrDuplicate = errors.New("logo with identical content already stored for owner")
)

// Store is the persistence handle shared by the guard and the API.
type Store interface {
	// ListLogos returns every stored logo, oldest first.
	ListLogos(ctx context.Context) ([]models.Logo, error)

	// ListLogosByOwner returns the logos of one owner, oldest first.
	ListLogosByOwner(ctx context.Context, ownerID string) ([]models.Logo, error)

	// GetLogo returns one logo or ErrNotFound.
	GetLogo(ctx context.Context, id string) (*models.Logo, error)

	// CreateLogo inserts a new logo or fails with ErrDuplicate.
	CreateLogo(ctx context.Context, logo *models.Logo) error

	// Close releases the underlying connection.
	Close() error
}

// Open builds the backend selected by cfg.Driver. The caller owns the returned
// store and must Close it.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return NewMemoryStore(), nil
	case config.DriverSQLite:
		return OpenSQLite(cfg.DSN)
	case config.DriverMongo:
		return OpenMongo(ctx, cfg.DSN, cfg.Database, cfg.Collection)
	case config.DriverPostgres:
		return OpenPostgres(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
	}
}
