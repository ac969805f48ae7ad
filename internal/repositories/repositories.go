// package repositories provides the storage backends for the song catalog.
//
// Each backend implements models.Backend. Exactly one is active per deployment, chosen by database.driver.
package repositories

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songbook/internal/models"
	"github.com/desertthunder/songbook/internal/shared"
)

// Open creates the backend selected by config and ensures its schema exists.
func Open(ctx context.Context, config *shared.Config, logger *log.Logger) (models.Backend, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var backend models.Backend
	switch config.Database.Driver {
	case shared.DriverSQLite:
		db, err := shared.NewDatabase(ctx, config.Database)
		if err != nil {
			return nil, err
		}
		backend = NewSQLiteStore(db, logger)
	case shared.DriverDatastore:
		store, err := NewDatastoreStore(ctx, config.Datastore, logger)
		if err != nil {
			return nil, err
		}
		backend = store
	default:
		return nil, fmt.Errorf("%w: %q", shared.ErrUnknownDriver, config.Database.Driver)
	}

	if err := backend.EnsureSchema(ctx); err != nil {
		backend.Close()
		return nil, err
	}
	return backend, nil
}
