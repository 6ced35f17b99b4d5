package verifyaccount

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// StoreConfig contains configuration for creating a verification store
type StoreConfig struct {
	// Pool is required for PostgreSQL stores
	Pool   *pgxpool.Pool
	Tables TableConfig
}

// NewStore creates a store based on the persistence type
func NewStore(persistenceType string, config StoreConfig) (Store, error) {
	switch persistenceType {
	case "postgres", "postgresql":
		if config.Pool == nil {
			return nil, fmt.Errorf("pool required for postgres store")
		}
		return NewPostgresStore(config.Pool, config.Tables)
	case "memory", "inmem":
		return NewInMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported persistence type: %s (supported: postgres, memory)", persistenceType)
	}
}
