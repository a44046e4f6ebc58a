// Package dbconfig reads chain, RPC and token configuration from Postgres
// and persists refreshed token balances.
package dbconfig

import (
	"github.com/pkg/errors"

	_ "github.com/lib/pq"
)

// DBConfig is the Postgres-backed configuration store. Connections are opened
// per call, the store holds no pooled state of its own.
type DBConfig struct {
	dbConnStr string
}

// NewDBConfig creates a store over the given connection string.
//
// Parameters:
// - connStr: the database connection string.
//
// Returns:
// - *DBConfig: the new store instance.
// - error: an error if the connection string is empty.
func NewDBConfig(connStr string) (*DBConfig, error) {
	if connStr == "" {
		return nil, errors.New("empty database connection string")
	}
	return &DBConfig{
		dbConnStr: connStr,
	}, nil
}
