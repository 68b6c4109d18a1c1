// Package config holds the initialization surface of lattice: connection
// target, pool sizing, driver timeouts and schema discovery.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/latticedb/lattice/schema"
)

// Config is consumed once, at Initialize/Open. Either SchemaDir or Schemas
// must be set; when both are, the inline Schemas win.
type Config struct {
	URI                    string
	Database               string
	PoolSize               uint64
	ConnectTimeout         time.Duration
	SocketTimeout          time.Duration
	ServerSelectionTimeout time.Duration

	// SchemaDir is a directory of schema definition files (.yaml/.yml/.json).
	SchemaDir string

	// Schemas is an inline list of definitions, for callers that build
	// schemas in code.
	Schemas []*schema.Definition
}

// Load reads configuration from environment variables, with a best-effort
// .env bootstrap for development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("LATTICE_MONGODB_DATABASE", "lattice")
	v.SetDefault("LATTICE_POOL_SIZE", 100)
	v.SetDefault("LATTICE_CONNECT_TIMEOUT_SECONDS", 10)
	v.SetDefault("LATTICE_SOCKET_TIMEOUT_SECONDS", 30)
	v.SetDefault("LATTICE_SERVER_SELECTION_TIMEOUT_SECONDS", 30)

	uri := v.GetString("LATTICE_MONGODB_URI")
	if uri == "" {
		return nil, fmt.Errorf("environment variable LATTICE_MONGODB_URI is required")
	}

	return &Config{
		URI:                    uri,
		Database:               v.GetString("LATTICE_MONGODB_DATABASE"),
		PoolSize:               v.GetUint64("LATTICE_POOL_SIZE"),
		ConnectTimeout:         time.Duration(v.GetInt("LATTICE_CONNECT_TIMEOUT_SECONDS")) * time.Second,
		SocketTimeout:          time.Duration(v.GetInt("LATTICE_SOCKET_TIMEOUT_SECONDS")) * time.Second,
		ServerSelectionTimeout: time.Duration(v.GetInt("LATTICE_SERVER_SELECTION_TIMEOUT_SECONDS")) * time.Second,
		SchemaDir:              v.GetString("LATTICE_SCHEMA_DIR"),
	}, nil
}
