package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadRequiresURI(t *testing.T) {
	t.Setenv("LATTICE_MONGODB_URI", "")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LATTICE_MONGODB_URI", "mongodb://localhost:27017")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "mongodb://localhost:27017", cfg.URI)
	require.Equal(t, "lattice", cfg.Database)
	require.Equal(t, uint64(100), cfg.PoolSize)
	require.Equal(t, 10*time.Second, cfg.ConnectTimeout)
	require.Equal(t, 30*time.Second, cfg.SocketTimeout)
	require.Equal(t, 30*time.Second, cfg.ServerSelectionTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LATTICE_MONGODB_URI", "mongodb://db:27017")
	t.Setenv("LATTICE_MONGODB_DATABASE", "app")
	t.Setenv("LATTICE_POOL_SIZE", "25")
	t.Setenv("LATTICE_CONNECT_TIMEOUT_SECONDS", "3")
	t.Setenv("LATTICE_SCHEMA_DIR", "/etc/lattice/schemas")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "app", cfg.Database)
	require.Equal(t, uint64(25), cfg.PoolSize)
	require.Equal(t, 3*time.Second, cfg.ConnectTimeout)
	require.Equal(t, "/etc/lattice/schemas", cfg.SchemaDir)
}
