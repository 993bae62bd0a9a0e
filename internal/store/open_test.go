package store

import (
	"context"
	"testing"

	"github.com/JonMunkholm/catalogsvc/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Memory(t *testing.T) {
	backend, closeFn, err := Open(context.Background(), config.DatabaseConfig{Driver: config.DriverMemory})
	require.NoError(t, err)
	defer closeFn()

	_, ok := backend.(*Memory)
	assert.True(t, ok, "memory driver should yield *Memory")
	assert.NoError(t, backend.Migrate(context.Background()))
	assert.NoError(t, backend.Ping(context.Background()))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, _, err := Open(context.Background(), config.DatabaseConfig{Driver: "sqlite"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite")
}

func TestOpen_BadURL(t *testing.T) {
	_, _, err := Open(context.Background(), config.DatabaseConfig{Driver: config.DriverPostgres, URL: "::not a url"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse database URL")
}
