package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "badger", cfg.Database.Driver)
	assert.Equal(t, 30*time.Second, cfg.Limits.QueryTimeout)
	assert.Equal(t, 100_000, cfg.Limits.MaxResultRows)
}

func TestLoadFromEnvOverridesDefaults(t *testing.T) {
	t.Setenv("GQLGRAPH_DATA_DIR", "/tmp/mydb")
	t.Setenv("GQLGRAPH_DRIVER", "memory")
	t.Setenv("GQLGRAPH_QUERY_TIMEOUT", "5s")
	t.Setenv("GQLGRAPH_MAX_MEMORY", "2GB")
	t.Setenv("GQLGRAPH_MAX_RESULT_ROWS", "42")

	cfg := LoadFromEnv()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "/tmp/mydb", cfg.Database.DataDir)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, 5*time.Second, cfg.Limits.QueryTimeout)
	assert.Equal(t, int64(2_000_000_000), cfg.Limits.MaxMemoryBytes)
	assert.Equal(t, 42, cfg.Limits.MaxResultRows)
}

func TestLoadFromEnvIgnoresEmptyValues(t *testing.T) {
	os.Unsetenv("GQLGRAPH_DATA_DIR")
	cfg := LoadFromEnv()
	assert.Equal(t, DefaultConfig().Database.DataDir, cfg.Database.DataDir)
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Database.Driver = "sled"
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Limits.QueryTimeout = 0
	require.Error(t, cfg.Validate())
}

func TestConfigStringOmitsNoSecrets(t *testing.T) {
	cfg := DefaultConfig()
	s := cfg.String()
	assert.Contains(t, s, "dataDir")
	assert.Contains(t, s, "badger")
}
