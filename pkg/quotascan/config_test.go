package quotascan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const configFixture = `{
  "storage": {
    "scratch": {"filesystem": "scratchfs", "data_replication_factor": 2},
    "home": {"filesystem": "homefs"}
  },
  "account_url": "https://account.example.org/api",
  "access_token": "sekrit-token-value"
}`

func writeConfigFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quotascan.json")
	require.NoError(t, os.WriteFile(path, []byte(configFixture), 0o600))
	return path
}

func TestLoadConfigAndResolveTargets(t *testing.T) {
	cfg, err := LoadConfig(writeConfigFixture(t))
	require.NoError(t, err)

	targets, err := cfg.Targets([]string{"scratch", "home"})
	require.NoError(t, err)
	require.Len(t, targets, 2)

	assert.Equal(t, "scratch", targets[0].Name)
	assert.Equal(t, "scratchfs", targets[0].Filesystem)
	assert.Equal(t, float64(2), targets[0].ReplicationFactor)

	// Replication defaults to 1 when the configuration leaves it unset.
	assert.Equal(t, float64(1), targets[1].ReplicationFactor)
}

func TestTargetsPreserveRequestedOrder(t *testing.T) {
	cfg, err := LoadConfig(writeConfigFixture(t))
	require.NoError(t, err)

	targets, err := cfg.Targets([]string{"home", "scratch"})
	require.NoError(t, err)
	assert.Equal(t, "home", targets[0].Name)
	assert.Equal(t, "scratch", targets[1].Name)
}

func TestTargetsUnknownNameFailsBeforeScan(t *testing.T) {
	cfg, err := LoadConfig(writeConfigFixture(t))
	require.NoError(t, err)

	targets, err := cfg.Targets([]string{"scratch", "tape"})
	assert.Nil(t, targets)

	var unknownErr UnknownStorageTargetError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "tape", unknownErr.Name)
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quotascan.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	cfg, err := LoadConfig(path)
	assert.Nil(t, cfg)
	assert.Error(t, err)
}
