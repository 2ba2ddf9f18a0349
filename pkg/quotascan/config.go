package quotascan

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/showa-93/go-mask"
)

// Default aggregate thresholds, overridable per flag.
const (
	DefaultUsersWarning    = 20
	DefaultUsersCritical   = 40
	DefaultFilesetCritical = 1
)

// Thresholds are the per-kind aggregate severity thresholds of §4.2.
type Thresholds struct {
	UsersWarning    int
	UsersCritical   int
	FilesetCritical int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		UsersWarning:    DefaultUsersWarning,
		UsersCritical:   DefaultUsersCritical,
		FilesetCritical: DefaultFilesetCritical,
	}
}

type storageTargetConfig struct {
	Filesystem            string  `json:"filesystem"`
	DataReplicationFactor float64 `json:"data_replication_factor"`
}

// Config is the on-disk storage-target configuration, keyed by target
// name.
type Config struct {
	Storage map[string]storageTargetConfig `json:"storage"`

	AccountURL  string `json:"account_url,omitempty"`
	AccessToken string `json:"access_token,omitempty" mask:"filled8"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("malformed storage configuration %s: %w", path, err)
	}
	return cfg, nil
}

// Targets resolves the requested storage-target names, in order,
// against the configuration. An unknown name is a startup error: the
// scan cycle never begins.
func (c *Config) Targets(names []string) ([]StorageTarget, error) {
	targets := make([]StorageTarget, 0, len(names))
	for _, name := range names {
		tc, ok := c.Storage[name]
		if !ok {
			return nil, UnknownStorageTargetError{Name: name}
		}
		replication := tc.DataReplicationFactor
		if replication <= 0 {
			replication = 1
		}
		targets = append(targets, StorageTarget{
			Name:              name,
			Filesystem:        tc.Filesystem,
			ReplicationFactor: replication,
		})
	}
	return targets, nil
}

// Log emits the effective configuration at startup, with the access
// token masked.
func (c *Config) Log() {
	masked, err := mask.Mask(c)
	if err != nil {
		masked = &Config{Storage: c.Storage, AccountURL: c.AccountURL}
	}
	log.Info().Interface("config", masked).Msg("Loaded storage configuration")
}
