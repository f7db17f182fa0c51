package structid

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/structural-io/structid/snapshot"
)

// FileConfig represents a structid.yaml configuration file. It covers the
// settings that make sense to fix outside code: the default collision
// mode and the snapshot persistence backend.
type FileConfig struct {
	// CollisionMode sets the engine-wide collision disambiguation default.
	CollisionMode bool `yaml:"collision_mode"`

	// Snapshot configures snapshot persistence (optional).
	Snapshot *SnapshotConfig `yaml:"snapshot,omitempty"`
}

// SnapshotConfig selects and configures a snapshot store backend.
type SnapshotConfig struct {
	// Backend is one of "file", "redis" or "etcd".
	Backend string `yaml:"backend"`

	// Dir is the snapshot directory (file backend).
	Dir string `yaml:"dir,omitempty"`

	// RedisURL is the Redis connection string (redis backend).
	RedisURL string `yaml:"redis_url,omitempty"`

	// EtcdEndpoints lists the etcd cluster endpoints (etcd backend).
	EtcdEndpoints []string `yaml:"etcd_endpoints,omitempty"`

	// Namespace prefixes all snapshot keys (redis and etcd backends).
	Namespace string `yaml:"namespace,omitempty"`

	// ConnectTimeout is the connection timeout as a Go duration string
	// (e.g., "5s"). Default: 5s.
	ConnectTimeout string `yaml:"connect_timeout,omitempty"`
}

// GetConnectTimeout parses the connect timeout string and returns a
// duration, falling back to 5s when unset or unparsable.
func (c *SnapshotConfig) GetConnectTimeout() time.Duration {
	if c.ConnectTimeout == "" {
		return 5 * time.Second
	}
	d, err := time.ParseDuration(c.ConnectTimeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// LoadConfig reads and parses a structid.yaml file.
func LoadConfig(path string) (*FileConfig, error) {
	const op = "LoadConfig"

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewConfigurationError(op, fmt.Errorf("failed to read config file: %w", err))
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, NewConfigurationError(op, fmt.Errorf("failed to parse config file: %w", err))
	}
	if err := cfg.validate(); err != nil {
		return nil, NewConfigurationError(op, fmt.Errorf("%w: %v", ErrInvalidConfig, err))
	}
	return &cfg, nil
}

func (c *FileConfig) validate() error {
	if c.Snapshot == nil {
		return nil
	}
	switch c.Snapshot.Backend {
	case "file":
		if c.Snapshot.Dir == "" {
			return fmt.Errorf("snapshot backend %q requires dir", c.Snapshot.Backend)
		}
	case "redis":
		if c.Snapshot.RedisURL == "" {
			return fmt.Errorf("snapshot backend %q requires redis_url", c.Snapshot.Backend)
		}
	case "etcd":
		if len(c.Snapshot.EtcdEndpoints) == 0 {
			return fmt.Errorf("snapshot backend %q requires etcd_endpoints", c.Snapshot.Backend)
		}
	case "":
		return fmt.Errorf("snapshot backend is required")
	default:
		return fmt.Errorf("unknown snapshot backend %q", c.Snapshot.Backend)
	}
	return nil
}

// EngineOptions converts the file configuration into engine options.
func (c *FileConfig) EngineOptions() []EngineOption {
	return []EngineOption{WithCollisionMode(c.CollisionMode)}
}

// OpenStore opens the snapshot store the configuration selects. Returns
// nil without error when no snapshot block is configured.
func (c *FileConfig) OpenStore() (snapshot.Store, error) {
	const op = "FileConfig.OpenStore"

	if c.Snapshot == nil {
		return nil, nil
	}

	switch c.Snapshot.Backend {
	case "file":
		store, err := snapshot.NewFileStore(c.Snapshot.Dir)
		if err != nil {
			return nil, NewStorageError(op, err)
		}
		return store, nil
	case "redis":
		store, err := snapshot.NewRedisStore(snapshot.RedisOptions{
			URL:            c.Snapshot.RedisURL,
			KeyPrefix:      c.Snapshot.Namespace,
			ConnectTimeout: c.Snapshot.GetConnectTimeout(),
		})
		if err != nil {
			return nil, NewStorageError(op, err)
		}
		return store, nil
	case "etcd":
		store, err := snapshot.NewEtcdStore(snapshot.EtcdConfig{
			Endpoints:   c.Snapshot.EtcdEndpoints,
			Namespace:   c.Snapshot.Namespace,
			DialTimeout: c.Snapshot.GetConnectTimeout(),
		})
		if err != nil {
			return nil, NewStorageError(op, err)
		}
		return store, nil
	default:
		return nil, NewConfigurationError(op,
			fmt.Errorf("%w: unknown snapshot backend %q", ErrInvalidConfig, c.Snapshot.Backend))
	}
}
