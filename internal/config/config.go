package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "SHEETQL_"

// Config is the runtime configuration of the sheetql CLI
type Config struct {
	LogLevel string         `mapstructure:"log_level"`
	Table    string         `mapstructure:"table"`
	Required []string       `mapstructure:"required"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
}

type StorageConfig struct {
	Type string `mapstructure:"type"`
	Path string `mapstructure:"path"`
}

type SnapshotConfig struct {
	Dir          string        `mapstructure:"dir"`
	SyncInterval time.Duration `mapstructure:"sync_interval"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("storage.type", "memory")
	v.SetDefault("storage.path", "")
	v.SetDefault("snapshot.dir", "")
	v.SetDefault("snapshot.sync_interval", 5*time.Minute)
	v.SetDefault("table", "")
	v.SetDefault("required", []string{})
}

// Load reads configuration into target.
// Sources, later ones winning: defaults, the config file (if path is not
// empty), then environment variables with the given prefix.
// SHEETQL_STORAGE_TYPE sets storage.type; a double underscore keeps an
// underscore inside a key, so SHEETQL_SNAPSHOT_SYNC__INTERVAL sets
// snapshot.sync_interval. SHEETQL_LOG__LEVEL sets log_level.
func Load(path, prefix string, target interface{}) error {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	prefixUpper := strings.ToUpper(prefix)
	for _, envStr := range os.Environ() {
		pair := strings.SplitN(envStr, "=", 2)
		if len(pair) != 2 || !strings.HasPrefix(pair[0], prefixUpper) {
			continue
		}
		v.Set(envKey(strings.TrimPrefix(pair[0], prefixUpper)), pair[1])
	}

	if err := v.Unmarshal(target); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}

// envKey maps STORAGE_TYPE to storage.type and SYNC__INTERVAL to sync_interval.
func envKey(name string) string {
	const marker = "\x00"
	key := strings.ToLower(name)
	key = strings.ReplaceAll(key, "__", marker)
	key = strings.ReplaceAll(key, "_", ".")
	key = strings.ReplaceAll(key, marker, "_")
	return strings.Trim(key, ".")
}

// LoadConfig loads the sheetql configuration
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := Load(path, EnvPrefix, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
