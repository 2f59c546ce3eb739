package config

import (
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable Load looks at, e.g. TWOTTER_STORAGE_DSN.
const EnvPrefix = "TWOTTER"

// Load returns the default config overlaid with environment variables and validated.
func Load() (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about
	for key, value := range map[string]any{
		"ports.first":          cfg.Ports.First,
		"ports.last":           cfg.Ports.Last,
		"net.host":             cfg.NET.Host,
		"net.read_buffer_size": cfg.NET.ReadBufferSize,
		"net.file_chunk_size":  cfg.NET.FileChunkSize,
		"paths.templates":      cfg.Paths.Templates,
		"storage.driver":       cfg.Storage.Driver,
		"storage.dsn":          cfg.Storage.DSN,
		"storage.seed":         cfg.Storage.Seed,
		"log.level":            cfg.Log.Level,
	} {
		v.SetDefault(key, value)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}
