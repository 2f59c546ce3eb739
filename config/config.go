package config

import (
	"errors"
	"fmt"
)

type (
	Ports struct {
		// First is the port probed first on startup.
		First int `mapstructure:"first"`
		// Last is the exclusive upper boundary of probed ports.
		Last int `mapstructure:"last"`
	}

	NET struct {
		// Host is the address the listener is bound to. Empty means all interfaces.
		Host string `mapstructure:"host"`
		// ReadBufferSize is a size of buffer in bytes which will be used to read
		// request line and headers from the socket.
		ReadBufferSize int `mapstructure:"read_buffer_size"`
		// FileChunkSize is how many bytes of a file are written to the socket at once.
		FileChunkSize int `mapstructure:"file_chunk_size"`
	}

	Paths struct {
		// Templates is the directory holding both page templates and static assets.
		Templates string `mapstructure:"templates"`
	}

	Storage struct {
		// Driver is either sqlite or memory.
		Driver string `mapstructure:"driver"`
		// DSN is the database file for the sqlite driver. Ignored by memory.
		DSN string `mapstructure:"dsn"`
		// Seed optionally names a JSON fixture loaded into the storage on startup.
		Seed string `mapstructure:"seed"`
	}

	Log struct {
		// Level is one of debug, info, warn and error.
		Level string `mapstructure:"level"`
	}
)

// Config holds everything tunable in the server. Always start from Default() and modify
// the fields you need; a zero Config isn't valid.
type Config struct {
	Ports   Ports   `mapstructure:"ports"`
	NET     NET     `mapstructure:"net"`
	Paths   Paths   `mapstructure:"paths"`
	Storage Storage `mapstructure:"storage"`
	Log     Log     `mapstructure:"log"`
}

const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Default returns default config.
func Default() *Config {
	return &Config{
		Ports: Ports{
			First: 3000,
			Last:  65000,
		},
		NET: NET{
			ReadBufferSize: 2 * 1024,
			FileChunkSize:  1000,
		},
		Paths: Paths{
			Templates: "examples/HTMLTemplates",
		},
		Storage: Storage{
			Driver: DriverSQLite,
			DSN:    "twotter.db",
		},
		Log: Log{
			Level: "info",
		},
	}
}

var ErrBadConfig = errors.New("bad config")

// Validate reports the first field holding an unusable value.
func (c *Config) Validate() error {
	switch {
	case c.Ports.First <= 0 || c.Ports.First > 65535:
		return fmt.Errorf("%w: ports.first out of range: %d", ErrBadConfig, c.Ports.First)
	case c.Ports.Last <= c.Ports.First || c.Ports.Last > 65536:
		return fmt.Errorf("%w: ports.last must be in (%d, 65536]: %d", ErrBadConfig, c.Ports.First, c.Ports.Last)
	case c.NET.ReadBufferSize <= 0:
		return fmt.Errorf("%w: net.read_buffer_size must be positive", ErrBadConfig)
	case c.NET.FileChunkSize <= 0:
		return fmt.Errorf("%w: net.file_chunk_size must be positive", ErrBadConfig)
	case c.Storage.Driver != DriverSQLite && c.Storage.Driver != DriverMemory:
		return fmt.Errorf("%w: unknown storage driver %q", ErrBadConfig, c.Storage.Driver)
	}

	return nil
}
