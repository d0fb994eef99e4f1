// Package config loads semiframes settings from a TOML file.
//
// Every key is optional; a missing file yields Default(). Command-line flags
// are applied on top of the loaded values by the caller.
//
//	sizes = "1-6"
//	output = "families_n{n}.txt"
//
//	[search]
//	cache_size = 10000
//	threads = 8
//	semiframes = true
//
//	[redis]
//	url = "redis://localhost:6379/0"
//
//	[server]
//	addr = ":8080"
//	max_limit = 1000
package config

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/semiframes/pkg/errors"
	"github.com/matzehuels/semiframes/pkg/search"
	"github.com/matzehuels/semiframes/pkg/sink"
)

// DefaultFile is read when no path is given and it exists in the working
// directory.
const DefaultFile = "semiframes.toml"

const (
	DefaultSizes        = "1-6"
	DefaultOutput       = "families_n{n}.txt"
	DefaultAddr         = ":8080"
	DefaultMaxLimit     = 1000
	DefaultWriteTimeout = 60 * time.Second
)

// Config holds every file-configurable setting.
type Config struct {
	Sizes  string            `toml:"sizes"`
	Output string            `toml:"output"`
	Search search.Options    `toml:"search"`
	Redis  sink.RedisOptions `toml:"redis"`
	Mongo  sink.MongoOptions `toml:"mongo"`
	Server Server            `toml:"server"`
}

// Server configures the HTTP API.
type Server struct {
	Addr string `toml:"addr"`
	// MaxLimit caps the limit a search request may ask for.
	MaxLimit     int           `toml:"max_limit"`
	WriteTimeout time.Duration `toml:"write_timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Sizes:  DefaultSizes,
		Output: DefaultOutput,
		Search: search.DefaultOptions(),
		Server: Server{
			Addr:         DefaultAddr,
			MaxLimit:     DefaultMaxLimit,
			WriteTimeout: DefaultWriteTimeout,
		},
	}
}

// Load reads path on top of Default. An empty path falls back to
// DefaultFile when it exists and to Default otherwise; an explicit path
// that cannot be read is an error.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	f, err := os.Open(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "open config")
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads TOML from r on top of Default. Unknown keys are rejected so
// typos do not silently fall back to defaults.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings that do not depend on a particular size.
func (c *Config) Validate() error {
	if _, err := errors.ParseSizeRange(c.Sizes); err != nil {
		return err
	}
	if c.Server.MaxLimit <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "server.max_limit must be positive, got %d", c.Server.MaxLimit)
	}
	if c.Server.WriteTimeout < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "server.write_timeout must not be negative")
	}
	// Size 0 only checks the numeric settings.
	opts := c.Search
	return opts.ValidateAndSetDefaults(0)
}
