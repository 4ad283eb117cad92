// Package config loads the orgchart configuration file.
//
// Paths follow the XDG Base Directory specification:
//   - Config: ~/.config/orgchart/config.toml
//   - Cache:  ~/.cache/orgchart/
//   - Local viewer preferences: ~/.config/orgchart/prefs.json
//
// A missing file yields [Default]. Command-line flags override file values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/orgchart/pkg/cache"
	"github.com/matzehuels/orgchart/pkg/server"
	"github.com/matzehuels/orgchart/pkg/settings"
)

// AppName names the config, cache and state directories.
const AppName = "orgchart"

// Backend names.
const (
	BackendFile   = "file"
	BackendMongo  = "mongo"
	BackendRedis  = "redis"
	BackendMemory = "memory"
	BackendNone   = "none"
)

// Config is the top-level configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Source   SourceConfig   `toml:"source"`
	Settings SettingsConfig `toml:"settings"`
	Cache    CacheConfig    `toml:"cache"`
	Sessions SessionsConfig `toml:"sessions"`
	Mongo    MongoConfig    `toml:"mongo"`
	Redis    RedisConfig    `toml:"redis"`
}

// ServerConfig configures `orgchart serve`.
type ServerConfig struct {
	Addr string `toml:"addr"`

	// AdminPasswordHash is a bcrypt hash; see `orgchart hash-password`.
	AdminPasswordHash string `toml:"admin_password_hash"`

	PhotoDir      string `toml:"photo_dir"`
	TopUserEmail  string `toml:"top_user_email"`
	SecureCookies bool   `toml:"secure_cookies"`
	Watch         bool   `toml:"watch"`
}

// SourceConfig names the employee snapshot.
type SourceConfig struct {
	// Path is a JSON, YAML or SQLite file.
	Path string `toml:"path"`
}

// SettingsConfig selects where display settings live.
type SettingsConfig struct {
	Backend string `toml:"backend"` // file | mongo | memory
	Path    string `toml:"path"`
}

// CacheConfig selects the layout and artifact cache.
type CacheConfig struct {
	Backend string `toml:"backend"` // file | redis | memory | none
	Dir     string `toml:"dir"`

	// Namespace separates the entries of several charts sharing one cache.
	Namespace string `toml:"namespace"`
}

// SessionsConfig selects the session store.
type SessionsConfig struct {
	Backend string `toml:"backend"` // file | redis | memory
	Dir     string `toml:"dir"`
}

// MongoConfig is the settings database.
type MongoConfig struct {
	URI        string   `toml:"uri"`
	Database   string   `toml:"database"`
	Collection string   `toml:"collection"`
	Timeout    Duration `toml:"timeout"`
}

// RedisConfig is shared by the cache and session stores.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// Duration is a time.Duration written as a string ("5s") in TOML.
type Duration struct{ time.Duration }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Default returns the configuration used without a file.
func Default() Config {
	return Config{
		Server:   ServerConfig{Addr: server.DefaultAddr},
		Settings: SettingsConfig{Backend: BackendFile},
		Cache:    CacheConfig{Backend: BackendFile},
		Sessions: SessionsConfig{Backend: BackendFile},
		Mongo: MongoConfig{
			Database:   settings.DefaultMongoDatabase,
			Collection: settings.DefaultMongoCollection,
			Timeout:    Duration{5 * time.Second},
		},
		Redis: RedisConfig{Addr: "localhost:6379", Prefix: AppName + ":"},
	}
}

// ConfigDir returns the XDG config directory.
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// CacheDir returns the XDG cache directory.
func CacheDir() string {
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

// StateDir returns the XDG state directory.
func StateDir() string {
	return xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, fallback, AppName)
}

// Path returns the full path to config.toml.
func Path() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.toml")
}

// PrefsPath returns the local viewer preferences file.
func PrefsPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "prefs.json")
}

// Load reads the config file from the XDG config directory.
func Load() (Config, error) {
	path := Path()
	if path == "" {
		return Default(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from path. A missing file yields [Default].
func LoadFrom(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.Source.Path = expandHome(cfg.Source.Path)
	cfg.Settings.Path = expandHome(cfg.Settings.Path)
	cfg.Cache.Dir = expandHome(cfg.Cache.Dir)
	cfg.Sessions.Dir = expandHome(cfg.Sessions.Dir)
	cfg.Server.PhotoDir = expandHome(cfg.Server.PhotoDir)
	return cfg, cfg.Validate()
}

// Save writes cfg to path, creating the directory.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// Validate checks the backend names.
func (c Config) Validate() error {
	check := func(what, v string, allowed ...string) error {
		for _, a := range allowed {
			if v == a {
				return nil
			}
		}
		return fmt.Errorf("invalid %s backend %q (must be one of: %s)", what, v, strings.Join(allowed, ", "))
	}
	return errors.Join(
		check("settings", c.Settings.Backend, BackendFile, BackendMongo, BackendMemory),
		check("cache", c.Cache.Backend, BackendFile, BackendRedis, BackendMemory, BackendNone),
		check("sessions", c.Sessions.Backend, BackendFile, BackendRedis, BackendMemory),
	)
}

// SettingsPath returns the settings file, defaulting under the config dir.
func (c Config) SettingsPath() string {
	if c.Settings.Path != "" {
		return c.Settings.Path
	}
	return filepath.Join(ConfigDir(), "settings.json")
}

// CachePath returns the file cache directory.
func (c Config) CachePath() string {
	if c.Cache.Dir != "" {
		return c.Cache.Dir
	}
	return CacheDir()
}

// SessionsPath returns the file session directory.
func (c Config) SessionsPath() string {
	if c.Sessions.Dir != "" {
		return c.Sessions.Dir
	}
	return filepath.Join(StateDir(), "sessions")
}

// MongoStoreConfig converts the mongo section.
func (c Config) MongoStoreConfig() settings.MongoConfig {
	return settings.MongoConfig{
		URI:        c.Mongo.URI,
		Database:   c.Mongo.Database,
		Collection: c.Mongo.Collection,
		Timeout:    c.Mongo.Timeout.Duration,
	}
}

// Keyer returns the cache keyer for the configured namespace.
func (c Config) Keyer() cache.Keyer {
	if c.Cache.Namespace == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(nil, c.Cache.Namespace+":")
}

// RedisCacheConfig converts the redis section.
func (c Config) RedisCacheConfig() cache.RedisConfig {
	return cache.RedisConfig{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		Prefix:   c.Redis.Prefix,
	}
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
