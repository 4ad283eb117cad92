package cli

import (
	"context"
	"fmt"

	"github.com/matzehuels/orgchart/internal/config"
	"github.com/matzehuels/orgchart/pkg/cache"
	"github.com/matzehuels/orgchart/pkg/core/render/tree/export"
	"github.com/matzehuels/orgchart/pkg/session"
	"github.com/matzehuels/orgchart/pkg/settings"
)

// openCache returns the configured layout and artifact cache. An unusable
// file cache directory degrades to no caching.
func openCache(ctx context.Context, cfg config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendMemory:
		return cache.NewMemoryCache(), nil
	case config.BackendRedis:
		rc, err := cache.NewRedisCache(ctx, cfg.RedisCacheConfig())
		if err != nil {
			return nil, fmt.Errorf("open redis cache: %w", err)
		}
		return rc, nil
	default:
		dir := cfg.CachePath()
		if dir == "" {
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	}
}

// openSettings returns the configured settings store.
func openSettings(ctx context.Context, cfg config.Config) (settings.Store, error) {
	switch cfg.Settings.Backend {
	case config.BackendMongo:
		s, err := settings.NewMongoStore(ctx, cfg.MongoStoreConfig())
		if err != nil {
			return nil, fmt.Errorf("open mongo settings: %w", err)
		}
		return s, nil
	case config.BackendMemory:
		return settings.NewMemoryStore(), nil
	default:
		return settings.NewFileStore(cfg.SettingsPath()), nil
	}
}

// openSessions returns the configured session store.
func openSessions(ctx context.Context, cfg config.Config) (session.Store, error) {
	switch cfg.Sessions.Backend {
	case config.BackendRedis:
		s, err := session.NewRedisStore(ctx, cfg.RedisCacheConfig())
		if err != nil {
			return nil, fmt.Errorf("open redis sessions: %w", err)
		}
		return s, nil
	case config.BackendMemory:
		return session.NewMemoryStore(), nil
	default:
		return session.NewFileStore(cfg.SessionsPath())
	}
}

// exportOptions reads profile photos from the configured directory.
func exportOptions(cfg config.Config) []export.Option {
	if cfg.Server.PhotoDir == "" {
		return nil
	}
	return []export.Option{export.WithLoader(export.DirLoader{Dir: cfg.Server.PhotoDir})}
}
