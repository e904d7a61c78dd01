package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/cinchproject/jpm/pkg/cache"
	"github.com/cinchproject/jpm/pkg/catalog"
	"github.com/cinchproject/jpm/pkg/updatecenter"
)

// Config holds the jpm configuration, loaded from ~/.config/jpm/config.toml.
// Flags override config values, config values override defaults.
type Config struct {
	UpdateCenter struct {
		BaseURL string `toml:"base_url"`
	} `toml:"updatecenter"`

	Cache struct {
		Backend  string `toml:"backend"` // file | redis | mongo | none
		Dir      string `toml:"dir"`     // file backend only
		TTLHours int    `toml:"ttl_hours"`
	} `toml:"cache"`

	Redis struct {
		Addr     string `toml:"addr"`
		Password string `toml:"password"`
		DB       int    `toml:"db"`
	} `toml:"redis"`

	Mongo struct {
		URI        string `toml:"uri"`
		Database   string `toml:"database"`
		Collection string `toml:"collection"`
	} `toml:"mongo"`
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.UpdateCenter.BaseURL = updatecenter.DefaultBaseURL
	cfg.Cache.Backend = "file"
	cfg.Cache.TTLHours = 24
	return cfg
}

// defaultConfigPath returns the config file location, honoring XDG overrides
// via os.UserConfigDir.
func defaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "jpm", "config.toml"), nil
}

// loadConfig reads the config file at path, or the default location when
// path is empty. A missing file yields the defaults; a malformed file is an
// error.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		p, err := defaultConfigPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ttl returns the configured cache TTL.
func (c *Config) ttl() time.Duration {
	return time.Duration(c.Cache.TTLHours) * time.Hour
}

// openCache creates the configured cache backend. The caller owns the
// returned cache and must Close it.
func (c *Config) openCache(ctx context.Context) (cache.Cache, error) {
	switch c.Cache.Backend {
	case "", "file":
		return cache.NewFileCache(c.Cache.Dir)
	case "redis":
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
		})
	case "mongo":
		return cache.NewMongoCache(ctx, cache.MongoConfig{
			URI:        c.Mongo.URI,
			Database:   c.Mongo.Database,
			Collection: c.Mongo.Collection,
		})
	case "none":
		return cache.NewNullCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q (want file, redis, mongo, or none)", c.Cache.Backend)
	}
}

// ucOpts holds the update-center flags shared by every command that needs
// catalog data.
type ucOpts struct {
	ucURL       string // full update-center.json URL, overrides base URL + version
	ignoreCache bool
}

// fetchCatalog downloads (or loads from cache) the update-center data for
// ucVersion and builds the plugin catalog from it.
func fetchCatalog(ctx context.Context, cfg *Config, opts ucOpts, ucVersion string) (*catalog.Catalog, error) {
	logger := loggerFromContext(ctx)

	backend, err := cfg.openCache(ctx)
	if err != nil {
		return nil, err
	}
	defer backend.Close()

	client := updatecenter.NewClient(backend, cfg.ttl(), cfg.UpdateCenter.BaseURL)
	url := opts.ucURL
	if url == "" {
		url = client.URL(ucVersion)
	}

	track := newProgress(logger)
	logger.Debugf("fetching update center data from %s", url)
	data, err := client.Fetch(ctx, url, opts.ignoreCache)
	if err != nil {
		return nil, err
	}

	cat := catalog.Build(data.Plugins)
	track.done(fmt.Sprintf("Loaded %d plugins from update center", cat.Len()))
	return cat, nil
}
