// Package config loads settings from an optional YAML profile with
// environment overrides. Enumerated fields (cache backend, platforms)
// are validated at load time so the rest of the system never sees an
// unknown variant.
package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/briefcast/briefcast/internal/cache"
	"github.com/briefcast/briefcast/internal/models"
)

const (
	configPathEnv    = "BRIEFCAST_CONFIG"
	redisAddrEnv     = "REDIS_ADDR"
	cacheKindEnv     = "CACHE_BACKEND"
	cacheDirEnv      = "CACHE_DIR"
	openAIKeyEnv     = "OPENAI_API_KEY"
	newsAPIKeyEnv    = "NEWS_API_KEY"
	microblogKeyEnv  = "MICROBLOG_BEARER_TOKEN"
	videoKeyEnv      = "VIDEO_API_KEY"
	telegramTokenEnv = "TELEGRAM_BOT_TOKEN"
	telegramChatEnv  = "TELEGRAM_CHAT_ID"
	logLevelEnv      = "LOG_LEVEL"
)

// CacheConfig selects and parameterizes the cache backend.
type CacheConfig struct {
	Backend    string        `yaml:"backend"`
	Dir        string        `yaml:"dir"`
	RedisAddr  string        `yaml:"redisAddr"`
	RedisDB    int           `yaml:"redisDb"`
	Prefix     string        `yaml:"prefix"`
	MaxEntries int           `yaml:"maxEntries"`
	ResultTTL  time.Duration `yaml:"resultTtl"`
}

// SourceConfig enables one platform adapter and carries its endpoint
// settings. Unused fields are ignored by adapters that do not need them.
type SourceConfig struct {
	Platform models.Platform `yaml:"platform"`
	Enabled  bool            `yaml:"enabled"`
	Endpoint string          `yaml:"endpoint"`
	APIKey   string          `yaml:"apiKey"`
	Feeds    []string        `yaml:"feeds"`
	Forums   []string        `yaml:"forums"`
}

// AggregatorConfig bounds the fan-out.
type AggregatorConfig struct {
	AdapterTimeout time.Duration `yaml:"adapterTimeout"`
	GlobalDeadline time.Duration `yaml:"globalDeadline"`
	DaysBack       int           `yaml:"daysBack"`
	MaxPerPlatform int           `yaml:"maxPerPlatform"`
}

// AnalysisConfig wires the AI synthesis step.
type AnalysisConfig struct {
	Enabled bool          `yaml:"enabled"`
	APIKey  string        `yaml:"apiKey"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// NotifyConfig wires the optional Telegram digest.
type NotifyConfig struct {
	TelegramToken string `yaml:"telegramToken"`
	TelegramChat  string `yaml:"telegramChat"`
}

// Config is the application configuration.
type Config struct {
	LogLevel   string           `yaml:"logLevel"`
	OutputDir  string           `yaml:"outputDir"`
	Cache      CacheConfig      `yaml:"cache"`
	Sources    []SourceConfig   `yaml:"sources"`
	Aggregator AggregatorConfig `yaml:"aggregator"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Notify     NotifyConfig     `yaml:"notify"`
}

// Load reads the YAML profile named by BRIEFCAST_CONFIG (if set),
// applies environment overrides, and validates enumerated fields.
func Load() (Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %q: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(cacheKindEnv); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv(cacheDirEnv); v != "" {
		c.Cache.Dir = v
	}
	if v := os.Getenv(redisAddrEnv); v != "" {
		c.Cache.RedisAddr = v
	}
	c.Cache.RedisDB = getEnvAsInt("REDIS_DB", c.Cache.RedisDB)
	if v := os.Getenv(openAIKeyEnv); v != "" {
		c.Analysis.APIKey = v
	}
	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notify.TelegramToken = v
	}
	if v := os.Getenv(telegramChatEnv); v != "" {
		c.Notify.TelegramChat = v
	}
	for i := range c.Sources {
		switch c.Sources[i].Platform {
		case models.PlatformNews:
			if v := os.Getenv(newsAPIKeyEnv); v != "" {
				c.Sources[i].APIKey = v
			}
		case models.PlatformMicroblog:
			if v := os.Getenv(microblogKeyEnv); v != "" {
				c.Sources[i].APIKey = v
			}
		case models.PlatformVideo:
			if v := os.Getenv(videoKeyEnv); v != "" {
				c.Sources[i].APIKey = v
			}
		}
	}
}

func (c *Config) validate() error {
	if !cache.Kind(c.Cache.Backend).Valid() {
		return fmt.Errorf("unknown cache backend %q (want memory, file or redis)", c.Cache.Backend)
	}
	seen := map[models.Platform]bool{}
	for _, s := range c.Sources {
		if !s.Platform.Valid() {
			return fmt.Errorf("unknown source platform %q", s.Platform)
		}
		if seen[s.Platform] {
			return fmt.Errorf("duplicate source platform %q", s.Platform)
		}
		seen[s.Platform] = true
	}
	if c.Aggregator.GlobalDeadline <= 0 {
		return fmt.Errorf("aggregator global deadline must be positive")
	}
	return nil
}

// CacheOptions converts the cache section into backend options.
func (c Config) CacheOptions() cache.Options {
	return cache.Options{
		Kind:       cache.Kind(c.Cache.Backend),
		Dir:        c.Cache.Dir,
		RedisAddr:  c.Cache.RedisAddr,
		RedisDB:    c.Cache.RedisDB,
		Prefix:     c.Cache.Prefix,
		MaxEntries: c.Cache.MaxEntries,
	}
}

// EnabledPlatforms returns the platforms with an enabled source, sorted.
func (c Config) EnabledPlatforms() []models.Platform {
	var out []models.Platform
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s.Platform)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Fingerprint is a deterministic digest of the adapter configuration,
// used as part of the result cache key so that a config change
// invalidates cached aggregates.
func (c Config) Fingerprint() string {
	parts := make([]string, 0, len(c.Sources))
	for _, p := range c.EnabledPlatforms() {
		for _, s := range c.Sources {
			if s.Platform == p && s.Enabled {
				parts = append(parts, string(p)+"="+s.Endpoint+"|"+strings.Join(s.Feeds, ",")+"|"+strings.Join(s.Forums, ","))
			}
		}
	}
	return strings.Join(parts, ";")
}

func defaultConfig() Config {
	return Config{
		LogLevel:  "info",
		OutputDir: "output",
		Cache: CacheConfig{
			Backend:    string(cache.KindMemory),
			Dir:        "cache/research",
			Prefix:     "briefcast",
			MaxEntries: 1000,
			ResultTTL:  2 * time.Hour,
		},
		Sources: []SourceConfig{
			{Platform: models.PlatformForum, Enabled: true, Forums: []string{"immigration", "h1b", "greencard"}},
			{Platform: models.PlatformFeed, Enabled: true, Feeds: []string{
				"https://www.uscis.gov/news/rss-feed/41538",
				"https://www.immigrationimpact.com/feed/",
			}},
			{Platform: models.PlatformMicroblog, Enabled: false},
			{Platform: models.PlatformVideo, Enabled: false},
			{Platform: models.PlatformNews, Enabled: false},
		},
		Aggregator: AggregatorConfig{
			AdapterTimeout: 30 * time.Second,
			GlobalDeadline: 60 * time.Second,
			DaysBack:       7,
			MaxPerPlatform: 50,
		},
		Analysis: AnalysisConfig{
			Enabled: true,
			Model:   "gpt-4o-mini",
			Timeout: 45 * time.Second,
		},
	}
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
