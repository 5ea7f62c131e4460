// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Database   DatabaseConfig   `toml:"database"`
	Catalog    CatalogConfig    `toml:"catalog"`
	Debrid     DebridConfig     `toml:"debrid"`
	Torznab    TorznabConfig    `toml:"torznab"`
	TMDB       TMDBConfig       `toml:"tmdb"`
	Automation AutomationConfig `toml:"automation"`
	Mirrors    MirrorsConfig    `toml:"mirrors"`
	Events     EventsConfig     `toml:"events"`
}

type ServerConfig struct {
	Host     string        `toml:"host"`
	Port     int           `toml:"port"`
	LogLevel string        `toml:"log_level"`
	LogFile  string        `toml:"log_file"`
	Log      LogFileConfig `toml:"log"`
}

// LogFileConfig controls rotation of server.log_file.
type LogFileConfig struct {
	MaxSizeMB  int  `toml:"max_size_mb"`
	MaxBackups int  `toml:"max_backups"`
	MaxAgeDays int  `toml:"max_age_days"`
	Compress   bool `toml:"compress"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// CatalogConfig points at the catalog-offers service.
type CatalogConfig struct {
	GraphQLURL      string        `toml:"graphql_url"`
	RESTURL         string        `toml:"rest_url"`
	Country         string        `toml:"country"`
	Language        string        `toml:"language"`
	Timeout         time.Duration `toml:"timeout"`
	FreeProviderIDs []int         `toml:"free_provider_ids"`
}

// DebridConfig configures the Real-Debrid compatible debrid service.
type DebridConfig struct {
	URL               string        `toml:"url"`
	Token             string        `toml:"token"`
	SyncDelay         time.Duration `toml:"sync_delay"`
	MaxLinks          int           `toml:"max_links"`
	RequestsPerMinute int           `toml:"requests_per_minute"`
}

// TorznabConfig configures the torrent index used by auto-resolve.
type TorznabConfig struct {
	URL    string `toml:"url"`
	APIKey string `toml:"api_key"`
}

type TMDBConfig struct {
	APIKey string `toml:"api_key"`
}

// AutomationConfig holds the admin bulk-tooling policy knobs.
type AutomationConfig struct {
	MinSeeders    int           `toml:"min_seeders"`
	BatchLimit    int           `toml:"batch_limit"`
	ResolveDelay  time.Duration `toml:"resolve_delay"`
	RefreshDelay  time.Duration `toml:"refresh_delay"`
	SearchRetries int           `toml:"search_retries"`
}

// MirrorsConfig adjusts the fallback embed provider list.
type MirrorsConfig struct {
	Disabled []string       `toml:"disabled"`
	Priority map[string]int `toml:"priority"`
}

// EventsConfig controls how long the event log keeps history.
type EventsConfig struct {
	Retention     time.Duration `toml:"retention"`
	PruneInterval time.Duration `toml:"prune_interval"`
}

// Default policy values.
const (
	DefaultMinSeeders   = 5
	DefaultBatchLimit   = 10
	DefaultMaxLinks     = 5
	DefaultSyncDelay    = 2 * time.Second
	DefaultRefreshDelay = 500 * time.Millisecond
	DefaultResolveDelay = time.Second
)

// Load reads, parses and validates the configuration file.
func Load(path string) (*Config, error) {
	cfg, err := LoadWithoutValidation(path)
	if err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, &Error{Path: path, Errors: errs}
	}
	return cfg, nil
}

// LoadWithoutValidation reads and parses the configuration file and applies
// defaults. Unresolved environment variables are still reported.
func LoadWithoutValidation(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	content, missing := substituteEnvVars(string(data))
	if len(missing) > 0 {
		return nil, &Error{Path: path, Missing: missing}
	}

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8585
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.Log.MaxSizeMB == 0 {
		c.Server.Log.MaxSizeMB = 50
	}
	if c.Server.Log.MaxBackups == 0 {
		c.Server.Log.MaxBackups = 3
	}
	if c.Server.Log.MaxAgeDays == 0 {
		c.Server.Log.MaxAgeDays = 14
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/reelroute.db"
	}
	if c.Catalog.GraphQLURL == "" {
		c.Catalog.GraphQLURL = "https://apis.justwatch.com/graphql"
	}
	if c.Catalog.RESTURL == "" {
		c.Catalog.RESTURL = "https://apis.justwatch.com/content"
	}
	if c.Catalog.Country == "" {
		c.Catalog.Country = "US"
	}
	if c.Catalog.Language == "" {
		c.Catalog.Language = "en"
	}
	if c.Catalog.Timeout == 0 {
		c.Catalog.Timeout = 15 * time.Second
	}
	if c.Debrid.URL == "" {
		c.Debrid.URL = "https://api.real-debrid.com/rest/1.0"
	}
	if c.Debrid.SyncDelay == 0 {
		c.Debrid.SyncDelay = DefaultSyncDelay
	}
	if c.Debrid.MaxLinks == 0 {
		c.Debrid.MaxLinks = DefaultMaxLinks
	}
	if c.Debrid.RequestsPerMinute == 0 {
		c.Debrid.RequestsPerMinute = 250
	}
	if c.Automation.MinSeeders == 0 {
		c.Automation.MinSeeders = DefaultMinSeeders
	}
	if c.Automation.BatchLimit == 0 {
		c.Automation.BatchLimit = DefaultBatchLimit
	}
	if c.Automation.ResolveDelay == 0 {
		c.Automation.ResolveDelay = DefaultResolveDelay
	}
	if c.Automation.RefreshDelay == 0 {
		c.Automation.RefreshDelay = DefaultRefreshDelay
	}
	if c.Automation.SearchRetries == 0 {
		c.Automation.SearchRetries = 2
	}
	if c.Events.Retention == 0 {
		c.Events.Retention = 30 * 24 * time.Hour
	}
	if c.Events.PruneInterval == 0 {
		c.Events.PruneInterval = time.Hour
	}
}

// envVarPattern matches ${VAR}, ${VAR:-default} and ${VAR:?message}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?:(:-|:\?)([^}]*))?\}`)

// substituteEnvVars replaces environment references and returns the names of
// variables that could not be resolved. Unresolved references are left as-is.
func substituteEnvVars(content string) (string, []string) {
	seen := make(map[string]bool)
	var missing []string

	out := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		name, op, arg := parts[1], parts[2], parts[3]

		value, ok := os.LookupEnv(name)
		if ok && value != "" {
			return value
		}
		switch op {
		case ":-":
			return arg
		case ":?":
			if !seen[name] {
				seen[name] = true
				missing = append(missing, fmt.Sprintf("%s: %s", name, arg))
			}
			return match
		}
		if ok {
			return value
		}
		if !seen[name] {
			seen[name] = true
			missing = append(missing, name)
		}
		return match
	})

	sort.Strings(missing)
	return out, missing
}
