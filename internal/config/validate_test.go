// internal/config/validate_test.go
package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	assert.Empty(t, validConfig().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"bad port", func(c *Config) { c.Server.Port = -1 }, "server.port"},
		{"bad log level", func(c *Config) { c.Server.LogLevel = "trace" }, "server.log_level"},
		{"bad graphql url", func(c *Config) { c.Catalog.GraphQLURL = "not a url" }, "catalog.graphql_url"},
		{"bad country", func(c *Config) { c.Catalog.Country = "USA" }, "catalog.country"},
		{"bad provider id", func(c *Config) { c.Catalog.FreeProviderIDs = []int{73, 0} }, "catalog.free_provider_ids"},
		{"negative max links", func(c *Config) { c.Debrid.MaxLinks = -2 }, "debrid.max_links"},
		{"torznab without key", func(c *Config) { c.Torznab.URL = "http://indexer.local/api" }, "torznab.api_key"},
		{"negative seeders", func(c *Config) { c.Automation.MinSeeders = -5 }, "automation.min_seeders"},
		{"negative mirror priority", func(c *Config) { c.Mirrors.Priority = map[string]int{"vidsrc": -1} }, "mirrors.priority.vidsrc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			errs := cfg.Validate()
			if assert.Len(t, errs, 1) {
				assert.Contains(t, errs[0], tt.want)
			}
		})
	}
}
