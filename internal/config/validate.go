// internal/config/validate.go
package config

import (
	"fmt"
	"net/url"
	"sort"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if c.Server.Port != 0 && (c.Server.Port < 1 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", c.Server.Port))
	}
	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}

	errs = append(errs, checkURL("catalog.graphql_url", c.Catalog.GraphQLURL)...)
	errs = append(errs, checkURL("catalog.rest_url", c.Catalog.RESTURL)...)
	if len(c.Catalog.Country) != 0 && len(c.Catalog.Country) != 2 {
		errs = append(errs, fmt.Sprintf("catalog.country: must be a two-letter country code, got %q", c.Catalog.Country))
	}
	for _, id := range c.Catalog.FreeProviderIDs {
		if id <= 0 {
			errs = append(errs, fmt.Sprintf("catalog.free_provider_ids: provider ids must be positive, got %d", id))
		}
	}

	errs = append(errs, checkURL("debrid.url", c.Debrid.URL)...)
	if c.Debrid.MaxLinks < 0 {
		errs = append(errs, fmt.Sprintf("debrid.max_links: must not be negative, got %d", c.Debrid.MaxLinks))
	}
	if c.Debrid.SyncDelay < 0 {
		errs = append(errs, "debrid.sync_delay: must not be negative")
	}
	if c.Debrid.RequestsPerMinute < 0 {
		errs = append(errs, fmt.Sprintf("debrid.requests_per_minute: must not be negative, got %d", c.Debrid.RequestsPerMinute))
	}

	if c.Torznab.URL != "" {
		errs = append(errs, checkURL("torznab.url", c.Torznab.URL)...)
		if c.Torznab.APIKey == "" {
			errs = append(errs, "torznab.api_key: required when torznab is configured")
		}
	}

	if c.Automation.MinSeeders < 0 {
		errs = append(errs, fmt.Sprintf("automation.min_seeders: must not be negative, got %d", c.Automation.MinSeeders))
	}
	if c.Automation.BatchLimit < 0 {
		errs = append(errs, fmt.Sprintf("automation.batch_limit: must not be negative, got %d", c.Automation.BatchLimit))
	}
	if c.Automation.RefreshDelay < 0 || c.Automation.ResolveDelay < 0 {
		errs = append(errs, "automation: delays must not be negative")
	}

	if c.Events.Retention < 0 || c.Events.PruneInterval < 0 {
		errs = append(errs, "events: retention and prune_interval must not be negative")
	}

	names := make([]string, 0, len(c.Mirrors.Priority))
	for name := range c.Mirrors.Priority {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if c.Mirrors.Priority[name] < 0 {
			errs = append(errs, fmt.Sprintf("mirrors.priority.%s: must not be negative", name))
		}
	}

	return errs
}

func checkURL(field, raw string) []string {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return []string{fmt.Sprintf("%s: invalid URL %q", field, raw)}
	}
	return nil
}
