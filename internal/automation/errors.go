package automation

import "errors"

var (
	// ErrNotConfigured is returned when a collaborator an operation needs
	// was not provided.
	ErrNotConfigured = errors.New("automation: collaborator not configured")
	// ErrNoTorrents is returned when no search result clears the seeder floor.
	ErrNoTorrents = errors.New("no torrent meets the seeder floor")
	// ErrNotResolved is returned when debrid produced no streamable file.
	ErrNotResolved = errors.New("no streamable file")
	// ErrMissingTitle is returned when a ref has neither a title nor an id to
	// look one up by.
	ErrMissingTitle = errors.New("content has no title")
)
