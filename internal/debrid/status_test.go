package debrid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusAdding, StatusQueued, true},
		{StatusAdding, StatusMagnetError, true},
		{StatusQueued, StatusDownloading, true},
		{StatusQueued, StatusQueued, true},
		{StatusDownloading, StatusDownloaded, true},
		{StatusDownloaded, StatusError, true},
		{StatusDownloaded, StatusDownloading, false},
		{StatusDownloading, StatusAdding, false},
		{StatusError, StatusQueued, false},
		{StatusDead, StatusDead, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	for _, s := range []Status{StatusDownloaded, StatusError, StatusMagnetError, StatusVirus, StatusDead} {
		assert.True(t, s.IsTerminal(), s)
	}
	for _, s := range []Status{StatusAdding, StatusWaitingFilesSelection, StatusQueued, StatusDownloading} {
		assert.False(t, s.IsTerminal(), s)
	}
	assert.False(t, StatusDownloaded.IsFailure())
	assert.True(t, StatusDead.IsFailure())
}
