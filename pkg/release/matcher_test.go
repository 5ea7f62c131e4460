package release

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchConfidenceString(t *testing.T) {
	tests := []struct {
		conf     MatchConfidence
		expected string
	}{
		{ConfidenceHigh, "high"},
		{ConfidenceMedium, "medium"},
		{ConfidenceLow, "low"},
		{ConfidenceNone, "none"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.conf.String())
		})
	}
}

func TestCompare_ExactAfterNormalization(t *testing.T) {
	res := Compare("Léon: The Professional", "Leon: The Professional")
	assert.Equal(t, ConfidenceHigh, res.Confidence)
	assert.InDelta(t, 1.0, res.Score, 0.001)
	assert.Equal(t, "Leon: The Professional", res.Title)
}

func TestCompare_Unrelated(t *testing.T) {
	res := Compare("Inception", "Paddington")
	assert.Equal(t, ConfidenceNone, res.Confidence)
	assert.Empty(t, res.Title)
}

func TestCompare_SequelNumbers(t *testing.T) {
	same := Compare("Toy Story 2", "Toy Story 2")
	other := Compare("Toy Story 2", "Toy Story 3")
	assert.Greater(t, same.Score, other.Score)
}

func TestMatchTitle(t *testing.T) {
	t.Run("empty candidates", func(t *testing.T) {
		res := MatchTitle("Inception", nil)
		assert.Equal(t, ConfidenceNone, res.Confidence)
		assert.Zero(t, res.Score)
	})

	t.Run("picks best", func(t *testing.T) {
		res := MatchTitle("The Matrix", []string{"The Matrix Reloaded", "The Matrix", "Matrix"})
		assert.Equal(t, "The Matrix", res.Title)
		assert.Equal(t, ConfidenceHigh, res.Confidence)
	})
}
