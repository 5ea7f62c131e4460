package automation

import (
	"context"
	"time"
)

// SetSleep replaces the pause used between bulk items.
func (s *Service) SetSleep(fn func(ctx context.Context, d time.Duration) error) {
	s.sleep = fn
}
