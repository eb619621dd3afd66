package ratelimit

import "time"

// SetClock replaces the limiter clock.
func (l *KeyedLimiter) SetClock(now func() time.Time) {
	l.now = now
}
