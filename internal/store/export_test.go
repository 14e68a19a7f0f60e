package store

import "time"

// SetClock replaces the time source of s.
func SetClock(s *SQLiteStore, now func() time.Time) {
	s.now = now
}
