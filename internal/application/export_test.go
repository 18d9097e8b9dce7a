package application

import "time"

// SetNoteClock replaces the clock of a NoteService.
func SetNoteClock(s *NoteService, now func() time.Time) {
	s.now = now
}
