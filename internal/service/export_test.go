package service

import "time"

func SetClock(s *QuizService, now func() time.Time) {
	s.now = now
}
