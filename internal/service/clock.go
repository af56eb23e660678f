package service

import (
	"time"

	domain "enrollment-platform/internal/domain/enrollment"
)

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// NewSystemClock returns the wall clock used outside tests.
func NewSystemClock() domain.Clock {
	return systemClock{}
}
