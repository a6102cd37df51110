package model

import (
	"time"

	"github.com/uplearn/tutor-scheduler/internal/timeutil"
)

// AvailabilitySlot is one bookable civil hour declared by a tutor.
// Unique per (tutor_id, date, start_hour); the end is always start + 1h.
type AvailabilitySlot struct {
	ID        string    `json:"id"`
	TutorID   string    `json:"tutorId"`
	Date      time.Time `json:"date"`
	StartHour int       `json:"startHour"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Start returns the instant the slot begins.
func (s *AvailabilitySlot) Start() time.Time {
	return timeutil.StartOfHour(s.Date, s.StartHour)
}

// End returns the instant the slot ends, one hour after Start.
func (s *AvailabilitySlot) End() time.Time {
	return s.Start().Add(time.Hour)
}
