package model

import (
	"fmt"
	"time"

	"github.com/uplearn/tutor-scheduler/internal/timeutil"
)

// ReservationStatus is the persisted status of a reservation. It is a closed
// set; anything else is rejected at the boundary by ParseReservationStatus.
type ReservationStatus string

const (
	StatusPendiente  ReservationStatus = "PENDIENTE"  // created, waiting for the tutor
	StatusAceptado   ReservationStatus = "ACEPTADO"   // accepted by the tutor
	StatusCancelado  ReservationStatus = "CANCELADO"  // cancelled by either party
	StatusFinalizada ReservationStatus = "FINALIZADA" // class held, student attended
	StatusIncumplida ReservationStatus = "INCUMPLIDA" // class passed, student did not attend
)

// ParseReservationStatus maps a wire string to a ReservationStatus.
func ParseReservationStatus(s string) (ReservationStatus, error) {
	switch ReservationStatus(s) {
	case StatusPendiente, StatusAceptado, StatusCancelado, StatusFinalizada, StatusIncumplida:
		return ReservationStatus(s), nil
	default:
		return "", fmt.Errorf("unknown reservation status %q", s)
	}
}

// DisplayStatus is the status shown to humans. It is derived at read time
// from the stored status, the clock and attendance, and is never persisted.
// Kept as a distinct type so a derived value cannot be written back.
type DisplayStatus string

const (
	DisplayPendiente  DisplayStatus = "PENDIENTE"
	DisplayAceptado   DisplayStatus = "ACEPTADO"
	DisplayCancelado  DisplayStatus = "CANCELADO"
	DisplayActiva     DisplayStatus = "ACTIVA" // class currently in progress
	DisplayFinalizada DisplayStatus = "FINALIZADA"
	DisplayIncumplida DisplayStatus = "INCUMPLIDA"
)

// Reservation is a student's claim on a tutor's hour. Unique per
// (student_id, date, start_hour) and per (tutor_id, date, start_hour);
// those indexes, not the slot, are what prevent double booking.
type Reservation struct {
	ID        string            `json:"id"`
	TutorID   string            `json:"tutorId"`
	StudentID string            `json:"studentId"`
	Date      time.Time         `json:"date"`
	StartHour int               `json:"startHour"`
	Status    ReservationStatus `json:"status"`
	Attended  *bool             `json:"attended"`
	Version   int64             `json:"version"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// Start returns the instant the reserved hour begins.
func (r *Reservation) Start() time.Time {
	return timeutil.StartOfHour(r.Date, r.StartHour)
}

// End returns the instant the reserved hour ends.
func (r *Reservation) End() time.Time {
	return r.Start().Add(time.Hour)
}

// Blocks reports whether the reservation still claims its hour. PENDIENTE and
// ACEPTADO reservations block the tutor's slot from being removed.
func (r *Reservation) Blocks() bool {
	return r.Status == StatusPendiente || r.Status == StatusAceptado
}
