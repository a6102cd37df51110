package model

// ScheduleCell is one hour of a tutor's weekly grid.
// Status is "DISPONIBLE" for a bare availability slot, the reservation's
// status name when the hour is reserved, or empty when the tutor is not
// available at all.
type ScheduleCell struct {
	Date          string `json:"date"` // YYYY-MM-DD
	Hour          string `json:"hour"` // HH:00
	Status        string `json:"status,omitempty"`
	ReservationID string `json:"reservationId,omitempty"`
	StudentID     string `json:"studentId,omitempty"`
}

// CellStatusAvailable marks an hour with availability and no reservation.
const CellStatusAvailable = "DISPONIBLE"

// CellStatusActive is the fallback when a reservation has no stored status.
const CellStatusActive = "ACTIVA"
