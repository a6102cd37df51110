package service

import (
	"context"
	"fmt"
	"time"

	"github.com/uplearn/tutor-scheduler/internal/apperr"
	"github.com/uplearn/tutor-scheduler/internal/model"
	"github.com/uplearn/tutor-scheduler/internal/repository"
	"github.com/uplearn/tutor-scheduler/internal/timeutil"
)

// ScheduleService composes availability and reservations into a read-only
// weekly grid. It never writes to either store.
type ScheduleService struct {
	slots        repository.SlotStore
	reservations repository.ReservationStore
}

func NewScheduleService(slots repository.SlotStore, reservations repository.ReservationStore) *ScheduleService {
	return &ScheduleService{slots: slots, reservations: reservations}
}

// WeekGrid returns 7×24 cells covering weekStart through weekStart+6, in
// strict chronological order. An availability slot seeds a DISPONIBLE cell;
// a reservation overwrites the cell with its status and attaches the
// reservation and student ids. Hours with neither stay empty.
func (s *ScheduleService) WeekGrid(ctx context.Context, tutorID string, weekStart time.Time) ([]model.ScheduleCell, error) {
	if tutorID == "" {
		return nil, apperr.Validation("tutorId is required")
	}
	if weekStart.IsZero() {
		return nil, apperr.Validation("weekStart is required")
	}

	weekStart = timeutil.NormalizeDate(weekStart)
	weekEnd := weekStart.AddDate(0, 0, 6)

	slots, err := s.slots.FindByTutorAndDateRange(ctx, tutorID, weekStart, weekEnd)
	if err != nil {
		return nil, fmt.Errorf("load week slots: %w", err)
	}
	reservations, err := s.reservations.FindByTutor(ctx, tutorID, &weekStart, &weekEnd)
	if err != nil {
		return nil, fmt.Errorf("load week reservations: %w", err)
	}

	type key struct {
		date string
		hour int
	}

	cells := make(map[key]model.ScheduleCell, len(slots)+len(reservations))

	for _, slot := range slots {
		k := key{timeutil.FormatDate(slot.Date), slot.StartHour}
		cells[k] = model.ScheduleCell{
			Date:   k.date,
			Hour:   timeutil.FormatHour(k.hour),
			Status: model.CellStatusAvailable,
		}
	}

	for _, r := range reservations {
		k := key{timeutil.FormatDate(r.Date), r.StartHour}
		status := string(r.Status)
		if status == "" {
			status = model.CellStatusActive
		}
		cells[k] = model.ScheduleCell{
			Date:          k.date,
			Hour:          timeutil.FormatHour(k.hour),
			Status:        status,
			ReservationID: r.ID,
			StudentID:     r.StudentID,
		}
	}

	grid := make([]model.ScheduleCell, 0, 7*24)
	for d := weekStart; !d.After(weekEnd); d = d.AddDate(0, 0, 1) {
		date := timeutil.FormatDate(d)
		for h := 0; h < 24; h++ {
			if cell, ok := cells[key{date, h}]; ok {
				grid = append(grid, cell)
				continue
			}
			grid = append(grid, model.ScheduleCell{Date: date, Hour: timeutil.FormatHour(h)})
		}
	}

	return grid, nil
}
