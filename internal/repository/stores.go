package repository

import (
	"context"
	"time"

	"github.com/uplearn/tutor-scheduler/internal/model"
)

// SlotStore persists availability slots. Insert reports whether a row was
// actually created: a uniqueness collision on (tutor_id, date, start_hour)
// comes back as created=false, not as an error, so callers branch on a value.
type SlotStore interface {
	Insert(ctx context.Context, slot *model.AvailabilitySlot) (created bool, err error)
	FindByID(ctx context.Context, id string) (*model.AvailabilitySlot, error)
	FindOne(ctx context.Context, tutorID string, date time.Time, hour int) (*model.AvailabilitySlot, error)
	FindByTutorAndDate(ctx context.Context, tutorID string, date time.Time) ([]*model.AvailabilitySlot, error)
	FindByTutorAndDateRange(ctx context.Context, tutorID string, from, to time.Time) ([]*model.AvailabilitySlot, error)
	Delete(ctx context.Context, id string) error
}

// ReservationStore persists reservations. The compound unique indexes on
// (student_id, date, start_hour) and (tutor_id, date, start_hour) are the
// authoritative guard against double booking; Insert reports a collision as
// created=false. Update applies only when the stored version matches
// expectedVersion, reporting updated=false on a stale or missing row.
type ReservationStore interface {
	Insert(ctx context.Context, r *model.Reservation) (created bool, err error)
	FindByID(ctx context.Context, id string) (*model.Reservation, error)
	FindOneByTutorAt(ctx context.Context, tutorID string, date time.Time, hour int) (*model.Reservation, error)
	ExistsByStudentAndHour(ctx context.Context, studentID string, date time.Time, hour int) (bool, error)
	ExistsByTutorAndHour(ctx context.Context, tutorID string, date time.Time, hour int) (bool, error)
	FindByStudent(ctx context.Context, studentID string, from, to *time.Time) ([]*model.Reservation, error)
	FindByTutor(ctx context.Context, tutorID string, from, to *time.Time) ([]*model.Reservation, error)
	Update(ctx context.Context, r *model.Reservation, expectedVersion int64) (updated bool, err error)
}
