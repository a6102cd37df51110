package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/uplearn/tutor-scheduler/internal/apperr"
	"github.com/uplearn/tutor-scheduler/internal/clock"
	"github.com/uplearn/tutor-scheduler/internal/model"
	"github.com/uplearn/tutor-scheduler/internal/repository"
	"github.com/uplearn/tutor-scheduler/internal/timeutil"
)

// cancellationWindow is the minimum civil time that must remain before a
// reservation's start for either party to cancel it.
const cancellationWindow = 12 * time.Hour

// ReservationService drives the reservation lifecycle. Pre-checks against
// existing reservations are an optimization only; the store's compound unique
// indexes are the safety mechanism, and an insert collision is translated to
// the same Conflict the pre-checks produce.
type ReservationService struct {
	reservations repository.ReservationStore
	slots        repository.SlotStore
	clock        clock.Clock
	logger       *zap.Logger
}

func NewReservationService(reservations repository.ReservationStore, slots repository.SlotStore, clk clock.Clock, logger *zap.Logger) *ReservationService {
	return &ReservationService{
		reservations: reservations,
		slots:        slots,
		clock:        clk,
		logger:       logger,
	}
}

// Create books a tutor's hour for a student. The hour must be on the hour,
// not in the past, and covered by an availability slot; the slot is checked,
// not consumed. The new reservation starts as PENDIENTE.
func (s *ReservationService) Create(ctx context.Context, studentID, tutorID string, date time.Time, hour string) (*model.Reservation, error) {
	h, err := timeutil.ParseHour(hour)
	if err != nil {
		return nil, apperr.Validation("hour must be on the hour (HH:00)")
	}
	if studentID == tutorID {
		return nil, apperr.Validation("tutor and student must be different users")
	}
	if timeutil.IsPast(date, h, s.clock.Now()) {
		return nil, apperr.Validation("cannot reserve a past hour")
	}

	slot, err := s.slots.FindOne(ctx, tutorID, date, h)
	if err != nil {
		return nil, fmt.Errorf("check availability: %w", err)
	}
	if slot == nil {
		return nil, apperr.Conflict("tutor has no availability at that hour")
	}

	if taken, err := s.reservations.ExistsByStudentAndHour(ctx, studentID, date, h); err != nil {
		return nil, fmt.Errorf("check student hour: %w", err)
	} else if taken {
		return nil, apperr.Conflict("a reservation already exists at that hour")
	}
	if taken, err := s.reservations.ExistsByTutorAndHour(ctx, tutorID, date, h); err != nil {
		return nil, fmt.Errorf("check tutor hour: %w", err)
	} else if taken {
		return nil, apperr.Conflict("a reservation already exists at that hour")
	}

	r := &model.Reservation{
		TutorID:   tutorID,
		StudentID: studentID,
		Date:      timeutil.NormalizeDate(date),
		StartHour: h,
		Status:    model.StatusPendiente,
	}

	created, err := s.reservations.Insert(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("insert reservation: %w", err)
	}
	if !created {
		// Lost the race between the existence checks and the insert.
		return nil, apperr.Conflict("the availability slot was just reserved")
	}

	s.logger.Info("Reservation created",
		zap.String("reservation_id", r.ID),
		zap.String("student_id", studentID),
		zap.String("tutor_id", tutorID),
		zap.String("date", timeutil.FormatDate(r.Date)),
		zap.Int("hour", h),
	)

	return r, nil
}

// ChangeStatus applies the status state machine. The actor must be the
// reservation's student or tutor. CANCELADO is allowed from PENDIENTE or
// ACEPTADO by either party, but only while 12 or more hours remain before
// start. ACEPTADO is allowed only by the tutor and only from PENDIENTE.
// No other transition is accepted.
func (s *ReservationService) ChangeStatus(ctx context.Context, actorID, reservationID string, newStatus model.ReservationStatus) (*model.Reservation, error) {
	r, err := s.reservations.FindByID(ctx, reservationID)
	if err != nil {
		return nil, fmt.Errorf("find reservation: %w", err)
	}
	if r == nil {
		return nil, apperr.NotFound("reservation not found")
	}

	isStudent := actorID == r.StudentID
	isTutor := actorID == r.TutorID
	if !isStudent && !isTutor {
		return nil, apperr.Forbidden("not a party of this reservation")
	}

	switch newStatus {
	case model.StatusCancelado:
		if r.Status != model.StatusPendiente && r.Status != model.StatusAceptado {
			return nil, apperr.Conflict("only PENDIENTE or ACEPTADO reservations can be cancelled")
		}
		if r.Start().Sub(s.clock.Now()) < cancellationWindow {
			return nil, apperr.Conflict("cannot cancel less than 12 hours before start")
		}

	case model.StatusAceptado:
		if !isTutor {
			return nil, apperr.Forbidden("only the tutor can accept a reservation")
		}
		if r.Status != model.StatusPendiente {
			return nil, apperr.Conflict("only PENDIENTE reservations can be accepted")
		}

	case model.StatusPendiente, model.StatusFinalizada, model.StatusIncumplida:
		return nil, apperr.Conflict("unsupported status transition")

	default:
		return nil, apperr.Validation("unknown reservation status")
	}

	expected := r.Version
	r.Status = newStatus

	updated, err := s.reservations.Update(ctx, r, expected)
	if err != nil {
		return nil, fmt.Errorf("update reservation: %w", err)
	}
	if !updated {
		return nil, apperr.StaleVersion("reservation was modified concurrently")
	}

	s.logger.Info("Reservation status changed",
		zap.String("reservation_id", r.ID),
		zap.String("actor_id", actorID),
		zap.String("status", string(newStatus)),
	)

	return r, nil
}

// SetAttended records whether the student showed up. Only the tutor may mark
// attendance, only on an accepted class, and only once the hour has fully
// passed. Attendance never changes the stored status; the display status is
// derived from it at read time.
func (s *ReservationService) SetAttended(ctx context.Context, actorID, reservationID string, attended bool) (*model.Reservation, error) {
	r, err := s.reservations.FindByID(ctx, reservationID)
	if err != nil {
		return nil, fmt.Errorf("find reservation: %w", err)
	}
	if r == nil {
		return nil, apperr.NotFound("reservation not found")
	}
	if actorID != r.TutorID {
		return nil, apperr.Forbidden("only the tutor can mark attendance")
	}

	switch r.Status {
	case model.StatusAceptado, model.StatusFinalizada, model.StatusIncumplida:
		// accepted, or correcting a past class
	case model.StatusPendiente, model.StatusCancelado:
		return nil, apperr.Conflict("attendance can only be marked on accepted classes")
	default:
		return nil, apperr.Conflict("attendance can only be marked on accepted classes")
	}

	if !r.End().Before(s.clock.Now()) {
		return nil, apperr.Conflict("class has not finished yet")
	}

	expected := r.Version
	r.Attended = &attended

	updated, err := s.reservations.Update(ctx, r, expected)
	if err != nil {
		return nil, fmt.Errorf("update reservation: %w", err)
	}
	if !updated {
		return nil, apperr.StaleVersion("reservation was modified concurrently")
	}

	s.logger.Info("Attendance marked",
		zap.String("reservation_id", r.ID),
		zap.String("tutor_id", actorID),
		zap.Bool("attended", attended),
	)

	return r, nil
}

// HasActiveReservationForTutorAt reports whether a PENDIENTE or ACEPTADO
// reservation holds the tutor's hour. Callers of the availability engine use
// it to decide whether removing a slot is safe.
func (s *ReservationService) HasActiveReservationForTutorAt(ctx context.Context, tutorID string, date time.Time, hour int) (bool, error) {
	r, err := s.reservations.FindOneByTutorAt(ctx, tutorID, date, hour)
	if err != nil {
		return false, fmt.Errorf("find reservation at hour: %w", err)
	}
	return r != nil && r.Blocks(), nil
}

// ActiveHoursForTutorOn returns the hours on a date held by PENDIENTE or
// ACEPTADO reservations. Used to protect those hours during a day replace.
func (s *ReservationService) ActiveHoursForTutorOn(ctx context.Context, tutorID string, date time.Time) ([]int, error) {
	d := timeutil.NormalizeDate(date)
	rs, err := s.reservations.FindByTutor(ctx, tutorID, &d, &d)
	if err != nil {
		return nil, fmt.Errorf("find reservations for day: %w", err)
	}

	var hours []int
	for _, r := range rs {
		if r.Blocks() {
			hours = append(hours, r.StartHour)
		}
	}
	return hours, nil
}

// ListByStudent returns the student's reservations, optionally date-bounded.
func (s *ReservationService) ListByStudent(ctx context.Context, studentID string, from, to *time.Time) ([]*model.Reservation, error) {
	return s.reservations.FindByStudent(ctx, studentID, from, to)
}

// ListByTutor returns the tutor's reservations, optionally date-bounded.
func (s *ReservationService) ListByTutor(ctx context.Context, tutorID string, from, to *time.Time) ([]*model.Reservation, error) {
	return s.reservations.FindByTutor(ctx, tutorID, from, to)
}

// FindByID returns a reservation, or NotFound.
func (s *ReservationService) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	r, err := s.reservations.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find reservation: %w", err)
	}
	if r == nil {
		return nil, apperr.NotFound("reservation not found")
	}
	return r, nil
}
