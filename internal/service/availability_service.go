package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/uplearn/tutor-scheduler/internal/apperr"
	"github.com/uplearn/tutor-scheduler/internal/model"
	"github.com/uplearn/tutor-scheduler/internal/repository"
	"github.com/uplearn/tutor-scheduler/internal/timeutil"
)

// AvailabilityService manages the hours a tutor declares bookable. All of its
// creation paths are idempotent under concurrent retries: a duplicate slot is
// reported by the store as "already exists" and silently skipped, so a client
// retry or a second browser tab never sees a failure for a slot that is
// already there.
type AvailabilityService struct {
	slots  repository.SlotStore
	logger *zap.Logger
}

func NewAvailabilityService(slots repository.SlotStore, logger *zap.Logger) *AvailabilityService {
	return &AvailabilityService{slots: slots, logger: logger}
}

// BulkCreate declares one slot per hour in [fromHour, toHour) for every date
// in [fromDate, toDate] whose weekday is in days (nil means every day).
// Returns only the slots actually created by this call.
func (s *AvailabilityService) BulkCreate(ctx context.Context, tutorID string, fromDate, toDate time.Time, fromHour, toHour string, days []time.Weekday) ([]*model.AvailabilitySlot, error) {
	fromDate = timeutil.NormalizeDate(fromDate)
	toDate = timeutil.NormalizeDate(toDate)
	if fromDate.After(toDate) {
		return nil, apperr.Validation("from date must not be after to date")
	}

	fh, err := timeutil.ParseHour(fromHour)
	if err != nil {
		return nil, apperr.Validation("hours must be on the hour (HH:00)")
	}
	th, err := timeutil.ParseHour(toHour)
	if err != nil {
		return nil, apperr.Validation("hours must be on the hour (HH:00)")
	}
	if th <= fh {
		return nil, apperr.Validation("to hour must be after from hour")
	}

	wanted := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		wanted[d] = true
	}

	var created []*model.AvailabilitySlot
	for d := fromDate; !d.After(toDate); d = d.AddDate(0, 0, 1) {
		if len(wanted) > 0 && !wanted[d.Weekday()] {
			continue
		}
		for h := fh; h < th; h++ {
			slot := &model.AvailabilitySlot{TutorID: tutorID, Date: d, StartHour: h}
			ok, err := s.slots.Insert(ctx, slot)
			if err != nil {
				return nil, fmt.Errorf("bulk create slot: %w", err)
			}
			if ok {
				created = append(created, slot)
			}
		}
	}

	s.logger.Info("Bulk availability created",
		zap.String("tutor_id", tutorID),
		zap.Int("created", len(created)),
	)

	return created, nil
}

// ListOwn returns the tutor's slots with date in [from, to].
func (s *AvailabilityService) ListOwn(ctx context.Context, tutorID string, from, to time.Time) ([]*model.AvailabilitySlot, error) {
	return s.slots.FindByTutorAndDateRange(ctx, tutorID, from, to)
}

// ListForDay returns the tutor's slots on one date.
func (s *AvailabilityService) ListForDay(ctx context.Context, tutorID string, date time.Time) ([]*model.AvailabilitySlot, error) {
	return s.slots.FindByTutorAndDate(ctx, tutorID, date)
}

// FindSlot returns a slot by id, or NotFound.
func (s *AvailabilityService) FindSlot(ctx context.Context, slotID string) (*model.AvailabilitySlot, error) {
	slot, err := s.slots.FindByID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("find slot: %w", err)
	}
	if slot == nil {
		return nil, apperr.NotFound("slot not found")
	}
	return slot, nil
}

// DeleteOwn removes one of the tutor's slots. The caller is responsible for
// computing hasActiveReservation via the reservation engine; a blocked slot
// cannot be removed.
func (s *AvailabilityService) DeleteOwn(ctx context.Context, tutorID, slotID string, hasActiveReservation bool) error {
	slot, err := s.slots.FindByID(ctx, slotID)
	if err != nil {
		return fmt.Errorf("find slot: %w", err)
	}
	if slot == nil {
		return apperr.NotFound("slot not found")
	}
	if slot.TutorID != tutorID {
		return apperr.Forbidden("slot belongs to another tutor")
	}
	if hasActiveReservation {
		return apperr.Conflict("slot has an active reservation")
	}

	if err := s.slots.Delete(ctx, slotID); err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}

	s.logger.Info("Availability slot deleted",
		zap.String("tutor_id", tutorID),
		zap.String("slot_id", slotID),
	)

	return nil
}

// ReplaceDay reconciles the tutor's slots on a date against the requested
// hours: existing slots whose hour is neither requested nor protected are
// deleted, requested hours not yet present are created. Creation collisions
// are absorbed; a concurrent creator wins.
func (s *AvailabilityService) ReplaceDay(ctx context.Context, tutorID string, date time.Time, hours []string, protectedHours []int) error {
	requested, err := parseHours(hours)
	if err != nil {
		return err
	}

	protected := make(map[int]bool, len(protectedHours))
	for _, h := range protectedHours {
		protected[h] = true
	}

	existing, err := s.slots.FindByTutorAndDate(ctx, tutorID, date)
	if err != nil {
		return fmt.Errorf("list slots for day: %w", err)
	}

	present := make(map[int]bool, len(existing))
	for _, slot := range existing {
		present[slot.StartHour] = true
		if requested[slot.StartHour] || protected[slot.StartHour] {
			continue
		}
		if err := s.slots.Delete(ctx, slot.ID); err != nil {
			return fmt.Errorf("delete slot: %w", err)
		}
	}

	for h := range requested {
		if present[h] {
			continue
		}
		slot := &model.AvailabilitySlot{TutorID: tutorID, Date: date, StartHour: h}
		if _, err := s.slots.Insert(ctx, slot); err != nil {
			return fmt.Errorf("create slot: %w", err)
		}
	}

	s.logger.Info("Day availability replaced",
		zap.String("tutor_id", tutorID),
		zap.String("date", timeutil.FormatDate(date)),
		zap.Int("requested", len(requested)),
		zap.Int("protected", len(protectedHours)),
	)

	return nil
}

// AddHours is the additive variant of ReplaceDay: it only creates hours not
// already present and never deletes. Returns the number actually added;
// duplicates, including concurrent creations, are counted as already present.
func (s *AvailabilityService) AddHours(ctx context.Context, tutorID string, date time.Time, hours []string) (int, error) {
	requested, err := parseHours(hours)
	if err != nil {
		return 0, err
	}

	existing, err := s.slots.FindByTutorAndDate(ctx, tutorID, date)
	if err != nil {
		return 0, fmt.Errorf("list slots for day: %w", err)
	}
	present := make(map[int]bool, len(existing))
	for _, slot := range existing {
		present[slot.StartHour] = true
	}

	added := 0
	for h := range requested {
		if present[h] {
			continue
		}
		slot := &model.AvailabilitySlot{TutorID: tutorID, Date: date, StartHour: h}
		ok, err := s.slots.Insert(ctx, slot)
		if err != nil {
			return added, fmt.Errorf("create slot: %w", err)
		}
		if ok {
			added++
		}
	}

	s.logger.Info("Availability hours added",
		zap.String("tutor_id", tutorID),
		zap.String("date", timeutil.FormatDate(date)),
		zap.Int("added", added),
		zap.Int("requested", len(requested)),
	)

	return added, nil
}

func parseHours(hours []string) (map[int]bool, error) {
	out := make(map[int]bool, len(hours))
	for _, raw := range hours {
		h, err := timeutil.ParseHour(raw)
		if err != nil {
			return nil, apperr.Validation("hours must be on the hour (HH:00)")
		}
		out[h] = true
	}
	return out, nil
}
