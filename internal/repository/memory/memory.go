// Package memory provides in-memory implementations of the store interfaces.
// They enforce the same compound uniqueness keys as the Postgres schema, so
// service tests exercise the real race behavior without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/uplearn/tutor-scheduler/internal/model"
	"github.com/uplearn/tutor-scheduler/internal/timeutil"
)

func hourKey(ownerID string, date time.Time, hour int) string {
	return ownerID + "|" + timeutil.FormatDate(date) + "|" + timeutil.FormatHour(hour)
}

type SlotStore struct {
	mu     sync.Mutex
	byID   map[string]*model.AvailabilitySlot
	byHour map[string]string // (tutor, date, hour) -> slot id
}

func NewSlotStore() *SlotStore {
	return &SlotStore{
		byID:   make(map[string]*model.AvailabilitySlot),
		byHour: make(map[string]string),
	}
}

func (s *SlotStore) Insert(_ context.Context, slot *model.AvailabilitySlot) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := hourKey(slot.TutorID, slot.Date, slot.StartHour)
	if _, ok := s.byHour[key]; ok {
		return false, nil
	}

	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	slot.Date = timeutil.NormalizeDate(slot.Date)
	slot.CreatedAt = time.Now()
	slot.UpdatedAt = slot.CreatedAt

	cp := *slot
	s.byID[slot.ID] = &cp
	s.byHour[key] = slot.ID
	return true, nil
}

func (s *SlotStore) FindByID(_ context.Context, id string) (*model.AvailabilitySlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *slot
	return &cp, nil
}

func (s *SlotStore) FindOne(_ context.Context, tutorID string, date time.Time, hour int) (*model.AvailabilitySlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byHour[hourKey(tutorID, date, hour)]
	if !ok {
		return nil, nil
	}
	cp := *s.byID[id]
	return &cp, nil
}

func (s *SlotStore) FindByTutorAndDate(ctx context.Context, tutorID string, date time.Time) ([]*model.AvailabilitySlot, error) {
	d := timeutil.NormalizeDate(date)
	return s.FindByTutorAndDateRange(ctx, tutorID, d, d)
}

func (s *SlotStore) FindByTutorAndDateRange(_ context.Context, tutorID string, from, to time.Time) ([]*model.AvailabilitySlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from = timeutil.NormalizeDate(from)
	to = timeutil.NormalizeDate(to)

	var out []*model.AvailabilitySlot
	for _, slot := range s.byID {
		if slot.TutorID != tutorID || slot.Date.Before(from) || slot.Date.After(to) {
			continue
		}
		cp := *slot
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StartHour < out[j].StartHour
	})
	return out, nil
}

func (s *SlotStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.byID[id]
	if !ok {
		return nil
	}
	delete(s.byHour, hourKey(slot.TutorID, slot.Date, slot.StartHour))
	delete(s.byID, id)
	return nil
}

type ReservationStore struct {
	mu        sync.Mutex
	byID      map[string]*model.Reservation
	byStudent map[string]string // (student, date, hour) -> reservation id
	byTutor   map[string]string // (tutor, date, hour) -> reservation id
}

func NewReservationStore() *ReservationStore {
	return &ReservationStore{
		byID:      make(map[string]*model.Reservation),
		byStudent: make(map[string]string),
		byTutor:   make(map[string]string),
	}
}

func (s *ReservationStore) Insert(_ context.Context, r *model.Reservation) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	studentKey := hourKey(r.StudentID, r.Date, r.StartHour)
	tutorKey := hourKey(r.TutorID, r.Date, r.StartHour)
	if _, ok := s.byStudent[studentKey]; ok {
		return false, nil
	}
	if _, ok := s.byTutor[tutorKey]; ok {
		return false, nil
	}

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.Date = timeutil.NormalizeDate(r.Date)
	r.Version = 1
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt

	cp := *r
	s.byID[r.ID] = &cp
	s.byStudent[studentKey] = r.ID
	s.byTutor[tutorKey] = r.ID
	return true, nil
}

func (s *ReservationStore) FindByID(_ context.Context, id string) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (s *ReservationStore) FindOneByTutorAt(_ context.Context, tutorID string, date time.Time, hour int) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byTutor[hourKey(tutorID, date, hour)]
	if !ok {
		return nil, nil
	}
	cp := *s.byID[id]
	return &cp, nil
}

func (s *ReservationStore) ExistsByStudentAndHour(_ context.Context, studentID string, date time.Time, hour int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byStudent[hourKey(studentID, date, hour)]
	return ok, nil
}

func (s *ReservationStore) ExistsByTutorAndHour(_ context.Context, tutorID string, date time.Time, hour int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byTutor[hourKey(tutorID, date, hour)]
	return ok, nil
}

func (s *ReservationStore) FindByStudent(_ context.Context, studentID string, from, to *time.Time) ([]*model.Reservation, error) {
	return s.findBy(func(r *model.Reservation) bool { return r.StudentID == studentID }, from, to), nil
}

func (s *ReservationStore) FindByTutor(_ context.Context, tutorID string, from, to *time.Time) ([]*model.Reservation, error) {
	return s.findBy(func(r *model.Reservation) bool { return r.TutorID == tutorID }, from, to), nil
}

func (s *ReservationStore) findBy(match func(*model.Reservation) bool, from, to *time.Time) []*model.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*model.Reservation
	for _, r := range s.byID {
		if !match(r) {
			continue
		}
		if from != nil && r.Date.Before(timeutil.NormalizeDate(*from)) {
			continue
		}
		if to != nil && r.Date.After(timeutil.NormalizeDate(*to)) {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StartHour < out[j].StartHour
	})
	return out
}

func (s *ReservationStore) Update(_ context.Context, r *model.Reservation, expectedVersion int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byID[r.ID]
	if !ok || stored.Version != expectedVersion {
		return false, nil
	}

	stored.Status = r.Status
	stored.Attended = r.Attended
	stored.Version++
	stored.UpdatedAt = time.Now()

	r.Version = stored.Version
	r.UpdatedAt = stored.UpdatedAt
	return true, nil
}
