package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/uplearn/tutor-scheduler/internal/apperr"
	"github.com/uplearn/tutor-scheduler/internal/clock"
	"github.com/uplearn/tutor-scheduler/internal/model"
	"github.com/uplearn/tutor-scheduler/internal/repository"
	"github.com/uplearn/tutor-scheduler/internal/repository/memory"
	"github.com/uplearn/tutor-scheduler/internal/timeutil"
)

type reservationFixture struct {
	reservations *ReservationService
	availability *AvailabilityService
	store        *memory.ReservationStore
	slots        *memory.SlotStore
}

// newReservationFixture wires the engines over memory stores with a clock
// fixed at 2025-03-09 08:00 Bogota time.
func newReservationFixture(t *testing.T, clk clock.Clock) *reservationFixture {
	t.Helper()

	slots := memory.NewSlotStore()
	store := memory.NewReservationStore()
	logger := zap.NewNop()

	return &reservationFixture{
		reservations: NewReservationService(store, slots, clk, logger),
		availability: NewAvailabilityService(slots, logger),
		store:        store,
		slots:        slots,
	}
}

func (f *reservationFixture) publish(t *testing.T, tutorID string, date time.Time, fromHour, toHour string) {
	t.Helper()
	if _, err := f.availability.BulkCreate(context.Background(), tutorID, date, date, fromHour, toHour, nil); err != nil {
		t.Fatalf("publish availability: %v", err)
	}
}

var testNow = clock.At(2025, time.March, 9, 8, 0)

func TestCreate_Succeeds(t *testing.T) {
	f := newReservationFixture(t, testNow)
	day := civilDate(2025, time.March, 10)
	f.publish(t, "tutor-1", day, "10:00", "11:00")

	r, err := f.reservations.Create(context.Background(), "student-1", "tutor-1", day, "10:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Status != model.StatusPendiente {
		t.Fatalf("expected PENDIENTE, got %s", r.Status)
	}
	if r.Attended != nil {
		t.Fatalf("attended must start unset")
	}
	if r.StartHour != 10 || !r.End().Equal(r.Start().Add(time.Hour)) {
		t.Fatalf("end must be start+1h")
	}
	if r.Version != 1 {
		t.Fatalf("expected version 1, got %d", r.Version)
	}
}

func TestCreate_Validation(t *testing.T) {
	f := newReservationFixture(t, testNow)
	ctx := context.Background()
	day := civilDate(2025, time.March, 10)
	f.publish(t, "tutor-1", day, "10:00", "11:00")

	if _, err := f.reservations.Create(ctx, "student-1", "tutor-1", day, "10:30"); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("misaligned hour: expected validation, got %v", err)
	}
	if _, err := f.reservations.Create(ctx, "tutor-1", "tutor-1", day, "10:00"); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("self booking: expected validation, got %v", err)
	}

	past := civilDate(2025, time.March, 8)
	if _, err := f.reservations.Create(ctx, "student-1", "tutor-1", past, "10:00"); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("past hour: expected validation, got %v", err)
	}
}

func TestCreate_RequiresAvailability(t *testing.T) {
	f := newReservationFixture(t, testNow)

	_, err := f.reservations.Create(context.Background(), "student-1", "tutor-1", civilDate(2025, time.March, 10), "10:00")
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreate_SecondStudentConflicts(t *testing.T) {
	f := newReservationFixture(t, testNow)
	ctx := context.Background()
	day := civilDate(2025, time.March, 10)
	f.publish(t, "tutor-1", day, "10:00", "11:00")

	if _, err := f.reservations.Create(ctx, "student-1", "tutor-1", day, "10:00"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.reservations.Create(ctx, "student-2", "tutor-1", day, "10:00"); apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreate_StudentCannotDoubleBookHour(t *testing.T) {
	f := newReservationFixture(t, testNow)
	ctx := context.Background()
	day := civilDate(2025, time.March, 10)
	f.publish(t, "tutor-1", day, "10:00", "11:00")
	f.publish(t, "tutor-2", day, "10:00", "11:00")

	if _, err := f.reservations.Create(ctx, "student-1", "tutor-1", day, "10:00"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.reservations.Create(ctx, "student-1", "tutor-2", day, "10:00"); apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreate_ConcurrentRequests_ExactlyOneWins(t *testing.T) {
	f := newReservationFixture(t, testNow)
	day := civilDate(2025, time.March, 10)
	f.publish(t, "tutor-1", day, "10:00", "11:00")

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			student := "student-" + string(rune('a'+i))
			_, errs[i] = f.reservations.Create(context.Background(), student, "tutor-1", day, "10:00")
		}(i)
	}
	wg.Wait()

	wins, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case apperr.IsConflict(err):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
	if conflicts != n-1 {
		t.Fatalf("expected %d conflicts, got %d", n-1, conflicts)
	}
}

func createReservation(t *testing.T, f *reservationFixture, studentID, tutorID string, date time.Time, hour string) *model.Reservation {
	t.Helper()
	h, err := timeutil.ParseHour(hour)
	if err != nil {
		t.Fatalf("bad hour %q: %v", hour, err)
	}
	f.publish(t, tutorID, date, hour, timeutil.FormatHour(h+1))
	r, err := f.reservations.Create(context.Background(), studentID, tutorID, date, hour)
	if err != nil {
		t.Fatalf("create reservation: %v", err)
	}
	return r
}

func TestChangeStatus_TutorAccepts(t *testing.T) {
	f := newReservationFixture(t, testNow)
	r := createReservation(t, f, "student-1", "tutor-1", civilDate(2025, time.March, 10), "10:00")

	updated, err := f.reservations.ChangeStatus(context.Background(), "tutor-1", r.ID, model.StatusAceptado)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != model.StatusAceptado {
		t.Fatalf("expected ACEPTADO, got %s", updated.Status)
	}
	if updated.Version != r.Version+1 {
		t.Fatalf("expected version bump, got %d", updated.Version)
	}
}

func TestChangeStatus_StudentCannotAccept(t *testing.T) {
	f := newReservationFixture(t, testNow)
	r := createReservation(t, f, "student-1", "tutor-1", civilDate(2025, time.March, 10), "10:00")

	_, err := f.reservations.ChangeStatus(context.Background(), "student-1", r.ID, model.StatusAceptado)
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestChangeStatus_StrangerForbidden(t *testing.T) {
	f := newReservationFixture(t, testNow)
	r := createReservation(t, f, "student-1", "tutor-1", civilDate(2025, time.March, 10), "10:00")

	_, err := f.reservations.ChangeStatus(context.Background(), "someone-else", r.ID, model.StatusCancelado)
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestChangeStatus_CancelWindow(t *testing.T) {
	day := civilDate(2025, time.March, 10)

	// Exactly 12h before a 10:00 class: allowed.
	f := newReservationFixture(t, clock.At(2025, time.March, 9, 22, 0))
	r := createReservation(t, f, "student-1", "tutor-1", day, "10:00")
	if _, err := f.reservations.ChangeStatus(context.Background(), "student-1", r.ID, model.StatusCancelado); err != nil {
		t.Fatalf("cancel at exactly 12h must succeed: %v", err)
	}

	// 11h59m before: conflict.
	f = newReservationFixture(t, clock.At(2025, time.March, 9, 22, 1))
	r = createReservation(t, f, "student-1", "tutor-1", day, "10:00")
	if _, err := f.reservations.ChangeStatus(context.Background(), "student-1", r.ID, model.StatusCancelado); apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("cancel inside 12h window must conflict")
	}
}

func TestChangeStatus_TutorMayCancelAccepted(t *testing.T) {
	f := newReservationFixture(t, testNow)
	ctx := context.Background()
	r := createReservation(t, f, "student-1", "tutor-1", civilDate(2025, time.March, 10), "10:00")

	if _, err := f.reservations.ChangeStatus(ctx, "tutor-1", r.ID, model.StatusAceptado); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.reservations.ChangeStatus(ctx, "tutor-1", r.ID, model.StatusCancelado); err != nil {
		t.Fatalf("cancel from ACEPTADO must succeed: %v", err)
	}
}

func TestChangeStatus_RejectedTransitions(t *testing.T) {
	f := newReservationFixture(t, testNow)
	ctx := context.Background()
	r := createReservation(t, f, "student-1", "tutor-1", civilDate(2025, time.March, 10), "10:00")

	// No-op transition.
	if _, err := f.reservations.ChangeStatus(ctx, "tutor-1", r.ID, model.StatusPendiente); apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("PENDIENTE->PENDIENTE must conflict")
	}
	// Derived-terminal states cannot be written through this entry point.
	if _, err := f.reservations.ChangeStatus(ctx, "tutor-1", r.ID, model.StatusFinalizada); apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("PENDIENTE->FINALIZADA must conflict")
	}

	if _, err := f.reservations.ChangeStatus(ctx, "student-1", r.ID, model.StatusCancelado); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Terminal state.
	if _, err := f.reservations.ChangeStatus(ctx, "tutor-1", r.ID, model.StatusAceptado); apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("CANCELADO->ACEPTADO must conflict")
	}
}

func TestChangeStatus_NotFound(t *testing.T) {
	f := newReservationFixture(t, testNow)

	_, err := f.reservations.ChangeStatus(context.Background(), "tutor-1", "missing", model.StatusAceptado)
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

// staleStore forces every Update to report a version mismatch.
type staleStore struct {
	repository.ReservationStore
}

func (staleStore) Update(context.Context, *model.Reservation, int64) (bool, error) {
	return false, nil
}

func TestChangeStatus_StaleVersionConflicts(t *testing.T) {
	f := newReservationFixture(t, testNow)
	r := createReservation(t, f, "student-1", "tutor-1", civilDate(2025, time.March, 10), "10:00")

	stale := NewReservationService(staleStore{f.store}, f.slots, testNow, zap.NewNop())
	_, err := stale.ChangeStatus(context.Background(), "tutor-1", r.ID, model.StatusAceptado)
	if !apperr.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestSetAttended(t *testing.T) {
	day := civilDate(2025, time.March, 10)

	f := newReservationFixture(t, testNow)
	ctx := context.Background()
	r := createReservation(t, f, "student-1", "tutor-1", day, "10:00")
	if _, err := f.reservations.ChangeStatus(ctx, "tutor-1", r.ID, model.StatusAceptado); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Class has not started yet.
	if _, err := f.reservations.SetAttended(ctx, "tutor-1", r.ID, true); apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict before class end, got %v", err)
	}

	// Move past the end of the class.
	after := NewReservationService(f.store, f.slots, clock.At(2025, time.March, 10, 11, 1), zap.NewNop())

	if _, err := after.SetAttended(ctx, "student-1", r.ID, true); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("student must not mark attendance")
	}

	updated, err := after.SetAttended(ctx, "tutor-1", r.ID, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Attended == nil || !*updated.Attended {
		t.Fatalf("attended not recorded")
	}
	if updated.Status != model.StatusAceptado {
		t.Fatalf("attendance must not change stored status, got %s", updated.Status)
	}

	// Correction stays possible.
	corrected, err := after.SetAttended(ctx, "tutor-1", r.ID, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if corrected.Attended == nil || *corrected.Attended {
		t.Fatalf("correction not recorded")
	}
}

func TestSetAttended_RequiresAcceptedClass(t *testing.T) {
	f := newReservationFixture(t, testNow)
	r := createReservation(t, f, "student-1", "tutor-1", civilDate(2025, time.March, 10), "10:00")

	after := NewReservationService(f.store, f.slots, clock.At(2025, time.March, 10, 12, 0), zap.NewNop())
	if _, err := after.SetAttended(context.Background(), "tutor-1", r.ID, true); apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict for PENDIENTE class, got %v", err)
	}
}

func TestHasActiveReservationForTutorAt(t *testing.T) {
	f := newReservationFixture(t, testNow)
	ctx := context.Background()
	day := civilDate(2025, time.March, 10)
	r := createReservation(t, f, "student-1", "tutor-1", day, "10:00")

	active, err := f.reservations.HasActiveReservationForTutorAt(ctx, "tutor-1", day, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !active {
		t.Fatalf("PENDIENTE reservation must block the hour")
	}

	if active, _ = f.reservations.HasActiveReservationForTutorAt(ctx, "tutor-1", day, 11); active {
		t.Fatalf("free hour must not be blocked")
	}

	if _, err := f.reservations.ChangeStatus(ctx, "student-1", r.ID, model.StatusCancelado); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if active, _ = f.reservations.HasActiveReservationForTutorAt(ctx, "tutor-1", day, 10); active {
		t.Fatalf("cancelled reservation must not block the hour")
	}
}

func TestListQueries(t *testing.T) {
	f := newReservationFixture(t, testNow)
	ctx := context.Background()
	d1 := civilDate(2025, time.March, 10)
	d2 := civilDate(2025, time.March, 12)

	createReservation(t, f, "student-1", "tutor-1", d2, "10:00")
	createReservation(t, f, "student-1", "tutor-2", d1, "09:00")

	mine, err := f.reservations.ListByStudent(ctx, "student-1", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected 2 reservations, got %d", len(mine))
	}
	if !mine[0].Date.Before(mine[1].Date) {
		t.Fatalf("expected chronological order")
	}

	bounded, err := f.reservations.ListByStudent(ctx, "student-1", &d2, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bounded) != 1 || !bounded[0].Date.Equal(d2) {
		t.Fatalf("bound not applied: %v", bounded)
	}

	forTutor, err := f.reservations.ListByTutor(ctx, "tutor-2", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(forTutor) != 1 {
		t.Fatalf("expected 1 reservation, got %d", len(forTutor))
	}
}
