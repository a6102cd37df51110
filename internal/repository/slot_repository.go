package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/uplearn/tutor-scheduler/internal/model"
	"github.com/uplearn/tutor-scheduler/internal/timeutil"
)

type SlotRepository struct {
	pool *pgxpool.Pool
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{pool: pool}
}

// Insert creates an availability slot. A collision on the
// (tutor_id, date, start_hour) unique index returns created=false.
func (r *SlotRepository) Insert(ctx context.Context, slot *model.AvailabilitySlot) (bool, error) {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}

	query := `
		INSERT INTO availability_slots (id, tutor_id, date, start_hour)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		slot.ID,
		slot.TutorID,
		timeutil.NormalizeDate(slot.Date),
		slot.StartHour,
	).Scan(&slot.CreatedAt, &slot.UpdatedAt)

	if err != nil {
		if isDuplicate(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert slot: %w", err)
	}

	return true, nil
}

// FindByID returns the slot, or nil when it does not exist.
func (r *SlotRepository) FindByID(ctx context.Context, id string) (*model.AvailabilitySlot, error) {
	query := `
		SELECT id, tutor_id, date, start_hour, created_at, updated_at
		FROM availability_slots
		WHERE id = $1
	`

	slot, err := scanSlot(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return slot, nil
}

// FindOne returns the slot for a tutor at an exact hour, or nil.
func (r *SlotRepository) FindOne(ctx context.Context, tutorID string, date time.Time, hour int) (*model.AvailabilitySlot, error) {
	query := `
		SELECT id, tutor_id, date, start_hour, created_at, updated_at
		FROM availability_slots
		WHERE tutor_id = $1 AND date = $2 AND start_hour = $3
	`

	slot, err := scanSlot(r.pool.QueryRow(ctx, query, tutorID, timeutil.NormalizeDate(date), hour))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by tutor and hour: %w", err)
	}

	return slot, nil
}

// FindByTutorAndDate returns all slots of a tutor on one date, ordered by hour.
func (r *SlotRepository) FindByTutorAndDate(ctx context.Context, tutorID string, date time.Time) ([]*model.AvailabilitySlot, error) {
	query := `
		SELECT id, tutor_id, date, start_hour, created_at, updated_at
		FROM availability_slots
		WHERE tutor_id = $1 AND date = $2
		ORDER BY start_hour
	`

	rows, err := r.pool.Query(ctx, query, tutorID, timeutil.NormalizeDate(date))
	if err != nil {
		return nil, fmt.Errorf("get slots by tutor and date: %w", err)
	}
	defer rows.Close()

	return scanSlots(rows)
}

// FindByTutorAndDateRange returns all slots of a tutor with date in [from, to].
func (r *SlotRepository) FindByTutorAndDateRange(ctx context.Context, tutorID string, from, to time.Time) ([]*model.AvailabilitySlot, error) {
	query := `
		SELECT id, tutor_id, date, start_hour, created_at, updated_at
		FROM availability_slots
		WHERE tutor_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date, start_hour
	`

	rows, err := r.pool.Query(ctx, query, tutorID, timeutil.NormalizeDate(from), timeutil.NormalizeDate(to))
	if err != nil {
		return nil, fmt.Errorf("get slots by tutor and range: %w", err)
	}
	defer rows.Close()

	return scanSlots(rows)
}

// Delete removes a slot. Deleting an already-removed slot is a no-op,
// so a concurrent delete never surfaces as a failure.
func (r *SlotRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM availability_slots WHERE id = $1`

	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}

	return nil
}

func scanSlot(row pgx.Row) (*model.AvailabilitySlot, error) {
	var slot model.AvailabilitySlot
	err := row.Scan(
		&slot.ID,
		&slot.TutorID,
		&slot.Date,
		&slot.StartHour,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	slot.Date = timeutil.NormalizeDate(slot.Date)
	return &slot, nil
}

func scanSlots(rows pgx.Rows) ([]*model.AvailabilitySlot, error) {
	var slots []*model.AvailabilitySlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}
	return slots, nil
}
