package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/uplearn/tutor-scheduler/internal/model"
	"github.com/uplearn/tutor-scheduler/internal/timeutil"
)

type ReservationRepository struct {
	pool *pgxpool.Pool
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

// Insert creates a reservation at version 1. A collision on either compound
// unique index (student+hour or tutor+hour) returns created=false; this is
// the authoritative guard against double booking under concurrent requests.
func (r *ReservationRepository) Insert(ctx context.Context, res *model.Reservation) (bool, error) {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	res.Version = 1

	query := `
		INSERT INTO reservations (id, tutor_id, student_id, date, start_hour, status, attended, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		res.ID,
		res.TutorID,
		res.StudentID,
		timeutil.NormalizeDate(res.Date),
		res.StartHour,
		res.Status,
		res.Attended,
		res.Version,
	).Scan(&res.CreatedAt, &res.UpdatedAt)

	if err != nil {
		if isDuplicate(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert reservation: %w", err)
	}

	return true, nil
}

// FindByID returns the reservation, or nil when it does not exist.
func (r *ReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	query := reservationSelect + ` WHERE id = $1`

	res, err := scanReservation(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reservation by id: %w", err)
	}

	return res, nil
}

// FindOneByTutorAt returns the reservation on a tutor's hour, or nil.
// The tutor-side unique index guarantees at most one row matches.
func (r *ReservationRepository) FindOneByTutorAt(ctx context.Context, tutorID string, date time.Time, hour int) (*model.Reservation, error) {
	query := reservationSelect + ` WHERE tutor_id = $1 AND date = $2 AND start_hour = $3`

	res, err := scanReservation(r.pool.QueryRow(ctx, query, tutorID, timeutil.NormalizeDate(date), hour))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reservation by tutor and hour: %w", err)
	}

	return res, nil
}

// ExistsByStudentAndHour reports whether the student already holds the hour.
func (r *ReservationRepository) ExistsByStudentAndHour(ctx context.Context, studentID string, date time.Time, hour int) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM reservations
			WHERE student_id = $1 AND date = $2 AND start_hour = $3
		)
	`

	var exists bool
	err := r.pool.QueryRow(ctx, query, studentID, timeutil.NormalizeDate(date), hour).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check reservation by student: %w", err)
	}

	return exists, nil
}

// ExistsByTutorAndHour reports whether the tutor's hour is already reserved.
func (r *ReservationRepository) ExistsByTutorAndHour(ctx context.Context, tutorID string, date time.Time, hour int) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM reservations
			WHERE tutor_id = $1 AND date = $2 AND start_hour = $3
		)
	`

	var exists bool
	err := r.pool.QueryRow(ctx, query, tutorID, timeutil.NormalizeDate(date), hour).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check reservation by tutor: %w", err)
	}

	return exists, nil
}

// FindByStudent returns the student's reservations, optionally date-bounded,
// in chronological order.
func (r *ReservationRepository) FindByStudent(ctx context.Context, studentID string, from, to *time.Time) ([]*model.Reservation, error) {
	return r.findByParty(ctx, "student_id", studentID, from, to)
}

// FindByTutor returns the tutor's reservations, optionally date-bounded,
// in chronological order.
func (r *ReservationRepository) FindByTutor(ctx context.Context, tutorID string, from, to *time.Time) ([]*model.Reservation, error) {
	return r.findByParty(ctx, "tutor_id", tutorID, from, to)
}

func (r *ReservationRepository) findByParty(ctx context.Context, column, id string, from, to *time.Time) ([]*model.Reservation, error) {
	query := reservationSelect + ` WHERE ` + column + ` = $1`
	args := []any{id}

	if from != nil {
		args = append(args, timeutil.NormalizeDate(*from))
		query += ` AND date >= $` + strconv.Itoa(len(args))
	}
	if to != nil {
		args = append(args, timeutil.NormalizeDate(*to))
		query += ` AND date <= $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY date, start_hour`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get reservations by %s: %w", column, err)
	}
	defer rows.Close()

	var out []*model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations: %w", err)
	}

	return out, nil
}

// Update persists status and attendance only when the stored version still
// equals expectedVersion. A stale or missing row returns updated=false; on
// success the version on res is bumped to match the database.
func (r *ReservationRepository) Update(ctx context.Context, res *model.Reservation, expectedVersion int64) (bool, error) {
	query := `
		UPDATE reservations
		SET status = $1, attended = $2, version = version + 1, updated_at = now()
		WHERE id = $3 AND version = $4
		RETURNING version, updated_at
	`

	err := r.pool.QueryRow(ctx, query, res.Status, res.Attended, res.ID, expectedVersion).
		Scan(&res.Version, &res.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("update reservation: %w", err)
	}

	return true, nil
}

const reservationSelect = `
	SELECT id, tutor_id, student_id, date, start_hour, status, attended, version, created_at, updated_at
	FROM reservations`

func scanReservation(row pgx.Row) (*model.Reservation, error) {
	var res model.Reservation
	err := row.Scan(
		&res.ID,
		&res.TutorID,
		&res.StudentID,
		&res.Date,
		&res.StartHour,
		&res.Status,
		&res.Attended,
		&res.Version,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	res.Date = timeutil.NormalizeDate(res.Date)
	return &res, nil
}
