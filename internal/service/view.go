package service

import (
	"context"
	"time"

	"github.com/uplearn/tutor-scheduler/internal/clock"
	"github.com/uplearn/tutor-scheduler/internal/model"
	"github.com/uplearn/tutor-scheduler/internal/timeutil"
)

// DisplayStatusAt derives the status shown to humans from the stored status,
// the current time and attendance. Pure: it never mutates the reservation.
//
//	PENDIENTE, CANCELADO          -> unchanged
//	ACEPTADO, before start        -> ACEPTADO
//	ACEPTADO, start <= now < end  -> ACTIVA
//	ACEPTADO, now past end        -> FINALIZADA if attended, else INCUMPLIDA
//	FINALIZADA, INCUMPLIDA        -> unchanged (already corrected by the tutor)
func DisplayStatusAt(r *model.Reservation, now time.Time) model.DisplayStatus {
	switch r.Status {
	case model.StatusPendiente:
		return model.DisplayPendiente
	case model.StatusCancelado:
		return model.DisplayCancelado
	case model.StatusFinalizada:
		return model.DisplayFinalizada
	case model.StatusIncumplida:
		return model.DisplayIncumplida
	case model.StatusAceptado:
		if now.Before(r.Start()) {
			return model.DisplayAceptado
		}
		if now.Before(r.End()) {
			return model.DisplayActiva
		}
		if r.Attended != nil && *r.Attended {
			return model.DisplayFinalizada
		}
		return model.DisplayIncumplida
	default:
		return model.DisplayStatus(r.Status)
	}
}

// ReservationView is the read-side shape of a reservation: display status
// instead of stored status, plus profile enrichment when available.
type ReservationView struct {
	ID            string              `json:"id"`
	TutorID       string              `json:"tutorId"`
	StudentID     string              `json:"studentId"`
	Date          string              `json:"date"`
	Start         string              `json:"start"`
	End           string              `json:"end"`
	Status        model.DisplayStatus `json:"status"`
	Attended      *bool               `json:"attended"`
	StudentName   string              `json:"studentName"`
	StudentAvatar string              `json:"studentAvatar,omitempty"`
	TutorName     string              `json:"tutorName"`
	TutorAvatar   string              `json:"tutorAvatar,omitempty"`
}

// PublicProfile is the subset of user data used to enrich views.
type PublicProfile struct {
	Name      string
	AvatarURL string
}

// ProfileSource resolves a user's public profile. A nil profile (or an error)
// falls back to generic display names.
type ProfileSource interface {
	PublicProfile(ctx context.Context, userID string) (*PublicProfile, error)
}

// ViewAssembler converts stored reservations into ReservationViews, attaching
// the materialized display status and profile data.
type ViewAssembler struct {
	profiles ProfileSource
	clock    clock.Clock
}

// NewViewAssembler builds an assembler. profiles may be nil when no user
// service is configured; views then carry fallback names.
func NewViewAssembler(profiles ProfileSource, clk clock.Clock) *ViewAssembler {
	return &ViewAssembler{profiles: profiles, clock: clk}
}

// ToView materializes one reservation.
func (a *ViewAssembler) ToView(ctx context.Context, r *model.Reservation) ReservationView {
	v := ReservationView{
		ID:          r.ID,
		TutorID:     r.TutorID,
		StudentID:   r.StudentID,
		Date:        timeutil.FormatDate(r.Date),
		Start:       timeutil.FormatHour(r.StartHour),
		End:         timeutil.FormatHour((r.StartHour + 1) % 24),
		Status:      DisplayStatusAt(r, a.clock.Now()),
		Attended:    r.Attended,
		StudentName: "Estudiante",
		TutorName:   "Tutor",
	}

	if a.profiles == nil {
		return v
	}

	if p, err := a.profiles.PublicProfile(ctx, r.StudentID); err == nil && p != nil {
		if p.Name != "" {
			v.StudentName = p.Name
		}
		v.StudentAvatar = p.AvatarURL
	}
	if p, err := a.profiles.PublicProfile(ctx, r.TutorID); err == nil && p != nil {
		if p.Name != "" {
			v.TutorName = p.Name
		}
		v.TutorAvatar = p.AvatarURL
	}

	return v
}

// ToViews materializes a list, preserving order.
func (a *ViewAssembler) ToViews(ctx context.Context, rs []*model.Reservation) []ReservationView {
	views := make([]ReservationView, 0, len(rs))
	for _, r := range rs {
		views = append(views, a.ToView(ctx, r))
	}
	return views
}
