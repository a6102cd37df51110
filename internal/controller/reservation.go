package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/uplearn/tutor-scheduler/internal/apperr"
	"github.com/uplearn/tutor-scheduler/internal/auth"
	"github.com/uplearn/tutor-scheduler/internal/model"
	"github.com/uplearn/tutor-scheduler/internal/service"
	"github.com/uplearn/tutor-scheduler/internal/timeutil"
)

type ReservationController struct {
	reservations *service.ReservationService
	views        *service.ViewAssembler
	logger       *zap.Logger
}

func NewReservationController(reservations *service.ReservationService, views *service.ViewAssembler, logger *zap.Logger) *ReservationController {
	return &ReservationController{
		reservations: reservations,
		views:        views,
		logger:       logger,
	}
}

type reservationCreateRequest struct {
	TutorID string `json:"tutorId" binding:"required"`
	Date    string `json:"date" binding:"required"`
	Hour    string `json:"hour" binding:"required"`
}

func (rc *ReservationController) Create(c *gin.Context) {
	var req reservationCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, rc.logger, apperr.Validation("invalid request body"))
		return
	}

	date, err := timeutil.ParseDate(req.Date)
	if err != nil {
		writeError(c, rc.logger, apperr.Validation("invalid date"))
		return
	}

	r, err := rc.reservations.Create(c.Request.Context(), auth.Subject(c), req.TutorID, date, req.Hour)
	if err != nil {
		writeError(c, rc.logger, err)
		return
	}

	c.JSON(http.StatusOK, r)
}

// optionalDateRange parses the from/to query parameters, either of which may
// be absent.
func (rc *ReservationController) optionalDateRange(c *gin.Context) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if s := c.Query("from"); s != "" {
		d, err := timeutil.ParseDate(s)
		if err != nil {
			return nil, nil, apperr.Validation("invalid from date")
		}
		from = &d
	}
	if s := c.Query("to"); s != "" {
		d, err := timeutil.ParseDate(s)
		if err != nil {
			return nil, nil, apperr.Validation("invalid to date")
		}
		to = &d
	}
	return from, to, nil
}

// My lists the caller's reservations as a student.
func (rc *ReservationController) My(c *gin.Context) {
	from, to, err := rc.optionalDateRange(c)
	if err != nil {
		writeError(c, rc.logger, err)
		return
	}

	rs, err := rc.reservations.ListByStudent(c.Request.Context(), auth.Subject(c), from, to)
	if err != nil {
		writeError(c, rc.logger, err)
		return
	}

	c.JSON(http.StatusOK, rc.views.ToViews(c.Request.Context(), rs))
}

// ForMe lists the caller's reservations as a tutor.
func (rc *ReservationController) ForMe(c *gin.Context) {
	from, to, err := rc.optionalDateRange(c)
	if err != nil {
		writeError(c, rc.logger, err)
		return
	}

	rs, err := rc.reservations.ListByTutor(c.Request.Context(), auth.Subject(c), from, to)
	if err != nil {
		writeError(c, rc.logger, err)
		return
	}

	c.JSON(http.StatusOK, rc.views.ToViews(c.Request.Context(), rs))
}

func (rc *ReservationController) Get(c *gin.Context) {
	r, err := rc.reservations.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, rc.logger, err)
		return
	}

	actor := auth.Subject(c)
	if actor != r.StudentID && actor != r.TutorID {
		writeError(c, rc.logger, apperr.Forbidden("not a party of this reservation"))
		return
	}

	c.JSON(http.StatusOK, rc.views.ToView(c.Request.Context(), r))
}

type statusChangeRequest struct {
	Status string `json:"status" binding:"required"`
}

func (rc *ReservationController) ChangeStatus(c *gin.Context) {
	var req statusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, rc.logger, apperr.Validation("invalid request body"))
		return
	}

	status, err := model.ParseReservationStatus(req.Status)
	if err != nil {
		writeError(c, rc.logger, apperr.Validation("unknown reservation status"))
		return
	}

	r, err := rc.reservations.ChangeStatus(c.Request.Context(), auth.Subject(c), c.Param("id"), status)
	if err != nil {
		writeError(c, rc.logger, err)
		return
	}

	c.JSON(http.StatusOK, r)
}

type attendedRequest struct {
	Attended *bool `json:"attended" binding:"required"`
}

func (rc *ReservationController) SetAttended(c *gin.Context) {
	var req attendedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, rc.logger, apperr.Validation("invalid request body"))
		return
	}

	r, err := rc.reservations.SetAttended(c.Request.Context(), auth.Subject(c), c.Param("id"), *req.Attended)
	if err != nil {
		writeError(c, rc.logger, err)
		return
	}

	c.JSON(http.StatusOK, r)
}
