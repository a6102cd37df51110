package controller

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/uplearn/tutor-scheduler/internal/apperr"
	"github.com/uplearn/tutor-scheduler/internal/auth"
	"github.com/uplearn/tutor-scheduler/internal/service"
	"github.com/uplearn/tutor-scheduler/internal/timeutil"
)

// AvailabilityController exposes the tutor availability API. Slot-removal
// protection is composed here: the controller asks the reservation engine
// which hours are blocked and passes that into the availability engine.
type AvailabilityController struct {
	availability *service.AvailabilityService
	reservations *service.ReservationService
	logger       *zap.Logger
}

func NewAvailabilityController(availability *service.AvailabilityService, reservations *service.ReservationService, logger *zap.Logger) *AvailabilityController {
	return &AvailabilityController{
		availability: availability,
		reservations: reservations,
		logger:       logger,
	}
}

type bulkAvailabilityRequest struct {
	FromDate   string   `json:"fromDate" binding:"required"`
	ToDate     string   `json:"toDate" binding:"required"`
	FromHour   string   `json:"fromHour" binding:"required"`
	ToHour     string   `json:"toHour" binding:"required"`
	DaysOfWeek []string `json:"daysOfWeek"`
}

var weekdayNames = map[string]time.Weekday{
	"SUNDAY":    time.Sunday,
	"MONDAY":    time.Monday,
	"TUESDAY":   time.Tuesday,
	"WEDNESDAY": time.Wednesday,
	"THURSDAY":  time.Thursday,
	"FRIDAY":    time.Friday,
	"SATURDAY":  time.Saturday,
}

func (ac *AvailabilityController) Bulk(c *gin.Context) {
	var req bulkAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, ac.logger, apperr.Validation("invalid request body"))
		return
	}

	fromDate, err := timeutil.ParseDate(req.FromDate)
	if err != nil {
		writeError(c, ac.logger, apperr.Validation("invalid fromDate"))
		return
	}
	toDate, err := timeutil.ParseDate(req.ToDate)
	if err != nil {
		writeError(c, ac.logger, apperr.Validation("invalid toDate"))
		return
	}

	var days []time.Weekday
	for _, name := range req.DaysOfWeek {
		d, ok := weekdayNames[strings.ToUpper(name)]
		if !ok {
			writeError(c, ac.logger, apperr.Validation("unknown day of week "+name))
			return
		}
		days = append(days, d)
	}

	created, err := ac.availability.BulkCreate(c.Request.Context(), auth.Subject(c), fromDate, toDate, req.FromHour, req.ToHour, days)
	if err != nil {
		writeError(c, ac.logger, err)
		return
	}

	c.JSON(http.StatusOK, created)
}

func (ac *AvailabilityController) My(c *gin.Context) {
	from, err := timeutil.ParseDate(c.Query("from"))
	if err != nil {
		writeError(c, ac.logger, apperr.Validation("invalid from date"))
		return
	}
	to, err := timeutil.ParseDate(c.Query("to"))
	if err != nil {
		writeError(c, ac.logger, apperr.Validation("invalid to date"))
		return
	}

	slots, err := ac.availability.ListOwn(c.Request.Context(), auth.Subject(c), from, to)
	if err != nil {
		writeError(c, ac.logger, err)
		return
	}

	c.JSON(http.StatusOK, slots)
}

func (ac *AvailabilityController) MyDay(c *gin.Context) {
	date, err := timeutil.ParseDate(c.Query("date"))
	if err != nil {
		writeError(c, ac.logger, apperr.Validation("invalid date"))
		return
	}

	slots, err := ac.availability.ListForDay(c.Request.Context(), auth.Subject(c), date)
	if err != nil {
		writeError(c, ac.logger, err)
		return
	}

	c.JSON(http.StatusOK, slots)
}

func (ac *AvailabilityController) Delete(c *gin.Context) {
	tutorID := auth.Subject(c)
	slotID := c.Param("slotId")

	slot, err := ac.availability.FindSlot(c.Request.Context(), slotID)
	if err != nil {
		writeError(c, ac.logger, err)
		return
	}

	blocked, err := ac.reservations.HasActiveReservationForTutorAt(c.Request.Context(), slot.TutorID, slot.Date, slot.StartHour)
	if err != nil {
		writeError(c, ac.logger, err)
		return
	}

	if err := ac.availability.DeleteOwn(c.Request.Context(), tutorID, slotID, blocked); err != nil {
		writeError(c, ac.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type dayAvailabilityRequest struct {
	Date  string   `json:"date" binding:"required"`
	Hours []string `json:"hours"`
}

func (ac *AvailabilityController) ReplaceDay(c *gin.Context) {
	var req dayAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, ac.logger, apperr.Validation("invalid request body"))
		return
	}

	date, err := timeutil.ParseDate(req.Date)
	if err != nil {
		writeError(c, ac.logger, apperr.Validation("invalid date"))
		return
	}

	tutorID := auth.Subject(c)

	protected, err := ac.reservations.ActiveHoursForTutorOn(c.Request.Context(), tutorID, date)
	if err != nil {
		writeError(c, ac.logger, err)
		return
	}

	if err := ac.availability.ReplaceDay(c.Request.Context(), tutorID, date, req.Hours, protected); err != nil {
		writeError(c, ac.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (ac *AvailabilityController) AddHours(c *gin.Context) {
	var req dayAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, ac.logger, apperr.Validation("invalid request body"))
		return
	}

	date, err := timeutil.ParseDate(req.Date)
	if err != nil {
		writeError(c, ac.logger, apperr.Validation("invalid date"))
		return
	}

	added, err := ac.availability.AddHours(c.Request.Context(), auth.Subject(c), date, req.Hours)
	if err != nil {
		writeError(c, ac.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"added": added})
}
