package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/uplearn/tutor-scheduler/internal/apperr"
	"github.com/uplearn/tutor-scheduler/internal/model"
	"github.com/uplearn/tutor-scheduler/internal/render"
	"github.com/uplearn/tutor-scheduler/internal/service"
	"github.com/uplearn/tutor-scheduler/internal/timeutil"
)

type ScheduleController struct {
	schedule *service.ScheduleService
	logger   *zap.Logger
}

func NewScheduleController(schedule *service.ScheduleService, logger *zap.Logger) *ScheduleController {
	return &ScheduleController{schedule: schedule, logger: logger}
}

func (sc *ScheduleController) Week(c *gin.Context) {
	grid, err := sc.weekGrid(c)
	if err != nil {
		writeError(c, sc.logger, err)
		return
	}

	c.JSON(http.StatusOK, grid)
}

// WeekImage renders the same grid as a PNG.
func (sc *ScheduleController) WeekImage(c *gin.Context) {
	grid, err := sc.weekGrid(c)
	if err != nil {
		writeError(c, sc.logger, err)
		return
	}

	png, err := render.WeekImage(grid)
	if err != nil {
		writeError(c, sc.logger, err)
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

func (sc *ScheduleController) weekGrid(c *gin.Context) ([]model.ScheduleCell, error) {
	tutorID := c.Query("tutorId")
	weekStart, err := timeutil.ParseDate(c.Query("weekStart"))
	if err != nil {
		return nil, apperr.Validation("invalid weekStart")
	}

	return sc.schedule.WeekGrid(c.Request.Context(), tutorID, weekStart)
}
