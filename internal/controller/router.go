package controller

import (
	"github.com/gin-gonic/gin"

	"github.com/uplearn/tutor-scheduler/internal/auth"
)

// NewRouter assembles the HTTP API. Every route runs behind the identity
// middleware; role checks mirror the actions: tutors manage availability and
// attendance, students create reservations, both query.
func NewRouter(authClient *auth.Client, availability *AvailabilityController, reservations *ReservationController, schedule *ScheduleController) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api", auth.Middleware(authClient))

	av := api.Group("/availability")
	av.GET("/my", auth.RequireRole(auth.RoleTutor), availability.My)
	av.GET("/my/day", auth.RequireRole(auth.RoleTutor), availability.MyDay)
	av.POST("/bulk", auth.RequireRole(auth.RoleTutor), availability.Bulk)
	av.PUT("/day", auth.RequireRole(auth.RoleTutor), availability.ReplaceDay)
	av.POST("/day/add", auth.RequireRole(auth.RoleTutor), availability.AddHours)
	av.DELETE("/:slotId", auth.RequireRole(auth.RoleTutor), availability.Delete)

	res := api.Group("/reservations")
	res.POST("", auth.RequireRole(auth.RoleStudent), reservations.Create)
	res.GET("/my", reservations.My)
	res.GET("/for-me", auth.RequireRole(auth.RoleTutor), reservations.ForMe)
	res.GET("/:id", reservations.Get)
	res.PATCH("/:id/status", reservations.ChangeStatus)
	res.PATCH("/:id/attended", auth.RequireRole(auth.RoleTutor), reservations.SetAttended)

	sch := api.Group("/schedule")
	sch.GET("/week", schedule.Week)
	sch.GET("/week.png", schedule.WeekImage)

	return router
}
