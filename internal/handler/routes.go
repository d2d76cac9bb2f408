package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-ops-api/internal/middleware"
	"github.com/noah-isme/edu-ops-api/internal/models"
)

// Handlers groups every HTTP handler mounted under the API prefix.
type Handlers struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Teachers      *TeacherHandler
	Subjects      *SubjectHandler
	Classes       *ClassHandler
	Schedules     *ScheduleHandler
	Roster        *RosterHandler
	Makeups       []*MakeupClassHandler
	Notifications *NotificationHandler
	Sync          *SyncHandler
}

// RouteConfig controls authentication on the API group.
type RouteConfig struct {
	AuthEnabled bool
	Tokens      middleware.TokenValidator
}

// MakeupRoutePrefix maps a make-up kind to its URL prefix.
func MakeupRoutePrefix(kind models.MakeupKind) string {
	return "/" + string(kind) + "-classes"
}

// RegisterRoutes mounts h on api.
func RegisterRoutes(api *gin.RouterGroup, h Handlers, cfg RouteConfig) {
	authRequired := middleware.Passthrough()
	writers := middleware.Passthrough()
	admins := middleware.Passthrough()
	adminsOrSelf := middleware.Passthrough()
	if cfg.AuthEnabled {
		authRequired = middleware.JWT(cfg.Tokens)
		writers = middleware.RequireRoles(models.RoleAdmin, models.RoleStaff)
		admins = middleware.RequireRoles(models.RoleAdmin)
		adminsOrSelf = middleware.RBAC(string(models.RoleAdmin), middleware.Self)
	}

	if h.Auth != nil {
		auth := api.Group("/auth")
		auth.POST("/login", h.Auth.Login)
		if cfg.Tokens != nil {
			self := auth.Group("", middleware.JWT(cfg.Tokens))
			self.GET("/me", h.Auth.Me)
			self.POST("/change-password", h.Auth.ChangePassword)
		}
	}

	if h.Notifications != nil {
		// The socket authenticates itself from the token query parameter.
		api.GET("/notifications/ws", h.Notifications.Stream)
	}

	protected := api.Group("", authRequired)

	if h.Users != nil {
		users := protected.Group("/users")
		users.GET("", admins, h.Users.List)
		users.POST("", admins, h.Users.Create)
		users.GET("/:id", adminsOrSelf, h.Users.Get)
		users.PUT("/:id", admins, h.Users.Update)
		users.DELETE("/:id", admins, h.Users.Delete)
	}

	if h.Teachers != nil {
		teachers := protected.Group("/teachers")
		teachers.GET("", h.Teachers.List)
		teachers.GET("/:id", h.Teachers.Get)
		teachers.GET("/:id/levels", h.Teachers.ListLevels)
		teachers.GET("/:id/commitments", h.Teachers.Commitments)
		teachers.POST("", writers, h.Teachers.Create)
		teachers.PUT("/:id", writers, h.Teachers.Update)
		teachers.DELETE("/:id", writers, h.Teachers.Delete)
		teachers.POST("/:id/levels", writers, h.Teachers.AssignLevel)
		teachers.DELETE("/:id/levels/:levelId", writers, h.Teachers.RemoveLevel)
	}

	if h.Subjects != nil {
		subjects := protected.Group("/subjects")
		subjects.GET("", h.Subjects.List)
		subjects.GET("/:id", h.Subjects.Get)
		subjects.GET("/:id/levels", h.Subjects.ListLevels)
		subjects.POST("", writers, h.Subjects.Create)
		subjects.PUT("/:id", writers, h.Subjects.Update)
		subjects.DELETE("/:id", writers, h.Subjects.Delete)
		subjects.POST("/:id/levels", writers, h.Subjects.CreateLevel)
		subjects.PUT("/:id/levels/:levelId", writers, h.Subjects.UpdateLevel)
		subjects.DELETE("/:id/levels/:levelId", writers, h.Subjects.DeleteLevel)
	}

	if h.Classes != nil {
		classes := protected.Group("/classes")
		classes.GET("", h.Classes.List)
		classes.GET("/:id", h.Classes.Get)
		classes.POST("", writers, h.Classes.Create)
		classes.PUT("/:id", writers, h.Classes.Update)
		classes.DELETE("/:id", writers, h.Classes.Delete)
	}

	if h.Schedules != nil {
		schedules := protected.Group("/schedules")
		schedules.GET("", h.Schedules.List)
		schedules.GET("/:id", h.Schedules.Get)
		schedules.POST("", writers, h.Schedules.Create)
		schedules.PUT("/:id", writers, h.Schedules.Update)
		schedules.DELETE("/:id", writers, h.Schedules.Delete)
	}

	if h.Roster != nil {
		roster := protected.Group("/schedule")
		roster.GET("/shifts", h.Roster.ListShifts)
		roster.POST("/shifts", writers, h.Roster.CreateShift)
		roster.PUT("/shifts/:id", writers, h.Roster.UpdateShift)
		roster.DELETE("/shifts/:id", writers, h.Roster.DeleteShift)

		roster.GET("/work-shifts", h.Roster.ListWorkShifts)
		roster.GET("/work-shifts/availability", h.Roster.Availability)
		roster.POST("/work-shifts", writers, h.Roster.CreateWorkShift)
		roster.POST("/work-shifts/bulk", writers, h.Roster.BulkWorkShifts)
		roster.DELETE("/work-shifts/:id", writers, h.Roster.DeleteWorkShift)

		roster.GET("/free-schedules", h.Roster.ListFreeSchedules)
		roster.POST("/free-schedules", writers, h.Roster.CreateFreeSchedule)
		roster.DELETE("/free-schedules/:id", writers, h.Roster.DeleteFreeSchedule)
	}

	for _, mh := range h.Makeups {
		if mh == nil {
			continue
		}
		group := protected.Group(MakeupRoutePrefix(mh.Kind()))
		group.GET("", mh.List)
		group.GET("/export", mh.Export)
		group.POST("", writers, mh.Create)
		group.POST("/auto-assign", writers, mh.AutoAssign)
		group.GET("/:id", mh.Get)
		group.GET("/:id/candidates", mh.Candidates)
		group.PUT("/:id", writers, mh.Update)
		group.DELETE("/:id", writers, mh.Delete)
		group.POST("/:id/assign", writers, mh.Assign)
		group.POST("/:id/reallocate", writers, mh.Reallocate)
		group.POST("/:id/complete", writers, mh.Complete)
		group.POST("/:id/cancel", writers, mh.Cancel)
	}

	if h.Notifications != nil {
		notifications := protected.Group("/notifications")
		notifications.GET("", h.Notifications.List)
		notifications.PUT("/read-all", h.Notifications.MarkAllRead)
		notifications.PUT("/:id/read", h.Notifications.MarkRead)
		notifications.DELETE("/:id", writers, h.Notifications.Delete)
	}

	if h.Sync != nil {
		sheets := protected.Group("/google-sheets")
		sheets.GET("/status", h.Sync.Status)
		sheets.POST("/sync", writers, h.Sync.Run)
	}
}
