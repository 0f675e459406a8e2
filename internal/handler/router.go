package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/vitaldash/vitaldash/internal/middleware"
)

type RouterDeps struct {
	JWTSecret []byte
	Auth      *AuthHandler
	Profile   *ProfileHandler
	Report    *ReportHandler
	Reminder  *ReminderHandler
	Assistant *AssistantHandler
}

func RegisterRoutes(group *gin.RouterGroup, deps RouterDeps) {
	group.POST("/auth/register", deps.Auth.Register)
	group.POST("/auth/login", deps.Auth.Login)

	authed := group.Group("", middleware.JWTAuth(deps.JWTSecret))
	authed.GET("/profile", deps.Profile.Get)
	authed.PUT("/profile", deps.Profile.Upsert)

	authed.POST("/reports", deps.Report.Upload)
	authed.GET("/reports", deps.Report.List)
	authed.GET("/reports/parameters", deps.Report.ParameterSeries)
	authed.GET("/files/:key", deps.Report.ServeFile)

	authed.POST("/reminders", deps.Reminder.Create)
	authed.GET("/reminders", deps.Reminder.List)
	authed.PUT("/reminders/:id/toggle", deps.Reminder.Toggle)
	authed.DELETE("/reminders/:id", deps.Reminder.Delete)

	authed.POST("/assistant/rebuild", deps.Assistant.Rebuild)
	authed.POST("/assistant/notes", deps.Assistant.AddNotes)
	authed.POST("/assistant/ask", deps.Assistant.Ask)
	authed.GET("/assistant/diet", deps.Assistant.Diet)
	authed.GET("/assistant/guidance", deps.Assistant.Guidance)
}
