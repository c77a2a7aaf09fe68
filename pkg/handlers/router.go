package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/arnavshah/shift-optimizer/pkg/logger"
	"github.com/arnavshah/shift-optimizer/pkg/middleware/requestid"
)

// NewRouter registers every route on a fresh gin engine. The server binary
// and the serverless entry point share it.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		requestid.Middleware(),
		logger.GinMiddleware(h.log()),
		h.Metrics.Middleware(),
	)

	// Admin interface - serve static files from embedded FS
	r.StaticFS("/static", h.GetStaticFS())

	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(h.Metrics.Handler()))

	r.GET("/admin", h.AdminInterface)
	r.POST("/admin/login", h.Login)

	// Admin Endpoints
	admin := r.Group("/admin")
	admin.Use(h.AuthMiddleware())
	{
		admin.POST("/keys", h.GenerateKey)
		admin.GET("/keys", h.ListKeys)
		admin.PUT("/keys/:id", h.UpdateKeyLimit)
		admin.DELETE("/keys/:id", h.RevokeKey)
		admin.GET("/usage/:id", h.GetUsage)
	}

	// Scheduler Endpoints
	api := r.Group("/api")
	api.Use(h.APIKeyMiddleware())
	{
		api.POST("/schedule", h.ScheduleJSON)
		api.POST("/schedule/csv", h.ScheduleCSV)
		api.POST("/schedule/pdf", h.SchedulePDF)
		api.POST("/validate", h.ValidateInput)
		api.GET("/usage", h.GetMyUsage)
		api.GET("/generate_example_data", h.GenerateExampleData)
		api.GET("/find_feasible_config", h.FindFeasibleConfig)

		api.GET("/employees", h.ListEmployees)
		api.POST("/employees", h.CreateEmployee)
		api.PUT("/employees/:id", h.UpdateEmployee)
		api.DELETE("/employees/:id", h.DeleteEmployee)
		api.GET("/my_profile", h.MyProfile)

		api.GET("/schedules", h.ListSchedules)
		api.POST("/schedules", h.SaveSchedule)
		api.GET("/schedules/:id", h.GetSchedule)
		api.DELETE("/schedules/:id", h.DeleteSchedule)
	}

	// Parity Routes
	r.POST("/solve_schedule", h.APIKeyMiddleware(), h.ScheduleJSON)

	return r
}
