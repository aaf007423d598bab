package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/loganand612/inspection-server/controllers"
	"github.com/loganand612/inspection-server/middleware"
)

func SetupRoutes(r *gin.Engine) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})
	r.GET("/health", controllers.HealthCheck)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", controllers.Register)
			auth.POST("/login", controllers.Login)
			auth.POST("/google", controllers.GoogleLoginHandler)
		}

		protected := api.Group("/")
		protected.Use(middleware.AuthJWT())
		{
			protected.GET("/me", controllers.Me)
			protected.GET("/inspectors", middleware.RequireAdmin(), controllers.GetInspectors)
		}

		templates := api.Group("/templates")
		{
			templates.Use(middleware.AuthJWT())
			templates.POST("", middleware.RateLimitTemplatesCreate(), controllers.CreateTemplate)
			templates.GET("/my", controllers.GetMyTemplates)
			templates.GET("/:id", middleware.CheckTemplateViewer(), controllers.GetTemplate)
			templates.PUT("/:id", middleware.CheckTemplateOwner(), controllers.UpdateTemplate)
			templates.DELETE("/:id", middleware.CheckTemplateOwner(), controllers.DeleteTemplate)
		}

		assignments := api.Group("/assignments")
		assignments.Use(middleware.AuthJWT())
		{
			assignments.POST("", middleware.RequireAdmin(), controllers.CreateAssignment)
			assignments.GET("", controllers.GetAssignments)
			assignments.PUT("/:id/start", middleware.RequireInspector(), controllers.StartAssignment)
			assignments.PUT("/:id/complete", middleware.RequireInspector(), controllers.CompleteAssignment)
			assignments.PUT("/:id/revoke", middleware.RequireAdmin(), controllers.RevokeAssignment)
			assignments.POST("/:id/reassign", middleware.RequireAdmin(), controllers.ReassignTemplate)
		}

		inspections := api.Group("/inspections")
		inspections.Use(middleware.AuthJWT())
		{
			inspections.POST("", controllers.SubmitInspection)
			inspections.GET("", controllers.GetInspections)
			inspections.GET("/:id", controllers.GetInspection)
		}
	}
}
