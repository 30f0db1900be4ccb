package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/blindgrade/blindgrade/internal/app/controllers"
	"github.com/blindgrade/blindgrade/internal/app/models"
	"github.com/blindgrade/blindgrade/internal/app/models/dto"
	"github.com/blindgrade/blindgrade/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	subjectController *controllers.SubjectController,
	evaluationController *controllers.EvaluationController,
	matchingController *controllers.MatchingController,
	authMiddleware *middleware.AuthMiddleware,
) {
	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.POST("/refresh", authController.RefreshToken)
		auth.POST("/seed-custodian", authController.SeedCustodian)
	}

	// Authenticated routes
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authenticated.POST("/auth/logout", authController.Logout)
		authenticated.GET("/auth/me", authController.GetMe)

		// Subject administration. Fine-grained custodian checks live in the
		// services; the route group only requires a valid login.
		subjects := authenticated.Group("/subjects")
		{
			subjects.POST("", subjectController.CreateSubject)
			subjects.GET("", subjectController.GetSubjects)
			subjects.GET("/:id", subjectController.GetSubject)
			subjects.DELETE("/:id", subjectController.DeleteSubject)
			subjects.PUT("/:id/evaluators", subjectController.AssignEvaluator)
			subjects.GET("/:id/students", subjectController.GetStudents)
			subjects.GET("/:id/results", subjectController.GetResults)
			subjects.POST("/:id/scripts", subjectController.RegisterScript)
			subjects.GET("/:id/scripts", evaluationController.GetSubjectScripts)
		}

		// Faculty listing for evaluator assignment, custodian only
		users := authenticated.Group("/users")
		users.Use(authMiddleware.RoleRequired(string(models.RoleCustodian)))
		{
			users.GET("/faculty", authController.GetFaculty)
		}

		// Evaluator workspace
		authenticated.GET("/evaluation/subjects", subjectController.GetAssignedSubjects)
		authenticated.GET("/evaluation/results", evaluationController.GetEvaluatedResults)

		// Slot-specific mark submission
		authenticated.PUT("/teacher/scripts/:id/marks", evaluationController.SubmitFirstMarks)
		authenticated.PUT("/external/scripts/:id/marks", evaluationController.SubmitSecondMarks)

		// Script views and per-question marking
		scripts := authenticated.Group("/scripts")
		{
			scripts.GET("/:id", evaluationController.GetScript)
			scripts.POST("/:id/marks", evaluationController.SaveMark)
			scripts.GET("/:id/marks", evaluationController.GetMarks)
			scripts.GET("/:id/marks/totals", evaluationController.GetTotals)
			scripts.POST("/:id/report", evaluationController.SaveReport)
		}

		// Question paper to rubric alignment
		authenticated.GET("/question-papers/:id/match", matchingController.GetMatch)
	}

	// Health check endpoint (public)
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(200, dto.APIResponse{
			Data: gin.H{"status": "ok"},
		})
	})
}
