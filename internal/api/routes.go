package api

import (
	"net/http"

	"fitadmin/membership-app/internal/domain"
	"fitadmin/membership-app/internal/service"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires every endpoint onto the router. Route groups mirror the
// two audiences: /admin for staff, /users/me for member self-service.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	userService service.UserService,
	planService service.PlanService,
	paymentService service.PaymentService,
	programService service.ProgramService,
	metricService service.MetricService,
	activityService service.ActivityService,
) {
	authHandler := NewAuthHandler(authService)
	adminHandler := NewAdminHandler(userService, planService, paymentService, programService, metricService, activityService)
	memberHandler := NewMemberHandler(userService, planService, paymentService, programService, metricService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")

	authGroup := apiV1.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		// Logout only clears the cookie, so it needs no valid token.
		authGroup.POST("/logout", authHandler.Logout)
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		// --- Member self-service ---
		me := protected.Group("/users/me")
		{
			me.GET("", memberHandler.GetProfile)
			me.PUT("", memberHandler.UpdateProfile)
			me.POST("/avatar/upload-url", memberHandler.RequestAvatarUpload)

			me.GET("/plans", memberHandler.ListMyPlans)
			me.POST("/plans", memberHandler.CreateMyPlan)
			me.GET("/plans/:id", memberHandler.GetMyPlan)
			me.PUT("/plans/:id", memberHandler.UpdateMyPlan)
			me.DELETE("/plans/:id", memberHandler.DeleteMyPlan)

			me.GET("/metrics", memberHandler.ListMyMetrics)
			me.POST("/metrics", memberHandler.CreateMyMetric)
			me.PUT("/metrics/:id", memberHandler.UpdateMyMetric)
			me.DELETE("/metrics/:id", memberHandler.DeleteMyMetric)
			me.GET("/metrics/series", memberHandler.GetMetricSeries)

			me.GET("/payments", memberHandler.ListMyPayments)
		}

		// Program catalog is readable by any authenticated user.
		protected.GET("/programs", memberHandler.ListActivePrograms)

		// --- Administration ---
		admin := protected.Group("/admin")
		admin.Use(RoleMiddleware(domain.RoleAdmin))
		{
			admin.GET("/users", adminHandler.ListUsers)
			admin.POST("/users", adminHandler.CreateUser)
			admin.GET("/users/:id", adminHandler.GetUser)
			admin.PUT("/users/:id", adminHandler.UpdateUser)
			admin.DELETE("/users/:id", adminHandler.DeleteUser)
			admin.POST("/users/:id/avatar/upload-url", adminHandler.RequestUserImageUpload)

			admin.GET("/plans", adminHandler.ListPlans)
			admin.POST("/plans", adminHandler.CreatePlan)
			admin.PUT("/plans/:id", adminHandler.UpdatePlan)
			admin.DELETE("/plans/:id", adminHandler.DeletePlan)

			admin.GET("/payments", adminHandler.ListPayments)
			admin.POST("/payments", adminHandler.CreatePayment)
			admin.PUT("/payments/:id", adminHandler.UpdatePayment)
			admin.DELETE("/payments/:id", adminHandler.DeletePayment)

			admin.GET("/programs", adminHandler.ListPrograms)
			admin.POST("/programs", adminHandler.CreateProgram)
			admin.PUT("/programs/:id", adminHandler.UpdateProgram)
			admin.DELETE("/programs/:id", adminHandler.DeleteProgram)
			admin.POST("/programs/:id/image/upload-url", adminHandler.RequestProgramImageUpload)

			admin.GET("/metrics", adminHandler.ListMetrics)
			admin.POST("/metrics", adminHandler.CreateMetric)
			admin.DELETE("/metrics/:id", adminHandler.DeleteMetric)

			admin.GET("/activity", adminHandler.ListActivity)
		}
	}
}
