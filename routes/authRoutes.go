package routes

import (
	"github.com/gin-gonic/gin"

	"civease-be/middlewares"
)

// AuthRoutes sets up the authentication and user directory routes
func AuthRoutes(api *gin.RouterGroup, deps Dependencies) {
	api.POST("/auth", deps.Auth.LoginUser)
	api.GET("/users", deps.Auth.GetUsers)

	auth := api.Group("/auth")
	{
		auth.POST("/login", deps.Auth.LoginUser)
		auth.POST("/register", deps.Auth.RegisterUser)
		auth.POST("/logout", deps.Auth.LogoutUser)
		auth.GET("/me", middlewares.AuthMiddleware(deps.JWTSecret, deps.Logger), deps.Auth.GetMe)
	}
}

func AnalyticsRoutes(api *gin.RouterGroup, deps Dependencies) {
	api.GET("/analytics", deps.Analytics.GetIssueAnalytics)
}
