package routes

import (
	"github.com/gin-gonic/gin"

	"civease-be/middlewares"
)

// IssueRoutes sets up the issue routes
func IssueRoutes(api *gin.RouterGroup, deps Dependencies) {
	optionalAuth := middlewares.OptionalAuth(deps.JWTSecret)

	create := []gin.HandlerFunc{optionalAuth}
	if deps.RateLimit.Client != nil {
		create = append(create, middlewares.IssueRateLimiter(deps.RateLimit.Client, deps.RateLimit.Prefix, deps.RateLimit.Limit, deps.Logger))
	}
	create = append(create, deps.Issues.CreateIssue)

	issues := api.Group("/issues")
	{
		issues.GET("", deps.Issues.GetAllIssues)
		issues.POST("", create...)
		issues.GET("/:id", deps.Issues.GetIssue)
		issues.PATCH("/:id", deps.Issues.UpdateIssue)
		issues.GET("/:id/votes", optionalAuth, deps.Issues.GetIssueVotes)
		issues.POST("/:id/vote", middlewares.AuthMiddleware(deps.JWTSecret, deps.Logger), deps.Issues.HandleVoteOnIssue)
	}
}
