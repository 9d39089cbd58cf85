package httpapi

import (
	"workhub/internal/rbac"

	"github.com/gin-gonic/gin"
)

// Register mounts the /v1 API. authMW must put the caller's identity on the request context.
// issueTokens adds the credential-less token endpoint and must stay off in production.
func (h Handlers) Register(r gin.IRouter, authMW gin.HandlerFunc, issueTokens bool) {
	v1 := r.Group("/v1")

	if issueTokens {
		v1.POST("/auth/token", h.IssueToken)
	}

	api := v1.Group("")
	api.Use(authMW)
	{
		api.GET("/me", h.Me)

		histories := api.Group("/histories")
		{
			histories.GET("/type/:history_type", h.ListHistoriesByType)
			histories.GET("/:target_id", h.ListTargetHistories)
		}

		admin := api.Group("/admin")
		admin.Use(rbac.RequireAnyRole(rbac.RoleAdmin))
		{
			admin.GET("/histories", h.ListHistories)
		}

		posts := api.Group("/posts")
		posts.Use(rbac.RequireCompany(), rbac.RequireAnyRole(rbac.RoleClient, rbac.RoleDeveloper))
		{
			posts.POST("", h.CreatePost)
			posts.GET("/:post_id", h.GetPost)
			posts.PATCH("/:post_id", h.UpdatePost)
			posts.DELETE("/:post_id", h.DeletePost)

			posts.GET("/:post_id/comments", h.ListComments)
			posts.POST("/:post_id/comments", h.CreateComment)
			posts.PATCH("/:post_id/comments/:comment_id", h.UpdateComment)
			posts.DELETE("/:post_id/comments/:comment_id", h.DeleteComment)
		}
	}
}
