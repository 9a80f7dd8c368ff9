package admin

import "github.com/gin-gonic/gin"

// RegisterAuthRoutes mounts login publicly and /me behind auth.
func RegisterAuthRoutes(admin *gin.RouterGroup, h *AuthHandler, auth gin.HandlerFunc) {
	a := admin.Group("/auth")
	{
		a.POST("/login", h.Login)
		a.GET("/me", auth, h.GetMe)
	}
}

// RegisterFeedRoutes expects a group already guarded by AdminJWTAuth.
func RegisterFeedRoutes(protected *gin.RouterGroup, h *FeedHandler) {
	protected.GET("/leads/feed", h.Feed)
}
