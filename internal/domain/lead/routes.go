package lead

import "github.com/gin-gonic/gin"

func RegisterPublicRoutes(r *gin.RouterGroup, handler *Handler) {
	r.POST("/leads", handler.Create)
}

// RegisterAdminRoutes expects r to be protected by the admin middleware.
func RegisterAdminRoutes(r *gin.RouterGroup, handler *Handler) {
	leads := r.Group("/leads")
	{
		leads.GET("", handler.List)
		leads.GET("/stats", handler.Stats)
		leads.GET("/export", handler.Export)
		leads.GET("/:id", handler.Get)
		leads.PATCH("/:id/status", handler.UpdateStatus)
		leads.PATCH("/:id/notes", handler.UpdateNotes)
		leads.DELETE("/:id", handler.Delete)
	}
}
