package notification

import "github.com/gin-gonic/gin"

func RegisterPublicRoutes(r *gin.RouterGroup, h *Handler) {
	r.POST("/functions/send-lead-notification", h.SendLeadNotification)
}

// RegisterAdminRoutes expects a group already guarded by admin auth.
func RegisterAdminRoutes(r *gin.RouterGroup, h *Handler) {
	r.GET("/leads/:id/notifications", h.ListDeliveries)
}
