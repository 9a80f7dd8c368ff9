package upload

import "github.com/gin-gonic/gin"

// RegisterPublicRoutes mounts the wizard upload and signed file download.
func RegisterPublicRoutes(r *gin.RouterGroup, h *Handler) {
	r.POST("/functions/upload-lead-photo", h.UploadLeadPhoto)
	r.GET("/files/*path", h.ServeFile)
}

// RegisterAdminRoutes expects a group already guarded by admin auth.
func RegisterAdminRoutes(r *gin.RouterGroup, h *Handler) {
	attachments := r.Group("/leads/:id/attachments")
	{
		attachments.GET("", h.ListAttachments)
		attachments.POST("", h.AddAttachment)
		attachments.DELETE("", h.DeleteAttachment)
	}
}
