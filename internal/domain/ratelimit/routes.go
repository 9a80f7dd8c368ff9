package ratelimit

import "github.com/gin-gonic/gin"

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	r.POST("/functions/check-rate-limit", handler.Check)
}
