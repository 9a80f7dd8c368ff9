package admin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"topglass/internal/pkg/jwt"
	"topglass/internal/pkg/response"
)

const (
	ContextAdminID = "admin_id"
	ContextRole    = "role"
)

// AdminJWTAuth requires a bearer token carrying an admin role. Browsers
// cannot set headers on websocket upgrades, so a token query parameter is
// accepted on upgrade requests.
func AdminJWTAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			return
		}

		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}
		if !IsAdminRole(claims.Role) {
			response.Abort(c, http.StatusForbidden, "FORBIDDEN", "Admin access required")
			return
		}

		c.Set(ContextAdminID, claims.AdminID)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if t := c.Query("token"); t != "" && isUpgrade(c.Request) {
			return t, true
		}
		response.Abort(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Authorization header is required")
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		response.Abort(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'")
		return "", false
	}
	return parts[1], true
}

func isUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}
