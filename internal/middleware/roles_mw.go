package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"referral_console/internal/model"
)

// PermissionDeniedHeader marks responses rejected by the role gate so the
// view layer can surface the denial.
const PermissionDeniedHeader = "X-Permission-Denied"

// RoleRequired creates a gate restricting a route to specific user roles.
// Anonymous requests go to the login entry point; authenticated users with
// the wrong role are flagged and sent to the default landing view.
func RoleRequired(sessions SessionReader, allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !sessions.IsAuthenticated() {
			redirectToLogin(c)
			return
		}

		user := sessions.CurrentUser()
		isAllowed := false
		for _, allowedRole := range allowedRoles {
			if user.Role == allowedRole {
				isAllowed = true
				break
			}
		}

		if !isAllowed {
			c.Header(PermissionDeniedHeader, "true")
			if wantsJSON(c) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error": "You do not have permission to access this page",
				})
				return
			}
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}

		c.Set(AuthUserKey, user)
		c.Next()
	}
}

// AdminRequired gates a route to administrators
func AdminRequired(sessions SessionReader) gin.HandlerFunc {
	return RoleRequired(sessions, model.RoleAdmin)
}
