package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"referral_console/internal/model"
)

const (
	AuthUserKey = "authUser"
)

// SessionReader is the read-only view of the session store the gates use.
// Gates decide navigation only; they never mutate session or candidate
// state.
type SessionReader interface {
	IsAuthenticated() bool
	CurrentUser() *model.User
}

// AuthRequired blocks anonymous requests. Browser requests are redirected
// to the login entry point with the originally requested location
// preserved for post-login return navigation; API requests get a 401
// carrying the same target.
func AuthRequired(sessions SessionReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !sessions.IsAuthenticated() {
			redirectToLogin(c)
			return
		}
		c.Set(AuthUserKey, sessions.CurrentUser())
		c.Next()
	}
}

func redirectToLogin(c *gin.Context) {
	target := "/login?next=" + url.QueryEscape(c.Request.URL.RequestURI())
	if wantsJSON(c) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "authentication required",
			"next":  target,
		})
		return
	}
	c.Redirect(http.StatusFound, target)
	c.Abort()
}

func wantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}
