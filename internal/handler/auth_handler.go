package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"referral_console/internal/gateway"
	"referral_console/internal/middleware"
	"referral_console/internal/model"
	"referral_console/internal/store"
)

// AuthHandler exposes the session store over HTTP
type AuthHandler struct {
	sessions *store.SessionStore
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(sessions *store.SessionStore) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please fill all required fields"})
		return
	}

	if err := h.sessions.Login(c.Request.Context(), req.Email, req.Password); err != nil {
		if errors.Is(err, store.ErrMissingCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		// a rejected credential stays 401; a dead gateway is 502
		c.JSON(gatewayStatus(err), gin.H{"error": h.sessions.Snapshot().Err})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    h.sessions.CurrentUser(),
		"next":    safeReturnTarget(c.Query("next")),
	})
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := h.sessions.Register(c.Request.Context(), req); err != nil {
		if errors.Is(err, store.ErrMissingCredentials) || errors.Is(err, store.ErrPasswordMismatch) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(gatewayStatus(err), gin.H{"error": h.sessions.Snapshot().Err})
		return
	}

	// Registration never authenticates; the caller logs in separately.
	c.JSON(http.StatusCreated, gin.H{"message": "Registration successful. Please log in."})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	h.sessions.Logout()
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Session reports the current session state for the view layer
func (h *AuthHandler) Session(c *gin.Context) {
	snap := h.sessions.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"isAuthenticated": snap.IsAuthenticated,
		"user":            snap.User,
		"loading":         snap.Loading,
		"error":           snap.Err,
	})
}

func (h *AuthHandler) Profile(c *gin.Context) {
	user := c.MustGet(middleware.AuthUserKey).(*model.User)
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req model.ProfileUpdateRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := h.sessions.UpdateProfile(c.Request.Context(), req); err != nil {
		if errors.Is(err, store.ErrNotAuthenticated) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(gatewayStatus(err), gin.H{"error": h.sessions.Snapshot().Err})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated",
		"user":    h.sessions.CurrentUser(),
	})
}

// RegisterAuthRoutes registers session routes. Profile routes sit behind
// the authentication gate.
func (h *AuthHandler) RegisterAuthRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/login", h.Login)
		authGroup.POST("/register", h.Register)
		authGroup.POST("/logout", h.Logout)
		authGroup.GET("/session", h.Session)
	}

	profileGroup := rg.Group("/profile", authMW)
	{
		profileGroup.GET("", h.Profile)
		profileGroup.PUT("", h.UpdateProfile)
	}
}

// safeReturnTarget keeps post-login return navigation on this host
func safeReturnTarget(next string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") {
		return next
	}
	return "/"
}

// gatewayStatus maps a gateway failure onto the response status: the
// upstream status when the gateway answered, 502 when it was unreachable.
func gatewayStatus(err error) int {
	var gerr *gateway.GatewayError
	if errors.As(err, &gerr) && gerr.StatusCode != 0 {
		return gerr.StatusCode
	}
	return http.StatusBadGateway
}
