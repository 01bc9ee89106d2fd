package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"referral_console/internal/gateway"
	"referral_console/internal/model"
	"referral_console/internal/store"
)

// CandidateHandler exposes the candidate store over HTTP
type CandidateHandler struct {
	candidates *store.CandidateStore
}

// NewCandidateHandler creates a new CandidateHandler
func NewCandidateHandler(candidates *store.CandidateStore) *CandidateHandler {
	return &CandidateHandler{candidates: candidates}
}

// List returns the filtered candidate view. The search/category query
// params mutate the store's filter state before the read, mirroring the
// search box driving the dashboard.
func (h *CandidateHandler) List(c *gin.Context) {
	if search, ok := c.GetQuery("search"); ok {
		h.candidates.SetSearchTerm(search)
	}
	if category, ok := c.GetQuery("category"); ok {
		h.candidates.SetSearchCategory(category)
	}

	c.JSON(http.StatusOK, gin.H{
		"candidates":     h.candidates.Filtered(),
		"searchTerm":     h.candidates.SearchTerm(),
		"searchCategory": h.candidates.SearchCategory(),
		"loading":        h.candidates.Loading(),
		"error":          h.candidates.Error(),
		"success":        h.candidates.Success(),
	})
}

// Refresh re-fetches the listing for the current session identity
func (h *CandidateHandler) Refresh(sessions *store.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.candidates.LoadForSession(c.Request.Context(), sessions.CurrentUser())
		c.JSON(http.StatusOK, gin.H{"candidates": h.candidates.Filtered()})
	}
}

// Submit accepts a referral as a multipart form (resume file part
// optional) or plain JSON with a resume URL.
func (h *CandidateHandler) Submit(c *gin.Context) {
	var req model.ReferralRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please fill in all required fields"})
		return
	}

	var resume *gateway.ResumeFile
	if fileHeader, err := c.FormFile("resume"); err == nil {
		src, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read resume file"})
			return
		}
		defer src.Close()
		resume = &gateway.ResumeFile{Filename: fileHeader.Filename, Content: src}
	}

	created, err := h.candidates.Submit(c.Request.Context(), req, resume)
	if err != nil {
		if errors.Is(err, store.ErrMissingReferralFields) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(gatewayStatus(err), gin.H{"error": h.candidates.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Referral submitted successfully!",
		"candidate": created,
	})
}

func (h *CandidateHandler) UpdateStatus(c *gin.Context) {
	var req model.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	err := h.candidates.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		if errors.Is(err, store.ErrCandidateNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(gatewayStatus(err), gin.H{"error": h.candidates.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": h.candidates.Success()})
}

// Update replaces a candidate's full record from the edit form
func (h *CandidateHandler) Update(c *gin.Context) {
	var req model.CandidateUpdateRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please fill all required fields"})
		return
	}

	err := h.candidates.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		if errors.Is(err, store.ErrMissingReferralFields) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, store.ErrCandidateNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(gatewayStatus(err), gin.H{"error": h.candidates.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": h.candidates.Success()})
}

// Delete removes a candidate. The confirm query param is the explicit
// confirmation step every destructive operation requires; without it the
// store is never called.
func (h *CandidateHandler) Delete(c *gin.Context) {
	if c.Query("confirm") != "true" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Deletion requires confirmation"})
		return
	}

	if err := h.candidates.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(gatewayStatus(err), gin.H{"error": h.candidates.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": h.candidates.Success()})
}

// RegisterCandidateRoutes registers candidate routes behind the
// authentication gate; status transitions and deletion also pass the
// admin role gate.
func (h *CandidateHandler) RegisterCandidateRoutes(rg *gin.RouterGroup, sessions *store.SessionStore, authMW, adminMW gin.HandlerFunc) {
	candidatesGroup := rg.Group("/candidates", authMW)
	{
		candidatesGroup.GET("", h.List)
		candidatesGroup.POST("", h.Submit)
		candidatesGroup.POST("/refresh", h.Refresh(sessions))
		candidatesGroup.PUT("/:id/status", adminMW, h.UpdateStatus)
		candidatesGroup.PUT("/:id", adminMW, h.Update)
		candidatesGroup.DELETE("/:id", adminMW, h.Delete)
	}
}
