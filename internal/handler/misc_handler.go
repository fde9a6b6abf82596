package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) getTheme(c *gin.Context) {
	theme := h.sessions.GetTheme(c.Request.Context(), currentUserID(c))
	c.JSON(http.StatusOK, themeResponse{Theme: theme})
}

func (h *Handler) setTheme(c *gin.Context) {
	var req themeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data: "+err.Error())
		return
	}
	if !req.Theme.Valid() {
		badRequest(c, "Theme must be 'dark' or 'light'")
		return
	}

	if err := h.sessions.SaveTheme(c.Request.Context(), currentUserID(c), req.Theme); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, themeResponse{Theme: req.Theme})
}

// askGuide answers platform questions without any project context.
func (h *Handler) askGuide(c *gin.Context) {
	var req guideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data: "+err.Error())
		return
	}

	answer := h.copilot.Ask(c.Request.Context(), req.Question, req.Attachments)
	c.JSON(http.StatusOK, guideResponse{Answer: answer})
}
