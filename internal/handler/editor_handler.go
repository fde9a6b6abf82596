package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) openEditor(c *gin.Context) {
	var req openEditorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data: "+err.Error())
		return
	}

	view, err := h.editor.Open(c.Request.Context(), currentUserID(c), req.GameID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) editorView(c *gin.Context) {
	view, err := h.editor.View(currentUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) addFile(c *gin.Context) {
	view, err := h.editor.AddFile(c.Request.Context(), currentUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *Handler) setContent(c *gin.Context) {
	var req setContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data: "+err.Error())
		return
	}

	view, err := h.editor.SetContent(c.Request.Context(), currentUserID(c), c.Param("filename"), req.Content)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) deleteFile(c *gin.Context) {
	view, err := h.editor.DeleteFile(c.Request.Context(), currentUserID(c), c.Param("filename"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) switchTab(c *gin.Context) {
	view, err := h.editor.SwitchTab(currentUserID(c), c.Param("filename"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) closeTab(c *gin.Context) {
	view, err := h.editor.CloseTab(currentUserID(c), c.Param("filename"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) replaceHierarchy(c *gin.Context) {
	var req hierarchyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data: "+err.Error())
		return
	}

	view, err := h.editor.ReplaceHierarchy(c.Request.Context(), currentUserID(c), req.Hierarchy)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) beginResize(c *gin.Context) {
	var req beginResizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data: "+err.Error())
		return
	}
	if err := h.editor.BeginResize(currentUserID(c), req.Side); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) dragResize(c *gin.Context) {
	var req dragResizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data: "+err.Error())
		return
	}
	layout, err := h.editor.DragResize(currentUserID(c), req.Position)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, layout)
}

func (h *Handler) endResize(c *gin.Context) {
	if err := h.editor.EndResize(currentUserID(c)); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) beginAnnotation(c *gin.Context) {
	var req beginAnnotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data: "+err.Error())
		return
	}
	if err := h.editor.BeginAnnotation(currentUserID(c), req.Width, req.Height); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) addStroke(c *gin.Context) {
	var req strokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data: "+err.Error())
		return
	}
	if err := h.editor.AddStroke(currentUserID(c), req.Points); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) setDrawColor(c *gin.Context) {
	var req drawColorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data: "+err.Error())
		return
	}
	if err := h.editor.SetDrawColor(currentUserID(c), req.Color); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) cancelAnnotation(c *gin.Context) {
	if err := h.editor.CancelAnnotation(currentUserID(c)); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) copilotSend(c *gin.Context) {
	var req copilotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data: "+err.Error())
		return
	}

	view, err := h.copilot.Send(c.Request.Context(), currentUserID(c), req.Message, req.Attachments)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	copilotExchanges.Inc()
	c.JSON(http.StatusOK, view)
}
