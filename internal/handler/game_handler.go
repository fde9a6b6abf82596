package handler

import (
	"net/http"

	"forge-server/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listGames(c *gin.Context) {
	games, err := h.projects.List(c.Request.Context(), c.Query("q"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, games)
}

func (h *Handler) getGame(c *gin.Context) {
	game, err := h.projects.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, game)
}

func (h *Handler) updateGame(c *gin.Context) {
	var upd models.GameUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c, "Invalid request data: "+err.Error())
		return
	}
	if upd.Genre != nil && !upd.Genre.Valid() {
		badRequest(c, "Unknown genre")
		return
	}

	game, err := h.projects.Update(c.Request.Context(), c.Param("id"), upd)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, game)
}

func (h *Handler) deleteGame(c *gin.Context) {
	if err := h.projects.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) duplicateGame(c *gin.Context) {
	game, err := h.projects.Duplicate(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, game)
}

func (h *Handler) exportGame(c *gin.Context) {
	manifest, err := h.projects.Export(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+manifest.Filename+`"`)
	c.Data(http.StatusOK, "application/json", manifest.Data)
}
