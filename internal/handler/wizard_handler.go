package handler

import (
	"net/http"

	"forge-server/internal/models"
	"forge-server/internal/service"

	"github.com/gin-gonic/gin"
)

// ownedWizard loads a session and hides other users' sessions behind the
// not-found error.
func (h *Handler) ownedWizard(c *gin.Context) (service.WizardSession, bool) {
	sess, err := h.wizard.Get(c.Param("id"))
	if err != nil || sess.UserID != currentUserID(c) {
		handleServiceError(c, models.ErrWizardNotFound)
		return service.WizardSession{}, false
	}
	return sess, true
}

func (h *Handler) startWizard(c *gin.Context) {
	sess := h.wizard.Start(currentUserID(c))
	wizardSessionsStarted.Inc()
	c.JSON(http.StatusCreated, toWizardResponse(sess))
}

func (h *Handler) getWizard(c *gin.Context) {
	sess, ok := h.ownedWizard(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toWizardResponse(sess))
}

func (h *Handler) updateWizard(c *gin.Context) {
	if _, ok := h.ownedWizard(c); !ok {
		return
	}

	var req wizardFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data: "+err.Error())
		return
	}

	sess, err := h.wizard.UpdateFields(c.Param("id"), service.WizardFields{
		Title:       req.Title,
		Genre:       req.Genre,
		Description: req.Description,
		Attachments: req.Attachments,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toWizardResponse(sess))
}

func (h *Handler) wizardNext(c *gin.Context) {
	if _, ok := h.ownedWizard(c); !ok {
		return
	}
	sess, err := h.wizard.Next(c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toWizardResponse(sess))
}

func (h *Handler) wizardBack(c *gin.Context) {
	if _, ok := h.ownedWizard(c); !ok {
		return
	}
	sess, err := h.wizard.Back(c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toWizardResponse(sess))
}

func (h *Handler) wizardPreview(c *gin.Context) {
	if _, ok := h.ownedWizard(c); !ok {
		return
	}
	sess, err := h.wizard.Preview(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toWizardResponse(sess))
}

// wizardComplete closes the session and launches a forge run from it.
func (h *Handler) wizardComplete(c *gin.Context) {
	if _, ok := h.ownedWizard(c); !ok {
		return
	}
	req, err := h.wizard.Complete(c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	run := h.forge.Start(req)
	forgeRunsStarted.Inc()
	c.JSON(http.StatusAccepted, run)
}

func (h *Handler) cancelWizard(c *gin.Context) {
	if _, ok := h.ownedWizard(c); !ok {
		return
	}
	h.wizard.Cancel(c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (h *Handler) forgeStatus(c *gin.Context) {
	run, err := h.forge.Snapshot(c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}
