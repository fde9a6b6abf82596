package handler

import (
	"time"

	"forge-server/internal/annotate"
	"forge-server/internal/models"
	"forge-server/internal/service"
)

// Auth

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	User        models.User `json:"user"`
	AccessToken string      `json:"accessToken"`
	ExpiresAt   time.Time   `json:"expiresAt"`
}

// Wizard

type wizardFieldsRequest struct {
	Title       *string             `json:"title"`
	Genre       *models.Genre       `json:"genre"`
	Description *string             `json:"description"`
	Attachments []models.Attachment `json:"attachments"`
}

type wizardResponse struct {
	ID          string                `json:"id"`
	Step        service.WizardStep    `json:"step"`
	Title       string                `json:"title"`
	Genre       models.Genre          `json:"genre"`
	Description string                `json:"description"`
	Attachments []models.Attachment   `json:"attachments,omitempty"`
	Spec        *models.Specification `json:"spec,omitempty"`
}

func toWizardResponse(sess service.WizardSession) wizardResponse {
	return wizardResponse{
		ID:          sess.ID,
		Step:        sess.Step,
		Title:       sess.Title,
		Genre:       sess.Genre,
		Description: sess.Description,
		Attachments: sess.Attachments,
		Spec:        sess.Spec,
	}
}

// Editor

type openEditorRequest struct {
	GameID string `json:"gameId" binding:"required"`
}

type setContentRequest struct {
	Content string `json:"content"`
}

type hierarchyRequest struct {
	Hierarchy []models.SceneNode `json:"hierarchy" binding:"required"`
}

type beginResizeRequest struct {
	Side service.PanelSide `json:"side" binding:"required"`
}

type dragResizeRequest struct {
	Position int `json:"position"`
}

type beginAnnotationRequest struct {
	Width  int `json:"width" binding:"required"`
	Height int `json:"height" binding:"required"`
}

type strokeRequest struct {
	Points []annotate.Point `json:"points" binding:"required"`
}

type drawColorRequest struct {
	Color string `json:"color" binding:"required"`
}

type copilotRequest struct {
	Message     string              `json:"message"`
	Attachments []models.Attachment `json:"attachments"`
}

// Misc

type themeRequest struct {
	Theme models.Theme `json:"theme" binding:"required"`
}

type themeResponse struct {
	Theme models.Theme `json:"theme"`
}

type guideRequest struct {
	Question    string              `json:"question"`
	Attachments []models.Attachment `json:"attachments"`
}

type guideResponse struct {
	Answer string `json:"answer"`
}
