// Package handler wires the HTTP API: auth, project library, creation
// wizard, forge runs, editor sessions and the copilot chat.
package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	ws "forge-server/internal/delivery/websocket"
	"forge-server/internal/repository"
	"forge-server/internal/service"
)

// Handler holds the service dependencies behind the HTTP surface.
type Handler struct {
	auth     *service.AuthService
	projects *service.ProjectService
	wizard   *service.WizardService
	forge    *service.ForgeService
	editor   *service.EditorService
	copilot  *service.CopilotService
	sessions *repository.SessionRepository
	ws       *ws.Handler
	logger   *zap.Logger
}

func New(
	auth *service.AuthService,
	projects *service.ProjectService,
	wizard *service.WizardService,
	forge *service.ForgeService,
	editor *service.EditorService,
	copilot *service.CopilotService,
	sessions *repository.SessionRepository,
	wsHandler *ws.Handler,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		auth:     auth,
		projects: projects,
		wizard:   wizard,
		forge:    forge,
		editor:   editor,
		copilot:  copilot,
		sessions: sessions,
		ws:       wsHandler,
		logger:   logger.Named("Handler"),
	}
}

// RegisterRoutes mounts the API. authLimiter, when non-nil, guards the
// credential endpoints.
func (h *Handler) RegisterRoutes(router *gin.Engine, authLimiter gin.HandlerFunc) {
	auth := router.Group("/auth")
	if authLimiter != nil {
		auth.Use(authLimiter)
	}
	{
		auth.POST("/register", h.register)
		auth.POST("/login", h.login)
		auth.POST("/google", h.googleLogin)
	}

	authed := router.Group("/", h.AuthMiddleware())
	{
		authed.POST("/auth/logout", h.logout)
		authed.GET("/auth/me", h.me)

		api := authed.Group("/api")
		{
			api.GET("/games", h.listGames)
			api.GET("/games/:id", h.getGame)
			api.PATCH("/games/:id", h.updateGame)
			api.DELETE("/games/:id", h.deleteGame)
			api.POST("/games/:id/duplicate", h.duplicateGame)
			api.GET("/games/:id/export", h.exportGame)

			api.POST("/wizard", h.startWizard)
			api.GET("/wizard/:id", h.getWizard)
			api.PATCH("/wizard/:id", h.updateWizard)
			api.POST("/wizard/:id/next", h.wizardNext)
			api.POST("/wizard/:id/back", h.wizardBack)
			api.POST("/wizard/:id/preview", h.wizardPreview)
			api.POST("/wizard/:id/complete", h.wizardComplete)
			api.DELETE("/wizard/:id", h.cancelWizard)

			api.GET("/forge/:id", h.forgeStatus)

			api.POST("/editor/open", h.openEditor)
			api.GET("/editor", h.editorView)
			api.POST("/editor/files", h.addFile)
			api.PUT("/editor/files/:filename", h.setContent)
			api.DELETE("/editor/files/:filename", h.deleteFile)
			api.POST("/editor/tabs/:filename/activate", h.switchTab)
			api.DELETE("/editor/tabs/:filename", h.closeTab)
			api.PUT("/editor/hierarchy", h.replaceHierarchy)
			api.POST("/editor/panels/resize/begin", h.beginResize)
			api.POST("/editor/panels/resize/drag", h.dragResize)
			api.POST("/editor/panels/resize/end", h.endResize)
			api.POST("/editor/annotation/begin", h.beginAnnotation)
			api.POST("/editor/annotation/strokes", h.addStroke)
			api.PUT("/editor/annotation/color", h.setDrawColor)
			api.DELETE("/editor/annotation", h.cancelAnnotation)
			api.POST("/editor/copilot", h.copilotSend)

			api.GET("/theme", h.getTheme)
			api.PUT("/theme", h.setTheme)
			api.POST("/guide", h.askGuide)
		}
	}

	// The socket authenticates itself via the token query parameter.
	router.GET("/ws", h.ws.ServeWS)
}
