package service

import (
	"context"
	"strings"

	"forge-server/internal/ai"
	"forge-server/internal/annotate"
	"forge-server/internal/models"
	"forge-server/internal/repository"

	"go.uber.org/zap"
)

// Fallback texts mirrored into the transcript instead of surfacing transport
// errors to the user.
const (
	copilotFallbackText = "I'm having trouble analyzing the engine state."

	annotationDefaultMessage = "Update based on these annotations."
	attachmentDefaultMessage = "Attached references."
)

// guideProjectTitle is the pseudo-project the platform guide answers for.
const guideProjectTitle = "Polarity Platform"

// CopilotService runs the editor's copilot chat: one exchange at a time per
// session, annotation capture, and applying the model's project updates.
type CopilotService struct {
	editor   *EditorService
	sessions *repository.SessionRepository
	ai       ai.Client
	logger   *zap.Logger
}

func NewCopilotService(editor *EditorService, sessions *repository.SessionRepository, aiClient ai.Client, logger *zap.Logger) *CopilotService {
	return &CopilotService{
		editor:   editor,
		sessions: sessions,
		ai:       aiClient,
		logger:   logger.Named("CopilotService"),
	}
}

// Send runs one copilot exchange. AI failures do not error out; they land in
// the transcript as an apologetic model message so the chat stays usable.
func (s *CopilotService) Send(ctx context.Context, userID, message string, attachments []models.Attachment) (EditorView, error) {
	sess, req, err := s.prepare(ctx, userID, message, attachments)
	if err != nil {
		return EditorView{}, err
	}

	reply, usage, aiErr := s.ai.CopilotMessage(ctx, req)

	s.editor.mu.Lock()
	defer s.editor.mu.Unlock()
	sess.exchangeInFlight = false

	// The user may have opened another project while the exchange was in
	// flight; the reply belongs to the session it was prepared for, so a
	// replaced session discards it instead of writing into the new project.
	current, ok := s.editor.sessions[userID]
	if !ok {
		return EditorView{}, models.ErrSessionNotFound
	}
	if current != sess {
		s.logger.Warn("Discarding copilot result for a replaced editor session",
			zap.String("userID", userID),
			zap.String("gameID", sess.gameID),
		)
		return current.view(), nil
	}

	if aiErr != nil {
		s.logger.Warn("Copilot exchange failed", zap.String("userID", userID), zap.Error(aiErr))
		sess.transcript = append(sess.transcript, models.ChatMessage{
			Role: models.RoleModel,
			Text: copilotFallbackText,
		})
		return sess.view(), nil
	}

	s.logger.Info("Copilot exchange completed",
		zap.String("userID", userID),
		zap.Int("totalTokens", usage.TotalTokens),
		zap.Bool("hasUpdates", reply.Updates != nil),
	)

	sess.transcript = append(sess.transcript, models.ChatMessage{
		Role: models.RoleModel,
		Text: reply.Text,
	})

	if reply.Updates != nil {
		s.applyUpdatesLocked(ctx, sess, reply.Updates)
	}
	return sess.view(), nil
}

// prepare validates the exchange, captures any annotation, appends the user
// turn to the transcript and builds the AI request. It claims the session's
// in-flight slot on success and returns the session the request was built
// for, so the caller can detect a mid-exchange replacement.
func (s *CopilotService) prepare(ctx context.Context, userID, message string, attachments []models.Attachment) (*editorSession, ai.CopilotRequest, error) {
	s.editor.mu.Lock()
	defer s.editor.mu.Unlock()
	sess, err := s.editor.session(userID)
	if err != nil {
		return nil, ai.CopilotRequest{}, err
	}
	if sess.exchangeInFlight {
		return nil, ai.CopilotRequest{}, models.ErrExchangeBusy
	}

	hasAnnotation := sess.annotating && len(sess.strokes) > 0

	message = strings.TrimSpace(message)
	if message == "" {
		switch {
		case hasAnnotation:
			message = annotationDefaultMessage
		case len(attachments) > 0:
			message = attachmentDefaultMessage
		default:
			return nil, ai.CopilotRequest{}, models.ErrInvalidInput
		}
	}

	if hasAnnotation {
		dark := s.sessions.GetTheme(ctx, userID) == models.ThemeDark
		shot, renderErr := annotate.Render(sess.canvasWidth, sess.canvasHeight, dark, sess.strokes)
		if renderErr != nil {
			s.logger.Warn("Annotation render failed", zap.String("userID", userID), zap.Error(renderErr))
			hasAnnotation = false
		} else {
			attachments = append(attachments, shot)
		}
		sess.annotating = false
		sess.strokes = nil
	}

	history := append([]models.ChatMessage(nil), sess.transcript...)
	sess.transcript = append(sess.transcript, models.ChatMessage{
		Role:          models.RoleUser,
		Text:          message,
		HasAnnotation: hasAnnotation,
	})
	sess.exchangeInFlight = true

	return sess, ai.CopilotRequest{
		GameTitle:   sess.title,
		Message:     message,
		History:     history,
		Files:       models.CloneScripts(sess.files),
		Hierarchy:   models.CloneNodes(sess.hierarchy),
		Attachments: attachments,
	}, nil
}

// applyUpdatesLocked folds the model's project changes into the session and
// pushes them to the store. Deletions that would empty the file set are
// skipped; the last-file rule outranks the model.
func (s *CopilotService) applyUpdatesLocked(ctx context.Context, sess *editorSession, upd *models.CopilotUpdates) {
	changedFiles := false

	for _, file := range upd.FilesToUpdate {
		merged := false
		for i := range sess.files {
			if sess.files[i].Filename == file.Filename {
				sess.files[i].Content = file.Content
				if file.Type != "" {
					sess.files[i].Type = file.Type
				}
				merged = true
				break
			}
		}
		if !merged {
			sess.files = append(sess.files, file)
		}
		changedFiles = true
	}

	for _, filename := range upd.FilesToDelete {
		if len(sess.files) <= 1 {
			s.logger.Warn("Skipping model-requested deletion of last file",
				zap.String("gameID", sess.gameID),
				zap.String("filename", filename),
			)
			continue
		}
		if err := sess.removeFile(filename); err == nil {
			changedFiles = true
		}
	}

	patch := models.GameUpdate{}
	if changedFiles {
		patch.Scripts = models.CloneScripts(sess.files)
	}
	if upd.NewHierarchy != nil {
		sess.hierarchy = models.CloneNodes(upd.NewHierarchy)
		patch.Hierarchy = models.CloneNodes(sess.hierarchy)
	}
	if patch.Scripts == nil && patch.Hierarchy == nil {
		return
	}
	if _, err := s.editor.games.Update(ctx, sess.gameID, patch); err != nil {
		s.logger.Error("Failed to persist copilot updates", zap.String("gameID", sess.gameID), zap.Error(err))
	}
}

// Ask answers a standalone platform question with no project context. Like
// Send, AI failures come back as the apologetic text rather than an error.
func (s *CopilotService) Ask(ctx context.Context, question string, attachments []models.Attachment) string {
	question = strings.TrimSpace(question)
	if question == "" && len(attachments) > 0 {
		question = attachmentDefaultMessage
	}

	reply, _, err := s.ai.CopilotMessage(ctx, ai.CopilotRequest{
		GameTitle:   guideProjectTitle,
		Message:     question,
		Attachments: attachments,
	})
	if err != nil {
		s.logger.Warn("Guide exchange failed", zap.Error(err))
		return copilotFallbackText
	}
	return reply.Text
}
