package service

import (
	"context"
	"strings"
	"sync"

	"forge-server/internal/ai"
	"forge-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WizardStep enumerates the creation flow screens in order.
type WizardStep int

const (
	StepTitle WizardStep = iota
	StepGenre
	StepDescription
	StepReview
)

// MinDescriptionLength is the smallest concept description the flow accepts
// before spec synthesis is allowed.
const MinDescriptionLength = 10

// WizardSession holds one in-progress creation flow.
type WizardSession struct {
	ID          string
	UserID      string
	Step        WizardStep
	Title       string
	Genre       models.Genre
	Description string
	Attachments []models.Attachment
	Spec        *models.Specification
}

// WizardFields is a partial update applied to the current session. Nil
// fields are left untouched.
type WizardFields struct {
	Title       *string
	Genre       *models.Genre
	Description *string
	Attachments []models.Attachment
}

// CreationRequest is the finished wizard outcome handed to the forge.
type CreationRequest struct {
	Title       string
	Genre       models.Genre
	Description string
	Spec        *models.Specification
	Attachments []models.Attachment
}

// WizardService drives the step-gated creation flow and the AI spec preview.
type WizardService struct {
	ai     ai.Client
	logger *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*WizardSession
}

func NewWizardService(aiClient ai.Client, logger *zap.Logger) *WizardService {
	return &WizardService{
		ai:       aiClient,
		logger:   logger.Named("WizardService"),
		sessions: make(map[string]*WizardSession),
	}
}

// Start opens a fresh session at the title step.
func (s *WizardService) Start(userID string) WizardSession {
	sess := &WizardSession{
		ID:     uuid.NewString(),
		UserID: userID,
		Step:   StepTitle,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.logger.Info("Wizard session started", zap.String("wizardID", sess.ID), zap.String("userID", userID))
	return *sess
}

func (s *WizardService) Get(id string) (WizardSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return WizardSession{}, models.ErrWizardNotFound
	}
	return *sess, nil
}

// UpdateFields applies edits to the session. Changing the concept inputs
// invalidates a previously generated spec.
func (s *WizardService) UpdateFields(id string, fields WizardFields) (WizardSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return WizardSession{}, models.ErrWizardNotFound
	}

	changed := false
	if fields.Title != nil && *fields.Title != sess.Title {
		sess.Title = *fields.Title
		changed = true
	}
	if fields.Genre != nil && *fields.Genre != sess.Genre {
		if !fields.Genre.Valid() {
			return WizardSession{}, models.ErrInvalidInput
		}
		sess.Genre = *fields.Genre
		changed = true
	}
	if fields.Description != nil && *fields.Description != sess.Description {
		sess.Description = *fields.Description
		changed = true
	}
	if fields.Attachments != nil {
		sess.Attachments = fields.Attachments
		changed = true
	}
	if changed {
		sess.Spec = nil
	}
	return *sess, nil
}

// Next advances to the following step if the current step's gate passes.
func (s *WizardService) Next(id string) (WizardSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return WizardSession{}, models.ErrWizardNotFound
	}

	switch sess.Step {
	case StepTitle:
		if strings.TrimSpace(sess.Title) == "" {
			return WizardSession{}, models.ErrStepGate
		}
	case StepGenre:
		if !sess.Genre.Valid() {
			return WizardSession{}, models.ErrStepGate
		}
	case StepDescription:
		if len(strings.TrimSpace(sess.Description)) < MinDescriptionLength {
			return WizardSession{}, models.ErrStepGate
		}
		if sess.Spec == nil {
			return WizardSession{}, models.ErrSpecRequired
		}
	case StepReview:
		return WizardSession{}, models.ErrStepGate
	}

	sess.Step++
	return *sess, nil
}

// Back returns to the previous step. Collected inputs are kept.
func (s *WizardService) Back(id string) (WizardSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return WizardSession{}, models.ErrWizardNotFound
	}
	if sess.Step > StepTitle {
		sess.Step--
	}
	return *sess, nil
}

// Preview runs spec synthesis on the collected concept. On success the
// session jumps to the review step; on failure it stays where it is so the
// user can retry.
func (s *WizardService) Preview(ctx context.Context, id string) (WizardSession, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.RUnlock()
		return WizardSession{}, models.ErrWizardNotFound
	}
	snapshot := *sess
	s.mu.RUnlock()

	if strings.TrimSpace(snapshot.Title) == "" || !snapshot.Genre.Valid() {
		return WizardSession{}, models.ErrStepGate
	}
	if len(strings.TrimSpace(snapshot.Description)) < MinDescriptionLength {
		return WizardSession{}, models.ErrStepGate
	}

	spec, usage, err := s.ai.GenerateSpec(ctx, snapshot.Title, snapshot.Genre, snapshot.Description, snapshot.Attachments)
	if err != nil {
		s.logger.Warn("Spec synthesis failed", zap.String("wizardID", id), zap.Error(err))
		return WizardSession{}, err
	}
	s.logger.Info("Spec synthesized",
		zap.String("wizardID", id),
		zap.Int("totalTokens", usage.TotalTokens),
	)

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok = s.sessions[id]
	if !ok {
		return WizardSession{}, models.ErrWizardNotFound
	}
	sess.Spec = spec
	sess.Step = StepReview
	return *sess, nil
}

// Complete closes the session and hands its contents to the caller. Only a
// reviewed session with a spec can complete.
func (s *WizardService) Complete(id string) (CreationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return CreationRequest{}, models.ErrWizardNotFound
	}
	if sess.Step != StepReview || sess.Spec == nil {
		return CreationRequest{}, models.ErrStepGate
	}

	delete(s.sessions, id)
	s.logger.Info("Wizard session completed", zap.String("wizardID", id))
	return CreationRequest{
		Title:       sess.Title,
		Genre:       sess.Genre,
		Description: sess.Description,
		Spec:        sess.Spec,
		Attachments: sess.Attachments,
	}, nil
}

// Cancel discards a session. Unknown ids are fine, cancel is idempotent.
func (s *WizardService) Cancel(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}
