package service

import (
	"context"
	"errors"
	"testing"

	"forge-server/internal/ai"
	"forge-server/internal/annotate"
	"forge-server/internal/mocks"
	"forge-server/internal/models"
	"forge-server/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCopilotFixture(t *testing.T) (*CopilotService, *EditorService, *mocks.MockAIClient, *repository.GameRepository, models.Game) {
	t.Helper()
	repo := newTestGameRepo(t)
	game := seedEditorGame(t, repo)
	editor := NewEditorService(repo, zap.NewNop())
	aiMock := mocks.NewMockAIClient(t)
	svc := NewCopilotService(editor, newTestSessionRepo(), aiMock, zap.NewNop())

	_, err := editor.Open(context.Background(), "u1", game.ID)
	require.NoError(t, err)
	return svc, editor, aiMock, repo, game
}

func TestCopilot_SuccessAppendsBothTurns(t *testing.T) {
	svc, _, aiMock, _, _ := newCopilotFixture(t)

	aiMock.On("CopilotMessage", mock.Anything, mock.MatchedBy(func(req ai.CopilotRequest) bool {
		return req.Message == "Make the cat faster" && len(req.Files) == 2 && len(req.History) == 1
	})).Return(&models.CopilotReply{Text: "Raised the speed to 8."}, ai.UsageInfo{TotalTokens: 42}, nil)

	view, err := svc.Send(context.Background(), "u1", "Make the cat faster", nil)
	require.NoError(t, err)

	require.Len(t, view.Transcript, 3)
	assert.Equal(t, models.RoleUser, view.Transcript[1].Role)
	assert.Equal(t, "Make the cat faster", view.Transcript[1].Text)
	assert.Equal(t, models.RoleModel, view.Transcript[2].Role)
	assert.Equal(t, "Raised the speed to 8.", view.Transcript[2].Text)
	aiMock.AssertExpectations(t)
}

func TestCopilot_AIErrorBecomesFallbackMessage(t *testing.T) {
	svc, _, aiMock, _, _ := newCopilotFixture(t)

	aiMock.On("CopilotMessage", mock.Anything, mock.Anything).
		Return(nil, ai.UsageInfo{}, errors.New("gateway down"))

	view, err := svc.Send(context.Background(), "u1", "hello", nil)
	require.NoError(t, err)

	require.Len(t, view.Transcript, 3)
	assert.Equal(t, copilotFallbackText, view.Transcript[2].Text)

	// The failed exchange releases the slot for the next one.
	aiMock.On("CopilotMessage", mock.Anything, mock.Anything).
		Return(&models.CopilotReply{Text: "ok"}, ai.UsageInfo{}, nil)
	_, err = svc.Send(context.Background(), "u1", "again", nil)
	require.NoError(t, err)
}

func TestCopilot_AppliesUpdates(t *testing.T) {
	svc, _, aiMock, repo, game := newCopilotFixture(t)
	ctx := context.Background()

	newTree := []models.SceneNode{{ID: "root2", Name: "Rebuilt", Type: "Node3D", Icon: "cube"}}
	aiMock.On("CopilotMessage", mock.Anything, mock.Anything).Return(&models.CopilotReply{
		Text: "Done.",
		Updates: &models.CopilotUpdates{
			FilesToUpdate: []models.GameScript{
				{Filename: "Player.gd", Content: "extends CharacterBody3D\nvar speed = 8"},
				{Filename: "Enemy.gd", Content: "extends Area3D", Type: models.ScriptTypeScript},
			},
			FilesToDelete: []string{"Main.tscn"},
			NewHierarchy:  newTree,
		},
	}, ai.UsageInfo{}, nil)

	view, err := svc.Send(ctx, "u1", "rework it", nil)
	require.NoError(t, err)

	require.Len(t, view.Files, 2)
	assert.Equal(t, "Player.gd", view.Files[0].Filename)
	assert.Equal(t, "extends CharacterBody3D\nvar speed = 8", view.Files[0].Content)
	assert.Equal(t, "Enemy.gd", view.Files[1].Filename)
	assert.Equal(t, "Rebuilt", view.Hierarchy[0].Name)

	stored, err := repo.Get(ctx, game.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Scripts, 2)
	assert.Equal(t, "Rebuilt", stored.Hierarchy[0].Name)
}

func TestCopilot_LastFileDeletionSkipped(t *testing.T) {
	svc, editor, aiMock, repo, game := newCopilotFixture(t)
	ctx := context.Background()

	_, err := editor.DeleteFile(ctx, "u1", "Main.tscn")
	require.NoError(t, err)

	aiMock.On("CopilotMessage", mock.Anything, mock.Anything).Return(&models.CopilotReply{
		Text:    "Removed it.",
		Updates: &models.CopilotUpdates{FilesToDelete: []string{"Player.gd"}},
	}, ai.UsageInfo{}, nil)

	view, err := svc.Send(ctx, "u1", "delete everything", nil)
	require.NoError(t, err)
	require.Len(t, view.Files, 1)
	assert.Equal(t, "Player.gd", view.Files[0].Filename)

	stored, err := repo.Get(ctx, game.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Scripts, 1)
}

func TestCopilot_EmptyMessageDefaults(t *testing.T) {
	svc, _, aiMock, _, _ := newCopilotFixture(t)

	// Nothing to send at all is rejected before reaching the gateway.
	_, err := svc.Send(context.Background(), "u1", "   ", nil)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	aiMock.On("CopilotMessage", mock.Anything, mock.MatchedBy(func(req ai.CopilotRequest) bool {
		return req.Message == attachmentDefaultMessage && len(req.Attachments) == 1
	})).Return(&models.CopilotReply{Text: "Got the reference."}, ai.UsageInfo{}, nil)

	ref := models.Attachment{Name: "ref.png", MimeType: "image/png", Data: "aGk="}
	view, err := svc.Send(context.Background(), "u1", "", []models.Attachment{ref})
	require.NoError(t, err)
	assert.Equal(t, attachmentDefaultMessage, view.Transcript[1].Text)
	aiMock.AssertExpectations(t)
}

func TestCopilot_AnnotationCapturedAndCleared(t *testing.T) {
	svc, editor, aiMock, _, _ := newCopilotFixture(t)
	ctx := context.Background()

	require.NoError(t, editor.BeginAnnotation("u1", 320, 240))
	require.NoError(t, editor.AddStroke("u1", []annotate.Point{{X: 20, Y: 20}, {X: 100, Y: 90}}))

	aiMock.On("CopilotMessage", mock.Anything, mock.MatchedBy(func(req ai.CopilotRequest) bool {
		if len(req.Attachments) != 1 {
			return false
		}
		shot := req.Attachments[0]
		return shot.Name == "annotation.jpg" && shot.MimeType == "image/jpeg" && shot.Data != ""
	})).Return(&models.CopilotReply{Text: "I see the markup."}, ai.UsageInfo{}, nil)

	view, err := svc.Send(ctx, "u1", "", nil)
	require.NoError(t, err)

	assert.Equal(t, annotationDefaultMessage, view.Transcript[1].Text)
	assert.True(t, view.Transcript[1].HasAnnotation)
	assert.False(t, view.Annotating)
	aiMock.AssertExpectations(t)
}

func TestCopilot_ReplacedSessionDiscardsReply(t *testing.T) {
	svc, editor, aiMock, repo, game := newCopilotFixture(t)
	ctx := context.Background()

	other := models.Game{
		ID:      "ed2",
		Title:   "Marble Run",
		Genre:   models.GenrePuzzle,
		Status:  models.StatusInDevelopment,
		Scripts: []models.GameScript{{Filename: "Track.gd", Content: "extends Path3D", Type: models.ScriptTypeScript}},
	}
	require.NoError(t, repo.Prepend(ctx, other))

	// The user switches projects while the exchange is in flight.
	aiMock.On("CopilotMessage", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		_, err := editor.Open(ctx, "u1", "ed2")
		require.NoError(t, err)
	}).Return(&models.CopilotReply{
		Text: "Done.",
		Updates: &models.CopilotUpdates{
			FilesToUpdate: []models.GameScript{{Filename: "Sneaky.gd", Content: "extends Node"}},
		},
	}, ai.UsageInfo{}, nil).Once()

	view, err := svc.Send(ctx, "u1", "rework it", nil)
	require.NoError(t, err)

	// The reply targets the old project and is dropped whole; the view is the
	// freshly opened session, untouched.
	assert.Equal(t, "ed2", view.GameID)
	require.Len(t, view.Transcript, 1)
	require.Len(t, view.Files, 1)
	assert.Equal(t, "Track.gd", view.Files[0].Filename)

	storedB, err := repo.Get(ctx, "ed2")
	require.NoError(t, err)
	require.Len(t, storedB.Scripts, 1)
	assert.Equal(t, "Track.gd", storedB.Scripts[0].Filename)

	storedA, err := repo.Get(ctx, game.ID)
	require.NoError(t, err)
	assert.Len(t, storedA.Scripts, 2)

	// The new session is free for its own exchanges.
	aiMock.On("CopilotMessage", mock.Anything, mock.Anything).
		Return(&models.CopilotReply{Text: "ok"}, ai.UsageInfo{}, nil)
	_, err = svc.Send(ctx, "u1", "hello", nil)
	require.NoError(t, err)
}

func TestCopilot_OneExchangeAtATime(t *testing.T) {
	svc, editor, _, _, _ := newCopilotFixture(t)

	editor.mu.Lock()
	editor.sessions["u1"].exchangeInFlight = true
	editor.mu.Unlock()

	_, err := svc.Send(context.Background(), "u1", "hi", nil)
	assert.ErrorIs(t, err, models.ErrExchangeBusy)
}

func TestCopilot_GuideFallsBackOnError(t *testing.T) {
	svc, _, aiMock, _, _ := newCopilotFixture(t)
	ctx := context.Background()

	aiMock.On("CopilotMessage", mock.Anything, mock.MatchedBy(func(req ai.CopilotRequest) bool {
		return req.GameTitle == guideProjectTitle && len(req.Files) == 0
	})).Return(&models.CopilotReply{Text: "Use the wizard to start a project."}, ai.UsageInfo{}, nil).Once()
	assert.Equal(t, "Use the wizard to start a project.", svc.Ask(ctx, "How do I begin?", nil))

	aiMock.On("CopilotMessage", mock.Anything, mock.Anything).
		Return(nil, ai.UsageInfo{}, errors.New("gateway down")).Once()
	assert.Equal(t, copilotFallbackText, svc.Ask(ctx, "Still there?", nil))
}
