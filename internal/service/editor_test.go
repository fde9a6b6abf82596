package service

import (
	"context"
	"testing"

	"forge-server/internal/annotate"
	"forge-server/internal/models"
	"forge-server/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seedEditorGame(t *testing.T, repo *repository.GameRepository) models.Game {
	t.Helper()
	game := models.Game{
		ID:     "ed1",
		Title:  "Lighthouse Cat",
		Genre:  models.GenreAdventure,
		Status: models.StatusInDevelopment,
		Scripts: []models.GameScript{
			{Filename: "Main.tscn", Content: "[gd_scene]", Type: models.ScriptTypeScene},
			{Filename: "Player.gd", Content: "extends CharacterBody3D", Type: models.ScriptTypeScript},
		},
		Hierarchy: []models.SceneNode{{ID: "root", Name: "Main", Type: "Node3D", Icon: "cube"}},
	}
	require.NoError(t, repo.Prepend(context.Background(), game))
	return game
}

func newEditorFixture(t *testing.T) (*EditorService, *repository.GameRepository, models.Game) {
	t.Helper()
	repo := newTestGameRepo(t)
	game := seedEditorGame(t, repo)
	return NewEditorService(repo, zap.NewNop()), repo, game
}

func TestEditor_OpenSeedsSession(t *testing.T) {
	svc, _, game := newEditorFixture(t)

	view, err := svc.Open(context.Background(), "u1", game.ID)
	require.NoError(t, err)

	assert.Equal(t, game.ID, view.GameID)
	assert.Equal(t, "Main.tscn", view.ActiveFilename)
	assert.Equal(t, PanelLayout{LeftWidth: 288, RightWidth: 320, BottomHeight: 128}, view.Layout)
	assert.Equal(t, DefaultDrawColor, view.DrawColor)

	require.Len(t, view.Transcript, 1)
	assert.Equal(t, models.RoleModel, view.Transcript[0].Role)
	assert.Equal(t, `Polarity Studio ready for "Lighthouse Cat". How can I update your project today?`, view.Transcript[0].Text)
}

func TestEditor_OpenUnknownGame(t *testing.T) {
	svc, _, _ := newEditorFixture(t)
	_, err := svc.Open(context.Background(), "u1", "missing")
	assert.ErrorIs(t, err, models.ErrGameNotFound)
}

func TestEditor_ReopenSameGameKeepsSession(t *testing.T) {
	svc, _, game := newEditorFixture(t)
	ctx := context.Background()

	_, err := svc.Open(ctx, "u1", game.ID)
	require.NoError(t, err)
	view, err := svc.SwitchTab("u1", "Player.gd")
	require.NoError(t, err)
	assert.Equal(t, "Player.gd", view.ActiveFilename)

	view, err = svc.Open(ctx, "u1", game.ID)
	require.NoError(t, err)
	assert.Equal(t, "Player.gd", view.ActiveFilename)
}

func TestEditor_OpenDifferentGameReseeds(t *testing.T) {
	svc, repo, game := newEditorFixture(t)
	ctx := context.Background()

	other := models.Game{
		ID:        "ed2",
		Title:     "Marble Run",
		Genre:     models.GenrePuzzle,
		Status:    models.StatusInDevelopment,
		Scripts:   []models.GameScript{{Filename: "Track.gd", Content: "extends Path3D", Type: models.ScriptTypeScript}},
		Hierarchy: []models.SceneNode{{ID: "track", Name: "Track", Type: "Path3D", Icon: "spline"}},
	}
	require.NoError(t, repo.Prepend(ctx, other))

	// Dirty the first session: extra file, different tab, moved panel,
	// annotation armed.
	_, err := svc.Open(ctx, "u1", game.ID)
	require.NoError(t, err)
	_, err = svc.AddFile(ctx, "u1")
	require.NoError(t, err)
	_, err = svc.SwitchTab("u1", "Player.gd")
	require.NoError(t, err)
	require.NoError(t, svc.BeginResize("u1", PanelLeft))
	_, err = svc.DragResize("u1", 450)
	require.NoError(t, err)
	require.NoError(t, svc.EndResize("u1"))
	require.NoError(t, svc.BeginAnnotation("u1", 640, 480))

	view, err := svc.Open(ctx, "u1", "ed2")
	require.NoError(t, err)

	// Everything comes from the stored record of the newly opened project.
	assert.Equal(t, "ed2", view.GameID)
	require.Len(t, view.Files, 1)
	assert.Equal(t, "Track.gd", view.Files[0].Filename)
	assert.Equal(t, "Track.gd", view.ActiveFilename)
	require.Len(t, view.Hierarchy, 1)
	assert.Equal(t, "track", view.Hierarchy[0].ID)
	require.Len(t, view.Transcript, 1)
	assert.Equal(t, `Polarity Studio ready for "Marble Run". How can I update your project today?`, view.Transcript[0].Text)
	assert.Equal(t, defaultLayout(), view.Layout)
	assert.False(t, view.Annotating)

	// The first project kept only its own persisted changes.
	stored, err := repo.Get(ctx, game.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Scripts, 3)
}

func TestEditor_SetContentPersists(t *testing.T) {
	svc, repo, game := newEditorFixture(t)
	ctx := context.Background()

	_, err := svc.Open(ctx, "u1", game.ID)
	require.NoError(t, err)

	_, err = svc.SetContent(ctx, "u1", "Player.gd", "extends CharacterBody3D\nvar speed = 5")
	require.NoError(t, err)

	stored, err := repo.Get(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, "extends CharacterBody3D\nvar speed = 5", stored.Scripts[1].Content)
}

func TestEditor_AddFileNaming(t *testing.T) {
	svc, repo, game := newEditorFixture(t)
	ctx := context.Background()

	_, err := svc.Open(ctx, "u1", game.ID)
	require.NoError(t, err)

	view, err := svc.AddFile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "NewFile_1.gd", view.ActiveFilename)
	last := view.Files[len(view.Files)-1]
	assert.Equal(t, "extends Node\n", last.Content)
	assert.Equal(t, models.ScriptTypeScript, last.Type)

	view, err = svc.AddFile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "NewFile_2.gd", view.ActiveFilename)

	stored, err := repo.Get(ctx, game.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Scripts, 4)
}

func TestEditor_CloseTabIsLocalOnly(t *testing.T) {
	svc, repo, game := newEditorFixture(t)
	ctx := context.Background()

	_, err := svc.Open(ctx, "u1", game.ID)
	require.NoError(t, err)

	view, err := svc.CloseTab("u1", "Main.tscn")
	require.NoError(t, err)
	assert.Len(t, view.Files, 1)
	assert.Equal(t, "Player.gd", view.ActiveFilename)

	// Closing a tab never touches the stored project.
	stored, err := repo.Get(ctx, game.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Scripts, 2)

	// The last open tab cannot be closed.
	_, err = svc.CloseTab("u1", "Player.gd")
	assert.ErrorIs(t, err, models.ErrLastFile)
}

func TestEditor_DeleteFilePersists(t *testing.T) {
	svc, repo, game := newEditorFixture(t)
	ctx := context.Background()

	_, err := svc.Open(ctx, "u1", game.ID)
	require.NoError(t, err)

	view, err := svc.DeleteFile(ctx, "u1", "Main.tscn")
	require.NoError(t, err)
	assert.Len(t, view.Files, 1)

	stored, err := repo.Get(ctx, game.ID)
	require.NoError(t, err)
	require.Len(t, stored.Scripts, 1)
	assert.Equal(t, "Player.gd", stored.Scripts[0].Filename)

	_, err = svc.DeleteFile(ctx, "u1", "Player.gd")
	assert.ErrorIs(t, err, models.ErrLastFile)
}

func TestEditor_SwitchTabUnknownFile(t *testing.T) {
	svc, _, game := newEditorFixture(t)
	_, err := svc.Open(context.Background(), "u1", game.ID)
	require.NoError(t, err)

	_, err = svc.SwitchTab("u1", "Ghost.gd")
	assert.ErrorIs(t, err, models.ErrFileNotFound)
}

func TestEditor_ResizeClampsAndExcludes(t *testing.T) {
	svc, _, game := newEditorFixture(t)
	_, err := svc.Open(context.Background(), "u1", game.ID)
	require.NoError(t, err)

	require.NoError(t, svc.BeginResize("u1", PanelLeft))

	// A second drag cannot start while one is active.
	assert.ErrorIs(t, svc.BeginResize("u1", PanelRight), models.ErrResizeBusy)

	layout, err := svc.DragResize("u1", 10000)
	require.NoError(t, err)
	assert.Equal(t, LeftPanelMax, layout.LeftWidth)

	layout, err = svc.DragResize("u1", 0)
	require.NoError(t, err)
	assert.Equal(t, LeftPanelMin, layout.LeftWidth)

	require.NoError(t, svc.EndResize("u1"))
	require.NoError(t, svc.BeginResize("u1", PanelBottom))
	layout, err = svc.DragResize("u1", 399)
	require.NoError(t, err)
	assert.Equal(t, 399, layout.BottomHeight)
	require.NoError(t, svc.EndResize("u1"))

	// Dragging without an active target is rejected.
	_, err = svc.DragResize("u1", 250)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestEditor_ReplaceHierarchyValidates(t *testing.T) {
	svc, repo, game := newEditorFixture(t)
	ctx := context.Background()

	_, err := svc.Open(ctx, "u1", game.ID)
	require.NoError(t, err)

	bad := []models.SceneNode{{ID: "a", Name: "A"}, {ID: "a", Name: "A again"}}
	_, err = svc.ReplaceHierarchy(ctx, "u1", bad)
	require.Error(t, err)

	good := []models.SceneNode{
		{ID: "root", Name: "Main", Type: "Node3D", Icon: "cube", Children: []models.SceneNode{
			{ID: "cat", Name: "Cat", Type: "CharacterBody3D", Icon: "person"},
		}},
	}
	view, err := svc.ReplaceHierarchy(ctx, "u1", good)
	require.NoError(t, err)
	assert.Equal(t, "cat", view.Hierarchy[0].Children[0].ID)

	stored, err := repo.Get(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, "cat", stored.Hierarchy[0].Children[0].ID)
}

func TestEditor_AnnotationLifecycle(t *testing.T) {
	svc, _, game := newEditorFixture(t)
	_, err := svc.Open(context.Background(), "u1", game.ID)
	require.NoError(t, err)

	// Strokes are only accepted while annotating.
	err = svc.AddStroke("u1", []annotate.Point{{X: 1, Y: 1}})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	require.NoError(t, svc.BeginAnnotation("u1", 800, 600))
	require.NoError(t, svc.SetDrawColor("u1", "#ef4444"))
	require.NoError(t, svc.AddStroke("u1", []annotate.Point{{X: 10, Y: 10}, {X: 40, Y: 40}}))

	require.NoError(t, svc.CancelAnnotation("u1"))
	view, err := svc.View("u1")
	require.NoError(t, err)
	assert.False(t, view.Annotating)
}

func TestEditor_NoSession(t *testing.T) {
	svc := NewEditorService(newTestGameRepo(t), zap.NewNop())
	_, err := svc.View("nobody")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}
