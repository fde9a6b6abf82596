package service

import (
	"context"
	"encoding/json"
	"testing"

	"forge-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newProjectFixture(t *testing.T) *ProjectService {
	t.Helper()
	return NewProjectService(newTestGameRepo(t), zap.NewNop())
}

func TestProject_ListFilters(t *testing.T) {
	svc := newProjectFixture(t)
	ctx := context.Background()

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)

	byTitle, err := svc.List(ctx, "azu")
	require.NoError(t, err)
	require.Len(t, byTitle, 1)
	assert.Equal(t, "Azu Puzzle", byTitle[0].Title)

	byGenre, err := svc.List(ctx, "PUZZLE")
	require.NoError(t, err)
	require.Len(t, byGenre, 1)
	assert.Equal(t, models.GenrePuzzle, byGenre[0].Genre)

	none, err := svc.List(ctx, "zzz definitely nothing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestProject_DuplicateAndDelete(t *testing.T) {
	svc := newProjectFixture(t)
	ctx := context.Background()

	copy, err := svc.Duplicate(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Azu Puzzle (Copy)", copy.Title)
	assert.NotEqual(t, "1", copy.ID)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, copy.ID, all[0].ID)

	require.NoError(t, svc.Delete(ctx, copy.ID))
	_, err = svc.Get(ctx, copy.ID)
	assert.ErrorIs(t, err, models.ErrGameNotFound)
}

func TestProject_ExportManifest(t *testing.T) {
	svc := newProjectFixture(t)
	ctx := context.Background()

	game, err := svc.Get(ctx, "1")
	require.NoError(t, err)

	manifest, err := svc.Export(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Azu_Puzzle_manifest.json", manifest.Filename)

	// The manifest must round-trip to the stored record exactly.
	var decoded models.Game
	require.NoError(t, json.Unmarshal(manifest.Data, &decoded))
	assert.Equal(t, game, decoded)
}

func TestProject_ExportUnknown(t *testing.T) {
	svc := newProjectFixture(t)
	_, err := svc.Export(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrGameNotFound)
}
