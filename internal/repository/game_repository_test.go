package repository

import (
	"context"
	"testing"
	"time"

	"forge-server/internal/models"
	"forge-server/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRepo(t *testing.T) (*GameRepository, storage.KeyValueStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	repo := NewGameRepository(store, zap.NewNop())
	require.NoError(t, repo.Init(context.Background()))
	return repo, store
}

func TestGameRepository_SeedsWhenEmpty(t *testing.T) {
	repo, _ := newTestRepo(t)

	games, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, games, len(SeedGames()))
	assert.Equal(t, "Azu Puzzle", games[0].Title)
}

func TestGameRepository_SeedsOnCorruptRecord(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, storage.KeyGames, []byte("{not json")))

	repo := NewGameRepository(store, zap.NewNop())
	require.NoError(t, repo.Init(ctx))

	games, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, games, len(SeedGames()))
}

func TestGameRepository_RequiresInit(t *testing.T) {
	repo := NewGameRepository(storage.NewMemoryStore(), zap.NewNop())

	_, err := repo.List(context.Background())
	assert.ErrorIs(t, err, models.ErrNotInitialized)
	_, err = repo.Get(context.Background(), "1")
	assert.ErrorIs(t, err, models.ErrNotInitialized)
}

func TestGameRepository_UpdateStampsModificationDate(t *testing.T) {
	repo, _ := newTestRepo(t)
	repo.SetNowFunc(func() time.Time {
		return time.Date(2026, time.March, 7, 12, 0, 0, 0, time.UTC)
	})

	title := "Renamed"
	updated, err := repo.Update(context.Background(), "1", models.GameUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "Mar 7, 2026", updated.LastModified)

	// Untouched fields survive the merge.
	assert.Equal(t, models.GenrePuzzle, updated.Genre)
}

func TestGameRepository_UpdateUnknownID(t *testing.T) {
	repo, _ := newTestRepo(t)
	title := "x"
	_, err := repo.Update(context.Background(), "nope", models.GameUpdate{Title: &title})
	assert.ErrorIs(t, err, models.ErrGameNotFound)
}

func TestGameRepository_Duplicate(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	source, err := repo.Get(ctx, "1")
	require.NoError(t, err)

	copy, err := repo.Duplicate(ctx, "1")
	require.NoError(t, err)
	assert.NotEqual(t, source.ID, copy.ID)
	assert.Equal(t, source.Title+" (Copy)", copy.Title)
	assert.Equal(t, source.Scripts, copy.Scripts)

	// The copy lands at the head of the collection.
	games, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, copy.ID, games[0].ID)

	// Editing the copy must not touch the source.
	title := "Changed"
	_, err = repo.Update(ctx, copy.ID, models.GameUpdate{Title: &title})
	require.NoError(t, err)
	source2, err := repo.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, source.Title, source2.Title)
}

func TestGameRepository_DeleteAndPersist(t *testing.T) {
	repo, store := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Delete(ctx, "2"))
	_, err := repo.Get(ctx, "2")
	assert.ErrorIs(t, err, models.ErrGameNotFound)

	// A fresh repository over the same store sees the deletion.
	repo2 := NewGameRepository(store, zap.NewNop())
	require.NoError(t, repo2.Init(ctx))
	_, err = repo2.Get(ctx, "2")
	assert.ErrorIs(t, err, models.ErrGameNotFound)
}

func TestGameRepository_PrependOrdersNewestFirst(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	game := models.Game{ID: "new", Title: "Fresh", Genre: models.GenreAction, Status: models.StatusInDevelopment}
	require.NoError(t, repo.Prepend(ctx, game))

	games, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", games[0].ID)
}

func TestGameRepository_ListReturnsDeepCopies(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	game := models.Game{
		ID:      "scripted",
		Title:   "Scripted",
		Genre:   models.GenreAction,
		Status:  models.StatusInDevelopment,
		Scripts: []models.GameScript{{Filename: "Main.gd", Content: "extends Node", Type: models.ScriptTypeScript}},
	}
	require.NoError(t, repo.Prepend(ctx, game))

	games, err := repo.List(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, games[0].Scripts)
	games[0].Scripts[0].Content = "tampered"

	again, err := repo.Get(ctx, games[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "extends Node", again.Scripts[0].Content)
}
