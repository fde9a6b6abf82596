package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"forge-server/internal/models"
	"forge-server/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GameRepository owns the full ordered game collection. Insertion order is
// significant: new and duplicated games are prepended so the collection reads
// most-recent-first. Every mutation persists the whole collection to the
// backing store after the in-memory state settles, but never before Init has
// completed, otherwise a startup write could clobber durable state with the
// empty default.
type GameRepository struct {
	store  storage.KeyValueStore
	logger *zap.Logger
	now    func() time.Time

	mu     sync.RWMutex
	games  []models.Game
	loaded bool
}

// NewGameRepository creates a repository over the given store. The collection
// is unusable until Init is called.
func NewGameRepository(store storage.KeyValueStore, logger *zap.Logger) *GameRepository {
	return &GameRepository{
		store:  store,
		logger: logger.Named("GameRepo"),
		now:    time.Now,
	}
}

// SetNowFunc overrides the clock used for modification-date stamps.
func (r *GameRepository) SetNowFunc(now func() time.Time) {
	r.now = now
}

// Init loads the persisted collection. A missing or unreadable record falls
// back to the built-in example catalog; no partial recovery is attempted.
func (r *GameRepository) Init(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.store.Get(ctx, storage.KeyGames)
	switch {
	case errors.Is(err, storage.ErrKeyNotFound):
		r.logger.Info("No persisted game collection, seeding examples")
		r.games = SeedGames()
	case err != nil:
		return fmt.Errorf("failed to load game collection: %w", err)
	default:
		var games []models.Game
		if jsonErr := json.Unmarshal(data, &games); jsonErr != nil {
			r.logger.Warn("Persisted game collection is corrupt, seeding examples", zap.Error(jsonErr))
			r.games = SeedGames()
		} else {
			r.games = games
		}
	}

	r.loaded = true
	r.logger.Info("Game collection loaded", zap.Int("count", len(r.games)))
	return nil
}

// List returns a deep copy of the collection in stored order.
func (r *GameRepository) List(ctx context.Context) ([]models.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.loaded {
		return nil, models.ErrNotInitialized
	}
	out := make([]models.Game, len(r.games))
	for i, g := range r.games {
		out[i] = g.Clone()
	}
	return out, nil
}

// Get returns a deep copy of one game.
func (r *GameRepository) Get(ctx context.Context, id string) (models.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.loaded {
		return models.Game{}, models.ErrNotInitialized
	}
	for _, g := range r.games {
		if g.ID == id {
			return g.Clone(), nil
		}
	}
	return models.Game{}, models.ErrGameNotFound
}

// Prepend inserts a new game at the head of the collection and persists.
func (r *GameRepository) Prepend(ctx context.Context, game models.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.loaded {
		return models.ErrNotInitialized
	}
	r.games = append([]models.Game{game.Clone()}, r.games...)
	return r.persistLocked(ctx)
}

// Update shallow-merges the partial update into the stored record, stamps the
// display-formatted modification date, persists, and returns the new state.
func (r *GameRepository) Update(ctx context.Context, id string, upd models.GameUpdate) (models.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.loaded {
		return models.Game{}, models.ErrNotInitialized
	}
	for i := range r.games {
		if r.games[i].ID != id {
			continue
		}
		g := &r.games[i]
		if upd.Title != nil {
			g.Title = *upd.Title
		}
		if upd.Genre != nil {
			g.Genre = *upd.Genre
		}
		if upd.Description != nil {
			g.Description = *upd.Description
		}
		if upd.ThumbnailURL != nil {
			g.ThumbnailURL = *upd.ThumbnailURL
		}
		if upd.Status != nil {
			g.Status = *upd.Status
		}
		if upd.Scripts != nil {
			g.Scripts = models.CloneScripts(upd.Scripts)
		}
		if upd.Hierarchy != nil {
			g.Hierarchy = models.CloneNodes(upd.Hierarchy)
		}
		if upd.Specification != nil {
			spec := *upd.Specification
			g.Specification = &spec
		}
		g.LastModified = r.now().Format(models.LastModifiedLayout)
		if err := r.persistLocked(ctx); err != nil {
			return models.Game{}, err
		}
		return g.Clone(), nil
	}
	return models.Game{}, models.ErrGameNotFound
}

// Delete removes the game and persists.
func (r *GameRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.loaded {
		return models.ErrNotInitialized
	}
	for i := range r.games {
		if r.games[i].ID == id {
			r.games = append(r.games[:i], r.games[i+1:]...)
			return r.persistLocked(ctx)
		}
	}
	return models.ErrGameNotFound
}

// Duplicate clones a game under a new identity with a "(Copy)" title suffix,
// prepends the clone, persists, and returns it.
func (r *GameRepository) Duplicate(ctx context.Context, id string) (models.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.loaded {
		return models.Game{}, models.ErrNotInitialized
	}
	for _, g := range r.games {
		if g.ID != id {
			continue
		}
		clone := g.Clone()
		clone.ID = uuid.NewString()
		clone.Title = g.Title + " (Copy)"
		clone.LastModified = r.now().Format(models.LastModifiedLayout)
		r.games = append([]models.Game{clone}, r.games...)
		if err := r.persistLocked(ctx); err != nil {
			return models.Game{}, err
		}
		return clone.Clone(), nil
	}
	return models.Game{}, models.ErrGameNotFound
}

// persistLocked writes the whole collection. Callers hold r.mu.
func (r *GameRepository) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(r.games)
	if err != nil {
		return fmt.Errorf("failed to marshal game collection: %w", err)
	}
	if err := r.store.Set(ctx, storage.KeyGames, data); err != nil {
		return fmt.Errorf("failed to persist game collection: %w", err)
	}
	return nil
}
