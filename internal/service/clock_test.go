package service

import (
	"context"
	"testing"
	"time"

	"forge-server/internal/repository"
	"forge-server/internal/storage"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeClock fires timers immediately so stage animations and artificial
// delays run their course without real waiting.
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- f.now.Add(d)
	return ch
}

func newTestGameRepo(t *testing.T) *repository.GameRepository {
	t.Helper()
	repo := repository.NewGameRepository(storage.NewMemoryStore(), zap.NewNop())
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func newTestSessionRepo() *repository.SessionRepository {
	return repository.NewSessionRepository(storage.NewMemoryStore(), zap.NewNop())
}
