package service

import (
	"context"
	"sync"
	"time"

	"forge-server/internal/ai"
	"forge-server/internal/models"
	"forge-server/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StageStatus tracks a forge stage through its lifecycle.
type StageStatus string

const (
	StagePending    StageStatus = "pending"
	StageProcessing StageStatus = "processing"
	StageCompleted  StageStatus = "completed"
)

// ForgeStage is one step of the visible forging sequence.
type ForgeStage struct {
	ID     string      `json:"id"`
	Label  string      `json:"label"`
	Icon   string      `json:"icon"`
	Status StageStatus `json:"status"`
}

func defaultStages() []ForgeStage {
	return []ForgeStage{
		{ID: "analyze", Label: "Analyzing your concept", Icon: "✨", Status: StagePending},
		{ID: "spec", Label: "Creating game specification", Icon: "📄", Status: StagePending},
		{ID: "model", Label: "Generating 3D models", Icon: "📦", Status: StagePending},
		{ID: "map", Label: "Building game maps", Icon: "🗺️", Status: StagePending},
		{ID: "audio", Label: "Composing audio assets", Icon: "🎵", Status: StagePending},
		{ID: "anim", Label: "Creating animations", Icon: "🎞️", Status: StagePending},
		{ID: "godot", Label: "Assembling in Godot", Icon: "🛠️", Status: StagePending},
	}
}

// RunStatus is the overall state of one forge run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// ForgeRun is a point-in-time snapshot of a forge run.
type ForgeRun struct {
	ID     string       `json:"id"`
	Status RunStatus    `json:"status"`
	Stages []ForgeStage `json:"stages"`
	GameID string       `json:"gameId,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// Notifier pushes forge progress to connected clients.
type Notifier interface {
	NotifyStage(forgeID string, stages []ForgeStage)
	NotifyDone(forgeID string, run ForgeRun)
}

type forgeRun struct {
	mu     sync.Mutex
	id     string
	status RunStatus
	stages []ForgeStage
	gameID string
	errMsg string
	done   chan struct{}
}

func (r *forgeRun) snapshot() ForgeRun {
	r.mu.Lock()
	defer r.mu.Unlock()
	stages := make([]ForgeStage, len(r.stages))
	copy(stages, r.stages)
	return ForgeRun{ID: r.id, Status: r.status, Stages: stages, GameID: r.gameID, Error: r.errMsg}
}

// ForgeService turns a completed wizard request into a persisted project.
// Thumbnail and project-file synthesis run concurrently while the stage
// sequence animates alongside them. The first synthesis failure aborts the
// run and nothing is persisted.
type ForgeService struct {
	ai            ai.Client
	games         *repository.GameRepository
	notifier      Notifier
	clock         Clock
	stageInterval time.Duration
	logger        *zap.Logger

	mu       sync.RWMutex
	runs     map[string]*forgeRun
	finished []string
}

// maxFinishedRuns bounds how many completed or failed runs stay queryable
// through Snapshot before the oldest are evicted.
const maxFinishedRuns = 32

func NewForgeService(aiClient ai.Client, games *repository.GameRepository, notifier Notifier, clock Clock, stageInterval time.Duration, logger *zap.Logger) *ForgeService {
	return &ForgeService{
		ai:            aiClient,
		games:         games,
		notifier:      notifier,
		clock:         clock,
		stageInterval: stageInterval,
		logger:        logger.Named("ForgeService"),
		runs:          make(map[string]*forgeRun),
	}
}

// Start launches a forge run in the background and returns its initial
// snapshot. Progress is pushed through the Notifier and available via
// Snapshot.
func (s *ForgeService) Start(req CreationRequest) ForgeRun {
	run := &forgeRun{
		id:     uuid.NewString(),
		status: RunRunning,
		stages: defaultStages(),
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	s.runs[run.id] = run
	s.mu.Unlock()

	s.logger.Info("Forge run started",
		zap.String("forgeID", run.id),
		zap.String("title", req.Title),
		zap.String("genre", string(req.Genre)),
	)

	// Runs survive the originating request.
	go s.execute(context.Background(), run, req)

	return run.snapshot()
}

// Snapshot returns the current state of a run.
func (s *ForgeService) Snapshot(forgeID string) (ForgeRun, error) {
	s.mu.RLock()
	run, ok := s.runs[forgeID]
	s.mu.RUnlock()
	if !ok {
		return ForgeRun{}, models.ErrForgeNotFound
	}
	return run.snapshot(), nil
}

// Wait blocks until the run finishes or the context is cancelled. Intended
// for tests and synchronous callers.
func (s *ForgeService) Wait(ctx context.Context, forgeID string) (ForgeRun, error) {
	s.mu.RLock()
	run, ok := s.runs[forgeID]
	s.mu.RUnlock()
	if !ok {
		return ForgeRun{}, models.ErrForgeNotFound
	}
	select {
	case <-run.done:
		return run.snapshot(), nil
	case <-ctx.Done():
		return ForgeRun{}, ctx.Err()
	}
}

type thumbnailResult struct {
	url string
	err error
}

type filesResult struct {
	files *ai.ProjectFiles
	err   error
}

func (s *ForgeService) execute(ctx context.Context, run *forgeRun, req CreationRequest) {
	thumbCh := make(chan thumbnailResult, 1)
	filesCh := make(chan filesResult, 1)

	go func() {
		prompt := req.Description
		if req.Spec != nil && req.Spec.AIPromptForThumbnail != "" {
			prompt = req.Spec.AIPromptForThumbnail
		}
		url, err := s.ai.GenerateThumbnail(ctx, prompt)
		thumbCh <- thumbnailResult{url: url, err: err}
	}()

	go func() {
		files, _, err := s.ai.GenerateProjectFiles(ctx, req.Title, req.Genre, req.Spec, req.Attachments)
		filesCh <- filesResult{files: files, err: err}
	}()

	stageStop := make(chan struct{})
	stageDone := make(chan struct{})
	go s.animateStages(run, stageStop, stageDone)

	thumb := <-thumbCh
	files := <-filesCh

	if err := firstError(thumb.err, files.err); err != nil {
		close(stageStop)
		<-stageDone
		s.finish(run, ForgeRun{}, err)
		return
	}

	// Let the visible sequence play out before revealing the result.
	<-stageDone

	game := models.Game{
		ID:            uuid.NewString(),
		Title:         req.Title,
		Genre:         req.Genre,
		Description:   req.Description,
		ThumbnailURL:  thumb.url,
		Status:        models.StatusInDevelopment,
		LastModified:  s.clock.Now().Format(models.LastModifiedLayout),
		Assets:        []models.GameAsset{},
		Scripts:       files.files.Files,
		Hierarchy:     files.files.Hierarchy,
		Specification: req.Spec,
	}

	if err := s.games.Prepend(ctx, game); err != nil {
		s.finish(run, ForgeRun{}, err)
		return
	}

	s.finish(run, ForgeRun{GameID: game.ID}, nil)
}

// animateStages walks the stage list: each stage turns processing, holds for
// one interval, then completes. Every transition is pushed to the notifier.
func (s *ForgeService) animateStages(run *forgeRun, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for i := range defaultStages() {
		run.mu.Lock()
		run.stages[i].Status = StageProcessing
		stages := make([]ForgeStage, len(run.stages))
		copy(stages, run.stages)
		run.mu.Unlock()
		s.notifier.NotifyStage(run.id, stages)

		select {
		case <-s.clock.After(s.stageInterval):
		case <-stop:
			return
		}

		run.mu.Lock()
		run.stages[i].Status = StageCompleted
		stages = make([]ForgeStage, len(run.stages))
		copy(stages, run.stages)
		run.mu.Unlock()
		s.notifier.NotifyStage(run.id, stages)
	}
}

func (s *ForgeService) finish(run *forgeRun, result ForgeRun, err error) {
	run.mu.Lock()
	if err != nil {
		run.status = RunFailed
		run.errMsg = err.Error()
	} else {
		run.status = RunCompleted
		run.gameID = result.GameID
		for i := range run.stages {
			run.stages[i].Status = StageCompleted
		}
	}
	run.mu.Unlock()
	// Retire before releasing waiters so a Wait followed by Snapshot sees a
	// settled registry.
	s.retireRun(run.id)
	close(run.done)

	snap := run.snapshot()
	if err != nil {
		s.logger.Warn("Forge run failed", zap.String("forgeID", run.id), zap.Error(err))
	} else {
		s.logger.Info("Forge run completed",
			zap.String("forgeID", run.id),
			zap.String("gameID", snap.GameID),
		)
	}
	s.notifier.NotifyDone(run.id, snap)
}

// retireRun records a finished run and evicts the oldest finished runs
// beyond the retention cap so the registry cannot grow without bound.
func (s *ForgeService) retireRun(forgeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished = append(s.finished, forgeID)
	for len(s.finished) > maxFinishedRuns {
		evicted := s.finished[0]
		s.finished = s.finished[1:]
		delete(s.runs, evicted)
	}
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
