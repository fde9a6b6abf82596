package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"forge-server/internal/models"
	"forge-server/internal/repository"

	"go.uber.org/zap"
)

var exportNameSanitizer = regexp.MustCompile(`\s+`)

// ExportManifest is a downloadable snapshot of a single project.
type ExportManifest struct {
	Filename string
	Data     []byte
}

// ProjectService exposes the project library: listing with search, partial
// updates, duplication, deletion and manifest export.
type ProjectService struct {
	games  *repository.GameRepository
	logger *zap.Logger
}

func NewProjectService(games *repository.GameRepository, logger *zap.Logger) *ProjectService {
	return &ProjectService{
		games:  games,
		logger: logger.Named("ProjectService"),
	}
}

// List returns projects in library order. A non-empty filter keeps games
// whose title, description or genre contains it, case-insensitively.
func (s *ProjectService) List(ctx context.Context, filter string) ([]models.Game, error) {
	games, err := s.games.List(ctx)
	if err != nil {
		return nil, err
	}
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return games, nil
	}

	needle := strings.ToLower(filter)
	filtered := make([]models.Game, 0, len(games))
	for _, g := range games {
		if strings.Contains(strings.ToLower(g.Title), needle) ||
			strings.Contains(strings.ToLower(g.Description), needle) ||
			strings.Contains(strings.ToLower(string(g.Genre)), needle) {
			filtered = append(filtered, g)
		}
	}
	return filtered, nil
}

func (s *ProjectService) Get(ctx context.Context, id string) (models.Game, error) {
	return s.games.Get(ctx, id)
}

func (s *ProjectService) Update(ctx context.Context, id string, upd models.GameUpdate) (models.Game, error) {
	game, err := s.games.Update(ctx, id, upd)
	if err != nil {
		return models.Game{}, err
	}
	s.logger.Info("Project updated", zap.String("gameID", id))
	return game, nil
}

func (s *ProjectService) Delete(ctx context.Context, id string) error {
	if err := s.games.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Project deleted", zap.String("gameID", id))
	return nil
}

// Duplicate clones a project under a fresh identity and places the copy at
// the top of the library.
func (s *ProjectService) Duplicate(ctx context.Context, id string) (models.Game, error) {
	copy, err := s.games.Duplicate(ctx, id)
	if err != nil {
		return models.Game{}, err
	}
	s.logger.Info("Project duplicated",
		zap.String("sourceID", id),
		zap.String("copyID", copy.ID),
	)
	return copy, nil
}

// Export serializes the full project state as an indented JSON manifest.
// The filename is the title with whitespace runs collapsed to underscores.
func (s *ProjectService) Export(ctx context.Context, id string) (ExportManifest, error) {
	game, err := s.games.Get(ctx, id)
	if err != nil {
		return ExportManifest{}, err
	}

	data, err := json.MarshalIndent(game, "", "  ")
	if err != nil {
		return ExportManifest{}, fmt.Errorf("marshal manifest: %w", err)
	}

	name := exportNameSanitizer.ReplaceAllString(game.Title, "_") + "_manifest.json"
	return ExportManifest{Filename: name, Data: data}, nil
}
