package service

import (
	"context"
	"fmt"
	"sync"

	"forge-server/internal/ai"
	"forge-server/internal/annotate"
	"forge-server/internal/models"
	"forge-server/internal/repository"

	"go.uber.org/zap"
)

// Panel clamp bounds and defaults, in pixels.
const (
	LeftPanelMin     = 150
	LeftPanelMax     = 500
	LeftPanelDefault = 288

	RightPanelMin     = 200
	RightPanelMax     = 600
	RightPanelDefault = 320

	BottomPanelMin     = 50
	BottomPanelMax     = 400
	BottomPanelDefault = 128
)

// DefaultDrawColor is the annotation pen color until the user picks another.
const DefaultDrawColor = "#3b82f6"

// PanelSide names a resizable panel.
type PanelSide string

const (
	PanelLeft   PanelSide = "left"
	PanelRight  PanelSide = "right"
	PanelBottom PanelSide = "bottom"
)

// PanelLayout is the editor's panel geometry.
type PanelLayout struct {
	LeftWidth    int `json:"leftWidth"`
	RightWidth   int `json:"rightWidth"`
	BottomHeight int `json:"bottomHeight"`
}

func defaultLayout() PanelLayout {
	return PanelLayout{
		LeftWidth:    LeftPanelDefault,
		RightWidth:   RightPanelDefault,
		BottomHeight: BottomPanelDefault,
	}
}

// editorSession is one user's open editor. Files and hierarchy are working
// copies; content edits, file adds and deletes push back to the project
// store, tab closes do not.
type editorSession struct {
	gameID         string
	title          string
	files          []models.GameScript
	hierarchy      []models.SceneNode
	activeFilename string
	layout         PanelLayout
	resizeTarget   PanelSide

	transcript       []models.ChatMessage
	exchangeInFlight bool

	annotating   bool
	drawColor    string
	strokes      []annotate.Stroke
	canvasWidth  int
	canvasHeight int
}

// EditorView is the snapshot handed to transports.
type EditorView struct {
	GameID         string               `json:"gameId"`
	Title          string               `json:"title"`
	Files          []models.GameScript  `json:"files"`
	Hierarchy      []models.SceneNode   `json:"hierarchy"`
	ActiveFilename string               `json:"activeFilename"`
	Layout         PanelLayout          `json:"layout"`
	Transcript     []models.ChatMessage `json:"transcript"`
	Annotating     bool                 `json:"annotating"`
	DrawColor      string               `json:"drawColor"`
}

// EditorService manages per-user editor sessions: tabs, file operations,
// panel resizing and the annotation overlay.
type EditorService struct {
	games  *repository.GameRepository
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*editorSession
}

func NewEditorService(games *repository.GameRepository, logger *zap.Logger) *EditorService {
	return &EditorService{
		games:    games,
		logger:   logger.Named("EditorService"),
		sessions: make(map[string]*editorSession),
	}
}

func (s *editorSession) view() EditorView {
	return EditorView{
		GameID:         s.gameID,
		Title:          s.title,
		Files:          models.CloneScripts(s.files),
		Hierarchy:      models.CloneNodes(s.hierarchy),
		ActiveFilename: s.activeFilename,
		Layout:         s.layout,
		Transcript:     append([]models.ChatMessage(nil), s.transcript...),
		Annotating:     s.annotating,
		DrawColor:      s.drawColor,
	}
}

// Open loads a project into the user's editor. Reopening the same project
// keeps the session as is; opening a different one reseeds it from the
// stored record.
func (s *EditorService) Open(ctx context.Context, userID, gameID string) (EditorView, error) {
	game, err := s.games.Get(ctx, gameID)
	if err != nil {
		return EditorView{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[userID]; ok && sess.gameID == gameID {
		sess.title = game.Title
		return sess.view(), nil
	}

	sess := &editorSession{
		gameID:    gameID,
		title:     game.Title,
		files:     models.CloneScripts(game.Scripts),
		hierarchy: models.CloneNodes(game.Hierarchy),
		layout:    defaultLayout(),
		drawColor: DefaultDrawColor,
		transcript: []models.ChatMessage{{
			Role: models.RoleModel,
			Text: fmt.Sprintf("Polarity Studio ready for %q. How can I update your project today?", game.Title),
		}},
	}
	if len(sess.files) > 0 {
		sess.activeFilename = sess.files[0].Filename
	}
	s.sessions[userID] = sess

	s.logger.Info("Editor opened", zap.String("userID", userID), zap.String("gameID", gameID))
	return sess.view(), nil
}

func (s *EditorService) session(userID string) (*editorSession, error) {
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	return sess, nil
}

// View returns the current session snapshot.
func (s *EditorService) View(userID string) (EditorView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(userID)
	if err != nil {
		return EditorView{}, err
	}
	return sess.view(), nil
}

// SetContent replaces a file's content and pushes the file set back to the
// project store.
func (s *EditorService) SetContent(ctx context.Context, userID, filename, content string) (EditorView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(userID)
	if err != nil {
		return EditorView{}, err
	}

	found := false
	for i := range sess.files {
		if sess.files[i].Filename == filename {
			sess.files[i].Content = content
			found = true
			break
		}
	}
	if !found {
		return EditorView{}, models.ErrFileNotFound
	}

	if err := s.persistFilesLocked(ctx, sess); err != nil {
		return EditorView{}, err
	}
	return sess.view(), nil
}

// SwitchTab activates an open file.
func (s *EditorService) SwitchTab(userID, filename string) (EditorView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(userID)
	if err != nil {
		return EditorView{}, err
	}
	for _, f := range sess.files {
		if f.Filename == filename {
			sess.activeFilename = filename
			return sess.view(), nil
		}
	}
	return EditorView{}, models.ErrFileNotFound
}

// AddFile creates a new script with the first free NewFile_N.gd name, makes
// it active and persists the file set.
func (s *EditorService) AddFile(ctx context.Context, userID string) (EditorView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(userID)
	if err != nil {
		return EditorView{}, err
	}

	name := ""
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("NewFile_%d.gd", n)
		if !hasFile(sess.files, candidate) {
			name = candidate
			break
		}
	}

	sess.files = append(sess.files, models.GameScript{
		Filename: name,
		Content:  "extends Node\n",
		Type:     models.ScriptTypeScript,
	})
	sess.activeFilename = name

	if err := s.persistFilesLocked(ctx, sess); err != nil {
		return EditorView{}, err
	}
	s.logger.Info("File added", zap.String("userID", userID), zap.String("filename", name))
	return sess.view(), nil
}

// CloseTab removes a file from the working set without touching the stored
// project. The last open file cannot be closed.
func (s *EditorService) CloseTab(userID, filename string) (EditorView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(userID)
	if err != nil {
		return EditorView{}, err
	}
	if len(sess.files) <= 1 {
		return EditorView{}, models.ErrLastFile
	}
	if err := sess.removeFile(filename); err != nil {
		return EditorView{}, err
	}
	return sess.view(), nil
}

// DeleteFile removes a file from the working set and the stored project.
// The last remaining file cannot be deleted.
func (s *EditorService) DeleteFile(ctx context.Context, userID, filename string) (EditorView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(userID)
	if err != nil {
		return EditorView{}, err
	}
	if len(sess.files) <= 1 {
		return EditorView{}, models.ErrLastFile
	}
	if err := sess.removeFile(filename); err != nil {
		return EditorView{}, err
	}

	if err := s.persistFilesLocked(ctx, sess); err != nil {
		return EditorView{}, err
	}
	s.logger.Info("File deleted", zap.String("userID", userID), zap.String("filename", filename))
	return sess.view(), nil
}

// ReplaceHierarchy swaps the scene tree wholesale after validation and
// persists it.
func (s *EditorService) ReplaceHierarchy(ctx context.Context, userID string, nodes []models.SceneNode) (EditorView, error) {
	if err := ai.ValidateHierarchy(nodes); err != nil {
		return EditorView{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(userID)
	if err != nil {
		return EditorView{}, err
	}
	sess.hierarchy = models.CloneNodes(nodes)

	if _, err := s.games.Update(ctx, sess.gameID, models.GameUpdate{Hierarchy: sess.hierarchy}); err != nil {
		return EditorView{}, err
	}
	return sess.view(), nil
}

// BeginResize claims a panel drag. Only one drag can be active per session.
func (s *EditorService) BeginResize(userID string, side PanelSide) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(userID)
	if err != nil {
		return err
	}
	switch side {
	case PanelLeft, PanelRight, PanelBottom:
	default:
		return models.ErrInvalidInput
	}
	if sess.resizeTarget != "" {
		return models.ErrResizeBusy
	}
	sess.resizeTarget = side
	return nil
}

// DragResize applies a drag position to the active panel, clamped to the
// panel's bounds.
func (s *EditorService) DragResize(userID string, position int) (PanelLayout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(userID)
	if err != nil {
		return PanelLayout{}, err
	}
	switch sess.resizeTarget {
	case PanelLeft:
		sess.layout.LeftWidth = clamp(position, LeftPanelMin, LeftPanelMax)
	case PanelRight:
		sess.layout.RightWidth = clamp(position, RightPanelMin, RightPanelMax)
	case PanelBottom:
		sess.layout.BottomHeight = clamp(position, BottomPanelMin, BottomPanelMax)
	default:
		return PanelLayout{}, models.ErrInvalidInput
	}
	return sess.layout, nil
}

// EndResize releases the active drag. Idempotent.
func (s *EditorService) EndResize(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(userID)
	if err != nil {
		return err
	}
	sess.resizeTarget = ""
	return nil
}

// BeginAnnotation enters annotation mode over a canvas of the given size.
// Starting over discards previous strokes.
func (s *EditorService) BeginAnnotation(userID string, width, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(userID)
	if err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		return models.ErrInvalidInput
	}
	sess.annotating = true
	sess.strokes = nil
	sess.canvasWidth = width
	sess.canvasHeight = height
	return nil
}

// AddStroke records a finished pen stroke in the current draw color.
func (s *EditorService) AddStroke(userID string, points []annotate.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(userID)
	if err != nil {
		return err
	}
	if !sess.annotating || len(points) == 0 {
		return models.ErrInvalidInput
	}
	sess.strokes = append(sess.strokes, annotate.Stroke{Color: sess.drawColor, Points: points})
	return nil
}

// SetDrawColor changes the pen color for subsequent strokes.
func (s *EditorService) SetDrawColor(userID, color string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(userID)
	if err != nil {
		return err
	}
	if color == "" {
		return models.ErrInvalidInput
	}
	sess.drawColor = color
	return nil
}

// CancelAnnotation leaves annotation mode and drops any strokes.
func (s *EditorService) CancelAnnotation(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(userID)
	if err != nil {
		return err
	}
	sess.annotating = false
	sess.strokes = nil
	return nil
}

func (s *EditorService) persistFilesLocked(ctx context.Context, sess *editorSession) error {
	_, err := s.games.Update(ctx, sess.gameID, models.GameUpdate{Scripts: models.CloneScripts(sess.files)})
	return err
}

// removeFile drops a file and moves the active tab to a neighbor when the
// active file goes away.
func (s *editorSession) removeFile(filename string) error {
	idx := -1
	for i, f := range s.files {
		if f.Filename == filename {
			idx = i
			break
		}
	}
	if idx == -1 {
		return models.ErrFileNotFound
	}

	s.files = append(s.files[:idx], s.files[idx+1:]...)
	if s.activeFilename == filename {
		next := idx - 1
		if next < 0 {
			next = 0
		}
		s.activeFilename = s.files[next].Filename
	}
	return nil
}

func hasFile(files []models.GameScript, filename string) bool {
	for _, f := range files {
		if f.Filename == filename {
			return true
		}
	}
	return false
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
