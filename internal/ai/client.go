// Package ai is the gateway to the external generative model. It owns the
// four product contracts (specification synthesis, project-file synthesis,
// thumbnail synthesis and copilot chat) and hides which provider backs them.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"forge-server/internal/models"

	"go.uber.org/zap"
)

// ErrAIGenerationFailed wraps every provider-side failure (network, model,
// or unparseable output).
var ErrAIGenerationFailed = errors.New("ai generation failed")

// UsageInfo reports token accounting for one request. When the provider does
// not return usage, counts are estimated locally.
type UsageInfo struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ProjectFiles is the result of project-file synthesis: the initial file set
// plus the scene hierarchy mirroring the main scene.
type ProjectFiles struct {
	Files     []models.GameScript `json:"files"`
	Hierarchy []models.SceneNode  `json:"hierarchy"`
}

// CopilotRequest carries one copilot exchange: the message, the transcript so
// far, and the current project state the model may propose edits against.
type CopilotRequest struct {
	GameTitle   string
	Message     string
	History     []models.ChatMessage
	Files       []models.GameScript
	Hierarchy   []models.SceneNode
	Attachments []models.Attachment
}

// Client is the AI gateway consumed by the wizard, forge and copilot.
type Client interface {
	// GenerateSpec synthesizes a game specification from the wizard inputs.
	GenerateSpec(ctx context.Context, title string, genre models.Genre, prompt string, attachments []models.Attachment) (*models.Specification, UsageInfo, error)
	// GenerateProjectFiles synthesizes the initial project file set and
	// scene hierarchy for a reviewed specification.
	GenerateProjectFiles(ctx context.Context, title string, genre models.Genre, spec *models.Specification, attachments []models.Attachment) (*ProjectFiles, UsageInfo, error)
	// GenerateThumbnail synthesizes cover art for the prompt. An empty URL
	// with a nil error means the provider produced no image, which is a
	// valid outcome of the contract.
	GenerateThumbnail(ctx context.Context, prompt string) (string, error)
	// CopilotMessage runs one copilot exchange and returns the reply text
	// plus any proposed project updates.
	CopilotMessage(ctx context.Context, req CopilotRequest) (*models.CopilotReply, UsageInfo, error)
}

// Config holds AI gateway settings.
type Config struct {
	ClientType     string // "openai" or "ollama"
	BaseURL        string
	APIKey         string
	Model          string
	ImageModel     string
	Timeout        time.Duration
	MaxAttempts    int
	BaseRetryDelay time.Duration
}

// New builds a Client for the configured provider.
func New(cfg Config, logger *zap.Logger) (Client, error) {
	if cfg.Model == "" {
		return nil, errors.New("ai model name is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseRetryDelay <= 0 {
		cfg.BaseRetryDelay = time.Second
	}

	switch cfg.ClientType {
	case "openai":
		return newOpenAIClient(cfg, logger)
	case "ollama":
		return newOllamaClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown AI client type: %q", cfg.ClientType)
	}
}
