package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"forge-server/internal/models"

	ollamaapi "github.com/ollama/ollama/api"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// ollamaClient implements Client against a local Ollama daemon. It has no
// image synthesis backend, so thumbnails come back empty.
type ollamaClient struct {
	client         *ollamaapi.Client
	model          string
	timeout        time.Duration
	maxAttempts    int
	baseRetryDelay time.Duration
	logger         *zap.Logger
}

func newOllamaClient(cfg Config, logger *zap.Logger) (*ollamaClient, error) {
	// The shared base URL setting may point at an OpenAI-compatible path;
	// the native API lives at the host root.
	base := strings.TrimSuffix(strings.TrimSuffix(cfg.BaseURL, "/"), "/v1")
	if base == "" {
		base = "http://localhost:11434"
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse ollama base url: %w", err)
	}

	log := logger.Named("OllamaClient")
	log.Info("Ollama client created",
		zap.String("baseURL", parsed.String()),
		zap.String("model", cfg.Model),
		zap.Duration("timeout", cfg.Timeout),
	)

	return &ollamaClient{
		client:         ollamaapi.NewClient(parsed, &http.Client{Timeout: cfg.Timeout}),
		model:          cfg.Model,
		timeout:        cfg.Timeout,
		maxAttempts:    cfg.MaxAttempts,
		baseRetryDelay: cfg.BaseRetryDelay,
		logger:         log,
	}, nil
}

func (c *ollamaClient) GenerateSpec(ctx context.Context, title string, genre models.Genre, prompt string, attachments []models.Attachment) (*models.Specification, UsageInfo, error) {
	raw, usage, err := c.chatJSON(ctx, contractSpec, specSystemInstruction, buildSpecPrompt(title, genre, prompt), attachments)
	if err != nil {
		return nil, usage, err
	}
	spec, err := ParseSpecification(raw)
	if err != nil {
		c.countRequest(contractSpec, "error_parse")
		return nil, usage, err
	}
	return spec, usage, nil
}

func (c *ollamaClient) GenerateProjectFiles(ctx context.Context, title string, genre models.Genre, spec *models.Specification, attachments []models.Attachment) (*ProjectFiles, UsageInfo, error) {
	raw, usage, err := c.chatJSON(ctx, contractFiles, projectFilesSystemInstruction, buildProjectFilesPrompt(title, genre, spec), attachments)
	if err != nil {
		return nil, usage, err
	}
	pf, err := ParseProjectFiles(raw)
	if err != nil {
		c.countRequest(contractFiles, "error_parse")
		return nil, usage, err
	}
	return pf, usage, nil
}

// GenerateThumbnail reports "no image available" rather than an error so a
// local setup still forges playable projects.
func (c *ollamaClient) GenerateThumbnail(ctx context.Context, prompt string) (string, error) {
	c.logger.Debug("Thumbnail synthesis skipped, backend has no image model")
	aiRequestsTotal.With(prometheus.Labels{"model": c.model, "contract": contractThumbnail, "status": "empty"}).Inc()
	return "", nil
}

func (c *ollamaClient) CopilotMessage(ctx context.Context, req CopilotRequest) (*models.CopilotReply, UsageInfo, error) {
	raw, usage, err := c.chatJSON(ctx, contractCopilot, copilotSystemInstruction, buildCopilotPrompt(req), req.Attachments)
	if err != nil {
		return nil, usage, err
	}
	reply, err := ParseCopilotReply(raw)
	if err != nil {
		c.countRequest(contractCopilot, "error_parse")
		return nil, usage, err
	}
	return reply, usage, nil
}

func (c *ollamaClient) chatJSON(ctx context.Context, contract, systemPrompt, userPrompt string, attachments []models.Attachment) (string, UsageInfo, error) {
	usage := UsageInfo{}

	userMsg := ollamaapi.Message{Role: "user", Content: userPrompt}
	for _, att := range attachments {
		if att.IsImage() {
			data, err := base64.StdEncoding.DecodeString(att.Data)
			if err != nil {
				c.logger.Warn("Skipping undecodable image attachment", zap.String("name", att.Name), zap.Error(err))
				continue
			}
			userMsg.Images = append(userMsg.Images, ollamaapi.ImageData(data))
		} else {
			userMsg.Content += describeAttachment(att)
		}
	}

	stream := false
	req := &ollamaapi.ChatRequest{
		Model:  c.model,
		Format: []byte(`"json"`),
		Stream: &stream,
		Messages: []ollamaapi.Message{
			{Role: "system", Content: systemPrompt},
			userMsg,
		},
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
		start := time.Now()

		var content string
		var respUsage UsageInfo
		err := c.client.Chat(reqCtx, req, func(resp ollamaapi.ChatResponse) error {
			content += resp.Message.Content
			if resp.Done {
				respUsage = UsageInfo{
					PromptTokens:     resp.Metrics.PromptEvalCount,
					CompletionTokens: resp.Metrics.EvalCount,
					TotalTokens:      resp.Metrics.PromptEvalCount + resp.Metrics.EvalCount,
				}
			}
			return nil
		})
		duration := time.Since(start)
		cancel()

		aiRequestDuration.With(prometheus.Labels{"model": c.model, "contract": contract}).Observe(duration.Seconds())

		if err != nil {
			lastErr = err
			c.countRequest(contract, "error")
			c.logger.Warn("AI request failed",
				zap.String("contract", contract),
				zap.Int("attempt", attempt),
				zap.Int("maxAttempts", c.maxAttempts),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
			if attempt < c.maxAttempts {
				select {
				case <-time.After(c.baseRetryDelay * time.Duration(attempt)):
				case <-ctx.Done():
					return "", usage, fmt.Errorf("%w: %v", ErrAIGenerationFailed, ctx.Err())
				}
			}
			continue
		}

		if content == "" {
			lastErr = fmt.Errorf("empty response")
			c.countRequest(contract, "error_empty_response")
			continue
		}

		usage = respUsage
		c.countRequest(contract, "success")
		observeUsage(c.model, contract, usage)
		return content, usage, nil
	}

	return "", usage, fmt.Errorf("%w: %v", ErrAIGenerationFailed, lastErr)
}

func (c *ollamaClient) countRequest(contract, status string) {
	aiRequestsTotal.With(prometheus.Labels{"model": c.model, "contract": contract, "status": status}).Inc()
}
