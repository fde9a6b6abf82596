package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"forge-server/internal/models"

	"github.com/pkoukk/tiktoken-go"
	"github.com/prometheus/client_golang/prometheus"
	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// openAIClient implements Client against any OpenAI-compatible endpoint
// (OpenAI itself, OpenRouter, etc.).
type openAIClient struct {
	client         *openaigo.Client
	model          string
	imageModel     string
	timeout        time.Duration
	maxAttempts    int
	baseRetryDelay time.Duration
	logger         *zap.Logger
}

func newOpenAIClient(cfg Config, logger *zap.Logger) (*openAIClient, error) {
	clientCfg := openaigo.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	log := logger.Named("OpenAIClient")
	log.Info("OpenAI client created",
		zap.String("baseURL", clientCfg.BaseURL),
		zap.String("model", cfg.Model),
		zap.Duration("timeout", cfg.Timeout),
	)

	return &openAIClient{
		client:         openaigo.NewClientWithConfig(clientCfg),
		model:          cfg.Model,
		imageModel:     cfg.ImageModel,
		timeout:        cfg.Timeout,
		maxAttempts:    cfg.MaxAttempts,
		baseRetryDelay: cfg.BaseRetryDelay,
		logger:         log,
	}, nil
}

func (c *openAIClient) GenerateSpec(ctx context.Context, title string, genre models.Genre, prompt string, attachments []models.Attachment) (*models.Specification, UsageInfo, error) {
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

func (c *openAIClient) GenerateProjectFiles(ctx context.Context, title string, genre models.Genre, spec *models.Specification, attachments []models.Attachment) (*ProjectFiles, UsageInfo, error) {
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

func (c *openAIClient) GenerateThumbnail(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.client.CreateImage(ctx, openaigo.ImageRequest{
		Prompt:         buildThumbnailPrompt(prompt),
		Model:          c.imageModel,
		N:              1,
		Size:           openaigo.CreateImageSize1792x1024,
		ResponseFormat: openaigo.CreateImageResponseFormatB64JSON,
	})
	duration := time.Since(start)
	aiRequestDuration.With(prometheus.Labels{"model": c.imageModel, "contract": contractThumbnail}).Observe(duration.Seconds())

	if err != nil {
		aiRequestsTotal.With(prometheus.Labels{"model": c.imageModel, "contract": contractThumbnail, "status": "error"}).Inc()
		c.logger.Warn("Thumbnail synthesis failed", zap.Error(err), zap.Duration("duration", duration))
		return "", fmt.Errorf("%w: %v", ErrAIGenerationFailed, err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		// The contract allows "no image" as a valid outcome.
		aiRequestsTotal.With(prometheus.Labels{"model": c.imageModel, "contract": contractThumbnail, "status": "empty"}).Inc()
		return "", nil
	}
	aiRequestsTotal.With(prometheus.Labels{"model": c.imageModel, "contract": contractThumbnail, "status": "success"}).Inc()
	return "data:image/png;base64," + resp.Data[0].B64JSON, nil
}

func (c *openAIClient) CopilotMessage(ctx context.Context, req CopilotRequest) (*models.CopilotReply, UsageInfo, error) {
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

// chatJSON sends one JSON-mode chat completion with a bounded retry loop.
// Image attachments travel as multimodal image parts; other attachments are
// inlined as text context.
func (c *openAIClient) chatJSON(ctx context.Context, contract, systemPrompt, userPrompt string, attachments []models.Attachment) (string, UsageInfo, error) {
	usage := UsageInfo{}
	if strings.TrimSpace(systemPrompt) == "" {
		c.countRequest(contract, "error")
		return "", usage, fmt.Errorf("%w: empty system prompt", ErrAIGenerationFailed)
	}

	messages := []openaigo.ChatCompletionMessage{
		{Role: openaigo.ChatMessageRoleSystem, Content: systemPrompt},
		c.userMessage(userPrompt, attachments),
	}

	req := openaigo.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
		ResponseFormat: &openaigo.ChatCompletionResponseFormat{
			Type: openaigo.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
		start := time.Now()
		resp, err := c.client.CreateChatCompletion(reqCtx, req)
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

		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			lastErr = fmt.Errorf("empty response")
			c.countRequest(contract, "error_empty_response")
			continue
		}

		content := resp.Choices[0].Message.Content
		usage = c.usageFrom(resp.Usage, systemPrompt, userPrompt, content)
		c.countRequest(contract, "success")
		observeUsage(c.model, contract, usage)
		c.logger.Debug("AI request completed",
			zap.String("contract", contract),
			zap.Duration("duration", duration),
			zap.Int("promptTokens", usage.PromptTokens),
			zap.Int("completionTokens", usage.CompletionTokens),
		)
		return content, usage, nil
	}

	return "", usage, fmt.Errorf("%w: %v", ErrAIGenerationFailed, lastErr)
}

// userMessage builds the user turn. With image attachments present the turn
// becomes multimodal; non-image attachments are appended as text blocks since
// chat-completion endpoints only accept image parts.
func (c *openAIClient) userMessage(userPrompt string, attachments []models.Attachment) openaigo.ChatCompletionMessage {
	text := userPrompt
	var imageParts []openaigo.ChatMessagePart
	for _, att := range attachments {
		if att.IsImage() {
			imageParts = append(imageParts, openaigo.ChatMessagePart{
				Type: openaigo.ChatMessagePartTypeImageURL,
				ImageURL: &openaigo.ChatMessageImageURL{
					URL:    fmt.Sprintf("data:%s;base64,%s", att.MimeType, att.Data),
					Detail: openaigo.ImageURLDetailAuto,
				},
			})
		} else {
			text += describeAttachment(att)
		}
	}

	if len(imageParts) == 0 {
		return openaigo.ChatCompletionMessage{Role: openaigo.ChatMessageRoleUser, Content: text}
	}

	parts := append([]openaigo.ChatMessagePart{{Type: openaigo.ChatMessagePartTypeText, Text: text}}, imageParts...)
	return openaigo.ChatCompletionMessage{Role: openaigo.ChatMessageRoleUser, MultiContent: parts}
}

// usageFrom prefers provider-reported usage, estimating with tiktoken when
// the provider omits it (OpenRouter does for some models).
func (c *openAIClient) usageFrom(u openaigo.Usage, systemPrompt, userPrompt, completion string) UsageInfo {
	if u.TotalTokens > 0 {
		return UsageInfo{
			PromptTokens:     u.PromptTokens,
			CompletionTokens: u.CompletionTokens,
			TotalTokens:      u.TotalTokens,
		}
	}
	tke, err := tiktoken.EncodingForModel(c.model)
	if err != nil {
		tke, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return UsageInfo{}
		}
	}
	prompt := len(tke.Encode(systemPrompt, nil, nil)) + len(tke.Encode(userPrompt, nil, nil))
	compl := len(tke.Encode(completion, nil, nil))
	return UsageInfo{PromptTokens: prompt, CompletionTokens: compl, TotalTokens: prompt + compl}
}

func (c *openAIClient) countRequest(contract, status string) {
	aiRequestsTotal.With(prometheus.Labels{"model": c.model, "contract": contract, "status": status}).Inc()
}
