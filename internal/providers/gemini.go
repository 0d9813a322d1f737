package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	genai "google.golang.org/genai"
)

const (
	GeminiName         = "gemini"
	geminiDefaultModel = "gemini-2.5-flash"
)

// GeminiConfig holds configuration for the Gemini chat client.
type GeminiConfig struct {
	APIKey       string
	DefaultModel string
	// Rate limiting
	RPM int // Requests per minute (default: 15, the free-tier limit)
}

// GeminiClient implements LLMClient using the official genai SDK. Gemini
// has no strict schema enforcement for arbitrary JSON schemas, so requests
// ask for application/json and rely on local validation plus self-repair.
type GeminiClient struct {
	apiKey       string
	defaultModel string
	rpm          int
	limiter      *RateLimiter

	mu  sync.Mutex
	cli *genai.Client
}

// NewGeminiClient creates a new Gemini chat client. The underlying SDK
// client is created lazily on first use because construction needs a
// context.
func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = geminiDefaultModel
	}
	if cfg.RPM <= 0 {
		cfg.RPM = 15
	}

	return &GeminiClient{
		apiKey:       cfg.APIKey,
		defaultModel: cfg.DefaultModel,
		rpm:          cfg.RPM,
		limiter:      NewRateLimiter(cfg.RPM),
	}
}

// Name returns the client identifier.
func (c *GeminiClient) Name() string {
	return GeminiName
}

// LimiterStatus returns the current rate limiter state.
func (c *GeminiClient) LimiterStatus() RateLimiterStatus {
	return c.limiter.Status()
}

func (c *GeminiClient) client(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cli != nil {
		return c.cli, nil
	}

	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	c.cli = cli
	return cli, nil
}

// Chat sends a chat completion request.
func (c *GeminiClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	result := &ChatResult{
		RequestID: requestID,
		Provider:  GeminiName,
		Attempts:  1,
	}

	raw := func(ctx context.Context, messages []Message) (string, tokenUsage, error) {
		return c.rawChat(ctx, model, messages, req)
	}

	content, usage, err := raw(ctx, req.Messages)
	result.PromptTokens = usage.prompt
	result.CompletionTokens = usage.completion
	result.TotalTokens = usage.total
	if err != nil {
		result.Success = false
		result.ErrorType = errorType(err)
		result.ErrorMessage = err.Error()
		if rle, ok := IsRateLimitError(err); ok {
			result.RetryAfter = rle.RetryAfter
		}
		result.TotalTime = time.Since(start)
		return result, err
	}

	result.Success = true
	result.Content = content
	result.ModelUsed = model
	result.ExecutionTime = time.Since(start)

	if req.ResponseFormat != nil && content != "" {
		parsed, sErr := resolveStructured(ctx, req, result, content, raw)
		if sErr != nil {
			result.Success = false
			result.ErrorType = "structured_output"
			result.ErrorMessage = sErr.Error()
			result.TotalTime = time.Since(start)
			return result, sErr
		}
		result.ParsedJSON = parsed
	}

	result.TotalTime = time.Since(start)
	return result, nil
}

// rawChat performs one GenerateContent call.
func (c *GeminiClient) rawChat(ctx context.Context, model string, messages []Message, req *ChatRequest) (string, tokenUsage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", tokenUsage{}, err
	}

	cli, err := c.client(ctx)
	if err != nil {
		return "", tokenUsage{}, err
	}

	cfg := &genai.GenerateContentConfig{}
	if req.ResponseFormat != nil {
		cfg.ResponseMIMEType = "application/json"
	}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	// Gemini carries the system prompt as a config-level instruction, not
	// a conversation turn. Assistant turns map to role "model".
	var contents []*genai.Content
	for _, m := range messages {
		switch m.Role {
		case "system":
			cfg.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: m.Content}},
			}
		case "assistant":
			contents = append(contents, &genai.Content{
				Role:  "model",
				Parts: []*genai.Part{{Text: m.Content}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{Text: m.Content}},
			})
		}
	}

	resp, err := cli.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", tokenUsage{}, c.mapError(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", tokenUsage{}, fmt.Errorf("no candidates in response")
	}

	var usage tokenUsage
	if resp.UsageMetadata != nil {
		usage = tokenUsage{
			prompt:     int(resp.UsageMetadata.PromptTokenCount),
			completion: int(resp.UsageMetadata.CandidatesTokenCount),
			total:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return resp.Candidates[0].Content.Parts[0].Text, usage, nil
}

func (c *GeminiClient) mapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests {
			c.limiter.Record429(time.Second)
			return &RateLimitError{
				Message:    fmt.Sprintf("Gemini rate limited: %s", apiErr.Message),
				StatusCode: apiErr.Code,
			}
		}
		return &ServerError{
			Provider:   "Gemini",
			StatusCode: apiErr.Code,
			Message:    apiErr.Message,
		}
	}
	return err
}

// Verify interface
var _ LLMClient = (*GeminiClient)(nil)
