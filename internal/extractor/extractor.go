// Package extractor turns free-text patient complaints into structured
// patient info by running the extraction prompt against an LLM provider.
package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/jackzampolin/intake/internal/callog"
	"github.com/jackzampolin/intake/internal/patient"
	"github.com/jackzampolin/intake/internal/prompts"
	"github.com/jackzampolin/intake/internal/prompts/extract"
	"github.com/jackzampolin/intake/internal/providers"
)

// Defaults applied when config values are unset.
const (
	DefaultTemperature = 0.1
	DefaultMaxTokens   = 1024
	DefaultTimeout     = 60 * time.Second
	DefaultMaxAttempts = 3
)

// Config controls extraction behavior.
type Config struct {
	Provider    string  // Registry name of the LLM provider to use
	Model       string  // Overrides the provider default model if set
	Temperature float64 // Sampling temperature (default: 0.1)
	MaxTokens   int     // Response token cap (default: 1024)

	// Timeout bounds the whole extraction including retries and
	// structured output repairs.
	Timeout time.Duration

	// MaxAttempts limits calls for transient provider failures
	// (rate limits, 5xx). Non-transient errors fail immediately.
	MaxAttempts int
	RetryDelay  time.Duration // Base backoff between attempts (default: 1s)

	Logger   *slog.Logger
	Recorder *callog.Recorder // Optional call accounting
}

// Extractor runs structured extraction calls against a provider registry.
type Extractor struct {
	registry    *providers.Registry
	provider    string
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
	maxAttempts int
	retryDelay  time.Duration
	logger      *slog.Logger
	recorder    *callog.Recorder
	promptHash  string
}

// New creates an Extractor using cfg.Provider from the registry.
func New(registry *providers.Registry, cfg Config) *Extractor {
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 1 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Extractor{
		registry:    registry,
		provider:    cfg.Provider,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
		logger:      logger,
		recorder:    cfg.Recorder,
		promptHash:  prompts.HashText(extract.SystemPrompt()),
	}
}

// Provider returns the configured provider name.
func (e *Extractor) Provider() string {
	return e.provider
}

// Result carries the structured info plus the underlying call result.
type Result struct {
	Info       *patient.Info
	ChatResult *providers.ChatResult
}

// Extract validates patientText, runs the extraction prompt, and parses
// the structured response. Empty input returns a *ValidationError
// without making a model call. Call and parse failures return an
// *ExtractionError.
func (e *Extractor) Extract(ctx context.Context, patientText string) (*Result, error) {
	return e.ExtractWithProvider(ctx, "", patientText)
}

// ExtractWithProvider runs the extraction against the named provider
// instead of the configured one. An empty name uses the configured
// provider; an unknown name returns a *ValidationError.
func (e *Extractor) ExtractWithProvider(ctx context.Context, provider, patientText string) (*Result, error) {
	trimmed := strings.TrimSpace(patientText)
	if trimmed == "" {
		return nil, &ValidationError{Field: "patient_text", Reason: "must not be empty"}
	}

	name := provider
	if name == "" {
		name = e.provider
	}
	client, err := e.registry.GetLLM(name)
	if err != nil {
		if provider != "" {
			return nil, &ValidationError{Field: "provider", Reason: fmt.Sprintf("%q is not a configured provider", provider)}
		}
		return nil, &ExtractionError{Provider: name, Stage: "provider", Err: err}
	}

	req := &providers.ChatRequest{
		Messages:       extract.Messages(trimmed),
		Model:          e.model,
		Temperature:    e.temperature,
		MaxTokens:      e.maxTokens,
		Timeout:        e.timeout,
		ResponseFormat: extract.ResponseFormat(),
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var result *providers.ChatResult
	err = retry.Do(
		func() error {
			var callErr error
			result, callErr = client.Chat(callCtx, req)
			return callErr
		},
		retry.Context(callCtx),
		retry.Attempts(uint(e.maxAttempts)),
		retry.Delay(e.retryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(providers.IsRetryable),
	)

	e.record(result)

	if err != nil {
		e.logger.Warn("extraction call failed",
			"provider", name,
			"error", err)
		return nil, &ExtractionError{Provider: name, Stage: "call", Err: err}
	}
	if result == nil || len(result.ParsedJSON) == 0 {
		return nil, &ExtractionError{Provider: name, Stage: "parse", Err: fmt.Errorf("no structured result returned")}
	}

	info, err := extract.ParseResult(result.ParsedJSON)
	if err != nil {
		return nil, &ExtractionError{Provider: name, Stage: "parse", Err: err}
	}

	e.logger.Debug("extraction complete",
		"provider", result.Provider,
		"model", result.ModelUsed,
		"total_tokens", result.TotalTokens,
		"attempts", result.Attempts,
		"latency_ms", result.ExecutionTime.Milliseconds())

	return &Result{Info: info, ChatResult: result}, nil
}

// record captures call accounting, including failed calls.
func (e *Extractor) record(result *providers.ChatResult) {
	if e.recorder == nil || result == nil {
		return
	}
	temp := e.temperature
	e.recorder.Record(result, callog.RecordOptions{
		PromptKey:   extract.SystemPromptKey,
		PromptHash:  e.promptHash,
		Temperature: &temp,
	})
}
