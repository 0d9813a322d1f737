package extractor

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackzampolin/intake/internal/callog"
	"github.com/jackzampolin/intake/internal/providers"
)

var headacheJSON = json.RawMessage(`{
	"primary_symptom": "headache",
	"severity": "severe",
	"duration": "two days",
	"associated_symptoms": ["nausea", "light sensitivity"],
	"medical_history": []
}`)

func newTestExtractor(t *testing.T, mock *providers.MockClient, cfg Config) *Extractor {
	t.Helper()
	registry := providers.NewRegistry()
	registry.RegisterLLM("mock", mock)
	if cfg.Provider == "" {
		cfg.Provider = "mock"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	return New(registry, cfg)
}

func TestExtract(t *testing.T) {
	t.Run("structured extraction", func(t *testing.T) {
		mock := providers.NewMockClient()
		mock.ResponseJSON = headacheJSON
		ext := newTestExtractor(t, mock, Config{})

		result, err := ext.Extract(context.Background(), "I have had a severe headache for two days with nausea and light sensitivity.")
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}

		info := result.Info
		if info.PrimarySymptom == nil || *info.PrimarySymptom != "headache" {
			t.Errorf("PrimarySymptom = %v, want headache", info.PrimarySymptom)
		}
		if info.Severity == nil || *info.Severity != "severe" {
			t.Errorf("Severity = %v, want severe", info.Severity)
		}
		if info.Duration == nil || *info.Duration != "two days" {
			t.Errorf("Duration = %v, want two days", info.Duration)
		}
		if len(info.AssociatedSymptoms) != 2 || info.AssociatedSymptoms[0] != "nausea" {
			t.Errorf("AssociatedSymptoms = %v, want [nausea light sensitivity]", info.AssociatedSymptoms)
		}
		if info.MedicalHistory == nil || len(info.MedicalHistory) != 0 {
			t.Errorf("MedicalHistory = %v, want empty slice", info.MedicalHistory)
		}
		if result.ChatResult == nil || !result.ChatResult.Success {
			t.Error("expected successful chat result")
		}
	})

	t.Run("empty input makes no call", func(t *testing.T) {
		mock := providers.NewMockClient()
		ext := newTestExtractor(t, mock, Config{})

		_, err := ext.Extract(context.Background(), "")
		if _, ok := IsValidationError(err); !ok {
			t.Fatalf("expected ValidationError, got %T: %v", err, err)
		}
		if mock.RequestCount() != 0 {
			t.Fatalf("expected no provider calls, got %d", mock.RequestCount())
		}
	})

	t.Run("whitespace input makes no call", func(t *testing.T) {
		mock := providers.NewMockClient()
		ext := newTestExtractor(t, mock, Config{})

		_, err := ext.Extract(context.Background(), "   \n\t  ")
		if _, ok := IsValidationError(err); !ok {
			t.Fatalf("expected ValidationError, got %T: %v", err, err)
		}
		if mock.RequestCount() != 0 {
			t.Fatalf("expected no provider calls, got %d", mock.RequestCount())
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		mock := providers.NewMockClient()
		ext := newTestExtractor(t, mock, Config{Provider: "missing"})

		_, err := ext.Extract(context.Background(), "headache")
		ee, ok := IsExtractionError(err)
		if !ok {
			t.Fatalf("expected ExtractionError, got %T: %v", err, err)
		}
		if ee.Stage != "provider" {
			t.Errorf("Stage = %q, want provider", ee.Stage)
		}
	})

	t.Run("provider override", func(t *testing.T) {
		deflt := providers.NewMockClient()
		deflt.ShouldFail = true
		other := providers.NewMockClient()
		other.ResponseJSON = headacheJSON

		registry := providers.NewRegistry()
		registry.RegisterLLM("default", deflt)
		registry.RegisterLLM("other", other)
		ext := New(registry, Config{Provider: "default", Timeout: 5 * time.Second})

		result, err := ext.ExtractWithProvider(context.Background(), "other", "severe headache for two days")
		if err != nil {
			t.Fatalf("ExtractWithProvider() error = %v", err)
		}
		if result.Info.PrimarySymptom == nil || *result.Info.PrimarySymptom != "headache" {
			t.Errorf("PrimarySymptom = %v, want headache", result.Info.PrimarySymptom)
		}
		if deflt.RequestCount() != 0 {
			t.Errorf("default provider called %d times, want 0", deflt.RequestCount())
		}
	})

	t.Run("unknown provider override", func(t *testing.T) {
		mock := providers.NewMockClient()
		ext := newTestExtractor(t, mock, Config{})

		_, err := ext.ExtractWithProvider(context.Background(), "nope", "headache")
		if _, ok := IsValidationError(err); !ok {
			t.Fatalf("expected ValidationError, got %T: %v", err, err)
		}
		if mock.RequestCount() != 0 {
			t.Fatalf("expected no provider calls, got %d", mock.RequestCount())
		}
	})

	t.Run("call failure is not retried when permanent", func(t *testing.T) {
		mock := providers.NewMockClient()
		mock.ShouldFail = true
		ext := newTestExtractor(t, mock, Config{})

		_, err := ext.Extract(context.Background(), "headache")
		ee, ok := IsExtractionError(err)
		if !ok {
			t.Fatalf("expected ExtractionError, got %T: %v", err, err)
		}
		if ee.Stage != "call" {
			t.Errorf("Stage = %q, want call", ee.Stage)
		}
		if mock.RequestCount() != 1 {
			t.Errorf("expected 1 call for permanent failure, got %d", mock.RequestCount())
		}
	})

	t.Run("missing structured result", func(t *testing.T) {
		mock := providers.NewMockClient()
		// No ResponseJSON configured, so the mock returns plain text.
		ext := newTestExtractor(t, mock, Config{})

		_, err := ext.Extract(context.Background(), "headache")
		ee, ok := IsExtractionError(err)
		if !ok {
			t.Fatalf("expected ExtractionError, got %T: %v", err, err)
		}
		if ee.Stage != "parse" {
			t.Errorf("Stage = %q, want parse", ee.Stage)
		}
	})
}

// flakyClient fails with retryable server errors until succeedAt calls.
type flakyClient struct {
	inner     *providers.MockClient
	succeedAt int
	calls     atomic.Int64
}

func (c *flakyClient) Name() string { return "flaky" }

func (c *flakyClient) Chat(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResult, error) {
	n := c.calls.Add(1)
	if int(n) < c.succeedAt {
		return &providers.ChatResult{
			Provider:     "flaky",
			Success:      false,
			ErrorType:    "http_error",
			ErrorMessage: "upstream unavailable",
		}, &providers.ServerError{Provider: "flaky", StatusCode: 503, Message: "upstream unavailable"}
	}
	return c.inner.Chat(ctx, req)
}

func TestExtractRetriesTransientFailures(t *testing.T) {
	mock := providers.NewMockClient()
	mock.ResponseJSON = headacheJSON
	flaky := &flakyClient{inner: mock, succeedAt: 3}

	registry := providers.NewRegistry()
	registry.RegisterLLM("flaky", flaky)

	ext := New(registry, Config{
		Provider:    "flaky",
		Timeout:     30 * time.Second,
		MaxAttempts: 3,
		RetryDelay:  time.Millisecond,
	})

	result, err := ext.Extract(context.Background(), "severe headache for two days")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if flaky.calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", flaky.calls.Load())
	}
	if result.Info.PrimarySymptom == nil || *result.Info.PrimarySymptom != "headache" {
		t.Errorf("PrimarySymptom = %v, want headache", result.Info.PrimarySymptom)
	}
}

func TestExtractRecordsCalls(t *testing.T) {
	t.Run("success recorded", func(t *testing.T) {
		store := callog.NewStore(10)
		mock := providers.NewMockClient()
		mock.ResponseJSON = headacheJSON
		ext := newTestExtractor(t, mock, Config{Recorder: callog.NewRecorder(store, nil)})

		if _, err := ext.Extract(context.Background(), "headache"); err != nil {
			t.Fatalf("Extract() error = %v", err)
		}

		calls := store.List(callog.QueryFilter{})
		if len(calls) != 1 {
			t.Fatalf("expected 1 recorded call, got %d", len(calls))
		}
		if !calls[0].Success {
			t.Error("expected success recorded")
		}
		if calls[0].PromptKey == "" || calls[0].PromptHash == "" {
			t.Error("expected prompt key and hash recorded")
		}
	})

	t.Run("failure recorded", func(t *testing.T) {
		store := callog.NewStore(10)
		mock := providers.NewMockClient()
		mock.ShouldFail = true
		ext := newTestExtractor(t, mock, Config{Recorder: callog.NewRecorder(store, nil)})

		if _, err := ext.Extract(context.Background(), "headache"); err == nil {
			t.Fatal("expected error")
		}

		calls := store.List(callog.QueryFilter{})
		if len(calls) != 1 {
			t.Fatalf("expected 1 recorded call, got %d", len(calls))
		}
		if calls[0].Success {
			t.Error("expected failure recorded")
		}
		if calls[0].Error == "" {
			t.Error("expected error message recorded")
		}
	})

	t.Run("validation failure not recorded", func(t *testing.T) {
		store := callog.NewStore(10)
		mock := providers.NewMockClient()
		ext := newTestExtractor(t, mock, Config{Recorder: callog.NewRecorder(store, nil)})

		if _, err := ext.Extract(context.Background(), ""); err == nil {
			t.Fatal("expected error")
		}
		if store.Len() != 0 {
			t.Fatalf("expected no recorded calls, got %d", store.Len())
		}
	})
}
