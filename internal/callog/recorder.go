package callog

import (
	"log/slog"

	"github.com/jackzampolin/intake/internal/providers"
)

// Recorder handles fire-and-forget LLM call recording into a Store.
// Recording never fails the caller.
type Recorder struct {
	store  *Store
	logger *slog.Logger
}

// NewRecorder creates a new LLM call recorder.
func NewRecorder(store *Store, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, logger: logger}
}

// Record captures an LLM call. Failed calls are recorded too so the log
// shows the full accounting picture.
func (r *Recorder) Record(result *providers.ChatResult, opts RecordOptions) *Call {
	if r == nil || r.store == nil {
		return nil
	}

	call := FromChatResult(result, opts)
	if call == nil {
		return nil
	}
	r.store.Add(call)

	if r.logger != nil {
		r.logger.Debug("recorded llm call",
			"call_id", call.ID,
			"prompt_key", call.PromptKey,
			"provider", call.Provider,
			"success", call.Success)
	}
	return call
}
