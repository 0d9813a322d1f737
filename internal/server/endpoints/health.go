package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/intake/internal/api"
	"github.com/jackzampolin/intake/internal/svcctx"
)

// HealthResponse is the response for the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

// HealthEndpoint handles GET /health.
type HealthEndpoint struct{}

func (e *HealthEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/health", e.handler
}

func (e *HealthEndpoint) RequiresLLM() bool { return false }

func (e *HealthEndpoint) CommandGroup() string { return "" }

// handler godoc
//
//	@Summary	Health check
//	@Tags		system
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Router		/health [get]
func (e *HealthEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (e *HealthEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(ctx, "/health", &resp); err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", resp.Status)
			return nil
		},
	}
}

// ReadyResponse reports whether the server can serve extractions.
type ReadyResponse struct {
	Status string `json:"status"`
	LLM    string `json:"llm"`
}

// ReadyEndpoint handles GET /ready.
type ReadyEndpoint struct{}

func (e *ReadyEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/ready", e.handler
}

func (e *ReadyEndpoint) RequiresLLM() bool { return false }

func (e *ReadyEndpoint) CommandGroup() string { return "" }

// handler godoc
//
//	@Summary	Readiness check (includes the extraction provider)
//	@Tags		system
//	@Produce	json
//	@Success	200	{object}	ReadyResponse
//	@Failure	503	{object}	ReadyResponse
//	@Router		/ready [get]
func (e *ReadyEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resp := ReadyResponse{Status: "ok", LLM: "ok"}

	registry := svcctx.RegistryFrom(r.Context())
	ext := svcctx.ExtractorFrom(r.Context())
	if registry == nil || ext == nil || !registry.HasLLM(ext.Provider()) {
		resp.Status = "degraded"
		resp.LLM = "not_configured"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *ReadyEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "ready",
		Short: "Check server readiness (includes the extraction provider)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := api.NewClient(getServerURL())
			var resp ReadyResponse
			if err := client.Get(ctx, "/ready", &resp); err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", resp.Status)
			fmt.Printf("LLM:    %s\n", resp.LLM)
			return nil
		},
	}
}

// StatusResponse is the detailed status response.
type StatusResponse struct {
	Status            string   `json:"status"`
	LLMProviders      []string `json:"llm_providers"`
	RecordCount       int      `json:"record_count"`
	LastRecordID      int      `json:"last_record_id"`
	LLMCallCount      int      `json:"llm_call_count"`
	TotalInputTokens  int      `json:"total_input_tokens"`
	TotalOutputTokens int      `json:"total_output_tokens"`
	DataFile          string   `json:"data_file"`
}

// StatusEndpoint handles GET /status.
type StatusEndpoint struct{}

func (e *StatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/status", e.handler
}

func (e *StatusEndpoint) RequiresLLM() bool { return false }

func (e *StatusEndpoint) CommandGroup() string { return "" }

// handler godoc
//
//	@Summary	Server status including providers and record counts
//	@Tags		system
//	@Produce	json
//	@Success	200	{object}	StatusResponse
//	@Router		/status [get]
func (e *StatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{Status: "running"}

	if registry := svcctx.RegistryFrom(r.Context()); registry != nil {
		resp.LLMProviders = registry.ListLLM()
	}

	if store := svcctx.StoreFrom(r.Context()); store != nil {
		resp.RecordCount = store.Len()
		resp.LastRecordID = store.LastID()
	}

	if callStore := svcctx.LLMCallStoreFrom(r.Context()); callStore != nil {
		resp.LLMCallCount = callStore.Len()
		resp.TotalInputTokens, resp.TotalOutputTokens = callStore.Totals()
	}

	if persister := svcctx.PersisterFrom(r.Context()); persister != nil {
		resp.DataFile = persister.Path()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *StatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Get detailed server status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := api.NewClient(getServerURL())
			var resp StatusResponse
			if err := client.Get(ctx, "/status", &resp); err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", resp.Status)
			fmt.Printf("Records:\n")
			fmt.Printf("  Count:   %d\n", resp.RecordCount)
			fmt.Printf("  Last ID: %d\n", resp.LastRecordID)
			fmt.Printf("  File:    %s\n", resp.DataFile)
			fmt.Printf("LLM:\n")
			fmt.Printf("  Providers: %v\n", resp.LLMProviders)
			fmt.Printf("  Calls:     %d\n", resp.LLMCallCount)
			fmt.Printf("  Tokens:    %d in / %d out\n", resp.TotalInputTokens, resp.TotalOutputTokens)
			return nil
		},
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
