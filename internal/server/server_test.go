package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackzampolin/intake/internal/config"
	"github.com/jackzampolin/intake/internal/providers"
	"github.com/jackzampolin/intake/internal/server/endpoints"
	"github.com/jackzampolin/intake/internal/testutil"
)

// headacheJSON is the mock model response for the classic complaint
// "I've had a headache for 3 days with nausea". Severity stays null so
// the tests cover an absent scalar end to end.
const headacheJSON = `{"primary_symptom":"headache","severity":null,"duration":"3 days","associated_symptoms":["nausea"],"medical_history":[]}`

// startTestServer builds and starts a server backed by the mock provider.
// Shutdown is registered as test cleanup.
func startTestServer(t *testing.T) (*Server, string) {
	t.Helper()

	tc := testutil.NewServerConfig(t)
	mgr, err := config.NewManager(tc.ConfigFile)
	if err != nil {
		t.Fatalf("config.NewManager() error = %v", err)
	}

	srv, err := New(Config{
		Host:          tc.Host,
		Port:          tc.Port,
		DataFile:      tc.DataFile,
		ConfigManager: mgr,
		Logger:        tc.Logger,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Start(ctx)
	}()

	if err := testutil.WaitForServer(tc.URL(), 10*time.Second); err != nil {
		cancel()
		t.Fatalf("server did not start: %v", err)
	}

	starter := &testutil.StartServer{Cancel: cancel, Done: done}
	t.Cleanup(starter.Stop)

	return srv, tc.URL()
}

var httpClient = testutil.HTTPClient()

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := httpClient.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("GET %s: failed to decode response: %v", url, err)
		}
	}
	return resp
}

func postJSON(t *testing.T, url string, body string, out any) *http.Response {
	t.Helper()
	resp, err := httpClient.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("POST %s: failed to decode response: %v", url, err)
		}
	}
	return resp
}

func getBody(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := httpClient.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("GET %s: failed to read body: %v", url, err)
	}
	return resp, data
}

func strval(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func TestServer_ExtractionLifecycle(t *testing.T) {
	srv, baseURL := startTestServer(t)

	srv.Registry().RegisterLLM("mock", &providers.MockClient{
		Latency:      time.Millisecond,
		ResponseJSON: json.RawMessage(headacheJSON),
	})

	t.Run("health", func(t *testing.T) {
		var health endpoints.HealthResponse
		resp := getJSON(t, baseURL+"/health", &health)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("health status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
		if health.Status != "ok" {
			t.Errorf("health.Status = %q, want %q", health.Status, "ok")
		}
	})

	t.Run("ready", func(t *testing.T) {
		var ready endpoints.ReadyResponse
		resp := getJSON(t, baseURL+"/ready", &ready)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("ready status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
		if ready.Status != "ok" || ready.LLM != "ok" {
			t.Errorf("ready = %+v, want status ok and llm ok", ready)
		}
	})

	t.Run("status_shows_mock_provider", func(t *testing.T) {
		var status endpoints.StatusResponse
		resp := getJSON(t, baseURL+"/status", &status)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
		found := false
		for _, p := range status.LLMProviders {
			if p == "mock" {
				found = true
			}
		}
		if !found {
			t.Errorf("LLMProviders = %v, want to contain %q", status.LLMProviders, "mock")
		}
		if status.RecordCount != 0 {
			t.Errorf("RecordCount = %d, want 0", status.RecordCount)
		}
		if status.DataFile != srv.DataFile() {
			t.Errorf("DataFile = %q, want %q", status.DataFile, srv.DataFile())
		}
	})

	t.Run("extract_headache_complaint", func(t *testing.T) {
		input := "I've had a headache for 3 days with nausea"
		var resp endpoints.ExtractResponse
		httpResp := postJSON(t, baseURL+"/api/extract", `{"patient_text":"`+input+`"}`, &resp)
		if httpResp.StatusCode != http.StatusOK {
			t.Fatalf("extract status = %d, want %d", httpResp.StatusCode, http.StatusOK)
		}

		if resp.Record.ID != 1 {
			t.Errorf("Record.ID = %d, want 1", resp.Record.ID)
		}
		if resp.Record.PatientText != input {
			t.Errorf("Record.PatientText = %q, want %q", resp.Record.PatientText, input)
		}
		if resp.Warning != "" {
			t.Errorf("Warning = %q, want empty", resp.Warning)
		}

		info := resp.Record.ExtractedInfo
		if got := strval(info.PrimarySymptom); got != "headache" {
			t.Errorf("PrimarySymptom = %q, want %q", got, "headache")
		}
		if info.Severity != nil {
			t.Errorf("Severity = %q, want nil", *info.Severity)
		}
		if got := strval(info.Duration); got != "3 days" {
			t.Errorf("Duration = %q, want %q", got, "3 days")
		}
		if len(info.AssociatedSymptoms) != 1 || info.AssociatedSymptoms[0] != "nausea" {
			t.Errorf("AssociatedSymptoms = %v, want [nausea]", info.AssociatedSymptoms)
		}
		if len(info.MedicalHistory) != 0 {
			t.Errorf("MedicalHistory = %v, want empty", info.MedicalHistory)
		}
	})

	t.Run("data_file_written", func(t *testing.T) {
		data, err := os.ReadFile(srv.DataFile())
		if err != nil {
			t.Fatalf("data file not written: %v", err)
		}

		var records []map[string]any
		if err := json.Unmarshal(data, &records); err != nil {
			t.Fatalf("data file is not valid JSON: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("data file has %d records, want 1", len(records))
		}
		for _, key := range []string{"id", "patient_text", "extracted_info"} {
			if _, ok := records[0][key]; !ok {
				t.Errorf("data file record missing key %q", key)
			}
		}
		if len(records[0]) != 3 {
			t.Errorf("data file record has %d keys, want 3", len(records[0]))
		}

		// Absent scalars are written as explicit nulls, not dropped.
		info, ok := records[0]["extracted_info"].(map[string]any)
		if !ok {
			t.Fatalf("extracted_info is %T, want object", records[0]["extracted_info"])
		}
		for _, key := range []string{"primary_symptom", "severity", "duration", "associated_symptoms", "medical_history"} {
			if _, ok := info[key]; !ok {
				t.Errorf("extracted_info missing key %q", key)
			}
		}
		if info["severity"] != nil {
			t.Errorf("severity = %v, want null", info["severity"])
		}
	})

	t.Run("second_extract_increments_id", func(t *testing.T) {
		var resp endpoints.ExtractResponse
		httpResp := postJSON(t, baseURL+"/api/extract", `{"patient_text":"My lower back hurts when I sit."}`, &resp)
		if httpResp.StatusCode != http.StatusOK {
			t.Fatalf("extract status = %d, want %d", httpResp.StatusCode, http.StatusOK)
		}
		if resp.Record.ID != 2 {
			t.Errorf("Record.ID = %d, want 2", resp.Record.ID)
		}
	})

	t.Run("records_list_recent_first", func(t *testing.T) {
		var resp endpoints.RecordsResponse
		getJSON(t, baseURL+"/api/records", &resp)
		if resp.Total != 2 {
			t.Fatalf("Total = %d, want 2", resp.Total)
		}
		if resp.Records[0].ID != 2 || resp.Records[1].ID != 1 {
			t.Errorf("record order = [%d, %d], want [2, 1]", resp.Records[0].ID, resp.Records[1].ID)
		}
	})

	t.Run("records_limit_and_offset", func(t *testing.T) {
		var limited endpoints.RecordsResponse
		getJSON(t, baseURL+"/api/records?limit=1", &limited)
		if limited.Total != 1 || limited.Records[0].ID != 2 {
			t.Errorf("limit=1 returned %d records, first ID %d, want 1 record with ID 2",
				limited.Total, limited.Records[0].ID)
		}

		var offset endpoints.RecordsResponse
		getJSON(t, baseURL+"/api/records?offset=1", &offset)
		if offset.Total != 1 || offset.Records[0].ID != 1 {
			t.Errorf("offset=1 returned %d records, first ID %d, want 1 record with ID 1",
				offset.Total, offset.Records[0].ID)
		}
	})

	t.Run("records_order_oldest", func(t *testing.T) {
		var resp endpoints.RecordsResponse
		getJSON(t, baseURL+"/api/records?order=oldest", &resp)
		if resp.Total != 2 {
			t.Fatalf("Total = %d, want 2", resp.Total)
		}
		if resp.Records[0].ID != 1 || resp.Records[1].ID != 2 {
			t.Errorf("record order = [%d, %d], want [1, 2]", resp.Records[0].ID, resp.Records[1].ID)
		}

		badOrder, _ := getBody(t, baseURL+"/api/records?order=sideways")
		if badOrder.StatusCode != http.StatusBadRequest {
			t.Errorf("invalid order status = %d, want %d", badOrder.StatusCode, http.StatusBadRequest)
		}
	})

	t.Run("record_get_by_id", func(t *testing.T) {
		var resp endpoints.RecordResponse
		httpResp := getJSON(t, baseURL+"/api/records/1", &resp)
		if httpResp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", httpResp.StatusCode, http.StatusOK)
		}
		if resp.Record.ID != 1 {
			t.Errorf("Record.ID = %d, want 1", resp.Record.ID)
		}
	})

	t.Run("record_not_found", func(t *testing.T) {
		resp, _ := getBody(t, baseURL+"/api/records/99")
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
		}
	})

	t.Run("record_invalid_id", func(t *testing.T) {
		resp, _ := getBody(t, baseURL+"/api/records/abc")
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
		}
	})

	t.Run("export_matches_data_file", func(t *testing.T) {
		resp1, body1 := getBody(t, baseURL+"/api/export")
		if resp1.StatusCode != http.StatusOK {
			t.Fatalf("export status = %d, want %d", resp1.StatusCode, http.StatusOK)
		}
		if cd := resp1.Header.Get("Content-Disposition"); !strings.Contains(cd, "all_patients_data.json") {
			t.Errorf("Content-Disposition = %q, want filename all_patients_data.json", cd)
		}

		_, body2 := getBody(t, baseURL+"/api/export")
		if !bytes.Equal(body1, body2) {
			t.Error("two exports of the same records differ")
		}

		diskData, err := os.ReadFile(srv.DataFile())
		if err != nil {
			t.Fatalf("failed to read data file: %v", err)
		}
		if !bytes.Equal(body1, diskData) {
			t.Error("export differs from the data file on disk")
		}

		var persisted []struct {
			ID int `json:"id"`
		}
		if err := json.Unmarshal(diskData, &persisted); err != nil {
			t.Fatalf("failed to parse data file: %v", err)
		}
		if len(persisted) != 2 || persisted[0].ID != 1 || persisted[1].ID != 2 {
			t.Errorf("data file holds %d records, want ids [1, 2]", len(persisted))
		}
	})

	t.Run("empty_input_rejected", func(t *testing.T) {
		var errResp endpoints.ErrorResponse
		httpResp := postJSON(t, baseURL+"/api/extract", `{"patient_text":"   "}`, &errResp)
		if httpResp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", httpResp.StatusCode, http.StatusBadRequest)
		}
		if !strings.Contains(errResp.Error, "must not be empty") {
			t.Errorf("error = %q, want mention of empty input", errResp.Error)
		}

		var records endpoints.RecordsResponse
		getJSON(t, baseURL+"/api/records", &records)
		if records.Total != 2 {
			t.Errorf("record count after rejected input = %d, want 2", records.Total)
		}
	})

	t.Run("invalid_body_rejected", func(t *testing.T) {
		resp := postJSON(t, baseURL+"/api/extract", "not json", nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
		}
	})

	t.Run("unknown_provider_override_rejected", func(t *testing.T) {
		var errResp endpoints.ErrorResponse
		httpResp := postJSON(t, baseURL+"/api/extract", `{"patient_text":"headache","provider":"bogus"}`, &errResp)
		if httpResp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", httpResp.StatusCode, http.StatusBadRequest)
		}
		if !strings.Contains(errResp.Error, "not a configured provider") {
			t.Errorf("error = %q, want unknown-provider message", errResp.Error)
		}
	})

	t.Run("extraction_failure_creates_no_record", func(t *testing.T) {
		srv.Registry().RegisterLLM("mock", &providers.MockClient{ShouldFail: true})
		defer srv.Registry().RegisterLLM("mock", &providers.MockClient{
			Latency:      time.Millisecond,
			ResponseJSON: json.RawMessage(headacheJSON),
		})

		var errResp endpoints.ErrorResponse
		httpResp := postJSON(t, baseURL+"/api/extract", `{"patient_text":"???"}`, &errResp)
		if httpResp.StatusCode != http.StatusBadGateway {
			t.Errorf("status = %d, want %d", httpResp.StatusCode, http.StatusBadGateway)
		}
		if errResp.Error == "" {
			t.Error("error message is empty")
		}

		var records endpoints.RecordsResponse
		getJSON(t, baseURL+"/api/records", &records)
		if records.Total != 2 {
			t.Errorf("record count after failed extraction = %d, want 2", records.Total)
		}
	})

	t.Run("llmcalls_recorded", func(t *testing.T) {
		var calls endpoints.LLMCallsResponse
		getJSON(t, baseURL+"/api/llmcalls", &calls)
		if calls.Total != 3 {
			t.Fatalf("llmcalls Total = %d, want 3 (two successes and one failure)", calls.Total)
		}
		// Newest first: the failed call is most recent.
		if calls.Calls[0].Success {
			t.Error("newest call Success = true, want false")
		}
		if calls.Calls[0].PromptKey != "extract.system" {
			t.Errorf("PromptKey = %q, want %q", calls.Calls[0].PromptKey, "extract.system")
		}

		var succeeded endpoints.LLMCallsResponse
		getJSON(t, baseURL+"/api/llmcalls?success=true", &succeeded)
		if succeeded.Total != 2 {
			t.Errorf("successful calls = %d, want 2", succeeded.Total)
		}
		for _, c := range succeeded.Calls {
			if !c.Success {
				t.Errorf("call %s in success=true listing has Success = false", c.ID)
			}
		}

		var counts endpoints.LLMCallCountsResponse
		getJSON(t, baseURL+"/api/llmcalls/counts", &counts)
		if counts.Counts["extract.system"] != 3 {
			t.Errorf("counts[extract.system] = %d, want 3", counts.Counts["extract.system"])
		}

		var single endpoints.LLMCallResponse
		httpResp := getJSON(t, baseURL+"/api/llmcalls/"+calls.Calls[0].ID, &single)
		if httpResp.StatusCode != http.StatusOK {
			t.Fatalf("get call status = %d, want %d", httpResp.StatusCode, http.StatusOK)
		}
		if single.Call.ID != calls.Calls[0].ID {
			t.Errorf("Call.ID = %q, want %q", single.Call.ID, calls.Calls[0].ID)
		}

		missing, _ := getBody(t, baseURL+"/api/llmcalls/nonexistent")
		if missing.StatusCode != http.StatusNotFound {
			t.Errorf("missing call status = %d, want %d", missing.StatusCode, http.StatusNotFound)
		}
	})

	t.Run("prompts_listed", func(t *testing.T) {
		var resp endpoints.PromptsResponse
		getJSON(t, baseURL+"/api/prompts", &resp)
		if resp.Total != 2 {
			t.Fatalf("prompts Total = %d, want 2", resp.Total)
		}
		keys := []string{resp.Prompts[0].Key, resp.Prompts[1].Key}
		if keys[0] != "extract.system" || keys[1] != "extract.user" {
			t.Errorf("prompt keys = %v, want [extract.system extract.user]", keys)
		}

		var single endpoints.PromptResponse
		httpResp := getJSON(t, baseURL+"/api/prompts/extract.system", &single)
		if httpResp.StatusCode != http.StatusOK {
			t.Fatalf("get prompt status = %d, want %d", httpResp.StatusCode, http.StatusOK)
		}
		if single.Prompt.Key != "extract.system" {
			t.Errorf("Prompt.Key = %q, want %q", single.Prompt.Key, "extract.system")
		}
		if single.Prompt.Hash == "" {
			t.Error("Prompt.Hash is empty")
		}

		missing, _ := getBody(t, baseURL+"/api/prompts/extract.bogus")
		if missing.StatusCode != http.StatusNotFound {
			t.Errorf("missing prompt status = %d, want %d", missing.StatusCode, http.StatusNotFound)
		}
	})

	t.Run("settings_catalog", func(t *testing.T) {
		var resp endpoints.SettingsResponse
		getJSON(t, baseURL+"/api/settings", &resp)
		if resp.Total == 0 {
			t.Fatal("settings catalog is empty")
		}

		byKey := make(map[string]any, resp.Total)
		for _, entry := range resp.Settings {
			byKey[entry.Key] = entry.Value
		}
		if got := byKey["extraction.provider"]; got != "mock" {
			t.Errorf("extraction.provider = %v, want %q", got, "mock")
		}
		if got, ok := byKey["llm_providers.mock.api_key"]; !ok || got != "" {
			t.Errorf("llm_providers.mock.api_key = %v, want empty string", got)
		}

		var single endpoints.SettingResponse
		httpResp := getJSON(t, baseURL+"/api/settings/extraction.provider", &single)
		if httpResp.StatusCode != http.StatusOK {
			t.Fatalf("get setting status = %d, want %d", httpResp.StatusCode, http.StatusOK)
		}
		if single.Setting.Value != "mock" {
			t.Errorf("Setting.Value = %v, want %q", single.Setting.Value, "mock")
		}

		missing, _ := getBody(t, baseURL+"/api/settings/no.such.key")
		if missing.StatusCode != http.StatusNotFound {
			t.Errorf("missing setting status = %d, want %d", missing.StatusCode, http.StatusNotFound)
		}
	})

	t.Run("swagger_spec_served", func(t *testing.T) {
		var spec map[string]any
		resp := getJSON(t, baseURL+"/swagger.json", &spec)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("swagger status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
		if spec["swagger"] != "2.0" {
			t.Errorf("swagger version = %v, want 2.0", spec["swagger"])
		}
		paths, _ := spec["paths"].(map[string]any)
		if _, ok := paths["/api/extract"]; !ok {
			t.Error("swagger spec missing /api/extract path")
		}
	})

	t.Run("frontend_served", func(t *testing.T) {
		resp, body := getBody(t, baseURL+"/")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("frontend status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
		if !strings.Contains(string(body), "Patient Info Extractor") {
			t.Error("index.html missing expected title")
		}

		jsResp, _ := getBody(t, baseURL+"/app.js")
		if jsResp.StatusCode != http.StatusOK {
			t.Errorf("app.js status = %d, want %d", jsResp.StatusCode, http.StatusOK)
		}

		// Unknown paths fall back to index.html for SPA routing
		spaResp, spaBody := getBody(t, baseURL+"/some/frontend/route")
		if spaResp.StatusCode != http.StatusOK {
			t.Errorf("SPA fallback status = %d, want %d", spaResp.StatusCode, http.StatusOK)
		}
		if !strings.Contains(string(spaBody), "Patient Info Extractor") {
			t.Error("SPA fallback did not serve index.html")
		}
	})

	t.Run("is_running", func(t *testing.T) {
		if !srv.IsRunning() {
			t.Error("IsRunning() = false, want true")
		}
		if got := "http://" + srv.Addr(); got != baseURL {
			t.Errorf("Addr() = %q, want host of %q", srv.Addr(), baseURL)
		}
	})
}

func TestServer_PersistenceFailureKeepsRecord(t *testing.T) {
	tc := testutil.NewServerConfig(t)
	mgr, err := config.NewManager(tc.ConfigFile)
	if err != nil {
		t.Fatalf("config.NewManager() error = %v", err)
	}

	// Block the data file path with a regular file so writes fail.
	blocker := filepath.Join(t.TempDir(), "blocked")
	if err := os.WriteFile(blocker, []byte("in the way"), 0o644); err != nil {
		t.Fatalf("failed to create blocker file: %v", err)
	}

	srv, err := New(Config{
		Host:          tc.Host,
		Port:          tc.Port,
		DataFile:      filepath.Join(blocker, "all_patients_data.json"),
		ConfigManager: mgr,
		Logger:        tc.Logger,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Start(ctx)
	}()
	if err := testutil.WaitForServer(tc.URL(), 10*time.Second); err != nil {
		cancel()
		t.Fatalf("server did not start: %v", err)
	}
	starter := &testutil.StartServer{Cancel: cancel, Done: done}
	t.Cleanup(starter.Stop)

	srv.Registry().RegisterLLM("mock", &providers.MockClient{
		Latency:      time.Millisecond,
		ResponseJSON: json.RawMessage(headacheJSON),
	})

	var resp endpoints.ExtractResponse
	httpResp := postJSON(t, tc.URL()+"/api/extract", `{"patient_text":"severe headache for 3 days"}`, &resp)
	if httpResp.StatusCode != http.StatusOK {
		t.Fatalf("extract status = %d, want %d (persistence failure must not fail extraction)",
			httpResp.StatusCode, http.StatusOK)
	}
	if resp.Record.ID != 1 {
		t.Errorf("Record.ID = %d, want 1", resp.Record.ID)
	}
	if resp.Warning == "" {
		t.Error("Warning is empty, want persistence failure warning")
	}

	// The record stays available in memory.
	var records endpoints.RecordsResponse
	getJSON(t, tc.URL()+"/api/records", &records)
	if records.Total != 1 {
		t.Errorf("record count = %d, want 1", records.Total)
	}
}

func TestServer_NoProviderConfigured(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "config.yaml")
	cfgYAML := "extraction:\n  provider: unconfigured\n"
	if err := os.WriteFile(configFile, []byte(cfgYAML), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	mgr, err := config.NewManager(configFile)
	if err != nil {
		t.Fatalf("config.NewManager() error = %v", err)
	}

	port, err := testutil.FindFreePort()
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}

	srv, err := New(Config{
		Host:          "127.0.0.1",
		Port:          port,
		DataFile:      filepath.Join(tempDir, "all_patients_data.json"),
		ConfigManager: mgr,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Start(ctx)
	}()
	baseURL := "http://127.0.0.1:" + port
	if err := testutil.WaitForServer(baseURL, 10*time.Second); err != nil {
		cancel()
		t.Fatalf("server did not start: %v", err)
	}
	starter := &testutil.StartServer{Cancel: cancel, Done: done}
	t.Cleanup(starter.Stop)

	var errResp endpoints.ErrorResponse
	httpResp := postJSON(t, baseURL+"/api/extract", `{"patient_text":"headache"}`, &errResp)
	if httpResp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("extract status = %d, want %d", httpResp.StatusCode, http.StatusServiceUnavailable)
	}
	if !strings.Contains(errResp.Error, "no LLM provider configured") {
		t.Errorf("error = %q, want no-provider message", errResp.Error)
	}

	// Readiness reports degraded.
	var ready endpoints.ReadyResponse
	readyResp := getJSON(t, baseURL+"/ready", &ready)
	if readyResp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("ready status = %d, want %d", readyResp.StatusCode, http.StatusServiceUnavailable)
	}
	if ready.Status != "degraded" || ready.LLM != "not_configured" {
		t.Errorf("ready = %+v, want degraded/not_configured", ready)
	}

	// Non-extraction endpoints still work.
	var health endpoints.HealthResponse
	resp := getJSON(t, baseURL+"/health", &health)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestServer_DoubleStartFails(t *testing.T) {
	srv, _ := startTestServer(t)

	err := srv.Start(context.Background())
	if err == nil {
		t.Fatal("second Start() returned nil, want error")
	}
	if !strings.Contains(err.Error(), "already running") {
		t.Errorf("error = %q, want mention of already running", err)
	}
}

func TestServer_GracefulShutdown(t *testing.T) {
	tc := testutil.NewServerConfig(t)
	mgr, err := config.NewManager(tc.ConfigFile)
	if err != nil {
		t.Fatalf("config.NewManager() error = %v", err)
	}

	srv, err := New(Config{
		Host:          tc.Host,
		Port:          tc.Port,
		DataFile:      tc.DataFile,
		ConfigManager: mgr,
		Logger:        tc.Logger,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Start(ctx)
	}()
	if err := testutil.WaitForServer(tc.URL(), 10*time.Second); err != nil {
		cancel()
		t.Fatalf("server did not start: %v", err)
	}

	cancel()
	if err := testutil.WaitForShutdown(done, 10*time.Second); err != nil {
		t.Fatalf("shutdown error = %v, want nil", err)
	}
	if srv.IsRunning() {
		t.Error("IsRunning() = true after shutdown, want false")
	}
}
