package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var result struct {
		Status string `json:"status"`
	}
	if err := client.Get(context.Background(), "/api/health", &result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != "ok" {
		t.Errorf("expected ok, got %s", result.Status)
	}
}

func TestClientPost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected application/json, got %s", r.Header.Get("Content-Type"))
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"echo": body["patient_text"]})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var result struct {
		Echo string `json:"echo"`
	}
	err := client.Post(context.Background(), "/api/extract", map[string]string{"patient_text": "headache"}, &result)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Echo != "headache" {
		t.Errorf("expected headache, got %s", result.Echo)
	}
}

func TestClientErrorResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"patient_text must not be empty"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)

	err := client.Get(context.Background(), "/api/whatever", nil)
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if !strings.Contains(err.Error(), "server error (400)") {
		t.Errorf("expected status in error, got %v", err)
	}
	if !strings.Contains(err.Error(), "patient_text must not be empty") {
		t.Errorf("expected server message in error, got %v", err)
	}
}

func TestClientGetRaw(t *testing.T) {
	payload := []byte(`[
  {
    "id": 1
  }
]`)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(payload)
	}))
	defer server.Close()

	client := NewClient(server.URL)

	body, err := client.GetRaw(context.Background(), "/api/export")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(body, payload) {
		t.Errorf("raw body mismatch: got %s", body)
	}
}

func TestSetOutputFormat(t *testing.T) {
	t.Cleanup(func() { globalOutputFormat = OutputFormatYAML })

	if err := SetOutputFormat("json"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if GetOutputFormat() != OutputFormatJSON {
		t.Errorf("expected json, got %s", GetOutputFormat())
	}

	if err := SetOutputFormat("yaml"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if GetOutputFormat() != OutputFormatYAML {
		t.Errorf("expected yaml, got %s", GetOutputFormat())
	}

	if err := SetOutputFormat("bogus"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestOutputTo(t *testing.T) {
	data := map[string]any{"id": 1, "primary_symptom": "headache"}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := OutputTo(&buf, OutputFormatJSON, data); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), `"primary_symptom": "headache"`) {
			t.Errorf("unexpected json output: %s", buf.String())
		}
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := OutputTo(&buf, OutputFormatYAML, data); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "primary_symptom: headache") {
			t.Errorf("unexpected yaml output: %s", buf.String())
		}
	})
}
