package brain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/abelbrown/contextrt/internal/services"
)

func TestHuggingFaceGenerate(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer hf_test" {
			t.Errorf("Authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode: %v", err)
		}
		fmt.Fprint(w, `[{"generated_text":"  **Tesla** is volatile. [COMPANY:Tesla]  "}]`)
	}))
	defer server.Close()

	p := NewHTTPProvider(HuggingFaceConfig(server.URL, "hf_test", ""), 0)
	resp, err := p.Generate(context.Background(), Request{Prompt: "hello", MaxTokens: 200, Temperature: 0.4})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Content != "**Tesla** is volatile. [COMPANY:Tesla]" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Model != DefaultHuggingFaceModel {
		t.Errorf("Model = %q", resp.Model)
	}

	want := map[string]any{
		"inputs": "hello",
		"parameters": map[string]any{
			"max_new_tokens":   float64(200),
			"temperature":      0.4,
			"return_full_text": false,
		},
	}
	if diff := cmp.Diff(want, gotBody); diff != "" {
		t.Errorf("request body mismatch (-want +got):\n%s", diff)
	}
}

func TestHuggingFaceFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		marker error
	}{
		{"server error", http.StatusServiceUnavailable, `{"error":"loading"}`, services.ErrUpstream},
		{"unauthorized", http.StatusUnauthorized, `{"error":"bad token"}`, services.ErrUpstream},
		{"empty array", http.StatusOK, `[]`, services.ErrMalformed},
		{"missing field", http.StatusOK, `[{"text":"x"}]`, services.ErrMalformed},
		{"blank text", http.StatusOK, `[{"generated_text":"   "}]`, services.ErrMalformed},
		{"not json", http.StatusOK, `<html>`, services.ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			p := NewHTTPProvider(HuggingFaceConfig(server.URL, "k", ""), 0)
			_, err := p.Generate(context.Background(), Request{Prompt: "x"})
			if !errors.Is(err, tt.marker) {
				t.Errorf("error = %v, want %v", err, tt.marker)
			}
		})
	}
}

func TestHuggingFaceUnavailableWithoutKey(t *testing.T) {
	p := NewHTTPProvider(HuggingFaceConfig("", "", ""), 0)
	if p.Available() {
		t.Fatal("provider without key should be unavailable")
	}
	_, err := p.Generate(context.Background(), Request{Prompt: "x"})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Errorf("error = %v, want ErrConfiguration", err)
	}
}

func TestOllamaGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("ollama should not send auth")
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["model"] != "llama3" || body["stream"] != false || body["prompt"] != "p" {
			t.Errorf("body = %v", body)
		}
		fmt.Fprint(w, `{"model":"llama3","response":"Context here.","done":true}`)
	}))
	defer server.Close()

	p := NewHTTPProvider(OllamaConfig(server.URL+"/", "llama3"), 0)
	resp, err := p.Generate(context.Background(), Request{Prompt: "p"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Content != "Context here." || resp.Model != "llama3" {
		t.Errorf("resp = %+v", resp)
	}
}

type stubProvider struct {
	name      string
	available bool
	calls     int
}

func (s *stubProvider) Name() string    { return s.name }
func (s *stubProvider) Available() bool { return s.available }
func (s *stubProvider) Generate(ctx context.Context, req Request) (Response, error) {
	s.calls++
	return Response{Content: s.name}, nil
}

func TestProviderManagerFallback(t *testing.T) {
	hf := &stubProvider{name: "huggingface"}
	ollama := &stubProvider{name: "ollama", available: true}

	pm := NewProviderManager()
	pm.AddProvider(hf)
	pm.AddProvider(ollama)

	if got := pm.Name(); got != "ollama" {
		t.Errorf("Name() = %q, want ollama fallback", got)
	}
	resp, err := pm.Generate(context.Background(), Request{})
	if err != nil || resp.Content != "ollama" {
		t.Errorf("Generate() = %+v, %v", resp, err)
	}

	hf.available = true
	pm.SetPreferred("ollama")
	if got := pm.GetAvailable().Name(); got != "ollama" {
		t.Errorf("preferred provider ignored, got %q", got)
	}
	pm.SetPreferred("")
	if got := pm.GetAvailable().Name(); got != "huggingface" {
		t.Errorf("registration order ignored, got %q", got)
	}
	if diff := cmp.Diff([]string{"huggingface", "ollama"}, pm.ListAvailable()); diff != "" {
		t.Errorf("ListAvailable mismatch:\n%s", diff)
	}
}

func TestProviderManagerEmpty(t *testing.T) {
	pm := NewProviderManager()
	if pm.Available() {
		t.Error("empty manager should be unavailable")
	}
	_, err := pm.Generate(context.Background(), Request{})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Errorf("error = %v, want ErrConfiguration", err)
	}
}

func TestNewManagerRegistersBoth(t *testing.T) {
	pm := NewManager(Settings{APIKey: "k", OllamaModel: "llama3"})
	if diff := cmp.Diff([]string{"huggingface", "ollama"}, pm.ListAvailable()); diff != "" {
		t.Errorf("ListAvailable mismatch:\n%s", diff)
	}
	if pm.GetByName("huggingface") == nil {
		t.Error("huggingface should be registered")
	}
}
