package brain

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const (
	// DefaultHuggingFaceModel is the instruct model the prompt template targets.
	DefaultHuggingFaceModel = "mistralai/Mistral-7B-Instruct-v0.2"
	huggingFaceBase         = "https://api-inference.huggingface.co/models/"

	DefaultOllamaEndpoint = "http://localhost:11434"
)

var errNoGeneratedText = errors.New("generated_text missing")

// HuggingFaceConfig targets the hosted inference API. endpoint overrides the
// model URL when non-empty.
func HuggingFaceConfig(endpoint, apiKey, model string) *ProviderConfig {
	if model == "" {
		model = DefaultHuggingFaceModel
	}
	if endpoint == "" {
		endpoint = huggingFaceBase + model
	}
	return &ProviderConfig{
		Name:          "huggingface",
		Endpoint:      endpoint,
		APIKey:        apiKey,
		Model:         model,
		AuthHeader:    "Authorization",
		AuthPrefix:    "Bearer ",
		NeedsKey:      true,
		BuildBody:     buildHuggingFaceBody,
		ParseResponse: parseHuggingFaceResponse,
	}
}

// OllamaConfig targets a local Ollama /api/generate endpoint.
func OllamaConfig(host, model string) *ProviderConfig {
	if host == "" {
		host = DefaultOllamaEndpoint
	}
	return &ProviderConfig{
		Name:          "ollama",
		Endpoint:      strings.TrimRight(host, "/") + "/api/generate",
		Model:         model,
		BuildBody:     buildOllamaBody,
		ParseResponse: parseOllamaResponse,
	}
}

// Settings selects and configures providers for NewManager.
type Settings struct {
	Preferred      string
	Endpoint       string
	APIKey         string
	Model          string
	OllamaEndpoint string
	OllamaModel    string
	Timeout        time.Duration
}

// NewManager registers Hugging Face then Ollama. Providers that are not
// configured stay registered but unavailable.
func NewManager(s Settings) *ProviderManager {
	pm := NewProviderManager()
	pm.AddProvider(NewHTTPProvider(HuggingFaceConfig(s.Endpoint, s.APIKey, s.Model), s.Timeout))
	pm.AddProvider(NewHTTPProvider(OllamaConfig(s.OllamaEndpoint, s.OllamaModel), s.Timeout))
	pm.SetPreferred(s.Preferred)
	return pm
}

func buildHuggingFaceBody(_ *ProviderConfig, req Request) map[string]any {
	return map[string]any{
		"inputs": req.Prompt,
		"parameters": map[string]any{
			"max_new_tokens":   maxTokensOr(req.MaxTokens, 200),
			"temperature":      req.Temperature,
			"return_full_text": false,
		},
	}
}

// parseHuggingFaceResponse reads [{"generated_text": "..."}]. An empty or
// missing generated_text is an error.
func parseHuggingFaceResponse(body []byte) (string, string, error) {
	var out []struct {
		GeneratedText *string `json:"generated_text"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", "", err
	}
	if len(out) == 0 || out[0].GeneratedText == nil || strings.TrimSpace(*out[0].GeneratedText) == "" {
		return "", "", errNoGeneratedText
	}
	return strings.TrimSpace(*out[0].GeneratedText), "", nil
}

func buildOllamaBody(cfg *ProviderConfig, req Request) map[string]any {
	return map[string]any{
		"model":  cfg.Model,
		"prompt": req.Prompt,
		"stream": false,
		"options": map[string]any{
			"num_predict": maxTokensOr(req.MaxTokens, 200),
			"temperature": req.Temperature,
		},
	}
}

func parseOllamaResponse(body []byte) (string, string, error) {
	var out struct {
		Model    string `json:"model"`
		Response string `json:"response"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", "", err
	}
	if strings.TrimSpace(out.Response) == "" {
		return "", "", errNoGeneratedText
	}
	return strings.TrimSpace(out.Response), out.Model, nil
}

func maxTokensOr(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
