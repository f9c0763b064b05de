package brain

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/abelbrown/contextrt/internal/logging"
	"github.com/abelbrown/contextrt/internal/services"
)

var (
	_ Provider = (*HTTPProvider)(nil)
	_ Provider = (*ProviderManager)(nil)
)

const maxResponseBytes = 1 << 20

// ProviderConfig describes how to talk to one generation API.
type ProviderConfig struct {
	Name       string
	Endpoint   string
	APIKey     string
	Model      string
	AuthHeader string // "Authorization" or "" for none
	AuthPrefix string // "Bearer "

	// NeedsKey marks hosted APIs that are unusable without APIKey.
	NeedsKey bool

	BuildBody     func(cfg *ProviderConfig, req Request) map[string]any
	ParseResponse func(body []byte) (content, model string, err error)
}

// HTTPProvider is a Provider driven by a ProviderConfig.
type HTTPProvider struct {
	config *ProviderConfig
	client *http.Client
}

// NewHTTPProvider creates a provider. timeout bounds each request; zero
// means 60s.
func NewHTTPProvider(cfg *ProviderConfig, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPProvider{
		config: cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProvider) Name() string {
	return p.config.Name
}

func (p *HTTPProvider) Available() bool {
	if p.config.Endpoint == "" || p.config.Model == "" {
		return false
	}
	return !p.config.NeedsKey || p.config.APIKey != ""
}

func (p *HTTPProvider) Generate(ctx context.Context, req Request) (Response, error) {
	name := p.config.Name
	if !p.Available() {
		return Response{}, services.Wrap(services.ErrConfiguration, name, "generate", "provider not configured", nil)
	}

	logging.Debug("generate request", "provider", name, "model", p.config.Model, "prompt_len", len(req.Prompt))

	payload, err := json.Marshal(p.config.BuildBody(p.config, req))
	if err != nil {
		return Response{}, services.Wrap(services.ErrConfiguration, name, "generate", "marshal request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return Response{}, services.Wrap(services.ErrTransport, name, "generate", "create request", err)
	}
	p.setHeaders(httpReq)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return Response{}, services.Wrap(services.ErrTransport, name, "generate", "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Response{}, services.Wrap(services.ErrTransport, name, "generate", "read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		logging.Error("generate API error", "provider", name, "status", resp.StatusCode, "body", string(body))
		return Response{}, services.Wrap(services.ErrUpstream, name, "generate", "",
			&services.StatusError{StatusCode: resp.StatusCode, Body: string(body)})
	}

	content, model, err := p.config.ParseResponse(body)
	if err != nil {
		return Response{}, services.Wrap(services.ErrMalformed, name, "generate", "parse response", err)
	}
	if model == "" {
		model = p.config.Model
	}

	logging.Debug("generate response", "provider", name, "model", model, "content_len", len(content))

	return Response{
		Content:     content,
		Model:       model,
		RawResponse: string(body),
	}, nil
}

func (p *HTTPProvider) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if p.config.AuthHeader != "" && p.config.APIKey != "" {
		req.Header.Set(p.config.AuthHeader, p.config.AuthPrefix+p.config.APIKey)
	}
}
