package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if err := c.validateKnowledge(); err != nil {
		return err
	}
	if err := c.validateGenerator(); err != nil {
		return err
	}
	if err := c.validateUI(); err != nil {
		return err
	}
	for _, origin := range c.Server.AllowedOrigins {
		if strings.TrimSpace(origin) == "" {
			return errors.New("server.allowed_origins must not contain empty entries")
		}
	}
	if c.Pipeline.MinTextLength < 0 {
		return errors.New("pipeline.min_text_length must be >= 0")
	}
	return nil
}

func (c *Config) validateKnowledge() error {
	k := c.Knowledge
	if k.Endpoint == "" {
		return errors.New("knowledge.endpoint must be set")
	}
	if k.CallTimeoutSeconds <= 0 {
		return errors.New("knowledge.call_timeout_seconds must be positive")
	}
	if k.MaxRetries < 0 {
		return errors.New("knowledge.max_retries must be >= 0")
	}
	if k.SummaryLimit <= 0 {
		return errors.New("knowledge.summary_limit must be positive")
	}
	if k.Concurrency < 0 {
		return errors.New("knowledge.concurrency must be >= 0")
	}
	return nil
}

func (c *Config) validateGenerator() error {
	g := c.Generator
	switch g.Provider {
	case "huggingface", "ollama", "":
	default:
		return fmt.Errorf("generator.provider %q is not supported (huggingface, ollama)", g.Provider)
	}
	if g.MaxNewTokens <= 0 {
		return errors.New("generator.max_new_tokens must be positive")
	}
	if g.Temperature < 0 || g.Temperature > 2 {
		return errors.New("generator.temperature must be between 0 and 2")
	}
	if g.TimeoutSeconds <= 0 {
		return errors.New("generator.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateUI() error {
	if c.UI.DebounceMs < 0 || c.UI.BlurGraceMs < 0 {
		return errors.New("ui.debounce_ms and ui.blur_grace_ms must be >= 0")
	}
	if c.UI.MinLength < 0 {
		return errors.New("ui.min_length must be >= 0")
	}
	return nil
}
