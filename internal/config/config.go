// Package config loads contextrt settings from a TOML file, an optional
// .env-style key file, and environment variables, in that order.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths locates on-disk state.
type Paths struct {
	DataDir     string `toml:"data_dir"`
	LexiconFile string `toml:"lexicon_file"`
	KeysFile    string `toml:"keys_file"`
}

// Knowledge configures the knowledge-source client and enrichment.
type Knowledge struct {
	Endpoint           string  `toml:"endpoint"`
	UserAgent          string  `toml:"user_agent"`
	RequestsPerSecond  float64 `toml:"requests_per_second"`
	Burst              int     `toml:"burst"`
	CallTimeoutSeconds int     `toml:"call_timeout_seconds"`
	MaxRetries         int     `toml:"max_retries"`
	SummaryLimit       int     `toml:"summary_limit"`
	Concurrency        int     `toml:"concurrency"`
}

// Generator configures the narrative model.
type Generator struct {
	Provider       string  `toml:"provider"`
	Endpoint       string  `toml:"endpoint"`
	APIKey         string  `toml:"api_key"`
	Model          string  `toml:"model"`
	MaxNewTokens   int     `toml:"max_new_tokens"`
	Temperature    float64 `toml:"temperature"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	OllamaEndpoint string  `toml:"ollama_endpoint"`
	OllamaModel    string  `toml:"ollama_model"`
}

// Server configures the message transport.
type Server struct {
	Bind string `toml:"bind"`

	// AllowedOrigins lists browser origins that may call the server. A
	// trailing "*" matches any suffix. Requests without an Origin header
	// (non-browser clients) are always accepted.
	AllowedOrigins []string `toml:"allowed_origins"`
}

// UI configures the interactive controller.
type UI struct {
	DebounceMs  int  `toml:"debounce_ms"`
	BlurGraceMs int  `toml:"blur_grace_ms"`
	MinLength   int  `toml:"min_length"`
	AutoDisplay bool `toml:"auto_display"`
}

// Pipeline configures request handling.
type Pipeline struct {
	MinTextLength int `toml:"min_text_length"`
}

// Config is the full configuration.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Knowledge Knowledge `toml:"knowledge"`
	Generator Generator `toml:"generator"`
	Server    Server    `toml:"server"`
	UI        UI        `toml:"ui"`
	Pipeline  Pipeline  `toml:"pipeline"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: "~/.local/share/contextrt",
		},
		Knowledge: Knowledge{
			Endpoint:           "https://en.wikipedia.org/w/api.php",
			RequestsPerSecond:  20,
			Burst:              20,
			CallTimeoutSeconds: 10,
			MaxRetries:         2,
			SummaryLimit:       200,
		},
		Generator: Generator{
			Provider:       "huggingface",
			Model:          "mistralai/Mistral-7B-Instruct-v0.2",
			MaxNewTokens:   200,
			Temperature:    0.4,
			TimeoutSeconds: 30,
			OllamaEndpoint: "http://localhost:11434",
		},
		Server: Server{
			Bind:           "127.0.0.1:7420",
			AllowedOrigins: []string{"chrome-extension://*", "moz-extension://*"},
		},
		UI: UI{
			DebounceMs:  1000,
			BlurGraceMs: 200,
			MinLength:   5,
			AutoDisplay: true,
		},
		Pipeline: Pipeline{
			MinTextLength: 5,
		},
	}
}

// DefaultConfigPath returns ~/.config/contextrt/config.toml.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/contextrt/config.toml")
}

// Load reads path (or the default location when empty), applies the key
// file and environment overrides, and validates. It returns the resolved
// path and whether a file existed there.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		f, err := os.Open(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()

		if err := toml.NewDecoder(f).DisallowUnknownFields().Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyKeysFile(); err != nil {
		return nil, "", false, err
	}
	cfg.applyEnv()

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		var err error
		if path, err = DefaultConfigPath(); err != nil {
			return "", false, err
		}
	}
	expanded, err := ExpandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %q is a directory", expanded)
	}
	return expanded, true, nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = ExpandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Paths.LexiconFile, err = ExpandPath(c.Paths.LexiconFile); err != nil {
		return err
	}
	if c.Paths.KeysFile, err = ExpandPath(c.Paths.KeysFile); err != nil {
		return err
	}
	c.Generator.Provider = strings.ToLower(strings.TrimSpace(c.Generator.Provider))
	c.Generator.APIKey = strings.TrimSpace(c.Generator.APIKey)
	return nil
}

// EnsureDirectories creates the data directory.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory %q: %w", c.Paths.DataDir, err)
	}
	return nil
}

// DatabasePath is the SQLite file inside the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "contextrt.db")
}

// EventsPath is the JSONL event log inside the data directory.
func (c *Config) EventsPath() string {
	return filepath.Join(c.Paths.DataDir, "events.jsonl")
}

// CallTimeout is the per-call knowledge-source timeout.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.Knowledge.CallTimeoutSeconds) * time.Second
}

// GeneratorTimeout is the generation call timeout.
func (c *Config) GeneratorTimeout() time.Duration {
	return time.Duration(c.Generator.TimeoutSeconds) * time.Second
}

// Debounce is the quiet period before a request fires.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.UI.DebounceMs) * time.Millisecond
}

// BlurGrace is how long focus may be lost before dismissal.
func (c *Config) BlurGrace() time.Duration {
	return time.Duration(c.UI.BlurGraceMs) * time.Millisecond
}

// Encode renders the config as TOML with the API key masked.
func (c Config) Encode() (string, error) {
	if c.Generator.APIKey != "" {
		c.Generator.APIKey = mask(c.Generator.APIKey)
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(data), nil
}

// CreateSample writes the annotated sample config to path.
func CreateSample(path string) error {
	expanded, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config already exists at %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func mask(secret string) string {
	if len(secret) <= 6 {
		return "****"
	}
	return secret[:3] + "****" + secret[len(secret)-2:]
}

// ExpandPath expands a leading ~ and makes p absolute. "" stays "".
func ExpandPath(p string) (string, error) {
	if p == "" {
		return p, nil
	}
	if strings.HasPrefix(p, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if p == "~" {
			p = home
		} else if len(p) > 1 && (p[1] == '/' || p[1] == '\\') {
			p = filepath.Join(home, p[2:])
		}
	}
	abs, err := filepath.Abs(filepath.Clean(p))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", p, err)
	}
	return abs, nil
}
