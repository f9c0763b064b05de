package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// applyKeysFile reads KEY=value pairs (optionally prefixed with "export")
// from paths.keys_file, or ./.env when unset. Missing files are ignored.
func (c *Config) applyKeysFile() error {
	path := c.Paths.KeysFile
	if path == "" {
		path = ".env"
	} else {
		var err error
		if path, err = ExpandPath(path); err != nil {
			return err
		}
	}

	keys, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read keys file %s: %w", path, err)
	}
	c.applyLookup(func(k string) (string, bool) {
		v, ok := keys[k]
		return v, ok
	})
	return nil
}

// applyEnv applies process environment overrides.
func (c *Config) applyEnv() {
	c.applyLookup(os.LookupEnv)
}

func (c *Config) applyLookup(lookup func(string) (string, bool)) {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	if v, ok := get("HF_API_TOKEN"); ok {
		c.Generator.APIKey = v
	}
	if v, ok := get("CONTEXTRT_HF_MODEL"); ok {
		c.Generator.Model = v
	}
	if v, ok := get("OLLAMA_HOST"); ok {
		c.Generator.OllamaEndpoint = v
	}
	if v, ok := get("OLLAMA_MODEL"); ok {
		c.Generator.OllamaModel = v
	}
	if v, ok := get("CONTEXTRT_DATA_DIR"); ok {
		c.Paths.DataDir = v
	}
}
