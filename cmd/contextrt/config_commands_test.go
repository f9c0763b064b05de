package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("HF_API_TOKEN", "")
	t.Setenv("CONTEXTRT_DATA_DIR", "")
	t.Chdir(home)
	return home
}

func TestConfigInitWritesSample(t *testing.T) {
	home := isolate(t)
	target := filepath.Join(home, "cfg", "config.toml")

	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Errorf("output %q does not name %s", out, target)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample not written: %v", err)
	}

	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Error("second init without --overwrite should fail")
	}
	if _, err := runCommand(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Errorf("init --overwrite: %v", err)
	}
}

func TestConfigShowMasksKey(t *testing.T) {
	home := isolate(t)
	t.Setenv("HF_API_TOKEN", "hf_abcdefghijklmnop")
	cfgPath := filepath.Join(home, "config.toml")
	data := "[paths]\ndata_dir = \"" + filepath.ToSlash(filepath.Join(home, "data")) + "\"\n"
	if err := os.WriteFile(cfgPath, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := runCommand(t, "--config", cfgPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "hf_abcdefghijklmnop") {
		t.Error("api key printed in clear")
	}
	if !strings.Contains(out, "hf_****op") {
		t.Errorf("masked key missing from output:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(home, "data")); err != nil {
		t.Errorf("data directory not created: %v", err)
	}
}

func TestEventsMissingLog(t *testing.T) {
	home := isolate(t)
	t.Setenv("CONTEXTRT_DATA_DIR", filepath.Join(home, "data"))

	_, err := runCommand(t, "events")
	if err == nil || !strings.Contains(err.Error(), "event log not found") {
		t.Errorf("events error = %v, want not-found hint", err)
	}
}

func TestEventsRequestsListsJournal(t *testing.T) {
	home := isolate(t)
	t.Setenv("CONTEXTRT_DATA_DIR", filepath.Join(home, "data"))

	out, err := runCommand(t, "events", "--requests")
	if err != nil {
		t.Fatalf("events --requests: %v", err)
	}
	if out != "" {
		t.Errorf("empty journal printed %q", out)
	}
}
