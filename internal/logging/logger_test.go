package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestHelpersAreSafeBeforeInit(t *testing.T) {
	saved := Logger
	Logger = nil
	defer func() { Logger = saved }()

	Info("x")
	Debug("x")
	Warn("x")
	Error("x")
	WithPrefix("p").Info("discarded")
}

func TestSetOutputLevels(t *testing.T) {
	saved := Logger
	defer func() { Logger = saved }()

	var buf bytes.Buffer
	SetOutput(&buf, false)
	Debug("hidden debug")
	Info("visible info", "entity", "Tesla")

	out := buf.String()
	if strings.Contains(out, "hidden debug") {
		t.Error("debug line written at info level")
	}
	if !strings.Contains(out, "visible info") || !strings.Contains(out, "entity=Tesla") {
		t.Errorf("unexpected output %q", out)
	}

	buf.Reset()
	SetOutput(&buf, true)
	WithPrefix("wiki").Debug("search")
	if !strings.Contains(buf.String(), "wiki") {
		t.Errorf("prefix missing from %q", buf.String())
	}
}

func TestInitCreatesDatedFile(t *testing.T) {
	saved := Logger
	defer func() { Logger = saved }()

	dir := t.TempDir()
	if err := Init(dir, false); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	Close()

	name := "contextrt-" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, "logs", name))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "contextrt started") {
		t.Errorf("log missing startup line: %q", data)
	}
}
