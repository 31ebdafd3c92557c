package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestPreInitLoggerUsesConfiguredHandler(t *testing.T) {
	logger := L("mjpeg")

	var buf bytes.Buffer
	Init("text", "info", &buf)

	logger.Info("streaming", "remoteAddr", "192.168.1.20:51234")

	out := buf.String()
	if !strings.Contains(out, "msg=streaming") {
		t.Fatalf("expected plain streaming message, got: %s", out)
	}
	if !strings.Contains(out, "component=mjpeg") {
		t.Fatalf("expected component field, got: %s", out)
	}
	if !strings.Contains(out, "remoteAddr=192.168.1.20:51234") {
		t.Fatalf("expected remoteAddr field, got: %s", out)
	}
}

func TestPreInitLoggerRespectsConfiguredLevel(t *testing.T) {
	logger := L("udp")

	var buf bytes.Buffer
	Init("text", "warn", &buf)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info log should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("warn log should be emitted: %s", out)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	Init("json", "debug", &buf)
	defer Init("text", "info", nil)

	L("control").Debug("mute toggled", "muted", true)

	out := buf.String()
	if !strings.Contains(out, `"component":"control"`) {
		t.Fatalf("expected JSON component field, got: %s", out)
	}
	if !strings.Contains(out, `"muted":true`) {
		t.Fatalf("expected JSON muted field, got: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{
		"debug":   "DEBUG",
		"warn":    "WARN",
		"warning": "WARN",
		"error":   "ERROR",
		"":        "INFO",
		"bogus":   "INFO",
	}
	for in, want := range cases {
		if got := parseLevel(in).String(); got != want {
			t.Errorf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
