package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(&buf, "warn", FormatJSON, "formsubmit")
	logger.Info().Msg("hidden")
	logger.Warn().Str("form", "contact").Msg("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry["app"] != "formsubmit" || entry["form"] != "contact" || entry["level"] != "warn" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestNewConsoleAndFallbackLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(&buf, "loud", FormatConsole, "")
	logger.Debug().Msg("hidden")
	logger.Info().Msg("hello")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "hello") {
		t.Fatalf("unexpected console output %q", out)
	}
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Fatalf("console output must not be JSON: %q", out)
	}
}

func TestNop(t *testing.T) {
	t.Parallel()

	logger := Nop()
	logger.Error().Msg("dropped")
}
