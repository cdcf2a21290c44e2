package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/radiusxyz/lightbulb/domain"
)

func TestModuleAddsField(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithHandler(slog.NewJSONHandler(&buf, nil))
	l.Module("registry").Info("chain registered", "chain_id", uint64(1))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if entry["module"] != "registry" {
		t.Errorf("module = %v, want %q", entry["module"], "registry")
	}
	if entry["msg"] != "chain registered" {
		t.Errorf("msg = %v, want %q", entry["msg"], "chain registered")
	}
}

func TestDefaultLoggerSwap(t *testing.T) {
	var buf bytes.Buffer
	prev := Default()
	defer SetDefault(prev)

	SetDefault(NewWithHandler(slog.NewJSONHandler(&buf, nil)))
	Info("hello")

	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("expected default logger output to contain %q, got %q", "hello", buf.String())
	}
}

func TestRejectedErrPicksLevelFromErrorKind(t *testing.T) {
	cases := []struct {
		err       error
		wantLevel string
		wantKind  string
	}{
		{domain.ErrInvalidGasLimit, "DEBUG", "validation"},
		{domain.ErrAuctionEnded, "DEBUG", "state_mismatch"},
		{domain.ErrChainAlreadyRegistered, "WARN", "conflict"},
	}

	for _, c := range cases {
		var buf bytes.Buffer
		l := NewWithHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		l.RejectedErr("rejected", c.err, "chain_id", uint64(1))

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("unmarshal log line for %v: %v", c.err, err)
		}
		if entry["level"] != c.wantLevel {
			t.Errorf("err %v: level = %v, want %q", c.err, entry["level"], c.wantLevel)
		}
		if entry["error_kind"] != c.wantKind {
			t.Errorf("err %v: error_kind = %v, want %q", c.err, entry["error_kind"], c.wantKind)
		}
	}
}
