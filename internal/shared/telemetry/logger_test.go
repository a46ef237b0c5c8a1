package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	_ = w.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("read output: %v", err)
	}
	return buf.String()
}

func TestErrorWritesFlatJSON(t *testing.T) {
	out := captureStdout(t, func() {
		Error("notify.sms.failed", map[string]any{
			"borrower_id": "b-1",
			"error":       errors.New("twilio down"),
		})
	})

	line := strings.TrimSpace(out)
	var payload map[string]any
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		t.Fatalf("decode log line %q: %v", line, err)
	}
	if payload["level"] != "error" {
		t.Fatalf("expected level error, got %v", payload["level"])
	}
	if payload["msg"] != "notify.sms.failed" {
		t.Fatalf("unexpected msg %v", payload["msg"])
	}
	if payload["error"] != "twilio down" {
		t.Fatalf("expected error string, got %v", payload["error"])
	}
	if payload["borrower_id"] != "b-1" {
		t.Fatalf("unexpected borrower_id %v", payload["borrower_id"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("missing ts")
	}
}
