package utils

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerLevelThreshold(t *testing.T) {
	var out, errOut bytes.Buffer
	l := newLoggerTo(LevelInfo, &out, &errOut)

	l.Debug("candidate %s dropped", "x")
	l.Info("run started")
	l.Warn("retrying")
	l.Error("store failed")

	got := out.String()
	if strings.Contains(got, "DEBUG") {
		t.Error("debug output not suppressed at info threshold")
	}
	if !strings.Contains(got, "run started") || !strings.Contains(got, "retrying") {
		t.Errorf("info/warn output missing: %q", got)
	}
	if !strings.Contains(errOut.String(), "store failed") {
		t.Error("error output missing")
	}
}

func TestLoggerDebugEnabled(t *testing.T) {
	var out, errOut bytes.Buffer
	l := newLoggerTo(LevelDebug, &out, &errOut)

	l.Debug("candidate %s dropped", "x")
	if !strings.Contains(out.String(), "candidate x dropped") {
		t.Errorf("debug output missing at debug threshold: %q", out.String())
	}
}

func TestLoggerErrorAlwaysEmitted(t *testing.T) {
	var out, errOut bytes.Buffer
	l := newLoggerTo(LevelError, &out, &errOut)

	l.Info("run started")
	l.Error("store failed")

	if out.Len() != 0 {
		t.Errorf("info output not suppressed at error threshold: %q", out.String())
	}
	if !strings.Contains(errOut.String(), "store failed") {
		t.Error("error output missing")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"debug", LevelDebug},
		{"Info", LevelInfo},
		{" warn ", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.name); got != tt.want {
			t.Errorf("ParseLevel(%q) = %d; want %d", tt.name, got, tt.want)
		}
	}
}
