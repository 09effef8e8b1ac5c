package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestLevelFromString(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"error":   zapcore.ErrorLevel,
		" WARN ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"info":    zapcore.InfoLevel,
		"debug":   zapcore.DebugLevel,
		"":        zapcore.DebugLevel,
	}
	for in, want := range cases {
		if got := levelFromString(in); got != want {
			t.Fatalf("levelFromString(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewRespectsLevel(t *testing.T) {
	t.Parallel()

	logger := New("warn", "json")
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("info must be disabled at warn level")
	}
	if !logger.Core().Enabled(zapcore.ErrorLevel) {
		t.Fatalf("error must be enabled at warn level")
	}
}

func TestComponentNilBase(t *testing.T) {
	t.Parallel()

	if Component(nil, "x") == nil {
		t.Fatalf("expected nop logger")
	}
}
