package logging

import (
	"bytes"
	"strings"
	"testing"

	logs "github.com/danmuck/smplog"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want logs.Level
		ok   bool
	}{
		{"", logs.InfoLevel, false},
		{"debug", logs.DebugLevel, true},
		{" WARN ", logs.WarnLevel, true},
		{"diagnostics", logs.TraceLevel, true},
		{"off", logs.Disabled, true},
		{"loud", logs.InfoLevel, false},
	}
	for _, tc := range cases {
		got, ok := ParseLevel(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ParseLevel(%q)=%v,%v want %v,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogTimestamp, "false")
	t.Setenv(EnvLogNoColor, "true")
	t.Setenv(EnvLogBypass, "nope")

	cfg := defaultConfig(ProfileRuntime)
	applyEnvOverrides(&cfg)
	if cfg.Level != logs.ErrorLevel {
		t.Fatalf("level=%v", cfg.Level)
	}
	if cfg.Timestamp {
		t.Fatalf("expected timestamp disabled")
	}
	if !cfg.NoColor {
		t.Fatalf("expected no color")
	}
	if cfg.Bypass {
		t.Fatalf("invalid bool must not enable bypass")
	}
}

func TestTestProfileLogsDebug(t *testing.T) {
	prev := logs.Configured()
	t.Cleanup(func() { logs.Configure(prev) })

	cfg := defaultConfig(ProfileTest)
	var buf bytes.Buffer
	cfg.Writer = &buf
	cfg.NoColor = true
	logs.Configure(cfg)

	logs.Zerolog().Trace().Msg("hidden")
	logger := logs.With().Str("client", "dummy0").Logger()
	logger.Debug().Msg("connected")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("trace line written at debug level: %q", out)
	}
	if !strings.Contains(out, "connected") || !strings.Contains(out, "dummy0") || strings.Contains(out, "\x1b[") {
		t.Fatalf("unexpected output: %q", out)
	}
}
