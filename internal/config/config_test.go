package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const sample = `
tick_period: 20ms
log_level: debug
db_path: ":memory:"
tasks:
  - name: blink
    interval: 1
    kind: log
    message: led toggle
  - name: poll
    interval: 0
  - name: sample
    interval: 5
    kind: script
    script: "state.n = (state.n || 0) + 1"
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	require.Equal(t, 20*time.Millisecond, cfg.TickPeriod)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "text", cfg.LogFormat, "default kept when unset")
	require.Equal(t, ":memory:", cfg.DBPath)
	require.Len(t, cfg.Tasks, 3)
	require.Equal(t, TaskSpec{Name: "blink", Interval: 1, Kind: KindLog, Message: "led toggle"}, cfg.Tasks[0])
	require.Equal(t, KindNoop, cfg.Tasks[1].Kind, "kind defaults to noop")
	require.Equal(t, uint32(5), cfg.Tasks[2].Interval)
	require.Equal(t, 10*time.Millisecond, cfg.EffectivePassInterval())
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("LEANSCHED_LOG_LEVEL", "error")
	t.Setenv("LEANSCHED_LISTEN", "127.0.0.1:9000")

	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)
	require.Equal(t, "error", cfg.LogLevel)
	require.Equal(t, "127.0.0.1:9000", cfg.Listen)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero tick", "tick_period: 0s\n"},
		{"negative pass", "pass_interval: -1s\n"},
		{"missing name", "tasks:\n  - interval: 1\n"},
		{"duplicate name", "tasks:\n  - name: a\n  - name: a\n"},
		{"unknown kind", "tasks:\n  - name: a\n    kind: shell\n"},
		{"script without body", "tasks:\n  - name: a\n    kind: script\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestParse_BadYAML(t *testing.T) {
	_, err := Parse([]byte("tasks: [unterminated"))
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Tasks, 3)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestEffectivePassInterval(t *testing.T) {
	cfg := Default()
	cfg.PassInterval = 3 * time.Millisecond
	require.Equal(t, 3*time.Millisecond, cfg.EffectivePassInterval())

	cfg = Default()
	cfg.TickPeriod = time.Nanosecond
	require.Equal(t, time.Nanosecond, cfg.EffectivePassInterval())
}
