package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//nolint:gocyclo
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `server:
  addr: ":9000"
  token: "secret"
planner:
  dispatch:
    workers: 4
    include_insights: true
    distribute: true
    ack_timeout_seconds: 3
  prediction:
    jitter: 0
    seed: 42
network:
  file: "network.yaml"
metrics:
  prometheus_addr: ":9090"
  sinks:
    - type: "prometheus"
mqtt:
  type: "paho"
  conf:
    broker: "tcp://localhost:1883"
    client_id: "planner"
log:
  level: "debug"
job:
  enabled: true
  schedule: "30 4 * * 1-5"
  hours: [7, 8, 9]
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"server.addr", cfg.Server.Addr, ":9000"},
		{"server.token", cfg.Server.Token, "secret"},
		{"workers", cfg.Planner.Dispatch.Workers, 4},
		{"include_insights", cfg.Planner.Dispatch.IncludeInsights, true},
		{"ack_timeout_seconds", cfg.Planner.Dispatch.AckTimeoutSeconds, 3},
		{"jitter", cfg.Planner.Prediction.Jitter, 0.0},
		{"seed", cfg.Planner.Prediction.Seed, int64(42)},
		{"morning_rush default", cfg.Planner.Prediction.MorningRush, 2.5},
		{"network.source", cfg.Network.Source, "file"},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "prometheus", true},
		{"prometheus_addr", cfg.Metrics.PrometheusAddr, ":9090"},
		{"mqtt.type", cfg.MQTT.Type, "paho"},
		{"mqtt.broker", cfg.MQTT.Conf["broker"], "tcp://localhost:1883"},
		{"log.level", cfg.Log.Level, "debug"},
		{"job.schedule", cfg.Job.Schedule, "30 4 * * 1-5"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
	assert.Equal(t, []int{7, 8, 9}, cfg.Job.Hours)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 0.2, cfg.Planner.Prediction.Jitter)
	assert.Equal(t, 300, cfg.Planner.Prediction.PassengersPerStation)
	assert.Equal(t, 1, cfg.Planner.Dispatch.Workers)
	assert.Equal(t, "default", cfg.Network.Source)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Job.Enabled)
}

func TestLoadJSONWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server":{"addr":":7000"}}`), 0o644))
	t.Setenv("K_SERVER__ADDR", ":7001")
	t.Setenv("K_PLANNER__DISPATCH__WORKERS", "3")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7001", cfg.Server.Addr)
	assert.Equal(t, 3, cfg.Planner.Dispatch.Workers)
}

func TestLoadEnvOnlyKeepsSnakeCaseKeys(t *testing.T) {
	t.Setenv("K_SERVER__READ_TIMEOUT_SECONDS", "30")
	t.Setenv("K_PLANNER__PREDICTION__JITTER", "0")
	t.Setenv("K_JOB__SCHEDULE", "30 4 * * *")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Server.ReadTimeoutSeconds)
	assert.Equal(t, 0.0, cfg.Planner.Prediction.Jitter)
	assert.Equal(t, "30 4 * * *", cfg.Job.Schedule)
	assert.Equal(t, 300, cfg.Planner.Prediction.PassengersPerStation)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, data string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(data), 0o644))
		return p
	}
	cases := map[string]string{
		"format":     write("config.toml", ""),
		"cron":       write("cron.yaml", "job:\n  enabled: true\n  schedule: \"not cron\"\n"),
		"jitter":     write("jitter.yaml", "planner:\n  prediction:\n    jitter: 2\n"),
		"log":        write("log.yaml", "log:\n  level: loud\n"),
		"distribute": write("dist.yaml", "planner:\n  dispatch:\n    distribute: true\n"),
		"sink":       write("sink.yaml", "metrics:\n  sinks:\n    - conf: {}\n"),
		"network":    write("net.yaml", "network:\n  source: sqlite\n"),
	}
	for name, path := range cases {
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Errorf("expected error for missing file")
	}
}
