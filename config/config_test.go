package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Fetch.Attempts)
	assert.Equal(t, time.Second, cfg.Fetch.Delay)
	assert.Equal(t, 1, cfg.Fetch.Concurrency)
	assert.Equal(t, "https://pellwall.com/products", cfg.Source.ProductBaseURL)
	assert.False(t, cfg.Browser.Enabled)
	assert.Equal(t, []time.Duration{0, 5 * time.Second}, cfg.Engine.EscalationDelays)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PERFUMES_PORT", "9090")
	t.Setenv("PERFUMES_FETCH_ATTEMPTS", "3")
	t.Setenv("PERFUMES_FETCH_DELAY", "250ms")
	t.Setenv("PERFUMES_API_KEYS", "a, b,,c")
	t.Setenv("PERFUMES_ESCALATION_DELAYS", "0s,2s")
	t.Setenv("PERFUMES_AUTH_ENABLED", "true")

	cfg := Load()

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Fetch.Attempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Fetch.Delay)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Auth.APIKeys)
	assert.Equal(t, []time.Duration{0, 2 * time.Second}, cfg.Engine.EscalationDelays)
	assert.True(t, cfg.Auth.Enabled)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("PERFUMES_PORT", "not-a-number")
	t.Setenv("PERFUMES_FETCH_DELAY", "soon")
	t.Setenv("PERFUMES_BROWSER_ENABLED", "maybe")

	cfg := Load()

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, time.Second, cfg.Fetch.Delay)
	assert.False(t, cfg.Browser.Enabled)
}

func TestLogConfig_Logger(t *testing.T) {
	var buf bytes.Buffer
	LogConfig{Level: "warn", Format: "text"}.Logger(&buf).Info("hidden")
	assert.Empty(t, buf.String())

	LogConfig{Level: "debug", Format: "json"}.Logger(&buf).Debug("shown", "slug", "ambroxan")
	assert.Contains(t, buf.String(), `"slug":"ambroxan"`)
}
