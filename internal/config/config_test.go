package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://api.github.com", cfg.GitHub.BaseURL)
	assert.Equal(t, "https://s.jina.ai", cfg.WebSearch.BaseURL)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.Model)
	assert.Equal(t, 30, cfg.Budget.DefaultSeconds)
	assert.Equal(t, 20, cfg.Budget.SourceCeilingSecs)
	assert.Equal(t, 2, cfg.Budget.SourceFloorSecs)
	assert.Equal(t, 15, cfg.Budget.StopCandidates)
	assert.Equal(t, 3, cfg.Scheduler.WaveSize)
	assert.Equal(t, 8, cfg.Scheduler.MaxPerSource)
	assert.Equal(t, 5, cfg.Enrichment.TopK)
	assert.Equal(t, 10, cfg.Cache.TTLMinutes)
	assert.Equal(t, 3, cfg.Breaker.FailureThreshold)
	assert.Equal(t, 60, cfg.Breaker.CoolDownSecs)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
log:
  level: debug
  format: console
server:
  port: 9090
budget:
  source_ceiling_secs: 10
scheduler:
  wave_size: 2
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Budget.SourceCeilingSecs)
	assert.Equal(t, 2, cfg.Scheduler.WaveSize)
	// Defaults still apply for unset values
	assert.Equal(t, 8, cfg.Scheduler.MaxPerSource)
	assert.Equal(t, 2, cfg.Budget.SourceFloorSecs)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
scheduler:
  wave_size: 2
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))
	t.Setenv("SCOUT_SCHEDULER_WAVE_SIZE", "4")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Scheduler.WaveSize)
}

func TestSettingsConversion(t *testing.T) {
	cfg := BudgetConfig{
		SourceCeilingSecs:     20,
		SourceFloorSecs:       2,
		EnrichmentSliceSecs:   5,
		EnrichmentMinimumSecs: 3,
		StopCandidates:        15,
		StopSources:           2,
		StopMeanScore:         60,
	}
	b := cfg.BudgetSettings()
	assert.Equal(t, 20*time.Second, b.SourceCeiling)
	assert.Equal(t, 2*time.Second, b.SourceFloor)
	assert.Equal(t, 5*time.Second, b.EnrichmentSlice)
	assert.Equal(t, 3*time.Second, b.EnrichmentMinimum)

	br := BreakerConfig{FailureThreshold: 3, CoolDownSecs: 60}.BreakerSettings()
	assert.Equal(t, 3, br.FailureThreshold)
	assert.Equal(t, time.Minute, br.CoolDown)

	assert.Equal(t, 10*time.Minute, CacheConfig{TTLMinutes: 10}.TTL())
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.Error(t, InitLogger(LogConfig{Level: "bogus", Format: "json"}))
}
